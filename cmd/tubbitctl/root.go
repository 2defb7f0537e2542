package main

import (
	"fmt"
	"os"

	"tubbit/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tubbitctl",
	Short: "Maintenance commands for the Tubbit backend",
	Long: `tubbitctl runs schema migrations, seeds demo data and checks the
published API surface of a Tubbit deployment.

Database and Redis settings come from the same environment variables and
config.yml the server reads.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(openAPICompatCmd)
	rootCmd.AddCommand(notifyProbeCmd)
	rootCmd.AddCommand(dbCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
