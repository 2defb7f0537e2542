package main

import (
	"bufio"
	"fmt"
	"strings"

	"tubbit/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var resetConfirmed bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect or reset the development database",
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the public schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to reset a %s database", cfg.Env)
		}
		if !resetConfirmed {
			fmt.Fprintf(cmd.OutOrStdout(), "This drops every table in %s@%s. Type the database name to continue: ", cfg.DBName, cfg.DBHost)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(answer) != cfg.DBName {
				return fmt.Errorf("aborted")
			}
		}

		db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		return resetSchema(db)
	},
}

var dbConstraintsCmd = &cobra.Command{
	Use:   "constraints",
	Short: "List the constraints of the public schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}

		var rows []struct {
			Relname string `gorm:"column:relname"`
			Conname string `gorm:"column:conname"`
			Def     string `gorm:"column:def"`
		}
		if err := db.Raw(`SELECT r.relname, c.conname, pg_get_constraintdef(c.oid) AS def
			FROM pg_constraint c
			JOIN pg_class r ON c.conrelid = r.oid
			JOIN pg_namespace n ON n.oid = r.relnamespace
			WHERE n.nspname = 'public'
			ORDER BY r.relname, c.conname`).Scan(&rows).Error; err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range rows {
			fmt.Fprintf(out, "%-24s %-40s %s\n", r.Relname, r.Conname, r.Def)
		}
		return nil
	},
}

func resetSchema(db *gorm.DB) error {
	if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
		return fmt.Errorf("failed to grant schema permissions: %w", err)
	}
	fmt.Println("Database reset. Run `tubbitctl migrate up` to recreate the tables.")
	return nil
}

func init() {
	dbResetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "Skip the confirmation prompt")
	dbCmd.AddCommand(dbResetCmd, dbConstraintsCmd)
}
