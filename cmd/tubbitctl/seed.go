package main

import (
	"fmt"
	"log"

	"tubbit/internal/database"
	"tubbit/internal/seed"

	"github.com/spf13/cobra"
)

var seedOpts = seed.DefaultOptions()

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo channels and content",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to seed a %s database", cfg.Env)
		}

		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}

		sum, err := seed.Seed(db, seedOpts)
		if err != nil {
			return err
		}
		log.Printf("✨ Seeded %s", sum)
		log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.NumUsers, "users", seedOpts.NumUsers, "Number of channels to create")
	f.IntVar(&seedOpts.VideosPerUser, "videos", seedOpts.VideosPerUser, "Videos per channel")
	f.IntVar(&seedOpts.TweetsPerUser, "tweets", seedOpts.TweetsPerUser, "Tweets per channel")
	f.IntVar(&seedOpts.CommentsPerVideo, "comments", seedOpts.CommentsPerVideo, "Comments per published video")
	f.IntVar(&seedOpts.MaxDays, "max-days", seedOpts.MaxDays, "How many days back timestamps may reach")
	f.BoolVar(&seedOpts.ShouldClean, "clean", false, "Delete existing rows before seeding")
	f.BoolVar(&seedOpts.SkipBcrypt, "fast", false, "Skip bcrypt hashing; seeded accounts cannot log in")
	f.BoolVar(&seedOpts.DryRun, "dry-run", false, "Build entities without writing them")
	f.Int64Var(&seedOpts.RandSeed, "rand-seed", 0, "Seed for reproducible data (0 picks one)")
}
