// Package bootstrap wires the process-level dependencies shared by the
// server and the maintenance commands.
package bootstrap

import (
	"fmt"
	"log/slog"

	"tubbit/internal/cache"
	"tubbit/internal/config"
	"tubbit/internal/database"
	"tubbit/internal/middleware"
	"tubbit/internal/models"
	"tubbit/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData fills an empty development database with demo channels.
	SeedDemoData bool
	Seed         seed.Options
}

// OptionsFromConfig derives Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{SeedDemoData: cfg.SeedDemoData, Seed: seed.DefaultOptions()}
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The returned Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoData {
		if err := seedIfEmpty(cfg, db, opts.Seed); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

func seedIfEmpty(cfg *config.Config, db *gorm.DB, opts seed.Options) error {
	if cfg.IsProduction() {
		middleware.Logger.Warn("SEED_DEMO_DATA ignored in production")
		return nil
	}

	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	opts.ShouldClean = false
	sum, err := seed.Seed(db, opts)
	if err != nil {
		return err
	}
	middleware.Logger.Info("seeded demo data", slog.String("summary", sum.String()))
	return nil
}
