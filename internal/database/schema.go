package database

import (
	"context"
	"fmt"
	"log/slog"

	"tubbit/internal/config"
	"tubbit/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema will do for a given config.
type SchemaPlan struct {
	Mode        string
	Environment string
	SQL         bool
	AutoMigrate bool
}

// SchemaStatus is a SchemaPlan plus the migration state of the database.
type SchemaStatus struct {
	SchemaPlan
	Applied []int
	Pending Catalog
}

// PlanSchema resolves DB_SCHEMA_MODE against the environment. Hybrid runs
// SQL migrations everywhere and GORM AutoMigrate only outside shared
// environments. Auto in a shared environment needs an explicit opt-in
// because AutoMigrate never drops columns and can hide drift.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: cfg.DBSchemaMode, Environment: cfg.Env}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	shared := cfg.IsProduction() || cfg.Env == "staging" || cfg.Env == "stage"

	switch plan.Mode {
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeHybrid:
		plan.SQL, plan.AutoMigrate = true, !shared
	case SchemaModeAuto:
		if shared && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %s requires DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.AutoMigrate = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema brings the database up to date according to PlanSchema.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	if plan.AutoMigrate {
		middleware.Logger.InfoContext(ctx, "Auto-migrating models",
			slog.String("mode", plan.Mode), slog.String("env", plan.Environment))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the plan and, when SQL migrations are in play,
// which embedded migrations are applied and pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.SQL {
		return status, nil
	}

	catalog, err := EmbeddedCatalog()
	if err != nil {
		return nil, err
	}
	migrator := NewMigrator(db, catalog)
	if status.Applied, err = migrator.Applied(ctx); err != nil {
		return nil, err
	}
	if status.Pending, err = migrator.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
