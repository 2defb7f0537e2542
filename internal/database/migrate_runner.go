package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tubbit/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMigration records one applied migration.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaMigration) TableName() string { return "schema_migrations" }

// Migrator applies a Catalog to a database and tracks progress in
// schema_migrations. Each script runs in the same transaction as its
// bookkeeping row, so a failed script leaves no record behind.
type Migrator struct {
	db      *gorm.DB
	catalog Catalog
}

func NewMigrator(db *gorm.DB, catalog Catalog) *Migrator {
	return &Migrator{db: db, catalog: catalog}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

// Applied lists applied versions in ascending order. A database that has
// never been migrated reports none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	var versions []int
	err := m.db.WithContext(ctx).Model(&SchemaMigration{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return versions, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

// Pending lists catalog migrations not yet applied. It fails when the
// database carries versions this build does not know, which means the
// binary is older than the schema.
func (m *Migrator) Pending(ctx context.Context) (Catalog, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if unknown := m.catalog.Unknown(applied); len(unknown) > 0 {
		names := make([]string, len(unknown))
		for i, v := range unknown {
			names[i] = fmt.Sprintf("%06d", v)
		}
		return nil, fmt.Errorf("schema_migrations has versions this build does not ship: %s", strings.Join(names, ", "))
	}
	return m.catalog.Pending(applied), nil
}

// Up applies every pending migration in version order and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, mig := range pending {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{Version: mig.Version, Name: mig.Name}).Error
		})
		if err != nil {
			return i, fmt.Errorf("apply migration %s: %w", mig, err)
		}
		middleware.Logger.InfoContext(ctx, "Migration applied", slog.String("migration", mig.String()))
	}
	return len(pending), nil
}

// Down reverts an applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig, ok := m.catalog.Find(version)
	if !ok {
		return fmt.Errorf("migration %06d is not in this build", version)
	}
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("version = ?", version).Delete(&SchemaMigration{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("migration %s has not been applied", mig)
		}
		return tx.Exec(mig.Down).Error
	})
	if err != nil {
		return fmt.Errorf("roll back migration %s: %w", mig, err)
	}
	middleware.Logger.InfoContext(ctx, "Migration rolled back", slog.String("migration", mig.String()))
	return nil
}

// RunMigrations applies the embedded catalog.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	catalog, err := EmbeddedCatalog()
	if err != nil {
		return err
	}
	_, err = NewMigrator(db, catalog).Up(ctx)
	return err
}

// RollbackMigration reverts one embedded migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	catalog, err := EmbeddedCatalog()
	if err != nil {
		return err
	}
	return NewMigrator(db, catalog).Down(ctx, version)
}
