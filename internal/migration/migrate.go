// Package migration applies the embedded schema migrations at startup.
package migration

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"gorm.io/gorm"
)

// RunMigrations applies every embedded *.up.sql file that has not been
// recorded in schema_migrations yet, in filename order.
func RunMigrations(db *gorm.DB) error {
	ctx := context.Background()

	err := db.WithContext(ctx).Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	).Error
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := fs.Glob(embeddedMigrations, migrationsDir+"/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)

	for _, entry := range entries {
		applied, err := isApplied(ctx, db, entry)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		raw, err := embeddedMigrations.ReadFile(entry)
		if err != nil {
			return fmt.Errorf("read %s: %w", entry, err)
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(raw)).Error; err != nil {
				return err
			}
			return tx.Exec(
				"INSERT INTO schema_migrations (version) VALUES (?)", entry,
			).Error
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", entry, err)
		}
	}
	return nil
}

func isApplied(ctx context.Context, db *gorm.DB, version string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).
		Scan(&n).Error
	return n > 0, err
}
