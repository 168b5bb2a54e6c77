// Package seed bootstraps the single-tenant install with a default
// organization so the editor works out of the box.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/offerly/internal/organization/domain"
	"gorm.io/gorm"
)

const defaultOrgName = "My company"

// EnsureDefaultOrg creates the fallback organization when none exists.
func EnsureDefaultOrg(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org orgdomain.Organization
		err := tx.WithContext(ctx).Order("id ASC").First(&org).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		org = orgdomain.Organization{
			ID:        node.Generate(),
			Name:      defaultOrgName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.WithContext(ctx).Create(&org).Error
	})
}
