package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository provides the specialized document lookups the subsystem needs
// beyond the generic store: draft resumption, numbering, and cleanup.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, doc *Document) error
	Update(ctx context.Context, db *gorm.DB, doc *Document) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Document, error)
	// FindLatestDraft returns the most recently updated draft for the org,
	// or nil when none exists. Absence is not an error.
	FindLatestDraft(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Document, error)
	// FindLatestCommitted returns the most recently created non-draft,
	// non-template document for the org, or nil.
	FindLatestCommitted(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Document, error)
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
	// DeleteSupersededDrafts removes drafts last touched before the cutoff
	// that have since been superseded by a committed document.
	DeleteSupersededDrafts(ctx context.Context, db *gorm.DB, before time.Time, limit int) (int64, error)
}
