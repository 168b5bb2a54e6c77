// Package domain contains persistence models for the item catalog.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CatalogItem is a reusable line item promoted from an offer. Bundle
// sub-components are never promoted; they exist only inside their bundle.
type CatalogItem struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	OrgID       snowflake.ID `gorm:"not null;index:idx_catalog_org_name"`
	Name        string       `gorm:"type:text;not null;index:idx_catalog_org_name"`
	Description string       `gorm:"type:text"`
	PartNumber  string       `gorm:"type:text"`
	Unit        string       `gorm:"type:text"`
	UnitPrice   float64      `gorm:"not null;default:0"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CatalogItem) TableName() string { return "catalog_items" }

type ListRequest struct {
	Name     string `form:"name"`
	PageSize int    `form:"page_size"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *CatalogItem) error
	FindByName(ctx context.Context, db *gorm.DB, orgID snowflake.ID, name string) (*CatalogItem, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, req ListRequest) ([]CatalogItem, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
)
