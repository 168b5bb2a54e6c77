// Package domain contains persistence models for counterparties.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Counterparty is a customer record promoted from an offer. Records are
// keyed logically by (org, name) and only created through reconciliation.
type Counterparty struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	OrgID         snowflake.ID `gorm:"not null;index:idx_counterparty_org_name"`
	Name          string       `gorm:"type:text;not null;index:idx_counterparty_org_name"`
	ContactPerson string       `gorm:"type:text"`
	Address       string       `gorm:"type:text"`
	City          string       `gorm:"type:text"`
	Country       string       `gorm:"type:text"`
	TaxID         string       `gorm:"type:text"`
	Email         string       `gorm:"type:text"`
	Phone         string       `gorm:"type:text"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Counterparty) TableName() string { return "counterparties" }

type ListRequest struct {
	Name     string `form:"name"`
	PageSize int    `form:"page_size"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *Counterparty) error
	FindByName(ctx context.Context, db *gorm.DB, orgID snowflake.ID, name string) (*Counterparty, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, req ListRequest) ([]Counterparty, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
)
