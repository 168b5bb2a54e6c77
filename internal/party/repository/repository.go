package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/offerly/internal/party/domain"
	"gorm.io/gorm"
)

type partyRepository struct{}

// Provide builds the counterparty repository.
func Provide() partydomain.Repository {
	return &partyRepository{}
}

func (r *partyRepository) Insert(ctx context.Context, db *gorm.DB, record *partydomain.Counterparty) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *partyRepository) FindByName(ctx context.Context, db *gorm.DB, orgID snowflake.ID, name string) (*partydomain.Counterparty, error) {
	var record partydomain.Counterparty
	err := db.WithContext(ctx).
		Where("org_id = ? AND name = ?", orgID, strings.TrimSpace(name)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *partyRepository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, req partydomain.ListRequest) ([]partydomain.Counterparty, error) {
	tx := db.WithContext(ctx).Where("org_id = ?", orgID)
	if name := strings.TrimSpace(req.Name); name != "" {
		tx = tx.Where("name LIKE ?", name+"%")
	}
	limit := req.PageSize
	if limit <= 0 {
		limit = 50
	}
	var records []partydomain.Counterparty
	err := tx.Order("name ASC").Limit(limit).Find(&records).Error
	return records, err
}
