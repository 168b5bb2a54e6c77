package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/offerly/internal/catalog/domain"
	"gorm.io/gorm"
)

type catalogRepository struct{}

// Provide builds the catalog item repository.
func Provide() catalogdomain.Repository {
	return &catalogRepository{}
}

func (r *catalogRepository) Insert(ctx context.Context, db *gorm.DB, record *catalogdomain.CatalogItem) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *catalogRepository) FindByName(ctx context.Context, db *gorm.DB, orgID snowflake.ID, name string) (*catalogdomain.CatalogItem, error) {
	var record catalogdomain.CatalogItem
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

func (r *catalogRepository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, req catalogdomain.ListRequest) ([]catalogdomain.CatalogItem, error) {
	tx := db.WithContext(ctx).Where("org_id = ?", orgID)
	if name := strings.TrimSpace(req.Name); name != "" {
		tx = tx.Where("name LIKE ?", name+"%")
	}
	limit := req.PageSize
	if limit <= 0 {
		limit = 50
	}
	var records []catalogdomain.CatalogItem
	err := tx.Order("name ASC").Limit(limit).Find(&records).Error
	return records, err
}
