package repository

import (
	"context"

	auditdomain "github.com/smallbiznis/offerly/internal/audit/domain"
	"gorm.io/gorm"
)

type auditRepository struct{}

// Provide builds the audit repository.
func Provide() auditdomain.Repository {
	return &auditRepository{}
}

func (r *auditRepository) Insert(ctx context.Context, db *gorm.DB, entry *auditdomain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, db *gorm.DB, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	tx := db.WithContext(ctx).Model(&auditdomain.AuditLog{})
	if filter.OrgID != 0 {
		tx = tx.Where("org_id = ?", filter.OrgID)
	}
	if filter.Action != "" {
		tx = tx.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		tx = tx.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		tx = tx.Where("target_id = ?", filter.TargetID)
	}
	if filter.StartAt != nil {
		tx = tx.Where("created_at >= ?", *filter.StartAt)
	}
	if filter.EndAt != nil {
		tx = tx.Where("created_at < ?", *filter.EndAt)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	var entries []*auditdomain.AuditLog
	err := tx.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
