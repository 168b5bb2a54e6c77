package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"gorm.io/gorm"
)

type documentRepository struct{}

// Provide builds the document repository.
func Provide() offerdomain.Repository {
	return &documentRepository{}
}

func (r *documentRepository) Insert(ctx context.Context, db *gorm.DB, doc *offerdomain.Document) error {
	return db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) Update(ctx context.Context, db *gorm.DB, doc *offerdomain.Document) error {
	return db.WithContext(ctx).Save(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*offerdomain.Document, error) {
	var doc offerdomain.Document
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindLatestDraft(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*offerdomain.Document, error) {
	var doc offerdomain.Document
	err := db.WithContext(ctx).
		Where("org_id = ? AND status = ? AND is_template = ?", orgID, offerdomain.DocumentStatusDraft, false).
		Order("updated_at DESC").
		Order("id DESC").
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) FindLatestCommitted(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*offerdomain.Document, error) {
	var doc offerdomain.Document
	err := db.WithContext(ctx).
		Where("org_id = ? AND status <> ? AND is_template = ?", orgID, offerdomain.DocumentStatusDraft, false).
		Order("created_at DESC").
		Order("id DESC").
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&offerdomain.Document{}).Error
}

func (r *documentRepository) DeleteSupersededDrafts(ctx context.Context, db *gorm.DB, before time.Time, limit int) (int64, error) {
	if limit <= 0 {
		limit = 50
	}
	result := db.WithContext(ctx).Exec(
		`DELETE FROM documents WHERE id IN (
			SELECT d.id FROM documents d
			WHERE d.status = ? AND d.is_template = ? AND d.updated_at < ?
			  AND EXISTS (
				SELECT 1 FROM documents c
				WHERE c.org_id = d.org_id
				  AND c.status <> ?
				  AND c.is_template = ?
				  AND c.created_at > d.updated_at
			  )
			LIMIT ?
		)`,
		offerdomain.DocumentStatusDraft, false, before,
		offerdomain.DocumentStatusDraft, false,
		limit,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
