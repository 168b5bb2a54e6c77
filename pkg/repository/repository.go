// Package repository provides a generic gorm-backed store shared by the
// domain services. Not-found lookups return nil records, not errors.
package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/offerly/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is the generic persistence boundary for a single record type.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Save(ctx context.Context, record *T) error
	Updates(ctx context.Context, filter *T, values map[string]any) error
	FindOne(ctx context.Context, filter *T, opts ...option.Option) (*T, error)
	Find(ctx context.Context, filter *T, opts ...option.Option) ([]*T, error)
	Count(ctx context.Context, filter *T) (int64, error)
	Delete(ctx context.Context, filter *T) error
}

type store[T any] struct {
	db *gorm.DB
}

// ProvideStore builds a Repository for T on top of the given connection.
func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (s *store[T]) Create(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *store[T]) Save(ctx context.Context, record *T) error {
	return s.db.WithContext(ctx).Save(record).Error
}

func (s *store[T]) Updates(ctx context.Context, filter *T, values map[string]any) error {
	var model T
	return s.db.WithContext(ctx).Model(&model).Where(filter).Updates(values).Error
}

func (s *store[T]) FindOne(ctx context.Context, filter *T, opts ...option.Option) (*T, error) {
	var record T
	tx := option.Apply(s.db.WithContext(ctx).Where(filter), opts...)
	if err := tx.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (s *store[T]) Find(ctx context.Context, filter *T, opts ...option.Option) ([]*T, error) {
	var records []*T
	tx := option.Apply(s.db.WithContext(ctx).Where(filter), opts...)
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store[T]) Count(ctx context.Context, filter *T) (int64, error) {
	var model T
	var count int64
	err := s.db.WithContext(ctx).Model(&model).Where(filter).Count(&count).Error
	return count, err
}

func (s *store[T]) Delete(ctx context.Context, filter *T) error {
	var model T
	return s.db.WithContext(ctx).Where(filter).Delete(&model).Error
}
