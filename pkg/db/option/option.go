// Package option provides composable query options for gorm lookups.
package option

import (
	"strings"
	"time"

	"github.com/smallbiznis/offerly/pkg/db/pagination"
	"gorm.io/gorm"
)

// Option mutates a gorm query before execution.
type Option func(*gorm.DB) *gorm.DB

// Apply folds options over a query.
func Apply(tx *gorm.DB, opts ...Option) *gorm.DB {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		tx = opt(tx)
	}
	return tx
}

// ApplyPagination seeks past the cursor encoded in the page token and fetches
// one extra row so the caller can detect a following page.
func ApplyPagination(p pagination.Pagination) Option {
	return func(tx *gorm.DB) *gorm.DB {
		pageSize := p.PageSize
		if pageSize <= 0 {
			pageSize = 50
		}
		if token := strings.TrimSpace(p.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil {
				// Bind the timestamp as time.Time so the comparison uses
				// the driver's datetime encoding, not the token's.
				if at, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt); err == nil {
					tx = tx.Where(
						"(created_at < ?) OR (created_at = ? AND id < ?)",
						at, at, cursor.ID,
					)
				}
			}
		}
		return tx.Limit(pageSize + 1)
	}
}

// QuerySortBy restricts sorting to an allow-listed set of columns.
type QuerySortBy struct {
	Allow   map[string]bool
	Field   string
	OrderBy string
}

// WithSortBy orders the query by an allowed column, newest first by default.
func WithSortBy(s QuerySortBy) Option {
	return func(tx *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(s.Field)
		if field == "" || !s.Allow[field] {
			field = "created_at"
		}
		direction := "DESC"
		if strings.EqualFold(strings.TrimSpace(s.OrderBy), "asc") {
			direction = "ASC"
		}
		return tx.Order(field + " " + direction).Order("id " + direction)
	}
}
