package domain

import "context"

// Service records audit entries; attribution is read from the request context.
type Service interface {
	AuditLog(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error
}
