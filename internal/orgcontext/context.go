// Package orgcontext carries the acting organization through request contexts.
package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const orgIDKey contextKey = "org_id"

// WithOrgID attaches an organization id to the context.
func WithOrgID(ctx context.Context, orgID snowflake.ID) context.Context {
	if orgID == 0 {
		return ctx
	}
	return context.WithValue(ctx, orgIDKey, orgID)
}

// OrgIDFromContext extracts the organization id set by the server middleware.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	value, ok := ctx.Value(orgIDKey).(snowflake.ID)
	if !ok || value == 0 {
		return 0, false
	}
	return value, true
}
