package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/offerly/internal/orgcontext"
)

// ResolveOrganization puts the acting organization on the request context.
// The X-Org-Id header wins; without it the first configured organization
// is used, which covers the common single-tenant install.
func (s *Server) ResolveOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := strings.TrimSpace(c.GetHeader("X-Org-Id")); raw != "" {
			orgID, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, newValidationError("X-Org-Id", "invalid_org_id", "invalid organization id"))
				return
			}
			s.withOrg(c, orgID)
			return
		}

		s.orgMu.Lock()
		cached := s.cachedOrgID
		s.orgMu.Unlock()
		if cached != 0 {
			s.withOrg(c, cached)
			return
		}

		org, err := s.orgRepo.FindFirst(c.Request.Context(), s.db)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if org == nil {
			AbortWithError(c, ErrMissingOrganization)
			return
		}

		s.orgMu.Lock()
		s.cachedOrgID = org.ID
		s.orgMu.Unlock()
		s.withOrg(c, org.ID)
	}
}

func (s *Server) withOrg(c *gin.Context, orgID snowflake.ID) {
	ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
