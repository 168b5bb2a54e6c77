package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/offerly/internal/audit/domain"
)

type listAuditRequest struct {
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	Limit      int    `form:"limit"`
}

// ListAuditLogs returns the organization's audit trail, newest first.
func (s *Server) ListAuditLogs(c *gin.Context) {
	orgID, ok := s.orgFromRequest(c)
	if !ok {
		return
	}

	var req listAuditRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entries, err := s.auditRepo.List(c.Request.Context(), s.db, auditdomain.ListFilter{
		OrgID:      orgID,
		Action:     strings.TrimSpace(req.Action),
		TargetType: strings.TrimSpace(req.TargetType),
		TargetID:   strings.TrimSpace(req.TargetID),
		Limit:      req.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
