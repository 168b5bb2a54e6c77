package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
)

func (s *Server) ListDocuments(c *gin.Context) {
	var req offerdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Status = strings.TrimSpace(c.Query("status"))
	req.Name = strings.TrimSpace(c.Query("name"))
	if raw := strings.TrimSpace(c.Query("is_template")); raw != "" {
		isTemplate := raw == "true" || raw == "1"
		req.IsTemplate = &isTemplate
	}

	resp, err := s.documentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Documents,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) GetDocument(c *gin.Context) {
	doc, err := s.documentSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) DeleteDocument(c *gin.Context) {
	if err := s.documentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateDocumentStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.documentSvc.UpdateStatus(
		c.Request.Context(),
		c.Param("id"),
		offerdomain.DocumentStatus(strings.TrimSpace(req.Status)),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": doc})
}
