package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/offerly/internal/catalog/domain"
	partydomain "github.com/smallbiznis/offerly/internal/party/domain"
)

func (s *Server) ListCounterparties(c *gin.Context) {
	orgID, ok := s.orgFromRequest(c)
	if !ok {
		return
	}

	var req partydomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	records, err := s.partyRepo.List(c.Request.Context(), s.db, orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (s *Server) ListCatalogItems(c *gin.Context) {
	orgID, ok := s.orgFromRequest(c)
	if !ok {
		return
	}

	var req catalogdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	records, err := s.catalogRepo.List(c.Request.Context(), s.db, orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}
