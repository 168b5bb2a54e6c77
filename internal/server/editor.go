package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/offerly/internal/offer/aggregate"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/internal/offer/editor"
	"github.com/smallbiznis/offerly/internal/orgcontext"
	"go.uber.org/zap"
)

type enterEditorRequest struct {
	Intent     string `json:"intent"`
	DocumentID string `json:"document_id"`
}

type editorStateResponse struct {
	State     string               `json:"state"`
	AutoSave  bool                 `json:"auto_save"`
	Dirty     bool                 `json:"dirty"`
	LastSaved *time.Time           `json:"last_saved,omitempty"`
	Snapshot  offerdomain.Snapshot `json:"snapshot"`
}

// EnterEditor initializes the editing session per the navigation intent.
// A failed draft resume still opens the editor; the response carries a
// recoverable flag so the client can tell the user.
func (s *Server) EnterEditor(c *gin.Context) {
	orgID, ok := s.orgFromRequest(c)
	if !ok {
		return
	}

	var req enterEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	intent := editor.Intent{Kind: editor.IntentKind(strings.TrimSpace(req.Intent))}
	if intent.Kind == "" {
		intent.Kind = editor.IntentResumeDraft
	}
	if intent.Kind == editor.IntentOpenSaved {
		if strings.TrimSpace(req.DocumentID) == "" {
			AbortWithError(c, editor.ErrMissingSnapshot)
			return
		}
		doc, err := s.documentSvc.GetByID(c.Request.Context(), req.DocumentID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		snapshot, err := offerdomain.DecodeSnapshot(doc.Payload)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		intent.Snapshot = &snapshot
	}

	session, err := s.editor.Enter(c.Request.Context(), orgID, intent)
	if err != nil && intent.Kind != editor.IntentResumeDraft {
		AbortWithError(c, err)
		return
	}

	resp := s.stateResponse(session)
	if err != nil {
		// Resume failed open: blank session, draft left untouched.
		c.JSON(http.StatusOK, gin.H{"data": resp, "recoverable_error": "draft_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEditorSnapshot(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.stateResponse(session)})
}

func (s *Server) UpdateIssuer(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	var patch aggregate.IssuerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	session.Store.UpdateIssuer(patch)
	c.JSON(http.StatusOK, gin.H{"data": s.stateResponse(session)})
}

func (s *Server) UpdateCounterparty(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	var patch aggregate.CounterpartyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	session.Store.UpdateCounterparty(patch)
	c.JSON(http.StatusOK, gin.H{"data": s.stateResponse(session)})
}

func (s *Server) UpdateTerms(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	var patch aggregate.TermsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := session.Store.UpdateTerms(patch); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.stateResponse(session)})
}

func (s *Server) AddLineItem(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	var input aggregate.LineItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	item, err := session.Store.AddLineItem(input)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateLineItem(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	var patch aggregate.LineItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := session.Store.UpdateLineItem(c.Param("id"), patch); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.stateResponse(session)})
}

func (s *Server) RemoveLineItem(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}
	if err := session.Store.RemoveLineItem(c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.stateResponse(session)})
}

// SaveDraft persists the session's aggregate on explicit user request.
func (s *Server) SaveDraft(c *gin.Context) {
	orgID, ok := s.orgFromRequest(c)
	if !ok {
		return
	}
	if !s.saveLimiter.Allow(orgID.String()) {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}
	if err := session.Controller.SaveDraft(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.stateResponse(session)})
}

type toggleAutoSaveRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) ToggleAutoSave(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	var req toggleAutoSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	session.Controller.ToggleAutoSave(req.Enabled)
	c.JSON(http.StatusOK, gin.H{"auto_save": session.Controller.AutoSaveEnabled()})
}

type commitRequest struct {
	Name string `json:"name"`
}

// CommitOffer finalizes the session's aggregate into a numbered document
// and resets the editor for the next offer.
func (s *Server) CommitOffer(c *gin.Context) {
	session, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	var req commitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	doc, err := s.documentSvc.Commit(c.Request.Context(), offerdomain.CommitRequest{
		Name:     strings.TrimSpace(req.Name),
		Snapshot: session.Store.Snapshot(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	session.Store.Reset()
	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) orgFromRequest(c *gin.Context) (snowflake.ID, bool) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrMissingOrganization)
		return 0, false
	}
	return orgID, true
}

// sessionFromRequest returns the org's session, lazily resuming the draft
// when the editor was not explicitly entered first.
func (s *Server) sessionFromRequest(c *gin.Context) (*editor.Session, bool) {
	orgID, ok := s.orgFromRequest(c)
	if !ok {
		return nil, false
	}
	session, err := s.editor.Ensure(c.Request.Context(), orgID, editor.Intent{Kind: editor.IntentResumeDraft})
	if err != nil {
		s.log.Warn("session initialization degraded", zap.Error(err))
	}
	return session, true
}

func (s *Server) stateResponse(session *editor.Session) editorStateResponse {
	return editorStateResponse{
		State:     string(session.Initializer.State()),
		AutoSave:  session.Controller.AutoSaveEnabled(),
		Dirty:     session.Store.Dirty(),
		LastSaved: session.Store.LastSaved(),
		Snapshot:  session.Store.Snapshot(),
	}
}
