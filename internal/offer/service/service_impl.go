package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/offerly/internal/audit/domain"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/events"
	"github.com/smallbiznis/offerly/internal/observability/metrics"
	"github.com/smallbiznis/offerly/internal/offer/numbering"
	"github.com/smallbiznis/offerly/internal/orgcontext"
	"github.com/smallbiznis/offerly/internal/reconcile"
	"github.com/smallbiznis/offerly/pkg/db/option"
	"github.com/smallbiznis/offerly/pkg/db/pagination"
	"github.com/smallbiznis/offerly/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
)

const untitledName = "Untitled offer"

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Repo       offerdomain.Repository
	Store      repository.Repository[offerdomain.Document]
	Numbering  *numbering.Generator
	Reconciler *reconcile.Service
	Outbox     *events.Outbox
	Audit      auditdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clk        clock.Clock
	genID      *snowflake.Node
	repo       offerdomain.Repository
	store      repository.Repository[offerdomain.Document]
	numbering  *numbering.Generator
	reconciler *reconcile.Service
	outbox     *events.Outbox
	audit      auditdomain.Service
}

func NewService(p ServiceParam) offerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("offer.service"),
		clk:        p.Clock,
		genID:      p.GenID,
		repo:       p.Repo,
		store:      p.Store,
		numbering:  p.Numbering,
		reconciler: p.Reconciler,
		outbox:     p.Outbox,
		audit:      p.Audit,
	}
}

// SaveDraft upserts the organization's resumable draft. The first save
// inserts a draft row and records a draft.saved event; later saves update
// the same row in place so repeated autosaves stay idempotent.
func (s *Service) SaveDraft(ctx context.Context, snapshot offerdomain.Snapshot) (*offerdomain.Document, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, offerdomain.ErrInvalidOrganization
	}

	snapshot.Status = offerdomain.AggregateStatusDraft
	payload, err := offerdomain.EncodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	name := draftName(snapshot)
	now := s.clk.Now()

	existing, err := s.repo.FindLatestDraft(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Name = name
		existing.Payload = payload
		existing.Version = snapshot.Version
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	doc := &offerdomain.Document{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		Status:    offerdomain.DocumentStatusDraft,
		Version:   snapshot.Version,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, doc); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID: orgID,
			Type:  events.EventDraftSaved,
			Payload: events.DocumentPayload{
				DocumentID: doc.ID.String(),
				OrgID:      orgID.String(),
				Status:     string(doc.Status),
			}.ToMap(),
			DedupeKey: events.EventDraftSaved + ":" + doc.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LatestDraft returns the organization's most recently updated draft, or
// nil when there is nothing to resume.
func (s *Service) LatestDraft(ctx context.Context) (*offerdomain.Document, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, offerdomain.ErrInvalidOrganization
	}
	return s.repo.FindLatestDraft(ctx, s.db, orgID)
}

// Commit finalizes a snapshot into a numbered, permanent document. Entity
// reconciliation and numbering degrade rather than block: a commit never
// fails because master data or the sequence lookup is unavailable.
func (s *Service) Commit(ctx context.Context, req offerdomain.CommitRequest) (*offerdomain.Document, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, offerdomain.ErrInvalidOrganization
	}
	if err := validateCommit(req.Snapshot); err != nil {
		return nil, err
	}

	s.reconciler.ReconcileSnapshot(ctx, orgID, req.Snapshot)

	number := s.numbering.Next(ctx, orgID)
	now := s.clk.Now()

	snapshot := req.Snapshot.Clone()
	snapshot.Status = offerdomain.AggregateStatusCommitted
	snapshot.Version++
	snapshot.Terms.DocumentNumber = number
	payload, err := offerdomain.EncodeSnapshot(snapshot)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = draftName(snapshot)
	}

	doc := &offerdomain.Document{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		Name:           name,
		Status:         offerdomain.DocumentStatusSaved,
		DocumentNumber: number,
		Version:        snapshot.Version,
		Payload:        payload,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, doc); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID: orgID,
			Type:  events.EventDocumentCommitted,
			Payload: events.DocumentPayload{
				DocumentID:     doc.ID.String(),
				OrgID:          orgID.String(),
				DocumentNumber: number,
				Status:         string(doc.Status),
			}.ToMap(),
			DedupeKey: events.EventDocumentCommitted + ":" + doc.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.Document().IncCommitted()
	s.auditLog(ctx, "document.commit", doc, map[string]any{"document_number": number})
	s.log.Info("document committed",
		zap.String("org_id", orgID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", number),
	)
	return doc, nil
}

func (s *Service) List(ctx context.Context, req offerdomain.ListRequest) (offerdomain.ListResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return offerdomain.ListResponse{}, offerdomain.ErrInvalidOrganization
	}

	filter := &offerdomain.Document{OrgID: orgID}
	opts := []option.Option{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true, "updated_at": true}}),
		option.ApplyPagination(req.Pagination),
	}
	if status := offerdomain.DocumentStatus(strings.TrimSpace(req.Status)); status != "" {
		if !offerdomain.ValidStatus(status) {
			return offerdomain.ListResponse{}, offerdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		opts = append(opts, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("name LIKE ?", "%"+name+"%")
		})
	}
	if req.IsTemplate != nil {
		isTemplate := *req.IsTemplate
		opts = append(opts, func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_template = ?", isTemplate)
		})
	}

	records, err := s.store.Find(ctx, filter, opts...)
	if err != nil {
		return offerdomain.ListResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	pageInfo := pagination.BuildCursorPageInfo(records, int32(pageSize), func(doc *offerdomain.Document) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        doc.ID.String(),
			CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(records) > pageSize {
		records = records[:pageSize]
	}

	documents := make([]offerdomain.Document, 0, len(records))
	for _, record := range records {
		documents = append(documents, *record)
	}
	return offerdomain.ListResponse{PageInfo: *pageInfo, Documents: documents}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*offerdomain.Document, error) {
	orgID, docID, err := s.resolveIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.repo.FindByID(ctx, s.db, orgID, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, offerdomain.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Delete(ctx, tx, doc.OrgID, doc.ID); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID: doc.OrgID,
			Type:  events.EventDocumentDeleted,
			Payload: events.DocumentPayload{
				DocumentID: doc.ID.String(),
				OrgID:      doc.OrgID.String(),
			}.ToMap(),
			DedupeKey: events.EventDocumentDeleted + ":" + doc.ID.String(),
		})
	})
	if err != nil {
		return err
	}

	s.auditLog(ctx, "document.delete", doc, nil)
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status offerdomain.DocumentStatus) (*offerdomain.Document, error) {
	if !offerdomain.ValidStatus(status) {
		return nil, offerdomain.ErrInvalidStatus
	}
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offerdomain.CanTransition(doc.Status, status) {
		return nil, offerdomain.ErrInvalidStatusTransition
	}

	previous := doc.Status
	doc.Status = status
	doc.UpdatedAt = s.clk.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, doc); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID: doc.OrgID,
			Type:  events.EventDocumentStatusChanged,
			Payload: events.DocumentPayload{
				DocumentID: doc.ID.String(),
				OrgID:      doc.OrgID.String(),
				Status:     string(status),
			}.ToMap(),
			DedupeKey: events.EventDocumentStatusChanged + ":" + doc.ID.String() + ":" + string(status),
		})
	})
	if err != nil {
		return nil, err
	}

	s.auditLog(ctx, "document.status_change", doc, map[string]any{
		"from": string(previous),
		"to":   string(status),
	})
	return doc, nil
}

// resolveIDs extracts the org from context and parses the document id.
func (s *Service) resolveIDs(ctx context.Context, id string) (snowflake.ID, snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, 0, offerdomain.ErrInvalidOrganization
	}
	docID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || docID == 0 {
		return 0, 0, offerdomain.ErrInvalidID
	}
	return orgID, docID, nil
}

// auditLog records the action; audit failures never fail the operation.
func (s *Service) auditLog(ctx context.Context, action string, doc *offerdomain.Document, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	targetID := doc.ID.String()
	if err := s.audit.AuditLog(ctx, action, "document", &targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func validateCommit(snapshot offerdomain.Snapshot) error {
	if strings.TrimSpace(snapshot.Counterparty.Name) == "" {
		return offerdomain.ErrMissingCounterpartyName
	}
	for _, item := range snapshot.LineItems {
		if strings.TrimSpace(item.Name) == "" {
			return offerdomain.ErrInvalidLineItem
		}
		if item.Quantity < 0 || item.UnitPrice < 0 {
			return offerdomain.ErrInvalidLineItem
		}
	}
	return nil
}

// draftName labels the stored document after its counterparty.
func draftName(snapshot offerdomain.Snapshot) string {
	if name := strings.TrimSpace(snapshot.Counterparty.Name); name != "" {
		return name
	}
	return untitledName
}
