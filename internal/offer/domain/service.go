package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/offerly/pkg/db/pagination"
)

type CommitRequest struct {
	Name     string
	Snapshot Snapshot
}

type ListRequest struct {
	pagination.Pagination
	Status     string
	Name       string
	IsTemplate *bool
}

type ListResponse struct {
	pagination.PageInfo
	Documents []Document `json:"documents"`
}

// Service is the document-facing contract of the offer subsystem.
type Service interface {
	// SaveDraft persists the snapshot as the owner's resumable draft,
	// inserting on first save and updating in place afterwards.
	SaveDraft(ctx context.Context, snapshot Snapshot) (*Document, error)
	// LatestDraft returns the owner's most recently updated draft, or nil.
	LatestDraft(ctx context.Context) (*Document, error)
	// Commit finalizes the snapshot into a numbered, permanent document.
	Commit(ctx context.Context, req CommitRequest) (*Document, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	GetByID(ctx context.Context, id string) (*Document, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status DocumentStatus) (*Document, error)
}

var (
	ErrInvalidOrganization     = errors.New("invalid_organization")
	ErrInvalidID               = errors.New("invalid_id")
	ErrDocumentNotFound        = errors.New("document_not_found")
	ErrMissingCounterpartyName = errors.New("missing_counterparty_name")
	ErrInvalidLineItem         = errors.New("invalid_line_item")
	ErrInvalidStatus           = errors.New("invalid_status")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrUnsupportedSnapshot     = errors.New("unsupported_snapshot_version")
)
