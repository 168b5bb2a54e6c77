// Package domain contains the offer document model, the versioned snapshot
// payload, and the service/repository contracts of the offer subsystem.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DocumentStatus represents the lifecycle state of a stored document.
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusSaved    DocumentStatus = "saved"
	DocumentStatusSent     DocumentStatus = "sent"
	DocumentStatusAccepted DocumentStatus = "accepted"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// ValidStatus reports whether s is a known document status.
func ValidStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusDraft, DocumentStatusSaved, DocumentStatusSent,
		DocumentStatusAccepted, DocumentStatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether a stored document may move from one status
// to another. Drafts are superseded by commits, never promoted in place.
func CanTransition(from, to DocumentStatus) bool {
	switch from {
	case DocumentStatusSaved:
		return to == DocumentStatusSent
	case DocumentStatusSent:
		return to == DocumentStatusAccepted || to == DocumentStatusRejected
	}
	return false
}

// Document is a persisted snapshot of an offer: the owner's resumable draft
// or a committed, numbered document.
type Document struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID          snowflake.ID   `gorm:"not null;index" json:"org_id"`
	Name           string         `gorm:"type:text;not null" json:"name"`
	Status         DocumentStatus `gorm:"type:text;not null;default:'draft';index" json:"status"`
	IsTemplate     bool           `gorm:"not null;default:false" json:"is_template"`
	DocumentNumber string         `gorm:"type:text" json:"document_number"`
	Version        int            `gorm:"not null;default:0" json:"version"`
	Payload        datatypes.JSON `gorm:"not null" json:"payload"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Document) TableName() string { return "documents" }
