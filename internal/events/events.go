// Package events defines document lifecycle events and the outbox that
// records them.
package events

// Document lifecycle event types.
const (
	EventDraftSaved            = "draft.saved"
	EventDocumentCommitted     = "document.committed"
	EventDocumentStatusChanged = "document.status_changed"
	EventDocumentDeleted       = "document.deleted"
	EventCounterpartyCreated   = "counterparty.created"
	EventCatalogItemCreated    = "catalog_item.created"
)

// DocumentPayload captures the minimal data consumers need about a document event.
type DocumentPayload struct {
	DocumentID     string `json:"document_id"`
	OrgID          string `json:"org_id"`
	DocumentNumber string `json:"document_number,omitempty"`
	Status         string `json:"status,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p DocumentPayload) ToMap() map[string]any {
	payload := map[string]any{
		"document_id": p.DocumentID,
		"org_id":      p.OrgID,
	}
	if p.DocumentNumber != "" {
		payload["document_number"] = p.DocumentNumber
	}
	if p.Status != "" {
		payload["status"] = p.Status
	}
	return payload
}

// EntityPayload describes a counterparty or catalog item promotion.
type EntityPayload struct {
	EntityID string `json:"entity_id"`
	OrgID    string `json:"org_id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p EntityPayload) ToMap() map[string]any {
	return map[string]any{
		"entity_id": p.EntityID,
		"org_id":    p.OrgID,
		"kind":      p.Kind,
		"name":      p.Name,
	}
}
