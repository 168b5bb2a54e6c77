package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// SnapshotSchemaVersion is the current payload schema. Version 1 payloads
// carried a single flat discount and no tax-inclusion flag; they are
// migrated on load.
const SnapshotSchemaVersion = 2

// AggregateStatus is the in-memory lifecycle of the offer being edited.
type AggregateStatus string

const (
	AggregateStatusEditing   AggregateStatus = "editing"
	AggregateStatusDraft     AggregateStatus = "draft"
	AggregateStatusCommitted AggregateStatus = "committed"
)

// IssuerDetails is the issuing organization as snapshotted at edit time.
type IssuerDetails struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// CounterpartyDetails is the receiving party of the offer.
type CounterpartyDetails struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

// Terms carries the commercial conditions of the offer.
type Terms struct {
	DocumentNumber  string     `json:"document_number,omitempty"`
	IssueDate       *time.Time `json:"issue_date,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	TaxRate         float64    `json:"tax_rate"`
	TaxInclusive    bool       `json:"tax_inclusive"`
	DiscountPercent float64    `json:"discount_percent,omitempty"`
	DiscountAmount  float64    `json:"discount_amount,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	PaymentTerms    string     `json:"payment_terms,omitempty"`
	DeliveryTerms   string     `json:"delivery_terms,omitempty"`
}

// LineItem is one position of the offer. PartOfBundle marks sub-components
// that belong to the preceding bundle item and are never promoted to the
// catalog.
type LineItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	PartNumber   string  `json:"part_number,omitempty"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Unit         string  `json:"unit,omitempty"`
	PartOfBundle bool    `json:"part_of_bundle,omitempty"`
}

// Snapshot is the serialized form of the offer aggregate.
type Snapshot struct {
	SchemaVersion int                 `json:"schema_version"`
	Issuer        IssuerDetails       `json:"issuer"`
	Counterparty  CounterpartyDetails `json:"counterparty"`
	Terms         Terms               `json:"terms"`
	LineItems     []LineItem          `json:"line_items"`
	Status        AggregateStatus     `json:"status"`
	Version       int                 `json:"version"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Terms.IssueDate != nil {
		issueDate := *s.Terms.IssueDate
		out.Terms.IssueDate = &issueDate
	}
	if s.Terms.ValidUntil != nil {
		validUntil := *s.Terms.ValidUntil
		out.Terms.ValidUntil = &validUntil
	}
	if s.LineItems != nil {
		out.LineItems = make([]LineItem, len(s.LineItems))
		copy(out.LineItems, s.LineItems)
	}
	return out
}

// EmptySnapshot returns a blank aggregate snapshot at the current schema.
func EmptySnapshot() Snapshot {
	return Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Status:        AggregateStatusEditing,
	}
}

// EncodeSnapshot serializes a snapshot at the current schema version.
func EncodeSnapshot(s Snapshot) (datatypes.JSON, error) {
	s.SchemaVersion = SnapshotSchemaVersion
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// DecodeSnapshot parses a stored payload, migrating older schema versions.
// Payloads newer than the current schema are rejected.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	if len(raw) == 0 {
		return Snapshot{}, ErrUnsupportedSnapshot
	}

	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Snapshot{}, ErrUnsupportedSnapshot
	}

	switch probe.SchemaVersion {
	case 0, 1:
		return decodeSnapshotV1(raw)
	case SnapshotSchemaVersion:
		var s Snapshot
		if err := json.Unmarshal(raw, &s); err != nil {
			return Snapshot{}, ErrUnsupportedSnapshot
		}
		if s.Status == "" {
			s.Status = AggregateStatusEditing
		}
		return s, nil
	default:
		return Snapshot{}, ErrUnsupportedSnapshot
	}
}

// snapshotV1 is the legacy payload shape: a flat discount percentage and
// tax always exclusive.
type snapshotV1 struct {
	Issuer       IssuerDetails       `json:"issuer"`
	Counterparty CounterpartyDetails `json:"counterparty"`
	Terms        struct {
		DocumentNumber string     `json:"document_number,omitempty"`
		IssueDate      *time.Time `json:"issue_date,omitempty"`
		ValidUntil     *time.Time `json:"valid_until,omitempty"`
		Currency       string     `json:"currency,omitempty"`
		TaxRate        float64    `json:"tax_rate"`
		Discount       float64    `json:"discount,omitempty"`
		Notes          string     `json:"notes,omitempty"`
		PaymentTerms   string     `json:"payment_terms,omitempty"`
		DeliveryTerms  string     `json:"delivery_terms,omitempty"`
	} `json:"terms"`
	LineItems []LineItem      `json:"line_items"`
	Status    AggregateStatus `json:"status"`
	Version   int             `json:"version"`
}

func decodeSnapshotV1(raw []byte) (Snapshot, error) {
	var legacy snapshotV1
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return Snapshot{}, ErrUnsupportedSnapshot
	}

	s := Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Issuer:        legacy.Issuer,
		Counterparty:  legacy.Counterparty,
		LineItems:     legacy.LineItems,
		Status:        legacy.Status,
		Version:       legacy.Version,
	}
	s.Terms = Terms{
		DocumentNumber:  legacy.Terms.DocumentNumber,
		IssueDate:       legacy.Terms.IssueDate,
		ValidUntil:      legacy.Terms.ValidUntil,
		Currency:        legacy.Terms.Currency,
		TaxRate:         legacy.Terms.TaxRate,
		TaxInclusive:    false,
		DiscountPercent: legacy.Terms.Discount,
	}
	if s.Status == "" {
		s.Status = AggregateStatusEditing
	}
	return s, nil
}
