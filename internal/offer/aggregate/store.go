// Package aggregate holds the canonical in-memory representation of the
// offer being edited. The store is the only mutable state of an editing
// session; everything else derives from it.
package aggregate

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
)

// Mutation identifies the kind of change applied to the aggregate.
type Mutation string

const (
	MutationIssuer       Mutation = "issuer"
	MutationCounterparty Mutation = "counterparty"
	MutationTerms        Mutation = "terms"
	MutationItemAdded    Mutation = "item_added"
	MutationItemUpdated  Mutation = "item_updated"
	MutationItemRemoved  Mutation = "item_removed"
	MutationReset        Mutation = "reset"
	MutationReplace      Mutation = "replace"
)

// IsEdit reports whether the mutation was a user edit, as opposed to the
// store being reset or loaded.
func (m Mutation) IsEdit() bool {
	return m != MutationReset && m != MutationReplace
}

// Event describes a completed mutation.
type Event struct {
	Mutation Mutation
	Revision uint64
	Dirty    bool
}

// Subscriber receives mutation events. Callbacks run synchronously on the
// mutating goroutine, after the store lock is released.
type Subscriber func(Event)

var (
	ErrNegativeQuantity  = errors.New("negative_quantity")
	ErrNegativeUnitPrice = errors.New("negative_unit_price")
	ErrNegativeTaxRate   = errors.New("negative_tax_rate")
	ErrNegativeDiscount  = errors.New("negative_discount")
	ErrLineItemNotFound  = errors.New("line_item_not_found")
	ErrMissingItemName   = errors.New("missing_item_name")
)

// Store is the offer aggregate with dirty tracking and a revision counter.
// Every user edit bumps the revision and marks the aggregate dirty; the
// autosave scheduler compares revisions to skip redundant writes.
type Store struct {
	mu    sync.Mutex
	genID *snowflake.Node
	clk   clock.Clock

	snap          offerdomain.Snapshot
	dirty         bool
	revision      uint64
	savedRevision uint64
	lastSaved     *time.Time

	nextSubID   int
	subscribers map[int]Subscriber
}

// NewStore builds an empty aggregate store.
func NewStore(genID *snowflake.Node, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Store{
		genID:       genID,
		clk:         clk,
		snap:        offerdomain.EmptySnapshot(),
		subscribers: make(map[int]Subscriber),
	}
}

// Subscribe registers a mutation callback and returns its removal func.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// IssuerPatch is a partial update of the issuer details.
type IssuerPatch struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	Country *string `json:"country"`
	TaxID   *string `json:"tax_id"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
}

// CounterpartyPatch is a partial update of the counterparty details.
type CounterpartyPatch struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	Country       *string `json:"country"`
	TaxID         *string `json:"tax_id"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
}

// TermsPatch is a partial update of the commercial terms.
type TermsPatch struct {
	DocumentNumber  *string    `json:"document_number"`
	IssueDate       *time.Time `json:"issue_date"`
	ValidUntil      *time.Time `json:"valid_until"`
	Currency        *string    `json:"currency"`
	TaxRate         *float64   `json:"tax_rate"`
	TaxInclusive    *bool      `json:"tax_inclusive"`
	DiscountPercent *float64   `json:"discount_percent"`
	DiscountAmount  *float64   `json:"discount_amount"`
	Notes           *string    `json:"notes"`
	PaymentTerms    *string    `json:"payment_terms"`
	DeliveryTerms   *string    `json:"delivery_terms"`
}

// LineItemInput describes a new line item.
type LineItemInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PartNumber   string  `json:"part_number"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Unit         string  `json:"unit"`
	PartOfBundle bool    `json:"part_of_bundle"`
}

// LineItemPatch is a partial update of an existing line item.
type LineItemPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	PartNumber  *string  `json:"part_number"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unit_price"`
	Unit        *string  `json:"unit"`
}

// UpdateIssuer applies a partial issuer update.
func (s *Store) UpdateIssuer(p IssuerPatch) {
	s.mutate(MutationIssuer, func(snap *offerdomain.Snapshot) error {
		applyString(&snap.Issuer.Name, p.Name)
		applyString(&snap.Issuer.Address, p.Address)
		applyString(&snap.Issuer.City, p.City)
		applyString(&snap.Issuer.Country, p.Country)
		applyString(&snap.Issuer.TaxID, p.TaxID)
		applyString(&snap.Issuer.Email, p.Email)
		applyString(&snap.Issuer.Phone, p.Phone)
		return nil
	})
}

// UpdateCounterparty applies a partial counterparty update.
func (s *Store) UpdateCounterparty(p CounterpartyPatch) {
	s.mutate(MutationCounterparty, func(snap *offerdomain.Snapshot) error {
		applyString(&snap.Counterparty.Name, p.Name)
		applyString(&snap.Counterparty.ContactPerson, p.ContactPerson)
		applyString(&snap.Counterparty.Address, p.Address)
		applyString(&snap.Counterparty.City, p.City)
		applyString(&snap.Counterparty.Country, p.Country)
		applyString(&snap.Counterparty.TaxID, p.TaxID)
		applyString(&snap.Counterparty.Email, p.Email)
		applyString(&snap.Counterparty.Phone, p.Phone)
		return nil
	})
}

// UpdateTerms applies a partial terms update. Rates and discounts must be
// non-negative.
func (s *Store) UpdateTerms(p TermsPatch) error {
	if p.TaxRate != nil && *p.TaxRate < 0 {
		return ErrNegativeTaxRate
	}
	if (p.DiscountPercent != nil && *p.DiscountPercent < 0) ||
		(p.DiscountAmount != nil && *p.DiscountAmount < 0) {
		return ErrNegativeDiscount
	}
	return s.mutate(MutationTerms, func(snap *offerdomain.Snapshot) error {
		applyString(&snap.Terms.DocumentNumber, p.DocumentNumber)
		if p.IssueDate != nil {
			issueDate := *p.IssueDate
			snap.Terms.IssueDate = &issueDate
		}
		if p.ValidUntil != nil {
			validUntil := *p.ValidUntil
			snap.Terms.ValidUntil = &validUntil
		}
		applyString(&snap.Terms.Currency, p.Currency)
		if p.TaxRate != nil {
			snap.Terms.TaxRate = *p.TaxRate
		}
		if p.TaxInclusive != nil {
			snap.Terms.TaxInclusive = *p.TaxInclusive
		}
		if p.DiscountPercent != nil {
			snap.Terms.DiscountPercent = *p.DiscountPercent
		}
		if p.DiscountAmount != nil {
			snap.Terms.DiscountAmount = *p.DiscountAmount
		}
		applyString(&snap.Terms.Notes, p.Notes)
		applyString(&snap.Terms.PaymentTerms, p.PaymentTerms)
		applyString(&snap.Terms.DeliveryTerms, p.DeliveryTerms)
		return nil
	})
}

// AddLineItem appends a line item and returns it with its assigned id.
func (s *Store) AddLineItem(in LineItemInput) (offerdomain.LineItem, error) {
	if in.Name == "" {
		return offerdomain.LineItem{}, ErrMissingItemName
	}
	if in.Quantity < 0 {
		return offerdomain.LineItem{}, ErrNegativeQuantity
	}
	if in.UnitPrice < 0 {
		return offerdomain.LineItem{}, ErrNegativeUnitPrice
	}

	item := offerdomain.LineItem{
		ID:           s.genID.Generate().String(),
		Name:         in.Name,
		Description:  in.Description,
		PartNumber:   in.PartNumber,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		Unit:         in.Unit,
		PartOfBundle: in.PartOfBundle,
	}
	err := s.mutate(MutationItemAdded, func(snap *offerdomain.Snapshot) error {
		snap.LineItems = append(snap.LineItems, item)
		return nil
	})
	if err != nil {
		return offerdomain.LineItem{}, err
	}
	return item, nil
}

// UpdateLineItem applies a partial update to the identified line item.
func (s *Store) UpdateLineItem(id string, p LineItemPatch) error {
	if p.Quantity != nil && *p.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if p.UnitPrice != nil && *p.UnitPrice < 0 {
		return ErrNegativeUnitPrice
	}
	return s.mutate(MutationItemUpdated, func(snap *offerdomain.Snapshot) error {
		for i := range snap.LineItems {
			if snap.LineItems[i].ID != id {
				continue
			}
			item := &snap.LineItems[i]
			applyString(&item.Name, p.Name)
			applyString(&item.Description, p.Description)
			applyString(&item.PartNumber, p.PartNumber)
			applyString(&item.Unit, p.Unit)
			if p.Quantity != nil {
				item.Quantity = *p.Quantity
			}
			if p.UnitPrice != nil {
				item.UnitPrice = *p.UnitPrice
			}
			return nil
		}
		return ErrLineItemNotFound
	})
}

// RemoveLineItem deletes the identified line item.
func (s *Store) RemoveLineItem(id string) error {
	return s.mutate(MutationItemRemoved, func(snap *offerdomain.Snapshot) error {
		for i := range snap.LineItems {
			if snap.LineItems[i].ID != id {
				continue
			}
			snap.LineItems = append(snap.LineItems[:i], snap.LineItems[i+1:]...)
			return nil
		}
		return ErrLineItemNotFound
	})
}

// Reset clears the aggregate. Subscribers are notified synchronously;
// when Reset returns, every downstream side effect has completed.
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = offerdomain.EmptySnapshot()
	s.dirty = false
	s.revision++
	s.savedRevision = s.revision
	s.lastSaved = nil
	event := Event{Mutation: MutationReset, Revision: s.revision}
	subs := s.collectSubscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// Replace atomically substitutes the whole aggregate, marking it clean.
// Used when a draft is resumed or a saved document is opened.
func (s *Store) Replace(snap offerdomain.Snapshot) {
	now := s.clk.Now()

	s.mu.Lock()
	s.snap = snap.Clone()
	if s.snap.SchemaVersion == 0 {
		s.snap.SchemaVersion = offerdomain.SnapshotSchemaVersion
	}
	s.dirty = false
	s.revision++
	s.savedRevision = s.revision
	s.lastSaved = &now
	event := Event{Mutation: MutationReplace, Revision: s.revision}
	subs := s.collectSubscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// Snapshot returns a deep copy of the current aggregate.
func (s *Store) Snapshot() offerdomain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Dirty reports whether the aggregate changed since the last persist.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Revision returns the current mutation counter.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// LastSaved returns the time of the last successful persist, if any.
func (s *Store) LastSaved() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSaved == nil {
		return nil
	}
	lastSaved := *s.lastSaved
	return &lastSaved
}

// MarkSaved records that the snapshot taken at revision was persisted at
// the given time. The aggregate stays dirty if it changed after that
// revision was captured.
func (s *Store) MarkSaved(revision uint64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if revision > s.savedRevision {
		s.savedRevision = revision
	}
	if s.revision == s.savedRevision {
		s.dirty = false
	}
	s.lastSaved = &at
}

func (s *Store) mutate(kind Mutation, fn func(*offerdomain.Snapshot) error) error {
	s.mu.Lock()
	if err := fn(&s.snap); err != nil {
		s.mu.Unlock()
		return err
	}
	s.revision++
	s.dirty = true
	event := Event{Mutation: kind, Revision: s.revision, Dirty: true}
	subs := s.collectSubscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
	return nil
}

// collectSubscribers copies the callback list; callers invoke them after
// releasing the lock so subscribers may read the store.
func (s *Store) collectSubscribers() []Subscriber {
	if len(s.subscribers) == 0 {
		return nil
	}
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
