// Package reconcile promotes offer entities into the organization's master
// data. Matching is by name within the organization: known names are left
// untouched, unknown ones are inserted. Existing records are never updated
// from offer data.
package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/cache"
	catalogdomain "github.com/smallbiznis/offerly/internal/catalog/domain"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/events"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	partydomain "github.com/smallbiznis/offerly/internal/party/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// knownEntityTTL bounds how long a name is trusted to exist without
// re-checking the database.
const knownEntityTTL = 10 * time.Minute

// Service reconciles offer snapshot entities against master data.
type Service struct {
	db      *gorm.DB
	parties partydomain.Repository
	catalog catalogdomain.Repository
	outbox  *events.Outbox
	genID   *snowflake.Node
	clk     clock.Clock
	log     *zap.Logger

	knownParties *cache.TTLCache[entityKey, struct{}]
	knownItems   *cache.TTLCache[entityKey, struct{}]
}

type entityKey struct {
	orgID snowflake.ID
	name  string
}

// NewService builds the reconciliation service.
func NewService(db *gorm.DB, parties partydomain.Repository, catalog catalogdomain.Repository, outbox *events.Outbox, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) *Service {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:           db,
		parties:      parties,
		catalog:      catalog,
		outbox:       outbox,
		genID:        genID,
		clk:          clk,
		log:          log.Named("reconcile.service"),
		knownParties: cache.NewTTLCache[entityKey, struct{}](clk),
		knownItems:   cache.NewTTLCache[entityKey, struct{}](clk),
	}
}

// ReconcileCounterparty ensures a counterparty record exists for the
// snapshot's receiving party. Existing records win; the offer's details
// are only used when the name is new.
func (s *Service) ReconcileCounterparty(ctx context.Context, orgID snowflake.ID, party offerdomain.CounterpartyDetails) error {
	name := strings.TrimSpace(party.Name)
	if name == "" {
		return partydomain.ErrInvalidName
	}
	if orgID == 0 {
		return partydomain.ErrInvalidOrganization
	}

	key := entityKey{orgID: orgID, name: name}
	if _, ok := s.knownParties.Get(key); ok {
		return nil
	}

	existing, err := s.parties.FindByName(ctx, s.db, orgID, name)
	if err != nil {
		return err
	}
	if existing != nil {
		s.knownParties.Set(key, struct{}{}, knownEntityTTL)
		return nil
	}

	record := &partydomain.Counterparty{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		Name:          name,
		ContactPerson: party.ContactPerson,
		Address:       party.Address,
		City:          party.City,
		Country:       party.Country,
		TaxID:         party.TaxID,
		Email:         party.Email,
		Phone:         party.Phone,
		CreatedAt:     s.clk.Now(),
		UpdatedAt:     s.clk.Now(),
	}
	if err := s.parties.Insert(ctx, s.db, record); err != nil {
		return err
	}
	s.knownParties.Set(key, struct{}{}, knownEntityTTL)

	s.publishCreated(ctx, orgID, events.EventCounterpartyCreated, events.EntityPayload{
		EntityID: record.ID.String(),
		OrgID:    orgID.String(),
		Kind:     "counterparty",
		Name:     name,
	})
	s.log.Info("counterparty promoted from offer",
		zap.String("org_id", orgID.String()),
		zap.String("name", name),
	)
	return nil
}

// ReconcileCatalogItem ensures a catalog record exists for the line item.
// Bundle sub-components are skipped: they only exist inside their bundle.
func (s *Service) ReconcileCatalogItem(ctx context.Context, orgID snowflake.ID, item offerdomain.LineItem) error {
	if item.PartOfBundle {
		return nil
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return catalogdomain.ErrInvalidName
	}
	if orgID == 0 {
		return catalogdomain.ErrInvalidOrganization
	}

	key := entityKey{orgID: orgID, name: name}
	if _, ok := s.knownItems.Get(key); ok {
		return nil
	}

	existing, err := s.catalog.FindByName(ctx, s.db, orgID, name)
	if err != nil {
		return err
	}
	if existing != nil {
		s.knownItems.Set(key, struct{}{}, knownEntityTTL)
		return nil
	}

	record := &catalogdomain.CatalogItem{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        name,
		Description: item.Description,
		PartNumber:  item.PartNumber,
		Unit:        item.Unit,
		UnitPrice:   item.UnitPrice,
		CreatedAt:   s.clk.Now(),
		UpdatedAt:   s.clk.Now(),
	}
	if err := s.catalog.Insert(ctx, s.db, record); err != nil {
		return err
	}
	s.knownItems.Set(key, struct{}{}, knownEntityTTL)

	s.publishCreated(ctx, orgID, events.EventCatalogItemCreated, events.EntityPayload{
		EntityID: record.ID.String(),
		OrgID:    orgID.String(),
		Kind:     "catalog_item",
		Name:     name,
	})
	s.log.Info("catalog item promoted from offer",
		zap.String("org_id", orgID.String()),
		zap.String("name", name),
	)
	return nil
}

// ReconcileSnapshot runs both reconciliations over a snapshot. Failures
// are logged and skipped so a commit never blocks on master data.
func (s *Service) ReconcileSnapshot(ctx context.Context, orgID snowflake.ID, snapshot offerdomain.Snapshot) {
	if err := s.ReconcileCounterparty(ctx, orgID, snapshot.Counterparty); err != nil {
		s.log.Warn("counterparty reconciliation skipped",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
	}
	for _, item := range snapshot.LineItems {
		if err := s.ReconcileCatalogItem(ctx, orgID, item); err != nil {
			s.log.Warn("catalog reconciliation skipped",
				zap.String("org_id", orgID.String()),
				zap.String("item", item.Name),
				zap.Error(err),
			)
		}
	}
}

// publishCreated records the promotion event; outbox failures are logged,
// the insert itself already succeeded.
func (s *Service) publishCreated(ctx context.Context, orgID snowflake.ID, eventType string, payload events.EntityPayload) {
	if s.outbox == nil {
		return
	}
	err := s.outbox.Publish(ctx, events.Event{
		OrgID:     orgID,
		Type:      eventType,
		Payload:   payload.ToMap(),
		DedupeKey: eventType + ":" + payload.EntityID,
	})
	if err != nil {
		s.log.Warn("promotion event not recorded", zap.Error(err))
	}
}
