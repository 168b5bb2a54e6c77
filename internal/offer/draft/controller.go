// Package draft persists the offer aggregate as a resumable draft. Saves
// are coalesced: at most one write is in flight per controller, and edits
// arriving during a write trigger exactly one follow-up write.
package draft

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/observability/metrics"
	"github.com/smallbiznis/offerly/internal/offer/aggregate"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/internal/orgcontext"
	"go.uber.org/zap"
)

// Config tunes the autosave behavior.
type Config struct {
	// Debounce is the quiet period after the last edit before an
	// automatic save fires.
	Debounce time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = 2 * time.Second
	}
	return c
}

// Controller schedules and executes draft saves for one aggregate store.
type Controller struct {
	orgID snowflake.ID
	store *aggregate.Store
	docs  offerdomain.Service
	clk   clock.Clock
	log   *zap.Logger
	cfg   Config

	mu          sync.Mutex
	saving      bool
	pending     bool
	autosave    bool
	timer       *time.Timer
	unsubscribe func()
	closed      bool
}

// NewController builds a controller bound to the given store. The orgID
// scopes background saves, which run outside any request context.
func NewController(orgID snowflake.ID, store *aggregate.Store, docs offerdomain.Service, clk clock.Clock, log *zap.Logger, cfg Config) *Controller {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		orgID: orgID,
		store: store,
		docs:  docs,
		clk:   clk,
		log:   log.Named("offer.draft"),
		cfg:   cfg.withDefaults(),
	}
}

// SaveDraft persists the current aggregate. If a save is already in
// flight the request is coalesced into a single follow-up save; the call
// returns immediately in that case.
func (c *Controller) SaveDraft(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.saving {
		c.pending = true
		c.mu.Unlock()
		return nil
	}
	c.saving = true
	c.mu.Unlock()

	return c.runSaves(ctx)
}

// runSaves performs the in-flight save and any follow-up requested while
// it ran. The returned error is the first save failure, if any.
func (c *Controller) runSaves(ctx context.Context) error {
	var firstErr error
	for {
		if err := c.saveOnce(ctx); err != nil && firstErr == nil {
			firstErr = err
		}

		c.mu.Lock()
		if !c.pending {
			c.saving = false
			c.mu.Unlock()
			return firstErr
		}
		c.pending = false
		c.mu.Unlock()
	}
}

func (c *Controller) saveOnce(ctx context.Context) error {
	if !c.store.Dirty() {
		return nil
	}

	// Revision is captured before the snapshot: an edit racing in between
	// leaves the captured revision stale, so the store stays dirty and a
	// later save picks the edit up.
	revision := c.store.Revision()
	snapshot := c.store.Snapshot()

	doc, err := c.docs.SaveDraft(ctx, snapshot)
	if err != nil {
		c.log.Warn("draft save failed", zap.Error(err))
		return err
	}

	c.store.MarkSaved(revision, c.clk.Now())
	metrics.Document().IncDraftSaved()
	if doc != nil {
		c.log.Debug("draft saved",
			zap.String("document_id", doc.ID.String()),
			zap.Uint64("revision", revision),
		)
	}
	return nil
}

// ToggleAutoSave enables or disables the debounced background save. While
// enabled, each user edit restarts the quiet-period timer; loading or
// clearing the aggregate does not.
func (c *Controller) ToggleAutoSave(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.autosave == enabled {
		return
	}
	c.autosave = enabled

	if !enabled {
		c.stopTimerLocked()
		if c.unsubscribe != nil {
			c.unsubscribe()
			c.unsubscribe = nil
		}
		return
	}

	c.unsubscribe = c.store.Subscribe(func(ev aggregate.Event) {
		if !ev.Mutation.IsEdit() {
			return
		}
		c.scheduleSave()
	})
}

// AutoSaveEnabled reports whether the background save is active.
func (c *Controller) AutoSaveEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autosave
}

func (c *Controller) scheduleSave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.autosave {
		return
	}
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.cfg.Debounce, func() {
		ctx := orgcontext.WithOrgID(context.Background(), c.orgID)
		if err := c.SaveDraft(ctx); err != nil {
			c.log.Warn("autosave failed", zap.Error(err))
		}
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Flush saves immediately when the aggregate is dirty, bypassing the
// debounce. Used when a session closes.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
	return c.SaveDraft(ctx)
}

// Close disables autosave and stops the pending timer. In-flight saves
// are left to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.autosave = false
	c.stopTimerLocked()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}
