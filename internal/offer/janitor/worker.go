// Package janitor prunes drafts that were superseded by a committed
// document and have not been touched for the retention window.
package janitor

import (
	"context"
	"time"

	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config tunes the cleanup worker.
type Config struct {
	// Retention is how long a superseded draft is kept after its last
	// update.
	Retention time.Duration
	// PollInterval is the delay between cleanup sweeps.
	PollInterval time.Duration
	// BatchSize caps deletions per sweep.
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.Retention <= 0 {
		c.Retention = 30 * 24 * time.Hour
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	return c
}

// Worker runs the periodic sweep.
type Worker struct {
	db   *gorm.DB
	repo offerdomain.Repository
	clk  clock.Clock
	log  *zap.Logger
	cfg  Config

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker builds a cleanup worker over the document repository.
func NewWorker(db *gorm.DB, repo offerdomain.Repository, clk clock.Clock, log *zap.Logger, cfg Config) *Worker {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		db:   db,
		repo: repo,
		clk:  clk,
		log:  log.Named("offer.janitor"),
		cfg:  cfg.withDefaults(),
	}
}

// Start launches the sweep loop.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

// Sweep deletes one batch of expired, superseded drafts.
func (w *Worker) Sweep(ctx context.Context) {
	cutoff := w.clk.Now().Add(-w.cfg.Retention)
	deleted, err := w.repo.DeleteSupersededDrafts(ctx, w.db, cutoff, w.cfg.BatchSize)
	if err != nil {
		w.log.Warn("draft cleanup failed", zap.Error(err))
		return
	}
	metrics.Document().AddDraftsPruned(deleted)
	if deleted > 0 {
		w.log.Info("superseded drafts pruned",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
