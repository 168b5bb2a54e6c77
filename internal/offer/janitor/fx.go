package janitor

import (
	"context"

	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/config"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideWorker(cfg config.Config, db *gorm.DB, repo offerdomain.Repository, clk clock.Clock, log *zap.Logger) *Worker {
	return NewWorker(db, repo, clk, log, Config{
		Retention:    cfg.Janitor.Retention,
		PollInterval: cfg.Janitor.PollInterval,
		BatchSize:    cfg.Janitor.BatchSize,
	})
}

func registerLifecycle(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			worker.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			worker.Stop()
			return nil
		},
	})
}

var Module = fx.Module("offer.janitor",
	fx.Provide(provideWorker),
	fx.Invoke(registerLifecycle),
)
