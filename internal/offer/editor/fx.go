package editor

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/config"
	"github.com/smallbiznis/offerly/internal/offer/draft"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/pkg/retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config config.Config
	Docs   offerdomain.Service
	GenID  *snowflake.Node
	Clock  clock.Clock
	Logger *zap.Logger
}

func provideManager(p Params) *Manager {
	return NewManager(
		p.Docs,
		p.GenID,
		p.Clock,
		p.Logger,
		draft.Config{Debounce: p.Config.Autosave.Debounce},
		retry.DefaultConfig(),
	)
}

func registerShutdown(lc fx.Lifecycle, manager *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			manager.Close(ctx)
			return nil
		},
	})
}

var Module = fx.Module("offer.editor",
	fx.Provide(provideManager),
	fx.Invoke(registerShutdown),
)
