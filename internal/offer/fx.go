// Package offer wires the document subsystem: repository, numbering, and
// the document service.
package offer

import (
	"github.com/smallbiznis/offerly/internal/clock"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/internal/offer/numbering"
	offerrepo "github.com/smallbiznis/offerly/internal/offer/repository"
	"github.com/smallbiznis/offerly/internal/offer/service"
	"github.com/smallbiznis/offerly/pkg/repository"
	"github.com/smallbiznis/offerly/pkg/retry"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideNumbering(db *gorm.DB, repo offerdomain.Repository, clk clock.Clock, log *zap.Logger) *numbering.Generator {
	return numbering.NewGenerator(db, repo, clk, log, retry.DefaultConfig())
}

var Module = fx.Module("offer.service",
	fx.Provide(offerrepo.Provide),
	fx.Provide(repository.ProvideStore[offerdomain.Document]),
	fx.Provide(provideNumbering),
	fx.Provide(service.NewService),
)
