package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/audit"
	"github.com/smallbiznis/offerly/internal/catalog"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/config"
	"github.com/smallbiznis/offerly/internal/events"
	"github.com/smallbiznis/offerly/internal/migration"
	"github.com/smallbiznis/offerly/internal/observability/logger"
	"github.com/smallbiznis/offerly/internal/observability/tracing"
	"github.com/smallbiznis/offerly/internal/offer"
	"github.com/smallbiznis/offerly/internal/offer/editor"
	"github.com/smallbiznis/offerly/internal/offer/janitor"
	"github.com/smallbiznis/offerly/internal/organization"
	"github.com/smallbiznis/offerly/internal/party"
	"github.com/smallbiznis/offerly/internal/reconcile"
	"github.com/smallbiznis/offerly/internal/seed"
	"github.com/smallbiznis/offerly/internal/server"
	"github.com/smallbiznis/offerly/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB, node *snowflake.Node) error {
			if err := migration.RunMigrations(conn); err != nil {
				return err
			}
			return seed.EnsureDefaultOrg(conn, node)
		}),
		events.Module,
		audit.Module,
		organization.Module,
		party.Module,
		catalog.Module,
		reconcile.Module,
		offer.Module,
		editor.Module,
		janitor.Module,
		server.Module,
	)
	app.Run()
}
