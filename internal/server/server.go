// Package server exposes the offer builder over HTTP.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/offerly/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/offerly/internal/catalog/domain"
	"github.com/smallbiznis/offerly/internal/config"
	"github.com/smallbiznis/offerly/internal/observability/logger"
	"github.com/smallbiznis/offerly/internal/observability/metrics"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/internal/offer/editor"
	orgdomain "github.com/smallbiznis/offerly/internal/organization/domain"
	partydomain "github.com/smallbiznis/offerly/internal/party/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServerParam struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	DocumentSvc offerdomain.Service
	OrgSvc      orgdomain.Service
	OrgRepo     orgdomain.Repository
	PartyRepo   partydomain.Repository
	CatalogRepo catalogdomain.Repository
	AuditRepo   auditdomain.Repository
	Editor      *editor.Manager
}

// Server carries the handler dependencies.
type Server struct {
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	documentSvc offerdomain.Service
	orgSvc      orgdomain.Service
	orgRepo     orgdomain.Repository
	partyRepo   partydomain.Repository
	catalogRepo catalogdomain.Repository
	auditRepo   auditdomain.Repository
	editor      *editor.Manager
	saveLimiter *rateLimiter

	orgMu       sync.Mutex
	cachedOrgID snowflake.ID
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:         p.Config,
		db:          p.DB,
		log:         p.Log.Named("server"),
		documentSvc: p.DocumentSvc,
		orgSvc:      p.OrgSvc,
		orgRepo:     p.OrgRepo,
		partyRepo:   p.PartyRepo,
		catalogRepo: p.CatalogRepo,
		auditRepo:   p.AuditRepo,
		editor:      p.Editor,
		saveLimiter: newRateLimiter(30, time.Minute),
	}
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(cfg config.Config, srv *Server) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz"},
	}))
	engine.Use(metrics.GinMiddleware(metrics.HTTPWithConfig(metrics.Config{
		ServiceName: "offerly",
		Environment: cfg.Environment,
	})))
	engine.Use(srv.ResolveOrganization())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv.RegisterRoutes(engine)
	return engine
}

// RegisterRoutes mounts the API surface.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")

	ed := api.Group("/editor")
	ed.POST("/enter", s.EnterEditor)
	ed.GET("/snapshot", s.GetEditorSnapshot)
	ed.PATCH("/issuer", s.UpdateIssuer)
	ed.PATCH("/counterparty", s.UpdateCounterparty)
	ed.PATCH("/terms", s.UpdateTerms)
	ed.POST("/items", s.AddLineItem)
	ed.PATCH("/items/:id", s.UpdateLineItem)
	ed.DELETE("/items/:id", s.RemoveLineItem)
	ed.POST("/save", s.SaveDraft)
	ed.POST("/autosave", s.ToggleAutoSave)
	ed.POST("/commit", s.CommitOffer)

	docs := api.Group("/documents")
	docs.GET("", s.ListDocuments)
	docs.GET("/:id", s.GetDocument)
	docs.DELETE("/:id", s.DeleteDocument)
	docs.PATCH("/:id/status", s.UpdateDocumentStatus)

	api.GET("/organization", s.GetOrganization)
	api.PUT("/organization", s.UpdateOrganization)

	api.GET("/counterparties", s.ListCounterparties)
	api.GET("/catalog-items", s.ListCatalogItems)

	api.GET("/audit", s.ListAuditLogs)
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)
