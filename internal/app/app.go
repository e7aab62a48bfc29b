package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/data/db"
	"github.com/yungbote/scd-backend/internal/http"
	"github.com/yungbote/scd-backend/internal/observability"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	routerCfg    http.RouterConfig
	dbService    *db.Service
	shutdownOtel func(context.Context) error
}

// New wires the full application. The caller owns Close.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	dbService, err := OpenDB(cfg, log)
	if err != nil {
		_ = shutdownOtel(ctx)
		return nil, err
	}
	theDB := dbService.DB()
	if cfg.Migrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			_ = dbService.Close()
			_ = shutdownOtel(ctx)
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		_ = shutdownOtel(ctx)
		return nil, err
	}

	metrics := observability.Init(observability.MetricsConfig{
		Enabled:        cfg.Metrics.Enabled,
		Addr:           cfg.Metrics.Addr,
		ScrapeInterval: cfg.Metrics.ScrapeInterval,
	}, log)

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		_ = shutdownOtel(ctx)
		return nil, err
	}
	handlerset := wireHandlers(theDB, log, reposet, serviceset)
	middleware := wireMiddleware(log, serviceset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		routerCfg:    wireRouterConfig(log, cfg, handlerset, middleware, metrics),
		dbService:    dbService,
		shutdownOtel: shutdownOtel,
	}, nil
}

// OpenDB connects using the configured driver without wiring anything else.
func OpenDB(cfg Config, log *logger.Logger) (*db.Service, error) {
	svc, err := db.Open(cfg.DBConn(), log)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", cfg.DB.Driver, err)
	}
	return svc, nil
}

// Router builds a fresh engine over the wired handlers.
func (a *App) Router() *gin.Engine {
	return http.NewRouter(a.routerCfg)
}

// Serve runs the HTTP API and background collectors until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		if a.Clients.CatalogCache != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.CatalogCache.Client())
		}
	}
	if a.Cfg.InsecureSecret() {
		a.Log.Warn("JWT_SECRET_KEY is the development default")
	}
	return http.NewServer(a.Log, a.Cfg.HTTPAddr, a.Cfg.HTTP.ShutdownTimeout, a.routerCfg).Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.shutdownOtel != nil {
		_ = a.shutdownOtel(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
