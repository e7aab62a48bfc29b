package app

import (
	"github.com/yungbote/scd-backend/internal/http"
	"github.com/yungbote/scd-backend/internal/observability"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) http.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		SlowRequest:    cfg.HTTP.SlowRequest,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		MeHandler:      handlers.Me,
		CatalogHandler: handlers.Catalog,
		SCDHandler:     handlers.SCD,
	}
}
