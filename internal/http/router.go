package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/scd-backend/internal/http/handlers"
	httpMW "github.com/yungbote/scd-backend/internal/http/middleware"
	"github.com/yungbote/scd-backend/internal/observability"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	SlowRequest time.Duration

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler  *httpH.HealthHandler
	MeHandler      *httpH.MeHandler
	CatalogHandler *httpH.CatalogHandler
	SCDHandler     *httpH.SCDHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log, cfg.SlowRequest, "/healthcheck"))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// User (Me)
	if cfg.MeHandler != nil {
		protected.GET("/me", cfg.MeHandler.GetMe)
	}

	// Requirement catalog
	if cfg.CatalogHandler != nil {
		protected.GET("/catalog", cfg.CatalogHandler.List)
		protected.GET("/catalog/facets", cfg.CatalogHandler.Facets)
		protected.POST("/catalog", cfg.CatalogHandler.Create)
		protected.PATCH("/catalog/:id", cfg.CatalogHandler.Update)
		protected.DELETE("/catalog/:id", cfg.CatalogHandler.Delete)
		protected.POST("/catalog/mass-delete", cfg.CatalogHandler.MassDelete)
		protected.POST("/catalog/mass-edit", cfg.CatalogHandler.MassEdit)
		protected.POST("/catalog/import", cfg.CatalogHandler.Import)
		protected.GET("/catalog/import/template", cfg.CatalogHandler.Template)
	}

	// Success criteria documents
	if cfg.SCDHandler != nil {
		protected.GET("/scds", cfg.SCDHandler.List)
		protected.POST("/scds", cfg.SCDHandler.Create)
		protected.GET("/scds/:id", cfg.SCDHandler.Get)
		protected.DELETE("/scds/:id", cfg.SCDHandler.Delete)
		protected.PUT("/scds/:id/items", cfg.SCDHandler.ReplaceItems)
		protected.PATCH("/scds/:id/items/:itemId", cfg.SCDHandler.UpdateItemText)
		protected.DELETE("/scds/:id/items/:itemId", cfg.SCDHandler.RemoveItem)
		protected.POST("/scds/:id/requirements", cfg.SCDHandler.AddRequirements)
		protected.POST("/scds/:id/reorder", cfg.SCDHandler.Reorder)
		protected.POST("/scds/:id/clone", cfg.SCDHandler.Clone)
		protected.GET("/scds/:id/candidates", cfg.SCDHandler.Candidates)
		protected.GET("/scds/:id/audit", cfg.SCDHandler.History)
	}

	return r
}
