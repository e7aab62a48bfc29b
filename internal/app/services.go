package app

import (
	"fmt"

	"gorm.io/gorm"

	dataagg "github.com/yungbote/scd-backend/internal/data/aggregates"
	scdcore "github.com/yungbote/scd-backend/internal/modules/scd"
	"github.com/yungbote/scd-backend/internal/observability"
	"github.com/yungbote/scd-backend/internal/platform/logger"
	"github.com/yungbote/scd-backend/internal/services"
)

type Services struct {
	Audit   services.AuditSink
	Catalog services.CatalogService
	SCD     services.SCDService
	Tokens  services.TokenService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	base := dataagg.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: dataagg.NewObservabilityHooks(metrics),
	}
	scdAgg := dataagg.NewSCDAggregate(dataagg.SCDAggregateDeps{Base: base, Documents: reposet.Document})
	catalogAgg := dataagg.NewCatalogAggregate(dataagg.CatalogAggregateDeps{Base: base, Requirements: reposet.Requirement})

	audit := services.NewAuditSink(log, reposet.AuditEvent, metrics)
	catalog := services.NewCatalogService(log, reposet.Requirement, catalogAgg, clients.CatalogCache, audit, metrics)
	scd := services.NewSCDService(log, reposet.Document, scdAgg, catalog, scdcore.SystemClock, nil, audit, metrics)

	tokens, err := services.NewTokenService(log, reposet.User, nil, services.TokenConfig{
		SecretKey:          cfg.Auth.JWTSecretKey,
		AccessTTL:          cfg.Auth.AccessTokenTTL,
		ValidationInterval: cfg.Auth.ValidationInterval,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init token service: %w", err)
	}

	return Services{
		Audit:   audit,
		Catalog: catalog,
		SCD:     scd,
		Tokens:  tokens,
	}, nil
}
