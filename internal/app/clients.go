package app

import (
	"context"
	"fmt"
	"strings"

	rediscache "github.com/yungbote/scd-backend/internal/clients/redis"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type Clients struct {
	CatalogCache rediscache.CatalogCache
}

// wireClients connects optional external clients. Redis is skipped when
// REDIS_ADDR is unset.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		cache, err := rediscache.NewCatalogCache(ctx, log, rediscache.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.CacheTTL,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis catalog cache: %w", err)
		}
		out.CatalogCache = cache
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.CatalogCache != nil {
		_ = c.CatalogCache.Close()
	}
}
