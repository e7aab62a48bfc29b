package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/scd-backend/internal/domain/catalog"
	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// CatalogCache keeps the full requirement catalog under one key. Writers
// invalidate; the next reader repopulates from the database.
type CatalogCache interface {
	Get(ctx context.Context) ([]*catalog.Requirement, bool, error)
	Set(ctx context.Context, reqs []*catalog.Requirement) error
	Invalidate(ctx context.Context) error
	Client() goredis.UniversalClient
	Close() error
}

type catalogCache struct {
	log *logger.Logger
	rdb goredis.UniversalClient
	key string
	ttl time.Duration
}

func NewCatalogCache(ctx context.Context, log *logger.Logger, cfg Config) (CatalogCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newCatalogCache(log, rdb, cfg), nil
}

func newCatalogCache(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) *catalogCache {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "scd"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &catalogCache{
		log: log.With("client", "RedisCatalogCache"),
		rdb: rdb,
		key: prefix + ":catalog:v1",
		ttl: ttl,
	}
}

func (c *catalogCache) Get(ctx context.Context) ([]*catalog.Requirement, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	reqs, err := decodeCatalog(raw)
	if err != nil {
		c.log.Warn("dropping unreadable catalog cache entry", "error", err)
		_ = c.rdb.Del(ctx, c.key).Err()
		return nil, false, nil
	}
	return reqs, true, nil
}

func (c *catalogCache) Set(ctx context.Context, reqs []*catalog.Requirement) error {
	raw, err := encodeCatalog(reqs)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key, raw, c.ttl).Err()
}

func (c *catalogCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}

func (c *catalogCache) Client() goredis.UniversalClient { return c.rdb }

func (c *catalogCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

type cachedCatalog struct {
	Items []*catalog.Requirement `json:"items"`
}

func encodeCatalog(reqs []*catalog.Requirement) ([]byte, error) {
	if reqs == nil {
		reqs = []*catalog.Requirement{}
	}
	return json.Marshal(cachedCatalog{Items: reqs})
}

func decodeCatalog(raw []byte) ([]*catalog.Requirement, error) {
	var out cachedCatalog
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return nil, errors.New("catalog cache entry has no items")
	}
	return out.Items, nil
}
