package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/scd-backend/internal/platform/logger"
)

type MetricsConfig struct {
	Enabled        bool
	Addr           string
	ScrapeInterval time.Duration
}

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps       *HistogramVec
	aggregateConflicts *CounterVec
	aggregateTransient *CounterVec

	composerItems *CounterVec
	cacheLookups  *CounterVec
	auditEvents   *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when metrics are off.
func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. Disabled config yields nil,
// and every method on a nil *Metrics is a no-op.
func Init(cfg MetricsConfig, log *logger.Logger) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(cfg.ScrapeInterval)
		if log != nil {
			log.Info("metrics enabled", "addr", cfg.Addr)
		}
	})
	return instance
}

func NewMetrics(scrapeInterval time.Duration) *Metrics {
	if scrapeInterval <= 0 {
		scrapeInterval = 10 * time.Second
	}
	return &Metrics{
		apiRequests: NewCounterVec("scd_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"scd_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("scd_api_inflight_requests", "In-flight API requests."),

		aggregateOps: NewHistogramVec(
			"scd_aggregate_operation_duration_seconds",
			"Aggregate write latency by operation and outcome.",
			[]string{"op", "outcome"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		),
		aggregateConflicts: NewCounterVec("scd_aggregate_conflicts_total", "Aggregate writes rejected by a version or uniqueness conflict.", []string{"op"}),
		aggregateTransient: NewCounterVec("scd_aggregate_transient_failures_total", "Aggregate writes that hit a timeout or lock and may be retried by the caller.", []string{"op"}),

		composerItems: NewCounterVec("scd_composer_requirements_total", "Requirements submitted to documents by outcome.", []string{"outcome"}),
		cacheLookups:  NewCounterVec("scd_cache_lookups_total", "Cache lookups by cache/result.", []string{"cache", "result"}),
		auditEvents:   NewCounterVec("scd_audit_events_total", "Audit events emitted by action/sink.", []string{"action", "sink"}),

		dbStats:   NewGaugeVec("scd_db_pool", "Database pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("scd_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("scd_redis_ping_seconds", "Last redis ping round trip."),

		scrapeInterval: scrapeInterval,
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateConflicts, m.aggregateTransient,
		m.composerItems, m.cacheLookups, m.auditEvents,
		m.dbStats, m.redisUp, m.redisPing,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orDefault(method, "UNKNOWN")
	route = orDefault(route, "unknown")
	status = orDefault(status, "0")
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), orDefault(op, "unknown"), orDefault(outcome, "unknown"))
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(orDefault(op, "unknown"))
}

func (m *Metrics) IncAggregateTransient(op string) {
	if m == nil {
		return
	}
	m.aggregateTransient.Inc(orDefault(op, "unknown"))
}

// AddComposerOutcome counts requirements added to or skipped by a document.
func (m *Metrics) AddComposerOutcome(added, skipped int) {
	if m == nil {
		return
	}
	if added > 0 {
		m.composerItems.Add(float64(added), "added")
	}
	if skipped > 0 {
		m.composerItems.Add(float64(skipped), "skipped")
	}
}

func (m *Metrics) IncCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(orDefault(cache, "unknown"), result)
}

func (m *Metrics) IncAuditEvent(action, sink string) {
	if m == nil {
		return
	}
	m.auditEvents.Inc(orDefault(action, "unknown"), orDefault(sink, "unknown"))
}

// StartDBCollector samples sql.DBStats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go m.tick(ctx, func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("metrics: db stats unavailable", "error", err)
			}
			return
		}
		stats := sqlDB.Stats()
		m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
		m.dbStats.Set(float64(stats.InUse), "in_use")
		m.dbStats.Set(float64(stats.Idle), "idle")
		m.dbStats.Set(float64(stats.WaitCount), "wait_count")
		m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
		m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
	})
}

// StartRedisCollector pings rdb every scrape interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go m.tick(ctx, func() {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

func (m *Metrics) tick(ctx context.Context, sample func()) {
	ticker := time.NewTicker(m.scrapeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample()
		}
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
