package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/scd-backend/internal/platform/logger"
)

const (
	tracerName         = "github.com/yungbote/scd-backend"
	defaultServiceName = "scd-backend"
)

type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	// Endpoint is the OTLP/HTTP collector host:port. Empty exports to stdout.
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

var (
	otelOnce     sync.Once
	otelShutdown = func(context.Context) error { return nil }
)

// InitOTel installs the global tracer provider and W3C propagators once.
// Tracing problems are logged and never stop the process.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	if log == nil {
		log = logger.Nop()
	}
	otelOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		tp, err := newTracerProvider(ctx, cfg)
		if err != nil {
			log.Warn("otel disabled", "error", err)
			return
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		otelShutdown = tp.Shutdown
		target := cfg.Endpoint
		if target == "" {
			target = "stdout"
		}
		log.Info("otel tracing initialized", "service", serviceName(cfg), "exporter", target)
	})
	return otelShutdown
}

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func serviceName(cfg OtelConfig) string {
	if s := strings.TrimSpace(cfg.ServiceName); s != "" {
		return s
	}
	return defaultServiceName
}

func newTracerProvider(ctx context.Context, cfg OtelConfig) (*sdktrace.TracerProvider, error) {
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(serviceName(cfg)),
		semconv.ServiceVersion(strings.TrimSpace(cfg.Version)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	)
	ratio := min(max(cfg.SampleRatio, 0), 1)
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
	), nil
}

func newExporter(ctx context.Context, cfg OtelConfig) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

// ParseHeaders reads the "k=v,k2=v2" form of OTEL_EXPORTER_OTLP_HEADERS.
// Pairs with an empty side are dropped.
func ParseHeaders(raw string) map[string]string {
	var headers map[string]string
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		if headers == nil {
			headers = map[string]string{}
		}
		headers[key] = val
	}
	return headers
}
