package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Minimal Prometheus text exposition. Series are written in label order so
// scrapes are stable.

type collector interface {
	WritePrometheus(w io.Writer) error
}

type family struct {
	name string
	help string
	kind string
}

func (f family) writeHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind)
	return err
}

// labeled holds one float per label set; counters and gauges share it.
type labeled struct {
	family
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func newLabeled(name, help, kind string, labels []string) *labeled {
	return &labeled{family: family{name: name, help: help, kind: kind}, labelNames: labels, values: map[string]float64{}}
}

func (l *labeled) apply(fn func(float64) float64, values []string) {
	key := labelString(l.labelNames, values)
	l.mu.Lock()
	l.values[key] = fn(l.values[key])
	l.mu.Unlock()
}

func (l *labeled) value(values ...string) float64 {
	key := labelString(l.labelNames, values)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.values[key]
}

func (l *labeled) WritePrometheus(w io.Writer) error {
	if err := l.writeHeader(w); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, k := range sortedKeys(l.values) {
		if _, err := fmt.Fprintf(w, "%s%s %g\n", l.name, k, l.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type CounterVec struct{ *labeled }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{newLabeled(name, help, "counter", labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil || v < 0 {
		return
	}
	c.apply(func(cur float64) float64 { return cur + v }, values)
}

func (c *CounterVec) Value(values ...string) float64 {
	if c == nil {
		return 0
	}
	return c.value(values...)
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.labeled.WritePrometheus(w)
}

type GaugeVec struct{ *labeled }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{newLabeled(name, help, "gauge", labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.apply(func(float64) float64 { return v }, values)
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.labeled.WritePrometheus(w)
}

// Gauge is an unlabeled GaugeVec.
type Gauge struct{ *labeled }

func NewGauge(name, help string) *Gauge {
	return &Gauge{newLabeled(name, help, "gauge", nil)}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.apply(func(float64) float64 { return v }, nil)
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.apply(func(cur float64) float64 { return cur + 1 }, nil)
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.apply(func(cur float64) float64 { return cur - 1 }, nil)
}

func (g *Gauge) Value() float64 {
	if g == nil {
		return 0
	}
	return g.value()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.labeled.WritePrometheus(w)
}

type HistogramVec struct {
	family
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	counts []uint64 // cumulative, last slot is +Inf
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{
		family:     family{name: name, help: help, kind: "histogram"},
		labelNames: labels,
		buckets:    buckets,
		values:     map[string]*histogram{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[key]
	if !ok {
		hist = &histogram{counts: make([]uint64, len(h.buckets)+1)}
		h.values[key] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range h.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(h.buckets)]++
}

func (h *HistogramVec) Count(values ...string) uint64 {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if hist, ok := h.values[labelString(h.labelNames, values)]; ok {
		return hist.total
	}
	return 0
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := h.writeHeader(w); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, k := range sortedKeys(h.values) {
		hist := h.values[k]
		for i, b := range h.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), hist.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), hist.counts[len(h.buckets)]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %g\n%s_count%s %d\n", h.name, k, hist.sum, h.name, k, hist.total); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string {
	return labelEscaper.Replace(v)
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}
