// Package metrics wires the counters and histograms that observe the
// memory subsystem: memories persisted/soft-deleted, retrieval latency,
// and LLM call latency/errors. Grounded on intelligencedev-manifold's
// internal/rag/obs.OtelMetrics adapter shape (cached-by-name instruments
// behind a mutex), generalized from RAG service metrics to this
// subsystem's own instrument set, and on internal/telemetry's Setup/
// shutdown-func pattern for exporter lifecycle, adapted from traces to
// an OTLP HTTP metric exporter.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Config holds OpenTelemetry metrics settings.
type Config struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// Setup initializes the global meter provider when enabled and returns a
// shutdown function the caller should defer. When disabled it returns a
// no-op shutdown so callers never need to branch on cfg.Enabled.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// Instrument names, grouped by the SPEC_FULL.md §6 otel wiring row.
const (
	MemoriesPersisted   = "memoryd.memories.persisted"
	MemoriesSoftDeleted = "memoryd.memories.soft_deleted"
	MemoriesGCPurged    = "memoryd.memories.gc_purged"
	RetrievalLatency    = "memoryd.retrieval.latency_ms"
	LLMCallLatency      = "memoryd.llm.call_latency_ms"
	LLMCallErrors       = "memoryd.llm.call_errors"
)

// Recorder is the narrow interface the rest of the module depends on, so
// components never import the otel SDK directly.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, valueMs float64, labels map[string]string)
}

// OtelRecorder adapts the global otel Meter into a Recorder, caching
// instruments by name the way obs.OtelMetrics does.
type OtelRecorder struct {
	meter metric.Meter

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewOtelRecorder builds a Recorder against the global meter provider
// under the given instrumentation name.
func NewOtelRecorder(instrumentationName string) *OtelRecorder {
	return &OtelRecorder{
		meter:      otel.Meter(instrumentationName),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (o *OtelRecorder) IncCounter(name string, labels map[string]string) {
	if o == nil {
		return
	}
	c, ok := o.getCounter(name)
	if !ok {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(toAttrs(labels)...))
}

func (o *OtelRecorder) ObserveHistogram(name string, valueMs float64, labels map[string]string) {
	if o == nil {
		return
	}
	h, ok := o.getHistogram(name)
	if !ok {
		return
	}
	h.Record(context.Background(), valueMs, metric.WithAttributes(toAttrs(labels)...))
}

func (o *OtelRecorder) getCounter(name string) (metric.Int64Counter, bool) {
	o.mu.RLock()
	c, ok := o.counters[name]
	o.mu.RUnlock()
	if ok {
		return c, true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok = o.counters[name]; ok {
		return c, true
	}
	ctr, err := o.meter.Int64Counter(name)
	if err != nil {
		return ctr, false
	}
	o.counters[name] = ctr
	return ctr, true
}

func (o *OtelRecorder) getHistogram(name string) (metric.Float64Histogram, bool) {
	o.mu.RLock()
	h, ok := o.histograms[name]
	o.mu.RUnlock()
	if ok {
		return h, true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if h, ok = o.histograms[name]; ok {
		return h, true
	}
	hist, err := o.meter.Float64Histogram(name)
	if err != nil {
		return hist, false
	}
	o.histograms[name] = hist
	return hist, true
}

func toAttrs(labels map[string]string) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		out = append(out, attribute.String(k, v))
	}
	return out
}

// NoopRecorder discards everything; used when metrics are disabled.
type NoopRecorder struct{}

func (NoopRecorder) IncCounter(name string, labels map[string]string)             {}
func (NoopRecorder) ObserveHistogram(name string, valueMs float64, labels map[string]string) {}

// Since measures elapsed wall time in milliseconds for histogram recording.
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
