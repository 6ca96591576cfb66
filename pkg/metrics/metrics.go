// Package metrics implements the observability hooks on Prometheus.
//
// A [Registry] owns its own prometheus.Registry so tests and embedded uses
// never collide with the global default registry. [Registry.Handler]
// exposes it for scraping.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/forcegraph/pkg/observability"
)

const namespace = "forcegraph"

// Registry holds all forcegraph metrics.
type Registry struct {
	registry *prometheus.Registry

	LayoutsTotal     *prometheus.CounterVec
	LayoutDuration   prometheus.Histogram
	PreGenerateTicks prometheus.Histogram
	LayoutNodes      prometheus.Histogram
	RendersTotal     *prometheus.CounterVec
	RenderDuration   prometheus.Histogram
	CacheRequests    *prometheus.CounterVec
	CacheWriteBytes  *prometheus.CounterVec
	SessionsActive   prometheus.Gauge
	SessionDuration  prometheus.Histogram
	MessagesTotal    *prometheus.CounterVec
	FramesTotal      prometheus.Counter
	LastFrameAlpha   prometheus.Gauge
}

// NewRegistry creates a registry with every metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Registry{
		registry: reg,

		LayoutsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Layouts configured, by result",
		}, []string{"result"}),
		LayoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time to configure and pre-generate a layout",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		PreGenerateTicks: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pregenerate_ticks",
			Help:      "Simulation ticks run before the first frame",
			Buckets:   []float64{0, 10, 50, 100, 200, 300, 500, 1000, 10000},
		}),
		LayoutNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Nodes per configured layout",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RendersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Render runs, by result",
		}, []string{"result"}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time to render all requested formats",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups, by key type and result",
		}, []string{"key_type", "result"}),
		CacheWriteBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_bytes_total",
			Help:      "Bytes written to the cache, by key type",
		}, []string{"key_type"}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Connected live viewers",
		}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Live viewer session length",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		MessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Engine messages received from viewers, by kind",
		}, []string{"kind"}),
		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames sent to live viewers",
		}),
		LastFrameAlpha: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_frame_alpha",
			Help:      "Simulation alpha of the most recent frame",
		}),
	}
}

// Handler returns the scrape handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as the pipeline, cache and session hooks.
func (r *Registry) Install() {
	observability.SetPipelineHooks(r)
	observability.SetCacheHooks(r)
	observability.SetSessionHooks(r)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnLayoutStart implements observability.PipelineHooks.
func (r *Registry) OnLayoutStart(_ context.Context, nodeCount int) {
	r.LayoutNodes.Observe(float64(nodeCount))
}

// OnLayoutComplete implements observability.PipelineHooks.
func (r *Registry) OnLayoutComplete(_ context.Context, _, ticks int, d time.Duration, err error) {
	r.LayoutsTotal.WithLabelValues(result(err)).Inc()
	r.LayoutDuration.Observe(d.Seconds())
	if err == nil {
		r.PreGenerateTicks.Observe(float64(ticks))
	}
}

// OnRenderStart implements observability.PipelineHooks.
func (r *Registry) OnRenderStart(context.Context, []string) {}

// OnRenderComplete implements observability.PipelineHooks.
func (r *Registry) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	r.RendersTotal.WithLabelValues(result(err)).Inc()
	r.RenderDuration.Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheWriteBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnSessionOpen implements observability.SessionHooks.
func (r *Registry) OnSessionOpen(context.Context, string) { r.SessionsActive.Inc() }

// OnSessionClose implements observability.SessionHooks.
func (r *Registry) OnSessionClose(_ context.Context, _ string, d time.Duration) {
	r.SessionsActive.Dec()
	r.SessionDuration.Observe(d.Seconds())
}

// OnMessage implements observability.SessionHooks.
func (r *Registry) OnMessage(_ context.Context, kind string) {
	r.MessagesTotal.WithLabelValues(kind).Inc()
}

// OnFrame implements observability.SessionHooks.
func (r *Registry) OnFrame(_ context.Context, alpha float64) {
	r.FramesTotal.Inc()
	r.LastFrameAlpha.Set(alpha)
}

var (
	_ observability.PipelineHooks = (*Registry)(nil)
	_ observability.CacheHooks    = (*Registry)(nil)
	_ observability.SessionHooks  = (*Registry)(nil)
)
