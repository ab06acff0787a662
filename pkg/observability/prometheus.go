package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

const namespace = "radialtree"

// PrometheusHooks implements every hook interface with Prometheus metrics.
type PrometheusHooks struct {
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	loadedNodes   prometheus.Histogram
	layoutNodes   prometheus.Histogram
	violations    prometheus.Histogram
	outerRing     prometheus.Gauge
	cacheEvents   *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

// NewPrometheusHooks registers the metrics with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		// Labels: stage (load, layout, export)
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Failed pipeline stages",
		}, []string{"stage"}),
		loadedNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tree_nodes",
			Help:      "Nodes per loaded tree",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		layoutNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "visible_nodes",
			Help:      "Visible nodes per layout",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		violations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "residual_overlaps",
			Help:      "Adjacent pairs still below the minimum angle after correction",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500},
		}),
		outerRing: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "outer_ring_radius",
			Help:      "Radius of the outermost ring of the last layout",
		}),
		// Labels: key_type (tree, layout, export), event (hit, miss)
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache lookups by outcome",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache",
		}, []string{"key_type"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by status",
		}, []string{"method", "route", "status"}),
	}
}

func (p *PrometheusHooks) observeStage(stage string, d time.Duration, err error) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		p.stageErrors.WithLabelValues(stage).Inc()
	}
}

func (p *PrometheusHooks) OnLoadStart(context.Context, string) {}

func (p *PrometheusHooks) OnLoadComplete(_ context.Context, _ string, nodes int, d time.Duration, err error) {
	p.observeStage("load", d, err)
	if err == nil {
		p.loadedNodes.Observe(float64(nodes))
	}
}

func (p *PrometheusHooks) OnLayoutStart(_ context.Context, visible int) {
	p.layoutNodes.Observe(float64(visible))
}

func (p *PrometheusHooks) OnLayoutComplete(_ context.Context, s LayoutStats, d time.Duration, err error) {
	p.observeStage("layout", d, err)
	if err == nil {
		p.violations.Observe(float64(s.Violations))
		p.outerRing.Set(s.OuterRing)
	}
}

func (p *PrometheusHooks) OnExportStart(context.Context, []string) {}

func (p *PrometheusHooks) OnExportComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.observeStage("export", d, err)
}

func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *PrometheusHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
