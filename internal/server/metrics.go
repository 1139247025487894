package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zeusync/magfield/internal/scene"
)

const metricsNamespace = "magfield"

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Sessions      prometheus.Gauge
	Requests      *prometheus.CounterVec
	FrameDuration prometheus.Histogram
	Broadcasts    prometheus.Counter
	Dropped       prometheus.Counter
	RateLimited   prometheus.Counter
}

func NewMetrics(sc *scene.Scene) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions",
			Help:      "Connected websocket sessions",
		}),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "requests_total",
				Help:      "Client requests by action and outcome",
			},
			[]string{"action", "status"},
		),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "frame_duration_seconds",
			Help:      "Time to sample one frame",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "broadcasts_total",
			Help:      "Conductor changes broadcast to sessions",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_messages_total",
			Help:      "Responses dropped because a session queue was full",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-session rate limit",
		}),
	}

	conductors := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "conductors",
		Help:      "Conductors in the shared scene",
	}, func() float64 { return float64(len(sc.Conductors())) })

	cacheHits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "grid_cache_hits_total",
		Help:      "Frames served from the grid cache",
	}, func() float64 {
		hits, _ := sc.CacheStats()
		return float64(hits)
	})

	cacheMisses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "grid_cache_misses_total",
		Help:      "Frames sampled from scratch",
	}, func() float64 {
		_, misses := sc.CacheStats()
		return float64(misses)
	})

	registry.MustRegister(
		m.Sessions, m.Requests, m.FrameDuration, m.Broadcasts, m.Dropped, m.RateLimited,
		conductors, cacheHits, cacheMisses,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the collectors for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
