package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	classQueryLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tutor_class_query_latency_ms",
		Help:    "Latency of per-class vector index queries in milliseconds",
		Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 800, 1200},
	}, []string{"source"})

	classQueryResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tutor_class_query_results",
		Help:    "Number of accepted chunks returned by a per-class query",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	}, []string{"source"})

	remoteCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_remote_calls_total",
		Help: "Remote calls by type (embedding, generation, vector_query, web_query)",
	}, []string{"type"})

	cacheEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_cache_events_total",
		Help: "Cache hits and misses by cache kind",
	}, []string{"cache", "event"})

	fallbackStages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_fallback_stage_total",
		Help: "Terminal fallback stage per query",
	}, []string{"stage"})

	verbatimTopScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tutor_verbatim_top_score",
		Help:    "Top generated-answer similarity checked against the verbatim threshold",
		Buckets: []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 0.99, 1.0},
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(classQueryLatency, classQueryResults, remoteCalls, cacheEvents, fallbackStages, verbatimTopScore)
	})
}

// ObserveClassQuery records latency and accepted count for a per-class query.
func ObserveClassQuery(source string, start time.Time, accepted int) {
	ensureRegistered()
	dur := time.Since(start).Milliseconds()
	classQueryLatency.WithLabelValues(source).Observe(float64(dur))
	classQueryResults.WithLabelValues(source).Observe(float64(accepted))
}

// IncRemoteCall increments the remote call counter for a call type.
func IncRemoteCall(typ string) {
	ensureRegistered()
	remoteCalls.WithLabelValues(typ).Inc()
}

// IncCache records a hit or miss for a cache kind.
func IncCache(cache, event string) {
	ensureRegistered()
	cacheEvents.WithLabelValues(cache, event).Inc()
}

// IncFallbackStage records the terminal stage a query ended in.
func IncFallbackStage(stage string) {
	ensureRegistered()
	fallbackStages.WithLabelValues(stage).Inc()
}

// ObserveVerbatimScore records the top generated-answer similarity.
func ObserveVerbatimScore(score float64) {
	ensureRegistered()
	if score >= 0 {
		verbatimTopScore.Observe(score)
	}
}

// Collectors exposes all collectors for external registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		classQueryLatency, classQueryResults, remoteCalls, cacheEvents, fallbackStages, verbatimTopScore,
	}
}
