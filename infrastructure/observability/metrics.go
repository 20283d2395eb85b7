// Package observability exposes the prometheus instrumentation for the
// data-access layer. Counters are cheap to bump from hot paths; the host
// application decides whether and where to scrape them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters the caches, normalizer and fallback
// orchestrator report into. A nil *Metrics is valid and drops everything,
// which keeps test wiring minimal.
type Metrics struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	remoteFailures *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	droppedRecords *prometheus.CounterVec
	unknownTags    *prometheus.CounterVec
}

// NewMetrics registers the counter set on reg. Passing nil registers on the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lugares_cache_hits_total",
			Help: "Fresh cache hits per resource family.",
		}, []string{"resource"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lugares_cache_misses_total",
			Help: "Cache misses (absent or stale) per resource family.",
		}, []string{"resource"}),
		remoteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lugares_remote_failures_total",
			Help: "Remote fetches that failed at transport or protocol level.",
		}, []string{"resource"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lugares_fallback_served_total",
			Help: "Results served from a fallback source instead of the backend.",
		}, []string{"resource", "source"}),
		droppedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lugares_normalizer_dropped_records_total",
			Help: "List elements dropped because they could not be decoded at all.",
		}, []string{"resource"}),
		unknownTags: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lugares_normalizer_unknown_tags_total",
			Help: "Enum values that fell back to their safe default.",
		}, []string{"enum"}),
	}
}

func (m *Metrics) CacheHit(resource string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(resource).Inc()
}

func (m *Metrics) CacheMiss(resource string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(resource).Inc()
}

func (m *Metrics) RemoteFailure(resource string) {
	if m == nil {
		return
	}
	m.remoteFailures.WithLabelValues(resource).Inc()
}

// FallbackServed records a result answered from "stale" or "seed".
func (m *Metrics) FallbackServed(resource, source string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(resource, source).Inc()
}

func (m *Metrics) RecordDropped(resource string) {
	if m == nil {
		return
	}
	m.droppedRecords.WithLabelValues(resource).Inc()
}

func (m *Metrics) UnknownTag(enum string) {
	if m == nil {
		return
	}
	m.unknownTags.WithLabelValues(enum).Inc()
}
