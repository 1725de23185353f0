package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wcreiley/notice-alert-system/internal/core/domain"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	queries       *prometheus.CounterVec
	queryDuration prometheus.Histogram
	notifications *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	documents     *prometheus.CounterVec
	chunksIndexed prometheus.Counter
	chunkFailures prometheus.Counter
	recomputes    *prometheus.CounterVec
	standing      prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticealert_queries_total",
			Help: "Interactive queries by final state.",
		}, []string{"state"}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "noticealert_query_duration_seconds",
			Help:    "End-to-end latency of interactive queries.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticealert_notifications_total",
			Help: "Alert decisions and deliveries by result.",
		}, []string{"result"}),
		providerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticealert_provider_calls_total",
			Help: "Language model and embedding calls by provider and result.",
		}, []string{"provider", "result"}),
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticealert_documents_total",
			Help: "Documents processed by the indexer by result.",
		}, []string{"result"}),
		chunksIndexed: f.NewCounter(prometheus.CounterOpts{
			Name: "noticealert_chunks_indexed_total",
			Help: "Chunks written to the embedding index.",
		}),
		chunkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "noticealert_chunk_failures_total",
			Help: "Chunks excluded because embedding permanently failed.",
		}),
		recomputes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticealert_recomputes_total",
			Help: "Standing query recomputations by result.",
		}, []string{"result"}),
		standing: f.NewGauge(prometheus.GaugeOpts{
			Name: "noticealert_standing_queries",
			Help: "Number of registered standing queries.",
		}),
	}
}

func (m *Metrics) observeQuery(state domain.QueryState, started time.Time) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(string(state)).Inc()
	m.queryDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) providerCall(provider, result string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) document(result string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(result).Inc()
}

func (m *Metrics) chunks(indexed, failed int) {
	if m == nil {
		return
	}
	m.chunksIndexed.Add(float64(indexed))
	m.chunkFailures.Add(float64(failed))
}

func (m *Metrics) recompute(result string) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(result).Inc()
}

func (m *Metrics) standingQueries(n int) {
	if m == nil {
		return
	}
	m.standing.Set(float64(n))
}
