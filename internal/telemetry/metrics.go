package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/corpus"
)

const namespace = "railcat"

// Metrics collects server telemetry on a private Prometheus registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	searchResults prometheus.Histogram
	reloads       *prometheus.CounterVec
	documents     *prometheus.GaugeVec

	queries *QueryLog
}

// NewMetrics registers the railcat collectors and the Go runtime
// collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and outcome.",
		}, []string{"tool", "status"}),
		toolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "MCP tool call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"tool"}),
		searchResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results per name search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_reloads_total",
			Help:      "Corpus reloads by outcome.",
		}, []string{"status"}),
		documents: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalogue_documents",
			Help:      "Documents in the live catalogue by kind.",
		}, []string{"kind"}),
		queries: NewQueryLog(100, 100),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordToolCall counts one tool call and its latency.
func (m *Metrics) RecordToolCall(tool string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status(err)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordSearch counts one name search.
func (m *Metrics) RecordSearch(query string, results int) {
	if m == nil {
		return
	}
	m.searchResults.Observe(float64(results))
	m.queries.Record(query, results)
}

// RecordReload counts one corpus reload.
func (m *Metrics) RecordReload(err error) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(status(err)).Inc()
}

// SetDocuments publishes the per-kind document counts of the live
// catalogue.
func (m *Metrics) SetDocuments(n catalogue.DocumentNumbers) {
	if m == nil {
		return
	}
	for _, kind := range corpus.Kinds() {
		m.documents.WithLabelValues(kind.String()).Set(float64(n.ByKind(kind)))
	}
}

// Queries returns the query log statistics.
func (m *Metrics) Queries(topN int) QueryStats {
	if m == nil {
		return QueryStats{}
	}
	return m.queries.Stats(topN)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
