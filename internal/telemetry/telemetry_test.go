package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/railcat/internal/catalogue"
)

// =============================================================================
// Ring
// =============================================================================

func TestRing_KeepsNewestItems(t *testing.T) {
	r := NewRing[string](3)

	for _, q := range []string{"q1", "q2", "q3", "q4", "q5"} {
		r.Add(q)
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"q3", "q4", "q5"}, r.Items())
}

func TestRing_PartiallyFilled(t *testing.T) {
	r := NewRing[int](0)

	r.Add(1)
	r.Add(2)

	assert.Equal(t, []int{1, 2}, r.Items())
}

// =============================================================================
// QueryLog
// =============================================================================

func TestQueryLog_CountsTermsAndZeroResults(t *testing.T) {
	// Given: a query log
	l := NewQueryLog(10, 2)

	// When: recording searches, some without results
	l.Record("Potsdam Stadt", 2)
	l.Record("potsdam", 1)
	l.Record("Wien", 0)
	l.Record("xy", 0)
	l.Record("Zürich", 0)

	// Then: folded terms are counted and short ones skipped
	stats := l.Stats(2)
	assert.Equal(t, int64(5), stats.Searches)
	assert.Equal(t, int64(3), stats.ZeroResults)
	assert.InDelta(t, 0.6, stats.ZeroResultRate(), 1e-9)
	require.Len(t, stats.TopTerms, 2)
	assert.Equal(t, TermCount{Term: "potsdam", Count: 2}, stats.TopTerms[0])
	assert.Equal(t, TermCount{Term: "stadt", Count: 1}, stats.TopTerms[1])
	assert.Equal(t, []string{"xy", "Zürich"}, stats.ZeroResultQueries)
}

func TestQueryStats_ZeroResultRate_NoSearches(t *testing.T) {
	assert.Zero(t, QueryStats{}.ZeroResultRate())
}

// =============================================================================
// Metrics
// =============================================================================

func TestMetrics_RecordToolCall(t *testing.T) {
	m := NewMetrics()

	m.RecordToolCall("search_names", time.Millisecond, nil)
	m.RecordToolCall("search_names", time.Millisecond, nil)
	m.RecordToolCall("point_info", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("search_names", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("point_info", "error")))
}

func TestMetrics_ReloadsAndDocuments(t *testing.T) {
	m := NewMetrics()

	m.RecordReload(nil)
	m.RecordReload(errors.New("parse"))
	m.SetDocuments(catalogue.DocumentNumbers{Total: 3, Lines: 1, Points: 2})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reloads.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("point")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.documents.WithLabelValues("source")))
}

func TestMetrics_Handler_ServesRegistry(t *testing.T) {
	m := NewMetrics()
	m.RecordSearch("Potsdam", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "railcat_search_results_count 1")
	assert.Equal(t, int64(1), m.Queries(0).Searches)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordToolCall("x", 0, nil)
		m.RecordSearch("x", 0)
		m.RecordReload(nil)
		m.SetDocuments(catalogue.DocumentNumbers{})
	})
	assert.Zero(t, m.Queries(10).Searches)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
