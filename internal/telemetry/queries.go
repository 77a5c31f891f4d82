package telemetry

import (
	"cmp"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/railcat/internal/normalize"
)

// TermCount is a search term and how often it was used.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// QueryStats is a point-in-time copy of the query log.
type QueryStats struct {
	Searches          int64       `json:"searches"`
	ZeroResults       int64       `json:"zero_results"`
	TopTerms          []TermCount `json:"top_terms"`
	ZeroResultQueries []string    `json:"zero_result_queries"`
	Since             time.Time   `json:"since"`
}

// ZeroResultRate is the share of searches that found nothing, 0 to 1.
func (s QueryStats) ZeroResultRate() float64 {
	if s.Searches == 0 {
		return 0
	}
	return float64(s.ZeroResults) / float64(s.Searches)
}

// QueryLog tracks search terms and recent queries without results.
type QueryLog struct {
	mu          sync.Mutex
	terms       *lru.Cache[string, int64]
	zero        *Ring[string]
	searches    int64
	zeroResults int64
	since       time.Time
}

// NewQueryLog keeps up to termCapacity distinct terms and the last
// zeroCapacity queries that found nothing.
func NewQueryLog(termCapacity, zeroCapacity int) *QueryLog {
	if termCapacity <= 0 {
		termCapacity = 100
	}
	terms, _ := lru.New[string, int64](termCapacity)
	return &QueryLog{
		terms: terms,
		zero:  NewRing[string](zeroCapacity),
		since: time.Now(),
	}
}

// Record adds one search to the log.
func (l *QueryLog) Record(query string, results int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.searches++
	for _, term := range normalize.Words(query) {
		if len(term) < 3 {
			continue
		}
		count, _ := l.terms.Get(term)
		l.terms.Add(term, count+1)
	}
	if results == 0 {
		l.zeroResults++
		l.zero.Add(query)
	}
}

// Stats returns the most used terms first, ties by term.
func (l *QueryLog) Stats(topN int) QueryStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var top []TermCount
	for _, term := range l.terms.Keys() {
		if count, ok := l.terms.Peek(term); ok {
			top = append(top, TermCount{Term: term, Count: count})
		}
	}
	slices.SortFunc(top, func(a, b TermCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Term, b.Term))
	})
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}

	return QueryStats{
		Searches:          l.searches,
		ZeroResults:       l.zeroResults,
		TopTerms:          top,
		ZeroResultQueries: l.zero.Items(),
		Since:             l.since,
	}
}
