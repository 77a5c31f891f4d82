package search

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/corpus"
	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/normalize"
	"github.com/Aman-CERP/railcat/internal/store"
)

// Engine searches catalogue names by prefix, with optional fuzzy fallback.
type Engine struct {
	names  *catalogue.NameIndex
	store  corpus.Store
	fuzzy  *store.FuzzyIndex
	cache  *lru.Cache[string, []Result]
	config EngineConfig
	mu     sync.RWMutex
	closed bool
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithFuzzyIndex sets the index used to fill up short prefix results.
// Without it, Options.Fuzzy has no effect.
func WithFuzzyIndex(f *store.FuzzyIndex) EngineOption {
	return func(e *Engine) {
		e.fuzzy = f
	}
}

// NewEngine creates a search engine over a built name index.
func NewEngine(names *catalogue.NameIndex, st corpus.Store, config EngineConfig, opts ...EngineOption) (*Engine, error) {
	if names == nil || st == nil {
		return nil, railerr.InternalError("search engine needs a name index and a store", nil)
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = DefaultMaxLimit
	}
	config.DefaultLimit = min(config.DefaultLimit, config.MaxLimit)

	e := &Engine{
		names:  names,
		store:  st,
		config: config,
	}
	for _, opt := range opts {
		opt(e)
	}

	if config.CacheSize > 0 {
		cache, err := lru.New[string, []Result](config.CacheSize)
		if err != nil {
			return nil, railerr.InternalError("failed to create search cache", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Search returns names matching query. Prefix matches come first, ordered
// by term; fuzzy matches fill the remainder when opts.Fuzzy is set.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, railerr.New(railerr.ErrCodeSearchFailed, "search engine is closed", nil)
	}
	if normalize.Name(query) == "" {
		return nil, railerr.New(railerr.ErrCodeQueryEmpty, "query has no letters or digits", nil).
			WithDetail("query", query).
			WithSuggestion("Search for part of a name, e.g. 'Potsdam' or 'line.de'")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts = e.applyDefaults(opts)
	key := cacheKey(query, opts)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return slices.Clone(cached), nil
		}
	}

	start := time.Now()
	results := e.prefixSearch(query, opts)
	prefixCount := len(results)

	if opts.Fuzzy && e.fuzzy != nil && len(results) < opts.Limit {
		more, err := e.fuzzySearch(ctx, query, opts, results)
		if err != nil {
			return nil, err
		}
		results = append(results, more...)
	}

	slog.Debug("search_complete",
		slog.String("query", query),
		slog.Int("prefix_results", prefixCount),
		slog.Int("fuzzy_results", len(results)-prefixCount),
		slog.Duration("duration", time.Since(start)))

	if e.cache != nil {
		e.cache.Add(key, slices.Clone(results))
	}
	return results, nil
}

// prefixSearch collects up to opts.Limit entries whose term starts with the
// normalized query.
func (e *Engine) prefixSearch(query string, opts Options) []Result {
	accept := kindFilter(opts.Kinds)
	queryLen := len(normalize.Name(query))

	results := make([]Result, 0, opts.Limit)
	for term, entries := range e.names.PrefixTerms(query) {
		score := 1.0
		if len(term) > 0 && len(term) != queryLen {
			score = float64(queryLen) / float64(len(term))
		}
		for _, entry := range entries {
			if !accept(entry.Link.Kind()) {
				continue
			}
			r, ok := e.result(entry, score, false)
			if !ok {
				continue
			}
			results = append(results, r)
			if len(results) == opts.Limit {
				return results
			}
		}
	}
	return results
}

// fuzzySearch returns fuzzy matches not already in have, up to the
// remaining limit.
func (e *Engine) fuzzySearch(ctx context.Context, query string, opts Options, have []Result) ([]Result, error) {
	type seenKey struct {
		name string
		link corpus.Link
	}
	seen := make(map[seenKey]struct{}, len(have))
	for _, r := range have {
		seen[seenKey{r.Name, r.Link}] = struct{}{}
	}

	// Over-fetch so that duplicates of prefix hits do not starve the result.
	hits, err := e.fuzzy.Search(ctx, query, opts.Kinds, opts.Limit+len(have))
	if err != nil {
		return nil, railerr.New(railerr.ErrCodeSearchFailed, "fuzzy search failed", err).
			WithDetail("query", query)
	}

	remaining := opts.Limit - len(have)
	var out []Result
	for _, hit := range hits {
		k := seenKey{hit.Entry.Name, hit.Entry.Link}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		r, ok := e.result(hit.Entry, hit.Score, true)
		if !ok {
			continue
		}
		out = append(out, r)
		if len(out) == remaining {
			break
		}
	}
	return out, nil
}

func (e *Engine) result(entry catalogue.NameEntry, score float64, fuzzy bool) (Result, bool) {
	doc := e.store.Resolve(entry.Link)
	if doc == nil {
		return Result{}, false
	}
	return Result{
		Name:  entry.Name,
		Key:   doc.Key,
		Kind:  entry.Link.Kind(),
		Link:  entry.Link,
		Score: score,
		Fuzzy: fuzzy,
	}, true
}

// Stats reports index and cache sizes.
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := EngineStats{Terms: e.names.Len()}
	if e.fuzzy != nil {
		stats.FuzzyEntries = e.fuzzy.Len()
	}
	if e.cache != nil {
		stats.CachedQueries = e.cache.Len()
	}
	return stats
}

// Close releases the fuzzy index. Further searches fail.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.cache != nil {
		e.cache.Purge()
	}
	if e.fuzzy != nil {
		return e.fuzzy.Close()
	}
	return nil
}
