// Package search answers name queries against a built catalogue: prefix
// matches from the name index first, topped up with fuzzy matches when the
// prefix finds too little.
package search

import (
	"github.com/Aman-CERP/railcat/internal/corpus"
)

// Default engine limits.
const (
	DefaultLimit     = 10
	DefaultMaxLimit  = 100
	DefaultCacheSize = 1000
)

// Options configures a search query.
type Options struct {
	// Limit is the maximum number of results (default: 10, clamped to MaxLimit).
	Limit int

	// Kinds restricts results to these document kinds. Empty means all.
	Kinds []corpus.Kind

	// Fuzzy allows fuzzy matches to fill up a short prefix result.
	Fuzzy bool
}

// Result is one matching name.
type Result struct {
	// Name is the display name that matched.
	Name string `json:"name"`

	// Key is the key of the document the name belongs to.
	Key string `json:"key"`

	// Kind is the document kind.
	Kind corpus.Kind `json:"-"`

	// Link identifies the document in the catalogue's store.
	Link corpus.Link `json:"-"`

	// Score is 1 for an exact term match, lower for longer names sharing the
	// prefix. Fuzzy results carry the fuzzy index score.
	Score float64 `json:"score"`

	// Fuzzy marks results that did not match as a prefix.
	Fuzzy bool `json:"fuzzy,omitempty"`
}

// EngineConfig holds engine limits.
type EngineConfig struct {
	// DefaultLimit applies when Options.Limit is not positive.
	DefaultLimit int

	// MaxLimit caps Options.Limit.
	MaxLimit int

	// CacheSize is the number of cached queries. Zero disables the cache.
	CacheSize int
}

// DefaultEngineConfig returns sensible defaults for the engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultLimit: DefaultLimit,
		MaxLimit:     DefaultMaxLimit,
		CacheSize:    DefaultCacheSize,
	}
}

// EngineStats reports engine sizes.
type EngineStats struct {
	Terms        int `json:"terms"`
	FuzzyEntries int `json:"fuzzy_entries"`
	CachedQueries int `json:"cached_queries"`
}
