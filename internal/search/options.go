package search

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/normalize"
)

// applyDefaults fills in the limit and clamps it to [1, MaxLimit].
func (e *Engine) applyDefaults(opts Options) Options {
	if opts.Limit <= 0 {
		opts.Limit = e.config.DefaultLimit
	}
	if opts.Limit > e.config.MaxLimit {
		opts.Limit = e.config.MaxLimit
	}
	if opts.Limit < 1 {
		opts.Limit = 1
	}
	return opts
}

// kindFilter returns a predicate accepting the given kinds, or every kind
// when none are given.
func kindFilter(kinds []corpus.Kind) func(corpus.Kind) bool {
	if len(kinds) == 0 {
		return func(corpus.Kind) bool { return true }
	}
	return func(k corpus.Kind) bool {
		return slices.Contains(kinds, k)
	}
}

// ParseKinds parses kind names such as "line,point" or repeated flags.
func ParseKinds(values []string) ([]corpus.Kind, error) {
	var kinds []corpus.Kind
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			k, err := corpus.ParseKind(part)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(kinds, k) {
				kinds = append(kinds, k)
			}
		}
	}
	return kinds, nil
}

// cacheKey identifies a query for the result cache. Queries that fold to
// the same words share an entry.
func cacheKey(query string, opts Options) string {
	kinds := slices.Clone(opts.Kinds)
	slices.Sort(kinds)
	return fmt.Sprintf("%s|%s|%d|%v|%t",
		normalize.Name(query), strings.Join(normalize.Words(query), " "), opts.Limit, kinds, opts.Fuzzy)
}
