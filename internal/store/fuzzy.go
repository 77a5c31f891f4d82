package store

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/normalize"
)

const (
	// NameFoldFilterName is the token filter folding tokens like
	// normalize.Name.
	NameFoldFilterName = "name_fold"

	// NameAnalyzerName is the analyzer applied to indexed names.
	NameAnalyzerName = "name_analyzer"

	// DefaultFuzziness is the edit distance used when none is configured.
	DefaultFuzziness = 1

	// maxFuzziness is the largest edit distance bleve supports.
	maxFuzziness = 2

	// minFuzzyRunes is the shortest word matched with edit distance; shorter
	// words only match as prefixes.
	minFuzzyRunes = 3

	fuzzyBatchSize = 1000
)

func init() {
	_ = registry.RegisterTokenFilter(NameFoldFilterName, nameFoldFilterConstructor)
}

// FuzzyConfig configures a FuzzyIndex.
type FuzzyConfig struct {
	// Fuzziness is the edit distance allowed per query word (0-2).
	Fuzziness int
}

// FuzzyHit is one fuzzy match.
type FuzzyHit struct {
	Entry catalogue.NameEntry
	Score float64
}

// fuzzyDocument is what gets indexed for each name entry.
type fuzzyDocument struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// FuzzyIndex is an in-memory bleve index over catalogue names, used when
// prefix search finds too little.
type FuzzyIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	entries []catalogue.NameEntry
	config  FuzzyConfig
	closed  bool
}

// NewFuzzyIndex indexes every entry.
func NewFuzzyIndex(ctx context.Context, entries iter.Seq[catalogue.NameEntry], config FuzzyConfig) (*FuzzyIndex, error) {
	config.Fuzziness = max(0, min(config.Fuzziness, maxFuzziness))

	indexMapping, err := createNameMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create name mapping: %w", err)
	}
	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create fuzzy index: %w", err)
	}

	f := &FuzzyIndex{index: idx, config: config}

	batch := idx.NewBatch()
	for e := range entries {
		id := strconv.Itoa(len(f.entries))
		f.entries = append(f.entries, e)
		if err := batch.Index(id, fuzzyDocument{Name: e.Name, Kind: e.Link.Kind().String()}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index name %q: %w", e.Name, err)
		}
		if batch.Size() >= fuzzyBatchSize {
			if err := ctx.Err(); err != nil {
				_ = idx.Close()
				return nil, err
			}
			if err := idx.Batch(batch); err != nil {
				_ = idx.Close()
				return nil, fmt.Errorf("failed to execute batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	return f, nil
}

// createNameMapping maps "name" through the folding analyzer and "kind" as
// a keyword.
func createNameMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(NameAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{NameFoldFilterName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add name analyzer: %w", err)
	}

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = NameAnalyzerName
	nameField.Store = false
	nameField.IncludeTermVectors = false

	kindField := bleve.NewKeywordFieldMapping()
	kindField.Store = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", nameField)
	docMapping.AddFieldMappingsAt("kind", kindField)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = NameAnalyzerName
	return indexMapping, nil
}

// Search matches every query word either within the edit distance or as a
// prefix. kinds restricts the result when not empty.
func (f *FuzzyIndex) Search(ctx context.Context, queryStr string, kinds []corpus.Kind, limit int) ([]FuzzyHit, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, fmt.Errorf("fuzzy index is closed")
	}

	words := normalize.Words(queryStr)
	if len(words) == 0 || limit <= 0 {
		return []FuzzyHit{}, nil
	}

	clauses := make([]query.Query, 0, len(words)+1)
	for _, w := range words {
		prefix := bleve.NewPrefixQuery(w)
		prefix.SetField("name")
		if f.config.Fuzziness == 0 || utf8.RuneCountInString(w) < minFuzzyRunes {
			clauses = append(clauses, prefix)
			continue
		}
		fuzzy := bleve.NewFuzzyQuery(w)
		fuzzy.SetField("name")
		fuzzy.SetFuzziness(f.config.Fuzziness)
		clauses = append(clauses, bleve.NewDisjunctionQuery(fuzzy, prefix))
	}
	if len(kinds) > 0 {
		kindClauses := make([]query.Query, 0, len(kinds))
		for _, k := range kinds {
			term := bleve.NewTermQuery(k.String())
			term.SetField("kind")
			kindClauses = append(kindClauses, term)
		}
		clauses = append(clauses, bleve.NewDisjunctionQuery(kindClauses...))
	}

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(clauses...))
	req.Size = limit

	result, err := f.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search failed: %w", err)
	}

	hits := make([]FuzzyHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(f.entries) {
			continue
		}
		hits = append(hits, FuzzyHit{Entry: f.entries[i], Score: hit.Score})
	}
	return hits, nil
}

// Len returns the number of indexed entries.
func (f *FuzzyIndex) Len() int {
	return len(f.entries)
}

// Close releases the index.
func (f *FuzzyIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.index.Close()
}

// nameFoldFilterConstructor creates the name folding filter for bleve.
func nameFoldFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &nameFoldFilter{}, nil
}

// nameFoldFilter applies normalize.Name to every token and drops tokens
// that fold to nothing.
type nameFoldFilter struct{}

// Filter implements analysis.TokenFilter.
func (f *nameFoldFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		term := normalize.Name(string(token.Term))
		if term == "" {
			continue
		}
		token.Term = []byte(term)
		result = append(result, token)
	}
	return result
}
