// Package catalogue builds the derived indices of a railway corpus: name
// search, document counts, countries and their lines, organization
// property, point connectivity and source cross-references.
//
// A build makes one insert pass over every document, in any order and
// possibly in parallel, followed by a finalize pass that resolves links
// between documents. Only the finalize pass produces the exported index
// types, so a half-built index cannot be queried. The finished Catalogue
// is immutable and safe for concurrent readers; slices it returns are
// shared and must not be modified.
package catalogue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/railcat/internal/corpus"
	railerr "github.com/Aman-CERP/railcat/internal/errors"
)

// Catalogue is the set of indices built from one corpus.
type Catalogue struct {
	Names         *NameIndex
	Countries     *CountryIndex
	Numbers       DocumentNumbers
	CountryLines  *CountryLines
	PropertyLines *PropertyLines
	Points        *PointConnections
	Sources       *SourceRefs
	BuiltAt       time.Time
}

// State is the phase of a Builder.
type State int32

const (
	// StateBuilding accepts inserts.
	StateBuilding State = iota
	// StateFinalized accepts nothing; the catalogue has been produced.
	StateFinalized
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Builder drives the two-phase construction of a Catalogue.
//
// Insert may be called from many goroutines. Finalize waits for running
// inserts, closes the builder and produces the Catalogue.
type Builder struct {
	store corpus.Store

	mu    sync.RWMutex
	state State

	names         *nameIndexBuilder
	numbers       numbersBuilder
	countries     *countryIndexBuilder
	countryLines  *countryLinesBuilder
	propertyLines *propertyLinesBuilder
	points        *pointConnectionsBuilder
	sources       *sourceRefsBuilder
}

// NewBuilder creates a Builder reading documents from store.
func NewBuilder(store corpus.Store) *Builder {
	return &Builder{
		store:         store,
		state:         StateBuilding,
		names:         newNameIndexBuilder(),
		countries:     newCountryIndexBuilder(),
		countryLines:  newCountryLinesBuilder(store),
		propertyLines: newPropertyLinesBuilder(),
		points:        newPointConnectionsBuilder(),
		sources:       newSourceRefsBuilder(),
	}
}

// State returns the builder's current phase.
func (b *Builder) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Insert adds one document to every index. A dangling link contributes
// nothing. Each link must be inserted at most once.
func (b *Builder) Insert(link corpus.Link) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.state != StateBuilding {
		return finalizedError("insert")
	}

	doc := b.store.Resolve(link)
	if doc == nil {
		return nil
	}

	b.names.insert(doc, link)
	b.numbers.insert(doc)
	b.countries.insert(doc, link)
	b.countryLines.insert(doc, link)
	b.propertyLines.insert(doc, link)
	b.points.insert(doc, link)
	b.sources.insert(doc, link)
	return nil
}

// Finalize closes the builder and runs every index's finalize step
// concurrently. It can only be called once.
func (b *Builder) Finalize(ctx context.Context) (*Catalogue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.state != StateBuilding {
		b.mu.Unlock()
		return nil, finalizedError("finalize")
	}
	b.state = StateFinalized
	b.mu.Unlock()

	cat := &Catalogue{}
	var g errgroup.Group

	g.Go(func() error {
		names, err := b.names.finalize()
		if err != nil {
			return err
		}
		cat.Names = names
		return nil
	})
	g.Go(func() error {
		cat.Numbers = b.numbers.finalize()
		return nil
	})
	g.Go(func() error {
		cat.Countries = b.countries.finalize(b.store)
		return nil
	})
	g.Go(func() error {
		cat.CountryLines = b.countryLines.finalize(b.store)
		return nil
	})
	g.Go(func() error {
		cat.PropertyLines = b.propertyLines.finalize(b.store)
		return nil
	})
	g.Go(func() error {
		cat.Points = b.points.finalize(b.store)
		return nil
	})
	g.Go(func() error {
		cat.Sources = b.sources.finalize()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, railerr.New(railerr.ErrCodeBuildFailed, "finalize catalogue", err)
	}
	cat.BuiltAt = time.Now()
	return cat, nil
}

func finalizedError(op string) error {
	return railerr.New(railerr.ErrCodeCatalogueFinalized, op+" on a finalized catalogue builder", nil)
}

// insertBatch is how many links one insert task handles.
const insertBatch = 256

type buildOptions struct {
	workers  int
	progress func(inserted int)
}

// Option configures Build.
type Option func(*buildOptions)

// WithWorkers sets how many goroutines run the insert pass. One worker
// inserts in store order. Values below one mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *buildOptions) {
		o.workers = n
	}
}

// WithProgress calls fn from the insert goroutines after each batch with
// the number of documents inserted so far.
func WithProgress(fn func(inserted int)) Option {
	return func(o *buildOptions) {
		o.progress = fn
	}
}

// Build inserts every document of store and finalizes the catalogue.
// Missing references never fail a build; only a cancelled context does.
func Build(ctx context.Context, store corpus.Store, opts ...Option) (*Catalogue, error) {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.NumCPU()
	}

	start := time.Now()
	slog.Info("catalogue_build_started", slog.Int("workers", o.workers))

	b := NewBuilder(store)
	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	batch := make([]corpus.Link, 0, insertBatch)
	flush := func() {
		links := batch
		batch = make([]corpus.Link, 0, insertBatch)
		g.Go(func() error {
			for _, link := range links {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := b.Insert(link); err != nil {
					return err
				}
			}
			if o.progress != nil {
				o.progress(int(inserted.Add(int64(len(links)))))
			}
			return nil
		})
	}
	for link := range store.Links() {
		if gctx.Err() != nil {
			break
		}
		batch = append(batch, link)
		if len(batch) == insertBatch {
			flush()
		}
	}
	if len(batch) > 0 {
		flush()
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cat, err := b.Finalize(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("catalogue_build_complete",
		slog.Int("documents", cat.Numbers.Total),
		slog.Int("names", cat.Names.Len()),
		slog.Int("countries", len(cat.CountryLines.Codes())),
		slog.Duration("duration", time.Since(start)))
	return cat, nil
}
