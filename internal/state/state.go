// Package state holds the live catalogue: the loaded corpus, the catalogue
// built from it and the search engine over it. A reload builds everything
// from scratch and swaps it in at once, so readers always see one
// consistent snapshot.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/config"
	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/search"
	"github.com/Aman-CERP/railcat/internal/store"
	"github.com/Aman-CERP/railcat/internal/watcher"
)

// retireDelay is how long a replaced snapshot's search engine stays open
// for searches that started before the swap.
const retireDelay = 30 * time.Second

// Options configures how snapshots are built.
type Options struct {
	// CorpusPath is the corpus root directory.
	CorpusPath string

	// Extensions are the corpus file extensions.
	Extensions []string

	// Workers is the concurrency for parsing and catalogue inserts.
	Workers int

	// Search configures the search engine.
	Search search.EngineConfig

	// Fuzzy builds the fuzzy name index.
	Fuzzy bool

	// Fuzziness is the fuzzy edit distance.
	Fuzziness int

	// Debounce is the quiet window before a watched change reloads.
	Debounce time.Duration

	// Progress, if set, observes the stages of Build. It may be called
	// from several goroutines at once.
	Progress Progress
}

// Stage names a step of Build.
type Stage int

const (
	// StageLoad parses the corpus files.
	StageLoad Stage = iota
	// StageBuild inserts the documents into the catalogue.
	StageBuild
	// StageIndex builds the search engine.
	StageIndex
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "load"
	case StageBuild:
		return "build"
	case StageIndex:
		return "index"
	default:
		return "unknown"
	}
}

// Progress receives build progress. total is zero when it is not known.
type Progress func(stage Stage, done, total int)

func (o Options) report(stage Stage, done, total int) {
	if o.Progress != nil {
		o.Progress(stage, done, total)
	}
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CorpusPath: cfg.Corpus.Path,
		Extensions: cfg.Corpus.Extensions,
		Workers:    cfg.Build.Workers,
		Search: search.EngineConfig{
			DefaultLimit: cfg.Search.DefaultLimit,
			MaxLimit:     cfg.Search.MaxLimit,
			CacheSize:    cfg.Search.CacheSize,
		},
		Fuzzy:     cfg.Search.Fuzzy,
		Fuzziness: cfg.Search.Fuzziness,
		Debounce:  cfg.DebounceDuration(),
	}
}

// Timing records how long each build stage took.
type Timing struct {
	Load  time.Duration `json:"load"`
	Build time.Duration `json:"build"`
	Index time.Duration `json:"index"`
}

// Snapshot is one consistent view of the corpus.
type Snapshot struct {
	Library   *corpus.Library
	Catalogue *catalogue.Catalogue
	Search    *search.Engine
	Report    *corpus.Report
	LoadedAt  time.Time
	Timing    Timing
}

// Build loads the corpus, builds the catalogue and the search engine.
func Build(ctx context.Context, opts Options) (*Snapshot, error) {
	var timing Timing

	start := time.Now()
	lib, report, err := corpus.Load(ctx, opts.CorpusPath, corpus.LoadOptions{
		Extensions: opts.Extensions,
		Workers:    opts.Workers,
		Progress: func(done, total int) {
			opts.report(StageLoad, done, total)
		},
	})
	if err != nil {
		return nil, err
	}
	timing.Load = time.Since(start)

	start = time.Now()
	documents := lib.Len()
	opts.report(StageBuild, 0, documents)
	cat, err := catalogue.Build(ctx, lib,
		catalogue.WithWorkers(opts.Workers),
		catalogue.WithProgress(func(inserted int) {
			opts.report(StageBuild, inserted, documents)
		}))
	if err != nil {
		return nil, err
	}
	timing.Build = time.Since(start)

	start = time.Now()
	opts.report(StageIndex, 0, 1)
	var engineOpts []search.EngineOption
	if opts.Fuzzy {
		fuzzy, err := store.NewFuzzyIndex(ctx, cat.Names.Prefix(""), store.FuzzyConfig{Fuzziness: opts.Fuzziness})
		if err != nil {
			return nil, fmt.Errorf("build fuzzy index: %w", err)
		}
		engineOpts = append(engineOpts, search.WithFuzzyIndex(fuzzy))
	}
	engine, err := search.NewEngine(cat.Names, lib, opts.Search, engineOpts...)
	if err != nil {
		return nil, err
	}
	timing.Index = time.Since(start)
	opts.report(StageIndex, 1, 1)

	return &Snapshot{
		Library:   lib,
		Catalogue: cat,
		Search:    engine,
		Report:    report,
		LoadedAt:  time.Now(),
		Timing:    timing,
	}, nil
}

// State publishes the current Snapshot.
type State struct {
	opts    Options
	current atomic.Pointer[Snapshot]
	reload  sync.Mutex
	reloads atomic.Uint64
	failed  atomic.Uint64
	closed  atomic.Bool
	hooks   []ReloadHook
}

// ReloadHook observes the outcome of every Reload. snap is nil on failure.
type ReloadHook func(snap *Snapshot, err error)

// Load builds the first snapshot. It fails when that build fails.
func Load(ctx context.Context, opts Options) (*State, error) {
	snap, err := Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	s := &State{opts: opts}
	s.current.Store(snap)
	return s, nil
}

// OnReload registers a hook called after each reload attempt.
func (s *State) OnReload(hook ReloadHook) {
	s.reload.Lock()
	defer s.reload.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *State) notify(snap *Snapshot, err error) {
	for _, hook := range s.hooks {
		hook(snap, err)
	}
}

// Current returns the live snapshot.
func (s *State) Current() *Snapshot {
	return s.current.Load()
}

// Reload rebuilds from the corpus and swaps the result in. On failure the
// previous snapshot stays live and the error is returned.
func (s *State) Reload(ctx context.Context) (*Snapshot, error) {
	s.reload.Lock()
	defer s.reload.Unlock()

	if s.closed.Load() {
		return nil, fmt.Errorf("state is closed")
	}

	start := time.Now()
	snap, err := Build(ctx, s.opts)
	if err != nil {
		s.failed.Add(1)
		slog.Warn("corpus_reload_failed",
			slog.String("corpus", s.opts.CorpusPath),
			slog.String("error", err.Error()))
		s.notify(nil, err)
		return nil, err
	}

	old := s.current.Swap(snap)
	s.reloads.Add(1)
	if old != nil {
		time.AfterFunc(retireDelay, func() { _ = old.Search.Close() })
	}

	slog.Info("corpus_reloaded",
		slog.Int("documents", snap.Report.Documents),
		slog.Int("issues", len(snap.Report.Issues)),
		slog.Duration("duration", time.Since(start)))
	s.notify(snap, nil)
	return snap, nil
}

// Stats reports reload counters.
func (s *State) Stats() (reloads, failed uint64) {
	return s.reloads.Load(), s.failed.Load()
}

// Watch reloads on every debounced batch of corpus file changes until ctx
// is done. Reload failures are logged and watching continues.
func (s *State) Watch(ctx context.Context) error {
	w, err := watcher.New(watcher.Options{
		DebounceWindow: s.opts.Debounce,
		Extensions:     s.opts.Extensions,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	started := make(chan error, 1)
	go func() { started <- w.Start(ctx, s.opts.CorpusPath) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-started:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("watch corpus: %w", err)
			}
			return nil
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			if len(batch) == 0 {
				continue
			}
			slog.Info("corpus_changed",
				slog.Int("files", len(batch)),
				slog.String("first", batch[0].Path))
			_, _ = s.Reload(ctx)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			slog.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}

// Close closes the live snapshot's search engine. Reloads fail afterwards.
func (s *State) Close() error {
	s.reload.Lock()
	defer s.reload.Unlock()

	if s.closed.Swap(true) {
		return nil
	}
	if snap := s.current.Load(); snap != nil {
		return snap.Search.Close()
	}
	return nil
}
