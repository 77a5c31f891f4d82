package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer outputs plain text progress (for CI/pipes). It prints one
// line per stage start and end, not one per event.
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	stage   Stage
	started bool
	last    ProgressEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || event.Stage != r.stage {
		if r.started {
			r.finishStage()
		}
		r.started = true
		r.stage = event.Stage
		msg := event.Message
		if msg == "" {
			msg = event.Stage.String() + "..."
		}
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
	r.last = event
}

// finishStage prints the final count of the current stage.
func (r *PlainRenderer) finishStage() {
	if r.last.Total > 0 && r.stage != StageIndexing && r.stage != StageExporting {
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d %s\n", r.stage.Icon(), r.last.Current, r.last.Total, r.stage.unit())
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}

	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		r.finishStage()
	}
	_, _ = fmt.Fprintf(r.out, "Complete: %d files, %d documents in %s",
		stats.Files, stats.Documents, stats.Duration.Round(time.Millisecond))
	if stats.Issues > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d issues)", stats.Issues)
	}
	_, _ = fmt.Fprintln(r.out)
	if stats.Path != "" {
		_, _ = fmt.Fprintf(r.out, "Snapshot: %s\n", stats.Path)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
