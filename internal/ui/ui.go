// Package ui renders the progress of long-running catalogue builds: a
// bubbletea view on interactive terminals and plain lines elsewhere.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/Aman-CERP/railcat/internal/output"
)

// Stage is a step of a catalogue build as shown to the user.
type Stage int

const (
	// StageLoading parses the corpus files.
	StageLoading Stage = iota
	// StageBuilding inserts documents into the catalogue.
	StageBuilding
	// StageIndexing builds the search indices.
	StageIndexing
	// StageExporting writes the SQLite snapshot.
	StageExporting
	// StageComplete indicates the build is complete.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageLoading:
		return "Loading"
	case StageBuilding:
		return "Building"
	case StageIndexing:
		return "Indexing"
	case StageExporting:
		return "Exporting"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageLoading:
		return "LOAD"
	case StageBuilding:
		return "BUILD"
	case StageIndexing:
		return "INDEX"
	case StageExporting:
		return "EXPORT"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// unit names what a stage counts.
func (s Stage) unit() string {
	switch s {
	case StageLoading:
		return "files"
	case StageBuilding:
		return "documents"
	default:
		return "steps"
	}
}

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Message string
}

// ErrorEvent represents a problem found during the build.
type ErrorEvent struct {
	File   string
	Err    error
	IsWarn bool
}

// CompletionStats summarizes a finished build.
type CompletionStats struct {
	Files     int
	Documents int
	Issues    int
	Duration  time.Duration
	// Path is the written snapshot, if any.
	Path string
}

// Renderer defines the interface for progress display.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// Title is shown in the TUI header, usually the corpus path.
	Title string
}

// NewRenderer returns a TUI renderer for interactive terminals, and a plain
// text renderer for CI environments, pipes, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !output.IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
