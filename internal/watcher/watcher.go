package watcher

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Operation is the kind of change seen for a path.
type Operation int

const (
	// OpCreate means the file appeared.
	OpCreate Operation = iota
	// OpModify means the file was written.
	OpModify
	// OpDelete means the file was removed.
	OpDelete
	// OpRename means the file was moved away.
	OpRename
)

// String returns the upper-case operation name.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one change to a corpus file.
type FileEvent struct {
	// Path is relative to the watched root.
	Path string

	Operation Operation

	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	// DebounceWindow is how long the watcher waits for quiet before it
	// emits a batch. Default: 500ms
	DebounceWindow time.Duration

	// EventBufferSize is the number of batches buffered for the reader.
	// Default: 16
	EventBufferSize int

	// Extensions are the file extensions reported, with leading dot.
	// Default: .yaml and .yml
	Extensions []string
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		EventBufferSize: 16,
		Extensions:      []string{".yaml", ".yml"},
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if len(o.Extensions) == 0 {
		o.Extensions = defaults.Extensions
	}
	return o
}

// matches reports whether name carries one of the watched extensions.
func (o Options) matches(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return false
	}
	return slices.ContainsFunc(o.Extensions, func(e string) bool {
		return strings.EqualFold(strings.TrimPrefix(e, "."), ext)
	})
}
