package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/lang"
)

// DefaultExtensions are the file extensions read by Load when none are given.
var DefaultExtensions = []string{".yaml", ".yml"}

// LoadOptions configures Load.
type LoadOptions struct {
	// Extensions selects corpus files by extension (with the leading dot).
	Extensions []string
	// Workers bounds how many files are parsed concurrently.
	// Zero means runtime.NumCPU().
	Workers int
	// Progress, if set, is called from the parsing goroutines after each
	// file with the number of files parsed so far.
	Progress func(done, total int)
}

// Issue is a non-fatal problem found while loading. The offending value is
// dropped and loading continues.
type Issue struct {
	File    string
	Key     string
	Message string
}

// String implements fmt.Stringer.
func (i Issue) String() string {
	if i.Key == "" {
		return fmt.Sprintf("%s: %s", i.File, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.File, i.Key, i.Message)
}

// Report summarizes a load.
type Report struct {
	Files     int
	Documents int
	Issues    []Issue
	Duration  time.Duration
}

func (r *Report) addIssue(file, key, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{File: file, Key: key, Message: fmt.Sprintf(format, args...)})
}

// rawDate accepts both quoted and bare YAML dates (1850, "1850-03").
type rawDate string

func (d *rawDate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	*d = rawDate(node.Value)
	return nil
}

type rawConcession struct {
	To []string `yaml:"to"`
}

type rawEvent struct {
	Date       rawDate        `yaml:"date"`
	Name       string         `yaml:"name"`
	Owner      []string       `yaml:"owner"`
	Operator   []string       `yaml:"operator"`
	Concession *rawConcession `yaml:"concession"`
	Connection []string       `yaml:"connection"`
}

type rawDocument struct {
	Key          string            `yaml:"key"`
	Type         string            `yaml:"type"`
	Name         string            `yaml:"name"`
	Names        []string          `yaml:"names"`
	ShortName    map[string]string `yaml:"short_name"`
	Subtype      string            `yaml:"subtype"`
	Jurisdiction string            `yaml:"jurisdiction"`
	Points       []string          `yaml:"points"`
	Date         rawDate           `yaml:"date"`
	Author       []string          `yaml:"author"`
	Editor       []string          `yaml:"editor"`
	Organization []string          `yaml:"organization"`
	Publisher    []string          `yaml:"publisher"`
	Collection   string            `yaml:"collection"`
	Also         []string          `yaml:"also"`
	Regards      []string          `yaml:"regards"`
	Events       []rawEvent        `yaml:"events"`

	file string
	kind Kind
}

// Load reads every corpus file below root and assembles a Library.
//
// Files are parsed concurrently. Syntax errors and unknown document types
// fail the load. Dangling references, duplicate keys and unknown language
// codes are recorded in the Report and dropped.
func Load(ctx context.Context, root string, opts LoadOptions) (*Library, *Report, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, railerr.New(railerr.ErrCodeFileNotFound, "corpus directory not found: "+root, err).
				WithSuggestion("set corpus.path in .railcat.yaml or pass --corpus")
		}
		return nil, nil, railerr.New(railerr.ErrCodeFilePermission, "cannot access corpus: "+root, err)
	}
	if !info.IsDir() {
		return nil, nil, railerr.New(railerr.ErrCodeFileNotFound, "corpus path is not a directory: "+root, nil)
	}

	files, err := corpusFiles(root, opts.Extensions)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := parseFiles(ctx, files, opts.Workers, opts.Progress)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{Files: len(files)}
	lib, err := assemble(parsed, report)
	if err != nil {
		return nil, nil, err
	}
	report.Documents = lib.Len()
	report.Duration = time.Since(start)

	slog.Info("corpus_loaded",
		slog.String("root", root),
		slog.Int("files", report.Files),
		slog.Int("documents", report.Documents),
		slog.Int("issues", len(report.Issues)),
		slog.Duration("duration", report.Duration))

	return lib, report, nil
}

// corpusFiles lists matching files below root in lexical order.
func corpusFiles(root string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, railerr.New(railerr.ErrCodeFilePermission, "walk corpus: "+root, err)
	}
	return files, nil
}

// parseFiles decodes all files concurrently. The result keeps file order.
func parseFiles(ctx context.Context, files []string, workers int, progress func(done, total int)) ([][]*rawDocument, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var parsed atomic.Int64

	out := make([][]*rawDocument, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := parseFile(path)
			if err != nil {
				return err
			}
			out[i] = docs
			if progress != nil {
				progress(int(parsed.Add(1)), len(files))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseFile(path string) ([]*rawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, railerr.New(railerr.ErrCodeFilePermission, "read corpus file: "+path, err)
	}

	var docs []*rawDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var raw rawDocument
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(path, err)
		}
		if raw.Key == "" && raw.Type == "" {
			// Empty document between separators.
			continue
		}
		if raw.Key == "" {
			return nil, parseError(path, fmt.Errorf("document of type %q has no key", raw.Type))
		}
		kind, err := ParseKind(raw.Type)
		if err != nil {
			return nil, parseError(path, fmt.Errorf("%s: %w", raw.Key, err))
		}
		raw.kind = kind
		raw.file = path
		docs = append(docs, &raw)
	}
	return docs, nil
}

func parseError(path string, err error) error {
	return railerr.New(railerr.ErrCodeCorpusParse, fmt.Sprintf("%s: %v", path, err), err).
		WithDetail("file", path)
}

// assemble reserves every key first so references resolve regardless of
// file or document order, then converts the raw documents.
func assemble(parsed [][]*rawDocument, report *Report) (*Library, error) {
	b := NewLibraryBuilder()

	var accepted []*rawDocument
	for _, docs := range parsed {
		for _, raw := range docs {
			if _, dup := b.Lookup(raw.Key); dup {
				report.addIssue(raw.file, raw.Key, "duplicate key, document skipped")
				continue
			}
			if _, err := b.Reserve(raw.Key, raw.kind); err != nil {
				return nil, railerr.New(railerr.ErrCodeCorpusParse, err.Error(), err)
			}
			accepted = append(accepted, raw)
		}
	}

	for _, raw := range accepted {
		link, _ := b.Lookup(raw.Key)
		doc := convert(b, raw, report)
		if err := b.Set(link, doc); err != nil {
			return nil, railerr.Wrap(railerr.ErrCodeInternal, err)
		}
	}

	return b.Finish(), nil
}

func convert(b *LibraryBuilder, raw *rawDocument, report *Report) *Document {
	c := converter{b: b, raw: raw, report: report}

	doc := &Document{
		Key:  raw.Key,
		Kind: raw.kind,
	}
	if raw.Name != "" {
		doc.Names = append(doc.Names, raw.Name)
	}
	doc.Names = append(doc.Names, raw.Names...)

	for _, ev := range raw.Events {
		event := Event{
			Date:       c.date(ev.Date),
			Name:       ev.Name,
			Owner:      c.links(ev.Owner),
			Operator:   c.links(ev.Operator),
			Connection: c.links(ev.Connection),
		}
		if ev.Concession != nil {
			event.Concession = &Concession{To: c.links(ev.Concession.To)}
		}
		doc.Events = append(doc.Events, event)
	}

	switch raw.kind {
	case KindLine:
		doc.Line = &LineInfo{
			Points:       c.links(raw.Points),
			Jurisdiction: raw.Jurisdiction,
		}
	case KindOrganization:
		org := &OrganizationInfo{
			Subtype:    Subtype(strings.ToLower(raw.Subtype)),
			ShortNames: make(map[lang.Lang]string, len(raw.ShortName)),
		}
		for code, name := range raw.ShortName {
			l, err := lang.Parse(code)
			if err != nil {
				report.addIssue(raw.file, raw.Key, "unknown language %q in short_name", code)
				continue
			}
			org.ShortNames[l] = name
		}
		doc.Organization = org
	case KindSource:
		src := &SourceInfo{
			Date:         c.date(raw.Date),
			Author:       c.links(raw.Author),
			Editor:       c.links(raw.Editor),
			Organization: c.links(raw.Organization),
			Publisher:    c.links(raw.Publisher),
			Also:         c.links(raw.Also),
			Regards:      c.links(raw.Regards),
		}
		if raw.Collection != "" {
			if l, ok := c.link(raw.Collection); ok {
				src.Collection = l
			}
		}
		doc.Source = src
	}

	return doc
}

type converter struct {
	b      *LibraryBuilder
	raw    *rawDocument
	report *Report
}

func (c converter) link(key string) (Link, bool) {
	l, ok := c.b.Lookup(key)
	if !ok {
		c.report.addIssue(c.raw.file, c.raw.Key, "unknown reference %q", key)
	}
	return l, ok
}

func (c converter) links(keys []string) []Link {
	if len(keys) == 0 {
		return nil
	}
	out := make([]Link, 0, len(keys))
	for _, key := range keys {
		if l, ok := c.link(key); ok {
			out = append(out, l)
		}
	}
	return out
}

func (c converter) date(s rawDate) EventDate {
	d, err := ParseDate(string(s))
	if err != nil {
		c.report.addIssue(c.raw.file, c.raw.Key, "%v", err)
		return EventDate{}
	}
	return d
}
