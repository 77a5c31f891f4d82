package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/lang"
)

const orgsYAML = `
key: org.de
type: organization
name: Deutsches Reich
subtype: country
short_name:
  en: Germany
  de: Deutschland
  fr: Allemagne
---
key: org.kpev
type: org
name: Königlich Preußische Eisenbahn-Verwaltung
`

const linesYAML = `
key: line.de.001
type: line
name: Berlin–Potsdam
points: [point.berlin, point.potsdam, point.nowhere]
events:
  - date: 1838
    owner: [org.kpev]
  - date: "1880-02"
    operator: [org.kpev]
    concession:
      to: [org.de]
`

const pointsYAML = `
key: point.berlin
type: point
name: Berlin Potsdamer Bahnhof
---
key: point.potsdam
type: point
name: Potsdam
events:
  - date: 1838-10-29
    connection: [point.berlin]
---
key: point.potsdam
type: point
name: Potsdam duplicate
`

const sourcesYAML = `
key: source.handbook
type: source
name: Handbuch
date: 1901
author: [org.kpev]
collection: source.series
also: [source.reprint]
regards: [line.de.001]
---
key: source.series
type: source
name: Series
---
key: source.reprint
type: source
name: Reprint
date: bogus
`

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestLoad_AssemblesLibrary(t *testing.T) {
	// Given: a corpus spread over nested files in arbitrary order
	dir := writeCorpus(t, map[string]string{
		"orgs.yaml":            orgsYAML,
		"lines/de.yml":         linesYAML,
		"points.yaml":          pointsYAML,
		"sources/sources.yaml": sourcesYAML,
		"README.md":            "# not corpus",
		".hidden/skip.yaml":    "key: [broken",
	})

	// When: loading
	lib, report, err := Load(context.Background(), dir, LoadOptions{Workers: 2})

	// Then: every unique document is present and references resolve
	require.NoError(t, err)
	assert.Equal(t, 4, report.Files)
	assert.Equal(t, 8, report.Documents)
	assert.Equal(t, 8, lib.Len())

	lineLink, ok := lib.Get("line.de.001")
	require.True(t, ok)
	line := lib.Resolve(lineLink)
	require.NotNil(t, line.Line)
	require.Len(t, line.Line.Points, 2, "unknown point reference is dropped")
	assert.Equal(t, "point.potsdam", lib.Resolve(line.Line.Points[1]).Key)
	require.Len(t, line.Events, 2)
	assert.Equal(t, EventDate{Year: 1880, Month: 2}, line.Events[1].Date)
	require.NotNil(t, line.Events[1].Concession)
	assert.Equal(t, "org.de", lib.Resolve(line.Events[1].Concession.To[0]).Key)

	orgLink, _ := lib.Get("org.de")
	org := lib.Resolve(orgLink)
	assert.Equal(t, SubtypeCountry, org.Organization.Subtype)
	assert.Equal(t, "Deutschland", org.ShortName(lang.De))

	potsdamLink, _ := lib.Get("point.potsdam")
	assert.Equal(t, []string{"Potsdam"}, lib.Resolve(potsdamLink).Names, "first definition wins")

	srcLink, _ := lib.Get("source.handbook")
	src := lib.Resolve(srcLink).Source
	assert.Equal(t, EventDate{Year: 1901}, src.Date)
	assert.Equal(t, "source.series", lib.Resolve(src.Collection).Key)

	// And: the dropped values are reported
	var messages []string
	for _, issue := range report.Issues {
		messages = append(messages, issue.Key+": "+issue.Message)
	}
	assert.Contains(t, messages, `line.de.001: unknown reference "point.nowhere"`)
	assert.Contains(t, messages, `point.potsdam: duplicate key, document skipped`)
	assert.Contains(t, messages, `org.de: unknown language "fr" in short_name`)
	assert.Len(t, report.Issues, 4)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"), LoadOptions{})

	require.Error(t, err)
	assert.Equal(t, railerr.ErrCodeFileNotFound, railerr.GetCode(err))
}

func TestLoad_SyntaxErrorFails(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"bad.yaml": "key: [unterminated"})

	_, _, err := Load(context.Background(), dir, LoadOptions{})

	require.Error(t, err)
	assert.Equal(t, railerr.ErrCodeCorpusParse, railerr.GetCode(err))
}

func TestLoad_UnknownTypeFails(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"bad.yaml": "key: tunnel.1\ntype: tunnel\n"})

	_, _, err := Load(context.Background(), dir, LoadOptions{})

	require.Error(t, err)
	assert.Equal(t, railerr.ErrCodeCorpusParse, railerr.GetCode(err))
	assert.Contains(t, err.Error(), "tunnel")
}

func TestLoad_CancelledContext(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"orgs.yaml": orgsYAML})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Load(ctx, dir, LoadOptions{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_CustomExtensions(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"orgs.corpus": orgsYAML,
		"pts.yaml":    pointsYAML,
	})

	lib, report, err := Load(context.Background(), dir, LoadOptions{Extensions: []string{".corpus"}})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Files)
	assert.Equal(t, 2, lib.Len())
}

func TestLoad_ReportsProgress(t *testing.T) {
	// Given: three corpus files
	dir := t.TempDir()
	for i, key := range []string{"point.a", "point.b", "point.c"} {
		content := "key: " + key + "\ntype: point\nname: P" + key + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("p%d.yaml", i)), []byte(content), 0o644))
	}
	var calls atomic.Int32
	var total atomic.Int32

	// When: loading with a progress callback
	_, _, err := Load(context.Background(), dir, LoadOptions{
		Workers: 2,
		Progress: func(done, n int) {
			calls.Add(1)
			total.Store(int32(n))
		},
	})

	// Then: each file is reported once
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.EqualValues(t, 3, total.Load())
}
