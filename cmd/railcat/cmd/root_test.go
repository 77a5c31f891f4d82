package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	railerr "github.com/Aman-CERP/railcat/internal/errors"
)

const testCorpus = `
key: org.de
type: organization
name: Deutsches Reich
subtype: country
short_name: {en: Germany, de: Deutschland}
---
key: org.kpev
type: organization
name: Königlich Preußische Eisenbahn-Verwaltung
---
key: point.berlin
type: point
name: Berlin Potsdamer Bahnhof
---
key: point.potsdam
type: point
name: Potsdam
events:
  - connection: [point.berlin]
---
key: line.de.001
type: line
name: Stammbahn
points: [point.berlin, point.potsdam]
events:
  - date: 1838
    owner: [org.kpev]
---
key: source.handbook
type: source
name: Handbuch
date: 1901
author: [org.kpev]
regards: [line.de.001]
`

// testProject is a project directory with a corpus and no config file.
type testProject struct {
	dir    string
	corpus string
}

func newTestProject(t *testing.T) testProject {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "corpus")
	require.NoError(t, os.Mkdir(corpusDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "prussia.yaml"), []byte(testCorpus), 0o644))
	return testProject{dir: dir, corpus: corpusDir}
}

// run executes the root command against the project and returns stdout.
func (p testProject) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config-dir", p.dir, "--corpus", p.corpus}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}
	for _, want := range []string{"stats", "search", "countries", "lines", "point", "sources", "export", "serve", "config", "doctor", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"config-dir", "corpus", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag --%s", name)
	}
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestRootCmd_MissingCorpus_ReturnsFileNotFound(t *testing.T) {
	// Given: a corpus path that does not exist
	p := newTestProject(t)
	p.corpus = filepath.Join(p.dir, "missing")

	// When: building the catalogue
	_, err := p.run(t, "stats")

	// Then: the error carries the file-not-found code
	require.Error(t, err)
	assert.Equal(t, railerr.ErrCodeFileNotFound, railerr.GetCode(err))
}

func TestRootCmd_UnknownFormat_ReturnsValidationError(t *testing.T) {
	p := newTestProject(t)

	_, err := p.run(t, "stats", "--format", "xml")

	require.Error(t, err)
	assert.Equal(t, railerr.CategoryValidation, railerr.GetCategory(err))
	assert.Contains(t, railerr.FormatForCLI(err), "--format text or --format json")
}

func TestRootCmd_ProjectConfig_IsApplied(t *testing.T) {
	// Given: a project config that points the corpus at a subdirectory
	p := newTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.dir, ".railcat.yaml"), []byte("corpus:\n  path: corpus\n"), 0o644))

	// When: running without --corpus
	cmd := NewRootCmd()
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetArgs([]string{"--config-dir", p.dir, "countries"})
	err := cmd.Execute()

	// Then: the configured corpus is loaded
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Germany")
}
