package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/railcat/internal/state"
	"github.com/Aman-CERP/railcat/internal/store"
	"github.com/Aman-CERP/railcat/internal/ui"
)

func TestExportCmd_WritesSnapshot(t *testing.T) {
	// Given: the test corpus and an explicit target path
	p := newTestProject(t)
	target := filepath.Join(p.dir, "dist", "catalogue.db")

	// When: exporting with plain progress
	out, err := p.run(t, "export", target, "--plain")
	require.NoError(t, err)

	// Then: progress is reported and the snapshot is readable
	assert.Contains(t, out, "[LOAD] Loading...")
	assert.Contains(t, out, "[BUILD] Building...")
	assert.Contains(t, out, "[EXPORT] Writing "+target)
	assert.Contains(t, out, "Complete: 1 files, 6 documents")
	assert.Contains(t, out, "Snapshot: "+target)

	info, err := store.ReadSnapshotInfo(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 6, info.Total)
	assert.Equal(t, 2, info.Documents["point"])
}

func TestExportCmd_DefaultPath_FromConfig(t *testing.T) {
	p := newTestProject(t)

	_, err := p.run(t, "export", "--plain")

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(p.dir, ".railcat", "catalogue.db"))
}

func TestExportCmd_JSON_KeepsStdoutClean(t *testing.T) {
	p := newTestProject(t)
	target := filepath.Join(p.dir, "catalogue.db")

	out, err := p.run(t, "export", target, "--format", "json")
	require.NoError(t, err)

	var info store.SnapshotInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, target, info.Path)
	assert.Equal(t, 6, info.Total)
}

func TestExportCmd_CorpusIssues_AreWarnings(t *testing.T) {
	// Given: a corpus file with a dangling reference
	p := newTestProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.corpus, "broken.yaml"), []byte(`
key: point.wannsee
type: point
name: Wannsee
events:
  - connection: [point.nowhere]
`), 0o644))

	// When: exporting
	out, err := p.run(t, "export", filepath.Join(p.dir, "catalogue.db"), "--plain")

	// Then: the export succeeds and reports the issue
	require.NoError(t, err)
	assert.Contains(t, out, "WARN: ")
	assert.Contains(t, out, `point.wannsee: unknown reference "point.nowhere"`)
	assert.Contains(t, out, "(1 issues)")
}

func TestUIStage(t *testing.T) {
	assert.Equal(t, ui.StageLoading, uiStage(state.StageLoad))
	assert.Equal(t, ui.StageBuilding, uiStage(state.StageBuild))
	assert.Equal(t, ui.StageIndexing, uiStage(state.StageIndex))
}
