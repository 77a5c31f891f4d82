package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/railcat/internal/config"
)

const validCorpus = `
key: point.berlin
type: point
name: Berlin
---
key: point.potsdam
type: point
name: Potsdam
events:
  - connection: [point.berlin]
`

// testConfig returns a configuration whose corpus holds content and whose
// snapshot lives in a fresh directory.
func testConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "corpus")
	require.NoError(t, os.Mkdir(corpusDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "points.yaml"), []byte(content), 0o644))

	cfg := config.NewConfig()
	cfg.Corpus.Path = corpusDir
	cfg.Build.Workers = 2
	cfg.Snapshot.Path = filepath.Join(dir, ".railcat", "catalogue.db")
	return cfg
}

func resultsByName(results []CheckResult) map[string]CheckResult {
	byName := make(map[string]CheckResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	return byName
}

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_MarshalJSON_LowerCaseStatus(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "corpus", Status: StatusWarn})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"warn"`)
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{"required pass is not critical", CheckResult{Status: StatusPass, Required: true}, false},
		{"required fail is critical", CheckResult{Status: StatusFail, Required: true}, true},
		{"optional fail is not critical", CheckResult{Status: StatusFail, Required: false}, false},
		{"required warn is not critical", CheckResult{Status: StatusWarn, Required: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestChecker_New_NilConfig_UsesDefaults(t *testing.T) {
	checker := New(nil)

	require.NotNil(t, checker.config)
	assert.Equal(t, ".", checker.config.Corpus.Path)
	assert.False(t, checker.verbose)
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New(nil)

	tests := []struct {
		name    string
		results []CheckResult
		want    string
	}{
		{"all pass", []CheckResult{{Status: StatusPass, Required: true}}, "ready"},
		{"warning", []CheckResult{{Status: StatusPass, Required: true}, {Status: StatusWarn}}, "ready_with_warnings"},
		{"optional failure", []CheckResult{{Status: StatusFail}}, "ready_with_warnings"},
		{"required failure", []CheckResult{{Status: StatusWarn}, {Status: StatusFail, Required: true}}, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.SummaryStatus(tt.results))
			assert.Equal(t, tt.want == "failed", checker.HasCriticalFailures(tt.results))
		})
	}
}

func TestChecker_RunAll_ValidCorpus_Ready(t *testing.T) {
	// Given: a valid corpus and no snapshot yet
	cfg := testConfig(t, validCorpus)

	// When: running all checks
	checker := New(cfg)
	results := checker.RunAll(context.Background())

	// Then: every check is present and none fails
	byName := resultsByName(results)
	for _, name := range []string{"corpus_path", "corpus", "write_permissions", "disk_space", "file_descriptors", "snapshot"} {
		assert.Contains(t, byName, name)
	}
	assert.Equal(t, "1 files, 2 documents", byName["corpus"].Message)
	assert.Equal(t, "none yet", byName["snapshot"].Message)
	assert.False(t, checker.HasCriticalFailures(results))
}

func TestChecker_RunAll_MissingCorpus_Fails(t *testing.T) {
	// Given: a corpus path that does not exist
	cfg := config.NewConfig()
	cfg.Corpus.Path = filepath.Join(t.TempDir(), "missing")
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "catalogue.db")

	// When: running all checks
	checker := New(cfg)
	results := checker.RunAll(context.Background())

	// Then: the path check fails and the corpus is not loaded
	byName := resultsByName(results)
	assert.Equal(t, StatusFail, byName["corpus_path"].Status)
	assert.Contains(t, byName["corpus_path"].Message, "not found")
	assert.NotContains(t, byName, "corpus")
	assert.True(t, checker.HasCriticalFailures(results))
}

func TestChecker_CheckCorpusPath_File_Fails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(file, []byte(validCorpus), 0o644))
	cfg := config.NewConfig()
	cfg.Corpus.Path = file

	result := New(cfg).CheckCorpusPath()

	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "not a directory")
}

func TestChecker_CheckCorpus_Issues_Warns(t *testing.T) {
	// Given: a corpus with a duplicate key and a dangling reference
	cfg := testConfig(t, validCorpus+`
---
key: point.berlin
type: point
name: Berlin again
---
key: point.wannsee
type: point
name: Wannsee
events:
  - connection: [point.nowhere]
`)

	// When: checking the corpus
	result := New(cfg).CheckCorpus(context.Background())

	// Then: the corpus loads with a warning listing the issues
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "2 issues")
	assert.Contains(t, result.Details, "duplicate key")
	assert.Contains(t, result.Details, "point.nowhere")
	assert.False(t, result.IsCritical())
}

func TestChecker_CheckWritePermissions_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".railcat")

	result := New(nil).CheckWritePermissions(dir)

	assert.Equal(t, StatusPass, result.Status)
	assert.DirExists(t, dir)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")
}

func TestChecker_CheckWritePermissions_ReadOnly(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("Skipping read-only test when running as root")
	}

	readOnlyDir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(readOnlyDir, 0o555))
	defer func() { _ = os.Chmod(readOnlyDir, 0o755) }()

	result := New(nil).CheckWritePermissions(readOnlyDir)

	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "permission denied")
}

func TestChecker_CheckDiskSpace_TempDir(t *testing.T) {
	cfg := testConfig(t, validCorpus)

	result := New(cfg).CheckDiskSpace(t.TempDir())

	assert.Equal(t, "disk_space", result.Name)
	assert.True(t, result.Required)
	assert.Contains(t, result.Message, "free (need 20 MiB)")
	assert.Empty(t, result.Details)
}

func TestChecker_CheckDiskSpace_MissingDirUsesParent(t *testing.T) {
	// Given: a snapshot directory that does not exist yet
	parent := t.TempDir()
	dir := filepath.Join(parent, "a", "b")

	// When: checking its disk space
	result := New(testConfig(t, validCorpus)).CheckDiskSpace(dir)

	// Then: the closest existing parent is measured
	assert.NotEqual(t, StatusFail, result.Status, result.Message)
	assert.Equal(t, "measured at "+parent, result.Details)
}

func TestRequiredSpace(t *testing.T) {
	dir := t.TempDir()

	t.Run("no snapshot", func(t *testing.T) {
		assert.Equal(t, uint64(MinDiskSpaceBytes), requiredSpace(filepath.Join(dir, "missing.db")))
	})

	t.Run("small snapshot", func(t *testing.T) {
		path := filepath.Join(dir, "small.db")
		require.NoError(t, os.WriteFile(path, []byte("sqlite"), 0o644))
		assert.Equal(t, uint64(MinDiskSpaceBytes), requiredSpace(path))
	})

	t.Run("large snapshot counts twice", func(t *testing.T) {
		path := filepath.Join(dir, "large.db")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, f.Truncate(16<<20))
		require.NoError(t, f.Close())

		assert.Equal(t, uint64(32<<20), requiredSpace(path))
	})

	t.Run("directory is ignored", func(t *testing.T) {
		assert.Equal(t, uint64(MinDiskSpaceBytes), requiredSpace(dir))
	})
}

func TestExistingAncestor(t *testing.T) {
	dir := t.TempDir()

	got, err := existingAncestor(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	got, err = existingAncestor(filepath.Join(dir, "x", "y", "z"))
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestChecker_CheckFileDescriptors_NeverCritical(t *testing.T) {
	result := New(nil).CheckFileDescriptors()

	assert.NotEqual(t, StatusFail, result.Status)
	assert.False(t, result.Required)
}

func TestChecker_CheckSnapshot_Corrupt_Warns(t *testing.T) {
	// Given: a snapshot path holding a file that is not a snapshot
	cfg := testConfig(t, validCorpus)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Snapshot.Path), 0o755))
	require.NoError(t, os.WriteFile(cfg.Snapshot.Path, []byte("not sqlite"), 0o644))

	// When: checking the snapshot
	result := New(cfg).CheckSnapshot(context.Background())

	// Then: it is a warning, not a failure
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "unreadable")
}

func TestChecker_PrintResults(t *testing.T) {
	results := []CheckResult{
		{Name: "corpus", Status: StatusWarn, Message: "3 files, 10 documents, 1 issues", Details: "a.yaml: duplicate key"},
		{Name: "disk_space", Status: StatusPass, Message: "50.0 GB free"},
		{Name: "corpus_path", Status: StatusFail, Message: "not found: /x", Required: true},
	}

	buf := &bytes.Buffer{}
	New(nil, WithOutput(buf), WithVerbose(true)).PrintResults(results)

	out := buf.String()
	assert.Contains(t, out, "[WARN] corpus: 3 files, 10 documents, 1 issues\n      a.yaml: duplicate key\n")
	assert.Contains(t, out, "[PASS] disk_space")
	assert.Contains(t, out, "Status: FAILED")
	assert.Contains(t, out, "1 error(s):\n  - corpus_path: not found: /x\n")
	assert.Contains(t, out, "1 warning(s):\n  - corpus: 3 files, 10 documents, 1 issues\n")
}
