package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/store"
)

// maxIssueDetails bounds the issues listed in verbose output.
const maxIssueDetails = 5

// CheckCorpusPath checks that the corpus path is an existing directory.
func (c *Checker) CheckCorpusPath() CheckResult {
	result := CheckResult{
		Name:     "corpus_path",
		Required: true,
	}

	path := c.config.Corpus.Path
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = StatusFail
		result.Message = "not found: " + path
		result.Details = "set corpus.path in .railcat.yaml or pass --corpus"
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot access %s: %v", path, err)
	case !info.IsDir():
		result.Status = StatusFail
		result.Message = "not a directory: " + path
	default:
		result.Status = StatusPass
		result.Message = path
	}
	return result
}

// CheckCorpus loads the corpus. Files with issues are skipped by every
// command, so issues are a warning; a corpus that cannot be read fails.
func (c *Checker) CheckCorpus(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "corpus",
		Required: true,
	}

	lib, report, err := corpus.Load(ctx, c.config.Corpus.Path, corpus.LoadOptions{
		Extensions: c.config.Corpus.Extensions,
		Workers:    c.config.Build.Workers,
	})
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	result.Message = fmt.Sprintf("%d files, %d documents", report.Files, lib.Len())
	if len(report.Issues) == 0 {
		result.Status = StatusPass
		return result
	}

	result.Status = StatusWarn
	result.Message += fmt.Sprintf(", %d issues", len(report.Issues))
	details := make([]string, 0, maxIssueDetails)
	for i, issue := range report.Issues {
		if i == maxIssueDetails {
			details = append(details, fmt.Sprintf("... and %d more", len(report.Issues)-maxIssueDetails))
			break
		}
		details = append(details, issue.String())
	}
	result.Details = strings.Join(details, "\n      ")
	return result
}

// CheckSnapshot reads an existing snapshot. A missing snapshot is fine;
// an unreadable one is a warning since the next export replaces it.
func (c *Checker) CheckSnapshot(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "snapshot",
		Required: false,
	}

	path := c.config.Snapshot.Path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		result.Status = StatusPass
		result.Message = "none yet"
		result.Details = "run 'railcat export' to write " + path
		return result
	}

	info, err := store.ReadSnapshotInfo(ctx, path)
	if err != nil {
		result.Status = StatusWarn
		result.Message = "unreadable: " + err.Error()
		result.Details = "run 'railcat export' to replace it"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d documents, written %s", info.Total, info.WrittenAt.Format("2006-01-02 15:04"))
	result.Details = path
	return result
}
