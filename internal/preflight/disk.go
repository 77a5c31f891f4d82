package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
)

// MinDiskSpaceBytes is the least free space a snapshot write needs (20 MiB).
const MinDiskSpaceBytes = 20 * 1024 * 1024

// CheckDiskSpace checks that the filesystem holding dir can take a new
// snapshot. Until the rename, the temp file sits beside the old snapshot,
// so an existing snapshot counts twice.
func (c *Checker) CheckDiskSpace(dir string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: true,
	}

	probe, err := existingAncestor(dir)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(probe, &stat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	free := stat.Bavail * uint64(stat.Bsize)
	need := requiredSpace(c.config.Snapshot.Path)
	result.Message = fmt.Sprintf("%s free (need %s)", humanize.IBytes(free), humanize.IBytes(need))
	if probe != dir {
		result.Details = "measured at " + probe
	}

	if free < need {
		result.Status = StatusFail
		return result
	}
	result.Status = StatusPass
	return result
}

// requiredSpace returns the free space needed to rewrite the snapshot at path.
func requiredSpace(path string) uint64 {
	need := uint64(MinDiskSpaceBytes)
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		need = max(need, 2*uint64(info.Size()))
	}
	return need
}

// existingAncestor returns dir or its closest parent that exists.
func existingAncestor(dir string) (string, error) {
	for {
		_, err := os.Stat(dir)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing directory above %s", dir)
		}
		dir = parent
	}
}
