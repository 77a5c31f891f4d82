// Package preflight runs the diagnostics behind 'railcat doctor'.
//
// The checks cover the corpus (the directory exists and every file
// parses), the snapshot location (writable, with enough free space),
// an existing snapshot (readable), and the file descriptor limit that
// watch mode depends on.
//
//	checker := preflight.New(cfg)
//	results := checker.RunAll(ctx)
//	if checker.HasCriticalFailures(results) {
//	    // refuse to export
//	}
package preflight
