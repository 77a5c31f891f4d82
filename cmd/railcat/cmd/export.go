package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/config"
	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/state"
	"github.com/Aman-CERP/railcat/internal/store"
	"github.com/Aman-CERP/railcat/internal/ui"
)

func newExportCmd() *cobra.Command {
	var (
		plain  bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Build the catalogue and write it to a SQLite snapshot",
		Long: `Load the corpus, build the catalogue and write every index to a
SQLite file. The snapshot is written next to the target and renamed into
place, so readers never see a partial file.

The default path is snapshot.path from the configuration
(.railcat/catalogue.db in the project root).`,
		Example: `  railcat export
  railcat export ./dist/catalogue.db --plain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			// Ctrl+C cancels the build and removes the partial file.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := cfg.Snapshot.Path
			if len(args) == 1 {
				if path, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			}
			return runExport(ctx, cmd, cfg, path, plain || isJSON(format), format)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Plain progress output (no TUI)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path string, plain bool, format string) error {
	start := time.Now()

	// JSON output keeps stdout clean; progress goes to stderr.
	progressOut := cmd.OutOrStdout()
	if isJSON(format) {
		progressOut = cmd.ErrOrStderr()
	}
	renderer := ui.NewRenderer(ui.Config{
		Output:     progressOut,
		ForcePlain: plain,
		Title:      cfg.Corpus.Path,
	})
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	snap, err := buildSnapshot(ctx, cfg, func(stage state.Stage, done, total int) {
		renderer.UpdateProgress(ui.ProgressEvent{Stage: uiStage(stage), Current: done, Total: total})
	})
	if err != nil {
		return err
	}
	defer func() { _ = snap.Search.Close() }()

	for _, issue := range snap.Report.Issues {
		renderer.AddError(ui.ErrorEvent{File: issue.File, Err: errors.New(issueMessage(issue.Key, issue.Message)), IsWarn: true})
	}

	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageExporting, Current: 0, Total: 1, Message: "Writing " + path})
	info, err := store.WriteSnapshot(ctx, path, snap.Catalogue, snap.Library)
	if err != nil {
		return err
	}
	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageExporting, Current: 1, Total: 1})

	renderer.Complete(ui.CompletionStats{
		Files:     snap.Report.Files,
		Documents: info.Total,
		Issues:    len(snap.Report.Issues),
		Duration:  time.Since(start),
		Path:      info.Path,
	})

	if isJSON(format) {
		return output.New(cmd.OutOrStdout()).JSON(info)
	}
	return nil
}

func uiStage(s state.Stage) ui.Stage {
	switch s {
	case state.StageLoad:
		return ui.StageLoading
	case state.StageBuild:
		return ui.StageBuilding
	default:
		return ui.StageIndexing
	}
}

func issueMessage(key, msg string) string {
	if key == "" {
		return msg
	}
	return key + ": " + msg
}
