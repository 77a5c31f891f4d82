package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/preflight"
)

// doctorReport is the JSON output of the doctor command.
type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func newDoctorCmd() *cobra.Command {
	var verbose, jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the corpus and the snapshot location",
		Long: `Run diagnostics before building or serving the catalogue.

Checks:
  - Corpus path exists and is a directory
  - Corpus loads (files with issues are reported as warnings)
  - Snapshot directory is writable
  - Disk space (20MB minimum)
  - File descriptor limit (watch mode)
  - Existing snapshot is readable

Use --verbose to list corpus issues.`,
		Example: `  railcat doctor
  railcat doctor --verbose
  railcat doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			checker := preflight.New(cfg,
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()))
			results := checker.RunAll(ctx)

			if jsonOutput {
				err = output.New(cmd.OutOrStdout()).JSON(doctorReport{
					Status: checker.SummaryStatus(results),
					Checks: results,
				})
				if err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return railerr.New(railerr.ErrCodeInvalidInput, "system check failed", nil).
					WithSuggestion("fix the failed checks above and run 'railcat doctor' again")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
