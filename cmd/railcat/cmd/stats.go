package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/query"
)

func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Build the catalogue and show its statistics",
		Long: `Load the corpus, build the catalogue and print the number of
documents per kind, the size of the search indices and how long each
build stage took.`,
		Example: `  railcat stats
  railcat stats --corpus ./data --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withQuerier(cmd.Context(), "", func(q *query.Querier) error {
				return printStats(output.New(cmd.OutOrStdout()), q.Stats(), format)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func printStats(out *output.Writer, stats query.Stats, format string) error {
	if isJSON(format) {
		return out.JSON(stats)
	}

	out.Header("Documents")
	rows := make([][]string, 0, len(corpus.Kinds())+1)
	for _, kind := range corpus.Kinds() {
		rows = append(rows, []string{kind.String(), strconv.Itoa(stats.Documents.ByKind(kind))})
	}
	rows = append(rows, []string{"total", strconv.Itoa(stats.Documents.Total)})
	out.Table([]string{"KIND", "COUNT"}, rows)
	out.Newline()

	out.Header("Catalogue")
	out.KeyValue(
		[2]string{"Countries", strconv.Itoa(stats.Countries)},
		[2]string{"Junctions", strconv.Itoa(stats.Junctions)},
		[2]string{"Name terms", strconv.Itoa(stats.Terms)},
		[2]string{"Fuzzy entries", strconv.Itoa(stats.Fuzzy)},
	)
	out.Newline()

	out.Header("Build")
	out.KeyValue(
		[2]string{"Files", strconv.Itoa(stats.Files)},
		[2]string{"Issues", strconv.Itoa(stats.Issues)},
		[2]string{"Load", stats.Timing.Load.String()},
		[2]string{"Build", stats.Timing.Build.String()},
		[2]string{"Index", stats.Timing.Index.String()},
		[2]string{"Loaded at", stats.LoadedAt},
	)
	if stats.Issues > 0 {
		out.Newline()
		out.Warning(fmt.Sprintf("%d corpus issues; run 'railcat doctor --verbose' for details", stats.Issues))
	}
	return nil
}
