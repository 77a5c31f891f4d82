package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/query"
)

func newPointCmd() *cobra.Command {
	var lang, format string

	cmd := &cobra.Command{
		Use:   "point <key>",
		Short: "Show the connections and lines of a point",
		Long: `Show the points directly connected to a point, the lines serving it
and its neighbours, and whether it is a junction.`,
		Example: `  railcat point point.potsdam`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withQuerier(cmd.Context(), lang, func(q *query.Querier) error {
				p, err := q.Point(args[0])
				if err != nil {
					return err
				}
				out := output.New(cmd.OutOrStdout())
				if isJSON(format) {
					return out.JSON(p)
				}

				out.Header(p.Point.Name)
				out.KeyValue(
					[2]string{"Key", p.Point.Key},
					[2]string{"Junction", yesNo(p.Junction)},
				)
				out.Newline()
				out.Header("Connections")
				out.Table([]string{"KEY", "NAME"}, refRows(p.Connections))
				out.Newline()
				out.Header("Lines")
				out.Table([]string{"KEY", "NAME"}, refRows(p.Lines))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Display language: en, de")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}
