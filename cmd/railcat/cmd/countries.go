package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/query"
)

func newCountriesCmd() *cobra.Command {
	var lang, format string

	cmd := &cobra.Command{
		Use:   "countries",
		Short: "List the countries of the catalogue",
		Long: `List the country organizations with their two-letter codes and the
number of lines each one has, sorted by name in the chosen language.`,
		Example: `  railcat countries
  railcat countries --lang de`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withQuerier(cmd.Context(), lang, func(q *query.Querier) error {
				out := output.New(cmd.OutOrStdout())
				countries := q.Countries()
				if isJSON(format) {
					if countries == nil {
						countries = []query.Country{}
					}
					return out.JSON(countries)
				}

				rows := make([][]string, len(countries))
				for i, c := range countries {
					rows[i] = []string{c.Code, c.Name, strconv.Itoa(c.Lines), c.Key}
				}
				out.Table([]string{"CODE", "NAME", "LINES", "KEY"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Display and sort language: en, de")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}
