package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/query"
)

func newLinesCmd() *cobra.Command {
	var country, org, lang, format string

	cmd := &cobra.Command{
		Use:   "lines",
		Short: "List the lines of a country or an organization",
		Long: `List railway lines either by country code or by organization.

For an organization, the lines of the country it stands for are listed
first, followed by the lines it owned, operated or held a concession for.`,
		Example: `  railcat lines --country DE
  railcat lines --org org.kpev --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if (country == "") == (org == "") {
				return railerr.ValidationError("exactly one of --country or --org is required", nil)
			}
			return withQuerier(cmd.Context(), lang, func(q *query.Querier) error {
				out := output.New(cmd.OutOrStdout())
				if country != "" {
					lines, err := q.CountryLines(country)
					if err != nil {
						return err
					}
					if isJSON(format) {
						return out.JSON(lines)
					}
					printCountryLines(out, lines)
					return nil
				}

				lines, err := q.OrganizationLines(org)
				if err != nil {
					return err
				}
				if isJSON(format) {
					return out.JSON(lines)
				}
				printOrganizationLines(out, lines)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&country, "country", "c", "", "Two-letter country code")
	cmd.Flags().StringVarP(&org, "org", "o", "", "Organization key")
	cmd.Flags().StringVar(&lang, "lang", "", "Display language: en, de")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func refRows(refs []query.Ref) [][]string {
	rows := make([][]string, len(refs))
	for i, r := range refs {
		rows[i] = []string{r.Key, r.Name}
	}
	return rows
}

func printCountryLines(out *output.Writer, lines query.CountryLines) {
	title := "Lines of " + lines.Code
	if lines.Organization != nil {
		title = fmt.Sprintf("Lines of %s (%s)", lines.Organization.Name, lines.Code)
	}
	out.Header(title)
	out.Table([]string{"KEY", "NAME"}, refRows(lines.Lines))
}

func printOrganizationLines(out *output.Writer, lines query.OrganizationLines) {
	out.Header(fmt.Sprintf("%s (%s)", lines.Organization.Name, lines.Organization.Key))
	if len(lines.Country) > 0 {
		out.Newline()
		out.Header("Country lines")
		out.Table([]string{"KEY", "NAME"}, refRows(lines.Country))
	}

	out.Newline()
	out.Header("Property")
	rows := make([][]string, len(lines.Property))
	for i, l := range lines.Property {
		rows[i] = []string{l.Key, yesNo(l.Owned), yesNo(l.Operated), l.Name}
	}
	out.Table([]string{"KEY", "OWNED", "OPERATED", "NAME"}, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
