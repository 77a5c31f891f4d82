package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/query"
)

func newSourcesCmd() *cobra.Command {
	var lang, format string

	cmd := &cobra.Command{
		Use:   "sources <key>",
		Short: "Show the bibliographic references of a document",
		Long: `Show the sources related to a document: sources an organization
created, items of a collection, related sources and the sources that
regard the document.`,
		Example: `  railcat sources org.kpev
  railcat sources line.de.001 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withQuerier(cmd.Context(), lang, func(q *query.Querier) error {
				s, err := q.Sources(args[0])
				if err != nil {
					return err
				}
				out := output.New(cmd.OutOrStdout())
				if isJSON(format) {
					return out.JSON(s)
				}
				printSources(out, s)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Display language: en, de")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func printSources(out *output.Writer, s query.Sources) {
	out.Header(s.Document.Name + " (" + s.Document.Key + ")")

	if len(s.Created) > 0 {
		out.Newline()
		out.Header("Created")
		rows := make([][]string, len(s.Created))
		for i, c := range s.Created {
			rows[i] = []string{c.Key, dash(c.Date), roleNames(c.Roles), c.Name}
		}
		out.Table([]string{"KEY", "DATE", "ROLES", "NAME"}, rows)
	}
	printDated(out, "Collection items", s.Items)
	if len(s.Also) > 0 {
		out.Newline()
		out.Header("See also")
		out.Table([]string{"KEY", "NAME"}, refRows(s.Also))
	}
	printDated(out, "Regarded by", s.Regards)

	if len(s.Created)+len(s.Items)+len(s.Also)+len(s.Regards) == 0 {
		out.Dim("No references.")
	}
}

func printDated(out *output.Writer, title string, refs []query.DatedRef) {
	if len(refs) == 0 {
		return
	}
	out.Newline()
	out.Header(title)
	rows := make([][]string, len(refs))
	for i, r := range refs {
		rows[i] = []string{r.Key, dash(r.Date), r.Name}
	}
	out.Table([]string{"KEY", "DATE", "NAME"}, rows)
}

func roleNames(r catalogue.Roles) string {
	var names []string
	if r.Author {
		names = append(names, "author")
	}
	if r.Editor {
		names = append(names, "editor")
	}
	if r.Organization {
		names = append(names, "organization")
	}
	if r.Publisher {
		names = append(names, "publisher")
	}
	return strings.Join(names, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
