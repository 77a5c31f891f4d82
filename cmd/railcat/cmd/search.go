package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/railcat/internal/output"
	"github.com/Aman-CERP/railcat/internal/query"
	"github.com/Aman-CERP/railcat/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	kinds   []string
	noFuzzy bool
	lang    string
	format  string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <name...>",
		Short: "Search documents by name",
		Long: `Search the catalogue for documents whose names start with the
given words. Case, accents and punctuation are ignored. When prefix
matching finds fewer results than the limit, close spellings fill the
rest unless --no-fuzzy is set.`,
		Example: `  railcat search Potsdam
  railcat search berlin anh --kind point --limit 5
  railcat search "Köln Mind" --no-fuzzy --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: search.default_limit)")
	cmd.Flags().StringSliceVarP(&opts.kinds, "kind", "k", nil, "Restrict to kinds: line, organization, path, point, source, structure (repeatable)")
	cmd.Flags().BoolVar(&opts.noFuzzy, "no-fuzzy", false, "Only return names starting with the query")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Display language: en, de")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, text string, opts searchOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	kinds, err := search.ParseKinds(opts.kinds)
	if err != nil {
		return err
	}

	return withQuerier(cmd.Context(), opts.lang, func(q *query.Querier) error {
		hits, err := q.Search(cmd.Context(), text, search.Options{
			Limit: opts.limit,
			Kinds: kinds,
			Fuzzy: !opts.noFuzzy,
		})
		if err != nil {
			return err
		}
		slog.Debug("search_complete", slog.String("query", text), slog.Int("results", len(hits)))

		out := output.New(cmd.OutOrStdout())
		if isJSON(opts.format) {
			if hits == nil {
				hits = []query.Hit{}
			}
			return out.JSON(hits)
		}
		printHits(out, text, hits)
		return nil
	})
}

func printHits(out *output.Writer, text string, hits []query.Hit) {
	if len(hits) == 0 {
		out.Statusf("🔍", "No names found for %q", text)
		return
	}

	out.Header(fmt.Sprintf("%d result(s) for %q", len(hits), text))
	rows := make([][]string, len(hits))
	for i, h := range hits {
		match := fmt.Sprintf("%.2f", h.Score)
		if h.Fuzzy {
			match = "~"
		}
		name := h.Name
		if h.Match != "" && h.Match != h.Name {
			name = fmt.Sprintf("%s (%s)", h.Name, h.Match)
		}
		rows[i] = []string{h.Key, h.Kind, match, name}
	}
	out.Table([]string{"KEY", "KIND", "SCORE", "NAME"}, rows)
}
