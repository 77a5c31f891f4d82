package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/railcat/internal/query"
)

// FormatSearchResults formats name search hits as markdown.
func FormatSearchResults(out SearchNamesOutput) string {
	if len(out.Results) == 0 {
		return fmt.Sprintf("No names found for \"%s\"", out.Query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Names matching \"%s\"\n\n", out.Query)
	fmt.Fprintf(&sb, "Found %d result", len(out.Results))
	if len(out.Results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, h := range out.Results {
		formatHit(&sb, i+1, h)
	}
	return sb.String()
}

// formatHit formats a single hit as a numbered line.
func formatHit(sb *strings.Builder, num int, h query.Hit) {
	fmt.Fprintf(sb, "%d. **%s** `%s` (%s", num, h.Name, h.Key, h.Kind)
	if h.Fuzzy {
		sb.WriteString(", close spelling")
	} else {
		fmt.Fprintf(sb, ", score: %.2f", h.Score)
	}
	sb.WriteString(")")
	if h.Match != "" && h.Match != h.Name {
		fmt.Fprintf(sb, "\n   matched: %s", h.Match)
	}
	sb.WriteString("\n")
}
