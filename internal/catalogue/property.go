package catalogue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Aman-CERP/railcat/internal/corpus"
)

// PropertyLine records what an organization was to a line at any point of
// the line's history. A line it only held a concession for has neither
// flag set.
type PropertyLine struct {
	Line     corpus.Link
	Owned    bool
	Operated bool
}

type propertyLinesBuilder struct {
	byOrg *shardedMap[corpus.Link, []PropertyLine]
}

func newPropertyLinesBuilder() *propertyLinesBuilder {
	return &propertyLinesBuilder{byOrg: newShardedMap[corpus.Link, []PropertyLine]()}
}

func (b *propertyLinesBuilder) insert(doc *corpus.Document, link corpus.Link) {
	if _, ok := doc.AsLine(); !ok {
		return
	}

	// Collapse the whole history into one record per organization.
	var order []corpus.Link
	records := make(map[corpus.Link]*PropertyLine)
	record := func(org corpus.Link) *PropertyLine {
		r, ok := records[org]
		if !ok {
			r = &PropertyLine{Line: link}
			records[org] = r
			order = append(order, org)
		}
		return r
	}

	for _, ev := range doc.Events {
		for _, org := range ev.Owner {
			record(org).Owned = true
		}
		for _, org := range ev.Operator {
			record(org).Operated = true
		}
		if ev.Concession != nil {
			for _, org := range ev.Concession.To {
				record(org)
			}
		}
	}

	for _, org := range order {
		r := *records[org]
		b.byOrg.update(org, func(lines []PropertyLine) []PropertyLine {
			return append(lines, r)
		})
	}
}

func (b *propertyLinesBuilder) finalize(store corpus.Store) *PropertyLines {
	byOrg := b.byOrg.drain()
	for _, lines := range byOrg {
		keys := make([]string, len(lines))
		for i, pl := range lines {
			keys[i] = keyOf(store, pl.Line)
		}
		idx := make([]int, len(lines))
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			return cmp.Or(strings.Compare(keys[a], keys[b]), lines[a].Line.Compare(lines[b].Line))
		})
		sorted := make([]PropertyLine, len(lines))
		for i, j := range idx {
			sorted[i] = lines[j]
		}
		copy(lines, sorted)
	}
	return &PropertyLines{byOrg: byOrg}
}

// PropertyLines lists, per organization, the lines it owned, operated or
// held a concession for.
type PropertyLines struct {
	byOrg map[corpus.Link][]PropertyLine
}

// ByLink returns the organization's lines sorted by line key.
func (pl *PropertyLines) ByLink(org corpus.Link) []PropertyLine {
	return pl.byOrg[org]
}

// Orgs returns every organization with at least one property line.
func (pl *PropertyLines) Orgs() []corpus.Link {
	return sortedKeys(pl.byOrg)
}
