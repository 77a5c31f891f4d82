package catalogue

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Aman-CERP/railcat/internal/corpus"
)

// keyOf returns the key of a linked document, or "" if it is dangling.
func keyOf(store corpus.Store, link corpus.Link) string {
	if doc := store.Resolve(link); doc != nil {
		return doc.Key
	}
	return ""
}

// sortByKey sorts links by their document keys. Each key is resolved once.
func sortByKey(store corpus.Store, links []corpus.Link) {
	if len(links) < 2 {
		return
	}
	keys := make(map[corpus.Link]string, len(links))
	for _, l := range links {
		if _, ok := keys[l]; !ok {
			keys[l] = keyOf(store, l)
		}
	}
	slices.SortStableFunc(links, func(a, b corpus.Link) int {
		return cmp.Or(strings.Compare(keys[a], keys[b]), a.Compare(b))
	})
}

// sortedSet returns the members of set ordered by Link.Compare.
func sortedSet(set map[corpus.Link]struct{}) []corpus.Link {
	out := make([]corpus.Link, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	slices.SortFunc(out, corpus.Link.Compare)
	return out
}

func addToSet(member corpus.Link) func(map[corpus.Link]struct{}) map[corpus.Link]struct{} {
	return func(set map[corpus.Link]struct{}) map[corpus.Link]struct{} {
		if set == nil {
			set = make(map[corpus.Link]struct{})
		}
		set[member] = struct{}{}
		return set
	}
}

func appendLink(link corpus.Link) func([]corpus.Link) []corpus.Link {
	return func(links []corpus.Link) []corpus.Link {
		return append(links, link)
	}
}
