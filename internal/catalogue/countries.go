package catalogue

import (
	"cmp"
	"iter"
	"slices"
	"strings"

	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/lang"
)

type countryIndexBuilder struct {
	lists *shardedMap[lang.Lang, []corpus.Link]
}

func newCountryIndexBuilder() *countryIndexBuilder {
	return &countryIndexBuilder{lists: newShardedMap[lang.Lang, []corpus.Link]()}
}

func (b *countryIndexBuilder) insert(doc *corpus.Document, link corpus.Link) {
	org, ok := doc.AsOrganization()
	if !ok || org.Subtype != corpus.SubtypeCountry {
		return
	}
	for _, l := range lang.All() {
		b.lists.update(l, appendLink(link))
	}
}

// finalize sorts every language's list by the localized short name and
// makes sure each language has a list, even an empty one.
func (b *countryIndexBuilder) finalize(store corpus.Store) *CountryIndex {
	m := b.lists.drain()
	idx := &CountryIndex{byLang: make(map[lang.Lang][]corpus.Link, len(lang.All()))}

	for _, l := range lang.All() {
		list := m[l]
		type named struct {
			link corpus.Link
			name string
			key  string
		}
		rows := make([]named, len(list))
		for i, link := range list {
			doc := store.Resolve(link)
			rows[i] = named{link: link, name: doc.ShortName(l), key: keyOf(store, link)}
		}
		slices.SortStableFunc(rows, func(a, b named) int {
			return cmp.Or(strings.Compare(a.name, b.name), strings.Compare(a.key, b.key))
		})

		sorted := make([]corpus.Link, len(rows))
		for i, r := range rows {
			sorted[i] = r.link
		}
		idx.byLang[l] = sorted
	}
	return idx
}

// CountryIndex lists country organizations ordered by their short name in
// each language.
type CountryIndex struct {
	byLang map[lang.Lang][]corpus.Link
}

// Iter yields the countries in l's order.
func (idx *CountryIndex) Iter(l lang.Lang) iter.Seq[corpus.Link] {
	return slices.Values(idx.byLang[l])
}

// List returns the countries in l's order.
func (idx *CountryIndex) List(l lang.Lang) []corpus.Link {
	return idx.byLang[l]
}

// orgLookup memoizes the organization for one country code. A miss is
// remembered too.
type orgLookup struct {
	org      corpus.Link
	found    bool
	resolved bool
}

type countryLinesBuilder struct {
	store corpus.Store
	codes *shardedMap[string, orgLookup]
	lines *shardedMap[corpus.Link, []corpus.Link]
}

func newCountryLinesBuilder(store corpus.Store) *countryLinesBuilder {
	return &countryLinesBuilder{
		store: store,
		codes: newShardedMap[string, orgLookup](),
		lines: newShardedMap[corpus.Link, []corpus.Link](),
	}
}

func (b *countryLinesBuilder) insert(doc *corpus.Document, link corpus.Link) {
	code, ok := doc.Country()
	if !ok {
		return
	}
	org, ok := b.organization(code)
	if !ok {
		return
	}
	b.lines.update(org, appendLink(link))
}

// organization resolves the organization standing for a country code.
// Lookups only read the store, so running them under the shard lock is
// safe and resolves each code once.
func (b *countryLinesBuilder) organization(code string) (corpus.Link, bool) {
	var result orgLookup
	b.codes.update(code, func(cur orgLookup) orgLookup {
		if !cur.resolved {
			cur.resolved = true
			link, ok := b.store.Get(corpus.CountryOrgKey(code))
			if ok && link.Kind() == corpus.KindOrganization {
				cur.org, cur.found = link, true
			}
		}
		result = cur
		return cur
	})
	return result.org, result.found
}

func (b *countryLinesBuilder) finalize(store corpus.Store) *CountryLines {
	codes := b.codes.drain()
	lines := b.lines.drain()

	cl := &CountryLines{
		byCode: make(map[string]corpus.Link, len(codes)),
		byOrg:  lines,
	}
	for code, lookup := range codes {
		if lookup.found {
			cl.byCode[code] = lookup.org
		}
	}
	for _, links := range lines {
		sortByKey(store, links)
	}
	return cl
}

// CountryLines groups lines under the organization that represents their
// country.
type CountryLines struct {
	byCode map[string]corpus.Link
	byOrg  map[corpus.Link][]corpus.Link
}

// ByLink returns the lines of a country organization sorted by key.
func (cl *CountryLines) ByLink(org corpus.Link) []corpus.Link {
	return cl.byOrg[org]
}

// ByCode returns the lines of the organization for a country code. The code
// is case-insensitive; an unknown code gives an empty result.
func (cl *CountryLines) ByCode(code string) []corpus.Link {
	org, ok := cl.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil
	}
	return cl.byOrg[org]
}

// Organization returns the organization a country code resolved to.
func (cl *CountryLines) Organization(code string) (corpus.Link, bool) {
	org, ok := cl.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return org, ok
}

// Codes returns the country codes that resolved to an organization, sorted.
func (cl *CountryLines) Codes() []string {
	out := make([]string, 0, len(cl.byCode))
	for code := range cl.byCode {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// Orgs returns every organization with at least one line.
func (cl *CountryLines) Orgs() []corpus.Link {
	return sortedKeys(cl.byOrg)
}
