// Package query answers lookups against one catalogue snapshot and shapes
// the answers into plain views shared by the CLI and the MCP server.
package query

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/corpus"
	railerr "github.com/Aman-CERP/railcat/internal/errors"
	"github.com/Aman-CERP/railcat/internal/lang"
	"github.com/Aman-CERP/railcat/internal/search"
	"github.com/Aman-CERP/railcat/internal/state"
)

// Querier answers lookups in one language against one snapshot.
type Querier struct {
	snap *state.Snapshot
	lang lang.Lang
}

// New returns a Querier over snap. An empty code selects the default
// language.
func New(snap *state.Snapshot, code string) (*Querier, error) {
	if snap == nil {
		return nil, railerr.InternalError("no catalogue loaded", nil)
	}
	l := lang.Default
	if code != "" {
		parsed, err := lang.Parse(code)
		if err != nil {
			return nil, railerr.New(railerr.ErrCodeInvalidLanguage, err.Error(), nil).
				WithDetail("lang", code)
		}
		l = parsed
	}
	return &Querier{snap: snap, lang: l}, nil
}

func (q *Querier) store() corpus.Store {
	return q.snap.Library
}

func (q *Querier) cat() *catalogue.Catalogue {
	return q.snap.Catalogue
}

// Ref describes link, or reports false for a dangling link.
func (q *Querier) Ref(link corpus.Link) (Ref, bool) {
	doc := q.store().Resolve(link)
	if doc == nil {
		return Ref{}, false
	}
	return Ref{Key: doc.Key, Kind: doc.Kind.String(), Name: doc.DisplayName(q.lang)}, true
}

func (q *Querier) refs(links []corpus.Link) []Ref {
	out := make([]Ref, 0, len(links))
	for _, l := range links {
		if r, ok := q.Ref(l); ok {
			out = append(out, r)
		}
	}
	return out
}

func (q *Querier) datedRefs(items []catalogue.DatedSource) []DatedRef {
	out := make([]DatedRef, 0, len(items))
	for _, item := range items {
		if r, ok := q.Ref(item.Source); ok {
			out = append(out, DatedRef{Key: r.Key, Name: r.Name, Date: item.Date.String()})
		}
	}
	return out
}

// Lookup resolves key and checks it is one of kinds. No kinds accepts any.
func (q *Querier) Lookup(key string, kinds ...corpus.Kind) (corpus.Link, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return corpus.Link{}, railerr.ValidationError("document key is required", nil)
	}
	link, ok := q.store().Get(key)
	if !ok || q.store().Resolve(link) == nil {
		return corpus.Link{}, railerr.New(railerr.ErrCodeUnknownDocument, "no document with this key", nil).
			WithDetail("key", key).
			WithSuggestion("Use search to find the key of a document by name")
	}
	if len(kinds) > 0 && !slices.Contains(kinds, link.Kind()) {
		want := make([]string, len(kinds))
		for i, k := range kinds {
			want[i] = k.String()
		}
		return corpus.Link{}, railerr.New(railerr.ErrCodeWrongKind, "document has the wrong kind", nil).
			WithDetail("key", key).
			WithDetail("kind", link.Kind().String()).
			WithDetail("expected", strings.Join(want, ","))
	}
	return link, nil
}

// Search runs a name search and resolves the hits.
func (q *Querier) Search(ctx context.Context, text string, opts search.Options) ([]Hit, error) {
	results, err := q.snap.Search.Search(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		ref, ok := q.Ref(r.Link)
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			Key:   ref.Key,
			Kind:  ref.Kind,
			Name:  ref.Name,
			Match: r.Name,
			Score: r.Score,
			Fuzzy: r.Fuzzy,
		})
	}
	return hits, nil
}

// Countries lists the country organizations in localized order.
func (q *Querier) Countries() []Country {
	cl := q.cat().CountryLines
	codes := make(map[corpus.Link]string)
	for _, code := range cl.Codes() {
		if org, ok := cl.Organization(code); ok {
			codes[org] = code
		}
	}

	var out []Country
	for link := range q.cat().Countries.Iter(q.lang) {
		ref, ok := q.Ref(link)
		if !ok {
			continue
		}
		out = append(out, Country{Key: ref.Key, Name: ref.Name, Code: codes[link], Lines: len(cl.ByLink(link))})
	}
	return out
}

// CountryLines lists the lines of the country with the given code.
func (q *Querier) CountryLines(code string) (CountryLines, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return CountryLines{}, railerr.ValidationError("country code must have two letters", nil).
			WithDetail("code", code)
	}
	cl := q.cat().CountryLines
	out := CountryLines{Code: code, Lines: q.refs(cl.ByCode(code))}
	if org, ok := cl.Organization(code); ok {
		if ref, ok := q.Ref(org); ok {
			out.Organization = &ref
		}
	}
	return out, nil
}

// OrganizationLines lists the lines of a country organization and the
// lines an organization owned, operated or held a concession for.
func (q *Querier) OrganizationLines(key string) (OrganizationLines, error) {
	org, err := q.Lookup(key, corpus.KindOrganization)
	if err != nil {
		return OrganizationLines{}, err
	}
	ref, _ := q.Ref(org)
	out := OrganizationLines{
		Organization: ref,
		Country:      q.refs(q.cat().CountryLines.ByLink(org)),
	}
	for _, pl := range q.cat().PropertyLines.ByLink(org) {
		r, ok := q.Ref(pl.Line)
		if !ok {
			continue
		}
		out.Property = append(out.Property, OwnedLine{Key: r.Key, Name: r.Name, Owned: pl.Owned, Operated: pl.Operated})
	}
	return out, nil
}

// Point describes a point's connections and the lines serving it.
func (q *Querier) Point(key string) (Point, error) {
	link, err := q.Lookup(key, corpus.KindPoint)
	if err != nil {
		return Point{}, err
	}
	ref, _ := q.Ref(link)
	pc := q.cat().Points
	conns, _ := pc.Connections(link)
	return Point{
		Point:       ref,
		Junction:    pc.IsJunction(link),
		Connections: q.refs(conns),
		Lines:       q.refs(slices.Compact(slices.Clone(pc.Lines(link)))),
	}, nil
}

// Sources lists every bibliographic reference that involves key.
func (q *Querier) Sources(key string) (Sources, error) {
	link, err := q.Lookup(key)
	if err != nil {
		return Sources{}, err
	}
	ref, _ := q.Ref(link)
	sr := q.cat().Sources

	out := Sources{
		Document: ref,
		Items:    q.datedRefs(sr.CollectionItems(link)),
		Also:     q.refs(sr.Also(link)),
		Regards:  q.datedRefs(sr.Regards(link)),
	}
	for _, c := range sr.Creators(link) {
		r, ok := q.Ref(c.Source)
		if !ok {
			continue
		}
		out.Created = append(out.Created, CreatedSource{Key: r.Key, Name: r.Name, Date: c.Date.String(), Roles: c.Roles})
	}
	return out, nil
}

// Stats summarizes the snapshot.
func (q *Querier) Stats() Stats {
	cat := q.cat()
	engine := q.snap.Search.Stats()

	junctions := 0
	for _, p := range cat.Points.ServedPoints() {
		if cat.Points.IsJunction(p) {
			junctions++
		}
	}

	stats := Stats{
		Documents: cat.Numbers,
		Terms:     engine.Terms,
		Fuzzy:     engine.FuzzyEntries,
		Cached:    engine.CachedQueries,
		Countries: len(cat.Countries.List(q.lang)),
		Junctions: junctions,
		LoadedAt:  q.snap.LoadedAt.UTC().Format(time.RFC3339),
		Timing:    q.snap.Timing,
	}
	if r := q.snap.Report; r != nil {
		stats.Files = r.Files
		stats.Issues = len(r.Issues)
	}
	return stats
}
