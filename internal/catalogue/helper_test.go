package catalogue

import (
	"context"
	"iter"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/lang"
)

// libraryFixture assembles a Library from documents whose kind follows
// from the key prefix ("org.", "line.", "point.", ...).
type libraryFixture struct {
	t *testing.T
	b *corpus.LibraryBuilder
}

func newLibraryFixture(t *testing.T) *libraryFixture {
	t.Helper()
	return &libraryFixture{t: t, b: corpus.NewLibraryBuilder()}
}

func kindOf(key string) corpus.Kind {
	prefix, _, _ := strings.Cut(key, ".")
	k, _ := corpus.ParseKind(prefix)
	return k
}

func (f *libraryFixture) ref(key string) corpus.Link {
	f.t.Helper()
	l, err := f.b.Reserve(key, kindOf(key))
	require.NoError(f.t, err)
	return l
}

func (f *libraryFixture) refs(keys ...string) []corpus.Link {
	f.t.Helper()
	out := make([]corpus.Link, len(keys))
	for i, k := range keys {
		out[i] = f.ref(k)
	}
	return out
}

func (f *libraryFixture) add(doc *corpus.Document) corpus.Link {
	f.t.Helper()
	doc.Kind = kindOf(doc.Key)
	link := f.ref(doc.Key)
	require.NoError(f.t, f.b.Set(link, doc))
	return link
}

func (f *libraryFixture) country(key, en, de string) {
	f.add(&corpus.Document{
		Key:   key,
		Names: []string{en},
		Organization: &corpus.OrganizationInfo{
			Subtype:    corpus.SubtypeCountry,
			ShortNames: map[lang.Lang]string{lang.En: en, lang.De: de},
		},
	})
}

func (f *libraryFixture) company(key, name string) {
	f.add(&corpus.Document{Key: key, Names: []string{name}, Organization: &corpus.OrganizationInfo{}})
}

func (f *libraryFixture) line(key string, points []string, events ...corpus.Event) {
	f.add(&corpus.Document{
		Key:    key,
		Events: events,
		Line:   &corpus.LineInfo{Points: f.refs(points...)},
	})
}

func (f *libraryFixture) point(key, name string, connections ...string) {
	doc := &corpus.Document{Key: key, Names: []string{name}}
	if len(connections) > 0 {
		doc.Events = []corpus.Event{{Name: name}, {Connection: f.refs(connections...)}}
	}
	f.add(doc)
}

func (f *libraryFixture) finish() *corpus.Library {
	return f.b.Finish()
}

// railwayFixture is a small corpus exercising every index:
//
//	point.a --- point.b --- point.c      point.d
//	line.de.002: a, b    line.de.001: b    line.de.003: a
//	line.at.001: c       line.fr.001: d (no org.fr)
func railwayFixture(t *testing.T) *corpus.Library {
	t.Helper()
	f := newLibraryFixture(t)

	f.country("org.de", "Germany", "Deutschland")
	f.country("org.at", "Austria", "Österreich")
	f.country("org.ch", "Switzerland", "Schweiz")
	f.company("org.kpev", "Königlich Preußische Eisenbahn-Verwaltung")
	f.company("org.ber", "Berliner Eisenbahn")

	f.point("point.a", "Anhalter Bahnhof")
	f.point("point.b", "Bahnhof Zoo", "point.a")
	f.point("point.c", "Müller", "point.b", "point.c")
	f.point("point.d", "Muller")

	owner := f.refs("org.kpev")
	f.line("line.de.002", []string{"point.a", "point.b"},
		corpus.Event{Date: corpus.EventDate{Year: 1840}, Name: "Stammbahn", Owner: owner},
		corpus.Event{Date: corpus.EventDate{Year: 1880}, Operator: f.refs("org.ber")},
	)
	f.line("line.de.001", []string{"point.b"},
		corpus.Event{Owner: owner, Operator: owner},
		corpus.Event{Concession: &corpus.Concession{To: f.refs("org.ber")}},
	)
	f.line("line.de.003", []string{"point.a"})
	f.line("line.at.001", []string{"point.c"})
	f.line("line.fr.001", []string{"point.d"})

	f.add(&corpus.Document{
		Key:   "source.s1",
		Names: []string{"Handbuch der Eisenbahnen"},
		Source: &corpus.SourceInfo{
			Date:       corpus.EventDate{Year: 1901},
			Author:     owner,
			Editor:     owner,
			Publisher:  f.refs("org.ber"),
			Collection: f.ref("source.series"),
			Also:       f.refs("source.s2"),
			Regards:    f.refs("line.de.001"),
		},
	})
	f.add(&corpus.Document{
		Key:   "source.s2",
		Names: []string{"Chronik"},
		Source: &corpus.SourceInfo{
			Date:       corpus.EventDate{Year: 1880, Month: 5},
			Author:     owner,
			Collection: f.ref("source.series"),
			Regards:    f.refs("line.de.001"),
		},
	})
	f.add(&corpus.Document{
		Key:    "source.s3",
		Names:  []string{"Undated notes"},
		Source: &corpus.SourceInfo{Author: owner},
	})
	f.add(&corpus.Document{Key: "source.series", Names: []string{"Schriftenreihe"}, Source: &corpus.SourceInfo{}})
	f.add(&corpus.Document{Key: "structure.bridge", Names: []string{"Brücke"}})

	return f.finish()
}

func buildCatalogue(t *testing.T, store corpus.Store, opts ...Option) *Catalogue {
	t.Helper()
	cat, err := Build(context.Background(), store, opts...)
	require.NoError(t, err)
	require.NotNil(t, cat)
	return cat
}

func link(t *testing.T, store corpus.Store, key string) corpus.Link {
	t.Helper()
	l, ok := store.Get(key)
	require.True(t, ok, "no document %q", key)
	return l
}

func keys(store corpus.Store, links []corpus.Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = keyOf(store, l)
	}
	return out
}

// reversedStore enumerates the same documents in reverse order.
type reversedStore struct {
	*corpus.Library
}

func (s reversedStore) Links() iter.Seq[corpus.Link] {
	links := slices.Collect(s.Library.Links())
	slices.Reverse(links)
	return slices.Values(links)
}
