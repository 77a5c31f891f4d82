package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/corpus"
	"github.com/Aman-CERP/railcat/internal/lang"
)

// testCorpus builds a small library and its catalogue.
func testCorpus(t *testing.T) (*corpus.Library, *catalogue.Catalogue) {
	t.Helper()
	b := corpus.NewLibraryBuilder()
	ref := func(key string, kind corpus.Kind) corpus.Link {
		l, err := b.Reserve(key, kind)
		require.NoError(t, err)
		return l
	}
	add := func(doc *corpus.Document) {
		_, err := b.Add(doc)
		require.NoError(t, err)
	}

	add(&corpus.Document{
		Key: "org.de", Kind: corpus.KindOrganization, Names: []string{"Deutsches Reich"},
		Organization: &corpus.OrganizationInfo{
			Subtype:    corpus.SubtypeCountry,
			ShortNames: map[lang.Lang]string{lang.En: "Germany", lang.De: "Deutschland"},
		},
	})
	kpev := ref("org.kpev", corpus.KindOrganization)
	add(&corpus.Document{Key: "org.kpev", Kind: corpus.KindOrganization, Names: []string{"Preußische Staatseisenbahnen"}, Organization: &corpus.OrganizationInfo{}})

	berlin := ref("point.berlin", corpus.KindPoint)
	potsdam := ref("point.potsdam", corpus.KindPoint)
	add(&corpus.Document{Key: "point.berlin", Kind: corpus.KindPoint, Names: []string{"Berlin Potsdamer Bahnhof"}})
	add(&corpus.Document{
		Key: "point.potsdam", Kind: corpus.KindPoint, Names: []string{"Potsdam"},
		Events: []corpus.Event{{Connection: []corpus.Link{berlin}}},
	})
	add(&corpus.Document{Key: "point.koeln", Kind: corpus.KindPoint, Names: []string{"Köln Hauptbahnhof"}})
	add(&corpus.Document{
		Key: "line.de.001", Kind: corpus.KindLine, Names: []string{"Stammbahn"},
		Line:   &corpus.LineInfo{Points: []corpus.Link{berlin, potsdam}},
		Events: []corpus.Event{{Owner: []corpus.Link{kpev}}},
	})

	reprint := ref("source.reprint", corpus.KindSource)
	add(&corpus.Document{
		Key: "source.handbook", Kind: corpus.KindSource, Names: []string{"Handbuch"},
		Source: &corpus.SourceInfo{Date: corpus.EventDate{Year: 1901}, Author: []corpus.Link{kpev}, Also: []corpus.Link{reprint}},
	})
	add(&corpus.Document{Key: "source.reprint", Kind: corpus.KindSource, Names: []string{"Reprint"}, Source: &corpus.SourceInfo{}})

	lib := b.Finish()
	cat, err := catalogue.Build(context.Background(), lib, catalogue.WithWorkers(2))
	require.NoError(t, err)
	return lib, cat
}
