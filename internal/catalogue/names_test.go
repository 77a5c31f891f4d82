package catalogue

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixEnd(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   []byte
	}{
		{name: "empty", prefix: []byte{}, want: nil},
		{name: "ascii", prefix: []byte("mul"), want: []byte("mum")},
		{name: "trailing 0xff", prefix: []byte{'a', 0xff}, want: []byte("b")},
		{name: "all 0xff", prefix: []byte{0xff, 0xff}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, prefixEnd(tt.prefix))
		})
	}
}

func TestNameIndex_Search(t *testing.T) {
	lib := railwayFixture(t)
	cat := buildCatalogue(t, lib)

	t.Run("keys are searchable", func(t *testing.T) {
		got := cat.Names.Search("line.de", 10)
		var names []string
		for _, e := range got {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"line.de.001", "line.de.002", "line.de.003"}, names)
	})

	t.Run("punctuation and case are ignored", func(t *testing.T) {
		got := cat.Names.Search("BAHNHOF-z", 10)
		require.Len(t, got, 1)
		assert.Equal(t, "Bahnhof Zoo", got[0].Name)
	})

	t.Run("event names are indexed", func(t *testing.T) {
		got := cat.Names.Search("stamm", 10)
		require.Len(t, got, 1)
		assert.Equal(t, link(t, lib, "line.de.002"), got[0].Link)
	})

	t.Run("count limits results", func(t *testing.T) {
		assert.Len(t, cat.Names.Search("point", 2), 2)
		assert.Len(t, cat.Names.Search("point", 100), 4)
		assert.Nil(t, cat.Names.Search("point", 0))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, cat.Names.Search("zzz", 10))
	})

	t.Run("prefix terms carry the matched term", func(t *testing.T) {
		var terms []string
		for term, entries := range cat.Names.PrefixTerms("Line.DE") {
			terms = append(terms, term)
			assert.NotEmpty(t, entries)
		}
		assert.Equal(t, []string{"linede001", "linede002", "linede003"}, terms)
	})

	t.Run("empty prefix matches everything", func(t *testing.T) {
		all := slices.Collect(cat.Names.Prefix(""))
		total := 0
		for _, entries := range cat.Names.Buckets() {
			total += len(entries)
		}
		assert.Len(t, all, total)
		assert.Greater(t, cat.Names.Len(), 0)
	})
}

func TestNameIndex_EmptyIndex(t *testing.T) {
	b := newNameIndexBuilder()

	idx, err := b.finalize()

	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search("a", 10))
	assert.Empty(t, slices.Collect(idx.Prefix("")))
}

func TestNameIndex_PunctuationOnlyName(t *testing.T) {
	// Given: a name with no letters or digits next to a regular one
	f := newLibraryFixture(t)
	dash, bridge := f.ref("structure.dash"), f.ref("structure.bridge")
	b := newNameIndexBuilder()
	b.add("***", dash)
	b.add("Brücke", bridge)

	// When: freezing the index
	idx, err := b.finalize()
	require.NoError(t, err)

	// Then: it sits under the empty term and only an empty prefix finds it
	terms := map[string][]NameEntry{}
	for term, entries := range idx.Buckets() {
		terms[term] = entries
	}
	assert.Equal(t, []NameEntry{{Name: "***", Link: dash}}, terms[""])
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []NameEntry{{Name: "***", Link: dash}, {Name: "Brücke", Link: bridge}}, idx.Search("", 10))
	assert.Equal(t, []NameEntry{{Name: "Brücke", Link: bridge}}, idx.Search("bru", 10))
}
