package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/railcat/internal/query"
)

func call[Out any](t *testing.T, ts *testServer, tool string, args map[string]any) Out {
	t.Helper()
	out, err := ts.CallTool(context.Background(), tool, args)
	require.NoError(t, err)
	typed, ok := out.(Out)
	require.True(t, ok, "unexpected output type %T", out)
	return typed
}

func callErr(t *testing.T, ts *testServer, tool string, args map[string]any) *MCPError {
	t.Helper()
	_, err := ts.CallTool(context.Background(), tool, args)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	return mcpErr
}

func TestSearchNamesTool_PrefixFirst(t *testing.T) {
	// Given: a catalogue with Potsdam and Berlin Potsdamer Bahnhof
	ts := newTestServer(t)

	// When: searching for Potsdam
	out := call[SearchNamesOutput](t, ts, ToolSearchNames, map[string]any{"query": "Potsdam"})

	// Then: the exact name ranks first
	require.NotEmpty(t, out.Results)
	assert.Equal(t, "Potsdam", out.Query)
	assert.Equal(t, "point.potsdam", out.Results[0].Key)
	assert.False(t, out.Results[0].Fuzzy)
}

func TestSearchNamesTool_KindFilter(t *testing.T) {
	ts := newTestServer(t)

	out := call[SearchNamesOutput](t, ts, ToolSearchNames, map[string]any{
		"query": "Stamm",
		"kinds": []string{"line"},
	})

	require.Len(t, out.Results, 1)
	assert.Equal(t, "line.de.001", out.Results[0].Key)

	none := call[SearchNamesOutput](t, ts, ToolSearchNames, map[string]any{
		"query": "Stamm",
		"kinds": []string{"point"},
		"exact": true,
	})
	assert.Empty(t, none.Results)
}

func TestSearchNamesTool_FuzzyOnlyWhenAllowed(t *testing.T) {
	// Given: a misspelled query
	ts := newTestServer(t)

	// When: searching with and without fuzzy matches
	fuzzy := call[SearchNamesOutput](t, ts, ToolSearchNames, map[string]any{"query": "Potsdan"})
	exact := call[SearchNamesOutput](t, ts, ToolSearchNames, map[string]any{"query": "Potsdan", "exact": true})

	// Then: only the fuzzy search finds the close spelling
	require.NotEmpty(t, fuzzy.Results)
	assert.True(t, fuzzy.Results[0].Fuzzy)
	assert.Empty(t, exact.Results)
}

func TestSearchNamesTool_InvalidParams(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing query", map[string]any{}},
		{"empty query", map[string]any{"query": ""}},
		{"negative limit", map[string]any{"query": "Pots", "limit": -1}},
		{"unknown kind", map[string]any{"query": "Pots", "kinds": []string{"tram"}}},
		{"unknown language", map[string]any{"query": "Pots", "lang": "fr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := callErr(t, ts, ToolSearchNames, tt.args)
			assert.Equal(t, ErrCodeInvalidParams, err.Code)
		})
	}
}

func TestSearchNamesTool_RecordsMisses(t *testing.T) {
	// Given: a search that finds nothing
	ts := newTestServer(t)
	call[SearchNamesOutput](t, ts, ToolSearchNames, map[string]any{"query": "Atlantis", "exact": true})

	// When: reading the statistics
	stats := call[CatalogueStatsOutput](t, ts, ToolCatalogueStats, nil)

	// Then: the miss is reported
	assert.EqualValues(t, 1, stats.Searches)
	assert.EqualValues(t, 1, stats.ZeroResults)
	assert.Equal(t, []string{"Atlantis"}, stats.RecentMisses)
}

func TestListCountriesTool(t *testing.T) {
	ts := newTestServer(t)

	en := call[ListCountriesOutput](t, ts, ToolListCountries, nil)
	de := call[ListCountriesOutput](t, ts, ToolListCountries, map[string]any{"lang": "de"})

	require.Len(t, en.Countries, 1)
	assert.Equal(t, query.Country{Key: "org.de", Name: "Germany", Code: "DE", Lines: 1}, en.Countries[0])
	require.Len(t, de.Countries, 1)
	assert.Equal(t, "Deutschland", de.Countries[0].Name)
}

func TestCountryLinesTool(t *testing.T) {
	ts := newTestServer(t)

	t.Run("lower case code", func(t *testing.T) {
		out := call[query.CountryLines](t, ts, ToolCountryLines, map[string]any{"code": "de"})
		assert.Equal(t, "DE", out.Code)
		require.NotNil(t, out.Organization)
		assert.Equal(t, "org.de", out.Organization.Key)
		require.Len(t, out.Lines, 1)
		assert.Equal(t, "Stammbahn", out.Lines[0].Name)
	})

	t.Run("unknown country", func(t *testing.T) {
		out := call[query.CountryLines](t, ts, ToolCountryLines, map[string]any{"code": "FR"})
		assert.Nil(t, out.Organization)
		assert.Empty(t, out.Lines)
	})

	t.Run("malformed code", func(t *testing.T) {
		err := callErr(t, ts, ToolCountryLines, map[string]any{"code": "Deutschland"})
		assert.Equal(t, ErrCodeInvalidParams, err.Code)
	})
}

func TestOrganizationLinesTool(t *testing.T) {
	ts := newTestServer(t)

	out := call[query.OrganizationLines](t, ts, ToolOrganizationLines, map[string]any{"key": "org.kpev"})

	require.Len(t, out.Property, 1)
	assert.Equal(t, "line.de.001", out.Property[0].Key)
	assert.True(t, out.Property[0].Owned)
	assert.False(t, out.Property[0].Operated)

	err := callErr(t, ts, ToolOrganizationLines, map[string]any{"key": "point.berlin"})
	assert.Equal(t, ErrCodeInvalidParams, err.Code)
}

func TestPointInfoTool(t *testing.T) {
	ts := newTestServer(t)

	out := call[query.Point](t, ts, ToolPointInfo, map[string]any{"key": "point.berlin"})

	assert.Equal(t, "Berlin Potsdamer Bahnhof", out.Point.Name)
	require.Len(t, out.Connections, 1)
	assert.Equal(t, "point.potsdam", out.Connections[0].Key)
	require.Len(t, out.Lines, 1)
	assert.True(t, out.Junction, "Potsdam shares the Stammbahn")
}

func TestPointInfoTool_UnknownKey(t *testing.T) {
	// Given: a key that names no document
	ts := newTestServer(t)

	// When: asking for the point
	err := callErr(t, ts, ToolPointInfo, map[string]any{"key": "point.nowhere"})

	// Then: the error names the key and points to search
	assert.Equal(t, ErrCodeUnknownDocument, err.Code)
	assert.Contains(t, err.Message, "point.nowhere")
	assert.Contains(t, err.Message, "search")
}

func TestSourceRefsTool(t *testing.T) {
	ts := newTestServer(t)

	creator := call[query.Sources](t, ts, ToolSourceRefs, map[string]any{"key": "org.kpev"})
	require.Len(t, creator.Created, 1)
	assert.Equal(t, "source.handbook", creator.Created[0].Key)
	assert.Equal(t, "1901", creator.Created[0].Date)
	assert.True(t, creator.Created[0].Roles.Author)

	line := call[query.Sources](t, ts, ToolSourceRefs, map[string]any{"key": "line.de.001"})
	require.Len(t, line.Regards, 1)
	assert.Equal(t, "Handbuch", line.Regards[0].Name)
}

func TestCatalogueStatsTool(t *testing.T) {
	ts := newTestServer(t)

	out := call[CatalogueStatsOutput](t, ts, ToolCatalogueStats, map[string]any{})

	assert.Equal(t, 6, out.Catalogue.Documents.Total)
	assert.Equal(t, 1, out.Catalogue.Countries)
	assert.Zero(t, out.Reloads)
	assert.Zero(t, out.Searches)

	err := callErr(t, ts, ToolCatalogueStats, map[string]any{"verbose": true})
	assert.Equal(t, ErrCodeInvalidParams, err.Code)
}
