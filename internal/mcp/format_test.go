package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/railcat/internal/query"
)

func TestFormatSearchResults_NoResults(t *testing.T) {
	// Given: a search without hits
	out := SearchNamesOutput{Query: "Atlantis"}

	// When: formatting
	text := FormatSearchResults(out)

	// Then: a graceful message names the query
	assert.Equal(t, `No names found for "Atlantis"`, text)
}

func TestFormatSearchResults_ListsHits(t *testing.T) {
	// Given: a prefix hit and a fuzzy hit
	out := SearchNamesOutput{
		Query: "Potsdam",
		Results: []query.Hit{
			{Key: "point.potsdam", Kind: "point", Name: "Potsdam", Match: "Potsdam", Score: 1},
			{Key: "point.berlin", Kind: "point", Name: "Berlin Potsdamer Bahnhof", Match: "Potsdamer Bahnhof", Fuzzy: true},
		},
	}

	// When: formatting
	text := FormatSearchResults(out)

	// Then: both hits are numbered with their keys
	assert.Contains(t, text, `## Names matching "Potsdam"`)
	assert.Contains(t, text, "Found 2 results")
	assert.Contains(t, text, "1. **Potsdam** `point.potsdam` (point, score: 1.00)")
	assert.Contains(t, text, "2. **Berlin Potsdamer Bahnhof** `point.berlin` (point, close spelling)")
	assert.Contains(t, text, "matched: Potsdamer Bahnhof")
	// The first hit matched its display name, so no extra line.
	assert.Equal(t, 1, strings.Count(text, "matched:"))
}

func TestFormatSearchResults_SingularResult(t *testing.T) {
	out := SearchNamesOutput{
		Query:   "Wien",
		Results: []query.Hit{{Key: "point.wien", Kind: "point", Name: "Wien Westbahnhof", Score: 0.25}},
	}

	text := FormatSearchResults(out)

	assert.Contains(t, text, "Found 1 result\n")
}
