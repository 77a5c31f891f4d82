package query

import (
	"github.com/Aman-CERP/railcat/internal/catalogue"
	"github.com/Aman-CERP/railcat/internal/state"
)

// Ref identifies a document in a query result.
type Ref struct {
	Key  string `json:"key" jsonschema:"document key"`
	Kind string `json:"kind" jsonschema:"document kind: line, organization, path, point, source or structure"`
	Name string `json:"name" jsonschema:"display name in the requested language"`
}

// Hit is one search result.
type Hit struct {
	Key   string  `json:"key" jsonschema:"document key"`
	Kind  string  `json:"kind" jsonschema:"document kind"`
	Name  string  `json:"name" jsonschema:"display name in the requested language"`
	Match string  `json:"match" jsonschema:"the name that matched the query"`
	Score float64 `json:"score" jsonschema:"match score between 0 and 1"`
	Fuzzy bool    `json:"fuzzy,omitempty" jsonschema:"true if the name matched only approximately"`
}

// Country is a country organization with its code.
type Country struct {
	Key   string `json:"key" jsonschema:"key of the country organization"`
	Name  string `json:"name" jsonschema:"short name in the requested language"`
	Code  string `json:"code,omitempty" jsonschema:"two-letter country code"`
	Lines int    `json:"lines" jsonschema:"number of lines in the country"`
}

// CountryLines lists the lines of one country.
type CountryLines struct {
	Code         string `json:"code"`
	Organization *Ref   `json:"organization,omitempty"`
	Lines        []Ref  `json:"lines"`
}

// OwnedLine is a line together with what an organization was to it.
type OwnedLine struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Owned    bool   `json:"owned"`
	Operated bool   `json:"operated"`
}

// OrganizationLines lists the lines an organization is connected to.
type OrganizationLines struct {
	Organization Ref         `json:"organization"`
	Country      []Ref       `json:"country_lines"`
	Property     []OwnedLine `json:"property_lines"`
}

// Point describes the connections of one point.
type Point struct {
	Point       Ref   `json:"point"`
	Junction    bool  `json:"junction"`
	Connections []Ref `json:"connections"`
	Lines       []Ref `json:"lines" jsonschema:"distinct lines serving the point or its neighbours"`
}

// CreatedSource is a source an organization helped create.
type CreatedSource struct {
	Key   string          `json:"key"`
	Name  string          `json:"name"`
	Date  string          `json:"date,omitempty"`
	Roles catalogue.Roles `json:"roles"`
}

// DatedRef is a source with its date.
type DatedRef struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Date string `json:"date,omitempty"`
}

// Sources lists the bibliographic references of one document.
type Sources struct {
	Document Ref             `json:"document"`
	Created  []CreatedSource `json:"created,omitempty"`
	Items    []DatedRef      `json:"items,omitempty"`
	Also     []Ref           `json:"also,omitempty"`
	Regards  []DatedRef      `json:"regarded_by,omitempty"`
}

// Stats summarizes a snapshot.
type Stats struct {
	Documents catalogue.DocumentNumbers `json:"documents"`
	Terms     int                       `json:"name_terms"`
	Fuzzy     int                       `json:"fuzzy_entries"`
	Cached    int                       `json:"cached_queries"`
	Countries int                       `json:"countries"`
	Junctions int                       `json:"junctions"`
	Files     int                       `json:"files"`
	Issues    int                       `json:"issues"`
	LoadedAt  string                    `json:"loaded_at"`
	Timing    state.Timing              `json:"timing_ns"`
}
