package mcp

import (
	"context"

	"github.com/Aman-CERP/railcat/internal/query"
	"github.com/Aman-CERP/railcat/internal/search"
	"github.com/Aman-CERP/railcat/internal/telemetry"
)

// Tool names.
const (
	ToolSearchNames       = "search_names"
	ToolListCountries     = "list_countries"
	ToolCountryLines      = "country_lines"
	ToolOrganizationLines = "organization_lines"
	ToolPointInfo         = "point_info"
	ToolSourceRefs        = "source_refs"
	ToolCatalogueStats    = "catalogue_stats"
)

// SearchNamesInput defines the input schema for the search_names tool.
type SearchNamesInput struct {
	Query string   `json:"query" jsonschema:"name or beginning of a name, e.g. Potsdam or Berlin Anh"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Kinds []string `json:"kinds,omitempty" jsonschema:"restrict to document kinds: line, organization, path, point, source, structure"`
	Exact bool     `json:"exact,omitempty" jsonschema:"only return names starting with the query, no fuzzy matches"`
	Lang  string   `json:"lang,omitempty" jsonschema:"display language: en (default) or de"`
}

// SearchNamesOutput defines the output schema for the search_names tool.
type SearchNamesOutput struct {
	Query   string      `json:"query"`
	Results []query.Hit `json:"results" jsonschema:"matching names, prefix matches first"`
}

// ListCountriesInput defines the input schema for the list_countries tool.
type ListCountriesInput struct {
	Lang string `json:"lang,omitempty" jsonschema:"display and sort language: en (default) or de"`
}

// ListCountriesOutput defines the output schema for the list_countries tool.
type ListCountriesOutput struct {
	Countries []query.Country `json:"countries"`
}

// CountryLinesInput defines the input schema for the country_lines tool.
type CountryLinesInput struct {
	Code string `json:"code" jsonschema:"two-letter country code, e.g. DE"`
	Lang string `json:"lang,omitempty" jsonschema:"display language: en (default) or de"`
}

// DocumentInput defines the input schema of the tools that take a
// document key.
type DocumentInput struct {
	Key  string `json:"key" jsonschema:"document key, e.g. point.potsdam or org.kpev"`
	Lang string `json:"lang,omitempty" jsonschema:"display language: en (default) or de"`
}

// CatalogueStatsInput defines the input schema for the catalogue_stats tool (no parameters).
type CatalogueStatsInput struct{}

// CatalogueStatsOutput defines the output schema for the catalogue_stats tool.
type CatalogueStatsOutput struct {
	Catalogue     query.Stats           `json:"catalogue"`
	Reloads       uint64                `json:"reloads"`
	FailedReloads uint64                `json:"failed_reloads"`
	Searches      int64                 `json:"searches"`
	ZeroResults   int64                 `json:"zero_results"`
	TopTerms      []telemetry.TermCount `json:"top_terms,omitempty"`
	RecentMisses  []string              `json:"recent_misses,omitempty" jsonschema:"recent searches that found nothing"`
}

func (s *Server) querier(lang string) (*query.Querier, error) {
	snap := s.state.Current()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return query.New(snap, lang)
}

func (s *Server) searchNames(ctx context.Context, in SearchNamesInput) (SearchNamesOutput, error) {
	if in.Query == "" {
		return SearchNamesOutput{}, NewInvalidParamsError("query parameter is required")
	}
	if in.Limit < 0 {
		return SearchNamesOutput{}, NewInvalidParamsError("limit must not be negative")
	}
	kinds, err := search.ParseKinds(in.Kinds)
	if err != nil {
		return SearchNamesOutput{}, NewInvalidParamsError(err.Error())
	}
	q, err := s.querier(in.Lang)
	if err != nil {
		return SearchNamesOutput{}, err
	}

	hits, err := q.Search(ctx, in.Query, search.Options{
		Limit: in.Limit,
		Kinds: kinds,
		Fuzzy: !in.Exact,
	})
	if err != nil {
		return SearchNamesOutput{}, err
	}
	s.metrics.RecordSearch(in.Query, len(hits))
	return SearchNamesOutput{Query: in.Query, Results: hits}, nil
}

func (s *Server) listCountries(_ context.Context, in ListCountriesInput) (ListCountriesOutput, error) {
	q, err := s.querier(in.Lang)
	if err != nil {
		return ListCountriesOutput{}, err
	}
	countries := q.Countries()
	if countries == nil {
		countries = []query.Country{}
	}
	return ListCountriesOutput{Countries: countries}, nil
}

func (s *Server) countryLines(_ context.Context, in CountryLinesInput) (query.CountryLines, error) {
	q, err := s.querier(in.Lang)
	if err != nil {
		return query.CountryLines{}, err
	}
	return q.CountryLines(in.Code)
}

func (s *Server) organizationLines(_ context.Context, in DocumentInput) (query.OrganizationLines, error) {
	q, err := s.querier(in.Lang)
	if err != nil {
		return query.OrganizationLines{}, err
	}
	return q.OrganizationLines(in.Key)
}

func (s *Server) pointInfo(_ context.Context, in DocumentInput) (query.Point, error) {
	q, err := s.querier(in.Lang)
	if err != nil {
		return query.Point{}, err
	}
	return q.Point(in.Key)
}

func (s *Server) sourceRefs(_ context.Context, in DocumentInput) (query.Sources, error) {
	q, err := s.querier(in.Lang)
	if err != nil {
		return query.Sources{}, err
	}
	return q.Sources(in.Key)
}

func (s *Server) catalogueStats(_ context.Context, _ CatalogueStatsInput) (CatalogueStatsOutput, error) {
	q, err := s.querier("")
	if err != nil {
		return CatalogueStatsOutput{}, err
	}
	reloads, failed := s.state.Stats()
	queries := s.metrics.Queries(10)
	return CatalogueStatsOutput{
		Catalogue:     q.Stats(),
		Reloads:       reloads,
		FailedReloads: failed,
		Searches:      queries.Searches,
		ZeroResults:   queries.ZeroResults,
		TopTerms:      queries.TopTerms,
		RecentMisses:  queries.ZeroResultQueries,
	}, nil
}
