package amazonmusic

import (
	"context"
	"encoding/json"
)

const (
	searchEndpoint = "search/v1_1/"
	searchTarget   = "com.amazon.tenzing.v1_1.TenzingServiceExternalV1_1.search"

	searchMaxResults = 30

	queryTypeBoolean = "com.amazon.music.search.model#BooleanQuery"
	queryTypeTerm    = "com.amazon.music.search.model#TermQuery"
	queryTypeExists  = "com.amazon.music.search.model#ExistsQuery"
	queryTypeMatch   = "com.amazon.music.search.model#MatchQuery"
)

var searchFields = []string{"__DEFAULT", "artFull", "fileExtension", "isMusicSubscription", "primeStatus"}

// SearchOptions selects what a search covers.
type SearchOptions struct {
	LibraryOnly bool // Only search the user's library, not the catalog
	Tracks      bool
	Albums      bool
	Playlists   bool
	Artists     bool
	Stations    bool // Catalog only; ignored when LibraryOnly is set
}

// DefaultSearchOptions searches the library and the catalog for every
// result type.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Tracks:    true,
		Albums:    true,
		Playlists: true,
		Artists:   true,
		Stations:  true,
	}
}

// SearchResult is one labelled block of search results, e.g.
// "catalog_albums", in the service's native format.
type SearchResult struct {
	Label  string          `json:"label"`
	Result json.RawMessage `json:"result"`
}

type searchQuery struct {
	Type      string        `json:"__type"`
	FieldName string        `json:"fieldName,omitempty"`
	Term      string        `json:"term,omitempty"`
	Query     string        `json:"query,omitempty"`
	Must      []searchQuery `json:"must,omitempty"`
	Should    []searchQuery `json:"should,omitempty"`
}

type documentSpec struct {
	Type   string   `json:"type"`
	Fields []string `json:"fields"`
}

type resultSpec struct {
	Label         string         `json:"label"`
	DocumentSpecs []documentSpec `json:"documentSpecs"`
	MaxResults    int            `json:"maxResults"`
}

type requestContext struct {
	CustomerInitiated bool `json:"customerInitiated"`
}

type searchRequest struct {
	DeviceID       string         `json:"deviceId"`
	DeviceType     string         `json:"deviceType"`
	MusicTerritory string         `json:"musicTerritory"`
	CustomerID     string         `json:"customerId"`
	LanguageLocale string         `json:"languageLocale"`
	RequestContext requestContext `json:"requestContext"`
	Query          searchQuery    `json:"query"`
	ResultSpecs    []resultSpec   `json:"resultSpecs"`
}

// Search queries the library and, unless opts.LibraryOnly is set, the
// catalog. An empty query matches everything. A nil opts uses
// DefaultSearchOptions.
//
// Results are returned in the service's native format; they are not
// normalized into tracks or albums.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) ([]SearchResult, error) {
	o := DefaultSearchOptions()
	if opts != nil {
		o = *opts
	}

	raw, err := c.Call(ctx, searchEndpoint, searchTarget, c.searchRequest(query, o))
	if err != nil {
		return nil, err
	}

	results, err := parsePayload(raw).items("results")
	if err != nil {
		return nil, err
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		p := payload{r}
		label, err := p.requireString("label")
		if err != nil {
			return nil, err
		}
		out = append(out, SearchResult{Label: label, Result: p.raw()})
	}
	return out, nil
}

// searchRequest builds the Tenzing search document.
func (c *Client) searchRequest(query string, o SearchOptions) searchRequest {
	match := searchQuery{Type: queryTypeExists, FieldName: "asin"}
	if query != "" {
		match = searchQuery{Type: queryTypeMatch, Query: query}
	}

	q := match
	if !o.LibraryOnly {
		// Catalog searches prefer Prime content.
		q = searchQuery{
			Type:   queryTypeBoolean,
			Must:   []searchQuery{match},
			Should: []searchQuery{{Type: queryTypeTerm, FieldName: "primeStatus", Term: "PRIME"}},
		}
	}

	return searchRequest{
		DeviceID:       c.session.DeviceID,
		DeviceType:     c.session.DeviceType,
		MusicTerritory: c.session.Territory,
		CustomerID:     c.session.CustomerID,
		LanguageLocale: c.session.Locale,
		RequestContext: requestContext{CustomerInitiated: true},
		Query:          q,
		ResultSpecs:    searchResultSpecs(o),
	}
}

// searchResultSpecs returns one spec per requested document type: the
// library variant (stations have none) and, unless searching the library
// only, the catalog variant.
func searchResultSpecs(o SearchOptions) []resultSpec {
	kinds := []struct {
		name    string
		enabled bool
	}{
		{"track", o.Tracks},
		{"album", o.Albums},
		{"playlist", o.Playlists},
		{"artist", o.Artists},
		{"station", o.Stations},
	}

	specs := []resultSpec{}
	for _, k := range kinds {
		if !k.enabled {
			continue
		}
		if k.name != "station" {
			specs = append(specs, newResultSpec("library_"+k.name))
		}
		if !o.LibraryOnly {
			specs = append(specs, newResultSpec("catalog_"+k.name))
		}
	}
	return specs
}

func newResultSpec(docType string) resultSpec {
	return resultSpec{
		Label:         docType + "s",
		DocumentSpecs: []documentSpec{{Type: docType, Fields: searchFields}},
		MaxResults:    searchMaxResults,
	}
}
