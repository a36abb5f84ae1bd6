// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/medical-agent/internal/httputil"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// wikipediaAPIBase is the Wikipedia REST API root. Declared as a var so
// tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/api/rest_v1"

// wikipediaPageBase builds article links when the summary endpoint fails.
var wikipediaPageBase = "https://en.wikipedia.org/wiki/"

// WikipediaBackend queries the Wikipedia REST API: a title search, then
// the summary and related pages of the best hit.
type WikipediaBackend struct {
	client *httputil.Client
}

// NewWikipedia returns a Wikipedia backend using client for transport.
func NewWikipedia(client *httputil.Client) *WikipediaBackend {
	return &WikipediaBackend{client: client}
}

// Name returns the source name.
func (b *WikipediaBackend) Name() string { return "Wikipedia" }

// Normalize canonicalizes a query for title search.
func (b *WikipediaBackend) Normalize(query string) string { return normalizeWikipedia(query) }

// Fetch searches for query and expands the top hit. A failed summary or
// related lookup degrades the result instead of failing it; the reason
// is recorded in the returned diagnostics.
func (b *WikipediaBackend) Fetch(ctx context.Context, query string, limit int) ([]types.EvidenceItem, map[string]any, error) {
	meta := map[string]any{}

	var search wikiSearchResponse
	err := b.client.GetJSON(ctx,
		wikipediaAPIBase+"/page/search/"+url.PathEscape(query),
		url.Values{"limit": {strconv.Itoa(limit)}},
		&search,
	)
	if err != nil {
		return nil, meta, fmt.Errorf("Wikipedia search: %w", err)
	}
	meta["search_hits"] = len(search.Pages)
	if len(search.Pages) == 0 {
		return nil, meta, &noResultsError{msg: "No Wikipedia pages found for this query"}
	}

	hit := search.Pages[0]
	primary := types.EvidenceItem{
		ID:         firstNonEmpty(hit.Key, hit.Title),
		Title:      hit.Title,
		Snippet:    hit.Description,
		SourceName: hit.Description,
		URL:        wikipediaPageBase + url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")),
	}

	var summary wikiPage
	if err := b.client.GetJSON(ctx, wikipediaAPIBase+"/page/summary/"+url.PathEscape(hit.Title), nil, &summary); err != nil {
		meta["summary_error"] = err.Error()
	} else {
		primary.Title = firstNonEmpty(summary.Title, primary.Title)
		primary.Snippet = firstNonEmpty(summary.Extract, primary.Snippet)
		primary.SourceName = firstNonEmpty(summary.Description, primary.SourceName)
		primary.URL = firstNonEmpty(summary.ContentURLs.Desktop.Page, primary.URL)
		primary.Published = summary.Timestamp
	}

	items := []types.EvidenceItem{primary}

	var related wikiSearchResponse
	err = b.client.GetJSON(ctx,
		wikipediaAPIBase+"/page/related/"+url.PathEscape(hit.Title),
		url.Values{"limit": {strconv.Itoa(limit)}},
		&related,
	)
	if err != nil {
		meta["related_error"] = err.Error()
		return items, meta, nil
	}
	for _, p := range related.Pages {
		if len(items) >= limit {
			break
		}
		items = append(items, types.EvidenceItem{
			ID:         firstNonEmpty(p.Key, p.Title),
			Title:      p.Title,
			Snippet:    firstNonEmpty(p.Extract, p.Description),
			SourceName: p.Description,
			URL:        p.ContentURLs.Desktop.Page,
		})
	}
	meta["related_count"] = len(items) - 1
	return items, meta, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Wikipedia REST API JSON structures.
type wikiSearchResponse struct {
	Pages []wikiPage `json:"pages"`
}

type wikiPage struct {
	Key         string          `json:"key"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Extract     string          `json:"extract"`
	Timestamp   string          `json:"timestamp"`
	ContentURLs wikiContentURLs `json:"content_urls"`
}

type wikiContentURLs struct {
	Desktop struct {
		Page string `json:"page"`
	} `json:"desktop"`
}
