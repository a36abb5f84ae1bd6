// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/medical-agent/internal/httputil"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests
// can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"
	pubmedAbstracts   = 3
	pubmedSnippetMax  = 280
	defaultTool       = "medical_agent"
)

// PubMedBackend queries NCBI E-utilities: esearch for PMIDs, esummary for
// titles and journals, efetch for the first few abstracts.
type PubMedBackend struct {
	client *httputil.Client
	apiKey string
	tool   string
}

// NewPubMed returns a PubMed backend. apiKey may be empty.
func NewPubMed(client *httputil.Client, apiKey, tool string) *PubMedBackend {
	if tool == "" {
		tool = defaultTool
	}
	return &PubMedBackend{client: client, apiKey: apiKey, tool: tool}
}

// Name returns the source name.
func (b *PubMedBackend) Name() string { return "PubMed" }

// Normalize trims the query.
func (b *PubMedBackend) Normalize(query string) string { return normalizePubMed(query) }

// Fetch returns the newest articles matching query. Abstracts replace
// title snippets for the first three articles when efetch succeeds.
func (b *PubMedBackend) Fetch(ctx context.Context, query string, limit int) ([]types.EvidenceItem, map[string]any, error) {
	meta := map[string]any{}

	var search esearchResponse
	err := b.client.GetJSON(ctx, pubmedAPIBase+"/esearch.fcgi", b.params(url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(limit)},
		"sort":    {"pub+date"},
	}), &search)
	if err != nil {
		return nil, meta, fmt.Errorf("PubMed esearch: %w", err)
	}
	meta["count"] = search.Result.Count

	pmids := search.Result.IDList
	if len(pmids) == 0 {
		return nil, meta, &noResultsError{msg: "No PubMed articles found for this query"}
	}
	meta["pmids"] = pmids

	items, err := b.summaries(ctx, pmids)
	if err != nil {
		return nil, meta, err
	}
	if len(items) == 0 {
		return nil, meta, fmt.Errorf("PubMed esummary returned no records for %d ids", len(pmids))
	}

	abstracts, err := b.abstracts(ctx, pmids[:min(pubmedAbstracts, len(pmids))])
	if err != nil {
		meta["abstract_error"] = err.Error()
	}
	for i := range items {
		if a := abstracts[items[i].ID]; a != "" {
			items[i].Snippet = a
		}
		items[i].Snippet = truncateRunes(strings.TrimSpace(items[i].Snippet), pubmedSnippetMax)
	}
	return items, meta, nil
}

// params adds the identification parameters every E-utilities call carries.
func (b *PubMedBackend) params(v url.Values) url.Values {
	v.Set("tool", b.tool)
	if b.apiKey != "" {
		v.Set("api_key", b.apiKey)
	}
	return v
}

func (b *PubMedBackend) summaries(ctx context.Context, pmids []string) ([]types.EvidenceItem, error) {
	var resp esummaryResponse
	err := b.client.GetJSON(ctx, pubmedAPIBase+"/esummary.fcgi", b.params(url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}), &resp)
	if err != nil {
		return nil, fmt.Errorf("PubMed esummary: %w", err)
	}

	items := make([]types.EvidenceItem, 0, len(resp.Result.UIDs))
	for _, uid := range resp.Result.UIDs {
		raw, ok := resp.Result.Records[uid]
		if !ok {
			continue
		}
		var rec esummaryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parsing PubMed summary %s: %w", uid, err)
		}
		title := strings.TrimSuffix(strings.TrimSpace(rec.Title), ".")
		if title == "" {
			title = "PubMed article " + uid
		}
		items = append(items, types.EvidenceItem{
			ID:         uid,
			Title:      title,
			Snippet:    title,
			SourceName: rec.FullJournalName,
			Published:  rec.PubDate,
			URL:        pubmedArticleBase + uid + "/",
		})
	}
	return items, nil
}

func (b *PubMedBackend) abstracts(ctx context.Context, pmids []string) (map[string]string, error) {
	body, err := b.client.Get(ctx, pubmedAPIBase+"/efetch.fcgi", b.params(url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}))
	if err != nil {
		return nil, fmt.Errorf("PubMed efetch: %w", err)
	}

	var set efetchArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing PubMed efetch XML: %w", err)
	}

	out := make(map[string]string, len(set.Articles))
	for _, a := range set.Articles {
		pmid := strings.TrimSpace(a.PMID)
		if pmid == "" {
			continue
		}
		var parts []string
		for _, t := range a.AbstractText {
			if s := strings.TrimSpace(t.Text); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			out[pmid] = strings.Join(parts, " ")
		}
	}
	return out, nil
}

// E-utilities JSON structures.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// esummaryResponse mixes a "uids" array with one object per PMID in the
// same JSON object, so records are decoded lazily.
type esummaryResponse struct {
	Result esummaryResult `json:"result"`
}

type esummaryResult struct {
	UIDs    []string
	Records map[string]json.RawMessage
}

func (r *esummaryResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if u, ok := raw["uids"]; ok {
		if err := json.Unmarshal(u, &r.UIDs); err != nil {
			return fmt.Errorf("decoding uids: %w", err)
		}
		delete(raw, "uids")
	}
	r.Records = raw
	return nil
}

type esummaryRecord struct {
	Title           string `json:"title"`
	FullJournalName string `json:"fulljournalname"`
	PubDate         string `json:"pubdate"`
}

// E-utilities efetch XML structures.
type efetchArticleSet struct {
	Articles []efetchArticle `xml:"PubmedArticle"`
}

type efetchArticle struct {
	PMID         string `xml:"MedlineCitation>PMID"`
	AbstractText []struct {
		Text string `xml:",chardata"`
	} `xml:"MedlineCitation>Article>Abstract>AbstractText"`
}
