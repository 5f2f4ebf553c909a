// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/curio/pkg/types"
)

// europeanaAPIBase is the Europeana search endpoint. Declared as a var so
// tests can substitute an httptest server.
var europeanaAPIBase = "https://api.europeana.eu/record/v2/search.json"

// EuropeanaRepository queries the Europeana aggregator. Results are paged
// with start/rows against a reported total, so the source sits in the slow
// tier.
//
// Europeana does not grant cross-origin access, so browser-facing
// deployments point BaseURL at the same-origin relay, which injects the
// API key server-side; APIKey stays empty in that case.
type EuropeanaRepository struct {
	Client    *http.Client
	BaseURL   string
	APIKey    string
	UserAgent string
}

// Name returns the source identifier.
func (r *EuropeanaRepository) Name() string { return "europeana" }

// Tier returns the batching tier.
func (r *EuropeanaRepository) Tier() Tier { return TierSlow }

func (r *EuropeanaRepository) base() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return europeanaAPIBase
}

// Search queries one page of results. Europeana's start parameter is
// 1-based.
func (r *EuropeanaRepository) Search(ctx context.Context, query string, page Page) (*Batch, error) {
	rows := page.Limit
	if rows <= 0 {
		rows = 12
	}
	params := url.Values{
		"query":   {query},
		"rows":    {fmt.Sprintf("%d", rows)},
		"start":   {fmt.Sprintf("%d", page.Offset+1)},
		"profile": {"standard"},
		"media":   {"true"},
	}
	if r.APIKey != "" {
		params.Set("wskey", r.APIKey)
	}

	resp, err := send(ctx, r.Client, r.Name(), r.base()+"?"+params.Encode(), r.UserAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, upstreamError(r.Name(), resp.StatusCode, string(body))
	}

	var er europeanaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, malformedError(r.Name(), err)
	}

	batch := &Batch{Total: er.TotalResults}
	for _, raw := range er.Items {
		if item := normalizeEuropeana(raw); item != nil {
			batch.Items = append(batch.Items, *item)
		}
	}
	return batch, nil
}

// GetRecord fetches a single record by its Europeana ID (e.g.
// "/90402/SK_C_5") through an exact-ID search, which keeps the relay
// surface down to one forwarded endpoint.
func (r *EuropeanaRepository) GetRecord(ctx context.Context, id string) (*types.Item, error) {
	batch, err := r.Search(ctx, fmt.Sprintf("europeana_id:%q", id), Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(batch.Items) == 0 {
		return nil, &SourceError{Source: r.Name(), Kind: KindUpstream, Status: http.StatusNotFound, Err: fmt.Errorf("record %s not found or not renderable", id)}
	}
	item := batch.Items[0]
	return &item, nil
}

// normalizeEuropeana converts one raw record into the unified item shape.
// Returns nil without a preview image or a rights statement. Multilingual
// fields resolve English first, the "def" bucket next, then any language.
func normalizeEuropeana(raw europeanaItem) *types.Item {
	if raw.ID == "" || len(raw.EdmPreview) == 0 || raw.EdmPreview[0] == "" {
		return nil
	}
	if len(raw.Rights) == 0 || raw.Rights[0] == "" {
		return nil
	}

	title := StripMarkup(firstNonEmpty(langFallback(raw.DcTitleLangAware), first(raw.Title)))
	if title == "" {
		title = "Untitled"
	}

	preview := raw.EdmPreview[0]
	item := &types.Item{
		ID:           raw.ID,
		Source:       "europeana",
		Title:        title,
		ThumbnailURL: preview,
		Media: types.Media{
			Thumbnail:    preview,
			PrimaryImage: firstNonEmpty(first(raw.EdmIsShownBy), preview),
			FullImage:    first(raw.EdmIsShownBy),
		},
	}

	if place := first(raw.Country); place != "" {
		item.Location = &types.ItemLocation{Place: place}
	}

	creator := firstNonEmpty(langFallback(raw.DcCreatorLangAware), first(raw.DcCreator))
	if creator != "" {
		item.Creators = append(item.Creators, types.Creator{
			Role:        "creator",
			Names:       []string{creator},
			DisplayText: creator,
		})
	}

	if desc := StripMarkup(langFallback(raw.DcDescriptionLangAware)); desc != "" {
		item.Descriptions = append(item.Descriptions, types.Description{
			Title:   "Description",
			Content: desc,
		})
	}
	if provider := first(raw.DataProvider); provider != "" {
		item.Descriptions = append(item.Descriptions, types.Description{
			Title:   "Provider",
			Content: provider,
		})
	}

	item.Identifiers = append(item.Identifiers, types.Identifier{
		Label:   "Europeana ID",
		Content: raw.ID,
	})
	item.Identifiers = append(item.Identifiers, types.Identifier{
		Label:   "Rights",
		Content: raw.Rights[0],
	})

	if y := first(raw.Year); y != "" {
		if year, err := parseYear(y); err == nil {
			item.Dates.Display = y
			item.FilterDate = &year
		}
	}
	item.Century = types.CenturyOf(item.FilterDate)

	return item
}

// first returns the first element of a string list, or "".
func first(list []string) string {
	if len(list) > 0 {
		return list[0]
	}
	return ""
}

// parseYear parses Europeana's year facet value, which is a signed integer
// rendered as a string.
func parseYear(s string) (int, error) {
	var year int
	if _, err := fmt.Sscanf(s, "%d", &year); err != nil {
		return 0, err
	}
	return year, nil
}

// Europeana API JSON structures.
type europeanaResponse struct {
	Success      bool            `json:"success"`
	TotalResults int             `json:"totalResults"`
	Items        []europeanaItem `json:"items"`
}

type europeanaItem struct {
	ID                     string              `json:"id"`
	Title                  []string            `json:"title"`
	DcTitleLangAware       map[string][]string `json:"dcTitleLangAware"`
	DcCreator              []string            `json:"dcCreator"`
	DcCreatorLangAware     map[string][]string `json:"dcCreatorLangAware"`
	DcDescriptionLangAware map[string][]string `json:"dcDescriptionLangAware"`
	EdmPreview             []string            `json:"edmPreview"`
	EdmIsShownBy           []string            `json:"edmIsShownBy"`
	Rights                 []string            `json:"rights"`
	Year                   []string            `json:"year"`
	Country                []string            `json:"country"`
	DataProvider           []string            `json:"dataProvider"`
}
