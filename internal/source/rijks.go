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

// rijksAPIBase is the Rijksmuseum English collection endpoint. Declared as
// a var so tests can substitute an httptest server.
var rijksAPIBase = "https://www.rijksmuseum.nl/api/en/collection"

// RijksRepository queries the Rijksmuseum collection API. Pages come back
// in one round trip with images inline, so it sits in the fast tier.
type RijksRepository struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the source identifier.
func (r *RijksRepository) Name() string { return "rijks" }

// Tier returns the batching tier.
func (r *RijksRepository) Tier() Tier { return TierFast }

// Search queries the collection endpoint for one page. imgonly narrows the
// result set to records the renderability rule could accept.
func (r *RijksRepository) Search(ctx context.Context, query string, page Page) (*Batch, error) {
	ps := page.Limit
	if ps <= 0 {
		ps = 10
	}
	params := url.Values{
		"key":     {r.APIKey},
		"q":       {query},
		"ps":      {fmt.Sprintf("%d", ps)},
		"p":       {fmt.Sprintf("%d", page.Offset/ps)},
		"imgonly": {"true"},
	}

	resp, err := send(ctx, r.Client, r.Name(), rijksAPIBase+"?"+params.Encode(), r.UserAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, upstreamError(r.Name(), resp.StatusCode, string(body))
	}

	var rr rijksResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, malformedError(r.Name(), err)
	}

	batch := &Batch{Total: rr.Count}
	for _, raw := range rr.ArtObjects {
		if item := normalizeRijks(raw); item != nil {
			batch.Items = append(batch.Items, *item)
		}
	}
	return batch, nil
}

// GetRecord fetches a single object by its object number (e.g. "SK-C-5").
func (r *RijksRepository) GetRecord(ctx context.Context, id string) (*types.Item, error) {
	params := url.Values{"key": {r.APIKey}}

	resp, err := send(ctx, r.Client, r.Name(), rijksAPIBase+"/"+url.PathEscape(id)+"?"+params.Encode(), r.UserAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, upstreamError(r.Name(), resp.StatusCode, string(body))
	}

	var rr rijksRecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, malformedError(r.Name(), err)
	}

	item := normalizeRijksDetail(rr.ArtObject)
	if item == nil {
		return nil, &SourceError{Source: r.Name(), Kind: KindMalformed, Err: fmt.Errorf("record %s is not renderable", id)}
	}
	return item, nil
}

// normalizeRijks converts one raw search hit into the unified item shape.
// Returns nil without a web image or download permission.
func normalizeRijks(raw rijksArtObject) *types.Item {
	if raw.ObjectNumber == "" || raw.WebImage.URL == "" || !raw.PermitDownload {
		return nil
	}

	item := &types.Item{
		ID:           raw.ObjectNumber,
		Source:       "rijks",
		Title:        StripMarkup(firstNonEmpty(raw.Title, raw.LongTitle)),
		ThumbnailURL: raw.WebImage.URL,
		Media: types.Media{
			Thumbnail:    firstNonEmpty(raw.HeaderImage.URL, raw.WebImage.URL),
			PrimaryImage: raw.WebImage.URL,
			FullImage:    raw.WebImage.URL,
		},
	}

	if raw.PrincipalOrFirstMaker != "" {
		item.Creators = append(item.Creators, types.Creator{
			Role:        "maker",
			Names:       []string{raw.PrincipalOrFirstMaker},
			DisplayText: raw.PrincipalOrFirstMaker,
		})
	}

	if len(raw.ProductionPlaces) > 0 && raw.ProductionPlaces[0] != "" {
		item.Location = &types.ItemLocation{Place: raw.ProductionPlaces[0]}
	}

	item.Identifiers = append(item.Identifiers, types.Identifier{
		Label:   "Object number",
		Content: raw.ObjectNumber,
	})

	// The search shape carries no structured dating; the long title often
	// ends with a year but parsing it is guesswork, so the century stays
	// unknown until a detail fetch.
	item.Century = types.CenturyOf(item.FilterDate)

	return item
}

// normalizeRijksDetail converts a full object record, which adds structured
// dating, descriptions, and maker roles over the search shape.
func normalizeRijksDetail(raw rijksArtObjectDetail) *types.Item {
	item := normalizeRijks(raw.rijksArtObject)
	if item == nil {
		return nil
	}

	item.Dates.Display = raw.Dating.PresentingDate
	item.Dates.Created = raw.Dating.PresentingDate
	if raw.Dating.YearEarly != 0 {
		year := raw.Dating.YearEarly
		item.FilterDate = &year
	} else if raw.Dating.YearLate != 0 {
		year := raw.Dating.YearLate
		item.FilterDate = &year
	}
	item.Century = types.CenturyOf(item.FilterDate)

	if desc := StripMarkup(firstNonEmpty(raw.PlaqueDescriptionEnglish, raw.Description)); desc != "" {
		item.Descriptions = append(item.Descriptions, types.Description{
			Title:   "Description",
			Content: desc,
		})
	}

	if len(raw.PrincipalMakers) > 0 {
		item.Creators = item.Creators[:0]
		for _, m := range raw.PrincipalMakers {
			if m.Name == "" {
				continue
			}
			role := "maker"
			if len(m.Roles) > 0 && m.Roles[0] != "" {
				role = m.Roles[0]
			}
			item.Creators = append(item.Creators, types.Creator{
				Role:        role,
				Names:       []string{m.Name},
				DisplayText: m.Name,
			})
		}
	}

	return item
}

// Rijksmuseum API JSON structures.
type rijksResponse struct {
	Count      int              `json:"count"`
	ArtObjects []rijksArtObject `json:"artObjects"`
}

type rijksRecordResponse struct {
	ArtObject rijksArtObjectDetail `json:"artObject"`
}

type rijksArtObject struct {
	ObjectNumber          string     `json:"objectNumber"`
	Title                 string     `json:"title"`
	LongTitle             string     `json:"longTitle"`
	PrincipalOrFirstMaker string     `json:"principalOrFirstMaker"`
	WebImage              rijksImage `json:"webImage"`
	HeaderImage           rijksImage `json:"headerImage"`
	ProductionPlaces      []string   `json:"productionPlaces"`
	PermitDownload        bool       `json:"permitDownload"`
}

type rijksArtObjectDetail struct {
	rijksArtObject
	Dating                   rijksDating  `json:"dating"`
	Description              string       `json:"description"`
	PlaqueDescriptionEnglish string       `json:"plaqueDescriptionEnglish"`
	PrincipalMakers          []rijksMaker `json:"principalMakers"`
}

type rijksImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type rijksDating struct {
	PresentingDate string `json:"presentingDate"`
	YearEarly      int    `json:"yearEarly"`
	YearLate       int    `json:"yearLate"`
}

type rijksMaker struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}
