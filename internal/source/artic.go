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

// articAPIBase is the Art Institute of Chicago artworks endpoint. Declared
// as a var so tests can substitute an httptest server.
var articAPIBase = "https://api.artic.edu/api/v1/artworks"

// articFields lists the fields requested from the API; asking for the full
// record roughly triples the payload size.
const articFields = "id,title,image_id,date_display,date_start,date_end,artist_display,artist_title,place_of_origin,medium_display,main_reference_number,is_public_domain,short_description,description"

// ArticRepository queries the Art Institute of Chicago API. The archive
// answers a full result page in one round trip, so it sits in the fast tier.
type ArticRepository struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the source identifier.
func (r *ArticRepository) Name() string { return "artic" }

// Tier returns the batching tier.
func (r *ArticRepository) Tier() Tier { return TierFast }

// Search queries the artworks search endpoint for one page.
func (r *ArticRepository) Search(ctx context.Context, query string, page Page) (*Batch, error) {
	params := url.Values{
		"q":      {query},
		"fields": {articFields},
		"limit":  {fmt.Sprintf("%d", page.Limit)},
		"from":   {fmt.Sprintf("%d", page.Offset)},
	}

	resp, err := send(ctx, r.Client, r.Name(), articAPIBase+"/search?"+params.Encode(), r.UserAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, upstreamError(r.Name(), resp.StatusCode, string(body))
	}

	var ar articResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, malformedError(r.Name(), err)
	}

	iiif := ar.Config.IIIFURL
	batch := &Batch{Total: ar.Pagination.Total}
	for _, raw := range ar.Data {
		if item := normalizeArtic(raw, iiif); item != nil {
			batch.Items = append(batch.Items, *item)
		}
	}
	return batch, nil
}

// GetRecord fetches a single artwork by its numeric identifier.
func (r *ArticRepository) GetRecord(ctx context.Context, id string) (*types.Item, error) {
	params := url.Values{"fields": {articFields}}

	resp, err := send(ctx, r.Client, r.Name(), articAPIBase+"/"+url.PathEscape(id)+"?"+params.Encode(), r.UserAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, upstreamError(r.Name(), resp.StatusCode, string(body))
	}

	var rr articRecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, malformedError(r.Name(), err)
	}

	item := normalizeArtic(rr.Data, rr.Config.IIIFURL)
	if item == nil {
		return nil, &SourceError{Source: r.Name(), Kind: KindMalformed, Err: fmt.Errorf("record %s is not renderable", id)}
	}
	return item, nil
}

// normalizeArtic converts one raw artwork into the unified item shape.
// Returns nil for artworks without an image or without a usable rights
// signal; only public-domain records are surfaced.
func normalizeArtic(raw articArtwork, iiifBase string) *types.Item {
	if raw.ID == 0 || raw.ImageID == "" || !raw.IsPublicDomain {
		return nil
	}
	if iiifBase == "" {
		iiifBase = "https://www.artic.edu/iiif/2"
	}

	imageURL := func(size string) string {
		return fmt.Sprintf("%s/%s/full/%s/0/default.jpg", iiifBase, raw.ImageID, size)
	}

	item := &types.Item{
		ID:           fmt.Sprintf("%d", raw.ID),
		Source:       "artic",
		Title:        StripMarkup(raw.Title),
		ThumbnailURL: imageURL("200,"),
		Dates: types.ItemDates{
			Display: raw.DateDisplay,
		},
		Media: types.Media{
			Thumbnail:    imageURL("200,"),
			PrimaryImage: imageURL("843,"),
			FullImage:    imageURL("full"),
		},
	}

	if raw.PlaceOfOrigin != "" {
		item.Location = &types.ItemLocation{Place: raw.PlaceOfOrigin}
	}

	if raw.ArtistDisplay != "" || raw.ArtistTitle != "" {
		creator := types.Creator{
			Role:        "artist",
			DisplayText: firstNonEmpty(raw.ArtistDisplay, raw.ArtistTitle),
		}
		if raw.ArtistTitle != "" {
			creator.Names = []string{raw.ArtistTitle}
		}
		item.Creators = append(item.Creators, creator)
	}

	if desc := StripMarkup(firstNonEmpty(raw.ShortDescription, raw.Description)); desc != "" {
		item.Descriptions = append(item.Descriptions, types.Description{
			Title:   "About this artwork",
			Content: desc,
		})
	}
	if raw.MediumDisplay != "" {
		item.Descriptions = append(item.Descriptions, types.Description{
			Title:   "Medium",
			Content: raw.MediumDisplay,
		})
	}

	if raw.MainReferenceNumber != "" {
		item.Identifiers = append(item.Identifiers, types.Identifier{
			Label:   "Reference number",
			Content: raw.MainReferenceNumber,
		})
	}

	if year, ok := articYear(raw); ok {
		item.FilterDate = &year
	}
	item.Century = types.CenturyOf(item.FilterDate)

	return item
}

// articYear picks the representative year: creation start when present,
// creation end otherwise. Zero for both means the date is unknown.
func articYear(raw articArtwork) (int, bool) {
	if raw.DateStart != 0 {
		return raw.DateStart, true
	}
	if raw.DateEnd != 0 {
		return raw.DateEnd, true
	}
	return 0, false
}

// Art Institute of Chicago API JSON structures.
type articResponse struct {
	Pagination articPagination `json:"pagination"`
	Data       []articArtwork  `json:"data"`
	Config     articConfig     `json:"config"`
}

type articRecordResponse struct {
	Data   articArtwork `json:"data"`
	Config articConfig  `json:"config"`
}

type articPagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type articConfig struct {
	IIIFURL string `json:"iiif_url"`
}

type articArtwork struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	ImageID             string `json:"image_id"`
	DateDisplay         string `json:"date_display"`
	DateStart           int    `json:"date_start"`
	DateEnd             int    `json:"date_end"`
	ArtistDisplay       string `json:"artist_display"`
	ArtistTitle         string `json:"artist_title"`
	PlaceOfOrigin       string `json:"place_of_origin"`
	MediumDisplay       string `json:"medium_display"`
	MainReferenceNumber string `json:"main_reference_number"`
	IsPublicDomain      bool   `json:"is_public_domain"`
	ShortDescription    string `json:"short_description"`
	Description         string `json:"description"`
}
