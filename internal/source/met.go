// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/pdiddy/curio/pkg/types"
)

// metAPIBase is the Metropolitan Museum collection endpoint. Declared as a
// var so tests can substitute an httptest server.
var metAPIBase = "https://collectionapi.metmuseum.org/public/collection/v1"

// MetRepository queries the Metropolitan Museum API. The search endpoint
// only returns object IDs; every record costs one more round trip, so the
// source sits in the slow tier and is drained in sequential batches.
type MetRepository struct {
	Client    *http.Client
	UserAgent string

	// The ID list for the last query is memoized so sequential batches
	// for one search hit the search endpoint once.
	mu        sync.Mutex
	lastQuery string
	lastIDs   []int
}

// Name returns the source identifier.
func (r *MetRepository) Name() string { return "met" }

// Tier returns the batching tier.
func (r *MetRepository) Tier() Tier { return TierSlow }

// Search resolves the ID list for query and fetches the records in
// [page.Offset, page.Offset+page.Limit) one by one. Records that fail to
// fetch or normalize are dropped from the batch, not fatal to it.
func (r *MetRepository) Search(ctx context.Context, query string, page Page) (*Batch, error) {
	ids, total, err := r.objectIDs(ctx, query)
	if err != nil {
		return nil, err
	}

	start := page.Offset
	if start > len(ids) {
		start = len(ids)
	}
	end := start + page.Limit
	if page.Limit <= 0 || end > len(ids) {
		end = len(ids)
	}

	batch := &Batch{Total: total}
	for _, id := range ids[start:end] {
		item, err := r.GetRecord(ctx, fmt.Sprintf("%d", id))
		if err != nil {
			if IsCancellation(err) {
				return nil, err
			}
			// A single bad record degrades to a smaller batch.
			continue
		}
		batch.Items = append(batch.Items, *item)
	}
	return batch, nil
}

// GetRecord fetches a single object by its numeric identifier.
func (r *MetRepository) GetRecord(ctx context.Context, id string) (*types.Item, error) {
	resp, err := send(ctx, r.Client, r.Name(), metAPIBase+"/objects/"+url.PathEscape(id), r.UserAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, upstreamError(r.Name(), resp.StatusCode, string(body))
	}

	var raw metObject
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, malformedError(r.Name(), err)
	}

	item := normalizeMet(raw)
	if item == nil {
		return nil, &SourceError{Source: r.Name(), Kind: KindMalformed, Err: fmt.Errorf("record %s is not renderable", id)}
	}
	return item, nil
}

// objectIDs returns the matching object IDs and the reported total,
// memoizing per query.
func (r *MetRepository) objectIDs(ctx context.Context, query string) ([]int, int, error) {
	r.mu.Lock()
	if r.lastQuery == query && r.lastIDs != nil {
		ids := r.lastIDs
		r.mu.Unlock()
		return ids, len(ids), nil
	}
	r.mu.Unlock()

	params := url.Values{
		"q":         {query},
		"hasImages": {"true"},
	}

	resp, err := send(ctx, r.Client, r.Name(), metAPIBase+"/search?"+params.Encode(), r.UserAgent)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, upstreamError(r.Name(), resp.StatusCode, string(body))
	}

	var sr metSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, 0, malformedError(r.Name(), err)
	}

	r.mu.Lock()
	r.lastQuery = query
	r.lastIDs = sr.ObjectIDs
	r.mu.Unlock()

	return sr.ObjectIDs, sr.Total, nil
}

// normalizeMet converts one raw object into the unified item shape.
// Returns nil for objects without a primary image or outside the public
// domain.
func normalizeMet(raw metObject) *types.Item {
	if raw.ObjectID == 0 || !raw.IsPublicDomain {
		return nil
	}
	if raw.PrimaryImage == "" && raw.PrimaryImageSmall == "" {
		return nil
	}

	item := &types.Item{
		ID:           fmt.Sprintf("%d", raw.ObjectID),
		Source:       "met",
		Title:        StripMarkup(firstNonEmpty(raw.Title, raw.ObjectName)),
		ThumbnailURL: firstNonEmpty(raw.PrimaryImageSmall, raw.PrimaryImage),
		Dates: types.ItemDates{
			Display: raw.ObjectDate,
			Created: raw.ObjectDate,
		},
		Media: types.Media{
			Thumbnail:    firstNonEmpty(raw.PrimaryImageSmall, raw.PrimaryImage),
			PrimaryImage: firstNonEmpty(raw.PrimaryImage, raw.PrimaryImageSmall),
			FullImage:    raw.PrimaryImage,
		},
	}

	if place := firstNonEmpty(raw.City, raw.Country, raw.Culture); place != "" {
		item.Location = &types.ItemLocation{Place: place}
	}

	if raw.ArtistDisplayName != "" {
		item.Creators = append(item.Creators, types.Creator{
			Role:        firstNonEmpty(raw.ArtistRole, "artist"),
			Names:       []string{raw.ArtistDisplayName},
			DisplayText: raw.ArtistDisplayName,
		})
	}

	if raw.Medium != "" {
		item.Descriptions = append(item.Descriptions, types.Description{
			Title:   "Medium",
			Content: raw.Medium,
		})
	}
	if raw.CreditLine != "" {
		item.Descriptions = append(item.Descriptions, types.Description{
			Title:   "Credit line",
			Content: raw.CreditLine,
		})
	}

	if raw.AccessionNumber != "" {
		item.Identifiers = append(item.Identifiers, types.Identifier{
			Label:   "Accession number",
			Content: raw.AccessionNumber,
		})
	}

	if raw.ObjectBeginDate != 0 || raw.ObjectEndDate != 0 {
		year := raw.ObjectBeginDate
		if year == 0 {
			year = raw.ObjectEndDate
		}
		item.FilterDate = &year
	}
	item.Century = types.CenturyOf(item.FilterDate)

	return item
}

// Metropolitan Museum API JSON structures.
type metSearchResponse struct {
	Total     int   `json:"total"`
	ObjectIDs []int `json:"objectIDs"`
}

type metObject struct {
	ObjectID          int    `json:"objectID"`
	Title             string `json:"title"`
	ObjectName        string `json:"objectName"`
	PrimaryImage      string `json:"primaryImage"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	IsPublicDomain    bool   `json:"isPublicDomain"`
	ObjectDate        string `json:"objectDate"`
	ObjectBeginDate   int    `json:"objectBeginDate"`
	ObjectEndDate     int    `json:"objectEndDate"`
	ArtistDisplayName string `json:"artistDisplayName"`
	ArtistRole        string `json:"artistRole"`
	Culture           string `json:"culture"`
	Country           string `json:"country"`
	City              string `json:"city"`
	Medium            string `json:"medium"`
	CreditLine        string `json:"creditLine"`
	AccessionNumber   string `json:"accessionNumber"`
}
