// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// metTestServer serves the ID-list search endpoint plus per-object records
// for the given IDs, counting search hits so memoization is observable.
func metTestServer(t *testing.T, ids []int, searchHits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		searchHits.Add(1)
		if got := r.URL.Query().Get("hasImages"); got != "true" {
			t.Errorf("hasImages = %q, want %q", got, "true")
		}
		w.Header().Set("Content-Type", "application/json")
		var sb strings.Builder
		for i, id := range ids {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "%d", id)
		}
		fmt.Fprintf(w, `{"total": %d, "objectIDs": [%s]}`, len(ids), sb.String())
	})
	mux.HandleFunc("/objects/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/objects/")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
		  "objectID": %s,
		  "title": "Object %s",
		  "primaryImage": "https://images.metmuseum.org/%s.jpg",
		  "primaryImageSmall": "https://images.metmuseum.org/%s-small.jpg",
		  "isPublicDomain": true,
		  "objectBeginDate": 1650
		}`, id, id, id, id)
	})
	return httptest.NewServer(mux)
}

func TestMetSearchBatching(t *testing.T) {
	ids := []int{10, 11, 12, 13, 14, 15, 16}
	var hits atomic.Int64
	ts := metTestServer(t, ids, &hits)
	defer ts.Close()

	old := metAPIBase
	metAPIBase = ts.URL
	defer func() { metAPIBase = old }()

	repo := &MetRepository{Client: ts.Client()}

	// First batch: offset 0, limit 3.
	batch, err := repo.Search(context.Background(), "vase", Page{Limit: 3, Offset: 0})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if batch.Total != 7 {
		t.Errorf("Total = %d, want 7", batch.Total)
	}
	if len(batch.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(batch.Items))
	}
	if batch.Items[0].ID != "10" || batch.Items[2].ID != "12" {
		t.Errorf("batch 1 IDs = %s..%s", batch.Items[0].ID, batch.Items[2].ID)
	}

	// Second batch continues where the first left off and reuses the
	// memoized ID list.
	batch, err = repo.Search(context.Background(), "vase", Page{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(batch.Items) != 3 {
		t.Fatalf("len(Items) = %d, want 3", len(batch.Items))
	}
	if batch.Items[0].ID != "13" {
		t.Errorf("batch 2 starts at %s, want 13", batch.Items[0].ID)
	}
	if hits.Load() != 1 {
		t.Errorf("search endpoint hit %d times, want 1", hits.Load())
	}

	// Final batch is clipped to the remaining IDs.
	batch, err = repo.Search(context.Background(), "vase", Page{Limit: 3, Offset: 6})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(batch.Items) != 1 || batch.Items[0].ID != "16" {
		t.Errorf("final batch = %+v, want single item 16", batch.Items)
	}

	// A new query invalidates the memo.
	if _, err := repo.Search(context.Background(), "bowl", Page{Limit: 3}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("search endpoint hit %d times after new query, want 2", hits.Load())
	}
}

func TestMetSearchSkipsBadRecords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total": 3, "objectIDs": [1, 2, 3]}`)
	})
	mux.HandleFunc("/objects/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/objects/")
		if id == "2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `{
		  "objectID": %s,
		  "title": "Object %s",
		  "primaryImage": "https://images.metmuseum.org/%s.jpg",
		  "isPublicDomain": true
		}`, id, id, id)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	old := metAPIBase
	metAPIBase = ts.URL
	defer func() { metAPIBase = old }()

	repo := &MetRepository{Client: ts.Client()}
	batch, err := repo.Search(context.Background(), "vase", Page{Limit: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(batch.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(batch.Items))
	}
	if batch.Items[0].ID != "1" || batch.Items[1].ID != "3" {
		t.Errorf("IDs = %s, %s", batch.Items[0].ID, batch.Items[1].ID)
	}
}

func TestNormalizeMet(t *testing.T) {
	raw := metObject{
		ObjectID:          437133,
		Title:             "Wheat Field with Cypresses",
		PrimaryImage:      "https://images.metmuseum.org/full.jpg",
		PrimaryImageSmall: "https://images.metmuseum.org/small.jpg",
		IsPublicDomain:    true,
		ObjectDate:        "1889",
		ObjectBeginDate:   1889,
		ObjectEndDate:     1889,
		ArtistDisplayName: "Vincent van Gogh",
		ArtistRole:        "Artist",
		Medium:            "Oil on canvas",
		AccessionNumber:   "1993.132",
	}

	it := normalizeMet(raw)
	if it == nil {
		t.Fatal("normalizeMet returned nil for a renderable object")
	}
	if it.ID != "437133" || it.Source != "met" {
		t.Errorf("identity = %s:%s", it.Source, it.ID)
	}
	if it.Media.Thumbnail != "https://images.metmuseum.org/small.jpg" {
		t.Errorf("Thumbnail = %q", it.Media.Thumbnail)
	}
	if it.Media.PrimaryImage != "https://images.metmuseum.org/full.jpg" {
		t.Errorf("PrimaryImage = %q", it.Media.PrimaryImage)
	}
	if it.FilterDate == nil || *it.FilterDate != 1889 {
		t.Errorf("FilterDate = %v, want 1889", it.FilterDate)
	}
	if it.Century != "19th" {
		t.Errorf("Century = %q, want %q", it.Century, "19th")
	}
	if len(it.Creators) != 1 || it.Creators[0].Role != "Artist" {
		t.Errorf("Creators = %v", it.Creators)
	}
}

func TestNormalizeMetMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  metObject
	}{
		{"zero value", metObject{}},
		{"no image", metObject{ObjectID: 1, IsPublicDomain: true}},
		{"no rights", metObject{ObjectID: 1, PrimaryImage: "x.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeMet(tt.raw); got != nil {
				t.Errorf("normalizeMet = %+v, want nil", got)
			}
		})
	}
}
