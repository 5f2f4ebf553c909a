// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRijksSearchJSON = `{
  "count": 42,
  "artObjects": [
    {
      "objectNumber": "SK-C-5",
      "title": "The Night Watch",
      "longTitle": "The Night Watch, Rembrandt van Rijn, 1642",
      "principalOrFirstMaker": "Rembrandt van Rijn",
      "webImage": {"url": "https://lh3.googleusercontent.com/nightwatch.jpg", "width": 2500, "height": 2034},
      "headerImage": {"url": "https://lh3.googleusercontent.com/nightwatch-header.jpg"},
      "productionPlaces": ["Amsterdam"],
      "permitDownload": true
    },
    {
      "objectNumber": "SK-A-1",
      "title": "No image",
      "permitDownload": true
    },
    {
      "objectNumber": "SK-A-2",
      "title": "Download withheld",
      "webImage": {"url": "https://lh3.googleusercontent.com/x.jpg"},
      "permitDownload": false
    }
  ]
}`

func TestRijksSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("key"); got != "test-key" {
			t.Errorf("key = %q, want %q", got, "test-key")
		}
		if got := q.Get("imgonly"); got != "true" {
			t.Errorf("imgonly = %q, want %q", got, "true")
		}
		if got := q.Get("ps"); got != "12" {
			t.Errorf("ps = %q, want %q", got, "12")
		}
		if got := q.Get("p"); got != "0" {
			t.Errorf("p = %q, want %q", got, "0")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleRijksSearchJSON)
	}))
	defer ts.Close()

	old := rijksAPIBase
	rijksAPIBase = ts.URL
	defer func() { rijksAPIBase = old }()

	repo := &RijksRepository{Client: ts.Client(), APIKey: "test-key"}
	batch, err := repo.Search(context.Background(), "rembrandt", Page{Limit: 12})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if batch.Total != 42 {
		t.Errorf("Total = %d, want 42", batch.Total)
	}
	if len(batch.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(batch.Items))
	}

	it := batch.Items[0]
	if it.ID != "SK-C-5" || it.Source != "rijks" {
		t.Errorf("identity = %s:%s", it.Source, it.ID)
	}
	if it.Media.PrimaryImage != "https://lh3.googleusercontent.com/nightwatch.jpg" {
		t.Errorf("PrimaryImage = %q", it.Media.PrimaryImage)
	}
	if it.Media.Thumbnail != "https://lh3.googleusercontent.com/nightwatch-header.jpg" {
		t.Errorf("Thumbnail = %q", it.Media.Thumbnail)
	}
	if it.Location == nil || it.Location.Place != "Amsterdam" {
		t.Errorf("Location = %v", it.Location)
	}
	if len(it.Creators) != 1 || it.Creators[0].DisplayText != "Rembrandt van Rijn" {
		t.Errorf("Creators = %v", it.Creators)
	}
	// Search hits carry no structured dating.
	if it.FilterDate != nil || it.Century != "unknown" {
		t.Errorf("FilterDate = %v, Century = %q", it.FilterDate, it.Century)
	}
}

func TestRijksGetRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/SK-C-5" {
			t.Errorf("path = %q, want /SK-C-5", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
		  "artObject": {
		    "objectNumber": "SK-C-5",
		    "title": "The Night Watch",
		    "webImage": {"url": "https://lh3.googleusercontent.com/nightwatch.jpg"},
		    "permitDownload": true,
		    "dating": {"presentingDate": "1642", "yearEarly": 1642, "yearLate": 1642},
		    "plaqueDescriptionEnglish": "Rembrandt&#39;s <b>most famous</b> painting.",
		    "principalMakers": [
		      {"name": "Rembrandt van Rijn", "roles": ["painter"]}
		    ]
		  }
		}`)
	}))
	defer ts.Close()

	old := rijksAPIBase
	rijksAPIBase = ts.URL
	defer func() { rijksAPIBase = old }()

	repo := &RijksRepository{Client: ts.Client(), APIKey: "test-key"}
	it, err := repo.GetRecord(context.Background(), "SK-C-5")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	if it.Dates.Display != "1642" {
		t.Errorf("Dates.Display = %q", it.Dates.Display)
	}
	if it.FilterDate == nil || *it.FilterDate != 1642 {
		t.Errorf("FilterDate = %v, want 1642", it.FilterDate)
	}
	if it.Century != "17th" {
		t.Errorf("Century = %q, want %q", it.Century, "17th")
	}
	if len(it.Descriptions) != 1 || it.Descriptions[0].Content != "Rembrandt's most famous painting." {
		t.Errorf("Descriptions = %v", it.Descriptions)
	}
	if len(it.Creators) != 1 || it.Creators[0].Role != "painter" {
		t.Errorf("Creators = %v", it.Creators)
	}
}

func TestNormalizeRijksMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  rijksArtObject
	}{
		{"zero value", rijksArtObject{}},
		{"no image", rijksArtObject{ObjectNumber: "X-1", PermitDownload: true}},
		{"no permission", rijksArtObject{ObjectNumber: "X-1", WebImage: rijksImage{URL: "u"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeRijks(tt.raw); got != nil {
				t.Errorf("normalizeRijks = %+v, want nil", got)
			}
		})
	}
}
