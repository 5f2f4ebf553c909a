// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the curio search engine.
package types

import "fmt"

// Item is the unified record shape every archive's results normalize into.
// Identity is the (Source, ID) pair; no two items in one merged result set
// share both. An Item that survives normalization always carries at least
// one usable image reference.
type Item struct {
	// ID is the record identifier within its source archive.
	ID string `json:"id" yaml:"id"`

	// Source identifies the originating archive (e.g. "artic", "met").
	Source string `json:"source" yaml:"source"`

	// Title is the display title, markup stripped.
	Title string `json:"title" yaml:"title"`

	// ThumbnailURL is the small preview image, may be empty when Media
	// carries a primary image instead.
	ThumbnailURL string `json:"thumbnail_url,omitempty" yaml:"thumbnail_url,omitempty"`

	// Dates holds the item's date variants.
	Dates ItemDates `json:"dates" yaml:"dates"`

	// Location is the place of origin, when known.
	Location *ItemLocation `json:"location,omitempty" yaml:"location,omitempty"`

	// Creators lists makers in source order.
	Creators []Creator `json:"creators,omitempty" yaml:"creators,omitempty"`

	// Descriptions lists free-text sections in source order.
	Descriptions []Description `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`

	// Identifiers lists labeled source identifiers (accession numbers etc.).
	Identifiers []Identifier `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	// Media holds the image URLs for the item.
	Media Media `json:"media" yaml:"media"`

	// FilterDate is the derived year used for sorting and filtering.
	// Nil when no date could be derived.
	FilterDate *int `json:"filter_date,omitempty" yaml:"filter_date,omitempty"`

	// Century is the derived bucket label ("19th", "ancient", "unknown").
	Century string `json:"century" yaml:"century"`
}

// Key returns the dedup identity of the item.
func (it Item) Key() string {
	return it.Source + ":" + it.ID
}

// ItemDates holds an item's date variants. All fields are free-form source
// strings; Display is the best single human-readable value.
type ItemDates struct {
	Display   string `json:"display,omitempty" yaml:"display,omitempty"`
	Created   string `json:"created,omitempty" yaml:"created,omitempty"`
	Published string `json:"published,omitempty" yaml:"published,omitempty"`
	Collected string `json:"collected,omitempty" yaml:"collected,omitempty"`
}

// ItemLocation holds the place an item originates from.
type ItemLocation struct {
	Place string `json:"place" yaml:"place"`
}

// Creator is one maker entry: a role, the individual names, and the
// source's own display string when it provides one.
type Creator struct {
	Role        string   `json:"role,omitempty" yaml:"role,omitempty"`
	Names       []string `json:"names,omitempty" yaml:"names,omitempty"`
	DisplayText string   `json:"display_text,omitempty" yaml:"display_text,omitempty"`
}

// Description is one titled free-text section, markup stripped.
type Description struct {
	Title      string   `json:"title,omitempty" yaml:"title,omitempty"`
	Content    string   `json:"content" yaml:"content"`
	Paragraphs []string `json:"paragraphs,omitempty" yaml:"paragraphs,omitempty"`
}

// Identifier is one labeled source identifier.
type Identifier struct {
	Label   string `json:"label" yaml:"label"`
	Content string `json:"content" yaml:"content"`
}

// Media holds the image URLs for an item. Thumbnail or PrimaryImage is
// always present on a normalized item; FullImage may be empty.
type Media struct {
	Thumbnail    string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	PrimaryImage string `json:"primary_image,omitempty" yaml:"primary_image,omitempty"`
	FullImage    string `json:"full_image,omitempty" yaml:"full_image,omitempty"`
}

// HasImage reports whether the media carries at least one renderable URL.
func (m Media) HasImage() bool {
	return m.Thumbnail != "" || m.PrimaryImage != ""
}

// CenturyUnknown and CenturyAncient are the non-ordinal century buckets.
const (
	CenturyUnknown = "unknown"
	CenturyAncient = "ancient"
)

// CenturyOf derives the century bucket for a year. A nil year maps to
// "unknown", years before 1 CE to "ancient", everything else to an
// ordinal label like "19th".
func CenturyOf(year *int) string {
	if year == nil {
		return CenturyUnknown
	}
	if *year < 1 {
		return CenturyAncient
	}
	n := (*year-1)/100 + 1
	return fmt.Sprintf("%d%s", n, ordinalSuffix(n))
}

func ordinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
