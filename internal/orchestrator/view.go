// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"sort"

	"github.com/pdiddy/curio/pkg/types"
)

// SortKey selects the ordering of a result view.
type SortKey string

const (
	// SortRelevance keeps accumulation order, which preserves each
	// source's own relevance ranking within its batches.
	SortRelevance SortKey = "relevance"
	// SortDateAsc orders by derived year, oldest first; undated items sink
	// to the end.
	SortDateAsc SortKey = "date-asc"
	// SortDateDesc orders by derived year, newest first; undated items
	// sink to the end.
	SortDateDesc SortKey = "date-desc"
)

// ViewOptions filters and orders a result view.
type ViewOptions struct {
	Sort SortKey
	// Century keeps only items in the named bucket ("19th", "ancient",
	// "unknown"); empty keeps everything.
	Century string
}

// View returns the session's items filtered and ordered per opts. The view
// is computed over a copy: the canonical accumulation is never reordered,
// so a fixed sort key stays stable across progressive updates.
func (s *Session) View(opts ViewOptions) []types.Item {
	items := s.Items()

	if opts.Century != "" {
		kept := items[:0]
		for _, it := range items {
			if it.Century == opts.Century {
				kept = append(kept, it)
			}
		}
		items = kept
	}

	switch opts.Sort {
	case SortDateAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return dateLess(items[i], items[j])
		})
	case SortDateDesc:
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i], items[j]
			switch {
			case a.FilterDate == nil:
				return false
			case b.FilterDate == nil:
				return true
			default:
				return *a.FilterDate > *b.FilterDate
			}
		})
	}
	return items
}

// dateLess orders by derived year with undated items last.
func dateLess(a, b types.Item) bool {
	switch {
	case a.FilterDate == nil:
		return false
	case b.FilterDate == nil:
		return true
	default:
		return *a.FilterDate < *b.FilterDate
	}
}
