// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/pdiddy/curio/internal/orchestrator"
	"github.com/pdiddy/curio/pkg/types"
)

// printResult writes the result view as a table or JSON, with warnings on
// stderr either way.
func printResult(res orchestrator.Result, view []types.Item, asJSON bool) error {
	yellow := color.New(color.FgYellow)
	for _, w := range res.Warnings {
		yellow.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	printTable(view, res.TotalAvailable)
	return nil
}

// printTable writes items as a human-readable table.
func printTable(items []types.Item, totalAvailable int) {
	if len(items) == 0 {
		fmt.Println("No results found.")
		return
	}

	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	bold.Printf("%-44s  %-24s  %-14s  %-8s  %s\n",
		"Title", "Creator", "Date", "Century", "Source")
	fmt.Println(strings.Repeat("-", 104))

	for _, it := range items {
		fmt.Printf("%-44s  %-24s  %-14s  %-8s  %s\n",
			truncate(it.Title, 44),
			truncate(creatorOf(it), 24),
			truncate(it.Dates.Display, 14),
			it.Century,
			it.Source)
	}

	fmt.Printf("\n%d items", len(items))
	if totalAvailable > len(items) {
		dim.Printf(" (%d reported available across archives)", totalAvailable)
	}
	fmt.Println()
}

func creatorOf(it types.Item) string {
	if len(it.Creators) == 0 {
		return ""
	}
	return it.Creators[0].DisplayText
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
