// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/curio/internal/cache"
	"github.com/pdiddy/curio/internal/orchestrator"
	"github.com/pdiddy/curio/pkg/types"
)

var itemCmd = &cobra.Command{
	Use:   "item [source] [id]",
	Short: "Fetch one record from an archive",
	Long: `Item fetches a single record by source and identifier, normalizes it,
and prints it. Records are cached like search results; a fresh cached copy
skips the network.`,
	Args: cobra.ExactArgs(2),
	RunE: runItem,
}

func init() {
	itemCmd.Flags().Bool("json", false, "output the record as JSON")
	itemCmd.Flags().Bool("no-cache", false, "skip the record cache")
	itemCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")

	rootCmd.AddCommand(itemCmd)
}

func runItem(cmd *cobra.Command, args []string) error {
	sourceName, id := args[0], args[1]

	cfg := searchConfigFromFlags(cmd)
	client := &http.Client{Timeout: cfg.Timeout}
	sources := buildSources(cfg, client)

	var store *cache.Store
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		var err error
		store, err = cache.NewStore(cacheConfig(), logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer store.Close()
	}

	orch := orchestrator.New(sources, store, cfg, nil, logrus.StandardLogger())
	item, err := orch.FetchItemDetails(cmd.Context(), sourceName, id)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	}

	printItem(item)
	return nil
}

func printItem(it *types.Item) {
	bold := color.New(color.Bold)

	bold.Println(it.Title)
	fmt.Printf("  %s %s\n", it.Source, it.ID)
	if it.Dates.Display != "" {
		fmt.Printf("  Date:     %s (%s century)\n", it.Dates.Display, it.Century)
	}
	for _, c := range it.Creators {
		fmt.Printf("  %-9s %s\n", c.Role+":", c.DisplayText)
	}
	if it.Location != nil {
		fmt.Printf("  Place:    %s\n", it.Location.Place)
	}
	if it.Media.PrimaryImage != "" {
		fmt.Printf("  Image:    %s\n", it.Media.PrimaryImage)
	}
	for _, d := range it.Descriptions {
		fmt.Printf("\n%s\n  %s\n", d.Title, d.Content)
	}
	for _, ident := range it.Identifiers {
		fmt.Printf("\n%s: %s", ident.Label, ident.Content)
	}
	fmt.Println()
}
