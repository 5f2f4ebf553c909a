// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/curio/internal/cache"
	"github.com/pdiddy/curio/internal/orchestrator"
	"github.com/pdiddy/curio/internal/source"
	"github.com/pdiddy/curio/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "curio/0.1"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the federated archives",
	Long: `Search fans a query out to every enabled archive. Fast archives answer
one immediate page; slow archives are drained in sequential batches sized
from their reported totals. Results merge as they arrive and progress is
printed after every batch, so partial results show before the search ends.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("fast-page-size", 12, "items requested from each fast archive")
	searchCmd.Flags().Int("max-items", 200, "item budget per slow archive")
	searchCmd.Flags().Int("max-batches", 4, "batch budget per slow archive")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	searchCmd.Flags().String("sort", "relevance", "result order: relevance, date-asc, date-desc")
	searchCmd.Flags().String("century", "", `keep only one century bucket (e.g. "19th", "ancient")`)
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("no-cache", false, "skip the result cache entirely")
	searchCmd.Flags().String("save", "", "write the result set to a YAML file")
	searchCmd.Flags().String("load", "", "print a previously saved result set instead of searching")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	sortKey, _ := cmd.Flags().GetString("sort")
	century, _ := cmd.Flags().GetString("century")

	if path, _ := cmd.Flags().GetString("load"); path != "" {
		qf, err := orchestrator.ReadQueryFile(path)
		if err != nil {
			return err
		}
		res := orchestrator.Result{
			Items:          qf.Items,
			TotalAvailable: qf.Summary.TotalAvailable,
			Warnings:       qf.Summary.Warnings,
			Complete:       true,
		}
		return printResult(res, res.Items, asJSON)
	}

	if len(args) == 0 {
		return fmt.Errorf("query required: curio search \"pottery\"")
	}
	query := args[0]

	cfg := searchConfigFromFlags(cmd)
	client := &http.Client{Timeout: cfg.Timeout}
	sources := buildSources(cfg, client)
	if len(sources) == 0 {
		return fmt.Errorf("no archives enabled: check search.enable_* settings")
	}

	var store *cache.Store
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		var err error
		store, err = cache.NewStore(cacheConfig(), logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer store.Close()
	}

	reporter := &orchestrator.WriterReporter{W: os.Stderr}
	orch := orchestrator.New(sources, store, cfg, reporter, logrus.StandardLogger())

	sess, err := orch.Search(cmd.Context(), "cli", query)
	if err != nil {
		return err
	}
	<-sess.Done()

	res := sess.Result()
	view := sess.View(orchestrator.ViewOptions{
		Sort:    orchestrator.SortKey(sortKey),
		Century: century,
	})

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := orchestrator.WriteQueryFile(path, query, res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d items to %s\n", len(res.Items), path)
	}

	return printResult(res, view, asJSON)
}

// searchConfigFromFlags merges flag values over the config file.
func searchConfigFromFlags(cmd *cobra.Command) types.SearchConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("search.timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}

	fastPage, _ := cmd.Flags().GetInt("fast-page-size")
	maxItems, _ := cmd.Flags().GetInt("max-items")
	maxBatches, _ := cmd.Flags().GetInt("max-batches")

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		FastPageSize:      fastPage,
		MaxItemsPerSource: maxItems,
		MaxBatches:        maxBatches,
		EnableArtic:       enabled("search.enable_artic"),
		EnableRijks:       enabled("search.enable_rijks"),
		EnableMet:         enabled("search.enable_met"),
		EnableEuropeana:   enabled("search.enable_europeana"),
		RijksAPIKey:       secretDefault("rijks-api-key", viper.GetString("search.rijks_api_key")),
		EuropeanaAPIKey:   secretDefault("europeana-api-key", viper.GetString("search.europeana_api_key")),
	}
	return cfg
}

// enabled reads a boolean setting that defaults to true when unset.
func enabled(key string) bool {
	if !viper.IsSet(key) {
		return true
	}
	return viper.GetBool(key)
}

func cacheConfig() types.CacheConfig {
	return types.CacheConfig{
		Dir:        viper.GetString("cache.dir"),
		TTL:        viper.GetDuration("cache.ttl"),
		QuotaBytes: viper.GetInt64("cache.quota_bytes"),
	}
}

// buildSources assembles the enabled repositories. Key-gated archives stay
// out when no key is configured.
func buildSources(cfg types.SearchConfig, client *http.Client) []source.Repository {
	var sources []source.Repository
	if cfg.EnableArtic {
		sources = append(sources, &source.ArticRepository{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableRijks && cfg.RijksAPIKey != "" {
		sources = append(sources, &source.RijksRepository{Client: client, APIKey: cfg.RijksAPIKey, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableMet {
		sources = append(sources, &source.MetRepository{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableEuropeana {
		relayBase := viper.GetString("search.europeana_base")
		if cfg.EuropeanaAPIKey != "" || relayBase != "" {
			sources = append(sources, &source.EuropeanaRepository{
				Client:    client,
				BaseURL:   relayBase,
				APIKey:    cfg.EuropeanaAPIKey,
				UserAgent: cfg.UserAgent,
			})
		}
	}
	return sources
}
