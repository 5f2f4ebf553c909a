// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "curio/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search orchestrator, including the
// per-source batching policy.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// FastPageSize caps the single immediate page requested from fast
	// sources (default 12).
	FastPageSize int `json:"fast_page_size" yaml:"fast_page_size"`

	// MaxItemsPerSource bounds the total items fetched from one slow
	// source across all its batches (default 200).
	MaxItemsPerSource int `json:"max_items_per_source" yaml:"max_items_per_source"`

	// MaxBatches bounds the number of sequential batches issued to one
	// slow source (default 4).
	MaxBatches int `json:"max_batches" yaml:"max_batches"`

	// EnableArtic controls the Art Institute of Chicago source.
	EnableArtic bool `json:"enable_artic" yaml:"enable_artic"`

	// EnableRijks controls the Rijksmuseum source. Requires an API key.
	EnableRijks bool `json:"enable_rijks" yaml:"enable_rijks"`

	// EnableMet controls the Metropolitan Museum source.
	EnableMet bool `json:"enable_met" yaml:"enable_met"`

	// EnableEuropeana controls the Europeana source. Requires an API key
	// and, in browser-facing deployments, the same-origin relay.
	EnableEuropeana bool `json:"enable_europeana" yaml:"enable_europeana"`

	// RijksAPIKey authenticates Rijksmuseum requests.
	RijksAPIKey string `json:"rijks_api_key,omitempty" yaml:"rijks_api_key,omitempty"`

	// EuropeanaAPIKey authenticates Europeana requests. When requests go
	// through the relay the key lives relay-side instead.
	EuropeanaAPIKey string `json:"europeana_api_key,omitempty" yaml:"europeana_api_key,omitempty"`
}

// BatchSize computes the page size for one slow-source batch from the
// source's reported total, so that MaxItemsPerSource items fit in at most
// MaxBatches requests.
func (c SearchConfig) BatchSize(total int) int {
	maxItems := c.MaxItemsPerSource
	if maxItems <= 0 {
		maxItems = 200
	}
	maxBatches := c.MaxBatches
	if maxBatches <= 0 {
		maxBatches = 4
	}
	if total > maxItems {
		total = maxItems
	}
	size := (total + maxBatches - 1) / maxBatches
	if size < 1 {
		size = 1
	}
	return size
}

// CacheConfig holds settings for the result cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database (default ".curio").
	Dir string `json:"dir" yaml:"dir"`

	// TTL is how long entries stay fresh (default 30 minutes).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// QuotaBytes bounds the total payload size the store may hold.
	// When a write would exceed it, the oldest entries are evicted until
	// the write fits (default 5 MiB, mirroring browser storage limits).
	QuotaBytes int64 `json:"quota_bytes" yaml:"quota_bytes"`
}

// RelayConfig holds settings for the Europeana same-origin relay.
type RelayConfig struct {
	// Listen is the address the relay binds to (default ":8600").
	Listen string `json:"listen" yaml:"listen"`

	// UpstreamBase is the upstream search endpoint the relay forwards to.
	UpstreamBase string `json:"upstream_base" yaml:"upstream_base"`

	// APIKey is injected into forwarded requests server-side.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// Config groups all component configurations.
type Config struct {
	Search SearchConfig `json:"search" yaml:"search"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
	Relay  RelayConfig  `json:"relay" yaml:"relay"`
}
