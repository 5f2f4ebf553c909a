// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/curio/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results. A
// saved search can be reloaded later without touching the archives.
type QueryFile struct {
	Query   string       `yaml:"query"`
	Summary QuerySummary `yaml:"summary"`
	Items   []types.Item `yaml:"items"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total          int       `yaml:"total"`
	TotalAvailable int       `yaml:"total_available"`
	Warnings       []string  `yaml:"warnings,omitempty"`
	Timestamp      time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a completed result set to a YAML file.
func WriteQueryFile(path, query string, res Result) error {
	qf := QueryFile{
		Query: query,
		Summary: QuerySummary{
			Total:          len(res.Items),
			TotalAvailable: res.TotalAvailable,
			Warnings:       res.Warnings,
			Timestamp:      time.Now(),
		},
		Items: res.Items,
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
