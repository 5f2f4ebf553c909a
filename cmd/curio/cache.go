// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/curio/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the local result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache usage and quota",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(cacheConfig(), logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("entries: %d (%d expired)\n", st.Entries, st.Expired)
		fmt.Printf("used:    %d / %d bytes\n", st.UsedBytes, st.Quota)
		return nil
	},
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Remove expired entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(cacheConfig(), logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.EvictExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("evicted %d expired entries\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.NewStore(cacheConfig(), logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheEvictCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
