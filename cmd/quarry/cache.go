package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/quarrydev/quarry/internal/cache"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the extraction cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count and size",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove all cached extraction results",
				Action: runCacheClear,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
}

func runCacheStats(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}

	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}

	fmt.Printf("Entries:    %d\n", stats.Entries)
	fmt.Printf("Total size: %d bytes\n", stats.TotalSize)
	if stats.Entries > 0 {
		fmt.Printf("Oldest:     %s ago\n", stats.OldestAge.Round(time.Second))
		fmt.Printf("Newest:     %s ago\n", stats.NewestAge.Round(time.Second))
	}
	return nil
}

func runCacheClear(c *cli.Context) error {
	store, err := openCache(c)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	color.Green("Cache cleared")
	return nil
}
