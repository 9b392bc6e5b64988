package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/quarrydev/quarry/internal/builder"
	"github.com/quarrydev/quarry/internal/cache"
	"github.com/quarrydev/quarry/internal/output"
	"github.com/quarrydev/quarry/internal/progress"
	"github.com/quarrydev/quarry/internal/scanner"
	"github.com/quarrydev/quarry/pkg/config"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

// scanFiles walks every path and returns the deduplicated, sorted file set.
func scanFiles(cfg *config.Config, paths []string) ([]string, error) {
	s := scanner.NewScanner(cfg)
	spin := progress.NewSpinner("Scanning for source files...")
	seen := make(map[string]bool)
	var files []string
	for _, path := range paths {
		found, err := s.ScanDir(path)
		if err != nil {
			spin.FinishError(err)
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
				spin.Tick()
			}
		}
	}
	spin.FinishSuccess()
	sort.Strings(files)
	return files, nil
}

// buildGraph runs the scan-extract-link pipeline with a progress bar.
func buildGraph(c *cli.Context, cfg *config.Config, files []string) (*builder.Result, error) {
	b := builder.New(cfg)
	if cfg.Cache.Enabled && !c.Bool("no-cache") {
		store, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
		if err == nil {
			b = b.WithCache(store)
		}
		// A cache that cannot be opened just means a cold build.
	}

	tracker := progress.NewTracker("Building call graph...", len(files))
	result, err := b.BuildWithProgress(c.Context, files, tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()
	return result, nil
}

func newFormatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
}
