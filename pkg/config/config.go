// Package config loads quarry settings from TOML, YAML, or JSON files,
// falling back to defaults when no config file is present.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for quarry.
type Config struct {
	// Call graph construction settings
	Graph GraphConfig `koanf:"graph"`

	// Thresholds for downstream scoring
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// GraphConfig controls call graph construction and traversal.
type GraphConfig struct {
	// MaxDepth bounds transitive caller/callee traversals.
	MaxDepth int `koanf:"max_depth"`
	// IncludeTests keeps test functions in the graph. Disabling drops
	// their definitions entirely, not just their classification.
	IncludeTests bool `koanf:"include_tests"`
	// Workers overrides the parallel extraction worker count; 0 means
	// 2x NumCPU.
	Workers int `koanf:"workers"`
}

// ThresholdConfig defines scoring thresholds.
type ThresholdConfig struct {
	// DeadCodeConfidence is the minimum confidence for reporting a
	// dead code candidate.
	DeadCodeConfidence float64 `koanf:"dead_code_confidence"`
	// HighRiskBlastRadius is the production caller count above which a
	// function is flagged as high blast radius.
	HighRiskBlastRadius int `koanf:"high_risk_blast_radius"`
	// CriticalDependencyCount marks heavily depended-on functions as
	// critical for risk weighting.
	CriticalDependencyCount int `koanf:"critical_dependency_count"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns   []string `koanf:"patterns"`
	Extensions []string `koanf:"extensions"`
	Dirs       []string `koanf:"dirs"`
	Gitignore  bool     `koanf:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			MaxDepth:     10,
			IncludeTests: true,
			Workers:      0,
		},
		Thresholds: ThresholdConfig{
			DeadCodeConfidence:      0.8,
			HighRiskBlastRadius:     10,
			CriticalDependencyCount: 20,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
				"*.min.css",
				"*.d.ts",
			},
			Extensions: []string{
				".lock",
				".sum",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".quarry",
				"dist",
				"build",
				"target",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".quarry/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	// Load the config file
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"quarry.toml",
		"quarry.yaml",
		"quarry.yml",
		"quarry.json",
		".quarry.toml",
		".quarry.yaml",
		".quarry.yml",
		".quarry.json",
	}

	searchDirs := []string{".", ".quarry"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	// Check directory exclusions
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	// Check extension exclusions
	ext := filepath.Ext(path)
	for _, excludeExt := range c.Exclude.Extensions {
		if ext == excludeExt {
			return true
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
