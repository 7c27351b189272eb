// Package config loads and validates obsidx configuration.
// Configuration comes from an optional .obsidx.yaml in the vault root,
// with defaults covering everything so zero configuration works.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-vault configuration file.
const ConfigFileName = ".obsidx.yaml"

// DefaultIndexDirName is the index directory created inside the vault
// when no explicit location is given.
const DefaultIndexDirName = ".obsidx"

// Config is the complete obsidx configuration.
type Config struct {
	Version int          `yaml:"version"`
	Index   IndexConfig  `yaml:"index"`
	Search  SearchConfig `yaml:"search"`
	Watch   WatchConfig  `yaml:"watch"`
	Logging LogConfig    `yaml:"logging"`
}

// IndexConfig configures chunking and embedding for the chunk store.
type IndexConfig struct {
	// Dir is the index location. Relative paths resolve against the
	// vault root.
	Dir string `yaml:"dir"`

	// ChunkMaxChars is the sliding window size in characters.
	ChunkMaxChars int `yaml:"chunk_max_chars"`

	// ChunkOverlap is the window overlap in characters. Must be smaller
	// than ChunkMaxChars so the window always advances.
	ChunkOverlap int `yaml:"chunk_overlap"`

	// EmbeddingDims is the embedding vector dimension.
	EmbeddingDims int `yaml:"embedding_dims"`
}

// SearchConfig configures ranking and fusion.
type SearchConfig struct {
	// RRFConstant is the rank-fusion smoothing parameter k (default 60).
	RRFConstant int `yaml:"rrf_constant"`

	// MaxResults is the default result limit.
	MaxResults int `yaml:"max_results"`
}

// WatchConfig configures the change watcher.
type WatchConfig struct {
	// Debounce is the fixed debounce window, e.g. "750ms".
	Debounce string `yaml:"debounce"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Dir:           DefaultIndexDirName,
			ChunkMaxChars: 1500,
			ChunkOverlap:  200,
			EmbeddingDims: 256,
		},
		Search: SearchConfig{
			RRFConstant: 60,
			MaxResults:  20,
		},
		Watch: WatchConfig{
			Debounce: "750ms",
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration for a vault root. A missing file yields
// defaults; a present but malformed file is an error so broken config is
// never silently ignored.
func Load(vaultRoot string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(vaultRoot, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Index.ChunkMaxChars <= 0 {
		return fmt.Errorf("chunk_max_chars must be positive, got %d", c.Index.ChunkMaxChars)
	}
	if c.Index.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must not be negative, got %d", c.Index.ChunkOverlap)
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkMaxChars {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_max_chars (%d)",
			c.Index.ChunkOverlap, c.Index.ChunkMaxChars)
	}
	if c.Index.EmbeddingDims <= 0 {
		return fmt.Errorf("embedding_dims must be positive, got %d", c.Index.EmbeddingDims)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Search.MaxResults)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("invalid watch debounce %q: %w", c.Watch.Debounce, err)
	}
	return nil
}

// DebounceWindow returns the parsed debounce duration.
// Validate guarantees the string parses; a zero config falls back to the
// default window.
func (c *Config) DebounceWindow() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 750 * time.Millisecond
	}
	return d
}

// IndexDir resolves the index location against the vault root.
func (c *Config) IndexDir(vaultRoot string) string {
	if filepath.IsAbs(c.Index.Dir) {
		return c.Index.Dir
	}
	return filepath.Join(vaultRoot, c.Index.Dir)
}
