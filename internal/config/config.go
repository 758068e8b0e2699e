// Package config loads and validates noteseek configuration.
//
// Configuration is resolved in priority order:
//  1. Environment variables (NOTESEEK_*)
//  2. Project config (<root>/.noteseek.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-folder config file name.
const ConfigFileName = ".noteseek.yaml"

// DataDirName is the index data directory created under the notes root.
const DataDirName = ".noteseek"

// Embedding provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderOffline = "offline"
)

// Config represents the complete noteseek configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Paths      PathsConfig      `yaml:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Scan       ScanConfig       `yaml:"scan"`
	Watch      WatchConfig      `yaml:"watch"`
	LogLevel   string           `yaml:"log_level"`
}

// PathsConfig configures which files are eligible for indexing.
type PathsConfig struct {
	// Extensions is the recognized extension set (default: .md, .txt).
	Extensions []string `yaml:"extensions"`
	// Exclude lists directory names that are never descended into.
	Exclude []string `yaml:"exclude"`
	// MaxFileSize is the largest file in bytes that will be parsed.
	MaxFileSize int64 `yaml:"max_file_size"`
}

// ChunkingConfig configures the sliding-window chunker.
type ChunkingConfig struct {
	// MaxChunkSize is the window size in characters (default: 500).
	MaxChunkSize int `yaml:"max_chunk_size"`
	// Overlap is carried from the end of one chunk into the next (default: 50).
	Overlap int `yaml:"overlap"`
}

// SearchConfig configures hybrid search behavior.
type SearchConfig struct {
	// MaxResults is the default result limit.
	MaxResults int `yaml:"max_results"`
	// MinScore is the semantic similarity floor; vector hits below it are
	// discarded (default: 0.3).
	MinScore float32 `yaml:"min_score"`
	// KeywordScore is the fixed score assigned to lexical-only matches at
	// fusion time. Must stay below MinScore so keyword hits never displace
	// semantic hits for the same document.
	KeywordScore float32 `yaml:"keyword_score"`
}

// EmbeddingsConfig configures the embedding engine.
type EmbeddingsConfig struct {
	// Provider selects the encoder backend: "openai" (OpenAI-compatible
	// HTTP endpoint, works with Ollama and llama.cpp) or "offline"
	// (deterministic local projection, no network).
	Provider string `yaml:"provider"`
	// Endpoint is the OpenAI-compatible base URL (default: Ollama's).
	Endpoint string `yaml:"endpoint"`
	// Model is the embedding model identifier.
	Model string `yaml:"model"`
	// APIKey authenticates against hosted endpoints. Empty for local
	// servers. Set via NOTESEEK_EMBEDDINGS_API_KEY, never the config file.
	APIKey string `yaml:"-"`
	// Dimensions is the embedding dimension (default: 384).
	Dimensions int `yaml:"dimensions"`
	// MaxSequence is the tokenizer/model sequence length (default: 256).
	MaxSequence int `yaml:"max_sequence"`
	// VocabPath points to the line-oriented WordPiece vocabulary file.
	VocabPath string `yaml:"vocab_path"`
	// InitTimeout bounds model loading so a hung load can be retried.
	InitTimeout time.Duration `yaml:"init_timeout"`
	// Concurrency is the number of in-flight encoder calls allowed.
	Concurrency int `yaml:"concurrency"`
}

// ScanConfig configures scan orchestration.
type ScanConfig struct {
	// Workers is the indexing worker pool size (default: NumCPU, capped at 8).
	Workers int `yaml:"workers"`
	// ProgressEvery emits a checkpoint update after this many files.
	ProgressEvery int `yaml:"progress_every"`
	// ProgressInterval emits a checkpoint update after this much time.
	ProgressInterval time.Duration `yaml:"progress_interval"`
	// RescanInterval drives the periodic fallback re-scan when the
	// filesystem watcher is unavailable.
	RescanInterval time.Duration `yaml:"rescan_interval"`
}

// WatchConfig configures the change watcher.
type WatchConfig struct {
	// Debounce is the per-path quiet window before re-indexing (default: 500ms).
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Extensions:  []string{".md", ".txt"},
			Exclude:     []string{DataDirName, ".git", ".obsidian", ".trash"},
			MaxFileSize: 10 * 1024 * 1024,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 500,
			Overlap:      50,
		},
		Search: SearchConfig{
			MaxResults:   20,
			MinScore:     0.3,
			KeywordScore: 0.2,
		},
		Embeddings: EmbeddingsConfig{
			Provider:    "offline",
			Endpoint:    "http://localhost:11434/v1",
			Model:       "all-minilm",
			Dimensions:  384,
			MaxSequence: 256,
			InitTimeout: 60 * time.Second,
			Concurrency: 2,
		},
		Scan: ScanConfig{
			Workers:          workers,
			ProgressEvery:    10,
			ProgressInterval: 2 * time.Second,
			RescanInterval:   5 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		LogLevel: "info",
	}
}

// Load reads configuration for the given notes root.
// A missing config file is not an error; defaults are used.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DataDir returns the index data directory for a notes root.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// applyEnvOverrides applies NOTESEEK_* environment variables on top of the
// loaded config. Env vars win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NOTESEEK_EMBEDDINGS_PROVIDER"); v != "" {
		cfg.Embeddings.Provider = v
	}
	if v := os.Getenv("NOTESEEK_EMBEDDINGS_ENDPOINT"); v != "" {
		cfg.Embeddings.Endpoint = v
	}
	if v := os.Getenv("NOTESEEK_EMBEDDINGS_MODEL"); v != "" {
		cfg.Embeddings.Model = v
	}
	if v := os.Getenv("NOTESEEK_EMBEDDINGS_API_KEY"); v != "" {
		cfg.Embeddings.APIKey = v
	}
	if v := os.Getenv("NOTESEEK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NOTESEEK_SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Scan.Workers = n
		}
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("chunking.max_chunk_size must be positive, got %d", c.Chunking.MaxChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("chunking.overlap must be in [0, max_chunk_size), got %d", c.Chunking.Overlap)
	}
	if c.Search.KeywordScore >= c.Search.MinScore {
		return fmt.Errorf("search.keyword_score (%v) must be below search.min_score (%v)",
			c.Search.KeywordScore, c.Search.MinScore)
	}
	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}
	if c.Embeddings.MaxSequence <= 2 {
		return fmt.Errorf("embeddings.max_sequence must leave room for sentinels, got %d", c.Embeddings.MaxSequence)
	}
	switch c.Embeddings.Provider {
	case ProviderOpenAI, ProviderOffline:
	default:
		return fmt.Errorf("embeddings.provider must be one of openai|offline, got %q", c.Embeddings.Provider)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if len(c.Paths.Extensions) == 0 {
		return fmt.Errorf("paths.extensions must not be empty")
	}
	return nil
}

// Save writes the config to the root's config file.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(root, ConfigFileName), data, 0o644)
}
