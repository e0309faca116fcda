// Package config provides file-based configuration for the ETL
// pipeline and the API server, with env overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingSourcePath = errors.New("pipeline.source_path is required")
	ErrMissingArchiveDir = errors.New("pipeline.archive_dir is required")
	ErrInvalidMinRating  = errors.New("defaults.min_rating must be between 0 and 10")
	ErrInvalidMinVotes   = errors.New("defaults.min_votes must be non-negative")
	ErrMissingHTTPAddr   = errors.New("server.http_addr is required")
	ErrMissingFeedAddr   = errors.New("server.feed_addr is required")
)

// Config is the complete moviedash configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Defaults FilterDefaults `yaml:"defaults"`
}

// PipelineConfig covers the ETL run: where the incoming CSV lives,
// where it goes after a successful load, and where the store sits.
type PipelineConfig struct {
	SourcePath string `yaml:"source_path"`
	ArchiveDir string `yaml:"archive_dir"`
	DBPath     string `yaml:"db_path"`
	Archive    bool   `yaml:"archive"`
}

// ServerConfig covers the API server listeners.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	FeedAddr string `yaml:"feed_addr"`
}

// FilterDefaults seed the dashboard filter controls.
type FilterDefaults struct {
	MinRating float64 `yaml:"min_rating"`
	MinVotes  int     `yaml:"min_votes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Pipeline: PipelineConfig{
			SourcePath: filepath.Join("data", "movies.csv"),
			ArchiveDir: "archive",
			Archive:    true,
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			FeedAddr: ":7070",
		},
		Defaults: FilterDefaults{
			MinRating: 7.0,
			MinVotes:  500,
		},
	}
}

// Load reads a YAML config file, applies env overrides, and
// validates. An empty path yields the defaults (still env-overridden
// and validated).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers MOVIEDASH_* variables over the file values, the
// same override order the database config uses.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MOVIEDASH_SOURCE_PATH"); v != "" {
		cfg.Pipeline.SourcePath = v
	}
	if v := os.Getenv("MOVIEDASH_ARCHIVE_DIR"); v != "" {
		cfg.Pipeline.ArchiveDir = v
	}
	if v := os.Getenv("MOVIEDASH_DB_PATH"); v != "" {
		cfg.Pipeline.DBPath = v
	}
	if v := os.Getenv("MOVIEDASH_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("MOVIEDASH_FEED_ADDR"); v != "" {
		cfg.Server.FeedAddr = v
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Pipeline.SourcePath == "" {
		return ErrMissingSourcePath
	}
	if c.Pipeline.Archive && c.Pipeline.ArchiveDir == "" {
		return ErrMissingArchiveDir
	}
	if c.Defaults.MinRating < 0 || c.Defaults.MinRating > 10 {
		return ErrInvalidMinRating
	}
	if c.Defaults.MinVotes < 0 {
		return ErrInvalidMinVotes
	}
	if c.Server.HTTPAddr == "" {
		return ErrMissingHTTPAddr
	}
	if c.Server.FeedAddr == "" {
		return ErrMissingFeedAddr
	}
	return nil
}
