// Package config provides configuration loading and structs for the weft
// pipeline and server.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Inputs   InputsConfig   `yaml:"inputs"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the catalog index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	CatalogPath  string `yaml:"catalog_path"`
}

// InputsConfig names the interaction tables and their columns.
type InputsConfig struct {
	Paths        []string `yaml:"paths"`
	ItemsPath    string   `yaml:"items_path"`
	LinkColumn   string   `yaml:"link_column"`
	ItemColumn   string   `yaml:"item_column"`
	WeightColumn string   `yaml:"weight_column"`
}

// PipelineConfig holds the transform parameters.
type PipelineConfig struct {
	K             int     `yaml:"k"`
	Normalization string  `yaml:"normalization"`
	ZeroDiagonal  bool    `yaml:"zero_diagonal"`
	Tol           float64 `yaml:"tol"`
	// Oversamples is accepted for parity with randomized SVD solvers; the
	// exact factorization does not consume it.
	Oversamples int `yaml:"oversamples"`
}

// OutputConfig holds the terminal table destination.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// WatchConfig holds directory watch settings for rebuild-on-change.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true
// when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, rejects unknown keys,
// applies defaults, expands paths, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.CatalogPath = expandPath(cfg.Storage.CatalogPath, configDir)
	cfg.Output.Path = expandPath(cfg.Output.Path, configDir)
	if cfg.Inputs.ItemsPath != "" {
		cfg.Inputs.ItemsPath = expandPath(cfg.Inputs.ItemsPath, configDir)
	}
	for i := range cfg.Inputs.Paths {
		cfg.Inputs.Paths[i] = expandPath(cfg.Inputs.Paths[i], configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate eagerly rejects invalid option values so a bad configuration
// fails before any pipeline work starts.
func Validate(cfg *Config) error {
	if cfg.Pipeline.K <= 0 {
		return fmt.Errorf("pipeline.k must be positive, got %d", cfg.Pipeline.K)
	}
	switch cfg.Pipeline.Normalization {
	case "none", "cosine":
	default:
		return fmt.Errorf("pipeline.normalization must be none or cosine, got %q", cfg.Pipeline.Normalization)
	}
	if cfg.Pipeline.Tol < 0 {
		return fmt.Errorf("pipeline.tol must not be negative, got %v", cfg.Pipeline.Tol)
	}
	if cfg.Pipeline.Oversamples < 0 {
		return fmt.Errorf("pipeline.oversamples must not be negative, got %d", cfg.Pipeline.Oversamples)
	}
	switch cfg.Output.Format {
	case "csv", "jsonl":
	default:
		return fmt.Errorf("output.format must be csv or jsonl, got %q", cfg.Output.Format)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", cfg.Server.Port)
	}
	if cfg.Inputs.LinkColumn == cfg.Inputs.ItemColumn {
		return fmt.Errorf("inputs.link_column and inputs.item_column must differ, both are %q", cfg.Inputs.LinkColumn)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
