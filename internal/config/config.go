// Package config provides configuration loading and structs for the Shirabe server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EngineConfig holds index construction and routing settings.
type EngineConfig struct {
	// UseANN enables the HNSW graph; defaults to true when unset.
	UseANN *bool `yaml:"use_ann"`
	// ANNThreshold is the store size above which searches route to HNSW
	// instead of brute-force.
	ANNThreshold   int   `yaml:"ann_threshold"`
	M              int   `yaml:"m"`
	EfConstruction int   `yaml:"ef_construction"`
	EfSearch       int   `yaml:"ef_search"`
	LevelSeed      int64 `yaml:"level_seed"`
}

// UseANNOrDefault returns whether ANN search is enabled; true when unset.
func (e *EngineConfig) UseANNOrDefault() bool {
	if e.UseANN != nil {
		return *e.UseANN
	}
	return true
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Dimensions int `yaml:"dimensions"`
	CacheSize  int `yaml:"cache_size"`
}

// CacheConfig holds query cache power settings for the server.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	MaxSize  int  `yaml:"max_size"`
	TTLMilli int  `yaml:"ttl_ms"`
}

// SnapshotConfig holds snapshot persistence settings for the server. The
// engine itself is memory-only; the server loads the snapshot at startup,
// saves it on shutdown, and optionally re-imports it when the file changes.
type SnapshotConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	cfg.Snapshot.Path = expandPath(cfg.Snapshot.Path, filepath.Dir(path))
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty stays empty.
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
