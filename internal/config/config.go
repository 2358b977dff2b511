// Package config loads the store's tunables from a HuJSON (human JSON:
// comments and trailing commas allowed) file, the configuration dialect
// calvinalkan-agent-task uses for its own operator-facing settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds the store's operator-facing tunables: the data root, the
// pool/consolidation timing windows, and the per-bucket size caps.
type Config struct {
	// Path is the filesystem root under which every collection directory lives.
	Path string `json:"path"`

	// InactiveAfter is how long a handle may sit idle before the janitor
	// evicts it.
	InactiveAfter        time.Duration `json:"-"`
	InactiveAfterSeconds int           `json:"inactive_after_seconds"`

	// ConsolidateAfter is the debounce window before a scheduled key becomes
	// eligible for consolidation.
	ConsolidateAfter        time.Duration `json:"-"`
	ConsolidateAfterSeconds int           `json:"consolidate_after_seconds"`

	// MaxSizeKiB caps a single bucket's permanent file size.
	MaxSizeKiB int64 `json:"max_size_kib"`

	// MaxWords caps a single bucket's pending pushes and, separately, its
	// durable term count.
	MaxWords int `json:"max_words"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Path:             "graphfst-data",
		InactiveAfter:    10 * time.Minute,
		ConsolidateAfter: 30 * time.Second,
		MaxSizeKiB:       64 * 1024,
		MaxWords:         1_000_000,
	}
}

// Load reads and standardizes a HuJSON config file at path, falling back to
// Default() for any field not present in it.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if cfg.InactiveAfterSeconds > 0 {
		cfg.InactiveAfter = time.Duration(cfg.InactiveAfterSeconds) * time.Second
	}
	if cfg.ConsolidateAfterSeconds > 0 {
		cfg.ConsolidateAfter = time.Duration(cfg.ConsolidateAfterSeconds) * time.Second
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a configuration with nonsensical tunables.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("config: path must not be empty")
	}
	if c.MaxWords <= 0 {
		return fmt.Errorf("config: max_words must be positive")
	}
	if c.MaxSizeKiB <= 0 {
		return fmt.Errorf("config: max_size_kib must be positive")
	}
	return nil
}
