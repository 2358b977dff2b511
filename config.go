package graphfst

import (
	"github.com/aalhour/graphfst/internal/config"
)

// Config configures a Store. The zero value is not valid; use
// DefaultConfig or LoadConfig.
type Config = config.Config

// DefaultConfig returns the built-in defaults: a "graphfst-data" root,
// a 10-minute pool inactivity window, a 30-second consolidation debounce,
// a 64 MiB per-bucket size cap, and a 1,000,000-term per-bucket cap.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a HuJSON (JSON-with-comments-and-trailing-commas)
// configuration file from path, seeded with DefaultConfig for any field
// the file omits.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}
