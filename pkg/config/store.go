package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads and parses the on-disk JSON config at path. A missing
// file returns the unwrapped os.ReadFile error, so os.IsNotExist
// reports it and the caller can fall back to NewDefault.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.FilePath = path
	return &cfg, nil
}

// Save writes cfg to its FilePath as pretty-printed JSON (spec.md §6
// "On-disk config (JSON)").
func (c *Config) Save() error {
	if c.FilePath == "" {
		return fmt.Errorf("config: no file path set")
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(c.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.FilePath, err)
	}
	return nil
}

// ReplaceFrom replaces the live configuration with an already decoded
// config object received over the bus, preserving FilePath (spec.md
// §4.8 save-config handling).
func (c *Config) ReplaceFrom(incoming *Config) {
	filePath := c.FilePath
	*c = *incoming
	c.FilePath = filePath
}
