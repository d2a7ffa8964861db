package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"zeroshot/clip"
)

const defaultConfigFile = "config.json"

// appConfig aggregates runtime settings persisted to config.json.
type appConfig struct {
	// DataRoot is the directory datasets are staged under.
	DataRoot string      `json:"dataRoot"`
	Clip     clip.Config `json:"clip"`
}

func (c *appConfig) applyDefaults() {
	if c.DataRoot == "" {
		c.DataRoot = "data"
	}
	c.Clip.ApplyDefaults()
}

// loadAppConfig loads configuration from the given path or the default
// config.json. A missing file yields the defaults.
func loadAppConfig(path string) (appConfig, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg appConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// saveAppConfig persists configuration to disk.
func saveAppConfig(path string, cfg appConfig) error {
	if path == "" {
		path = defaultConfigFile
	}
	cfg.applyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
