package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the panel's file configuration. Every field has a default and
// an environment override, so the file itself is optional.
type Config struct {
	Addr     string        `yaml:"addr"`
	Database string        `yaml:"database"`
	Secret   string        `yaml:"secret"`
	LogLevel string        `yaml:"log_level"`
	StateTTL time.Duration `yaml:"state_ttl"`
	Secure   bool          `yaml:"secure_cookies"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8086"
	}
	if c.Database == "" {
		c.Database = "db/platform.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StateTTL <= 0 {
		c.StateTTL = 30 * time.Minute
	}
}

// loadConfig reads path if it exists, then applies environment overrides
// and defaults. A missing file is not an error; a malformed one is.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Secret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.defaults()
	return cfg, nil
}
