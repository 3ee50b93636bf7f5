package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultPageSize is the history page size requested per API call.
	DefaultPageSize = 100

	// MaxPageSize is the largest page the history endpoints accept.
	MaxPageSize = 1000
)

// Config holds the settings for an archive run. Values are resolved in order:
// defaults, then config.yml if present, then environment variables (which a
// .env file may supply).
type Config struct {
	SlackToken string `yaml:"slack_token"`
	OutputDir  string `yaml:"output_dir"`
	PageSize   int    `yaml:"page_size"`
}

// Load resolves configuration from config.yml, .env and environment
// variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// No .env file is fine; env vars or config.yml cover it.
	}

	cfg := &Config{
		OutputDir: ".",
		PageSize:  DefaultPageSize,
	}

	if data, err := os.ReadFile("config.yml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config.yml: %w", err)
		}
	}

	if v := os.Getenv("SLACK_TOKEN"); v != "" {
		cfg.SlackToken = v
	}
	if v := os.Getenv("SLACK_HISTORY_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SLACK_HISTORY_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SLACK_HISTORY_PAGE_SIZE: %w", err)
		}
		cfg.PageSize = size
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.SlackToken == "" {
		return fmt.Errorf("slack token is required (set --token, SLACK_TOKEN, or slack_token in config.yml)")
	}
	if c.PageSize <= 0 || c.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
	}
	return nil
}
