// Package config holds the crawler daemon configuration, loaded from
// YAML with defaults merged in. Durations are plain millisecond integers
// in the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	Listen        string        `yaml:"listen"`
	DBPath        string        `yaml:"db_path"`
	ScreenshotDir string        `yaml:"screenshot_dir"`
	LogLevel      string        `yaml:"log_level"`
	Browser       BrowserConfig `yaml:"browser"`
	Crawl         CrawlConfig   `yaml:"crawl"`
}

// BrowserConfig controls the Chrome lifecycle and per-page behavior.
type BrowserConfig struct {
	// RemoteURL attaches to an already-running Chrome instead of
	// launching one.
	RemoteURL         string   `yaml:"remote_url"`
	Headless          bool     `yaml:"headless"`
	RecycleIntervalMS int64    `yaml:"recycle_interval_ms"`
	NavTimeoutMS      int64    `yaml:"nav_timeout_ms"`
	ResourceBlocking  []string `yaml:"resource_blocking"`
}

// CrawlConfig bounds crawl sessions.
type CrawlConfig struct {
	PageCap    int   `yaml:"page_cap"`
	DelayMinMS int64 `yaml:"delay_min_ms"`
	DelayMaxMS int64 `yaml:"delay_max_ms"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:        ":8080",
		DBPath:        "crawler.db",
		ScreenshotDir: "screenshots",
		LogLevel:      "info",
		Browser: BrowserConfig{
			Headless:          true,
			RecycleIntervalMS: 4 * 60 * 60 * 1000,
			NavTimeoutMS:      30_000,
			ResourceBlocking:  []string{"images", "fonts", "media"},
		},
		Crawl: CrawlConfig{
			PageCap:    5,
			DelayMinMS: 2000,
			DelayMaxMS: 5000,
		},
	}
}

// LoadConfig reads a YAML config file merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Crawl.PageCap <= 0 {
		return fmt.Errorf("crawl.page_cap must be > 0")
	}
	if c.Crawl.DelayMinMS < 0 || c.Crawl.DelayMaxMS < c.Crawl.DelayMinMS {
		return fmt.Errorf("crawl delays must satisfy 0 <= delay_min_ms <= delay_max_ms")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
	}
	return nil
}

func (c *BrowserConfig) RecycleInterval() time.Duration {
	return time.Duration(c.RecycleIntervalMS) * time.Millisecond
}

func (c *BrowserConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutMS) * time.Millisecond
}

func (c *CrawlConfig) DelayMin() time.Duration {
	return time.Duration(c.DelayMinMS) * time.Millisecond
}

func (c *CrawlConfig) DelayMax() time.Duration {
	return time.Duration(c.DelayMaxMS) * time.Millisecond
}
