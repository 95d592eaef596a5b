// Package config loads run settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/deusflow/teamfeed/internal/news"
)

const DefaultUserAgent = "teamfeed/1.0 (+https://github.com/deusflow/teamfeed)"

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type Config struct {
	// Team and file locations
	TeamSlug        string `env:"TEAM_SLUG" envDefault:"purdue-mbb"`
	FeedsConfigPath string `env:"FEEDS_CONFIG_PATH" envDefault:"configs/feeds.yaml"`
	RulesConfigPath string `env:"RULES_CONFIG_PATH" envDefault:"configs/rules.yaml"`
	OutputPath      string `env:"OUTPUT_PATH"` // static/teams/<slug>/items.json when empty

	// Fetch settings
	MaxItemsPerFeed int           `env:"MAX_ITEMS_PER_FEED" envDefault:"50"`
	NewsMaxAge      time.Duration `env:"NEWS_MAX_AGE" envDefault:"96h"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"20s"`
	UserAgent       string        `env:"USER_AGENT"`

	// Selection overrides; zero values keep the rules file settings
	FeedLimit  int    `env:"FEED_LIMIT" envDefault:"0"`
	MinTier    string `env:"MIN_TIER"`
	MinResults int    `env:"MIN_RESULTS" envDefault:"0"`

	// App settings
	MetricsTextfile string `env:"METRICS_TEXTFILE"`
	Debug           bool   `env:"DEBUG" envDefault:"false"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"text"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()

	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	c.TeamSlug = strings.TrimSpace(strings.ToLower(c.TeamSlug))
	c.MinTier = strings.TrimSpace(c.MinTier)
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if strings.TrimSpace(c.OutputPath) == "" && c.TeamSlug != "" {
		c.OutputPath = filepath.Join("static", "teams", c.TeamSlug, "items.json")
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		c.UserAgent = DefaultUserAgent
	}
}

func (c *Config) Validate() error {
	if !slugPattern.MatchString(c.TeamSlug) {
		return fmt.Errorf("TEAM_SLUG must be lower-case letters, digits and dashes, got %q", c.TeamSlug)
	}
	if c.FeedsConfigPath == "" {
		return fmt.Errorf("FEEDS_CONFIG_PATH is required")
	}
	if c.RulesConfigPath == "" {
		return fmt.Errorf("RULES_CONFIG_PATH is required")
	}
	if c.MaxItemsPerFeed <= 0 {
		return fmt.Errorf("MAX_ITEMS_PER_FEED must be positive")
	}
	if c.NewsMaxAge < 0 {
		return fmt.Errorf("NEWS_MAX_AGE must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.FeedLimit < 0 {
		return fmt.Errorf("FEED_LIMIT must not be negative")
	}
	if c.MinResults < 0 {
		return fmt.Errorf("MIN_RESULTS must not be negative")
	}
	if c.MinTier != "" {
		tier, err := news.ParseTier(c.MinTier)
		if err != nil || !tier.Accepted() {
			return fmt.Errorf("MIN_TIER must be one of soft, opponent, context, direct, trusted, got %q", c.MinTier)
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}
	return nil
}
