// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobsift/jobsift/internal/jobs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	DB      DBConfig          `mapstructure:"db"`
	Scraper ScraperConfig     `mapstructure:"scraper"`
	Logging LoggingConfig     `mapstructure:"logging"`
	Filter  jobs.FilterPolicy `mapstructure:"filter"`
	Sites   []jobs.SiteConfig `mapstructure:"sites"`
}

// ServerConfig controls the viewer HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig controls access to the relational database. Provider selects
// between "postgres" and "memory" (development/testing).
type DBConfig struct {
	Provider        string `mapstructure:"provider"`
	DSN             string `mapstructure:"dsn"`
	Table           string `mapstructure:"table"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifeMins int    `mapstructure:"max_conn_life_minutes"`
}

// ScraperConfig governs adapter behavior shared across sites.
type ScraperConfig struct {
	UserAgent          string  `mapstructure:"user_agent"`
	RequestTimeoutSec  int     `mapstructure:"request_timeout_seconds"`
	PageLoadTimeoutSec int     `mapstructure:"page_load_timeout_seconds"`
	MaxPages           int     `mapstructure:"max_pages"`
	MaxLoadMoreClicks  int     `mapstructure:"max_load_more_clicks"`
	MaxScrollSteps     int     `mapstructure:"max_scroll_steps"`
	SiteQPS            float64 `mapstructure:"site_qps"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.table", "jobs")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_life_minutes", 30)
	v.SetDefault("scraper.user_agent", "jobsift-bot/0.1")
	v.SetDefault("scraper.request_timeout_seconds", 15)
	v.SetDefault("scraper.page_load_timeout_seconds", 25)
	v.SetDefault("scraper.max_pages", 100)
	v.SetDefault("scraper.max_load_more_clicks", 50)
	v.SetDefault("scraper.max_scroll_steps", 40)
	v.SetDefault("scraper.site_qps", 1)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.DB.Provider != "postgres" && c.DB.Provider != "memory" {
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	if c.DB.Provider == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db.provider is postgres")
	}
	if c.Scraper.RequestTimeoutSec <= 0 {
		return fmt.Errorf("scraper.request_timeout_seconds must be > 0")
	}
	if c.Scraper.PageLoadTimeoutSec <= 0 {
		return fmt.Errorf("scraper.page_load_timeout_seconds must be > 0")
	}
	if c.Scraper.MaxPages <= 0 {
		return fmt.Errorf("scraper.max_pages must be > 0")
	}
	if c.Filter.FuzzyThreshold < 0 || c.Filter.FuzzyThreshold > 1 {
		return fmt.Errorf("filter.fuzzy_threshold must be in [0,1]")
	}
	seen := make(map[string]struct{}, len(c.Sites))
	for _, site := range c.Sites {
		if site.ID == "" || site.URL == "" {
			return fmt.Errorf("site %q must have id and url", site.Name)
		}
		if _, dup := seen[site.ID]; dup {
			return fmt.Errorf("duplicate site id %q", site.ID)
		}
		seen[site.ID] = struct{}{}
	}
	return nil
}

// RequestTimeout converts the HTTP timeout config into a duration.
func (c ScraperConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// PageLoadTimeout bounds each browser navigation.
func (c ScraperConfig) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSec) * time.Second
}

// MaxConnLifetime converts the pool lifetime config into a duration.
func (c DBConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifeMins) * time.Minute
}
