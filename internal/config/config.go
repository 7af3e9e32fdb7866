// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pharmawatch/eofscraper/internal/scraper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScraperConfig governs the category walk.
type ScraperConfig struct {
	BaseURL          string                   `mapstructure:"base_url"`
	UserAgent        string                   `mapstructure:"user_agent"`
	PageDelaySeconds int                      `mapstructure:"page_delay_seconds"`
	MaxExtraPages    int                      `mapstructure:"max_extra_pages"`
	Categories       []scraper.CategoryConfig `mapstructure:"categories"`
}

// HTTPConfig configures HTTP client retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// ScheduleConfig controls periodic scrape runs.
type ScheduleConfig struct {
	IntervalMinutes int  `mapstructure:"interval_minutes"`
	RunOnStart      bool `mapstructure:"run_on_start"`
}

// LoggingConfig controls log output and rotation.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	FilePath    string `mapstructure:"file_path"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Development bool   `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EOFSCRAPER")
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
	v.SetDefault("scraper.base_url", scraper.DefaultBaseURL)
	v.SetDefault("scraper.user_agent", "eofscraper/1.0")
	v.SetDefault("scraper.page_delay_seconds", 1)
	v.SetDefault("scraper.max_extra_pages", 10)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 1000)
	v.SetDefault("http.backoff_max_ms", 10000)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "eof_scraper.db")
	v.SetDefault("schedule.interval_minutes", 15)
	v.SetDefault("schedule.run_on_start", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	if c.DB.Driver != "sqlite" && c.DB.Driver != "postgres" {
		return fmt.Errorf("db.driver must be sqlite or postgres")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set")
	}
	if c.Schedule.IntervalMinutes <= 0 {
		return fmt.Errorf("schedule.interval_minutes must be > 0")
	}
	return nil
}

// Categories returns the configured category tree, falling back to the
// built-in defaults when none are configured.
func (c Config) Categories() []scraper.CategoryConfig {
	if len(c.Scraper.Categories) > 0 {
		return c.Scraper.Categories
	}
	return scraper.DefaultCategories()
}

// HTTPTimeout converts the HTTP timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// PageDelay converts the page delay config into a duration.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Scraper.PageDelaySeconds) * time.Second
}

// ScrapeInterval converts the schedule interval into a duration.
func (c Config) ScrapeInterval() time.Duration {
	return time.Duration(c.Schedule.IntervalMinutes) * time.Minute
}

// RetryPolicy converts the HTTP retry config into a scraper retry policy.
func (c Config) RetryPolicy() scraper.RetryPolicy {
	return scraper.RetryPolicy{
		MaxAttempts: c.HTTP.MaxRetries,
		BaseDelay:   time.Duration(c.HTTP.BackoffInitialMs) * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    time.Duration(c.HTTP.BackoffMaxMs) * time.Millisecond,
	}
}
