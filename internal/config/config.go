// Package config loads the dashboard configuration from YAML with explicit
// defaults. Secrets (provider key, SMTP password) can be supplied via
// environment variables so they stay out of checked-in config files.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Provider struct {
	BaseURL            string `yaml:"base_url"`
	APIKey             string `yaml:"api_key"` // EQUITY_PROVIDER_API_KEY overrides
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type Store struct {
	Path           string `yaml:"path"`
	RetentionHours int    `yaml:"retention_hours"`
}

type Collector struct {
	IntervalSeconds     int      `yaml:"interval_seconds"`
	ErrorBackoffSeconds int      `yaml:"error_backoff_seconds"`
	Symbols             []string `yaml:"symbols"`
	WindowOpen          string   `yaml:"window_open"`  // "HH:MM" IST
	WindowClose         string   `yaml:"window_close"` // "HH:MM" IST
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"` // EQUITY_SMTP_PASSWORD overrides
	From     string `yaml:"from"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type Root struct {
	HTTP      HTTP      `yaml:"http"`
	Provider  Provider  `yaml:"provider"`
	Store     Store     `yaml:"store"`
	Collector Collector `yaml:"collector"`
	SMTP      SMTP      `yaml:"smtp"`
	Log       Log       `yaml:"log"`
}

// Load reads path and applies defaults and env overrides. An empty path skips
// the file read and yields the defaults, so the binary runs without a config
// file at all.
func Load(path string) (Root, error) {
	var c Root
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, err
		}
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}

	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "http://localhost:9010"
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 5
	}
	if c.Provider.RateLimitPerMinute == 0 {
		c.Provider.RateLimitPerMinute = 60
	}

	if c.Store.Path == "" {
		c.Store.Path = "data/dashboard.db"
	}
	if c.Store.RetentionHours == 0 {
		c.Store.RetentionHours = 48
	}

	if c.Collector.IntervalSeconds == 0 {
		c.Collector.IntervalSeconds = 120
	}
	if c.Collector.ErrorBackoffSeconds == 0 {
		c.Collector.ErrorBackoffSeconds = 60
	}
	if len(c.Collector.Symbols) == 0 {
		c.Collector.Symbols = []string{"NIFTY", "BANKNIFTY", "FINNIFTY"}
	}
	if c.Collector.WindowOpen == "" {
		c.Collector.WindowOpen = "09:15"
	}
	if c.Collector.WindowClose == "" {
		c.Collector.WindowClose = "15:30"
	}

	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}

	applyEnv(&c)
	return c, nil
}

func applyEnv(c *Root) {
	if v := os.Getenv("EQUITY_PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("EQUITY_PROVIDER_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("EQUITY_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("EQUITY_SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.SMTP.Port = p
		}
	}
	if v := os.Getenv("EQUITY_SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("EQUITY_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("EQUITY_SMTP_FROM"); v != "" {
		c.SMTP.From = v
	}
	if v := os.Getenv("EQUITY_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
}
