package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, 5, c.Provider.TimeoutSeconds)
	assert.Equal(t, 60, c.Provider.RateLimitPerMinute)
	assert.Equal(t, 48, c.Store.RetentionHours)
	assert.Equal(t, 120, c.Collector.IntervalSeconds)
	assert.Equal(t, 60, c.Collector.ErrorBackoffSeconds)
	assert.Equal(t, []string{"NIFTY", "BANKNIFTY", "FINNIFTY"}, c.Collector.Symbols)
	assert.Equal(t, "09:15", c.Collector.WindowOpen)
	assert.Equal(t, "15:30", c.Collector.WindowClose)
	assert.Equal(t, 587, c.SMTP.Port)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
provider:
  base_url: "https://data.example.com"
  timeout_seconds: 10
collector:
  interval_seconds: 30
  symbols: ["NIFTY"]
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", c.HTTP.Addr)
	assert.Equal(t, "https://data.example.com", c.Provider.BaseURL)
	assert.Equal(t, 10, c.Provider.TimeoutSeconds)
	assert.Equal(t, 30, c.Collector.IntervalSeconds)
	assert.Equal(t, []string{"NIFTY"}, c.Collector.Symbols)
	// untouched sections still get defaults
	assert.Equal(t, 48, c.Store.RetentionHours)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EQUITY_PROVIDER_API_KEY", "secret-key")
	t.Setenv("EQUITY_SMTP_PASSWORD", "smtp-pass")
	t.Setenv("EQUITY_SMTP_PORT", "2525")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "secret-key", c.Provider.APIKey)
	assert.Equal(t, "smtp-pass", c.SMTP.Password)
	assert.Equal(t, 2525, c.SMTP.Port)
}
