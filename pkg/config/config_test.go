package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scrape.MaxScrolls != 10 {
		t.Errorf("Expected default max scrolls to be 10, got %d", config.Scrape.MaxScrolls)
	}

	if config.TUI.MaxScrolls != 20 {
		t.Errorf("Expected default tui max scrolls to be 20, got %d", config.TUI.MaxScrolls)
	}

	if config.Download.Timeout != 10*time.Second {
		t.Errorf("Expected default download timeout to be 10s, got %s", config.Download.Timeout)
	}

	if config.Output.BaseDirectory != "pinterest_downloads" {
		t.Errorf("Expected default output directory to be pinterest_downloads, got %s", config.Output.BaseDirectory)
	}

	assert.Equal(t, 3*time.Second, config.Scrape.SettleDelay)
	assert.Equal(t, 2*time.Second, config.Scrape.ScrollDelay)
	assert.Equal(t, DefaultSkipPatterns, config.Scrape.SkipPatterns)
	assert.Equal(t, 5000, config.Server.Port)
	assert.Equal(t, 8000, config.Server.SimulatedPort)
	assert.NoError(t, config.Validate())
}

func TestDefaultSkipPatternsNotShared(t *testing.T) {
	config := DefaultConfig()
	config.Scrape.SkipPatterns[0] = "changed"
	assert.Equal(t, "data:image", DefaultSkipPatterns[0])
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PINSCRAPER_BROWSER_DRIVER", "STATIC")
	t.Setenv("PINSCRAPER_HEADLESS", "false")
	t.Setenv("PINSCRAPER_MAX_SCROLLS", "4")
	t.Setenv("PINSCRAPER_DOWNLOAD_TIMEOUT", "7s")
	t.Setenv("PINSCRAPER_REQUESTS_PER_MINUTE", "30")
	t.Setenv("PINSCRAPER_OUTPUT_DIR", "/tmp/test-downloads")
	t.Setenv("PINSCRAPER_RESTRICT_TO_BASE", "true")
	t.Setenv("PINSCRAPER_PORT", "9090")
	t.Setenv("PINSCRAPER_REDIS_ADDR", "localhost:6379")
	t.Setenv("PINSCRAPER_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("PINSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, DriverStatic, config.Browser.Driver)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 4, config.Scrape.MaxScrolls)
	assert.Equal(t, 7*time.Second, config.Download.Timeout)
	assert.Equal(t, 30, config.Download.RequestsPerMinute)
	assert.Equal(t, "/tmp/test-downloads", config.Output.BaseDirectory)
	assert.True(t, config.Output.RestrictToBase)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "localhost:6379", config.Progress.RedisAddr)
	assert.True(t, config.Notifications.Enabled)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("PINSCRAPER_DOWNLOAD_TIMEOUT", "soon")
	assert.Error(t, DefaultConfig().LoadFromEnv())

	t.Setenv("PINSCRAPER_DOWNLOAD_TIMEOUT", "")
	t.Setenv("PINSCRAPER_PORT", "eighty")
	assert.Error(t, DefaultConfig().LoadFromEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			modify: func(c *Config) {},
		},
		{
			name:    "unknown driver",
			modify:  func(c *Config) { c.Browser.Driver = "firefox" },
			wantErr: "invalid browser driver",
		},
		{
			name:    "search url without placeholder",
			modify:  func(c *Config) { c.Scrape.SearchURL = "https://www.pinterest.com/search/pins/" },
			wantErr: "placeholder",
		},
		{
			name:    "zero max scrolls",
			modify:  func(c *Config) { c.Scrape.MaxScrolls = 0 },
			wantErr: "max scrolls must be positive",
		},
		{
			name:    "default images above max",
			modify:  func(c *Config) { c.Scrape.DefaultImages = 101 },
			wantErr: "default images",
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Download.Timeout = 0 },
			wantErr: "download timeout must be positive",
		},
		{
			name: "rate limit without burst",
			modify: func(c *Config) {
				c.Download.RequestsPerMinute = 60
				c.Download.BurstSize = 0
			},
			wantErr: "burst size",
		},
		{
			name:    "empty output directory",
			modify:  func(c *Config) { c.Output.BaseDirectory = "" },
			wantErr: "output directory is required",
		},
		{
			name:    "bad port",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server port",
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	config := DefaultConfig()
	config.Scrape.MaxScrolls = 0
	config.Logging.Level = "loud"

	err := config.Validate()
	require.Error(t, err)
	assert.Len(t, strings.Split(err.Error(), "\n"), 2)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"driver":      "Simulated",
		"headless":    false,
		"output":      "/tmp/out",
		"max-scrolls": 3,
		"port":        7000,
		"notify":      true,
		"log-level":   "warn",
		"log-file":    "/tmp/pinscraper.log",
	})

	assert.Equal(t, DriverSimulated, config.Browser.Driver)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "/tmp/out", config.Output.BaseDirectory)
	assert.Equal(t, 3, config.Scrape.MaxScrolls)
	assert.Equal(t, 7000, config.Server.Port)
	assert.True(t, config.Notifications.Enabled)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "/tmp/pinscraper.log", config.Logging.File)
}

func TestMergeCommandLineFlagsIgnoresEmpty(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"output":      "",
		"max-scrolls": 0,
	})
	assert.Equal(t, "pinterest_downloads", config.Output.BaseDirectory)
	assert.Equal(t, 10, config.Scrape.MaxScrolls)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "test-config.yaml")

	config := DefaultConfig()
	config.Browser.Driver = DriverStatic
	config.Scrape.SettleDelay = 1500 * time.Millisecond
	config.Scrape.SkipPatterns = []string{"sprite"}

	require.NoError(t, config.Save(configPath))

	loadedConfig := DefaultConfig()
	require.NoError(t, loadedConfig.LoadFromFile(configPath))

	assert.Equal(t, DriverStatic, loadedConfig.Browser.Driver)
	assert.Equal(t, 1500*time.Millisecond, loadedConfig.Scrape.SettleDelay)
	assert.Equal(t, []string{"sprite"}, loadedConfig.Scrape.SkipPatterns)
}

func TestLoadFromTOMLFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[scrape]
max_scrolls = 7
settle_delay = "250ms"

[server]
port = 6060
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(configPath))

	assert.Equal(t, 7, config.Scrape.MaxScrolls)
	assert.Equal(t, 250*time.Millisecond, config.Scrape.SettleDelay)
	assert.Equal(t, 6060, config.Server.Port)
	// untouched sections keep their defaults
	assert.Equal(t, 2*time.Second, config.Scrape.ScrollDelay)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("scrape: [unclosed"), 0644))
	assert.Error(t, config.LoadFromFile(badPath))
}

func TestLoadAppliesPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("output:\n  base_directory: from-file\nlogging:\n  level: warn\n"), 0644))
	t.Setenv("PINSCRAPER_LOG_LEVEL", "error")

	config, err := Load(configPath, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)

	assert.Equal(t, "from-file", config.Output.BaseDirectory)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("scrape:\n  max_scrolls: -1\n"), 0644))

	_, err := Load(configPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
