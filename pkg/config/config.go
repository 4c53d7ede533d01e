package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is the browser-like identity used for page loads and image fetches.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Browser drivers understood by the browser package.
const (
	DriverChrome    = "chrome"
	DriverStatic    = "static"
	DriverSimulated = "simulated"
)

// Config holds all configuration options for the Pinterest scraper
type Config struct {
	// Browser automation settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Scan loop settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Image fetch settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// HTTP front ends
	Server ServerConfig `yaml:"server" json:"server"`

	// Progress mirroring
	Progress ProgressConfig `yaml:"progress" json:"progress"`

	// Interactive terminal UI
	TUI TUIConfig `yaml:"tui" json:"tui"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig controls how a browser session is acquired
type BrowserConfig struct {
	Driver         string `yaml:"driver" json:"driver"`
	Headless       bool   `yaml:"headless" json:"headless"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
	WindowWidth    int    `yaml:"window_width" json:"window_width"`
	WindowHeight   int    `yaml:"window_height" json:"window_height"`
	ExecPath       string `yaml:"exec_path" json:"exec_path"`
	AcceptLanguage string `yaml:"accept_language" json:"accept_language"`
	NoSandbox      bool   `yaml:"no_sandbox" json:"no_sandbox"`
}

// ScrapeConfig holds the scan loop tunables
type ScrapeConfig struct {
	SearchURL           string        `yaml:"search_url" json:"search_url"`
	MaxScrolls          int           `yaml:"max_scrolls" json:"max_scrolls"`
	SettleDelay         time.Duration `yaml:"settle_delay" json:"settle_delay"`
	ScrollDelay         time.Duration `yaml:"scroll_delay" json:"scroll_delay"`
	DefaultImages       int           `yaml:"default_images" json:"default_images"`
	MaxImages           int           `yaml:"max_images" json:"max_images"`
	DefaultQuality      string        `yaml:"default_quality" json:"default_quality"`
	MinWidth            int           `yaml:"min_width" json:"min_width"`
	MinHeight           int           `yaml:"min_height" json:"min_height"`
	SkipPatterns        []string      `yaml:"skip_patterns" json:"skip_patterns"`
	DedupeSimilar       bool          `yaml:"dedupe_similar" json:"dedupe_similar"`
	SimilarityThreshold int           `yaml:"similarity_threshold" json:"similarity_threshold"`
}

// DownloadConfig holds image fetch configuration
type DownloadConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	MaxFileSize       int64         `yaml:"max_file_size" json:"max_file_size"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory  string `yaml:"base_directory" json:"base_directory"`
	// RestrictToBase rejects scrape folders outside BaseDirectory
	RestrictToBase bool   `yaml:"restrict_to_base" json:"restrict_to_base"`
}

// ServerConfig holds settings for the API server and the simulated server
type ServerConfig struct {
	Host                string        `yaml:"host" json:"host"`
	Port                int           `yaml:"port" json:"port"`
	SimulatedPort       int           `yaml:"simulated_port" json:"simulated_port"`
	IndexFile           string        `yaml:"index_file" json:"index_file"`
	AllowedOrigins      []string      `yaml:"allowed_origins" json:"allowed_origins"`
	SimulatedPageSize   int           `yaml:"simulated_page_size" json:"simulated_page_size"`
	SimulatedStepDelay  time.Duration `yaml:"simulated_step_delay" json:"simulated_step_delay"`
	SimulatedImageDelay time.Duration `yaml:"simulated_image_delay" json:"simulated_image_delay"`
}

// ProgressConfig configures the optional redis progress mirror
type ProgressConfig struct {
	RedisAddr     string        `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" json:"redis_password"`
	RedisDB       int           `yaml:"redis_db" json:"redis_db"`
	RedisKey      string        `yaml:"redis_key" json:"redis_key"`
	RedisChannel  string        `yaml:"redis_channel" json:"redis_channel"`
	RedisTTL      time.Duration `yaml:"redis_ttl" json:"redis_ttl"`
}

// TUIConfig holds interactive UI settings
type TUIConfig struct {
	MaxScrolls int `yaml:"max_scrolls" json:"max_scrolls"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultSkipPatterns are URL substrings that mark non-content images.
var DefaultSkipPatterns = []string{"data:image", "placeholder", "1x1", "loading", "avatar", "profile"}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Driver:       DriverChrome,
			Headless:     true,
			UserAgent:    DefaultUserAgent,
			WindowWidth:  1920,
			WindowHeight: 1080,
			NoSandbox:    true,
		},
		Scrape: ScrapeConfig{
			SearchURL:           "https://www.pinterest.com/search/pins/?q=%s",
			MaxScrolls:          10,
			SettleDelay:         3 * time.Second,
			ScrollDelay:         2 * time.Second,
			DefaultImages:       10,
			MaxImages:           100,
			DefaultQuality:      "400x400",
			MinWidth:            200,
			MinHeight:           200,
			SkipPatterns:        append([]string(nil), DefaultSkipPatterns...),
			DedupeSimilar:       false,
			SimilarityThreshold: 5,
		},
		Download: DownloadConfig{
			Timeout:           10 * time.Second,
			UserAgent:         DefaultUserAgent,
			MaxFileSize:       0, // 0 means no limit
			RequestsPerMinute: 0, // 0 means unlimited
			BurstSize:         5,
		},
		Output: OutputConfig{
			BaseDirectory: "pinterest_downloads",
		},
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                5000,
			SimulatedPort:       8000,
			IndexFile:           "index_v4.html",
			AllowedOrigins:      []string{"*"},
			SimulatedPageSize:   5,
			SimulatedStepDelay:  time.Second,
			SimulatedImageDelay: 500 * time.Millisecond,
		},
		Progress: ProgressConfig{
			RedisKey:     "pinscraper:progress",
			RedisChannel: "pinscraper:progress",
			RedisTTL:     24 * time.Hour,
		},
		TUI: TUIConfig{
			MaxScrolls: 20,
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if driver := os.Getenv("PINSCRAPER_BROWSER_DRIVER"); driver != "" {
		c.Browser.Driver = strings.ToLower(driver)
	}
	if headless := os.Getenv("PINSCRAPER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if execPath := os.Getenv("PINSCRAPER_CHROME_PATH"); execPath != "" {
		c.Browser.ExecPath = execPath
	}
	if userAgent := os.Getenv("PINSCRAPER_USER_AGENT"); userAgent != "" {
		c.Browser.UserAgent = userAgent
		c.Download.UserAgent = userAgent
	}
	if searchURL := os.Getenv("PINSCRAPER_SEARCH_URL"); searchURL != "" {
		c.Scrape.SearchURL = searchURL
	}

	if scrolls := os.Getenv("PINSCRAPER_MAX_SCROLLS"); scrolls != "" {
		var val int
		fmt.Sscanf(scrolls, "%d", &val)
		if val > 0 {
			c.Scrape.MaxScrolls = val
		}
	}

	if timeout := os.Getenv("PINSCRAPER_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid PINSCRAPER_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.Download.Timeout = d
	}

	if rpm := os.Getenv("PINSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val >= 0 {
			c.Download.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("PINSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if restrict := os.Getenv("PINSCRAPER_RESTRICT_TO_BASE"); restrict != "" {
		val, err := strconv.ParseBool(restrict)
		if err != nil {
			return fmt.Errorf("invalid PINSCRAPER_RESTRICT_TO_BASE: %w", err)
		}
		c.Output.RestrictToBase = val
	}

	if host := os.Getenv("PINSCRAPER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PINSCRAPER_PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PINSCRAPER_PORT: %w", err)
		}
		c.Server.Port = val
	}

	if redisAddr := os.Getenv("PINSCRAPER_REDIS_ADDR"); redisAddr != "" {
		c.Progress.RedisAddr = redisAddr
	}
	if redisPassword := os.Getenv("PINSCRAPER_REDIS_PASSWORD"); redisPassword != "" {
		c.Progress.RedisPassword = redisPassword
	}

	if notifEnabled := os.Getenv("PINSCRAPER_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if logLevel := os.Getenv("PINSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("PINSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = tomlToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// tomlToYAML re-encodes a TOML document as YAML so both formats share the
// yaml tags and the duration parsing of yaml.v3.
func tomlToYAML(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".pinscraper.yaml",
		".pinscraper.yml",
		".pinscraper.toml",
		filepath.Join(home, ".config", "pinscraper", "config.yaml"),
		filepath.Join(home, ".config", "pinscraper", "config.yml"),
		filepath.Join(home, ".config", "pinscraper", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	validDrivers := map[string]bool{DriverChrome: true, DriverStatic: true, DriverSimulated: true}
	if !validDrivers[c.Browser.Driver] {
		errs = append(errs, fmt.Errorf("invalid browser driver %q", c.Browser.Driver))
	}

	if !strings.Contains(c.Scrape.SearchURL, "%s") {
		errs = append(errs, errors.New("search URL must contain a %s placeholder for the query"))
	}
	if c.Scrape.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max scrolls must be positive"))
	}
	if c.Scrape.SettleDelay < 0 || c.Scrape.ScrollDelay < 0 {
		errs = append(errs, errors.New("delays cannot be negative"))
	}
	if c.Scrape.MaxImages <= 0 {
		errs = append(errs, errors.New("max images must be positive"))
	}
	if c.Scrape.DefaultImages <= 0 || c.Scrape.DefaultImages > c.Scrape.MaxImages {
		errs = append(errs, errors.New("default images must be between 1 and max images"))
	}
	if c.Scrape.MinWidth <= 0 || c.Scrape.MinHeight <= 0 {
		errs = append(errs, errors.New("minimum dimensions must be positive"))
	}
	if c.Scrape.SimilarityThreshold < 0 {
		errs = append(errs, errors.New("similarity threshold cannot be negative"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxFileSize < 0 {
		errs = append(errs, errors.New("max file size cannot be negative"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Download.RequestsPerMinute > 0 && c.Download.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive when rate limiting is enabled"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server port must be between 1 and 65535"))
	}
	if c.Server.SimulatedPort <= 0 || c.Server.SimulatedPort > 65535 {
		errs = append(errs, errors.New("simulated server port must be between 1 and 65535"))
	}

	if c.TUI.MaxScrolls <= 0 {
		errs = append(errs, errors.New("tui max scrolls must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if driver, ok := flags["driver"].(string); ok && driver != "" {
		c.Browser.Driver = strings.ToLower(driver)
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if scrolls, ok := flags["max-scrolls"].(int); ok && scrolls > 0 {
		c.Scrape.MaxScrolls = scrolls
	}
	if host, ok := flags["host"].(string); ok && host != "" {
		c.Server.Host = host
	}
	if port, ok := flags["port"].(int); ok && port > 0 {
		c.Server.Port = port
	}
	if simPort, ok := flags["simulated-port"].(int); ok && simPort > 0 {
		c.Server.SimulatedPort = simPort
	}
	if notify, ok := flags["notify"].(bool); ok && notify {
		c.Notifications.Enabled = true
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pinscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
