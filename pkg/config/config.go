package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the lucida client, CLI and API server
type Config struct {
	// Upstream origin settings
	Lucida LucidaConfig `yaml:"lucida" json:"lucida"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// REST server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// LucidaConfig holds settings for talking to the upstream site
type LucidaConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int           `yaml:"requests_per_hour" json:"requests_per_hour"`
	MinDelay          time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff"`
	DefaultRetryAfter time.Duration `yaml:"default_retry_after" json:"default_retry_after"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Directory string        `yaml:"directory" json:"directory"`
	ChunkSize int           `yaml:"chunk_size" json:"chunk_size"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// ServerConfig holds the REST server bind address
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// Addr returns host:port for net/http
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultUserAgent is a desktop browser string; the site serves the full page only to browsers
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Lucida: LucidaConfig{
			BaseURL:   "https://lucida.to",
			UserAgent: DefaultUserAgent,
			Timeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			RequestsPerHour:   500,
			MinDelay:          2 * time.Second,
			MaxBackoff:        5 * time.Minute,
			DefaultRetryAfter: 60 * time.Second,
		},
		Download: DownloadConfig{
			Directory: "./downloads",
			ChunkSize: 8192,
			Timeout:   10 * time.Minute,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if baseURL := os.Getenv("LUCIDA_BASE_URL"); baseURL != "" {
		c.Lucida.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if userAgent := os.Getenv("LUCIDA_USER_AGENT"); userAgent != "" {
		c.Lucida.UserAgent = userAgent
	}
	if timeout := os.Getenv("REQUEST_TIMEOUT"); timeout != "" {
		d, err := parseSeconds(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
		} else {
			c.Lucida.Timeout = d
		}
	}

	// Rate limiting
	if rpm := os.Getenv("LUCIDA_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("LUCIDA_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if rph := os.Getenv("LUCIDA_REQUESTS_PER_HOUR"); rph != "" {
		val, err := strconv.Atoi(rph)
		if err != nil {
			errs = append(errs, fmt.Errorf("LUCIDA_REQUESTS_PER_HOUR: %w", err))
		} else {
			c.RateLimit.RequestsPerHour = val
		}
	}
	if minDelay := os.Getenv("LUCIDA_MIN_DELAY"); minDelay != "" {
		d, err := parseSeconds(minDelay)
		if err != nil {
			errs = append(errs, fmt.Errorf("LUCIDA_MIN_DELAY: %w", err))
		} else {
			c.RateLimit.MinDelay = d
		}
	}

	if dir := os.Getenv("DOWNLOAD_DIR"); dir != "" {
		c.Download.Directory = dir
	}

	// Server
	if host := os.Getenv("API_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("API_PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			errs = append(errs, fmt.Errorf("API_PORT: %w", err))
		} else {
			c.Server.Port = val
		}
	}

	if logLevel := os.Getenv("LUCIDA_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// parseSeconds accepts a bare number of seconds ("30", "1.5") or a Go duration ("30s")
func parseSeconds(value string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(value)
}

// LoadFromFile loads configuration from a YAML file
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

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".lucida.yaml",
		".lucida.yml",
		filepath.Join(home, ".config", "lucida", "config.yaml"),
		filepath.Join(home, ".lucida.yaml"),
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

	if c.Lucida.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	} else if u, err := url.Parse(c.Lucida.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base URL %q must be absolute", c.Lucida.BaseURL))
	}
	if c.Lucida.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.RequestsPerHour <= 0 {
		errs = append(errs, errors.New("requests per hour must be positive"))
	}
	if c.RateLimit.MinDelay < 0 {
		errs = append(errs, errors.New("min delay cannot be negative"))
	}
	if c.RateLimit.MaxBackoff < c.RateLimit.MinDelay {
		errs = append(errs, errors.New("max backoff must not be shorter than min delay"))
	}
	if c.RateLimit.DefaultRetryAfter < 0 {
		errs = append(errs, errors.New("default retry-after cannot be negative"))
	}

	// Validate download settings
	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %d", c.Server.Port))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}
	validFormats := map[string]bool{"": true, "console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, errors.New("invalid log format"))
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

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present with a non-zero value override.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Lucida.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Lucida.Timeout = timeout
	}
	if outputDir, ok := flags["output-dir"].(string); ok && outputDir != "" {
		c.Download.Directory = outputDir
	}
	if host, ok := flags["host"].(string); ok && host != "" {
		c.Server.Host = host
	}
	if port, ok := flags["port"].(int); ok && port > 0 {
		c.Server.Port = port
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".lucida.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
