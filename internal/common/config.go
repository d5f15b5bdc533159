package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for TradeMind
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Market      MarketConfig  `toml:"market"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the two-tier persistence configuration: a remote
// SurrealDB primary and a local BadgerHold fallback cache.
type StorageConfig struct {
	Remote RemoteStorageConfig `toml:"remote"`
	Local  LocalStorageConfig  `toml:"local"`
}

// RemoteStorageConfig holds SurrealDB connection settings. An empty address
// disables the remote tier entirely; the local cache then serves all
// operations.
type RemoteStorageConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Timeout   string `toml:"timeout"` // per-operation deadline before falling back
}

// GetTimeout parses and returns the per-operation remote timeout.
func (c *RemoteStorageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// LocalStorageConfig holds the local durable cache path.
type LocalStorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Finnhub FinnhubConfig `toml:"finnhub"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// FinnhubConfig holds Finnhub API configuration
type FinnhubConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *FinnhubConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// MarketConfig tunes the background price refresher.
type MarketConfig struct {
	RefreshInterval string `toml:"refresh_interval"`
}

// GetRefreshInterval parses and returns the refresh interval.
func (c *MarketConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3001,
		},
		Storage: StorageConfig{
			Remote: RemoteStorageConfig{
				Namespace: "trademind",
				Database:  "trademind",
				Timeout:   "3s",
			},
			Local: LocalStorageConfig{
				Path: "data/local",
			},
		},
		Clients: ClientsConfig{
			Finnhub: FinnhubConfig{
				BaseURL:   "https://finnhub.io/api/v1",
				RateLimit: 10,
				Timeout:   "10s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash",
			},
		},
		Market: MarketConfig{
			RefreshInterval: "5m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRADEMIND_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TRADEMIND_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("TRADEMIND_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("TRADEMIND_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if addr := os.Getenv("TRADEMIND_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Remote.Address = addr
	}
	if user := os.Getenv("TRADEMIND_STORAGE_USERNAME"); user != "" {
		config.Storage.Remote.Username = user
	}
	if pass := os.Getenv("TRADEMIND_STORAGE_PASSWORD"); pass != "" {
		config.Storage.Remote.Password = pass
	}
	if path := os.Getenv("TRADEMIND_DATA_PATH"); path != "" {
		config.Storage.Local.Path = path
	}

	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		config.Clients.Finnhub.APIKey = key
	}
	if key := os.Getenv("TRADEMIND_FINNHUB_API_KEY"); key != "" {
		config.Clients.Finnhub.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}
	if key := os.Getenv("TRADEMIND_GEMINI_API_KEY"); key != "" {
		config.Clients.Gemini.APIKey = key
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// RemoteStorageEnabled reports whether a remote primary store is configured.
func (c *Config) RemoteStorageEnabled() bool {
	return strings.TrimSpace(c.Storage.Remote.Address) != ""
}
