// Package config loads swift-prompter configuration from defaults, a config
// file, a .env file and SWIFT_PROMPTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "SWIFT_PROMPTER"

// Transports served by the MCP daemon.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the full application configuration.
type Config struct {
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Context   ContextConfig   `mapstructure:"context" yaml:"context"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// TemplatesConfig controls where templates are loaded from.
type TemplatesConfig struct {
	// Dirs are scanned in order; later directories override earlier ones.
	Dirs []string `mapstructure:"dirs" yaml:"dirs"`

	// SearchPaths prepends the system, user and project template
	// directories to Dirs.
	SearchPaths bool `mapstructure:"search_paths" yaml:"search_paths"`

	// IncludeBuiltin loads the bundled templates before Dirs.
	IncludeBuiltin bool `mapstructure:"include_builtin" yaml:"include_builtin"`

	// Watch reloads the catalog when files under Dirs change.
	Watch bool `mapstructure:"watch" yaml:"watch"`

	// CacheSize is the number of cached query results. Zero disables it.
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
}

// ContextConfig sizes the usage tracker.
type ContextConfig struct {
	// Model, when set, selects the capacity and takes precedence over
	// TotalCapacity.
	Model            string  `mapstructure:"model" yaml:"model"`
	TotalCapacity    int64   `mapstructure:"total_capacity" yaml:"total_capacity"`
	InitialUsage     int64   `mapstructure:"initial_usage" yaml:"initial_usage"`
	OptimalRemaining float64 `mapstructure:"optimal_remaining" yaml:"optimal_remaining"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `mapstructure:"name" yaml:"name"`
	Transport string `mapstructure:"transport" yaml:"transport"`
	HTTPAddr  string `mapstructure:"http_addr" yaml:"http_addr"`

	// RateLimit throttles tool calls per tool.
	RateLimit bool `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Dirs:           []string{"./templates"},
			SearchPaths:    true,
			IncludeBuiltin: true,
			CacheSize:      128,
		},
		Context: ContextConfig{
			TotalCapacity:    100000,
			OptimalRemaining: 0.3,
		},
		Server: ServerConfig{
			Name:      "swift-prompter-mcp-service",
			Transport: TransportStdio,
			HTTPAddr:  "127.0.0.1:8931",
			RateLimit: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/swift-prompter, falling back to
// ~/.config/swift-prompter.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "swift-prompter")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "swift-prompter")
}

// Load reads configuration. An explicit path must exist; without one the
// default config file is used when present. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if dir := DefaultConfigDir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("templates.dirs", cfg.Templates.Dirs)
	v.SetDefault("templates.search_paths", cfg.Templates.SearchPaths)
	v.SetDefault("templates.include_builtin", cfg.Templates.IncludeBuiltin)
	v.SetDefault("templates.watch", cfg.Templates.Watch)
	v.SetDefault("templates.cache_size", cfg.Templates.CacheSize)

	v.SetDefault("context.model", cfg.Context.Model)
	v.SetDefault("context.total_capacity", cfg.Context.TotalCapacity)
	v.SetDefault("context.initial_usage", cfg.Context.InitialUsage)
	v.SetDefault("context.optimal_remaining", cfg.Context.OptimalRemaining)

	v.SetDefault("server.name", cfg.Server.Name)
	v.SetDefault("server.transport", cfg.Server.Transport)
	v.SetDefault("server.http_addr", cfg.Server.HTTPAddr)
	v.SetDefault("server.rate_limit", cfg.Server.RateLimit)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

func (c *Config) normalize() {
	dirs := make([]string, 0, len(c.Templates.Dirs))
	for _, dir := range c.Templates.Dirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	c.Templates.Dirs = dirs
	c.Server.Transport = strings.ToLower(strings.TrimSpace(c.Server.Transport))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	validation := &models.ValidationErrors{}

	if c.Templates.CacheSize < 0 {
		validation.AddMessage("templates.cache_size", "must not be negative")
	}
	if c.Context.TotalCapacity < 0 {
		validation.AddMessage("context.total_capacity", "must not be negative")
	}
	if c.Context.InitialUsage < 0 {
		validation.AddMessage("context.initial_usage", "must not be negative")
	}
	if c.Context.OptimalRemaining < 0 || c.Context.OptimalRemaining > 1 {
		validation.Addf("context.optimal_remaining", "must be between 0 and 1, got %v", c.Context.OptimalRemaining)
	}

	if strings.TrimSpace(c.Server.Name) == "" {
		validation.AddMessage("server.name", "is required")
	}
	switch c.Server.Transport {
	case TransportStdio:
	case TransportHTTP:
		if strings.TrimSpace(c.Server.HTTPAddr) == "" {
			validation.AddMessage("server.http_addr", "is required for the http transport")
		}
	default:
		validation.Addf("server.transport", "must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Server.Transport)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		validation.Addf("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		validation.Addf("logging.format", "must be json or console, got %q", c.Logging.Format)
	}

	return validation.Err()
}
