// Package config handles configuration loading for marketscan.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Scan     ScanConfig     `mapstructure:"scan"     yaml:"scan"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// ScanConfig holds screener scan settings.
type ScanConfig struct {
	Exchange string `mapstructure:"exchange" yaml:"exchange"`
	Pages    int    `mapstructure:"pages"    yaml:"pages"`
	DelayMs  int    `mapstructure:"delay_ms" yaml:"delay_ms"` // politeness pause between pages
}

// AnalysisConfig holds analysis engine settings.
type AnalysisConfig struct {
	MetricsCacheTTL int    `mapstructure:"metrics_cache_ttl" yaml:"metrics_cache_ttl"` // seconds
	HistoryWindow   string `mapstructure:"history_window"    yaml:"history_window"`    // e.g. "1y", "6mo"
	NewsLimit       int    `mapstructure:"news_limit"        yaml:"news_limit"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.marketscan/config.yaml (home directory)
//  3. /etc/marketscan/config.yaml (system)
//
// Environment variables override config file values.
// Format: MARKETSCAN_<SECTION>_<KEY>, e.g., MARKETSCAN_API_PORT
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".marketscan"))
	v.AddConfigPath("/etc/marketscan")

	v.SetEnvPrefix("MARKETSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("MARKETSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would silently misbehave at runtime.
func (c *Config) Validate() error {
	if c.Scan.Pages <= 0 {
		return fmt.Errorf("scan.pages must be positive, got %d", c.Scan.Pages)
	}
	if c.Scan.DelayMs < 0 {
		return fmt.Errorf("scan.delay_ms must not be negative, got %d", c.Scan.DelayMs)
	}
	if c.Analysis.MetricsCacheTTL <= 0 {
		return fmt.Errorf("analysis.metrics_cache_ttl must be positive, got %d", c.Analysis.MetricsCacheTTL)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Scan defaults
	v.SetDefault("scan.exchange", "")
	v.SetDefault("scan.pages", 5)
	v.SetDefault("scan.delay_ms", 500)

	// Analysis defaults
	v.SetDefault("analysis.metrics_cache_ttl", 1800) // 30 minutes
	v.SetDefault("analysis.history_window", "1y")
	v.SetDefault("analysis.news_limit", 10)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
