// Package config handles configuration loading and validation for the certificate checker.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported values for enumerated settings.
const (
	RetryPolicyAll       = "all"
	RetryPolicyTransient = "transient"

	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config represents the complete checker configuration
type Config struct {
	Checker CheckerConfig `mapstructure:"checker"`
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Report  ReportConfig  `mapstructure:"report"`
	Log     LogConfig     `mapstructure:"log"`
}

// CheckerConfig contains probe engine settings
// Fields are ordered for optimal memory alignment
type CheckerConfig struct {
	PassCriterion   string        `mapstructure:"pass_criterion"`
	RetryPolicy     string        `mapstructure:"retry_policy"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MaxWorkers      int           `mapstructure:"max_workers"`
	Port            int           `mapstructure:"port"`
	EnforceValidity bool          `mapstructure:"enforce_validity"`
}

// ServerConfig contains HTTP API settings
// Fields are ordered for optimal memory alignment
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	RunTTL          time.Duration `mapstructure:"run_ttl"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHosts        int           `mapstructure:"max_hosts"`
	Metrics         bool          `mapstructure:"metrics"`
}

// StoreConfig selects where completed runs are kept
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// ReportConfig contains the optional report sink settings
type ReportConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Key      string        `mapstructure:"key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from viper
func Load(v *viper.Viper) (*Config, error) {
	// Set defaults
	setDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Checker.RetryPolicy = strings.ToLower(strings.TrimSpace(cfg.Checker.RetryPolicy))
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Checker defaults
	v.SetDefault("checker.timeout", "5s")
	v.SetDefault("checker.max_retries", 2)
	v.SetDefault("checker.retry_delay", "500ms")
	v.SetDefault("checker.max_workers", 100)
	v.SetDefault("checker.port", 443)
	v.SetDefault("checker.pass_criterion", "")
	v.SetDefault("checker.retry_policy", RetryPolicyAll)
	v.SetDefault("checker.enforce_validity", true)

	// Server defaults
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.max_hosts", 10000)
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.run_ttl", "1h")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.metrics", true)

	// Store defaults
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.path", "./certcheck.db")

	// Report defaults
	v.SetDefault("report.endpoint", "")
	v.SetDefault("report.timeout", "30s")

	// Log defaults
	v.SetDefault("log.level", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateChecker(); err != nil {
		return fmt.Errorf("checker: %w", err)
	}

	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := c.validateStore(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := c.validateReport(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("log: level must be one of: debug, info, warn, error")
	}

	return nil
}

func (c *Config) validateChecker() error {
	if c.Checker.Timeout < 100*time.Millisecond {
		return fmt.Errorf("timeout must be at least 100ms")
	}

	if c.Checker.MaxRetries < 1 || c.Checker.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 1 and 10")
	}

	if c.Checker.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative")
	}

	if c.Checker.MaxWorkers < 1 || c.Checker.MaxWorkers > 1000 {
		return fmt.Errorf("max_workers must be between 1 and 1000")
	}

	if c.Checker.Port < 1 || c.Checker.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if c.Checker.RetryPolicy != RetryPolicyAll && c.Checker.RetryPolicy != RetryPolicyTransient {
		return fmt.Errorf("retry_policy must be one of: all, transient")
	}

	if len(c.Checker.PassCriterion) > 256 {
		return fmt.Errorf("pass_criterion must be at most 256 characters")
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("listen is required")
	}

	if c.Server.MaxHosts < 1 {
		return fmt.Errorf("max_hosts must be at least 1")
	}

	if c.Server.MaxUploadBytes < 1024 {
		return fmt.Errorf("max_upload_bytes must be at least 1024")
	}

	if c.Server.RunTTL < time.Minute {
		return fmt.Errorf("run_ttl must be at least 1 minute")
	}

	if c.Server.ShutdownTimeout < time.Second {
		return fmt.Errorf("shutdown_timeout must be at least 1 second")
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreMemory:
		return nil
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("path is required for the sqlite driver")
		}
		return nil
	default:
		return fmt.Errorf("driver must be one of: memory, sqlite")
	}
}

func (c *Config) validateReport() error {
	if c.Report.Endpoint == "" {
		return nil
	}

	u, err := url.Parse(c.Report.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("endpoint must use http or https scheme")
	}

	if c.Report.Key == "" {
		return fmt.Errorf("key is required when endpoint is set")
	}

	if !strings.HasPrefix(c.Report.Key, "cw_") {
		return fmt.Errorf("key must start with 'cw_' prefix")
	}

	if c.Report.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second")
	}

	return nil
}

// ReportEnabled reports whether completed runs are sent to a report endpoint.
func (c *Config) ReportEnabled() bool {
	return c.Report.Endpoint != ""
}
