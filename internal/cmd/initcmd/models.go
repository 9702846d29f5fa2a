// Package initcmd provides the interactive init command wizard.
package initcmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/certwatch-app/cw-certcheck/internal/config"
)

// WizardState holds all collected input during the wizard.
type WizardState struct {
	// Output configuration
	ConfigPath    string
	OverwriteFile bool

	// Checker configuration
	PassCriterion string
	Timeout       string
	RetryDelay    string
	MaxRetries    string
	MaxWorkers    string
	RetryPolicy   string
	EnforceExpiry bool

	// Server configuration
	Listen      string
	StoreDriver string
	StorePath   string

	// Report configuration
	EnableReport   bool
	ReportEndpoint string
	ReportKey      string

	LogLevel string
}

// NewWizardState creates a new WizardState with sensible defaults.
func NewWizardState() *WizardState {
	return &WizardState{
		ConfigPath:     "./certcheck.yaml",
		Timeout:        "5s",
		RetryDelay:     "500ms",
		MaxRetries:     "2",
		MaxWorkers:     "100",
		RetryPolicy:    config.RetryPolicyAll,
		EnforceExpiry:  true,
		Listen:         ":8080",
		StoreDriver:    config.StoreMemory,
		StorePath:      "./certcheck.db",
		ReportEndpoint: "https://api.certwatch.app",
		LogLevel:       "info",
	}
}

// ToConfig converts the wizard state to a config.Config struct.
func (s *WizardState) ToConfig() (*config.Config, error) {
	timeout, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout: %w", err)
	}

	retryDelay, err := time.ParseDuration(s.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry delay: %w", err)
	}

	maxRetries, err := strconv.Atoi(strings.TrimSpace(s.MaxRetries))
	if err != nil {
		return nil, fmt.Errorf("invalid max retries: %w", err)
	}

	maxWorkers, err := strconv.Atoi(strings.TrimSpace(s.MaxWorkers))
	if err != nil {
		return nil, fmt.Errorf("invalid max workers: %w", err)
	}

	cfg := &config.Config{
		Checker: config.CheckerConfig{
			PassCriterion:   strings.TrimSpace(s.PassCriterion),
			RetryPolicy:     s.RetryPolicy,
			Timeout:         timeout,
			RetryDelay:      retryDelay,
			MaxRetries:      maxRetries,
			MaxWorkers:      maxWorkers,
			Port:            443,
			EnforceValidity: s.EnforceExpiry,
		},
		Server: config.ServerConfig{
			Listen:          s.Listen,
			MaxUploadBytes:  10 << 20,
			RunTTL:          time.Hour,
			ShutdownTimeout: 10 * time.Second,
			MaxHosts:        10000,
			Metrics:         true,
		},
		Store: config.StoreConfig{
			Driver: s.StoreDriver,
		},
		Log: config.LogConfig{
			Level: s.LogLevel,
		},
	}

	if s.StoreDriver == config.StoreSQLite {
		cfg.Store.Path = s.StorePath
	}

	if s.EnableReport {
		cfg.Report = config.ReportConfig{
			Endpoint: strings.TrimRight(s.ReportEndpoint, "/"),
			Key:      s.ReportKey,
			Timeout:  30 * time.Second,
		}
	}

	return cfg, nil
}
