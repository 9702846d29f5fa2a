package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := validConfig(t)

	if cfg.Checker.Timeout != 5*time.Second {
		t.Errorf("Checker.Timeout = %v, want 5s", cfg.Checker.Timeout)
	}
	if cfg.Checker.MaxRetries != 2 {
		t.Errorf("Checker.MaxRetries = %v, want 2", cfg.Checker.MaxRetries)
	}
	if cfg.Checker.RetryDelay != 500*time.Millisecond {
		t.Errorf("Checker.RetryDelay = %v, want 500ms", cfg.Checker.RetryDelay)
	}
	if cfg.Checker.MaxWorkers != 100 {
		t.Errorf("Checker.MaxWorkers = %v, want 100", cfg.Checker.MaxWorkers)
	}
	if cfg.Checker.Port != 443 {
		t.Errorf("Checker.Port = %v, want 443", cfg.Checker.Port)
	}
	if cfg.Checker.RetryPolicy != RetryPolicyAll {
		t.Errorf("Checker.RetryPolicy = %v, want all", cfg.Checker.RetryPolicy)
	}
	if !cfg.Checker.EnforceValidity {
		t.Error("Checker.EnforceValidity = false, want true")
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("Server.Listen = %v, want :8080", cfg.Server.Listen)
	}
	if cfg.Server.MaxUploadBytes != 10<<20 {
		t.Errorf("Server.MaxUploadBytes = %v, want 10MiB", cfg.Server.MaxUploadBytes)
	}
	if cfg.Server.RunTTL != time.Hour {
		t.Errorf("Server.RunTTL = %v, want 1h", cfg.Server.RunTTL)
	}
	if !cfg.Server.Metrics {
		t.Error("Server.Metrics = false, want true")
	}
	if cfg.Store.Driver != StoreMemory {
		t.Errorf("Store.Driver = %v, want memory", cfg.Store.Driver)
	}
	if cfg.Report.Timeout != 30*time.Second {
		t.Errorf("Report.Timeout = %v, want 30s", cfg.Report.Timeout)
	}
	if cfg.ReportEnabled() {
		t.Error("ReportEnabled() = true, want false by default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %v, want info", cfg.Log.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults error = %v, want nil", err)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	v := viper.New()
	v.Set("checker.timeout", "2s")
	v.Set("checker.max_retries", 3)
	v.Set("checker.pass_criterion", "DigiCert")
	v.Set("checker.retry_policy", " Transient ")
	v.Set("checker.enforce_validity", false)
	v.Set("server.listen", "127.0.0.1:9000")
	v.Set("store.driver", "SQLite")
	v.Set("store.path", "/tmp/runs.db")
	v.Set("report.endpoint", "https://api.certwatch.app")
	v.Set("report.key", "cw_test")
	v.Set("log.level", "DEBUG")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Checker.Timeout != 2*time.Second {
		t.Errorf("Checker.Timeout = %v, want 2s", cfg.Checker.Timeout)
	}
	if cfg.Checker.MaxRetries != 3 {
		t.Errorf("Checker.MaxRetries = %v, want 3", cfg.Checker.MaxRetries)
	}
	if cfg.Checker.PassCriterion != "DigiCert" {
		t.Errorf("Checker.PassCriterion = %v, want DigiCert", cfg.Checker.PassCriterion)
	}
	if cfg.Checker.RetryPolicy != RetryPolicyTransient {
		t.Errorf("Checker.RetryPolicy = %v, want transient", cfg.Checker.RetryPolicy)
	}
	if cfg.Checker.EnforceValidity {
		t.Error("Checker.EnforceValidity = true, want false")
	}
	if cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("Server.Listen = %v, want 127.0.0.1:9000", cfg.Server.Listen)
	}
	if cfg.Store.Driver != StoreSQLite {
		t.Errorf("Store.Driver = %v, want sqlite", cfg.Store.Driver)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %v, want debug", cfg.Log.Level)
	}
	if !cfg.ReportEnabled() {
		t.Error("ReportEnabled() = false, want true")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"timeout too short", func(c *Config) { c.Checker.Timeout = time.Millisecond }, "checker: timeout"},
		{"zero retries", func(c *Config) { c.Checker.MaxRetries = 0 }, "checker: max_retries"},
		{"negative delay", func(c *Config) { c.Checker.RetryDelay = -time.Second }, "checker: retry_delay"},
		{"zero workers", func(c *Config) { c.Checker.MaxWorkers = 0 }, "checker: max_workers"},
		{"bad port", func(c *Config) { c.Checker.Port = 70000 }, "checker: port"},
		{"bad retry policy", func(c *Config) { c.Checker.RetryPolicy = "sometimes" }, "checker: retry_policy"},
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, "server: listen"},
		{"zero max hosts", func(c *Config) { c.Server.MaxHosts = 0 }, "server: max_hosts"},
		{"short ttl", func(c *Config) { c.Server.RunTTL = time.Second }, "server: run_ttl"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store: driver"},
		{"sqlite without path", func(c *Config) { c.Store.Driver = StoreSQLite; c.Store.Path = "" }, "store: path"},
		{"report bad scheme", func(c *Config) { c.Report.Endpoint = "ftp://x"; c.Report.Key = "cw_x" }, "report: endpoint"},
		{"report missing key", func(c *Config) { c.Report.Endpoint = "https://x" }, "report: key is required"},
		{"report bad key", func(c *Config) { c.Report.Endpoint = "https://x"; c.Report.Key = "abc" }, "report: key must start"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log: level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
