package initcmd

import (
	"testing"
	"time"

	"github.com/certwatch-app/cw-certcheck/internal/config"
)

func TestNewWizardState(t *testing.T) {
	state := NewWizardState()

	if state.ConfigPath != "./certcheck.yaml" {
		t.Errorf("expected ConfigPath './certcheck.yaml', got %q", state.ConfigPath)
	}

	if state.Timeout != "5s" {
		t.Errorf("expected Timeout '5s', got %q", state.Timeout)
	}

	if state.MaxRetries != "2" {
		t.Errorf("expected MaxRetries '2', got %q", state.MaxRetries)
	}

	if state.RetryPolicy != config.RetryPolicyAll {
		t.Errorf("expected RetryPolicy %q, got %q", config.RetryPolicyAll, state.RetryPolicy)
	}

	if state.StoreDriver != config.StoreMemory {
		t.Errorf("expected StoreDriver %q, got %q", config.StoreMemory, state.StoreDriver)
	}

	if !state.EnforceExpiry {
		t.Error("expected EnforceExpiry to default to true")
	}

	if state.EnableReport {
		t.Error("expected reporting to be disabled by default")
	}
}

func TestNewWizardState_ProducesValidConfig(t *testing.T) {
	cfg, err := NewWizardState().ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default wizard config is invalid: %v", err)
	}
}

func TestWizardState_ToConfig(t *testing.T) {
	state := NewWizardState()
	state.PassCriterion = "  Let's Encrypt "
	state.Timeout = "3s"
	state.RetryDelay = "1s"
	state.MaxRetries = "4"
	state.MaxWorkers = "25"
	state.RetryPolicy = config.RetryPolicyTransient
	state.EnforceExpiry = false
	state.StoreDriver = config.StoreSQLite
	state.StorePath = "/var/lib/certcheck/runs.db"
	state.EnableReport = true
	state.ReportEndpoint = "https://api.certwatch.app/"
	state.ReportKey = "cw_test_key_123"
	state.LogLevel = "debug"

	cfg, err := state.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}

	// Check checker config
	if cfg.Checker.PassCriterion != "Let's Encrypt" {
		t.Errorf("expected trimmed PassCriterion, got %q", cfg.Checker.PassCriterion)
	}
	if cfg.Checker.Timeout != 3*time.Second {
		t.Errorf("expected Timeout 3s, got %v", cfg.Checker.Timeout)
	}
	if cfg.Checker.RetryDelay != time.Second {
		t.Errorf("expected RetryDelay 1s, got %v", cfg.Checker.RetryDelay)
	}
	if cfg.Checker.MaxRetries != 4 {
		t.Errorf("expected MaxRetries 4, got %d", cfg.Checker.MaxRetries)
	}
	if cfg.Checker.MaxWorkers != 25 {
		t.Errorf("expected MaxWorkers 25, got %d", cfg.Checker.MaxWorkers)
	}
	if cfg.Checker.RetryPolicy != config.RetryPolicyTransient {
		t.Errorf("expected RetryPolicy transient, got %q", cfg.Checker.RetryPolicy)
	}
	if cfg.Checker.EnforceValidity {
		t.Error("expected EnforceValidity false")
	}

	// Check store and report
	if cfg.Store.Path != "/var/lib/certcheck/runs.db" {
		t.Errorf("expected Store.Path to be kept for sqlite, got %q", cfg.Store.Path)
	}
	if cfg.Report.Endpoint != "https://api.certwatch.app" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Report.Endpoint)
	}
	if cfg.Report.Key != "cw_test_key_123" {
		t.Errorf("expected Report.Key, got %q", cfg.Report.Key)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected Log.Level 'debug', got %q", cfg.Log.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestWizardState_ToConfig_ReportDisabled(t *testing.T) {
	state := NewWizardState()
	state.ReportKey = "cw_test_key_123"

	cfg, err := state.ToConfig()
	if err != nil {
		t.Fatalf("ToConfig() error = %v", err)
	}

	if cfg.ReportEnabled() {
		t.Error("expected reporting disabled when EnableReport is false")
	}
	if cfg.Store.Path != "" {
		t.Errorf("expected no store path for memory driver, got %q", cfg.Store.Path)
	}
}

func TestWizardState_ToConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WizardState)
	}{
		{"timeout", func(s *WizardState) { s.Timeout = "soon" }},
		{"retry delay", func(s *WizardState) { s.RetryDelay = "later" }},
		{"max retries", func(s *WizardState) { s.MaxRetries = "two" }},
		{"max workers", func(s *WizardState) { s.MaxWorkers = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewWizardState()
			tt.mutate(state)
			if _, err := state.ToConfig(); err == nil {
				t.Errorf("expected error for invalid %s", tt.name)
			}
		})
	}
}

func TestStateFromEnv(t *testing.T) {
	env := map[string]string{
		"CW_PASS_CRITERION":   "DigiCert",
		"CW_MAX_WORKERS":      "10",
		"CW_STORE_DRIVER":     "sqlite",
		"CW_STORE_PATH":       "./runs.db",
		"CW_API_KEY":          "cw_live_abcdefgh",
		"CW_ENFORCE_VALIDITY": "false",
	}

	state, err := stateFromEnv(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("stateFromEnv() error = %v", err)
	}

	if state.PassCriterion != "DigiCert" {
		t.Errorf("expected PassCriterion 'DigiCert', got %q", state.PassCriterion)
	}
	if state.MaxWorkers != "10" {
		t.Errorf("expected MaxWorkers '10', got %q", state.MaxWorkers)
	}
	if state.Timeout != "5s" {
		t.Errorf("expected default Timeout to be kept, got %q", state.Timeout)
	}
	if !state.EnableReport || state.ReportKey != "cw_live_abcdefgh" {
		t.Errorf("expected reporting enabled with key, got %v %q", state.EnableReport, state.ReportKey)
	}
	if state.EnforceExpiry {
		t.Error("expected EnforceExpiry false")
	}
}

func TestStateFromEnv_InvalidKey(t *testing.T) {
	env := map[string]string{"CW_API_KEY": "sk_live_abcdefgh"}

	if _, err := stateFromEnv(func(k string) string { return env[k] }); err == nil {
		t.Error("expected error for API key without cw_ prefix")
	}
}
