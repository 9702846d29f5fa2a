package initcmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "cw_live_xxxxxxxxxxxx", false},
		{"valid key long", "cw_test_abcdefghijklmnopqrstuvwxyz1234567890", false},
		{"empty key", "", true},
		{"missing prefix", "xxxxxxxxxxxx", true},
		{"wrong prefix", "sk_live_xxxxxxxxxxxx", true},
		{"too short", "cw_xx", true},
		{"just prefix", "cw_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		wantErr  bool
	}{
		{"valid https", "https://api.certwatch.app", false},
		{"valid http", "http://localhost:3000", false},
		{"valid with path", "https://api.certwatch.app/v1", false},
		{"empty", "", true},
		{"missing scheme", "api.certwatch.app", true},
		{"ftp scheme", "ftp://example.com", true},
		{"invalid url", "not a url", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEndpoint(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassCriterion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty passes any issuer", "", false},
		{"simple", "Let's Encrypt", false},
		{"exactly 256", strings.Repeat("a", 256), false},
		{"too long", strings.Repeat("a", 257), true},
		{"with newline", "Digi\nCert", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassCriterion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassCriterion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDurations(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		input    string
		wantErr  bool
	}{
		{"timeout seconds", ValidateTimeout, "5s", false},
		{"timeout millis", ValidateTimeout, "1500ms", false},
		{"timeout too short", ValidateTimeout, "50ms", true},
		{"timeout bare number", ValidateTimeout, "5", true},
		{"delay zero", ValidateRetryDelay, "0s", false},
		{"delay negative", ValidateRetryDelay, "-1s", true},
		{"delay garbage", ValidateRetryDelay, "soon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCounts(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		input    string
		wantErr  bool
	}{
		{"retries single attempt", ValidateMaxRetries, "1", false},
		{"retries max", ValidateMaxRetries, "10", false},
		{"retries zero", ValidateMaxRetries, "0", true},
		{"retries too many", ValidateMaxRetries, "11", true},
		{"workers default", ValidateMaxWorkers, "100", false},
		{"workers padded", ValidateMaxWorkers, " 8 ", false},
		{"workers too many", ValidateMaxWorkers, "1001", true},
		{"workers not a number", ValidateMaxWorkers, "lots", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateListen(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"port only", ":8080", false},
		{"host and port", "127.0.0.1:9090", false},
		{"ipv6", "[::1]:8080", false},
		{"empty", "", true},
		{"no port", "localhost", true},
		{"port out of range", ":70000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateListen(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateListen(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := WriteConfig(mustDefaultConfig(t), file); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid relative", "./certcheck.yaml", false},
		{"valid current dir", "certcheck.yaml", false},
		{"missing directory", filepath.Join(t.TempDir(), "new", "certcheck.yaml"), false},
		{"parent is a file", filepath.Join(file, "certcheck.yaml"), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfigPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
