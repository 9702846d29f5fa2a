package initcmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/certwatch-app/cw-certcheck/internal/config"
)

const fileHeader = `# cw-certcheck configuration
# Generated by 'cw-certcheck init'. Every key can be overridden with a CW_ environment variable.
`

// fileConfig mirrors config.Config with YAML keys and durations as strings.
type fileConfig struct {
	Checker fileChecker `yaml:"checker"`
	Server  fileServer  `yaml:"server"`
	Store   fileStore   `yaml:"store"`
	Report  *fileReport `yaml:"report,omitempty"`
	Log     fileLog     `yaml:"log"`
}

type fileChecker struct {
	PassCriterion   string `yaml:"pass_criterion"`
	Timeout         string `yaml:"timeout"`
	MaxRetries      int    `yaml:"max_retries"`
	RetryDelay      string `yaml:"retry_delay"`
	RetryPolicy     string `yaml:"retry_policy"`
	MaxWorkers      int    `yaml:"max_workers"`
	Port            int    `yaml:"port"`
	EnforceValidity bool   `yaml:"enforce_validity"`
}

type fileServer struct {
	Listen          string `yaml:"listen"`
	MaxHosts        int    `yaml:"max_hosts"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
	RunTTL          string `yaml:"run_ttl"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	Metrics         bool   `yaml:"metrics"`
}

type fileStore struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
}

type fileReport struct {
	Endpoint string `yaml:"endpoint"`
	Key      string `yaml:"key"`
	Timeout  string `yaml:"timeout"`
}

type fileLog struct {
	Level string `yaml:"level"`
}

func toFileConfig(cfg *config.Config) fileConfig {
	fc := fileConfig{
		Checker: fileChecker{
			PassCriterion:   cfg.Checker.PassCriterion,
			Timeout:         cfg.Checker.Timeout.String(),
			MaxRetries:      cfg.Checker.MaxRetries,
			RetryDelay:      cfg.Checker.RetryDelay.String(),
			RetryPolicy:     cfg.Checker.RetryPolicy,
			MaxWorkers:      cfg.Checker.MaxWorkers,
			Port:            cfg.Checker.Port,
			EnforceValidity: cfg.Checker.EnforceValidity,
		},
		Server: fileServer{
			Listen:          cfg.Server.Listen,
			MaxHosts:        cfg.Server.MaxHosts,
			MaxUploadBytes:  cfg.Server.MaxUploadBytes,
			RunTTL:          cfg.Server.RunTTL.String(),
			ShutdownTimeout: cfg.Server.ShutdownTimeout.String(),
			Metrics:         cfg.Server.Metrics,
		},
		Store: fileStore{
			Driver: cfg.Store.Driver,
			Path:   cfg.Store.Path,
		},
		Log: fileLog{Level: cfg.Log.Level},
	}

	if cfg.ReportEnabled() {
		fc.Report = &fileReport{
			Endpoint: cfg.Report.Endpoint,
			Key:      cfg.Report.Key,
			Timeout:  cfg.Report.Timeout.String(),
		}
	}

	return fc
}

// MarshalConfig renders cfg as a commented YAML document.
func MarshalConfig(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toFileConfig(cfg)); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteConfig writes cfg to path, creating parent directories as needed. The file
// may hold an API key, so it is only readable by its owner.
func WriteConfig(cfg *config.Config, path string) error {
	data, err := MarshalConfig(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
