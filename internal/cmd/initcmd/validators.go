package initcmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ValidateConfigPath validates the output file path.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	// Check if directory exists or can be created
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				// Directory doesn't exist, check if we can create it
				return nil // We'll create it during write
			}
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("'%s' is not a directory", dir)
		}
	}

	return nil
}

// ValidateAPIKey validates the API key format.
func ValidateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("API key is required")
	}

	if !strings.HasPrefix(key, "cw_") {
		return fmt.Errorf("API key must start with 'cw_'")
	}

	if len(key) < 10 {
		return fmt.Errorf("API key appears too short")
	}

	return nil
}

// ValidateEndpoint validates the report endpoint URL.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use http or https")
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// ValidatePassCriterion validates the default issuer substring.
func ValidatePassCriterion(criterion string) error {
	if len(criterion) > 256 {
		return fmt.Errorf("pass criterion must be at most 256 characters")
	}

	if strings.ContainsAny(criterion, "\n\r\t") {
		return fmt.Errorf("pass criterion cannot contain newlines or tabs")
	}

	return nil
}

// ValidateTimeout validates a probe timeout duration.
func ValidateTimeout(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration like 5s or 1500ms")
	}

	if d < 100*time.Millisecond {
		return fmt.Errorf("timeout must be at least 100ms")
	}

	return nil
}

// ValidateRetryDelay validates the pause between attempts.
func ValidateRetryDelay(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration like 500ms or 1s")
	}

	if d < 0 {
		return fmt.Errorf("retry delay must not be negative")
	}

	return nil
}

// ValidateMaxRetries validates the attempt count.
func ValidateMaxRetries(s string) error {
	return validateRange(s, "max retries", 1, 10)
}

// ValidateMaxWorkers validates the worker pool size.
func ValidateMaxWorkers(s string) error {
	return validateRange(s, "max workers", 1, 1000)
}

// ValidateListen validates the HTTP listen address.
func ValidateListen(addr string) error {
	if addr == "" {
		return fmt.Errorf("listen address is required")
	}

	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return fmt.Errorf("listen address must include a port (e.g., :8080)")
	}

	return validateRange(addr[i+1:], "port", 1, 65535)
}

// ValidateStorePath validates the SQLite database path.
func ValidateStorePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("database path is required")
	}
	return ValidateConfigPath(path)
}

func validateRange(s, name string, lo, hi int) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%s must be a number", name)
	}

	if n < lo || n > hi {
		return fmt.Errorf("%s must be between %d and %d", name, lo, hi)
	}

	return nil
}
