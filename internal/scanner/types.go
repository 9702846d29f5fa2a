// Package scanner provides TLS certificate probing for batches of hosts.
package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Status is the pass/fail outcome of a probe.
type Status string

// Probe outcomes.
const (
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// TimestampLayout is the layout used for certificate validity and run timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// notAvailable is rendered for probes that produced no timing.
const notAvailable = "N/A"

// HostSpec is one input line after normalization
type HostSpec struct {
	Raw string
	// URL is the display form, e.g. https://example.com
	URL string
	// Host is the connectable host, possibly with a :port suffix
	Host string
}

// CertificateFacts contains the parsed leaf certificate fields
type CertificateFacts struct {
	Subject          string    `json:"subject"`
	Issuer           string    `json:"issuer"`
	IssuerCommonName string    `json:"issuer_common_name"`
	ValidFrom        string    `json:"valid_from"`
	ValidTo          string    `json:"valid_to"`
	NotBefore        time.Time `json:"-"`
	NotAfter         time.Time `json:"-"`
}

// ConnectionTime is a probe duration in milliseconds. Invalid values render as "N/A".
type ConnectionTime struct {
	Millis float64
	Valid  bool
}

// Millis returns a valid ConnectionTime for d, rounded to two decimals.
func Millis(d time.Duration) ConnectionTime {
	ms := float64(d) / float64(time.Millisecond)
	return ConnectionTime{Millis: math.Round(ms*100) / 100, Valid: true}
}

// String returns the value formatted for tabular output.
func (c ConnectionTime) String() string {
	if !c.Valid {
		return notAvailable
	}
	return strconv.FormatFloat(c.Millis, 'f', -1, 64)
}

// MarshalJSON encodes a number, or the string "N/A" when not valid.
func (c ConnectionTime) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte(`"` + notAvailable + `"`), nil
	}
	return json.Marshal(c.Millis)
}

// UnmarshalJSON accepts a number, a numeric string, or "N/A".
func (c *ConnectionTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ConnectionTime{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == notAvailable || s == "" {
			*c = ConnectionTime{}
			return nil
		}
		ms, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid connection time %q: %w", s, err)
		}
		*c = ConnectionTime{Millis: ms, Valid: true}
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid connection time: %w", err)
	}
	*c = ConnectionTime{Millis: ms, Valid: true}
	return nil
}

// Result is the outcome of probing a single host
// Fields are ordered for optimal memory alignment
type Result struct {
	Certificate      *CertificateFacts `json:"certificate,omitempty"`
	RawURL           string            `json:"raw_url"`
	NormalizedURL    string            `json:"normalized_url"`
	Status           Status            `json:"status"`
	Error            string            `json:"error"`
	ConnectionTimeMS ConnectionTime    `json:"connection_time_ms"`
	SequenceNo       int               `json:"sequence_no"`
}

// Passed reports whether the probe passed.
func (r *Result) Passed() bool {
	return r.Status == StatusPass
}

// RunSummary aggregates the results of one run
type RunSummary struct {
	ExceptionHistogram      map[string]int `json:"exception_histogram"`
	StartedAt               time.Time      `json:"started_at"`
	EndedAt                 time.Time      `json:"ended_at"`
	Total                   int            `json:"total"`
	PassCount               int            `json:"pass_count"`
	FailCount               int            `json:"fail_count"`
	AverageConnectionTimeMS float64        `json:"average_connection_time_ms"`
	DurationMS              float64        `json:"duration_ms"`
}

// Event is one element of a streaming run: either a result with progress, or the terminal summary.
type Event struct {
	Result   *Result     `json:"result,omitempty"`
	Summary  *RunSummary `json:"summary,omitempty"`
	Progress float64     `json:"progress_percent,omitempty"`
	Complete bool        `json:"complete,omitempty"`
}
