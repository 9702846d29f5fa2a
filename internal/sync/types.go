// Package sync provides the API client that reports completed runs to CertWatch.
package sync

import (
	"time"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// ReportRequest represents the run report payload
// Fields are ordered for optimal memory alignment
type ReportRequest struct {
	CompletedAt   time.Time          `json:"completed_at"`
	Summary       scanner.RunSummary `json:"summary"`
	RunID         string             `json:"run_id"`
	PassCriterion string             `json:"pass_criterion"`
	Mode          string             `json:"mode,omitempty"`
	AgentVersion  string             `json:"agent_version,omitempty"`
	AgentHost     string             `json:"agent_hostname,omitempty"`
	Results       []scanner.Result   `json:"results"`
}

// ReportResponse represents the API response to a report
// Fields are ordered for optimal memory alignment
type ReportResponse struct {
	Error    *APIError `json:"error,omitempty"`
	ReportID string    `json:"report_id"`
	Success  bool      `json:"success"`
}

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
