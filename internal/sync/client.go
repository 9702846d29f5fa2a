package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/state"
	"github.com/certwatch-app/cw-certcheck/internal/version"
)

// reportPath is appended to the configured endpoint.
const reportPath = "/api/v1/certcheck/reports"

// Client handles communication with the CertWatch API
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	endpoint   string
	apiKey     string
}

// New creates a new report Client
func New(cfg config.ReportConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.Key,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Report sends a completed run to the CertWatch API
func (c *Client) Report(ctx context.Context, run *state.Run) (*ReportResponse, error) {
	if run == nil || run.Summary == nil {
		return nil, fmt.Errorf("run is not completed")
	}

	req := c.buildReportRequest(run)
	return c.doRequest(ctx, http.MethodPost, reportPath, req)
}

func (c *Client) buildReportRequest(run *state.Run) *ReportRequest {
	return &ReportRequest{
		CompletedAt:   run.CompletedAt,
		Summary:       *run.Summary,
		RunID:         run.ID,
		PassCriterion: run.PassCriterion,
		Mode:          string(run.Mode),
		AgentVersion:  version.GetVersion(),
		AgentHost:     getHostname(),
		Results:       run.Results,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*ReportResponse, error) {
	url := c.endpoint + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("sending report request",
		zap.String("url", url),
		zap.String("method", method),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(respBody)),
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   *APIError `json:"error"`
			Success bool      `json:"success"`
		}
		if unmarshalErr := json.Unmarshal(respBody, &errResp); unmarshalErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("API error (%s): %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var reportResp ReportResponse
	if len(bytes.TrimSpace(respBody)) == 0 {
		reportResp.Success = true
		return &reportResp, nil
	}
	if err := json.Unmarshal(respBody, &reportResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &reportResp, nil
}

func getHostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}
	return name
}
