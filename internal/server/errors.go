package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/agent"
	"github.com/certwatch-app/cw-certcheck/internal/export"
	"github.com/certwatch-app/cw-certcheck/internal/state"
)

// Machine-readable error codes.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeRunNotFound     = "RUN_NOT_FOUND"
	CodeRunInProgress   = "RUN_IN_PROGRESS"
	CodeRunNotCompleted = "RUN_NOT_COMPLETED"
	CodeNoResults       = "NO_RESULTS"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeError maps err to a status and code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, state.ErrRunNotFound):
		status, code = http.StatusNotFound, CodeRunNotFound
	case errors.Is(err, state.ErrRunInProgress):
		status, code = http.StatusConflict, CodeRunInProgress
	case errors.Is(err, agent.ErrNoHosts), errors.Is(err, agent.ErrTooManyHosts):
		status, code = http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, export.ErrUnknownFormat):
		status, code = http.StatusBadRequest, CodeInvalidFormat
	}

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("error_code", code),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Debug("client error", fields...)
	}

	s.writeJSONError(w, status, code, err.Error())
}

// writeJSONError writes an error body with an explicit status and code.
func (s *Server) writeJSONError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}

// writeJSON writes data as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}
