package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/export"
	"github.com/certwatch-app/cw-certcheck/internal/input"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
	"github.com/certwatch-app/cw-certcheck/internal/state"
)

// SubmitRequest is the JSON body of POST /api/v1/runs
type SubmitRequest struct {
	PassName string   `json:"pass_name"`
	URLs     []string `json:"urls"`
}

// SubmitResponse acknowledges a submitted run
type SubmitResponse struct {
	RunID     string `json:"run_id"`
	Message   string `json:"message"`
	TotalURLs int    `json:"total_urls"`
}

// RunResponse carries a completed run
// Fields are ordered for optimal memory alignment
type RunResponse struct {
	Summary *scanner.RunSummary `json:"summary,omitempty"`
	RunID   string              `json:"run_id"`
	Status  state.Status        `json:"status"`
	Results []scanner.Result    `json:"results"`
}

// ExportRequest is the JSON body of POST /api/v1/export/{format}
type ExportRequest struct {
	Summary scanner.RunSummary `json:"summary"`
	Results []scanner.Result   `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

// handleSubmit accepts a JSON host list or a multipart form with a file upload or
// pasted hosts, and registers a pending run.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	hosts, criterion, err := s.parseSubmission(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeJSONError(w, http.StatusRequestEntityTooLarge, CodeInvalidInput,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return
		}
		s.writeJSONError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}

	run, err := s.agent.Submit(hosts, criterion)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, SubmitResponse{
		RunID:     run.ID,
		Message:   "Processing started",
		TotalURLs: len(run.Hosts),
	})
}

func (s *Server) parseSubmission(r *http.Request) ([]string, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data", "application/x-www-form-urlencoded":
		return s.parseForm(r)
	default:
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, "", fmt.Errorf("invalid JSON body: %w", err)
		}
		return input.FromText(strings.Join(req.URLs, "\n")), req.PassName, nil
	}
}

func (s *Server) parseForm(r *http.Request) ([]string, string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
			return nil, "", fmt.Errorf("invalid form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, "", fmt.Errorf("invalid form: %w", err)
	}
	criterion := r.FormValue("pass_name")

	if r.MultipartForm != nil {
		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()

			skipHeader := true
			if v := r.FormValue("skip_header"); v != "" {
				skipHeader, _ = strconv.ParseBool(v)
			}
			hosts, err := input.Load(header.Filename, file, input.Options{SkipHeader: skipHeader})
			if err != nil {
				return nil, "", err
			}
			return hosts, criterion, nil
		}
	}

	manual := r.FormValue("manualUrls")
	if strings.TrimSpace(manual) == "" {
		return nil, "", errors.New("please either upload a file or enter URLs manually")
	}
	return input.FromText(manual), criterion, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			s.writeJSONError(w, http.StatusBadRequest, CodeInvalidInput, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	runs, err := s.agent.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []state.Info{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// runContext keeps request values but not cancellation, so a run started over
// HTTP checks every host even if the client goes away.
func runContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// handleBatch executes a pending run on the worker pool, or returns a completed one.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	run, err := s.agent.Batch(runContext(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, RunResponse{
		Summary: run.Summary,
		RunID:   run.ID,
		Status:  run.Status,
		Results: run.Results,
	})
}

// handleStream executes a pending run sequentially, sending one event per host, or
// replays a completed run.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSONError(w, http.StatusInternalServerError, CodeInternal, "streaming is not supported")
		return
	}

	id := r.PathValue("id")
	started := false
	err := s.agent.Stream(runContext(r), id, func(ev scanner.Event) error {
		if !started {
			started = true
			h := w.Header()
			h.Set("Content-Type", "text/event-stream")
			h.Set("Cache-Control", "no-cache")
			h.Set("Connection", "keep-alive")
			h.Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
		}
		if err := writeEvent(w, ev); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err == nil {
		return
	}

	if !started {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("event stream ended early", zap.String("run_id", id), zap.Error(err))
}

func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	format, err := downloadFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	run, err := s.agent.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if run.Status != state.StatusCompleted || run.Summary == nil {
		s.writeJSONError(w, http.StatusConflict, CodeRunNotCompleted, "run has not completed")
		return
	}

	s.writeExport(w, r, format, run.Results, *run.Summary)
}

func (s *Server) handleExportPosted(w http.ResponseWriter, r *http.Request) {
	format, err := downloadFormat(r.PathValue("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, CodeInvalidInput, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	if len(req.Results) == 0 {
		s.writeJSONError(w, http.StatusBadRequest, CodeNoResults, "No results found to download")
		return
	}

	s.writeExport(w, r, format, req.Results, req.Summary)
}

func downloadFormat(name string) (export.Format, error) {
	format, err := export.ParseFormat(name)
	if err != nil {
		return "", err
	}
	if !format.Downloadable() {
		return "", fmt.Errorf("%w: %q", export.ErrUnknownFormat, name)
	}
	return format, nil
}

// writeExport renders into a pooled buffer first so a failed render never sends a partial file.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, format export.Format, results []scanner.Result, summary scanner.RunSummary) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := export.Write(buf, format, results, summary); err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": format.Filename()}))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.B); err != nil {
		s.logger.Debug("failed to write export", zap.Error(err))
	}
}
