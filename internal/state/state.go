// Package state keeps track of submitted runs and their results.
// A run is addressed by an opaque id handed out at submission time.
package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// Errors returned by Manager.
var (
	ErrRunNotFound   = errors.New("run not found")
	ErrRunInProgress = errors.New("run is already in progress")
	ErrRunCompleted  = errors.New("run has already completed")
)

// Status is the lifecycle stage of a run.
type Status string

// Run statuses.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Mode is how a run delivers its results.
type Mode string

// Delivery modes.
const (
	ModeBatch  Mode = "batch"
	ModeStream Mode = "stream"
)

// Run holds one submitted host list and, once completed, its results.
// Fields are ordered for optimal memory alignment
type Run struct {
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   time.Time           `json:"completed_at,omitempty"`
	Summary       *scanner.RunSummary `json:"summary,omitempty"`
	ID            string              `json:"run_id"`
	PassCriterion string              `json:"pass_criterion"`
	Status        Status              `json:"status"`
	Mode          Mode                `json:"mode,omitempty"`
	Hosts         []string            `json:"hosts"`
	Results       []scanner.Result    `json:"results,omitempty"`
}

// Info is the listing form of a run.
// Fields are ordered for optimal memory alignment
type Info struct {
	CreatedAt     time.Time `json:"created_at"`
	CompletedAt   time.Time `json:"completed_at"`
	ID            string    `json:"run_id"`
	PassCriterion string    `json:"pass_criterion"`
	Mode          Mode      `json:"mode"`
	Status        Status    `json:"status"`
	Total         int       `json:"total"`
	PassCount     int       `json:"pass_count"`
	FailCount     int       `json:"fail_count"`
}

// Info returns the listing form of r.
func (r *Run) Info() Info {
	info := Info{
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
		ID:            r.ID,
		PassCriterion: r.PassCriterion,
		Mode:          r.Mode,
		Status:        r.Status,
		Total:         len(r.Hosts),
	}
	if r.Summary != nil {
		info.PassCount = r.Summary.PassCount
		info.FailCount = r.Summary.FailCount
	}
	return info
}

// Archive persists completed runs beyond the in-memory retention window.
type Archive interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]Info, error)
	Close() error
}

// Manager handles run registration and lifecycle
type Manager struct {
	archive Archive
	runs    map[string]*Run
	now     func() time.Time
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewManager creates a run manager. Completed runs older than ttl are dropped from
// memory; archive may be nil.
func NewManager(ttl time.Duration, archive Archive) *Manager {
	return &Manager{
		archive: archive,
		runs:    make(map[string]*Run),
		now:     time.Now,
		ttl:     ttl,
	}
}

// Create registers a pending run for hosts and returns it.
func (m *Manager) Create(hosts []string, criterion string) *Run {
	m.Prune()

	run := &Run{
		CreatedAt:     m.now().UTC(),
		ID:            uuid.NewString(),
		PassCriterion: criterion,
		Status:        StatusPending,
		Hosts:         append([]string(nil), hosts...),
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	return run.snapshot()
}

// Get returns a copy of the run with the given id, consulting the archive when the
// run is no longer held in memory.
func (m *Manager) Get(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	run, ok := m.runs[id]
	var snap *Run
	if ok {
		snap = run.snapshot()
	}
	m.mu.RUnlock()

	if ok {
		return snap, nil
	}

	if m.archive == nil {
		return nil, ErrRunNotFound
	}

	archived, err := m.archive.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return archived, nil
}

// Start moves a pending run to running. It fails with ErrRunInProgress or
// ErrRunCompleted when the run has already been started.
func (m *Manager) Start(id string, mode Mode) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}

	switch run.Status {
	case StatusRunning:
		return nil, ErrRunInProgress
	case StatusCompleted:
		return nil, ErrRunCompleted
	}

	run.Status = StatusRunning
	run.Mode = mode
	return run.snapshot(), nil
}

// Complete stores the results of a running run and archives it.
func (m *Manager) Complete(ctx context.Context, id string, results []scanner.Result, summary scanner.RunSummary) (*Run, error) {
	m.mu.Lock()
	run, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrRunNotFound
	}
	if run.Status != StatusRunning {
		m.mu.Unlock()
		return nil, fmt.Errorf("complete run %s: status is %s, want %s", id, run.Status, StatusRunning)
	}

	run.Status = StatusCompleted
	run.CompletedAt = m.now().UTC()
	run.Results = results
	run.Summary = &summary
	snap := run.snapshot()
	m.mu.Unlock()

	if m.archive != nil {
		if err := m.archive.Save(ctx, snap); err != nil {
			return snap, fmt.Errorf("failed to archive run %s: %w", id, err)
		}
	}
	return snap, nil
}

// Prune drops completed runs older than the retention window and returns how many
// were removed. Pending and running runs are never pruned.
func (m *Manager) Prune() int {
	if m.ttl <= 0 {
		return 0
	}

	cutoff := m.now().UTC().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, run := range m.runs {
		if run.Status == StatusCompleted && run.CompletedAt.Before(cutoff) {
			delete(m.runs, id)
			removed++
		}
	}
	return removed
}

// List returns up to limit runs, newest first, merging the archive with the
// runs still held in memory.
func (m *Manager) List(ctx context.Context, limit int) ([]Info, error) {
	var infos []Info
	seen := make(map[string]bool)
	if m.archive != nil {
		archived, err := m.archive.List(ctx, limit)
		if err != nil {
			return nil, err
		}
		for _, info := range archived {
			seen[info.ID] = true
		}
		infos = archived
	}

	m.mu.RLock()
	for _, run := range m.runs {
		if seen[run.ID] {
			continue
		}
		infos = append(infos, run.Info())
	}
	m.mu.RUnlock()

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// Len returns the number of runs held in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// Close releases the archive, if any.
func (m *Manager) Close() error {
	if m.archive == nil {
		return nil
	}
	return m.archive.Close()
}

// snapshot copies the run header. Results are frozen once completed, so the slices are shared.
func (r *Run) snapshot() *Run {
	cp := *r
	return &cp
}
