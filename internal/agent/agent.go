// Package agent orchestrates certificate check runs: submission, execution in batch
// or streaming mode, storage and reporting.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/config"
	"github.com/certwatch-app/cw-certcheck/internal/metrics"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
	"github.com/certwatch-app/cw-certcheck/internal/state"
	"github.com/certwatch-app/cw-certcheck/internal/sync"
	"github.com/certwatch-app/cw-certcheck/internal/version"
)

// Submission errors.
var (
	ErrNoHosts      = errors.New("no hosts provided")
	ErrTooManyHosts = errors.New("too many hosts")
)

// Agent orchestrates certificate checks
type Agent struct {
	config   *config.Config
	scanner  *scanner.Scanner
	runs     *state.Manager
	reporter *sync.Client
	logger   *zap.Logger
}

// New creates a new Agent. When logger is nil one is built from the configured level.
func New(cfg *config.Config, logger *zap.Logger) (*Agent, error) {
	if logger == nil {
		logger = NewLogger(cfg.Log.Level)
	}

	s := scanner.New(ScannerOptions(cfg.Checker), logger.Named("scanner"))

	var archive state.Archive
	if cfg.Store.Driver == config.StoreSQLite {
		a, err := state.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open run store: %w", err)
		}
		archive = a
	}

	var reporter *sync.Client
	if cfg.ReportEnabled() {
		reporter = sync.New(cfg.Report, logger.Named("report"))
	}

	metrics.Info.WithLabelValues(version.GetVersion()).Set(1)

	return &Agent{
		config:   cfg,
		scanner:  s,
		runs:     state.NewManager(cfg.Server.RunTTL, archive),
		reporter: reporter,
		logger:   logger,
	}, nil
}

// ScannerOptions converts checker settings into scanner options.
func ScannerOptions(c config.CheckerConfig) scanner.Options {
	return scanner.Options{
		RetryPolicy:     scanner.RetryPolicy(c.RetryPolicy),
		Timeout:         c.Timeout,
		RetryDelay:      c.RetryDelay,
		MaxRetries:      c.MaxRetries,
		MaxWorkers:      c.MaxWorkers,
		Port:            c.Port,
		EnforceValidity: c.EnforceValidity,
	}
}

// Logger returns the agent logger.
func (a *Agent) Logger() *zap.Logger {
	return a.logger
}

// Config returns the agent configuration.
func (a *Agent) Config() *config.Config {
	return a.config
}

// Close releases the run store.
func (a *Agent) Close() error {
	return a.runs.Close()
}

// Submit registers a pending run for hosts. An empty criterion falls back to the
// configured default.
func (a *Agent) Submit(hosts []string, criterion string) (*state.Run, error) {
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}
	if limit := a.config.Server.MaxHosts; limit > 0 && len(hosts) > limit {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", ErrTooManyHosts, len(hosts), limit)
	}
	if criterion == "" {
		criterion = a.config.Checker.PassCriterion
	}

	run := a.runs.Create(hosts, criterion)
	metrics.RunHosts.Observe(float64(len(hosts)))

	a.logger.Info("run submitted",
		zap.String("run_id", run.ID),
		zap.Int("hosts", len(hosts)),
		zap.String("pass_criterion", criterion),
	)
	return run, nil
}

// Get returns the run with the given id.
func (a *Agent) Get(ctx context.Context, id string) (*state.Run, error) {
	return a.runs.Get(ctx, id)
}

// History lists up to limit runs, newest first.
func (a *Agent) History(ctx context.Context, limit int) ([]state.Info, error) {
	return a.runs.List(ctx, limit)
}

// Check submits hosts and runs them in batch mode.
func (a *Agent) Check(ctx context.Context, hosts []string, criterion string) (*state.Run, error) {
	run, err := a.Submit(hosts, criterion)
	if err != nil {
		return nil, err
	}
	return a.Batch(ctx, run.ID)
}

// Batch executes a pending run on the worker pool and returns it completed. A run that
// already completed is returned as stored.
func (a *Agent) Batch(ctx context.Context, id string) (*state.Run, error) {
	run, err := a.start(ctx, id, state.ModeBatch)
	if err != nil || run.Status == state.StatusCompleted {
		return run, err
	}

	done := a.begin(run)
	startedAt := time.Now()
	results := a.scanner.RunBatch(ctx, run.Hosts, run.PassCriterion)
	summary := scanner.Summarize(results, startedAt, time.Now())
	done()

	return a.complete(ctx, run, results, summary)
}

// Stream executes a pending run one host at a time, passing each event to emit. A run
// that already completed is replayed with the same events. When emit fails the run is
// still completed, and the first emit error is returned.
func (a *Agent) Stream(ctx context.Context, id string, emit func(scanner.Event) error) error {
	run, err := a.start(ctx, id, state.ModeStream)
	if err != nil {
		return err
	}
	if run.Status == state.StatusCompleted {
		return Replay(run, emit)
	}

	done := a.begin(run)
	var (
		results []scanner.Result
		emitErr error
	)
	for ev := range a.scanner.Stream(ctx, run.Hosts, run.PassCriterion) {
		if ev.Complete {
			done()
			if _, err := a.complete(ctx, run, results, *ev.Summary); err != nil {
				a.logger.Warn("failed to store run", zap.String("run_id", run.ID), zap.Error(err))
			}
		} else {
			results = append(results, *ev.Result)
		}

		if emitErr == nil {
			if err := emit(ev); err != nil {
				emitErr = err
				a.logger.Debug("stream consumer went away", zap.String("run_id", run.ID), zap.Error(err))
			}
		}
	}
	return emitErr
}

// Replay emits the events of a completed run in sequence order.
func Replay(run *state.Run, emit func(scanner.Event) error) error {
	if run.Summary == nil {
		return fmt.Errorf("run %s has not completed", run.ID)
	}
	total := len(run.Results)
	for i := range run.Results {
		r := run.Results[i]
		progress := math.Round(float64(i+1)/float64(total)*10000) / 100
		if err := emit(scanner.Event{Result: &r, Progress: progress}); err != nil {
			return err
		}
	}
	summary := *run.Summary
	return emit(scanner.Event{Summary: &summary, Complete: true})
}

// start moves a pending run to running, or returns a completed run as is.
func (a *Agent) start(ctx context.Context, id string, mode state.Mode) (*state.Run, error) {
	run, err := a.runs.Start(id, mode)
	if errors.Is(err, state.ErrRunCompleted) || errors.Is(err, state.ErrRunNotFound) {
		// completed runs may only be held by the archive
		return a.runs.Get(ctx, id)
	}
	return run, err
}

// begin records run start and returns a function that records its end.
func (a *Agent) begin(run *state.Run) func() {
	started := time.Now()
	metrics.RunsInFlight.Inc()
	a.logger.Info("run starting",
		zap.String("run_id", run.ID),
		zap.String("mode", string(run.Mode)),
		zap.Int("hosts", len(run.Hosts)),
	)

	return func() {
		metrics.RunsInFlight.Dec()
		metrics.RunTotal.WithLabelValues(string(run.Mode)).Inc()
		metrics.RunDuration.WithLabelValues(string(run.Mode)).Observe(time.Since(started).Seconds())
	}
}

func (a *Agent) complete(ctx context.Context, run *state.Run, results []scanner.Result, summary scanner.RunSummary) (*state.Run, error) {
	a.logger.Info("run complete",
		zap.String("run_id", run.ID),
		zap.Duration("duration", time.Since(summary.StartedAt)),
		zap.Int("total", summary.Total),
		zap.Int("passed", summary.PassCount),
		zap.Int("failed", summary.FailCount),
	)

	// storing and reporting outlive a caller that has gone away
	ctx = context.WithoutCancel(ctx)

	completed, err := a.runs.Complete(ctx, run.ID, results, summary)
	if completed == nil {
		return nil, err
	}
	if err != nil {
		a.logger.Warn("failed to archive run", zap.String("run_id", run.ID), zap.Error(err))
	}

	a.report(ctx, completed)
	return completed, nil
}

// report sends a completed run to the report endpoint. Failures are logged only.
func (a *Agent) report(ctx context.Context, run *state.Run) {
	if a.reporter == nil {
		return
	}

	start := time.Now()
	resp, err := a.reporter.Report(ctx, run)
	if err != nil {
		a.logger.Error("report failed", zap.String("run_id", run.ID), zap.Error(err))
		return
	}

	a.logger.Info("report sent",
		zap.String("run_id", run.ID),
		zap.String("report_id", resp.ReportID),
		zap.Duration("duration", time.Since(start)),
	)
}
