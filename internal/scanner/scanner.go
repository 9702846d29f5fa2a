package scanner

import (
	"context"
	"errors"
	"iter"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/certwatch-app/cw-certcheck/internal/failure"
	"github.com/certwatch-app/cw-certcheck/internal/metrics"
)

// Options configures a Scanner
// Fields are ordered for optimal memory alignment
type Options struct {
	RetryPolicy     RetryPolicy
	Timeout         time.Duration
	RetryDelay      time.Duration
	MaxRetries      int
	MaxWorkers      int
	Port            int
	EnforceValidity bool
}

// DefaultOptions returns the checker defaults.
func DefaultOptions() Options {
	return Options{
		RetryPolicy:     RetryAll,
		Timeout:         5 * time.Second,
		RetryDelay:      500 * time.Millisecond,
		MaxRetries:      2,
		MaxWorkers:      100,
		Port:            443,
		EnforceValidity: true,
	}
}

// Scanner probes hosts for their TLS certificates
// Fields are ordered for optimal memory alignment
type Scanner struct {
	logger          *zap.Logger
	fetcher         *Fetcher
	now             func() time.Time
	maxWorkers      int
	enforceValidity bool
}

// New creates a new Scanner
func New(opts Options, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	return &Scanner{
		logger:          logger,
		fetcher:         NewFetcher(opts.Timeout, opts.MaxRetries, opts.RetryDelay, opts.Port, opts.RetryPolicy, logger),
		now:             time.Now,
		maxWorkers:      opts.MaxWorkers,
		enforceValidity: opts.EnforceValidity,
	}
}

// Probe checks a single host and always returns exactly one Result.
// The result passes when the certificate was retrieved and, if criterion is non-empty,
// criterion is a case-insensitive substring of the issuer.
func (s *Scanner) Probe(ctx context.Context, seq int, raw, criterion string) (result Result) {
	target := Normalize(raw)
	result = Result{
		SequenceNo:    seq,
		RawURL:        raw,
		NormalizedURL: target.URL,
		Status:        StatusFail,
	}

	var kind failure.Kind
	defer func() {
		if v := recover(); v != nil {
			kind = s.fail(&result, &failure.PanicError{Value: v})
		}
		s.record(&result, kind)
	}()

	if err := ctx.Err(); err != nil {
		kind = s.fail(&result, err)
		return result
	}

	start := time.Now()
	der, err := s.fetcher.Fetch(ctx, target.Host)
	if err != nil {
		kind = s.fail(&result, err)
		return result
	}

	facts, err := Parse(der)
	if err != nil {
		kind = s.fail(&result, err)
		return result
	}
	result.Certificate = facts

	if s.enforceValidity {
		if err := checkValidity(facts, s.now()); err != nil {
			kind = s.fail(&result, err)
			return result
		}
	}

	elapsed := time.Since(start)
	result.ConnectionTimeMS = Millis(elapsed)
	if matchesIssuer(facts.Issuer, criterion) {
		result.Status = StatusPass
	}
	metrics.ProbeDuration.Observe(elapsed.Seconds())

	s.logger.Debug("probe complete",
		zap.String("hostname", target.Host),
		zap.String("status", string(result.Status)),
		zap.String("issuer", facts.Issuer),
		zap.Duration("elapsed", elapsed),
	)
	return result
}

// fail marks r as failed and returns the kind err was classified as.
func (s *Scanner) fail(r *Result, err error) failure.Kind {
	r.Status = StatusFail
	r.ConnectionTimeMS = ConnectionTime{}
	r.Error = failure.Classify(err)
	kind := failure.KindOf(err)

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		s.logger.Debug("probe failed",
			zap.String("hostname", fetchErr.Host),
			zap.Int("port", fetchErr.Port),
			zap.Int("attempt", fetchErr.Attempts),
			zap.Error(err),
		)
		return kind
	}
	s.logger.Debug("probe failed", zap.String("url", r.NormalizedURL), zap.Error(err))
	return kind
}

func (s *Scanner) record(r *Result, kind failure.Kind) {
	metrics.ProbeTotal.WithLabelValues(string(r.Status)).Inc()
	if r.Error != "" {
		metrics.ProbeErrorsTotal.WithLabelValues(kind.Label()).Inc()
	}
}

func checkValidity(facts *CertificateFacts, now time.Time) error {
	switch {
	case now.After(facts.NotAfter):
		return failure.ErrCertificateExpired
	case now.Before(facts.NotBefore):
		return failure.ErrCertificateNotYetValid
	}
	return nil
}

func matchesIssuer(issuer, criterion string) bool {
	criterion = strings.TrimSpace(criterion)
	if criterion == "" {
		return true
	}
	return strings.Contains(strings.ToLower(issuer), strings.ToLower(criterion))
}

// Completed probes hosts on a pool of at most MaxWorkers goroutines and delivers each
// Result as it finishes. The channel is closed after the last Result.
func (s *Scanner) Completed(ctx context.Context, hosts []string, criterion string) <-chan Result {
	out := make(chan Result, len(hosts))

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(s.maxWorkers)
		for i, host := range hosts {
			g.Go(func() error {
				out <- s.Probe(ctx, i+1, host, criterion)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}

// RunBatch probes every host concurrently and returns the Results ordered by sequence number.
func (s *Scanner) RunBatch(ctx context.Context, hosts []string, criterion string) []Result {
	results := make([]Result, len(hosts))
	for r := range s.Completed(ctx, hosts, criterion) {
		results[r.SequenceNo-1] = r
	}
	return results
}

// Stream probes hosts one at a time in input order. Each Result is yielded with the
// percentage of hosts processed so far; a final event carries the RunSummary.
func (s *Scanner) Stream(ctx context.Context, hosts []string, criterion string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		startedAt := time.Now()
		results := make([]Result, 0, len(hosts))

		for i, host := range hosts {
			r := s.Probe(ctx, i+1, host, criterion)
			results = append(results, r)

			progress := math.Round(float64(i+1)/float64(len(hosts))*10000) / 100
			if !yield(Event{Result: &r, Progress: progress}) {
				return
			}
		}

		summary := Summarize(results, startedAt, time.Now())
		yield(Event{Summary: &summary, Complete: true})
	}
}
