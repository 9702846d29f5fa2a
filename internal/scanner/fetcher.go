package scanner

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certcheck/internal/failure"
	"github.com/certwatch-app/cw-certcheck/internal/metrics"
)

// RetryPolicy selects which fetch failures are retried.
type RetryPolicy string

// Retry policies.
const (
	// RetryAll retries every failed attempt.
	RetryAll RetryPolicy = "all"
	// RetryTransient retries only failures that may succeed on a later attempt.
	RetryTransient RetryPolicy = "transient"
)

// FetchError is returned when every attempt to retrieve a certificate failed.
// Err is the error of the last attempt.
type FetchError struct {
	Err      error
	Host     string
	Port     int
	Attempts int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s:%d failed after %d attempt(s): %v", e.Host, e.Port, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the DER-encoded leaf certificate presented by a host.
// Fields are ordered for optimal memory alignment
type Fetcher struct {
	logger     *zap.Logger
	policy     RetryPolicy
	timeout    time.Duration
	retryDelay time.Duration
	attempts   int
	port       int
}

// NewFetcher creates a Fetcher. maxRetries is the total number of attempts, so a failure
// is retried maxRetries-1 times with retryDelay between attempts. Each attempt is bounded by timeout.
func NewFetcher(timeout time.Duration, maxRetries int, retryDelay time.Duration, port int, policy RetryPolicy, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if port == 0 {
		port = 443
	}
	if policy == "" {
		policy = RetryAll
	}
	return &Fetcher{
		logger:     logger,
		policy:     policy,
		timeout:    timeout,
		retryDelay: retryDelay,
		attempts:   maxRetries,
		port:       port,
	}
}

// Fetch returns the leaf certificate of host, which may carry a :port suffix.
// Verification is disabled so that certificates from any issuer can be inspected.
func (f *Fetcher) Fetch(ctx context.Context, host string) ([]byte, error) {
	hostname, port := splitHostPort(host, f.port)

	var lastErr error
	tried := 0
	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, f.retryDelay); err != nil {
				lastErr = err
				break
			}
		}

		tried++
		der, err := f.attempt(ctx, hostname, port)
		if err == nil {
			metrics.FetchAttemptsTotal.WithLabelValues("success").Inc()
			return der, nil
		}
		lastErr = err

		if ctx.Err() != nil || !f.shouldRetry(err) || attempt == f.attempts-1 {
			metrics.FetchAttemptsTotal.WithLabelValues("failure").Inc()
			break
		}

		metrics.FetchAttemptsTotal.WithLabelValues("retry").Inc()
		f.logger.Debug("fetch attempt failed, retrying",
			zap.String("host", hostname),
			zap.Int("port", port),
			zap.Int("attempt", tried),
			zap.Error(err),
		)
	}

	if ctx.Err() != nil {
		lastErr = ctx.Err()
	}
	return nil, &FetchError{Err: lastErr, Host: hostname, Port: port, Attempts: tried}
}

func (f *Fetcher) shouldRetry(err error) bool {
	if f.policy == RetryTransient {
		return failure.KindOf(err).Transient()
	}
	return true
}

func (f *Fetcher) attempt(ctx context.Context, hostname string, port int) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true, //nolint:gosec // Certificates are inspected, not trusted
		MinVersion:         tls.VersionTLS10,
	}
	if net.ParseIP(hostname) == nil {
		tlsConfig.ServerName = hostname
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: f.timeout},
		Config:    tlsConfig,
	}

	conn, err := dialer.DialContext(attemptCtx, "tcp", net.JoinHostPort(hostname, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, failure.ErrNoCertificate
	}
	return state.PeerCertificates[0].Raw, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
