// Package metrics defines the prometheus collectors exported by the checker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector below plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ProbeTotal,
		ProbeErrorsTotal,
		ProbeDuration,
		FetchAttemptsTotal,
		RunTotal,
		RunDuration,
		RunsInFlight,
		RunHosts,
		Info,
	)
}

var (
	// Probe metrics

	// ProbeTotal counts completed probes by outcome
	ProbeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certcheck",
		Name:      "probe_total",
		Help:      "Total number of host probes by status (Pass/Fail)",
	}, []string{"status"})

	// ProbeErrorsTotal counts failed probes by failure kind
	ProbeErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certcheck",
		Name:      "probe_errors_total",
		Help:      "Total number of probe failures by classified kind",
	}, []string{"kind"})

	// ProbeDuration tracks wall-clock time of successful probes
	ProbeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "certcheck",
		Name:      "probe_duration_seconds",
		Help:      "Duration of successful probes in seconds, retries included",
		Buckets:   prometheus.DefBuckets,
	})

	// FetchAttemptsTotal counts individual TLS fetch attempts
	FetchAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certcheck",
		Name:      "fetch_attempts_total",
		Help:      "Total number of TLS fetch attempts by outcome (success, retry, failure)",
	}, []string{"outcome"})

	// Run metrics

	// RunTotal counts completed runs by delivery mode
	RunTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "certcheck",
		Name:      "run_total",
		Help:      "Total number of completed runs by mode (batch, stream)",
	}, []string{"mode"})

	// RunDuration tracks run duration
	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "certcheck",
		Name:      "run_duration_seconds",
		Help:      "Duration of runs in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	}, []string{"mode"})

	// RunsInFlight tracks runs currently executing
	RunsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "certcheck",
		Name:      "runs_in_flight",
		Help:      "Number of runs currently executing",
	})

	// RunHosts tracks the size of submitted host lists
	RunHosts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "certcheck",
		Name:      "run_hosts",
		Help:      "Number of hosts per run",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// Info provides build metadata
	Info = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certcheck",
		Name:      "info",
		Help:      "Checker build information",
	}, []string{"version"})
)

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
