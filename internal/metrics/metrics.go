// Package metrics provides Prometheus metrics for the litigation monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lawsuitmonitor"

var (
	// RunsTotal counts pipeline runs by outcome (ok, degraded, failed, cancelled).
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"status"},
	)

	// RunDuration measures end-to-end run duration.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ItemsTotal counts reported items by dedup status.
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Items classified per run by dedup status",
		},
		[]string{"status"},
	)

	// MatchesTotal counts matcher results by confidence.
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Matcher results by confidence",
		},
		[]string{"confidence"},
	)

	// LedgerErrorsTotal counts ledger persistence failures.
	LedgerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_errors_total",
			Help:      "Ledger store failures by operation",
		},
		[]string{"operation"},
	)

	// FetchErrorsTotal counts collaborator fetch failures.
	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Collaborator fetch failures by source",
		},
		[]string{"source"},
	)
)

// RecordRun records a finished run.
func RecordRun(status string, duration float64) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration)
}

// RecordItems adds per-status item counts.
func RecordItems(newCount, duplicateCount int) {
	ItemsTotal.WithLabelValues("new").Add(float64(newCount))
	ItemsTotal.WithLabelValues("duplicate").Add(float64(duplicateCount))
}

// RecordMatch counts one matcher result.
func RecordMatch(confidence string) {
	MatchesTotal.WithLabelValues(confidence).Inc()
}

// RecordLedgerError records a failed load or save.
func RecordLedgerError(operation string) {
	LedgerErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordFetchError records a failed archive or feed fetch.
func RecordFetchError(source string) {
	FetchErrorsTotal.WithLabelValues(source).Inc()
}
