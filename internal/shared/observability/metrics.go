package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FactsLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackidity_facts_load_seconds",
		Help:    "Time spent loading and validating a facts document.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackidity_analysis_seconds",
		Help:    "Time spent on each analysis phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackidity_runs_total",
		Help: "Total number of analysis runs by outcome.",
	}, []string{"status"})

	ContractsAnalyzed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackidity_contracts_analyzed",
		Help: "Number of contracts analyzed in the last run.",
	})

	EntryPointsListed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackidity_entry_points_listed",
		Help: "Number of entry points listed in the last run.",
	})

	VariablesListed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackidity_variables_listed",
		Help: "Number of written state variables listed in the last run.",
	})

	TruncatedTraces = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackidity_truncated_traces",
		Help: "Number of entry point traces cut off by the depth bound in the last run.",
	})

	DroppedEdgesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackidity_dropped_edges_total",
		Help: "Total number of call or write references dropped as unresolvable.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackidity_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherRunsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackidity_watcher_runs_skipped_total",
		Help: "Total number of change-triggered runs skipped by the rate limiter.",
	})
)
