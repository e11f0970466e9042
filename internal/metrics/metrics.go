// Package metrics provides Prometheus instrumentation for the namegate
// moderation services. It exposes counters for update throughput and
// enforcement outcomes, a gauge for policy size, and histograms for
// decision latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UpdatesTotal counts inbound updates processed, labeled by kind:
	// "message", "membership", "command", or "ignored".
	UpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "namegate_updates_total",
		Help: "Total number of inbound updates processed",
	}, []string{"kind"})

	// MatchesTotal counts policy matches, labeled by the configured
	// strategy.
	MatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "namegate_matches_total",
		Help: "Total number of restricted-name matches",
	}, []string{"strategy"})

	// ExemptionsTotal counts suppressed enforcements, labeled by source:
	// "admin_set", "chat_role", or "lookup_failure".
	ExemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "namegate_exemptions_total",
		Help: "Total number of matches suppressed by exemption",
	}, []string{"source"})

	// EnforcementStepsTotal counts enforcement steps, labeled by step and
	// outcome ("ok" or "failed"). Ban failures are the series operators
	// alert on.
	EnforcementStepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "namegate_enforcement_steps_total",
		Help: "Total number of enforcement steps executed",
	}, []string{"step", "outcome"})

	// PolicySize tracks the current number of restricted names.
	PolicySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "namegate_policy_restricted_names",
		Help: "Current number of restricted names in the policy",
	})

	// DecisionLatency records the time from update receipt to decision
	// (before enforcement I/O) in seconds.
	DecisionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "namegate_decision_latency_seconds",
		Help:    "Update decision latency in seconds",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
	})

	// StoreLoadFailures counts policy snapshot acquisitions that failed,
	// each of which aborts one update's decision.
	StoreLoadFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "namegate_policy_load_failures_total",
		Help: "Total number of failed policy snapshot loads",
	})
)

func init() {
	prometheus.MustRegister(
		UpdatesTotal,
		MatchesTotal,
		ExemptionsTotal,
		EnforcementStepsTotal,
		PolicySize,
		DecisionLatency,
		StoreLoadFailures,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
