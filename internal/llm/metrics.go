package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// callsTotal counts provider calls by mode and outcome
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_llm_calls_total",
		Help: "Total LLM calls by mode and outcome",
	}, []string{"mode", "outcome"})

	// retriesTotal counts retried attempts by mode
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_llm_retries_total",
		Help: "Total LLM call retries by mode",
	}, []string{"mode"})

	// callDuration tracks successful call latency including retries
	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "posting_llm_call_duration_seconds",
		Help:    "LLM call duration in seconds, including retries",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"mode", "tier"})
)
