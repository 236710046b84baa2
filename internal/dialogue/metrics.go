package dialogue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// turnsTotal counts processed user turns by classified intent
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_dialogue_turns_total",
		Help: "Total user turns by intent",
	}, []string{"intent"})

	// commitsTotal counts values committed to the record by field
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_dialogue_commits_total",
		Help: "Total field commits by field",
	}, []string{"field"})

	// failuresTotal counts rejected answers by field and reason
	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_dialogue_failures_total",
		Help: "Total failed answers by field and reason",
	}, []string{"field", "reason"})

	// deferralsTotal counts fields set aside after repeated failures
	deferralsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_dialogue_deferrals_total",
		Help: "Total field deferrals by field",
	}, []string{"field"})

	// finalizationsTotal counts finished sessions by outcome
	finalizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_dialogue_finalizations_total",
		Help: "Total finalized sessions by outcome (complete, incomplete, forced)",
	}, []string{"outcome"})

	// inconsistentRecordsTotal counts finalized records that fail the
	// whole-record check
	inconsistentRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posting_dialogue_inconsistent_records_total",
		Help: "Total finalized records failing cross-field checks",
	})

	// turnDuration tracks the time spent handling one user turn
	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "posting_dialogue_turn_duration_seconds",
		Help:    "Time to handle one user turn, oracle calls included",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})
)
