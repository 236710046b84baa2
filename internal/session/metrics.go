package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sessionsCreated counts new sessions
	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posting_sessions_created_total",
		Help: "Total dialogue sessions created",
	})

	// sessionsEvicted counts idle sessions removed by the sweeper
	sessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posting_sessions_evicted_total",
		Help: "Total idle dialogue sessions evicted",
	})

	// postingsSaved counts finalized postings written to the repository
	postingsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posting_postings_saved_total",
		Help: "Total finalized postings saved, by result",
	}, []string{"result"})
)
