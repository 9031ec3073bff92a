package augment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	outcomeOK          = "ok"
	outcomeEmpty       = "empty"
	outcomeNotRelevant = "not_relevant"
	outcomeError       = "error"
)

var (
	// fetchTotal counts source invocations.
	// Labels: source, outcome (ok, empty, not_relevant, error)
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beexy",
		Subsystem: "context",
		Name:      "fetch_total",
		Help:      "Total context source invocations by outcome",
	}, []string{"source", "outcome"})

	// fetchDuration measures relevant source lookups.
	// Labels: source
	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "beexy",
		Subsystem: "context",
		Name:      "fetch_duration_seconds",
		Help:      "Context source lookup latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	// annexBlocks tracks how many blocks each annex carries.
	annexBlocks = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "beexy",
		Subsystem: "context",
		Name:      "annex_blocks",
		Help:      "Number of context blocks per assembled annex",
		Buckets:   []float64{0, 1, 2, 3, 4, 5},
	})
)
