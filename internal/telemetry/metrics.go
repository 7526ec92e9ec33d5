package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric vectors shared by cache, authproxy, keyvending and keyassembler,
// namespaced under "authcore" with one subsystem per logical component.
var (
	CacheInsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "cache",
			Name:      "inserts_total",
			Help:      "Outcomes of cache.Map.Insert by result.",
		},
		[]string{"result"},
	)

	CacheEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries removed by the TTL sweep.",
		},
		[]string{},
	)

	AuthorizeOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "authproxy",
			Name:      "authorize_outcomes_total",
			Help:      "Authorize() outcomes: success, retry, failure.",
		},
		[]string{"outcome", "kind"},
	)

	KeyFetchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "keyvending",
			Name:      "fetch_outcomes_total",
			Help:      "Per-endpoint key-fetch outcomes.",
		},
		[]string{"endpoint", "outcome"},
	)

	AssembleOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "keyassembler",
			Name:      "assemble_outcomes_total",
			Help:      "PrivateKey reconstruction outcomes.",
		},
		[]string{"outcome"},
	)
)
