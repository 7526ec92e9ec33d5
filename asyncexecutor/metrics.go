package asyncexecutor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "pool",
			Name:      "submissions_total",
			Help:      "Jobs accepted into the shard pool.",
		},
		[]string{"shard"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authcore",
			Subsystem: "pool",
			Name:      "queue_full_total",
			Help:      "Submit calls rejected because the shard queue was full.",
		},
		[]string{"shard"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "authcore",
			Subsystem: "pool",
			Name:      "queue_depth",
			Help:      "Current depth of each shard queue.",
		},
		[]string{"shard"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "authcore",
			Subsystem: "pool",
			Name:      "job_run_duration_seconds",
			Help:      "Observed duration of a single job attempt.",
		},
		[]string{"shard"},
	)
)

func labelFor(shard int) string { return strconv.Itoa(shard) }
