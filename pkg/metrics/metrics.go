// Package metrics provides Prometheus metrics for the Magnolia import service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRunsTotal tracks entity import runs by outcome
	ImportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "magnolia",
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Total number of entity import runs by status",
		},
		[]string{"data_model", "status"},
	)

	// ImportRunDuration tracks entity import run duration in seconds
	ImportRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "magnolia",
			Subsystem: "import",
			Name:      "run_duration_seconds",
			Help:      "Duration of entity import runs in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"data_model"},
	)

	// RowsWritten tracks rows written by bulk operation
	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "magnolia",
			Subsystem: "import",
			Name:      "rows_written_total",
			Help:      "Total number of rows written by bulk operation",
		},
		[]string{"table", "operation"},
	)

	// BatchRunsTotal tracks whole orchestration batches by outcome
	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "magnolia",
			Subsystem: "import",
			Name:      "batch_runs_total",
			Help:      "Total number of orchestrated import batches by status",
		},
		[]string{"status"},
	)

	// DownstreamRecomputesTotal tracks downstream recompute invocations
	DownstreamRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "magnolia",
			Subsystem: "import",
			Name:      "downstream_recomputes_total",
			Help:      "Total number of downstream recompute invocations",
		},
		[]string{"target", "status"},
	)
)
