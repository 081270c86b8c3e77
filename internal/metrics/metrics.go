package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Throughput metrics - Track contract activity
var (
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_calls_total",
			Help: "Total number of contract calls by function and outcome",
		},
		[]string{"function", "outcome"},
	)

	ScholarshipsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholarship_released_total",
		Help: "Total number of scholarships released",
	})

	AmountDisbursed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholarship_amount_disbursed_total",
		Help: "Sum of released scholarship amounts (float approximation of the i128 total)",
	})
)

// Performance metrics - Track call and storage latency
var (
	CallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scholarship_call_duration_seconds",
			Help:    "Time taken to execute a contract call, commit included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"function"},
	)

	StorageCommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scholarship_storage_commit_duration_seconds",
		Help:    "Time taken to commit the write set of a call",
		Buckets: prometheus.DefBuckets,
	})

	StorageCommitSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scholarship_storage_commit_size",
		Help:    "Number of entries in each committed write set",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
	})
)

// Error metrics - Track failures
var (
	TemporaryWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholarship_temporary_write_failures_total",
		Help: "Temporary tier writes dropped after the durable commit succeeded",
	})

	ConnectRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_storage_connect_retries_total",
			Help: "Failed backend connection attempts that were retried",
		},
		[]string{"operation"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholarship_errors_total",
			Help: "Total number of internal errors by component",
		},
		[]string{"component"},
	)
)
