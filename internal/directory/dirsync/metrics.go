package dirsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesSynced = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "directory_entries_synced_total",
			Help: "Number of directory entries reconciled, by outcome.",
		},
		[]string{"outcome"},
	)

	ouSearchFailures = promauto.NewCounter( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "directory_ou_search_failures_total",
			Help: "Number of per OU searches that ended with an error.",
		},
	)

	syncDuration = promauto.NewHistogram( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "directory_sync_duration_seconds",
			Help:    "Duration of directory synchronization runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)
