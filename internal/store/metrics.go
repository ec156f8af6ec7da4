package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poolscope_store_batches_committed_total",
			Help: "Total number of batches committed to the series store",
		},
	)

	EntriesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poolscope_store_entries_persisted_total",
			Help: "Total number of series entries persisted",
		},
	)
)

func BatchCommitInc(entries int) {
	BatchesCommitted.Inc()
	EntriesPersisted.Add(float64(entries))
}
