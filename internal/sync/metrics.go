package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolscope_sync_runs_total",
			Help: "Total number of sync runs by outcome",
		},
		[]string{"status"},
	)

	HeightsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poolscope_sync_heights_fetched_total",
			Help: "Total number of heights fetched and committed",
		},
	)

	LastSyncedHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poolscope_sync_last_height",
			Help: "Last height committed to the series store",
		},
	)
)

func SyncRunInc(status string) {
	SyncRuns.WithLabelValues(status).Inc()
}

func HeightsFetchedAdd(n int) {
	HeightsFetched.Add(float64(n))
}

func LastSyncedHeightSet(height uint64) {
	LastSyncedHeight.Set(float64(height))
}
