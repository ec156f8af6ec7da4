package db

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolscope_db_maintenance_runs_total",
			Help: "Total number of database maintenance runs by result",
		},
		[]string{"result"},
	)

	DBSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poolscope_db_size_bytes",
			Help: "Size of the SQLite database file in bytes",
		},
	)
)

func MaintenanceRunInc(result string) {
	MaintenanceRuns.WithLabelValues(result).Inc()
}

func DBSizeSet(bytes uint64) {
	DBSize.Set(float64(bytes))
}
