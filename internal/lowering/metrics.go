package lowering

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "pulsekit"
	subsystem        = "lowering"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "jobs_total",
			Help:      "Total number of lowering passes",
		},
		[]string{"kind", "status"}, // kind: "pulse", "circuit"; status: "success", "error"
	)

	experimentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "experiments_total",
			Help:      "Total number of experiments emitted",
		},
		[]string{"kind"},
	)

	pulseLibraryEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "pulse_library_entries_total",
			Help:      "Total number of distinct sample vectors added to pulse libraries",
		},
	)
)

func observeJob(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	jobsTotal.WithLabelValues(kind, status).Inc()
}
