package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "pulsekit"
	subsystem        = "compiler"
)

var (
	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "cache_requests_total",
			Help:      "Total number of compiled-circuit cache lookups",
		},
		[]string{"result"}, // result: "hit", "miss"
	)

	compileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "compile_total",
			Help:      "Total number of circuits compiled by the cached compiler's backing compiler",
		},
		[]string{"status"}, // status: "success", "error"
	)
)
