package proc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	spawnTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proc_spawn_total",
			Help: "Total number of spawn attempts",
		},
		[]string{"strategy", "result"},
	)

	reapTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proc_reap_outcomes_total",
			Help: "Wait outcomes observed, by decoded kind",
		},
		[]string{"outcome"},
	)

	signalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proc_signals_total",
			Help: "Signals delivered to processes",
		},
		[]string{"signal", "result"},
	)

	waitInterrupts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proc_wait_interrupts_total",
			Help: "Spurious wait interruptions retried transparently",
		},
	)
)
