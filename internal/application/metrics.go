package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bonsai_events_processed_total",
		Help: "Events processed by the reconciliation engine",
	}, []string{"kind", "resolution"})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bonsai_events_dropped_total",
		Help: "Events dropped with a diagnostic",
	}, []string{"kind"})

	commandsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bonsai_commands_emitted_total",
		Help: "Commands sent to the authority",
	}, []string{"kind"})

	staleConfirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bonsai_stale_confirmations_total",
		Help: "Confirmations discarded because their request was abandoned",
	}, []string{"kind"})

	requestsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bonsai_requests_expired_total",
		Help: "Forwarded requests whose confirmation never arrived in time",
	})

	treeSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bonsai_history_nodes",
		Help: "Number of nodes in the history tree",
	})
)
