package tickets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeSuccess = "success"

var (
	// TicketOperations is the number of ticket operations by outcome.
	TicketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_operations_total",
			Help: "Number of ticket operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// TicketOperationLatency is the duration of ticket operations.
	TicketOperationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tickets_operation_latency",
			Help: "Duration of ticket operations",
		},
		[]string{"operation"},
	)

	// SettingsCacheRequests is the number of settings reads by cache result.
	SettingsCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_settings_cache_requests_total",
			Help: "Number of ticket settings reads by cache result",
		},
		[]string{"result"},
	)

	// ComponentResolutions is the number of component interactions by resolved action.
	ComponentResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_component_resolutions_total",
			Help: "Number of component interactions by resolved action",
		},
		[]string{"action"},
	)
)

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if k := KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}
