package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts turn and tool activity for the /metrics endpoint.
type Metrics struct {
	TurnsStarted    prometheus.Counter
	TurnsCompleted  prometheus.Counter
	TurnsFailed     prometheus.Counter
	ToolInvocations *prometheus.CounterVec
	EventsStreamed  prometheus.Counter
}

// NewMetrics registers the demo's counters on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		TurnsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealflow_turns_started_total",
			Help: "Agent turns started.",
		}),
		TurnsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealflow_turns_completed_total",
			Help: "Agent turns that reached a complete event.",
		}),
		TurnsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealflow_turns_failed_total",
			Help: "Agent turns that reached an error event.",
		}),
		ToolInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealflow_tool_invocations_total",
			Help: "Direct tool endpoint invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		EventsStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealflow_stream_events_total",
			Help: "Turn events pushed to clients.",
		}),
	}
}
