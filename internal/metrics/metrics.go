package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_tool_calls_total",
			Help: "Tool invocations by tool name and outcome",
		},
		[]string{"tool", "outcome"}, // ok | <apperr code>
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_queries_total",
			Help: "Safe query gate decisions",
		},
		[]string{"outcome"}, // ok | rejected | failed
	)

	MessagesLoggedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_messages_logged_total",
			Help: "Messages written to the store by direction",
		},
		[]string{"direction"}, // inbound | outbound | other
	)

	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_ingest_total",
			Help: "Inbound envelopes consumed from kafka by outcome",
		},
		[]string{"outcome"}, // logged | poison | failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		ToolCallsTotal,
		QueriesTotal,
		MessagesLoggedTotal,
		IngestTotal,
	)
}
