// Package metrics holds the Prometheus instruments for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exchange outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeUserError = "user_error"
	OutcomeFailure   = "failure"
)

// Metrics bundles the counters recorded per chat exchange.
type Metrics struct {
	registry *prometheus.Registry

	Exchanges       *prometheus.CounterVec
	ToolInvocations *prometheus.CounterVec
	ModelFailures   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deva_exchanges_total",
			Help: "Chat exchanges processed, by outcome.",
		}, []string{"outcome"}),
		ToolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deva_tool_invocations_total",
			Help: "Model-initiated tool calls, by tool name.",
		}, []string{"tool"}),
		ModelFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deva_model_failures_total",
			Help: "Model invocations that returned an error or timed out.",
		}),
	}
	reg.MustRegister(m.Exchanges, m.ToolInvocations, m.ModelFailures)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
