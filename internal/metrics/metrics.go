// Package metrics exposes the core's Prometheus counters and gauges,
// wired the way luxfi-adx's pkg/metric wires its auction/DA metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter/gauge the consensus driver and ordering
// engine update during steady-state operation.
type Metrics struct {
	VerticesInserted prometheus.Counter
	VerticesDelivered prometheus.Counter
	WavesCommitted    prometheus.Counter
	LeadersVetoed     prometheus.Counter
	CurrentRound      prometheus.Gauge
	CurrentBaseline   prometheus.Gauge
}

// New registers the core metrics with reg and returns the handle.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VerticesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "absedag_vertices_inserted_total",
			Help: "Total number of vertices inserted into the local DAG.",
		}),
		VerticesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "absedag_vertices_delivered_total",
			Help: "Total number of vertices delivered in wave order.",
		}),
		WavesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "absedag_waves_committed_total",
			Help: "Total number of waves that reached a commit decision.",
		}),
		LeadersVetoed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "absedag_leaders_vetoed_total",
			Help: "Total number of wave leader candidates vetoed by ABSE.",
		}),
		CurrentRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "absedag_current_round",
			Help: "The driver's current round.",
		}),
		CurrentBaseline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "absedag_abse_baseline",
			Help: "The current ABSE eligibility baseline.",
		}),
	}

	reg.MustRegister(
		m.VerticesInserted,
		m.VerticesDelivered,
		m.WavesCommitted,
		m.LeadersVetoed,
		m.CurrentRound,
		m.CurrentBaseline,
	)

	return m
}

// NewUnregistered builds a Metrics set with its own private registry — used
// by tests, which build many engines in one process and would otherwise
// collide on Prometheus's default registerer.
func NewUnregistered() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New(reg), reg
}
