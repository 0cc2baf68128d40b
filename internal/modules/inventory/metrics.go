package inventory

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values for sweetshop_mutations_total.
const (
	outcomeConfirmed = "confirmed"
	outcomeRejected  = "rejected"
	outcomeBusy      = "busy"
	outcomeDiscarded = "discarded"
)

type metrics struct {
	mutations *prometheus.CounterVec
	inflight  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetshop_mutations_total",
			Help: "Catalog mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sweetshop_inflight_mutations",
			Help: "Catalog mutations currently waiting on the server.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.inflight)
	}
	return m
}

func (m *metrics) observe(op Op, outcome string) {
	m.mutations.WithLabelValues(string(op), outcome).Inc()
}
