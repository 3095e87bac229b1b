package optimistic

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	mutations *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photon",
		Subsystem: "client",
		Name:      "mutations_total",
		Help:      "Optimistic mutations by operation and final state",
	}, []string{"op", "state"})

	if err := reg.Register(mutations); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			mutations = already.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil
		}
	}
	return &metrics{mutations: mutations}
}

func (m *metrics) observe(op string, s State) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, s.String()).Inc()
}
