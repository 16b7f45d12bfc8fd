package resilience

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "breaker_state",
		Help: "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"breaker"})
	breakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_transitions_total",
		Help: "Breaker state transitions.",
	}, []string{"breaker", "from", "to"})
	breakerOpened = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_opened_total",
		Help: "Times a breaker moved into the open state.",
	}, []string{"breaker"})
	breakerRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "breaker_rejected_total",
		Help: "Calls refused while a breaker was open.",
	}, []string{"breaker"})
)

// Collectors returns the breaker collectors for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{breakerState, breakerTransitions, breakerOpened, breakerRejected}
}

// RegisterMetrics registers the breaker collectors, tolerating repeat registration.
func RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
