package sim

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solport_sim_session_total", Help: "Surface sessions accepted"},
	)
	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solport_sim_request_total", Help: "Requests handled, by method"},
		[]string{"method"},
	)
)

// RegisterMetrics registers the simulator metrics with the provided registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(sessionTotal, requestTotal)
}
