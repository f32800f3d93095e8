package adapter

import "github.com/prometheus/client_golang/prometheus"

var (
	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solport_request_total", Help: "Requests issued to the signing surface"},
		[]string{"method"},
	)
	requestSettledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solport_request_settled_total", Help: "Requests settled, by outcome"},
		[]string{"method", "outcome"},
	)
	requestInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solport_request_inflight", Help: "Requests awaiting a response"},
	)
	connectTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solport_connect_total", Help: "Connect attempts, by outcome"},
		[]string{"outcome"},
	)
)

// RegisterMetrics registers the adapter metrics with the provided registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(requestTotal, requestSettledTotal, requestInflight, connectTotal)
}

func recordRequest(method string) {
	requestTotal.WithLabelValues(method).Inc()
	requestInflight.Inc()
}

func recordSettled(method, outcome string) {
	requestSettledTotal.WithLabelValues(method, outcome).Inc()
	requestInflight.Dec()
}

func recordConnect(outcome string) {
	connectTotal.WithLabelValues(outcome).Inc()
}
