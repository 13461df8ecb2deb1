package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GatewayCalls counts outbound gateway calls by transport, action and outcome.
var GatewayCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wealthgate_gateway_calls_total",
		Help: "Total number of calls issued to the order-processing gateway",
	},
	[]string{"transport", "action", "outcome"},
)

// GatewayLatency records latency distribution for gateway round trips
var GatewayLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "wealthgate_gateway_call_latency_seconds",
		Help:    "Latency in seconds of gateway round trips",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"transport", "action"},
)

// OrdersSubmitted counts orchestrations by order type and terminal outcome.
var OrdersSubmitted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wealthgate_orders_submitted_total",
		Help: "Total number of systematic instructions submitted, by type and outcome",
	},
	[]string{"type", "outcome"},
)

// StuckOrders gauges orders sitting in CREATED past the reconcile threshold.
var StuckOrders = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "wealthgate_orders_stuck_created",
		Help: "Orders left in CREATED past the reconciliation threshold",
	},
)

func init() {
	prometheus.MustRegister(GatewayCalls, GatewayLatency)
	prometheus.MustRegister(OrdersSubmitted, StuckOrders)
}
