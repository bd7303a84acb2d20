// Package obs provides Prometheus metrics for the keyremote daemon.
package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the daemon's Prometheus collectors.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec // route, code

	RateLimitedTotal  prometheus.Counter
	UnauthorizedTotal prometheus.Counter

	MessagesQueuedTotal prometheus.Counter
	MacrosTotal         *prometheus.CounterVec // macro=ctrlaltdel|sleep
}

// NewMetrics creates and registers the collectors with reg.
// Pass prometheus.DefaultRegisterer in the daemon; tests use a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyremote_requests_total",
				Help: "Total HTTP requests by route and result code",
			},
			[]string{"route", "code"},
		),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keyremote_rate_limited_total",
			Help: "Total requests rejected by the rate limiter",
		}),
		UnauthorizedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keyremote_unauthorized_total",
			Help: "Total requests rejected for missing or invalid API key",
		}),
		MessagesQueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "keyremote_messages_queued_total",
			Help: "Total messages accepted for typing",
		}),
		MacrosTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyremote_macros_total",
				Help: "Total key macros executed",
			},
			[]string{"macro"},
		),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RateLimitedTotal,
		m.UnauthorizedTotal,
		m.MessagesQueuedTotal,
		m.MacrosTotal,
	)

	return m
}

// RegisterGauges registers live-state gauges computed from the given
// read functions (1 for true, 0 for false where boolean).
func RegisterGauges(reg prometheus.Registerer, kbConnected, senderBusy, linkUp, trackedClients func() float64) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "keyremote_keyboard_connected",
			Help: "Whether a peer is attached to the keyboard channel",
		}, kbConnected),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "keyremote_sender_busy",
			Help: "Whether a message transmission is in flight",
		}, senderBusy),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "keyremote_link_up",
			Help: "Whether the network link is up",
		}, linkUp),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "keyremote_ratelimit_tracked_clients",
			Help: "Number of clients tracked by the rate limiter",
		}, trackedClients),
	)
}

// Bool converts a boolean to a gauge value.
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
