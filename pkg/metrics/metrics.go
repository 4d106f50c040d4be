// Package metrics holds the Prometheus collectors shared by the client and
// host packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Client metrics
	ClientSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanremote_client_sends_total",
			Help: "Total envelopes sent by the client",
		},
		[]string{"class", "outcome"}, // outcome: ok, auth_rejected, failed, transport_error, dropped
	)

	ReliableLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lanremote_reliable_roundtrip_seconds",
			Help:    "Reliable request/response round trip",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanremote_session_transitions_total",
			Help: "Total session state transitions by target state",
		},
		[]string{"state"},
	)

	DiscoveryRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanremote_discovery_runs_total",
			Help: "Total client discovery runs",
		},
		[]string{"method", "result"}, // result: found, timeout, cancelled, error
	)

	// Host metrics
	EnvelopesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanremote_envelopes_received_total",
			Help: "Total envelopes received by the host",
		},
		[]string{"transport", "result"}, // result: wire status name
	)

	DiscoveryProbesAnswered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanremote_discovery_probes_answered_total",
			Help: "Total DISCOVER probes answered with an OFFER",
		},
	)

	CommandsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanremote_commands_executed_total",
			Help: "Total commands handed to the executor",
		},
		[]string{"command"},
	)

	MovesThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanremote_moves_throttled_total",
			Help: "Total pointer moves dropped by the host move throttle",
		},
	)
)
