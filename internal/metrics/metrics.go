// Package metrics defines the Prometheus collectors for the realtime layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection lifecycle metrics
var (
	// ConnectionsCurrent tracks currently registered connections
	ConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections_current",
			Help: "Currently registered WebSocket connections",
		},
	)

	// ConnectionsTotal tracks total accepted connections
	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_connections_total",
			Help: "Total accepted WebSocket connections",
		},
	)

	// AdmissionRejectionsTotal tracks pre-registry rejections by reason
	AdmissionRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_admission_rejections_total",
			Help: "Connections refused before registration, by reason",
		},
		[]string{"reason"},
	)

	// AuthenticatedUsersCurrent tracks distinct users with live connections
	AuthenticatedUsersCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_authenticated_users_current",
			Help: "Distinct authenticated users with at least one live connection",
		},
	)

	// HeartbeatTerminationsTotal tracks connections pruned by liveness timeout
	HeartbeatTerminationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_heartbeat_terminations_total",
			Help: "Connections forcibly terminated after missing two heartbeat cycles",
		},
	)
)

// Message and broadcast metrics
var (
	// MessagesInboundTotal tracks inbound client messages by type
	MessagesInboundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_messages_inbound_total",
			Help: "Inbound client messages by message type",
		},
		[]string{"type"},
	)

	// MessagesDroppedTotal tracks inbound messages dropped by the rate limiter
	MessagesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_messages_dropped_total",
			Help: "Inbound messages dropped because the rate limit window was exceeded",
		},
	)

	// BroadcastsTotal tracks emit calls by event kind
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_broadcasts_total",
			Help: "Broadcast emissions by event kind",
		},
		[]string{"kind"},
	)

	// DeliveriesTotal tracks per-connection event deliveries
	DeliveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_deliveries_total",
			Help: "Per-connection event deliveries",
		},
	)

	// SendFailuresTotal tracks failed per-connection sends
	SendFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_send_failures_total",
			Help: "Per-connection send failures (dead socket or full buffer)",
		},
	)

	// AuthFailuresTotal tracks rejected authentication attempts
	AuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_auth_failures_total",
			Help: "Rejected authentication attempts",
		},
	)

	// SubscriptionDenialsTotal tracks permission-denied subscribe attempts
	SubscriptionDenialsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_subscription_denials_total",
			Help: "Subscribe attempts denied by the role permission table",
		},
	)

	// HubCommandChannelDepth tracks current hub command channel depth
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_hub_command_channel_depth",
			Help: "Current hub command channel depth",
		},
	)
)
