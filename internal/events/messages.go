package events

import "encoding/json"

// InboundType tags a client-to-server message. The set is closed; anything
// else is a transport error.
type InboundType string

const (
	InboundAuth        InboundType = "auth"
	InboundSubscribe   InboundType = "subscribe"
	InboundUnsubscribe InboundType = "unsubscribe"
	InboundPing        InboundType = "ping"
)

// Inbound is the envelope for client-to-server messages.
type Inbound struct {
	Type InboundType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SubscribeData is the payload of subscribe/unsubscribe messages.
type SubscribeData struct {
	Namespace Namespace `json:"namespace"`
}

// Outbound frame types that are not domain event kinds.
const (
	TypeNotification = "system:notification"
	TypeAlert        = "system:alert"
	TypePong         = "pong"
)

// Envelope is the server-to-client frame: a domain event kind or one of the
// system frame types, with a server-side epoch-millisecond timestamp.
type Envelope struct {
	Type      string    `json:"type"`
	Namespace Namespace `json:"namespace,omitempty"`
	Data      any       `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

// Alert codes carried in system:alert frames.
const (
	AlertPermissionDenied = "permission_denied"
	AlertRateLimited      = "rate_limited"
	AlertInvalidMessage   = "invalid_message"
	AlertAuthFailed       = "auth_failed"
)

// NotificationData is the payload of system:notification frames.
type NotificationData struct {
	Message      string `json:"message"`
	ConnectionID string `json:"connectionId,omitempty"`
}

// AlertData is the payload of system:alert frames.
type AlertData struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Namespace Namespace `json:"namespace,omitempty"`
}

// PongData is the payload of pong frames answering application-level pings.
type PongData struct {
	Timestamp int64 `json:"timestamp"`
}
