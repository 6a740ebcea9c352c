package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/apipat2499/omni-sales-realtime/internal/auth"
	"github.com/apipat2499/omni-sales-realtime/internal/events"
	"github.com/apipat2499/omni-sales-realtime/internal/metrics"
)

const (
	commandTimeout   = 5 * time.Second
	stopTimeout      = 10 * time.Second
	commandQueueSize = 256
)

// Options configures hub behavior. Zero fields fall back to the defaults
// from the protocol design.
type Options struct {
	// PingInterval is the heartbeat tick. A connection that produces no
	// pong within one full interval of a probe is terminated on the next
	// tick (two-tick liveness protocol).
	PingInterval time.Duration
	// RateLimitWindow and RateLimitMaxEvents bound inbound messages per
	// connection with a fixed window.
	RateLimitWindow    time.Duration
	RateLimitMaxEvents int
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.RateLimitWindow <= 0 {
		o.RateLimitWindow = 60 * time.Second
	}
	if o.RateLimitMaxEvents <= 0 {
		o.RateLimitMaxEvents = 100
	}
	return o
}

// connection is the per-connection state owned by the hub goroutine.
type connection struct {
	id     uuid.UUID
	writer *clientWriter
	ip     string

	authenticated bool
	userID        string
	role          auth.Role
	sessionID     string

	namespaces map[events.Namespace]struct{}

	connectedAt  time.Time
	lastActivity time.Time
	isAlive      bool

	eventCount  int
	windowStart time.Time
}

func (c *connection) subscribed(ns events.Namespace) bool {
	_, ok := c.namespaces[ns]
	return ok
}

// effectiveRole is guest until authentication succeeds, granting exactly
// the public system namespace.
func (c *connection) effectiveRole() auth.Role {
	if c.authenticated {
		return c.role
	}
	return auth.RoleGuest
}

// --- Commands ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	conn    *websocket.Conn
	ip      string
	replyCh chan registerReply
}

type registerReply struct {
	id  uuid.UUID
	err error
}

type unregisterCmd struct {
	baseHubCmd
	id     uuid.UUID
	reason string
}

type inboundCmd struct {
	baseHubCmd
	id  uuid.UUID
	raw []byte
}

type pongCmd struct {
	baseHubCmd
	id uuid.UUID
}

type emitCmd struct {
	baseHubCmd
	kind      events.Kind
	namespace events.Namespace
	payload   any
	target    Target
}

type statsCmd struct {
	baseHubCmd
	replyCh chan Stats
}

type stopCmd struct {
	baseHubCmd
}

// Stats is a point-in-time snapshot of hub state.
type Stats struct {
	Connections        int                      `json:"connections"`
	AuthenticatedUsers int                      `json:"authenticatedUsers"`
	Subscriptions      map[events.Namespace]int `json:"subscriptions"`
	Roles              map[auth.Role]int        `json:"roles"`
}

// Hub owns all live connections and routes broadcasts to them.
type Hub struct {
	cmdCh  chan hubCmd
	clock  clockwork.Clock
	issuer *auth.Issuer
	opts   Options

	conns     map[uuid.UUID]*connection
	userIndex map[string]map[uuid.UUID]struct{}

	done chan struct{}
}

// NewHub creates a hub and starts its goroutine. issuer verifies signed
// tokens presented in auth messages.
func NewHub(issuer *auth.Issuer, clock clockwork.Clock, opts Options) *Hub {
	h := &Hub{
		cmdCh:     make(chan hubCmd, commandQueueSize),
		clock:     clock,
		issuer:    issuer,
		opts:      opts.withDefaults(),
		conns:     make(map[uuid.UUID]*connection),
		userIndex: make(map[string]map[uuid.UUID]struct{}),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

// --- Public API ---

// Register adds an already-admitted transport connection to the registry.
// Returns the assigned connection id. The welcome notification carrying the
// id is sent before Register returns.
func (h *Hub) Register(conn *websocket.Conn, ip string) (uuid.UUID, error) {
	replyCh := make(chan registerReply, 1)
	h.cmdCh <- registerCmd{conn: conn, ip: ip, replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case reply := <-replyCh:
		return reply.id, reply.err
	case <-timer.Chan():
		return uuid.Nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection through the normal close path.
func (h *Hub) Unregister(id uuid.UUID, reason string) {
	h.cmdCh <- unregisterCmd{id: id, reason: reason}
}

// Inbound hands a raw client frame to the hub for rate limiting, decoding,
// and dispatch. Malformed input never closes the connection.
func (h *Hub) Inbound(id uuid.UUID, raw []byte) {
	h.cmdCh <- inboundCmd{id: id, raw: raw}
}

// Pong records a protocol-level pong, flipping the liveness flag back on.
func (h *Hub) Pong(id uuid.UUID) {
	h.cmdCh <- pongCmd{id: id}
}

// Emit broadcasts an event to every connection matching target.
// Fire-and-forget: delivery failures are logged per connection and never
// surface to the caller.
func (h *Hub) Emit(kind events.Kind, namespace events.Namespace, payload any, target Target) {
	h.cmdCh <- emitCmd{kind: kind, namespace: namespace, payload: payload, target: target}
}

// Stats returns a snapshot of registry state, or a zero snapshot on timeout.
func (h *Hub) Stats() Stats {
	replyCh := make(chan Stats, 1)
	h.cmdCh <- statsCmd{replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case stats := <-replyCh:
		return stats
	case <-timer.Chan():
		slog.Warn("Stats command timed out", "timeout", commandTimeout)
		return Stats{}
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	return h.Stats().Connections
}

// Stop shuts the hub down, closing all connections with a close frame.
// Blocks until the hub goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

// --- Actor loop ---

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAll("internal error")
			close(h.done)
		}
	}()

	heartbeat := h.clock.NewTicker(h.opts.PingInterval)
	defer heartbeat.Stop()

	depthTicker := h.clock.NewTicker(time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			metrics.HubCommandChannelDepth.Set(float64(len(h.cmdCh)))

		case <-heartbeat.Chan():
			h.handleHeartbeatTick()

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.handleUnregister(c.id, c.reason)
			case inboundCmd:
				h.handleInbound(c)
			case pongCmd:
				h.handlePong(c.id)
			case emitCmd:
				h.handleEmit(c)
			case statsCmd:
				c.replyCh <- h.snapshot()
			case stopCmd:
				h.handleStop()
				close(h.done)
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	now := h.clock.Now()
	conn := &connection{
		id:           uuid.New(),
		writer:       newClientWriter(c.conn, h.clock),
		ip:           c.ip,
		namespaces:   make(map[events.Namespace]struct{}),
		connectedAt:  now,
		lastActivity: now,
		isAlive:      true,
		windowStart:  now,
	}
	h.conns[conn.id] = conn

	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsCurrent.Set(float64(len(h.conns)))

	h.sendEnvelope(conn, events.TypeNotification, "", events.NotificationData{
		Message:      "connected",
		ConnectionID: conn.id.String(),
	})

	slog.Debug("Connection registered", "connection_id", conn.id.String(), "ip", c.ip, "total", len(h.conns))
	c.replyCh <- registerReply{id: conn.id}
}

func (h *Hub) handleUnregister(id uuid.UUID, reason string) {
	conn, exists := h.conns[id]
	if !exists {
		return
	}
	h.remove(conn)
	conn.writer.stopGraceful(reason)
	slog.Debug("Connection closed", "connection_id", id.String(), "reason", reason, "remaining", len(h.conns))
}

// remove deletes the connection from the registry and the per-user index,
// dropping the user's index entry entirely once empty.
func (h *Hub) remove(conn *connection) {
	delete(h.conns, conn.id)

	if conn.authenticated {
		if set, ok := h.userIndex[conn.userID]; ok {
			delete(set, conn.id)
			if len(set) == 0 {
				delete(h.userIndex, conn.userID)
			}
		}
	}

	metrics.ConnectionsCurrent.Set(float64(len(h.conns)))
	metrics.AuthenticatedUsersCurrent.Set(float64(len(h.userIndex)))
}

func (h *Hub) handlePong(id uuid.UUID) {
	conn, exists := h.conns[id]
	if !exists {
		return
	}
	conn.isAlive = true
	conn.lastActivity = h.clock.Now()
}

// handleHeartbeatTick enforces two-tick liveness: a connection that has not
// pong'd since the previous probe is terminated silently.
func (h *Hub) handleHeartbeatTick() {
	var dead []*connection
	for _, conn := range h.conns {
		if !conn.isAlive {
			dead = append(dead, conn)
			continue
		}
		conn.isAlive = false
		if !conn.writer.tryPing() {
			metrics.SendFailuresTotal.Inc()
		}
	}

	for _, conn := range dead {
		h.remove(conn)
		conn.writer.stop()
		metrics.HeartbeatTerminationsTotal.Inc()
		slog.Info("Connection terminated by heartbeat timeout", "connection_id", conn.id.String())
	}
}

func (h *Hub) handleInbound(c inboundCmd) {
	conn, exists := h.conns[c.id]
	if !exists {
		return
	}

	now := h.clock.Now()
	conn.isAlive = true
	conn.lastActivity = now

	// Fixed-window rate limiting, intentionally not a token bucket.
	if now.Sub(conn.windowStart) > h.opts.RateLimitWindow {
		conn.eventCount = 0
		conn.windowStart = now
	}
	conn.eventCount++
	if conn.eventCount > h.opts.RateLimitMaxEvents {
		metrics.MessagesDroppedTotal.Inc()
		h.sendEnvelope(conn, events.TypeAlert, "", events.AlertData{
			Code:    events.AlertRateLimited,
			Message: fmt.Sprintf("rate limit exceeded: max %d events per %v", h.opts.RateLimitMaxEvents, h.opts.RateLimitWindow),
		})
		return
	}

	var msg events.Inbound
	if err := json.Unmarshal(c.raw, &msg); err != nil {
		slog.Warn("Malformed inbound message", "connection_id", conn.id.String(), "error", err)
		h.sendEnvelope(conn, events.TypeAlert, "", events.AlertData{
			Code:    events.AlertInvalidMessage,
			Message: "malformed JSON message",
		})
		return
	}

	metrics.MessagesInboundTotal.WithLabelValues(string(msg.Type)).Inc()

	switch msg.Type {
	case events.InboundAuth:
		h.handleAuth(conn, msg.Data)
	case events.InboundSubscribe:
		h.handleSubscribe(conn, msg.Data)
	case events.InboundUnsubscribe:
		h.handleUnsubscribe(conn, msg.Data)
	case events.InboundPing:
		h.sendEnvelope(conn, events.TypePong, "", events.PongData{Timestamp: h.clock.Now().UnixMilli()})
	default:
		h.sendEnvelope(conn, events.TypeAlert, "", events.AlertData{
			Code:    events.AlertInvalidMessage,
			Message: fmt.Sprintf("unknown message type %q", msg.Type),
		})
	}
}

func (h *Hub) handleAuth(conn *connection, data json.RawMessage) {
	var token auth.Token
	if err := json.Unmarshal(data, &token); err != nil {
		h.rejectAuth(conn, fmt.Errorf("malformed auth data: %w", err))
		return
	}

	if token.Signed != "" {
		parsed, err := h.issuer.ParseSigned(token.Signed)
		if err != nil {
			h.rejectAuth(conn, err)
			return
		}
		token = parsed
	}

	if err := token.Validate(h.clock.Now()); err != nil {
		h.rejectAuth(conn, err)
		return
	}

	// Re-authentication moves the connection between user index entries
	// and prunes subscriptions the new role may not hold.
	if conn.authenticated {
		if set, ok := h.userIndex[conn.userID]; ok {
			delete(set, conn.id)
			if len(set) == 0 {
				delete(h.userIndex, conn.userID)
			}
		}
	}

	conn.authenticated = true
	conn.userID = token.UserID
	conn.role = token.Role
	conn.sessionID = token.SessionID

	for ns := range conn.namespaces {
		if !auth.RoleAllows(conn.role, ns) {
			delete(conn.namespaces, ns)
		}
	}

	set, ok := h.userIndex[conn.userID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		h.userIndex[conn.userID] = set
	}
	set[conn.id] = struct{}{}

	metrics.AuthenticatedUsersCurrent.Set(float64(len(h.userIndex)))

	h.sendEnvelope(conn, events.TypeNotification, "", events.NotificationData{
		Message: "authenticated",
	})
	slog.Debug("Connection authenticated", "connection_id", conn.id.String(), "user_id", conn.userID, "role", string(conn.role))
}

// rejectAuth surfaces an auth failure back over the same connection.
// The connection stays open, unauthenticated.
func (h *Hub) rejectAuth(conn *connection, err error) {
	metrics.AuthFailuresTotal.Inc()
	slog.Info("Authentication rejected", "connection_id", conn.id.String(), "error", err)
	h.sendEnvelope(conn, events.TypeAlert, "", events.AlertData{
		Code:    events.AlertAuthFailed,
		Message: "authentication failed",
	})
}

func (h *Hub) handleSubscribe(conn *connection, data json.RawMessage) {
	var sub events.SubscribeData
	if err := json.Unmarshal(data, &sub); err != nil {
		h.sendEnvelope(conn, events.TypeAlert, "", events.AlertData{
			Code:    events.AlertInvalidMessage,
			Message: "malformed subscribe data",
		})
		return
	}

	role := conn.effectiveRole()
	if !events.ValidNamespace(sub.Namespace) || !auth.RoleAllows(role, sub.Namespace) {
		metrics.SubscriptionDenialsTotal.Inc()
		slog.Info("Subscription denied", "connection_id", conn.id.String(), "role", string(role), "namespace", string(sub.Namespace))
		h.sendEnvelope(conn, events.TypeAlert, sub.Namespace, events.AlertData{
			Code:      events.AlertPermissionDenied,
			Message:   fmt.Sprintf("role %q may not subscribe to %q", role, sub.Namespace),
			Namespace: sub.Namespace,
		})
		return
	}

	// Idempotent: already subscribed is a silent success.
	if conn.subscribed(sub.Namespace) {
		return
	}
	conn.namespaces[sub.Namespace] = struct{}{}

	h.sendEnvelope(conn, events.TypeNotification, sub.Namespace, events.NotificationData{
		Message: fmt.Sprintf("subscribed to %s", sub.Namespace),
	})
}

func (h *Hub) handleUnsubscribe(conn *connection, data json.RawMessage) {
	var sub events.SubscribeData
	if err := json.Unmarshal(data, &sub); err != nil {
		h.sendEnvelope(conn, events.TypeAlert, "", events.AlertData{
			Code:    events.AlertInvalidMessage,
			Message: "malformed unsubscribe data",
		})
		return
	}

	// Always succeeds, idempotently.
	delete(conn.namespaces, sub.Namespace)
}

func (h *Hub) handleEmit(c emitCmd) {
	metrics.BroadcastsTotal.WithLabelValues(string(c.kind)).Inc()

	envelope := events.Envelope{
		Type:      string(c.kind),
		Namespace: c.namespace,
		Data:      c.payload,
		Timestamp: h.clock.Now().UnixMilli(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal broadcast envelope", "kind", string(c.kind), "error", err)
		return
	}

	var slow []*connection
	delivered := 0
	for _, conn := range h.conns {
		if !c.target.matches(conn) {
			continue
		}
		if conn.writer.trySend(data) {
			delivered++
		} else {
			slow = append(slow, conn)
		}
	}

	metrics.DeliveriesTotal.Add(float64(delivered))

	// A failed delivery never aborts the rest of the target set; the slow
	// connection is evicted through the normal close path.
	for _, conn := range slow {
		metrics.SendFailuresTotal.Inc()
		slog.Warn("Evicting slow connection", "connection_id", conn.id.String(), "kind", string(c.kind))
		h.remove(conn)
		conn.writer.stop()
	}

	h.cascade(c)
}

// cascade derives the deterministic secondary alert from an inventory
// update: out-of-stock replaces the low-stock alert at zero, critical at
// five or fewer, low at six to ten, nothing above ten.
func (h *Hub) cascade(c emitCmd) {
	if c.kind != events.KindInventoryUpdated {
		return
	}
	payload, ok := c.payload.(events.InventoryPayload)
	if !ok {
		if p, isPtr := c.payload.(*events.InventoryPayload); isPtr {
			payload = *p
		} else {
			return
		}
	}

	alert := events.StockAlertPayload{
		ProductID:   payload.ProductID,
		ProductName: payload.ProductName,
		NewStock:    payload.NewStock,
	}

	switch {
	case payload.NewStock <= 0:
		h.handleEmit(emitCmd{kind: events.KindInventoryOutOfStock, namespace: c.namespace, payload: alert, target: c.target})
	case events.StockSeverity(payload.NewStock) != "":
		alert.Severity = events.StockSeverity(payload.NewStock)
		h.handleEmit(emitCmd{kind: events.KindInventoryLowStock, namespace: c.namespace, payload: alert, target: c.target})
	}
}

// sendEnvelope marshals and enqueues a system frame for one connection.
func (h *Hub) sendEnvelope(conn *connection, frameType string, ns events.Namespace, payload any) {
	envelope := events.Envelope{
		Type:      frameType,
		Namespace: ns,
		Data:      payload,
		Timestamp: h.clock.Now().UnixMilli(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("Failed to marshal envelope", "type", frameType, "error", err)
		return
	}
	if !conn.writer.trySend(data) {
		metrics.SendFailuresTotal.Inc()
		slog.Warn("Dropping frame for slow connection", "connection_id", conn.id.String(), "type", frameType)
	}
}

func (h *Hub) snapshot() Stats {
	stats := Stats{
		Connections:        len(h.conns),
		AuthenticatedUsers: len(h.userIndex),
		Subscriptions:      make(map[events.Namespace]int),
		Roles:              make(map[auth.Role]int),
	}
	for _, conn := range h.conns {
		stats.Roles[conn.effectiveRole()]++
		for ns := range conn.namespaces {
			stats.Subscriptions[ns]++
		}
	}
	return stats
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "connections", len(h.conns))
	h.closeAll("server shutting down")
}

func (h *Hub) closeAll(reason string) {
	for _, conn := range h.conns {
		h.remove(conn)
		conn.writer.stopGraceful(reason)
	}
	metrics.ConnectionsCurrent.Set(0)
	metrics.AuthenticatedUsersCurrent.Set(0)
}
