package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/apipat2499/omni-sales-realtime/internal/errors"
	"github.com/apipat2499/omni-sales-realtime/internal/logging"
	"github.com/apipat2499/omni-sales-realtime/internal/metrics"
)

const preflightMaxAge = "86400" // 24h

// ClientIP resolves the admission-control identity of a request: the
// CDN-provided header first, then the reverse-proxy headers, else "unknown".
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("cf-connecting-ip"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("x-real-ip"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("x-forwarded-for"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return "unknown"
}

// originAllowed applies the exact-match allowlist; a single "*" entry
// permits any origin. Requests without an Origin header (non-browser
// clients) are allowed.
func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handlePreflight answers the CORS pre-flight for the handshake endpoint.
func (s *Server) handlePreflight(c echo.Context) error {
	origin := c.Request().Header.Get("Origin")
	if !s.originAllowed(origin) {
		return apperrors.AdmissionError("origin not allowed").WithContext("origin", origin)
	}

	h := c.Response().Header()
	if origin != "" {
		h.Set("Access-Control-Allow-Origin", origin)
	} else {
		h.Set("Access-Control-Allow-Origin", "*")
	}
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Origin, Sec-WebSocket-Version, Sec-WebSocket-Key, Sec-WebSocket-Protocol, Sec-WebSocket-Extensions, Upgrade, Connection")
	h.Set("Access-Control-Max-Age", preflightMaxAge)
	return c.NoContent(http.StatusNoContent)
}

// validateHandshake checks the upgrade headers before admission control.
func validateHandshake(r *http.Request) *apperrors.Error {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return apperrors.AdmissionError("missing websocket upgrade header")
	}
	if !strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") {
		return apperrors.AdmissionError("missing connection upgrade header")
	}
	if v := r.Header.Get("Sec-WebSocket-Version"); v != "13" {
		return apperrors.AdmissionError("unsupported websocket version").WithContext("version", v)
	}
	return nil
}

func (s *Server) handleWebSocket(c echo.Context) error {
	r := c.Request()

	if err := validateHandshake(r); err != nil {
		metrics.AdmissionRejectionsTotal.WithLabelValues("handshake").Inc()
		return err
	}

	origin := r.Header.Get("Origin")
	if !s.originAllowed(origin) {
		metrics.AdmissionRejectionsTotal.WithLabelValues("origin").Inc()
		return apperrors.AdmissionError("origin not allowed").WithContext("origin", origin)
	}

	ip := ClientIP(r)
	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.AdmissionRejectionsTotal.WithLabelValues(string(reason)).Inc()
		return apperrors.CapacityError("connection limit reached").WithContext("reason", string(reason))
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(c.Response(), r, nil)
	if err != nil {
		s.limits.Release(ip)
		// Upgrade already wrote the HTTP error response.
		slog.Warn("WebSocket upgrade failed", "ip", ip, "error", err)
		return nil
	}

	id, err := s.hub.Register(conn, ip)
	if err != nil {
		s.limits.Release(ip)
		slog.Error("Failed to register connection", "ip", ip, "error", err)
		_ = conn.Close()
		return nil
	}

	// Transport-level read deadline backing the hub's liveness protocol:
	// a pong or any inbound frame pushes it forward.
	_ = conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		s.hub.Pong(id)
		return conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	ctx := logging.WithConnectionID(r.Context(), id.String())

	// Read pump: errors on a connection are logged only; cleanup happens
	// through the normal close path below.
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.WarnContext(ctx, "WebSocket read error", "error", err)
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
		s.hub.Inbound(id, raw)
	}

	s.hub.Unregister(id, "client disconnected")
	s.limits.Release(ip)

	return nil
}
