package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/apipat2499/omni-sales-realtime/internal/auth"
	"github.com/apipat2499/omni-sales-realtime/internal/config"
	"github.com/apipat2499/omni-sales-realtime/internal/dispatch"
	"github.com/apipat2499/omni-sales-realtime/internal/events"
	"github.com/apipat2499/omni-sales-realtime/internal/hub"
)

const testJWTSecret = "server-test-secret-0123456789"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "0",
		WSPath:              "/ws",
		MaxConnections:      100,
		MaxConnectionsPerIP: 10,
		ConnectionRate:      1000,
		ConnectionBurst:     1000,
		AllowedOrigins:      "*",
		PingInterval:        time.Hour,
		PongTimeout:         2 * time.Hour,
		RateLimitWindow:     time.Minute,
		RateLimitMaxEvents:  100,
		JWTSecret:           testJWTSecret,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// newTestServer wires the full stack behind an httptest server.
func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	clock := clockwork.NewRealClock()
	issuer := auth.NewIssuer(cfg.JWTSecret, clock)
	h := hub.NewHub(issuer, clock, hub.Options{
		PingInterval:       cfg.PingInterval,
		RateLimitWindow:    cfg.RateLimitWindow,
		RateLimitMaxEvents: cfg.RateLimitMaxEvents,
	})
	t.Cleanup(h.Stop)

	srv := NewServer(cfg, h, issuer, dispatch.NewNotifier(h))

	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	return srv, ts
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func dialWS(t *testing.T, ts *httptest.Server) *ws.Conn {
	t.Helper()
	conn, _, err := ws.DefaultDialer.Dial(wsURL(ts, "/ws"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func readFrame(t *testing.T, conn *ws.Conn) events.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var env events.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}
