package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConnPair returns the server and client sides of a live WebSocket
// connection over httptest.
func newTestConnPair(t *testing.T) (server *ws.Conn, client *ws.Conn) {
	t.Helper()

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ready := make(chan *ws.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ready <- conn
	}))
	t.Cleanup(func() { srv.Close() })

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server connection")
	}
	t.Cleanup(func() { server.Close() })

	return server, client
}

func TestClientWriter_DeliversQueuedFrames(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	t.Cleanup(cw.stop)

	require.True(t, cw.trySend([]byte("first")))
	require.True(t, cw.trySend([]byte("second")))

	for _, want := range []string{"first", "second"} {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		msgType, payload, err := client.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, ws.TextMessage, msgType)
		assert.Equal(t, want, string(payload))
	}
}

func TestClientWriter_TrySendFailsWhenBufferFull(t *testing.T) {
	server, _ := newTestConnPair(t)

	cw := &clientWriter{
		connection: server,
		clock:      clockwork.NewRealClock(),
		sendCh:     make(chan outFrame, frameBufferSize),
		doneCh:     make(chan struct{}),
	}
	// No run goroutine: the buffer fills and stays full.

	for i := 0; i < frameBufferSize; i++ {
		require.True(t, cw.trySend([]byte("x")), "frame %d should fit", i)
	}
	assert.False(t, cw.trySend([]byte("overflow")))
	assert.False(t, cw.tryPing())
}

func TestClientWriter_PingReachesClient(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())
	t.Cleanup(cw.stop)

	pinged := make(chan struct{}, 1)
	client.SetPingHandler(func(string) error {
		pinged <- struct{}{}
		return nil
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	require.True(t, cw.tryPing())

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("expected ping to reach the client")
	}
}

func TestClientWriter_StopGracefulSendsCloseFrame(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())

	closeCode := make(chan int, 1)
	client.SetCloseHandler(func(code int, text string) error {
		closeCode <- code
		return nil
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	cw.stopGraceful("test shutdown")

	select {
	case code := <-closeCode:
		assert.Equal(t, ws.CloseNormalClosure, code)
	case <-time.After(2 * time.Second):
		t.Fatal("expected close frame")
	}
}

func TestClientWriter_StopWithoutCloseFrame(t *testing.T) {
	server, client := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())

	sawCloseFrame := make(chan struct{}, 1)
	client.SetCloseHandler(func(int, string) error {
		sawCloseFrame <- struct{}{}
		return nil
	})
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	cw.stop()

	select {
	case err := <-readErr:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected connection teardown")
	}
	select {
	case <-sawCloseFrame:
		t.Fatal("forcible stop must not send a close frame")
	default:
	}
}

func TestClientWriter_StopIsIdempotent(t *testing.T) {
	server, _ := newTestConnPair(t)

	cw := newClientWriter(server, clockwork.NewRealClock())

	cw.stop()
	cw.stop()
	cw.stopGraceful("already stopped")
}
