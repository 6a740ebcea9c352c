package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/apipat2499/omni-sales-realtime/internal/metrics"
)

const (
	writeDeadline   = 5 * time.Second
	frameBufferSize = 16
)

// outFrame is a queued outbound WebSocket frame.
type outFrame struct {
	messageType int
	payload     []byte
}

// clientWriter serializes all writes to one connection through a single
// goroutine. The hub enqueues frames non-blocking; a full buffer is a
// delivery failure for this connection only.
type clientWriter struct {
	connection *websocket.Conn
	clock      clockwork.Clock
	sendCh     chan outFrame
	doneCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func newClientWriter(connection *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		connection: connection,
		clock:      clock,
		sendCh:     make(chan outFrame, frameBufferSize),
		doneCh:     make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	defer cw.wg.Done()

	for {
		select {
		case frame, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(frame.messageType, frame.payload); err != nil {
				metrics.SendFailuresTotal.Inc()
				return
			}
		case <-cw.doneCh:
			return
		}
	}
}

// trySend enqueues a text frame without blocking. Returns false when the
// buffer is full.
func (cw *clientWriter) trySend(payload []byte) bool {
	select {
	case cw.sendCh <- outFrame{messageType: websocket.TextMessage, payload: payload}:
		return true
	default:
		return false
	}
}

// tryPing enqueues a protocol-level ping without blocking.
func (cw *clientWriter) tryPing() bool {
	select {
	case cw.sendCh <- outFrame{messageType: websocket.PingMessage}:
		return true
	default:
		return false
	}
}

// stop terminates the writer and closes the socket without a close frame.
// Used for forcible termination (heartbeat timeout, slow-client eviction).
func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneCh)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

// stopGraceful sends a WebSocket close frame with reason before closing.
func (cw *clientWriter) stopGraceful(reason string) {
	cw.stopOnce.Do(func() {
		// Signal the run goroutine to exit first, then wait, so the close
		// frame is never written concurrently with a queued frame.
		close(cw.doneCh)
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

func (cw *clientWriter) updateWriteDeadline() {
	deadline := cw.clock.Now().Add(writeDeadline)
	_ = cw.connection.SetWriteDeadline(deadline)
}
