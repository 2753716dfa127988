package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hbpc002/log-lottery/internal/adapter/metrics"
	"github.com/hbpc002/log-lottery/internal/broadcast"
	"github.com/jonboulle/clockwork"
)

// listenerSession pairs one connection with one broadcast subscription.
// Only the write pump calls WriteMessage. Control replies go through WriteControl,
// which gorilla allows concurrently with other writers.
type listenerSession struct {
	id      uuid.UUID
	conn    *websocket.Conn
	sub     *broadcast.Subscription
	clock   clockwork.Clock
	opts    Options
	metrics *metrics.WebSocketMetrics

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newListenerSession(conn *websocket.Conn, sub *broadcast.Subscription, clock clockwork.Clock, opts Options, m *metrics.WebSocketMetrics) *listenerSession {
	return &listenerSession{
		id:      sub.ID(),
		conn:    conn,
		sub:     sub,
		clock:   clock,
		opts:    opts,
		metrics: m,
		done:    make(chan struct{}),
	}
}

// serve runs both pumps and returns once both have exited and the session is torn down.
func (s *listenerSession) serve(ctx context.Context) {
	s.conn.SetReadLimit(maxInboundMessageSize)
	s.configureControlHandlers()

	s.wg.Add(2)
	go s.writePump(ctx)
	go s.readPump(ctx)
	s.wg.Wait()
}

func (s *listenerSession) writePump(ctx context.Context) {
	defer s.wg.Done()
	defer s.teardown()

	ticker := s.clock.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.sub.C():
			if !ok {
				select {
				case <-s.done:
				default:
					// Broadcaster stopped underneath us.
					s.writeClose(websocket.CloseGoingAway, "server shutting down")
				}
				return
			}
			s.updateWriteDeadline()
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.DebugContext(ctx, "Listener write failed", "session_id", s.id, "error", err)
				return
			}
			s.metrics.MessagesPublished.Inc()
		case <-ticker.Chan():
			s.updateWriteDeadline()
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.DebugContext(ctx, "Listener ping failed", "session_id", s.id, "error", err)
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *listenerSession) readPump(ctx context.Context) {
	defer s.wg.Done()
	defer s.teardown()

	s.updateReadDeadline()
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				slog.DebugContext(ctx, "Listener read ended", "session_id", s.id, "error", err)
			}
			return
		}
		s.updateReadDeadline()
	}
}

func (s *listenerSession) configureControlHandlers() {
	s.conn.SetPingHandler(func(appData string) error {
		s.updateReadDeadline()
		return ignoreClosed(s.conn.WriteControl(websocket.PongMessage, []byte(appData), s.writeDeadline()))
	})
	s.conn.SetPongHandler(func(string) error {
		s.updateReadDeadline()
		return nil
	})
	s.conn.SetCloseHandler(func(code int, text string) error {
		s.writeClose(code, text)
		return nil
	})
}

// writeClose sends a close frame. Safe to call from either pump.
func (s *listenerSession) writeClose(code int, text string) {
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), s.writeDeadline())
}

// teardown releases the subscription and the transport exactly once.
// done is closed first so the write pump can tell teardown from a broadcaster stop.
func (s *listenerSession) teardown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.sub.Close()
		_ = s.conn.Close()
	})
}

func (s *listenerSession) writeDeadline() time.Time {
	return s.clock.Now().Add(s.opts.WriteTimeout)
}

func (s *listenerSession) updateWriteDeadline() {
	_ = s.conn.SetWriteDeadline(s.writeDeadline())
}

func (s *listenerSession) updateReadDeadline() {
	_ = s.conn.SetReadDeadline(s.clock.Now().Add(s.opts.PongTimeout))
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil
	}
	return err
}
