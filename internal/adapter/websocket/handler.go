package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hbpc002/log-lottery/internal/adapter/metrics"
	"github.com/hbpc002/log-lottery/internal/broadcast"
	apperrors "github.com/hbpc002/log-lottery/internal/platform/errors"
	"github.com/jonboulle/clockwork"
)

const (
	readBufferSize  = 1024
	writeBufferSize = 1024
	// Inbound frames are only ever control traffic or ignored chatter.
	maxInboundMessageSize = 4096
)

type subscriber interface {
	Subscribe() (*broadcast.Subscription, error)
}

// Options tunes listener sessions.
type Options struct {
	MaxListeners int
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
	CheckOrigin  func(r *http.Request) bool
}

// Handler upgrades GET /api/ws requests into listener sessions fed by the broadcaster.
type Handler struct {
	subscriber subscriber
	upgrader   websocket.Upgrader
	opts       Options
	clock      clockwork.Clock
	metrics    *metrics.WebSocketMetrics
	active     atomic.Int64

	mu       sync.Mutex
	draining bool
	sessions sync.WaitGroup
}

func NewHandler(subscriber subscriber, opts Options, clock clockwork.Clock, m *metrics.WebSocketMetrics) *Handler {
	h := &Handler{
		subscriber: subscriber,
		opts:       opts,
		clock:      clock,
		metrics:    m,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: writeBufferSize,
		CheckOrigin:     opts.CheckOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			writeEnvelope(w, &apperrors.Error{
				Type:    apperrors.TypeForStatus(status),
				Message: reason.Error(),
				Status:  status,
			})
		},
	}
	return h
}

// Active reports the number of sessions currently holding a listener slot.
func (h *Handler) Active() int {
	return int(h.active.Load())
}

// Wait blocks until every listener session has finished or ctx ends. Requests arriving
// after Wait was called are refused. Call it after the broadcaster has been stopped so
// sessions can deliver their going-away close frame.
func (h *Handler) Wait(ctx context.Context) error {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for listener sessions: %w", ctx.Err())
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.track() {
		h.metrics.Rejected.WithLabelValues(metrics.RejectedStopped).Inc()
		writeEnvelope(w, apperrors.UnavailableError("server shutting down"))
		return
	}
	defer h.sessions.Done()

	if !h.reserve() {
		h.metrics.Rejected.WithLabelValues(metrics.RejectedCapacity).Inc()
		slog.WarnContext(ctx, "Listener rejected, limit reached", "max_listeners", h.opts.MaxListeners)
		writeEnvelope(w, apperrors.UnavailableError("listener limit reached"))
		return
	}
	defer h.active.Add(-1)

	sub, err := h.subscriber.Subscribe()
	if err != nil {
		h.metrics.Rejected.WithLabelValues(metrics.RejectedStopped).Inc()
		writeEnvelope(w, apperrors.UnavailableError("server shutting down").Wrap(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		h.metrics.Rejected.WithLabelValues(metrics.RejectedUpgrade).Inc()
		slog.InfoContext(ctx, "WebSocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	session := newListenerSession(conn, sub, h.clock, h.opts, h.metrics)

	h.metrics.ActiveListeners.Inc()
	defer h.metrics.ActiveListeners.Dec()

	slog.InfoContext(ctx, "Listener connected", "session_id", session.id, "remote_addr", r.RemoteAddr, "listeners", h.Active())
	session.serve(ctx)
	slog.InfoContext(ctx, "Listener disconnected", "session_id", session.id, "dropped", sub.Dropped())
}

// track admits a request into the session group unless the handler is draining.
func (h *Handler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.draining {
		return false
	}
	h.sessions.Add(1)
	return true
}

func (h *Handler) reserve() bool {
	if h.active.Add(1) > int64(h.opts.MaxListeners) {
		h.active.Add(-1)
		return false
	}
	return true
}

func writeEnvelope(w http.ResponseWriter, err *apperrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus())
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
