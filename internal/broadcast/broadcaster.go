package broadcast

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultBufferSize is the number of pending messages kept per subscriber.
const DefaultBufferSize = 100

// ErrStopped is returned by Subscribe once the broadcaster has been stopped.
var ErrStopped = errors.New("broadcaster stopped")

// Broadcaster is a multi-producer, multi-consumer topic.
// It is safe for concurrent use by multiple goroutines.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[*Subscription]struct{}
	bufferSize  int
	stopped     bool
	onDrop      func(subscriptionID uuid.UUID)
}

// NewBroadcaster creates an empty topic.
// bufferSize bounds each subscriber's pending messages (DefaultBufferSize when <= 0).
// onDrop, if set, is called once for every message discarded because a subscriber lagged.
func NewBroadcaster(bufferSize int, onDrop func(subscriptionID uuid.UUID)) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broadcaster{
		subscribers: make(map[*Subscription]struct{}),
		bufferSize:  bufferSize,
		onDrop:      onDrop,
	}
}

// Subscribe registers a new subscription that receives every message published from now on.
func (b *Broadcaster) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return nil, ErrStopped
	}

	sub := &Subscription{
		id:          uuid.New(),
		ch:          make(chan []byte, b.bufferSize),
		broadcaster: b,
	}
	b.subscribers[sub] = struct{}{}

	slog.Debug("Subscription added", "subscription_id", sub.id.String(), "subscribers", len(b.subscribers))
	return sub, nil
}

// Publish queues message for every current subscriber and returns how many received it.
// Publishing with no subscribers is not an error.
func (b *Broadcaster) Publish(message []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subscribers {
		if sub.offer(message) && b.onDrop != nil {
			b.onDrop(sub.id)
		}
	}
	return len(b.subscribers)
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Stopped reports whether Stop has been called.
func (b *Broadcaster) Stopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// Stop closes every subscription channel so their consumers drain and exit.
// Stop is idempotent.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}
	b.stopped = true

	slog.Info("Broadcaster shutting down", "subscribers", len(b.subscribers))
	for sub := range b.subscribers {
		delete(b.subscribers, sub)
		close(sub.ch)
	}
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub.ch)

	slog.Debug("Subscription removed", "subscription_id", sub.id.String(), "remaining", len(b.subscribers))
}

// Subscription is one listener's handle on the topic.
type Subscription struct {
	id          uuid.UUID
	ch          chan []byte
	broadcaster *Broadcaster
	closeOnce   sync.Once
	dropped     atomic.Uint64
}

// ID identifies the subscription in logs and metrics.
func (s *Subscription) ID() uuid.UUID { return s.id }

// C delivers published messages in publish order. It is closed when the subscription
// is closed or the broadcaster stops.
func (s *Subscription) C() <-chan []byte { return s.ch }

// Dropped returns how many messages were discarded because this subscriber lagged.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close unsubscribes. Safe to call more than once and after the broadcaster stopped.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.broadcaster.remove(s)
	})
}

// offer enqueues message, discarding the oldest pending message if the buffer is full.
// It reports whether a message was discarded. Callers hold the broadcaster lock, so this
// is the only sender on s.ch.
func (s *Subscription) offer(message []byte) bool {
	dropped := false
	for {
		select {
		case s.ch <- message:
			return dropped
		default:
		}

		select {
		case <-s.ch:
			dropped = true
			s.dropped.Add(1)
		default:
			// The consumer drained a slot in between; retry the send.
		}
	}
}
