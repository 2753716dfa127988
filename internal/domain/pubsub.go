package domain

// Publisher fans a message out to every currently subscribed listener.
// Publish never blocks on slow listeners and never fails; it returns the number
// of listeners the message was queued for.
type Publisher interface {
	Publish(message []byte) int
	SubscriberCount() int
}
