// Package broadcast implements the single shared topic that fans accepted submissions out
// to every live listener.
//
// Each subscriber owns a bounded buffer. Publish never blocks: when a buffer is full the
// oldest pending message of that subscriber is discarded. Publishes are serialized, so all
// subscribers observe messages in the same order.
package broadcast
