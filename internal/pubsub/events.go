// Package pubsub provides the event plumbing between a store and its
// consumers: a synchronous Notifier for subscriber callbacks and a generic
// channel Broker for feeding the Bubble Tea update loop.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// StateCommittedEvent is published after a mutation commits.
	StateCommittedEvent EventType = "state-committed"
	// StateRevertedEvent is published after a revert closure commits.
	StateRevertedEvent EventType = "state-reverted"
	// LogEntryEvent carries a formatted log line.
	LogEntryEvent EventType = "log-entry"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
