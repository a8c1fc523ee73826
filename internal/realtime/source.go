// Package realtime turns database change notifications for completed orders
// into authoritative feed reloads.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
)

type EventType string

const (
	EventCreate      EventType = "create"
	EventUpdate      EventType = "update"
	EventDelete      EventType = "delete"
	EventUnspecified EventType = "unspecified"
)

// ChangeEvent is one row change on the orders table. Neither field is
// interpreted beyond triggering a reload.
type ChangeEvent struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Subscription is a live stream of change events. Events is closed when the
// subscription ends; Err then reports why (nil after Close).
type Subscription interface {
	Events() <-chan ChangeEvent
	Err() error
	Close() error
}

// Source opens subscriptions to change events for completed orders.
type Source interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

const eventBuffer = 64

// streamSubscription runs a producer goroutine feeding a buffered channel.
type streamSubscription struct {
	events chan ChangeEvent
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// startStream runs produce until it returns or ctx is cancelled. produce must
// return promptly once its context is done.
func startStream(ctx context.Context, produce func(ctx context.Context, emit func(ChangeEvent) bool) error) *streamSubscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &streamSubscription{
		events: make(chan ChangeEvent, eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	emit := func(ev ChangeEvent) bool {
		select {
		case s.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	go func() {
		defer close(s.done)
		defer close(s.events)
		err := produce(ctx, emit)
		if err != nil && ctx.Err() == nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()
	return s
}

func (s *streamSubscription) Events() <-chan ChangeEvent { return s.events }

func (s *streamSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *streamSubscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}
