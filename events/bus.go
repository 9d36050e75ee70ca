// Package events provides the in-process publish/subscribe fan-out that
// carries models.DomainEvent from every pipeline stage to its listeners
// (the audit sink, the execution engine, the websocket broadcaster).
package events

import (
	"sync"

	"github.com/alexherrero/tradepipe/models"
	"github.com/rs/zerolog/log"
)

// Subscriber receives every event published to the bus. It must not block
// for long; slow subscribers should hand off to their own goroutine.
type Subscriber func(models.DomainEvent)

// Bus is a mutex-guarded multi-producer, multi-consumer fan-out. It
// replaces the Python original's single `event_publisher: Callable`
// constructor argument with a proper subscribe surface so the audit sink,
// the execution engine, and the websocket broadcaster can all listen
// independently.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber that will be invoked synchronously for
// every subsequent Publish call.
func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

// Publish fans an event out to every current subscriber. Subscriber
// panics are recovered and logged so one bad listener cannot take down
// the publisher or its sibling subscribers.
func (b *Bus) Publish(evt models.DomainEvent) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str("event_kind", string(evt.Kind)).
						Interface("panic", r).
						Msg("event subscriber panicked")
				}
			}()
			sub(evt)
		}()
	}
}
