/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"sync"

	"github.com/friendsincode/matchday/internal/telemetry"
)

// SubscriberBuffer is the queue depth of each subscriber. It holds a full
// season of per-run events before Publish starts dropping.
const SubscriberBuffer = 128

// EventType enumerates event categories.
type EventType string

const (
	// EventScheduleCompleted is published once per finished scheduling run.
	EventScheduleCompleted EventType = "schedule.completed"
	// EventScheduleRejected is published once per match run that left
	// matches without a date. The payload lists every rejection.
	EventScheduleRejected EventType = "schedule.rejected"
	// EventStagingChanged is published when a staging list is added to or reset.
	EventStagingChanged EventType = "staging.changed"
)

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Publisher is the sending half of a bus.
type Publisher interface {
	Publish(eventType EventType, payload Payload)
}

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, SubscriberBuffer)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. Full subscribers miss the event,
// which is counted in matchday_events_dropped_total.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[eventType] {
		select {
		case sub <- payload:
		default:
			telemetry.EventsDroppedTotal.WithLabelValues(string(eventType)).Inc()
		}
	}
}

// Unsubscribe removes the subscriber and closes it.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	b.subs[eventType] = subs
}

// Close is a no-op so that Bus satisfies the same contract as networked buses.
func (b *Bus) Close() error {
	return nil
}
