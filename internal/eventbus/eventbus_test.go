/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/matchday/internal/events"
)

func TestNewSelectsBackend(t *testing.T) {
	bus, err := New(Config{Backend: BackendMemory}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New(memory) error = %v", err)
	}
	if _, ok := bus.(*events.Bus); !ok {
		t.Errorf("New(memory) = %T, want *events.Bus", bus)
	}

	if _, err := New(Config{Backend: "kafka"}, zerolog.Nop()); err == nil {
		t.Error("New(kafka) error = nil, want unsupported backend")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	data, err := marshalMessage(events.EventScheduleCompleted, events.Payload{"run_id": "abc", "placed": 3}, "node-1")
	if err != nil {
		t.Fatalf("marshalMessage() error = %v", err)
	}
	msg, err := unmarshalMessage(data)
	if err != nil {
		t.Fatalf("unmarshalMessage() error = %v", err)
	}
	if msg.EventType != events.EventScheduleCompleted || msg.NodeID != "node-1" {
		t.Errorf("envelope = %+v", msg)
	}
	if msg.Payload["run_id"] != "abc" {
		t.Errorf("payload run_id = %v, want abc", msg.Payload["run_id"])
	}
	if msg.MessageID == "" {
		t.Error("MessageID empty")
	}

	if _, err := unmarshalMessage([]byte("{not json")); err == nil {
		t.Error("unmarshalMessage(garbage) error = nil")
	}
}

func TestGenerateNodeIDUnique(t *testing.T) {
	a, b := generateNodeID(), generateNodeID()
	if a == b {
		t.Errorf("generateNodeID() returned %q twice", a)
	}
	if !strings.Contains(a, "-") {
		t.Errorf("generateNodeID() = %q, want host-suffix form", a)
	}
}

func TestRedisBusFallsBackWhenUnreachable(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond
	cfg.CheckInterval = time.Hour

	bus, err := NewRedisBus(cfg, "test-node", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedisBus() error = %v", err)
	}
	defer bus.Close()

	if !bus.inFallback() {
		t.Fatal("expected fallback mode for unreachable Redis")
	}

	sub := bus.Subscribe(events.EventScheduleRejected)
	bus.Publish(events.EventScheduleRejected, events.Payload{"match": "A vs B"})

	select {
	case got := <-sub:
		if got["match"] != "A vs B" {
			t.Errorf("payload = %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("local subscriber did not receive event in fallback mode")
	}
	bus.Unsubscribe(events.EventScheduleRejected, sub)
}

func TestNATSBusFallsBackWhenUnreachable(t *testing.T) {
	cfg := DefaultNATSConfig()
	cfg.URL = "nats://127.0.0.1:1"
	cfg.Timeout = 200 * time.Millisecond

	bus, err := NewNATSBus(cfg, "test-node", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewNATSBus() error = %v", err)
	}
	defer bus.Close()

	sub := bus.Subscribe(events.EventScheduleCompleted)
	bus.Publish(events.EventScheduleCompleted, events.Payload{"run_id": "r1"})

	select {
	case got := <-sub:
		if got["run_id"] != "r1" {
			t.Errorf("payload = %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("local subscriber did not receive event")
	}
}
