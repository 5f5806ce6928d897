/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/matchday/internal/events"
)

// Backend names a bus implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendNATS   Backend = "nats"
)

// Bus is the contract shared by the in-memory, Redis and NATS buses.
type Bus interface {
	events.Publisher
	Subscribe(eventType events.EventType) events.Subscriber
	Unsubscribe(eventType events.EventType, sub events.Subscriber)
	Close() error
}

var (
	_ Bus = (*events.Bus)(nil)
	_ Bus = (*RedisBus)(nil)
	_ Bus = (*NATSBus)(nil)
)

// Config selects and configures a bus.
type Config struct {
	Backend Backend
	Redis   RedisConfig
	NATS    NATSConfig
	// NodeID identifies this process on the wire. Generated when empty.
	NodeID string
}

// New builds the configured bus.
func New(cfg Config, logger zerolog.Logger) (Bus, error) {
	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = generateNodeID()
	}

	switch cfg.Backend {
	case "", BackendMemory:
		return events.NewBus(), nil
	case BackendRedis:
		return NewRedisBus(cfg.Redis, nodeID, logger)
	case BackendNATS:
		return NewNATSBus(cfg.NATS, nodeID, logger)
	default:
		return nil, fmt.Errorf("unsupported event bus backend %q", cfg.Backend)
	}
}

func generateNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "node"
	}
	return host + "-" + uuid.NewString()[:8]
}

func newMessageID() string {
	return uuid.NewString()
}
