/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/matchday/internal/events"
)

// NATSBus publishes scheduling events on NATS subjects
// "<prefix><event type>" and relays remote events to local subscribers.
type NATSBus struct {
	conn     *nats.Conn
	logger   zerolog.Logger
	fallback *events.Bus
	nodeID   string
	prefix   string

	mu     sync.Mutex
	counts map[events.EventType]int
	subs   map[events.EventType]*nats.Subscription
}

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL   string
	Token string
	// Subjects are Prefix + event type.
	Prefix string

	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Prefix:        "matchday.events.",
		MaxReconnects: -1, // Unlimited
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NewNATSBus connects to NATS. When the server is unreachable the bus
// degrades to in-memory delivery on this node only.
func NewNATSBus(cfg NATSConfig, nodeID string, logger zerolog.Logger) (*NATSBus, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url required")
	}
	logger = logger.With().Str("component", "eventbus_nats").Logger()

	nb := &NATSBus{
		logger:   logger,
		fallback: events.NewBus(),
		nodeID:   nodeID,
		prefix:   cfg.Prefix,
		counts:   make(map[events.EventType]int),
		subs:     make(map[events.EventType]*nats.Subscription),
	}

	opts := []nats.Option{
		nats.Name("matchday-" + nodeID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		logger.Warn().Err(err).Str("url", cfg.URL).Msg("NATS connection failed, using in-memory fallback")
		return nb, nil
	}
	nb.conn = conn

	logger.Info().Str("url", cfg.URL).Str("node_id", nodeID).Msg("NATS event bus initialized")
	return nb, nil
}

func (nb *NATSBus) subject(eventType events.EventType) string {
	return nb.prefix + string(eventType)
}

// Subscribe registers a subscriber for an event type.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	sub := nb.fallback.Subscribe(eventType)

	nb.mu.Lock()
	defer nb.mu.Unlock()
	nb.counts[eventType]++

	if nb.conn == nil {
		return sub
	}
	if _, exists := nb.subs[eventType]; exists {
		return sub
	}

	natsSub, err := nb.conn.Subscribe(nb.subject(eventType), func(msg *nats.Msg) {
		remote, err := unmarshalMessage(msg.Data)
		if err != nil {
			nb.logger.Error().Err(err).Msg("failed to unmarshal NATS message")
			return
		}
		if remote.NodeID == nb.nodeID {
			return
		}
		nb.fallback.Publish(eventType, remote.Payload)
	})
	if err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("NATS subscribe failed")
		return sub
	}
	nb.subs[eventType] = natsSub
	return sub
}

// Publish sends an event payload to local subscribers and to other nodes.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.fallback.Publish(eventType, payload)

	if nb.conn == nil {
		return
	}
	data, err := marshalMessage(eventType, payload, nb.nodeID)
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to marshal NATS message")
		return
	}
	if err := nb.conn.Publish(nb.subject(eventType), data); err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to NATS")
	}
}

// Unsubscribe removes a subscriber.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.fallback.Unsubscribe(eventType, sub)

	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.counts[eventType] > 0 {
		nb.counts[eventType]--
	}
	if nb.counts[eventType] == 0 {
		if natsSub, exists := nb.subs[eventType]; exists {
			_ = natsSub.Unsubscribe()
			delete(nb.subs, eventType)
		}
	}
}

// Close drains pending messages and closes the connection.
func (nb *NATSBus) Close() error {
	if nb.conn == nil {
		return nil
	}
	if err := nb.conn.Drain(); err != nil {
		nb.conn.Close()
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}
