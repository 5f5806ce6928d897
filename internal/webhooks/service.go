/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package webhooks pushes scheduling events to external HTTP endpoints.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/matchday/internal/events"
	"github.com/friendsincode/matchday/internal/telemetry"
)

// queueSize bounds events waiting for delivery. Sequential posts to slow
// targets drain it; anything beyond it is dropped and counted.
const queueSize = 256

// Events delivered when a target does not narrow its subscription.
var DefaultEvents = []events.EventType{
	events.EventScheduleCompleted,
	events.EventScheduleRejected,
}

// Subscriber is the part of the event bus the service listens on.
type Subscriber interface {
	Subscribe(eventType events.EventType) events.Subscriber
	Unsubscribe(eventType events.EventType, sub events.Subscriber)
}

// Target is one endpoint receiving deliveries.
type Target struct {
	URL    string
	Secret string // Signs the body with HMAC-SHA256 when set
}

// Delivery is the JSON body posted to each target.
type Delivery struct {
	ID        string         `json:"id"`
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      events.Payload `json:"data"`
}

// Service handles webhook delivery.
type Service struct {
	bus     Subscriber
	targets []Target
	events  []events.EventType
	logger  zerolog.Logger
	client  *http.Client
	now     func() time.Time
}

// NewService creates a webhook service. An empty event list means DefaultEvents.
func NewService(bus Subscriber, targets []Target, eventTypes []events.EventType, logger zerolog.Logger) *Service {
	if len(eventTypes) == 0 {
		eventTypes = DefaultEvents
	}
	return &Service{
		bus:     bus,
		targets: targets,
		events:  eventTypes,
		logger:  logger.With().Str("component", "webhooks").Logger(),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// Start listens for events until ctx ends. Each event is delivered to every
// target in turn.
func (s *Service) Start(ctx context.Context) {
	if len(s.targets) == 0 {
		return
	}
	s.logger.Info().Int("targets", len(s.targets)).Msg("webhook service starting")

	queue := make(chan delivery, queueSize)
	for _, et := range s.events {
		sub := s.bus.Subscribe(et)
		defer s.bus.Unsubscribe(et, sub)
		go s.forward(ctx, et, sub, queue)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("webhook service stopping")
			return
		case d := <-queue:
			s.deliverAll(ctx, d.eventType, d.payload)
		}
	}
}

type delivery struct {
	eventType events.EventType
	payload   events.Payload
}

// forward drains a bus subscription into the delivery queue without
// blocking, so the bus never sees a full subscriber while targets are slow.
func (s *Service) forward(ctx context.Context, et events.EventType, sub events.Subscriber, queue chan<- delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-sub:
			if !ok {
				return
			}
			select {
			case queue <- delivery{eventType: et, payload: p}:
			default:
				telemetry.WebhookDeliveriesTotal.WithLabelValues("dropped").Add(float64(len(s.targets)))
				s.logger.Warn().Str("event", string(et)).Int("queued", len(queue)).Msg("webhook queue full, event dropped")
			}
		}
	}
}

func (s *Service) deliverAll(ctx context.Context, eventType events.EventType, payload events.Payload) {
	body, err := json.Marshal(Delivery{
		ID:        uuid.NewString(),
		Event:     string(eventType),
		Timestamp: s.now().UTC(),
		Data:      payload,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", string(eventType)).Msg("failed to marshal webhook payload")
		return
	}

	for _, target := range s.targets {
		status, err := s.send(ctx, target, string(eventType), body)
		switch {
		case err != nil:
			telemetry.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
			s.logger.Error().Err(err).Str("url", target.URL).Msg("webhook delivery failed")
		case status >= 200 && status < 300:
			telemetry.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
			s.logger.Debug().Str("url", target.URL).Str("event", string(eventType)).Int("status", status).Msg("webhook delivered")
		default:
			telemetry.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
			s.logger.Warn().Str("url", target.URL).Str("event", string(eventType)).Int("status", status).Msg("webhook returned error status")
		}
	}
}

func (s *Service) send(ctx context.Context, target Target, eventType string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Matchday-Webhook/1.0")
	req.Header.Set("X-Matchday-Event", eventType)
	req.Header.Set("X-Matchday-Timestamp", strconv.FormatInt(s.now().Unix(), 10))
	if target.Secret != "" {
		req.Header.Set("X-Matchday-Signature", Sign(body, target.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// Sign returns the HMAC-SHA256 signature header value for body.
func Sign(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// Test posts a synthetic delivery to target and reports non-2xx replies as errors.
func (s *Service) Test(ctx context.Context, target Target) error {
	body, err := json.Marshal(Delivery{
		ID:        uuid.NewString(),
		Event:     "test",
		Timestamp: s.now().UTC(),
		Data:      events.Payload{"message": "matchday webhook test"},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	status, err := s.send(ctx, target, "test", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("webhook returned status %d", status)
	}
	return nil
}
