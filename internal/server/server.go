/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/friendsincode/matchday/internal/api"
	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/config"
	"github.com/friendsincode/matchday/internal/db"
	"github.com/friendsincode/matchday/internal/eventbus"
	"github.com/friendsincode/matchday/internal/events"
	"github.com/friendsincode/matchday/internal/schedule"
	"github.com/friendsincode/matchday/internal/scheduler"
	"github.com/friendsincode/matchday/internal/scheduler/state"
	"github.com/friendsincode/matchday/internal/telemetry"
	"github.com/friendsincode/matchday/internal/webhooks"
)

const (
	shutdownTimeout       = 10 * time.Second
	connectionMetricsTick = 30 * time.Second
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db        *gorm.DB
	bus       eventbus.Bus
	scheduler *scheduler.Service
	api       *api.API
	webhooks  *webhooks.Service

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("matchday-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		srv.metricsServer = &http.Server{
			Addr:              cfg.MetricsBind,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := db.Migrate(database); err != nil {
		return err
	}

	redisCfg := eventbus.DefaultRedisConfig()
	redisCfg.Addr = s.cfg.RedisAddr
	redisCfg.Password = s.cfg.RedisPassword
	redisCfg.DB = s.cfg.RedisDB
	natsCfg := eventbus.DefaultNATSConfig()
	natsCfg.URL = s.cfg.NATSURL
	natsCfg.Token = s.cfg.NATSToken

	bus, err := eventbus.New(eventbus.Config{
		Backend: eventbus.Backend(s.cfg.EventBus),
		Redis:   redisCfg,
		NATS:    natsCfg,
		NodeID:  s.cfg.InstanceID,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	s.bus = bus
	s.DeferClose(bus.Close)

	activities, matches := s.cfg.Engine()
	s.scheduler = scheduler.New(
		activities,
		matches,
		state.NewGormStore(database),
		bus,
		clock.System{Location: s.cfg.Location},
		s.logger,
	)

	s.api = api.New(s.scheduler, schedule.NewExportService(s.logger), []byte(s.cfg.JWTSigningKey), s.logger)

	targets := make([]webhooks.Target, 0, len(s.cfg.WebhookURLs))
	for _, u := range s.cfg.WebhookURLs {
		targets = append(targets, webhooks.Target{URL: u, Secret: s.cfg.WebhookSecret})
	}
	eventTypes := make([]events.EventType, 0, len(s.cfg.WebhookEvents))
	for _, ev := range s.cfg.WebhookEvents {
		eventTypes = append(eventTypes, events.EventType(ev))
	}
	s.webhooks = webhooks.NewService(bus, targets, eventTypes, s.logger)

	s.logger.Info().
		Str("db_backend", string(s.cfg.DBBackend)).
		Str("event_bus", s.cfg.EventBus).
		Bool("auth", s.cfg.AuthEnabled()).
		Int("webhook_targets", len(targets)).
		Int("horizon_days", matches.Finder.HorizonDays).
		Int("max_batch", matches.MaxBatch).
		Msg("dependencies ready")
	return nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the API and metrics listeners until ctx is cancelled or one of
// them fails, then shuts both down.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	servers := []*http.Server{s.httpServer}
	if s.metricsServer != nil {
		servers = append(servers, s.metricsServer)
	}

	for _, hs := range servers {
		hs := hs
		g.Go(func() error {
			s.logger.Info().Str("addr", hs.Addr).Msg("HTTP server listening")
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", hs.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var firstErr error
		for _, hs := range servers {
			if err := hs.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})

	return g.Wait()
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(3)
	go func() {
		defer s.bgWG.Done()
		s.runConnectionMetrics(ctx)
	}()
	go func() {
		defer s.bgWG.Done()
		s.runEventLog(ctx)
	}()
	go func() {
		defer s.bgWG.Done()
		s.webhooks.Start(ctx)
	}()
}

func (s *Server) runConnectionMetrics(ctx context.Context) {
	ticker := time.NewTicker(connectionMetricsTick)
	defer ticker.Stop()

	db.UpdateConnectionMetrics(s.db)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.UpdateConnectionMetrics(s.db)
		}
	}
}

// runEventLog records run events from every instance sharing the bus.
func (s *Server) runEventLog(ctx context.Context) {
	completed := s.bus.Subscribe(events.EventScheduleCompleted)
	staging := s.bus.Subscribe(events.EventStagingChanged)
	defer s.bus.Unsubscribe(events.EventScheduleCompleted, completed)
	defer s.bus.Unsubscribe(events.EventStagingChanged, staging)

	logger := s.logger.With().Str("component", "event_log").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-completed:
			if !ok {
				return
			}
			logger.Debug().Fields(map[string]any(p)).Msg("schedule completed")
		case p, ok := <-staging:
			if !ok {
				return
			}
			logger.Debug().Fields(map[string]any(p)).Msg("staging changed")
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Handle("/metrics", telemetry.Handler())
	s.api.Routes(s.router)
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
