/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/matchday/internal/auth"
	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/priority"
	"github.com/friendsincode/matchday/internal/schedule"
	"github.com/friendsincode/matchday/internal/scheduler"
	"github.com/friendsincode/matchday/internal/scheduling"
)

// maxBodyBytes bounds request bodies; a full season batch is far smaller.
const maxBodyBytes = 1 << 20

// Output formats accepted in the format query parameter.
const (
	formatJSON = "json"
	formatText = "text"
	formatICal = "ical"
)

// API exposes HTTP handlers.
type API struct {
	scheduler    *scheduler.Service
	exporter     *schedule.ExportService
	jwtSecret    []byte
	calendarName string
	logger       zerolog.Logger
}

// New creates the API router wrapper. An empty jwtSecret leaves the
// routes unauthenticated.
func New(svc *scheduler.Service, exporter *schedule.ExportService, jwtSecret []byte, logger zerolog.Logger) *API {
	return &API{
		scheduler:    svc,
		exporter:     exporter,
		jwtSecret:    jwtSecret,
		calendarName: "Matchday",
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers the API under /api/v1.
func (a *API) Routes(r chi.Router) {
	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Group(func(pr chi.Router) {
			if len(a.jwtSecret) > 0 {
				pr.Use(auth.Middleware(a.jwtSecret))
			}
			viewer := auth.RequireRole(auth.RoleViewer)
			planner := auth.RequireRole(auth.RolePlanner)

			pr.Route("/activities", func(r chi.Router) {
				r.With(viewer).Get("/", a.handleStagedActivitiesList)
				r.With(planner).Post("/", a.handleStageActivity)
				r.With(planner).Delete("/", a.handleResetActivities)
				r.With(planner).Post("/schedule", a.handleScheduleActivities)
				r.With(planner).Post("/staged/schedule", a.handleScheduleStagedActivities)
			})

			pr.Route("/matches", func(r chi.Router) {
				r.With(viewer).Get("/", a.handleStagedMatchesList)
				r.With(planner).Post("/", a.handleStageMatch)
				r.With(planner).Delete("/", a.handleResetMatches)
				r.With(planner).Post("/schedule", a.handleScheduleMatches)
				r.With(planner).Post("/staged/schedule", a.handleScheduleStagedMatches)
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a JSON request body into dst and writes the error
// response itself when that fails.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_json")
	return false
}

// runOptions reads order and start_date from the query string. Body values
// passed in take precedence.
func runOptions(r *http.Request, order string, startDate *clock.Day) ([]scheduler.RunOption, error) {
	var opts []scheduler.RunOption

	if order == "" {
		order = r.URL.Query().Get("order")
	}
	if order != "" {
		dir, err := priority.ParseDirection(order)
		if err != nil {
			return nil, fmt.Errorf("order: %w", err)
		}
		opts = append(opts, scheduler.WithOrder(dir))
	}

	if startDate == nil {
		if v := strings.TrimSpace(r.URL.Query().Get("start_date")); v != "" {
			day, err := clock.ParseDay(v)
			if err != nil {
				return nil, fmt.Errorf("start_date: %w", err)
			}
			startDate = &day
		}
	}
	if startDate != nil {
		opts = append(opts, scheduler.WithToday(*startDate))
	}
	return opts, nil
}

func outputFormat(r *http.Request) (string, bool) {
	switch f := strings.ToLower(r.URL.Query().Get("format")); f {
	case "", formatJSON:
		return formatJSON, true
	case formatText, formatICal:
		return f, true
	default:
		return "", false
	}
}

// writeSchedulingError maps scheduler errors onto HTTP responses.
func (a *API) writeSchedulingError(w http.ResponseWriter, err error) {
	var ve *scheduling.ValidationError
	switch {
	case errors.As(err, &ve):
		code := "validation_failed"
		if errors.Is(err, scheduling.ErrBatchTooLarge) {
			code = "batch_too_large"
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    code,
			"problems": ve.Problems,
		})
	case errors.Is(err, scheduling.ErrInvariantViolation):
		a.logger.Error().Err(err).Msg("schedule failed verification")
		writeError(w, http.StatusInternalServerError, "invariant_violation")
	case errors.Is(err, scheduling.ErrInvalidConfig):
		a.logger.Error().Err(err).Msg("scheduler misconfigured")
		writeError(w, http.StatusInternalServerError, "invalid_config")
	default:
		a.logger.Error().Err(err).Msg("schedule run failed")
		writeError(w, http.StatusInternalServerError, "schedule_failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
