/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/events"
	"github.com/friendsincode/matchday/internal/models"
	"github.com/friendsincode/matchday/internal/priority"
	"github.com/friendsincode/matchday/internal/scheduler/state"
	"github.com/friendsincode/matchday/internal/scheduling"
	"github.com/friendsincode/matchday/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	kindActivities = "activities"
	kindMatches    = "matches"
)

// ActivityReport is an activity run tagged with the ID the service gave it.
type ActivityReport struct {
	RunID string `json:"run_id"`
	*models.ActivityRun
}

// MatchReport is a match run tagged with the ID the service gave it.
type MatchReport struct {
	RunID string `json:"run_id"`
	*models.MatchRun
}

// RunOption adjusts a single scheduling run.
type RunOption func(*runOptions)

type runOptions struct {
	order    priority.Direction
	today    *clock.Day
	existing []models.Match
}

// WithOrder overrides the configured processing order for one run.
func WithOrder(dir priority.Direction) RunOption {
	return func(o *runOptions) {
		o.order = dir
	}
}

// WithToday overrides the clock for one match run. The window opens
// LeadDays after it.
func WithToday(day clock.Day) RunOption {
	return func(o *runOptions) {
		d := day
		o.today = &d
	}
}

// WithExisting places a match batch around events already on the calendar.
func WithExisting(existing []models.Match) RunOption {
	return func(o *runOptions) {
		o.existing = existing
	}
}

func collect(opts []RunOption) runOptions {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Service runs the schedulers on behalf of the API and CLI. Runs are
// serialized: at most one scheduling run executes per Service at a time.
type Service struct {
	mu         sync.Mutex
	activities scheduling.DurationScheduler
	matches    scheduling.MatchScheduler
	staging    state.Staging
	bus        events.Publisher
	clock      clock.Clock
	logger     zerolog.Logger
}

// New constructs the scheduler service. A nil staging store falls back to
// memory, a nil clock to the UTC wall clock, and a nil bus disables events.
func New(activities scheduling.DurationScheduler, matches scheduling.MatchScheduler, staging state.Staging, bus events.Publisher, clk clock.Clock, logger zerolog.Logger) *Service {
	if staging == nil {
		staging = state.NewStore()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		activities: activities,
		matches:    matches,
		staging:    staging,
		bus:        bus,
		clock:      clk,
		logger:     logger.With().Str("component", "scheduler").Logger(),
	}
}

// Today returns the service's current calendar day.
func (s *Service) Today() clock.Day {
	return clock.Today(s.clock)
}

// ScheduleActivities places a batch of activities against an empty timeline.
func (s *Service) ScheduleActivities(ctx context.Context, activities []models.Activity, opts ...RunOption) (*ActivityReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runActivities(ctx, activities, opts...)
}

func (s *Service) runActivities(ctx context.Context, activities []models.Activity, opts ...RunOption) (*ActivityReport, error) {
	o := collect(opts)
	engine := s.activities
	if o.order != "" {
		engine.Order = o.order
	}

	runID := uuid.NewString()
	_, span := telemetry.StartRunSpan(ctx, kindActivities, runID, len(activities))

	started := time.Now()
	run, err := engine.Schedule(activities)
	s.observe(kindActivities, len(activities), started, err)
	if err != nil {
		telemetry.EndRunSpan(span, 0, 0, err)
		s.logFailure(kindActivities, runID, err)
		return nil, err
	}

	telemetry.CandidatesPlacedTotal.WithLabelValues(kindActivities).Add(float64(len(run.Results)))
	telemetry.AddSpanAttributes(span, map[string]any{"matchday.run.makespan": run.Makespan()})
	telemetry.EndRunSpan(span, len(run.Results), 0, nil)

	s.logger.Info().
		Str("run_id", runID).
		Int("activities", len(run.Results)).
		Int64("makespan", run.Makespan()).
		Dur("took", time.Since(started)).
		Msg("activity run complete")

	s.publish(events.EventScheduleCompleted, events.Payload{
		"run_id":   runID,
		"kind":     kindActivities,
		"placed":   len(run.Results),
		"rejected": 0,
		"makespan": run.Makespan(),
	})
	return &ActivityReport{RunID: runID, ActivityRun: run}, nil
}

// ScheduleMatches places a batch of matches on the calendar starting from
// today, or the day given with WithToday.
func (s *Service) ScheduleMatches(ctx context.Context, matches []models.Match, opts ...RunOption) (*MatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runMatches(ctx, matches, opts...)
}

func (s *Service) runMatches(ctx context.Context, matches []models.Match, opts ...RunOption) (*MatchReport, error) {
	o := collect(opts)
	engine := s.matches
	if o.order != "" {
		engine.Order = o.order
	}
	today := s.Today()
	if o.today != nil {
		today = *o.today
	}

	runID := uuid.NewString()
	_, span := telemetry.StartRunSpan(ctx, kindMatches, runID, len(matches))
	telemetry.AddSpanAttributes(span, map[string]any{
		"matchday.run.today":      today,
		"matchday.existing.count": len(o.existing),
	})

	started := time.Now()
	run, _, err := engine.ScheduleInto(matches, o.existing, today)
	s.observe(kindMatches, len(matches), started, err)
	if err != nil {
		telemetry.EndRunSpan(span, 0, 0, err)
		s.logFailure(kindMatches, runID, err)
		return nil, err
	}

	placed, rejected := run.Counts()
	telemetry.CandidatesPlacedTotal.WithLabelValues(kindMatches).Add(float64(placed))
	telemetry.MatchesRejectedTotal.Add(float64(rejected))
	telemetry.EndRunSpan(span, placed, rejected, nil)

	rejections := make([]map[string]any, 0, rejected)
	for _, idx := range run.ProcessingOrder {
		res := run.Results[idx]
		if res.Placed() {
			continue
		}
		s.logger.Warn().
			Str("run_id", runID).
			Str("match", res.Match.Label()).
			Int("priority", res.Match.Priority).
			Str("reason", res.Reason).
			Msg("match not scheduled")
		rejections = append(rejections, map[string]any{
			"index":    idx,
			"match":    res.Match.Label(),
			"priority": res.Match.Priority,
			"reason":   res.Reason,
		})
	}
	if len(rejections) > 0 {
		s.publish(events.EventScheduleRejected, events.Payload{
			"run_id":     runID,
			"count":      len(rejections),
			"rejections": rejections,
		})
	}

	s.logger.Info().
		Str("run_id", runID).
		Str("today", today.String()).
		Int("placed", placed).
		Int("rejected", rejected).
		Dur("took", time.Since(started)).
		Msg("match run complete")

	s.publish(events.EventScheduleCompleted, events.Payload{
		"run_id":   runID,
		"kind":     kindMatches,
		"placed":   placed,
		"rejected": rejected,
		"today":    today.String(),
	})
	return &MatchReport{RunID: runID, MatchRun: run}, nil
}

// StageActivity uploads one activity for a later staged run. Invalid
// activities are refused here rather than failing the whole staged batch.
func (s *Service) StageActivity(ctx context.Context, a models.Activity) (models.StagedActivity, error) {
	if err := scheduling.ValidateActivities([]models.Activity{a}, 0); err != nil {
		return models.StagedActivity{}, err
	}
	row, err := s.staging.AddActivity(ctx, a)
	if err != nil {
		return models.StagedActivity{}, err
	}
	s.stagingChanged(ctx, kindActivities, "added")
	return row, nil
}

// StageMatch uploads one match for a later staged run.
func (s *Service) StageMatch(ctx context.Context, m models.Match) (models.StagedMatch, error) {
	if err := scheduling.ValidateMatches([]models.Match{m}, 0); err != nil {
		return models.StagedMatch{}, err
	}
	row, err := s.staging.AddMatch(ctx, m)
	if err != nil {
		return models.StagedMatch{}, err
	}
	s.stagingChanged(ctx, kindMatches, "added")
	return row, nil
}

// StagedActivities lists staged activities in upload order.
func (s *Service) StagedActivities(ctx context.Context) ([]models.StagedActivity, error) {
	return s.staging.Activities(ctx)
}

// StagedMatches lists staged matches in upload order.
func (s *Service) StagedMatches(ctx context.Context) ([]models.StagedMatch, error) {
	return s.staging.Matches(ctx)
}

// ResetActivities clears staged activities.
func (s *Service) ResetActivities(ctx context.Context) (int, error) {
	n, err := s.staging.ResetActivities(ctx)
	if err != nil {
		return 0, err
	}
	s.stagingChanged(ctx, kindActivities, "reset")
	return n, nil
}

// ResetMatches clears staged matches.
func (s *Service) ResetMatches(ctx context.Context) (int, error) {
	n, err := s.staging.ResetMatches(ctx)
	if err != nil {
		return 0, err
	}
	s.stagingChanged(ctx, kindMatches, "reset")
	return n, nil
}

// ScheduleStagedActivities runs the staged activities as one batch and
// removes exactly those rows once the run succeeds. Uploads that arrive
// during the run stay staged for the next one. A failed run leaves staging
// intact.
func (s *Service) ScheduleStagedActivities(ctx context.Context, opts ...RunOption) (*ActivityReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.staging.Activities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load staged activities: %w", err)
	}
	batch := make([]models.Activity, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		batch[i] = row.Activity()
		ids[i] = row.ID
	}

	report, err := s.runActivities(ctx, batch, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := s.staging.RemoveActivities(ctx, ids); err != nil {
		return nil, fmt.Errorf("clear staged activities: %w", err)
	}
	s.stagingChanged(ctx, kindActivities, "consumed")
	return report, nil
}

// ScheduleStagedMatches runs the staged matches as one batch and removes
// the consumed rows once the run succeeds.
func (s *Service) ScheduleStagedMatches(ctx context.Context, opts ...RunOption) (*MatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.staging.Matches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load staged matches: %w", err)
	}
	batch := make([]models.Match, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		batch[i] = row.Match()
		ids[i] = row.ID
	}

	report, err := s.runMatches(ctx, batch, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := s.staging.RemoveMatches(ctx, ids); err != nil {
		return nil, fmt.Errorf("clear staged matches: %w", err)
	}
	s.stagingChanged(ctx, kindMatches, "consumed")
	return report, nil
}

func (s *Service) observe(kind string, size int, started time.Time, err error) {
	telemetry.ScheduleRunDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
	telemetry.ScheduleBatchSize.WithLabelValues(kind).Observe(float64(size))
	telemetry.ScheduleRunsTotal.WithLabelValues(kind, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case scheduling.IsValidation(err):
		return "validation_error"
	case errors.Is(err, scheduling.ErrInvariantViolation):
		return "invariant_error"
	default:
		return "error"
	}
}

func (s *Service) logFailure(kind, runID string, err error) {
	ev := s.logger.Warn()
	if errors.Is(err, scheduling.ErrInvariantViolation) {
		ev = s.logger.Error()
	}
	ev.Err(err).Str("run_id", runID).Str("kind", kind).Msg("scheduling run failed")
}

func (s *Service) stagingChanged(ctx context.Context, kind, action string) {
	count := -1
	switch kind {
	case kindActivities:
		if rows, err := s.staging.Activities(ctx); err == nil {
			count = len(rows)
		}
	case kindMatches:
		if rows, err := s.staging.Matches(ctx); err == nil {
			count = len(rows)
		}
	}
	if count >= 0 {
		telemetry.StagedCandidates.WithLabelValues(kind).Set(float64(count))
	}
	s.publish(events.EventStagingChanged, events.Payload{
		"kind":   kind,
		"action": action,
		"count":  count,
	})
}

func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, payload)
}
