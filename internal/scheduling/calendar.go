/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"errors"
	"fmt"

	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/models"
	"github.com/friendsincode/matchday/internal/priority"
)

// Calendar defaults.
const (
	DefaultLeadDays    = 2
	DefaultHorizonDays = 30
	DefaultMinGapDays  = 2
)

// CalendarSlotFinder searches a bounded window of days for the first date a
// match can take without breaking capacity or identity rest gaps.
type CalendarSlotFinder struct {
	HorizonDays int
	LeadDays    int
	MinGapDays  int
	Capacity    CapacityRule
}

// DefaultCalendarSlotFinder returns the standard 30-day search starting two days out.
func DefaultCalendarSlotFinder() CalendarSlotFinder {
	return CalendarSlotFinder{
		HorizonDays: DefaultHorizonDays,
		LeadDays:    DefaultLeadDays,
		MinGapDays:  DefaultMinGapDays,
		Capacity:    DefaultCapacityRule(),
	}
}

// Validate rejects unusable parameters.
func (f CalendarSlotFinder) Validate() error {
	if f.HorizonDays < 0 || f.LeadDays < 0 || f.MinGapDays < 0 {
		return fmt.Errorf("%w: horizon, lead and gap must not be negative", ErrInvalidConfig)
	}
	return f.Capacity.Validate()
}

// Window returns the days searched for a run started on today.
func (f CalendarSlotFinder) Window(today clock.Day) clock.Window {
	return clock.NewWindow(today, f.LeadDays, f.HorizonDays)
}

// FindDate assigns the earliest feasible day to candidate and appends it to
// placed. When no day qualifies it returns ErrNoFeasibleDate and leaves both
// untouched.
func (f CalendarSlotFinder) FindDate(candidate *models.Match, placed *[]models.Match, today clock.Day) (clock.Day, error) {
	if candidate.Scheduled() {
		return 0, fmt.Errorf("find date for %s: %w", candidate.Label(), models.ErrAlreadyAssigned)
	}

	gaps := NewGapConstraintSet(*candidate, *placed)
	for _, day := range f.Window(today).Days() {
		if Occupancy(*placed, day) >= f.Capacity.Limit(day) {
			continue
		}
		if ok, _ := gaps.Satisfied(day, f.MinGapDays); !ok {
			continue
		}
		if err := candidate.Assign(day); err != nil {
			return 0, err
		}
		*placed = append(*placed, *candidate)
		return day, nil
	}
	return 0, ErrNoFeasibleDate
}

// MatchScheduler assigns dates to a batch of matches in priority order.
type MatchScheduler struct {
	Finder CalendarSlotFinder
	// Order defaults to descending: higher priority values are placed first.
	Order priority.Direction
	// MaxBatch bounds the batch size. Zero means unbounded.
	MaxBatch int
}

// NewMatchScheduler returns a scheduler with the default finder, ordering and season bound.
func NewMatchScheduler() MatchScheduler {
	return MatchScheduler{
		Finder:   DefaultCalendarSlotFinder(),
		Order:    priority.Descending,
		MaxBatch: DefaultSeasonLength,
	}
}

func (s MatchScheduler) direction() (priority.Direction, error) {
	if s.Order == "" {
		return priority.Descending, nil
	}
	if !s.Order.Valid() {
		return "", fmt.Errorf("%w: order %q", ErrInvalidConfig, s.Order)
	}
	return s.Order, nil
}

// Schedule places a batch on an empty calendar.
func (s MatchScheduler) Schedule(matches []models.Match, today clock.Day) (*models.MatchRun, error) {
	run, _, err := s.ScheduleInto(matches, nil, today)
	return run, err
}

// ScheduleInto places a batch around events that are already on the calendar.
// existing is not modified; the returned slice holds existing followed by the
// newly placed matches in commit order.
func (s MatchScheduler) ScheduleInto(matches, existing []models.Match, today clock.Day) (*models.MatchRun, []models.Match, error) {
	dir, err := s.direction()
	if err != nil {
		return nil, nil, err
	}
	if err := s.Finder.Validate(); err != nil {
		return nil, nil, err
	}
	if err := ValidateMatches(matches, s.MaxBatch); err != nil {
		return nil, nil, err
	}
	if err := validatePlaced(existing); err != nil {
		return nil, nil, err
	}

	placed := make([]models.Match, len(existing), len(existing)+len(matches))
	copy(placed, existing)

	window := s.Finder.Window(today)
	order := priority.Order(matches, func(m models.Match) int { return m.Priority }, dir)
	results := make([]models.MatchResult, len(matches))
	for _, idx := range order {
		candidate := matches[idx]
		day, err := s.Finder.FindDate(&candidate, &placed, today)
		switch {
		case errors.Is(err, ErrNoFeasibleDate):
			results[idx] = models.MatchResult{
				Match:   candidate,
				Outcome: models.OutcomeRejected,
				Reason:  ReasonNoFeasibleDate,
			}
		case err != nil:
			return nil, nil, err
		default:
			d := day
			results[idx] = models.MatchResult{
				Match:   candidate,
				Outcome: models.OutcomePlaced,
				Date:    &d,
			}
		}
	}

	run := &models.MatchRun{
		Today:           today,
		WindowStart:     window.Start,
		WindowEnd:       window.End(),
		Results:         results,
		ProcessingOrder: order,
	}
	if violations := VerifyMatches(existing, run, s.Finder); len(violations) > 0 {
		return nil, nil, &InvariantError{Violations: violations}
	}
	return run, placed, nil
}
