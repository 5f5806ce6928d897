/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"fmt"
	"math"

	"github.com/friendsincode/matchday/internal/models"
	"github.com/friendsincode/matchday/internal/priority"
)

// DurationScheduler places activities on a shared-resource timeline.
// Every activity is placed; the only outcome is its start and end time.
type DurationScheduler struct {
	// Order defaults to ascending: lower priority values are placed first.
	Order priority.Direction
	// MaxBatch bounds the batch size. Zero means unbounded.
	MaxBatch int
}

// NewDurationScheduler returns a scheduler with the default ordering.
func NewDurationScheduler() DurationScheduler {
	return DurationScheduler{Order: priority.Ascending}
}

func (s DurationScheduler) direction() (priority.Direction, error) {
	if s.Order == "" {
		return priority.Ascending, nil
	}
	if !s.Order.Valid() {
		return "", fmt.Errorf("%w: order %q", ErrInvalidConfig, s.Order)
	}
	return s.Order, nil
}

// Schedule places a batch against a fresh timeline.
func (s DurationScheduler) Schedule(activities []models.Activity) (*models.ActivityRun, error) {
	return s.ScheduleOn(NewResourceTimeline(), activities)
}

// ScheduleOn places a batch against a caller-owned timeline, which is
// advanced in place. On any error the timeline is left untouched.
func (s DurationScheduler) ScheduleOn(timeline *ResourceTimeline, activities []models.Activity) (*models.ActivityRun, error) {
	dir, err := s.direction()
	if err != nil {
		return nil, err
	}
	if err := ValidateActivities(activities, s.MaxBatch); err != nil {
		return nil, err
	}

	// Work on a copy so a failed run does not leak partial commits.
	work := &ResourceTimeline{ends: timeline.Snapshot()}

	order := priority.Order(activities, func(a models.Activity) int { return a.Priority }, dir)
	results := make([]models.ActivityResult, len(activities))
	for _, idx := range order {
		a := activities[idx]
		resources := a.UniqueResources()

		start := work.EarliestStart(resources)
		if a.Duration > math.MaxInt64-start {
			return nil, &InvariantError{Violations: []Violation{{
				Rule:    RuleOverflow,
				Message: fmt.Sprintf("activity %q: end time overflows", a.Name),
				Indices: []int{idx},
			}}}
		}
		end := start + a.Duration
		work.Commit(resources, end)

		placed := a
		placed.Resources = append([]string(nil), a.Resources...)
		results[idx] = models.ActivityResult{
			Activity: placed,
			Outcome:  models.OutcomePlaced,
			Start:    start,
			End:      end,
		}
	}

	run := &models.ActivityRun{
		Results:         results,
		ProcessingOrder: order,
		Timeline:        work.Snapshot(),
	}
	if violations := VerifyActivities(run); len(violations) > 0 {
		return nil, &InvariantError{Violations: violations}
	}

	timeline.ends = work.ends
	return run, nil
}
