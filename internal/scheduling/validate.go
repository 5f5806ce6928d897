/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"fmt"
	"strings"

	"github.com/friendsincode/matchday/internal/models"
)

// DefaultSeasonLength bounds a calendar batch: one season holds at most this many matches.
const DefaultSeasonLength = 74

func batchTooLarge(n, max int) *ValidationError {
	return &ValidationError{
		Cause: ErrBatchTooLarge,
		Problems: []Problem{{
			Index:   -1,
			Field:   "batch",
			Message: fmt.Sprintf("%d candidates exceed the limit of %d", n, max),
		}},
	}
}

// ValidateActivities checks a duration batch. maxBatch <= 0 disables the size bound.
func ValidateActivities(activities []models.Activity, maxBatch int) error {
	if maxBatch > 0 && len(activities) > maxBatch {
		return batchTooLarge(len(activities), maxBatch)
	}

	var problems []Problem
	for i, a := range activities {
		if strings.TrimSpace(a.Name) == "" {
			problems = append(problems, Problem{Index: i, Field: "name", Message: "required"})
		}
		if a.Duration <= 0 {
			problems = append(problems, Problem{Index: i, Field: "duration", Message: "must be positive"})
		}
		for _, r := range a.Resources {
			if strings.TrimSpace(r) == "" {
				problems = append(problems, Problem{Index: i, Field: "resources", Message: "resource names must not be empty"})
				break
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateMatches checks a calendar batch. maxBatch <= 0 disables the size bound.
func ValidateMatches(matches []models.Match, maxBatch int) error {
	if maxBatch > 0 && len(matches) > maxBatch {
		return batchTooLarge(len(matches), maxBatch)
	}

	var problems []Problem
	for i, m := range matches {
		if strings.TrimSpace(m.TeamA) == "" {
			problems = append(problems, Problem{Index: i, Field: "team_a", Message: "required"})
		}
		if strings.TrimSpace(m.TeamB) == "" {
			problems = append(problems, Problem{Index: i, Field: "team_b", Message: "required"})
		}
		if strings.TrimSpace(m.Venue) == "" {
			problems = append(problems, Problem{Index: i, Field: "venue", Message: "required"})
		}
		if m.Scheduled() {
			problems = append(problems, Problem{Index: i, Field: "date", Message: "must be unset before scheduling"})
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// validatePlaced checks caller-supplied events that are already on the calendar.
func validatePlaced(placed []models.Match) error {
	var problems []Problem
	for i, m := range placed {
		if !m.Scheduled() {
			problems = append(problems, Problem{Index: i, Field: "placed.date", Message: "already placed events must carry a date"})
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
