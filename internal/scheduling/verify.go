/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"fmt"

	"github.com/friendsincode/matchday/internal/models"
)

// RuleType identifies which schedule invariant a violation breaks.
type RuleType string

const (
	RuleNegativeTime    RuleType = "negative_time"
	RuleDuration        RuleType = "duration"
	RuleOverflow        RuleType = "overflow"
	RuleResourceOverlap RuleType = "resource_overlap"
	RuleWindow          RuleType = "window"
	RuleCapacity        RuleType = "capacity"
	RuleGap             RuleType = "gap"
)

// Violation is a broken invariant found in a finished run.
type Violation struct {
	Rule    RuleType `json:"rule"`
	Message string   `json:"message"`
	// Indices are submission indices of the candidates involved.
	Indices []int `json:"indices,omitempty"`
}

// VerifyActivities re-checks a duration run: non-negative starts, exact
// durations and no overlap between activities that share a resource.
func VerifyActivities(run *models.ActivityRun) []Violation {
	var violations []Violation
	lastEnd := make(map[string]int64)
	lastIdx := make(map[string]int)

	for _, idx := range run.ProcessingOrder {
		res := run.Results[idx]
		if res.Start < 0 {
			violations = append(violations, Violation{
				Rule:    RuleNegativeTime,
				Message: fmt.Sprintf("%q starts at %d", res.Activity.Name, res.Start),
				Indices: []int{idx},
			})
		}
		if res.End-res.Start != res.Activity.Duration {
			violations = append(violations, Violation{
				Rule:    RuleDuration,
				Message: fmt.Sprintf("%q spans %d, want %d", res.Activity.Name, res.End-res.Start, res.Activity.Duration),
				Indices: []int{idx},
			})
		}
		for _, r := range res.Activity.UniqueResources() {
			if end, ok := lastEnd[r]; ok && res.Start < end {
				violations = append(violations, Violation{
					Rule:    RuleResourceOverlap,
					Message: fmt.Sprintf("%q starts at %d before %s is free at %d", res.Activity.Name, res.Start, r, end),
					Indices: []int{lastIdx[r], idx},
				})
			}
			lastEnd[r] = res.End
			lastIdx[r] = idx
		}
	}
	return violations
}

type dated struct {
	match models.Match
	// index is the submission index, or -1 for pre-existing events.
	index int
}

// VerifyMatches re-checks a calendar run against the finder's rules. Only
// constraints involving newly placed matches are checked; existing events are
// taken as given.
func VerifyMatches(existing []models.Match, run *models.MatchRun, finder CalendarSlotFinder) []Violation {
	var violations []Violation
	window := finder.Window(run.Today)

	all := make([]dated, 0, len(existing)+len(run.Results))
	for _, m := range existing {
		all = append(all, dated{match: m, index: -1})
	}
	var fresh []dated
	for _, idx := range run.ProcessingOrder {
		res := run.Results[idx]
		if !res.Placed() {
			continue
		}
		if res.Date == nil || res.Match.Date == nil || *res.Date != *res.Match.Date {
			violations = append(violations, Violation{
				Rule:    RuleWindow,
				Message: fmt.Sprintf("%s placed without a consistent date", res.Match.Label()),
				Indices: []int{idx},
			})
			continue
		}
		d := dated{match: res.Match, index: idx}
		fresh = append(fresh, d)
		all = append(all, d)
	}

	calendar := make([]models.Match, 0, len(all))
	for _, a := range all {
		calendar = append(calendar, a.match)
	}

	counted := make(map[int64]bool)
	for _, f := range fresh {
		day := *f.match.Date
		if !window.Contains(day) {
			violations = append(violations, Violation{
				Rule:    RuleWindow,
				Message: fmt.Sprintf("%s on %s is outside %s..%s", f.match.Label(), day, window.Start, window.End()),
				Indices: []int{f.index},
			})
		}

		if !counted[int64(day)] {
			counted[int64(day)] = true
			if n, limit := Occupancy(calendar, day), finder.Capacity.Limit(day); n > limit {
				violations = append(violations, Violation{
					Rule:    RuleCapacity,
					Message: fmt.Sprintf("%s holds %d matches, limit %d", day, n, limit),
					Indices: []int{f.index},
				})
			}
		}

		for _, other := range all {
			if other.index == f.index {
				continue
			}
			if other.match.Date == nil || !sharesIdentity(f.match, other.match) {
				continue
			}
			gap := f.match.Date.Sub(*other.match.Date)
			if gap < 0 {
				gap = -gap
			}
			if gap < finder.MinGapDays {
				violations = append(violations, Violation{
					Rule:    RuleGap,
					Message: fmt.Sprintf("%s and %s are %d days apart, need %d", f.match.Label(), other.match.Label(), gap, finder.MinGapDays),
					Indices: []int{f.index, other.index},
				})
			}
		}
	}
	return violations
}

func sharesIdentity(a, b models.Match) bool {
	for _, id := range a.Identities() {
		if b.References(id) {
			return true
		}
	}
	return false
}
