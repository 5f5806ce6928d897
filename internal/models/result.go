/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "github.com/friendsincode/matchday/internal/clock"

// Outcome is the per-candidate result of a scheduling run.
type Outcome string

const (
	OutcomePlaced   Outcome = "placed"
	OutcomeRejected Outcome = "rejected"
)

// ActivityResult is the placement of one activity. Activities are never rejected.
type ActivityResult struct {
	Activity Activity `json:"activity"`
	Outcome  Outcome  `json:"outcome"`
	Start    int64    `json:"start"`
	End      int64    `json:"end"`
}

// ActivityRun is the outcome of a duration scheduling run.
type ActivityRun struct {
	// Results are in submission order, not processing order.
	Results []ActivityResult `json:"results"`
	// ProcessingOrder lists submission indices in the order they were placed.
	ProcessingOrder []int `json:"processing_order"`
	// Timeline is the latest committed end time per resource after the run.
	Timeline map[string]int64 `json:"timeline"`
}

// Makespan returns the latest end time across all results.
func (r *ActivityRun) Makespan() int64 {
	var max int64
	for _, res := range r.Results {
		if res.End > max {
			max = res.End
		}
	}
	return max
}

// MatchResult is the placement or rejection of one match.
type MatchResult struct {
	Match   Match      `json:"match"`
	Outcome Outcome    `json:"outcome"`
	Date    *clock.Day `json:"date,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

// Placed reports whether the match received a date.
func (r MatchResult) Placed() bool {
	return r.Outcome == OutcomePlaced
}

// MatchRun is the outcome of a calendar scheduling run.
type MatchRun struct {
	Today       clock.Day     `json:"today"`
	WindowStart clock.Day     `json:"window_start"`
	WindowEnd   clock.Day     `json:"window_end"`
	Results     []MatchResult `json:"results"`
	// ProcessingOrder lists submission indices in the order they were considered.
	ProcessingOrder []int `json:"processing_order"`
}

// Counts returns the number of placed and rejected matches.
func (r *MatchRun) Counts() (placed, rejected int) {
	for _, res := range r.Results {
		if res.Placed() {
			placed++
		} else {
			rejected++
		}
	}
	return placed, rejected
}

// PlacedMatches returns the placed matches in processing order, which is the
// order they were committed to the calendar.
func (r *MatchRun) PlacedMatches() []Match {
	out := make([]Match, 0, len(r.Results))
	for _, idx := range r.ProcessingOrder {
		if res := r.Results[idx]; res.Placed() {
			out = append(out, res.Match)
		}
	}
	return out
}
