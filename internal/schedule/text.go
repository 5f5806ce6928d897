/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"fmt"
	"io"
	"strings"

	"github.com/friendsincode/matchday/internal/models"
)

// MatchDateLayout renders match dates as 21-Oct-2026.
const MatchDateLayout = "02-Jan-2006"

// ActivityLine renders one placed activity.
func ActivityLine(res models.ActivityResult) string {
	return fmt.Sprintf("Activity: %s, Start: %d, End: %d, Priority: %d, Resources: %s",
		res.Activity.Name, res.Start, res.End, res.Activity.Priority,
		strings.Join(res.Activity.Resources, ", "))
}

// MatchLine renders one placed match.
func MatchLine(m models.Match) string {
	date := ""
	if m.Date != nil {
		date = m.Date.Format(MatchDateLayout)
	}
	return fmt.Sprintf("Priority: %d, %s vs %s at %s, Broadcasting Team: %s, Security Team: %s, %s",
		m.Priority, m.TeamA, m.TeamB, m.Venue, m.Broadcaster, m.Security, date)
}

// RejectedLine renders a match that found no date.
func RejectedLine(m models.Match) string {
	return "Failed to schedule match: " + m.TeamA + " vs " + m.TeamB
}

// WriteActivityRun writes one line per activity in the order they were placed.
func WriteActivityRun(w io.Writer, run *models.ActivityRun) error {
	for _, idx := range run.ProcessingOrder {
		if _, err := fmt.Fprintln(w, ActivityLine(run.Results[idx])); err != nil {
			return err
		}
	}
	return nil
}

// WriteMatchRun writes placed matches in commit order followed by one
// line per rejected match.
func WriteMatchRun(w io.Writer, run *models.MatchRun) error {
	var rejected []models.Match
	for _, idx := range run.ProcessingOrder {
		res := run.Results[idx]
		if !res.Placed() {
			rejected = append(rejected, res.Match)
			continue
		}
		m := res.Match
		m.Date = res.Date
		if _, err := fmt.Fprintln(w, MatchLine(m)); err != nil {
			return err
		}
	}
	for _, m := range rejected {
		if _, err := fmt.Fprintln(w, RejectedLine(m)); err != nil {
			return err
		}
	}
	return nil
}
