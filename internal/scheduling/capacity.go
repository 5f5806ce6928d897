/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/models"
)

// DefaultDesignatedDays is the recurrence for days allowed a second match.
const DefaultDesignatedDays = "FREQ=WEEKLY;BYDAY=SU"

// CapacityRule caps how many matches may share one calendar day.
type CapacityRule struct {
	NormalLimit     int
	DesignatedLimit int
	DesignatedDays  []time.Weekday
}

// DefaultCapacityRule allows one match per day and two on Sundays.
func DefaultCapacityRule() CapacityRule {
	return CapacityRule{
		NormalLimit:     1,
		DesignatedLimit: 2,
		DesignatedDays:  []time.Weekday{time.Sunday},
	}
}

// Designated reports whether day is one of the designated weekdays.
func (r CapacityRule) Designated(day clock.Day) bool {
	wd := day.Weekday()
	for _, d := range r.DesignatedDays {
		if d == wd {
			return true
		}
	}
	return false
}

// Limit returns the number of matches allowed on day. A designated day never
// allows fewer than a normal day.
func (r CapacityRule) Limit(day clock.Day) int {
	if r.Designated(day) && r.DesignatedLimit > r.NormalLimit {
		return r.DesignatedLimit
	}
	return r.NormalLimit
}

// Validate rejects negative limits.
func (r CapacityRule) Validate() error {
	if r.NormalLimit < 0 || r.DesignatedLimit < 0 {
		return fmt.Errorf("%w: capacity limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Occupancy counts placed matches dated on day.
func Occupancy(placed []models.Match, day clock.Day) int {
	n := 0
	for _, m := range placed {
		if m.Date != nil && *m.Date == day {
			n++
		}
	}
	return n
}

// ParseDesignatedDays reads the weekdays of an RFC 5545 recurrence such as
// "FREQ=WEEKLY;BYDAY=SA,SU". A bare comma-separated list of weekday names
// ("sunday", "SU,SA") is accepted too. An empty string yields no days.
func ParseDesignatedDays(rule string) ([]time.Weekday, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, nil
	}
	if !strings.Contains(rule, "=") {
		return parseWeekdayList(rule)
	}

	rr, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("parse designated days %q: %w", rule, err)
	}
	byday := rr.OrigOptions.Byweekday
	if len(byday) == 0 {
		return nil, fmt.Errorf("%w: designated days %q has no BYDAY", ErrInvalidConfig, rule)
	}
	days := make([]time.Weekday, 0, len(byday))
	for i := range byday {
		// rrule numbers weekdays from Monday = 0.
		days = append(days, time.Weekday((byday[i].Day()+1)%7))
	}
	return days, nil
}

var weekdayNames = map[string]time.Weekday{
	"su": time.Sunday, "sun": time.Sunday, "sunday": time.Sunday,
	"mo": time.Monday, "mon": time.Monday, "monday": time.Monday,
	"tu": time.Tuesday, "tue": time.Tuesday, "tuesday": time.Tuesday,
	"we": time.Wednesday, "wed": time.Wednesday, "wednesday": time.Wednesday,
	"th": time.Thursday, "thu": time.Thursday, "thursday": time.Thursday,
	"fr": time.Friday, "fri": time.Friday, "friday": time.Friday,
	"sa": time.Saturday, "sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekdayList(rule string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(rule, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidConfig, part)
		}
		days = append(days, wd)
	}
	return days, nil
}
