/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package clock

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	secondsPerDay = 24 * 60 * 60
	dayLayout     = "2006-01-02"
)

// Clock supplies the current instant. Schedulers take a Clock so that
// "today" is explicit and reproducible in tests.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in the given location (UTC when nil).
type System struct {
	Location *time.Location
}

// Now returns the current time in the configured location.
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(s.Location)
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Today returns the calendar day of c.Now() in the clock's own location.
func Today(c Clock) Day {
	return DayOf(c.Now())
}

// Day is a calendar date counted in whole days since 1970-01-01.
// Arithmetic on Day is exact integer arithmetic, independent of time zones
// and daylight saving transitions.
type Day int64

// DayOf returns the calendar date of t as seen in t's location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// Date builds a Day from its calendar components.
func Date(year int, month time.Month, day int) Day {
	return Day(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// AddDays returns the day n days later (earlier when n is negative).
func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

// Sub returns the number of days from o to d.
func (d Day) Sub(o Day) int {
	return int(d - o)
}

// Weekday reports the day of the week.
func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Format renders the day with a time layout.
func (d Day) Format(layout string) string {
	return d.Time().Format(layout)
}

func (d Day) String() string {
	return d.Format(dayLayout)
}

// MarshalJSON encodes the day as "YYYY-MM-DD".
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string.
func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
