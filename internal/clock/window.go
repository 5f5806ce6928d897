/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package clock

// Window is a half-open run of calendar days [Start, Start+Length).
type Window struct {
	Start  Day
	Length int
}

// NewWindow builds the search window that begins leadDays after today and
// spans horizonDays days. A non-positive horizon yields an empty window.
func NewWindow(today Day, leadDays, horizonDays int) Window {
	if horizonDays < 0 {
		horizonDays = 0
	}
	return Window{Start: today.AddDays(leadDays), Length: horizonDays}
}

// End returns the first day after the window.
func (w Window) End() Day {
	return w.Start.AddDays(w.Length)
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d Day) bool {
	return d >= w.Start && d < w.End()
}

// Days expands the window into its days, in calendar order.
func (w Window) Days() []Day {
	if w.Length <= 0 {
		return nil
	}
	days := make([]Day, 0, w.Length)
	for d := w.Start; d < w.End(); d++ {
		days = append(days, d)
	}
	return days
}
