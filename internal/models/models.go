/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"errors"
	"strings"

	"github.com/friendsincode/matchday/internal/clock"
)

// ErrAlreadyAssigned is returned when a match that already has a date is assigned again.
var ErrAlreadyAssigned = errors.New("match already has an assigned date")

// Activity is a duration-based candidate that holds its resources exclusively
// from start to end. Time is measured in abstract integer units.
type Activity struct {
	Name      string   `json:"name" yaml:"name"`
	Priority  int      `json:"priority" yaml:"priority"`
	Duration  int64    `json:"duration" yaml:"duration"`
	Resources []string `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// UniqueResources returns the resource names with duplicates removed, first occurrence kept.
func (a Activity) UniqueResources() []string {
	if len(a.Resources) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a.Resources))
	out := make([]string, 0, len(a.Resources))
	for _, r := range a.Resources {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Match is a calendar candidate pairing two teams at a venue. Broadcaster and
// Security name the auxiliary crews the match ties up for the day.
type Match struct {
	TeamA       string     `json:"team_a" yaml:"team_a"`
	TeamB       string     `json:"team_b" yaml:"team_b"`
	Venue       string     `json:"venue" yaml:"venue"`
	Broadcaster string     `json:"broadcaster,omitempty" yaml:"broadcaster,omitempty"`
	Security    string     `json:"security,omitempty" yaml:"security,omitempty"`
	Priority    int        `json:"priority" yaml:"priority"`
	Date        *clock.Day `json:"date,omitempty" yaml:"-"`
}

// Identities returns the four identity slots in fixed order:
// team A, team B, broadcaster, security.
func (m Match) Identities() [4]string {
	return [4]string{m.TeamA, m.TeamB, m.Broadcaster, m.Security}
}

// References reports whether identity appears in any of the match's slots.
// An empty identity never matches.
func (m Match) References(identity string) bool {
	if identity == "" {
		return false
	}
	for _, slot := range m.Identities() {
		if slot == identity {
			return true
		}
	}
	return false
}

// Scheduled reports whether the match has been given a date.
func (m Match) Scheduled() bool {
	return m.Date != nil
}

// Assign sets the match date. A date can be set only once.
func (m *Match) Assign(day clock.Day) error {
	if m.Date != nil {
		return ErrAlreadyAssigned
	}
	d := day
	m.Date = &d
	return nil
}

// Label is the short human form "A vs B".
func (m Match) Label() string {
	return strings.TrimSpace(m.TeamA) + " vs " + strings.TrimSpace(m.TeamB)
}
