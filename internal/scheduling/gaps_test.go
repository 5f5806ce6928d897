/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"testing"

	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/models"
)

func placedOn(teamA, teamB, crew string, day clock.Day) models.Match {
	d := day
	return models.Match{TeamA: teamA, TeamB: teamB, Venue: "V", Broadcaster: crew, Date: &d}
}

func TestLastDateFor(t *testing.T) {
	placed := []models.Match{
		placedOn("X", "Y", "TV1", oct(25)),
		placedOn("Z", "X", "TV2", oct(21)),
		placedOn("A", "B", "X", oct(23)),
	}

	tests := []struct {
		identity string
		want     clock.Day
		found    bool
	}{
		{"X", oct(25), true},
		{"Z", oct(21), true},
		{"TV2", oct(21), true},
		{"nobody", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			got, found := LastDateFor(tt.identity, placed)
			if found != tt.found || got != tt.want {
				t.Errorf("LastDateFor(%q) = %s, %v, want %s, %v", tt.identity, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestGapConstraintSetSatisfied(t *testing.T) {
	placed := []models.Match{
		placedOn("X", "Y", "", oct(21)),
		placedOn("P", "Q", "TV1", oct(24)),
	}
	candidate := models.Match{TeamA: "Y", TeamB: "W", Venue: "V", Broadcaster: "TV1"}
	g := NewGapConstraintSet(candidate, placed)

	if last, ok := g.Last(KeyTeamA); !ok || last != oct(21) {
		t.Errorf("Last(team_a) = %s, %v, want 2026-10-21", last, ok)
	}
	if _, ok := g.Last(KeyTeamB); ok {
		t.Errorf("Last(team_b) found, want none")
	}
	if _, ok := g.Last(KeySecurity); ok {
		t.Errorf("Last(security) found for empty identity")
	}

	tests := []struct {
		day     clock.Day
		ok      bool
		blocker IdentityKey
	}{
		{oct(22), false, KeyTeamA},
		{oct(23), false, KeyBroadcaster},
		{oct(25), false, KeyBroadcaster},
		{oct(26), true, 0},
	}
	for _, tt := range tests {
		ok, key := g.Satisfied(tt.day, 2)
		if ok != tt.ok || (!ok && key != tt.blocker) {
			t.Errorf("Satisfied(%s) = %v, %s, want %v, %s", tt.day, ok, key, tt.ok, tt.blocker)
		}
	}
}

func TestIdentityKeyString(t *testing.T) {
	want := []string{"team_a", "team_b", "broadcaster", "security"}
	for i, k := range IdentityKeys {
		if k.String() != want[i] {
			t.Errorf("IdentityKey(%d).String() = %q, want %q", k, k.String(), want[i])
		}
	}
}
