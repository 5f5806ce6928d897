package models

import (
	"errors"
	"testing"
	"time"

	"github.com/friendsincode/matchday/internal/clock"
)

func TestMatchReferences(t *testing.T) {
	m := Match{TeamA: "Lions", TeamB: "Tigers", Broadcaster: "Star", Security: ""}

	tests := []struct {
		identity string
		want     bool
	}{
		{"Lions", true},
		{"Tigers", true},
		{"Star", true},
		{"Bears", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			if got := m.References(tt.identity); got != tt.want {
				t.Errorf("References(%q) = %v, want %v", tt.identity, got, tt.want)
			}
		})
	}
}

func TestMatchAssignOnlyOnce(t *testing.T) {
	var m Match
	if m.Scheduled() {
		t.Fatal("new match should be unscheduled")
	}

	day := clock.Date(2026, time.October, 21)
	if err := m.Assign(day); err != nil {
		t.Fatalf("first Assign: %v", err)
	}
	if !m.Scheduled() || *m.Date != day {
		t.Fatalf("Date = %v, want %v", m.Date, day)
	}

	if err := m.Assign(day.AddDays(1)); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("second Assign error = %v, want ErrAlreadyAssigned", err)
	}
	if *m.Date != day {
		t.Fatalf("date changed after rejected Assign: %v", *m.Date)
	}
}

func TestActivityUniqueResources(t *testing.T) {
	a := Activity{Resources: []string{"crane", "bay", "crane", "bay", "truck"}}
	got := a.UniqueResources()
	want := []string{"crane", "bay", "truck"}
	if len(got) != len(want) {
		t.Fatalf("UniqueResources() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UniqueResources() = %v, want %v", got, want)
		}
	}

	if got := (Activity{}).UniqueResources(); got != nil {
		t.Fatalf("UniqueResources() on empty = %v, want nil", got)
	}
}

func TestMatchRunCountsAndPlacedOrder(t *testing.T) {
	d1 := clock.Date(2026, time.October, 22)
	d2 := clock.Date(2026, time.October, 21)
	run := MatchRun{
		Results: []MatchResult{
			{Match: Match{TeamA: "A", TeamB: "B", Date: &d1}, Outcome: OutcomePlaced, Date: &d1},
			{Match: Match{TeamA: "C", TeamB: "D"}, Outcome: OutcomeRejected, Reason: "no feasible date within horizon"},
			{Match: Match{TeamA: "E", TeamB: "F", Date: &d2}, Outcome: OutcomePlaced, Date: &d2},
		},
		ProcessingOrder: []int{2, 1, 0},
	}

	placed, rejected := run.Counts()
	if placed != 2 || rejected != 1 {
		t.Fatalf("Counts() = (%d, %d), want (2, 1)", placed, rejected)
	}

	got := run.PlacedMatches()
	if len(got) != 2 || got[0].TeamA != "E" || got[1].TeamA != "A" {
		t.Fatalf("PlacedMatches() = %+v, want E then A", got)
	}
}
