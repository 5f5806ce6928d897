/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/models"
)

// IdentityKey names one of a match's four identity slots.
type IdentityKey int

const (
	KeyTeamA IdentityKey = iota
	KeyTeamB
	KeyBroadcaster
	KeySecurity
)

// IdentityKeys lists every slot in the order they are checked.
var IdentityKeys = [...]IdentityKey{KeyTeamA, KeyTeamB, KeyBroadcaster, KeySecurity}

func (k IdentityKey) String() string {
	switch k {
	case KeyTeamA:
		return "team_a"
	case KeyTeamB:
		return "team_b"
	case KeyBroadcaster:
		return "broadcaster"
	case KeySecurity:
		return "security"
	}
	return "unknown"
}

// LastDateFor returns the latest date of any placed match that references
// identity in any slot. An empty identity is never found.
func LastDateFor(identity string, placed []models.Match) (clock.Day, bool) {
	var (
		last  clock.Day
		found bool
	)
	for _, m := range placed {
		if m.Date == nil || !m.References(identity) {
			continue
		}
		if !found || *m.Date > last {
			last = *m.Date
			found = true
		}
	}
	return last, found
}

// GapConstraintSet holds, for each identity slot of a candidate, the latest
// date that identity is already committed to.
type GapConstraintSet struct {
	identities [4]string
	last       [4]clock.Day
	present    [4]bool
}

// NewGapConstraintSet computes the constraints for candidate against placed.
func NewGapConstraintSet(candidate models.Match, placed []models.Match) GapConstraintSet {
	g := GapConstraintSet{identities: candidate.Identities()}
	for i, id := range g.identities {
		g.last[i], g.present[i] = LastDateFor(id, placed)
	}
	return g
}

// Last returns the latest committed date for the identity in slot k.
func (g GapConstraintSet) Last(k IdentityKey) (clock.Day, bool) {
	return g.last[k], g.present[k]
}

// Satisfied reports whether day keeps every identity at least minGap days
// after its last commitment. On failure it names the first offending slot.
func (g GapConstraintSet) Satisfied(day clock.Day, minGap int) (bool, IdentityKey) {
	for _, k := range IdentityKeys {
		if !g.present[k] {
			continue
		}
		if day.Sub(g.last[k]) < minGap {
			return false, k
		}
	}
	return true, 0
}
