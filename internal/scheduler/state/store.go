/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package state

import (
	"context"
	"sync"
	"time"

	"github.com/friendsincode/matchday/internal/models"
	"github.com/google/uuid"
)

// Staging holds candidates uploaded ahead of a scheduling run. Listings are
// in upload order. Staging never stores run results.
type Staging interface {
	AddActivity(ctx context.Context, a models.Activity) (models.StagedActivity, error)
	AddMatch(ctx context.Context, m models.Match) (models.StagedMatch, error)
	Activities(ctx context.Context) ([]models.StagedActivity, error)
	Matches(ctx context.Context) ([]models.StagedMatch, error)
	// ResetActivities and ResetMatches clear the list and report how many
	// candidates were removed.
	ResetActivities(ctx context.Context) (int, error)
	ResetMatches(ctx context.Context) (int, error)
	// RemoveActivities and RemoveMatches delete the rows with the given IDs,
	// leaving anything staged since untouched.
	RemoveActivities(ctx context.Context, ids []string) (int, error)
	RemoveMatches(ctx context.Context, ids []string) (int, error)
}

// Store keeps staged candidates in memory.
type Store struct {
	mu         sync.RWMutex
	next       int64
	activities []models.StagedActivity
	matches    []models.StagedMatch
}

// NewStore creates an in-memory staging store.
func NewStore() *Store {
	return &Store{
		activities: make([]models.StagedActivity, 0, 16),
		matches:    make([]models.StagedMatch, 0, 16),
	}
}

// AddActivity appends an activity to staging.
func (s *Store) AddActivity(_ context.Context, a models.Activity) (models.StagedActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	row := newStagedActivity(a, s.next)
	s.activities = append(s.activities, row)
	return row, nil
}

// AddMatch appends a match to staging.
func (s *Store) AddMatch(_ context.Context, m models.Match) (models.StagedMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	row := newStagedMatch(m, s.next)
	s.matches = append(s.matches, row)
	return row, nil
}

// Activities returns a snapshot of staged activities.
func (s *Store) Activities(_ context.Context) ([]models.StagedActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StagedActivity, len(s.activities))
	copy(out, s.activities)
	return out, nil
}

// Matches returns a snapshot of staged matches.
func (s *Store) Matches(_ context.Context) ([]models.StagedMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StagedMatch, len(s.matches))
	copy(out, s.matches)
	return out, nil
}

// ResetActivities removes every staged activity.
func (s *Store) ResetActivities(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.activities)
	s.activities = s.activities[:0]
	return n, nil
}

// ResetMatches removes every staged match.
func (s *Store) ResetMatches(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.matches)
	s.matches = s.matches[:0]
	return n, nil
}

// RemoveActivities deletes the staged activities with the given IDs.
func (s *Store) RemoveActivities(_ context.Context, ids []string) (int, error) {
	drop := idSet(ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.activities[:0]
	for _, row := range s.activities {
		if _, ok := drop[row.ID]; !ok {
			kept = append(kept, row)
		}
	}
	n := len(s.activities) - len(kept)
	s.activities = kept
	return n, nil
}

// RemoveMatches deletes the staged matches with the given IDs.
func (s *Store) RemoveMatches(_ context.Context, ids []string) (int, error) {
	drop := idSet(ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.matches[:0]
	for _, row := range s.matches {
		if _, ok := drop[row.ID]; !ok {
			kept = append(kept, row)
		}
	}
	n := len(s.matches) - len(kept)
	s.matches = kept
	return n, nil
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func newStagedActivity(a models.Activity, position int64) models.StagedActivity {
	return models.StagedActivity{
		ID:        uuid.NewString(),
		Position:  position,
		Name:      a.Name,
		Priority:  a.Priority,
		Duration:  a.Duration,
		Resources: append([]string(nil), a.Resources...),
		CreatedAt: time.Now().UTC(),
	}
}

func newStagedMatch(m models.Match, position int64) models.StagedMatch {
	return models.StagedMatch{
		ID:          uuid.NewString(),
		Position:    position,
		TeamA:       m.TeamA,
		TeamB:       m.TeamB,
		Venue:       m.Venue,
		Broadcaster: m.Broadcaster,
		Security:    m.Security,
		Priority:    m.Priority,
		CreatedAt:   time.Now().UTC(),
	}
}
