/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// StagedActivity is an activity uploaded ahead of a scheduling run.
type StagedActivity struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Position  int64     `gorm:"index;not null" json:"position"` // Upload order, ascending
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Priority  int       `gorm:"not null" json:"priority"`
	Duration  int64     `gorm:"not null" json:"duration"`
	Resources []string  `gorm:"serializer:json" json:"resources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (StagedActivity) TableName() string {
	return "staged_activities"
}

// Activity converts the staged row into a scheduling candidate.
func (s StagedActivity) Activity() Activity {
	return Activity{
		Name:      s.Name,
		Priority:  s.Priority,
		Duration:  s.Duration,
		Resources: append([]string(nil), s.Resources...),
	}
}

// StagedMatch is a match uploaded ahead of a scheduling run.
type StagedMatch struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Position    int64     `gorm:"index;not null" json:"position"`
	TeamA       string    `gorm:"type:varchar(255);not null" json:"team_a"`
	TeamB       string    `gorm:"type:varchar(255);not null" json:"team_b"`
	Venue       string    `gorm:"type:varchar(255);not null" json:"venue"`
	Broadcaster string    `gorm:"type:varchar(255)" json:"broadcaster,omitempty"`
	Security    string    `gorm:"type:varchar(255)" json:"security,omitempty"`
	Priority    int       `gorm:"not null" json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (StagedMatch) TableName() string {
	return "staged_matches"
}

// Match converts the staged row into an unscheduled candidate.
func (s StagedMatch) Match() Match {
	return Match{
		TeamA:       s.TeamA,
		TeamB:       s.TeamB,
		Venue:       s.Venue,
		Broadcaster: s.Broadcaster,
		Security:    s.Security,
		Priority:    s.Priority,
	}
}
