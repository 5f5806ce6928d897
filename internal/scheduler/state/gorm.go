/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package state

import (
	"context"
	"fmt"

	"github.com/friendsincode/matchday/internal/models"
	"gorm.io/gorm"
)

// uploadOrder lists rows in upload order. Concurrent uploads on postgres or
// mysql can read the same MAX(position); created_at and id break those ties.
const uploadOrder = "position ASC, created_at ASC, id ASC"

// GormStore persists staged candidates so an upload survives restarts and
// is shared by every instance pointed at the same database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a migrated database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AddActivity inserts an activity at the end of the staged list.
func (s *GormStore) AddActivity(ctx context.Context, a models.Activity) (models.StagedActivity, error) {
	var row models.StagedActivity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &models.StagedActivity{})
		if err != nil {
			return err
		}
		row = newStagedActivity(a, pos)
		return tx.Create(&row).Error
	})
	if err != nil {
		return models.StagedActivity{}, fmt.Errorf("stage activity: %w", err)
	}
	return row, nil
}

// AddMatch inserts a match at the end of the staged list.
func (s *GormStore) AddMatch(ctx context.Context, m models.Match) (models.StagedMatch, error) {
	var row models.StagedMatch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := nextPosition(tx, &models.StagedMatch{})
		if err != nil {
			return err
		}
		row = newStagedMatch(m, pos)
		return tx.Create(&row).Error
	})
	if err != nil {
		return models.StagedMatch{}, fmt.Errorf("stage match: %w", err)
	}
	return row, nil
}

// Activities lists staged activities in upload order.
func (s *GormStore) Activities(ctx context.Context) ([]models.StagedActivity, error) {
	var rows []models.StagedActivity
	if err := s.db.WithContext(ctx).Order(uploadOrder).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list staged activities: %w", err)
	}
	return rows, nil
}

// Matches lists staged matches in upload order.
func (s *GormStore) Matches(ctx context.Context) ([]models.StagedMatch, error) {
	var rows []models.StagedMatch
	if err := s.db.WithContext(ctx).Order(uploadOrder).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list staged matches: %w", err)
	}
	return rows, nil
}

// ResetActivities deletes every staged activity.
func (s *GormStore) ResetActivities(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.StagedActivity{})
	if res.Error != nil {
		return 0, fmt.Errorf("reset staged activities: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// ResetMatches deletes every staged match.
func (s *GormStore) ResetMatches(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.StagedMatch{})
	if res.Error != nil {
		return 0, fmt.Errorf("reset staged matches: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// RemoveActivities deletes the staged activities with the given IDs.
func (s *GormStore) RemoveActivities(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.StagedActivity{})
	if res.Error != nil {
		return 0, fmt.Errorf("remove staged activities: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// RemoveMatches deletes the staged matches with the given IDs.
func (s *GormStore) RemoveMatches(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.StagedMatch{})
	if res.Error != nil {
		return 0, fmt.Errorf("remove staged matches: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func nextPosition(tx *gorm.DB, model any) (int64, error) {
	var max int64
	if err := tx.Model(model).Select("COALESCE(MAX(position), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}
