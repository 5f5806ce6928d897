/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"github.com/friendsincode/matchday/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the staging tables.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.StagedActivity{},
		&models.StagedMatch{},
	); err != nil {
		return fmt.Errorf("auto-migrate staging tables: %w", err)
	}
	return nil
}
