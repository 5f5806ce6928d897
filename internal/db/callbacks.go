/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"errors"
	"time"

	"github.com/friendsincode/matchday/internal/telemetry"
	"gorm.io/gorm"
)

const startTimeKey = "matchday:start_time"

// RegisterCallbacks times every staging read and write into the database metrics.
func RegisterCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	regs := []error{
		cb.Query().Before("gorm:query").Register("telemetry:before_query", markStart),
		cb.Query().After("gorm:query").Register("telemetry:after_query", observe("query")),
		cb.Create().Before("gorm:create").Register("telemetry:before_create", markStart),
		cb.Create().After("gorm:create").Register("telemetry:after_create", observe("create")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", markStart),
		cb.Update().After("gorm:update").Register("telemetry:after_update", observe("update")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", markStart),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", observe("delete")),
	}
	return errors.Join(regs...)
}

func markStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		telemetry.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(time.Since(started).Seconds())

		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			telemetry.DatabaseErrorsTotal.WithLabelValues(operation).Inc()
		}
	}
}

// UpdateConnectionMetrics publishes the pool's open connection count.
func UpdateConnectionMetrics(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	telemetry.DatabaseConnectionsActive.Set(float64(sqlDB.Stats().OpenConnections))
}
