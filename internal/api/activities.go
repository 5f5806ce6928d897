/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"

	"github.com/friendsincode/matchday/internal/models"
	"github.com/friendsincode/matchday/internal/schedule"
	"github.com/friendsincode/matchday/internal/scheduler"
	"github.com/friendsincode/matchday/internal/scheduling"
)

type scheduleActivitiesRequest struct {
	Activities []models.Activity `json:"activities"`
	Order      string            `json:"order,omitempty"`
}

func (a *API) handleScheduleActivities(w http.ResponseWriter, r *http.Request) {
	format, ok := outputFormat(r)
	if !ok || format == formatICal {
		writeError(w, http.StatusBadRequest, "unsupported_format")
		return
	}

	var req scheduleActivitiesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	opts, err := runOptions(r, req.Order, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order")
		return
	}

	report, err := a.scheduler.ScheduleActivities(r.Context(), req.Activities, opts...)
	if err != nil {
		a.writeSchedulingError(w, err)
		return
	}
	a.writeActivityReport(w, format, report)
}

func (a *API) handleScheduleStagedActivities(w http.ResponseWriter, r *http.Request) {
	format, ok := outputFormat(r)
	if !ok || format == formatICal {
		writeError(w, http.StatusBadRequest, "unsupported_format")
		return
	}
	opts, err := runOptions(r, "", nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_order")
		return
	}

	report, err := a.scheduler.ScheduleStagedActivities(r.Context(), opts...)
	if err != nil {
		a.writeSchedulingError(w, err)
		return
	}
	a.writeActivityReport(w, format, report)
}

func (a *API) writeActivityReport(w http.ResponseWriter, format string, report *scheduler.ActivityReport) {
	if format == formatText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Run-ID", report.RunID)
		w.WriteHeader(http.StatusOK)
		_ = schedule.WriteActivityRun(w, report.ActivityRun)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleStageActivity(w http.ResponseWriter, r *http.Request) {
	var activity models.Activity
	if !decodeBody(w, r, &activity) {
		return
	}

	row, err := a.scheduler.StageActivity(r.Context(), activity)
	if err != nil {
		if scheduling.IsValidation(err) {
			a.writeSchedulingError(w, err)
			return
		}
		a.logger.Error().Err(err).Msg("stage activity failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (a *API) handleStagedActivitiesList(w http.ResponseWriter, r *http.Request) {
	rows, err := a.scheduler.StagedActivities(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("list staged activities failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": rows, "count": len(rows)})
}

func (a *API) handleResetActivities(w http.ResponseWriter, r *http.Request) {
	n, err := a.scheduler.ResetActivities(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("reset staged activities failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}
