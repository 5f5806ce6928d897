/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"fmt"
	"net/http"

	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/models"
	"github.com/friendsincode/matchday/internal/schedule"
	"github.com/friendsincode/matchday/internal/scheduler"
	"github.com/friendsincode/matchday/internal/scheduling"
)

type scheduleMatchesRequest struct {
	Matches []models.Match `json:"matches"`
	// Existing fixtures already on the calendar; each needs a date.
	Existing  []models.Match `json:"existing,omitempty"`
	StartDate *clock.Day     `json:"start_date,omitempty"`
	Order     string         `json:"order,omitempty"`
}

func (a *API) handleScheduleMatches(w http.ResponseWriter, r *http.Request) {
	format, ok := outputFormat(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported_format")
		return
	}

	var req scheduleMatchesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	opts, err := runOptions(r, req.Order, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query")
		return
	}
	if len(req.Existing) > 0 {
		opts = append(opts, scheduler.WithExisting(req.Existing))
	}

	report, err := a.scheduler.ScheduleMatches(r.Context(), req.Matches, opts...)
	if err != nil {
		a.writeSchedulingError(w, err)
		return
	}
	a.writeMatchReport(w, format, report)
}

func (a *API) handleScheduleStagedMatches(w http.ResponseWriter, r *http.Request) {
	format, ok := outputFormat(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported_format")
		return
	}
	opts, err := runOptions(r, "", nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query")
		return
	}

	report, err := a.scheduler.ScheduleStagedMatches(r.Context(), opts...)
	if err != nil {
		a.writeSchedulingError(w, err)
		return
	}
	a.writeMatchReport(w, format, report)
}

func (a *API) writeMatchReport(w http.ResponseWriter, format string, report *scheduler.MatchReport) {
	switch format {
	case formatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Run-ID", report.RunID)
		w.WriteHeader(http.StatusOK)
		_ = schedule.WriteMatchRun(w, report.MatchRun)
	case formatICal:
		result := a.exporter.ExportToICal(report.MatchRun, a.calendarName)
		w.Header().Set("Content-Type", result.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
		w.Header().Set("X-Run-ID", report.RunID)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (a *API) handleStageMatch(w http.ResponseWriter, r *http.Request) {
	var match models.Match
	if !decodeBody(w, r, &match) {
		return
	}

	row, err := a.scheduler.StageMatch(r.Context(), match)
	if err != nil {
		if scheduling.IsValidation(err) {
			a.writeSchedulingError(w, err)
			return
		}
		a.logger.Error().Err(err).Msg("stage match failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (a *API) handleStagedMatchesList(w http.ResponseWriter, r *http.Request) {
	rows, err := a.scheduler.StagedMatches(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("list staged matches failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": rows, "count": len(rows)})
}

func (a *API) handleResetMatches(w http.ResponseWriter, r *http.Request) {
	n, err := a.scheduler.ResetMatches(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("reset staged matches failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}
