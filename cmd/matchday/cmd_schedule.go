/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/friendsincode/matchday/internal/batchfile"
	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/priority"
	"github.com/friendsincode/matchday/internal/schedule"
	"github.com/friendsincode/matchday/internal/scheduler"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatICal = "ical"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule a batch file without starting the server",
}

var scheduleActivitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Place activities on their resources",
	Long: `Place activities from a YAML or JSON batch file on their resources.
Each activity starts once all of its resources are free.`,
	RunE: runScheduleActivities,
}

var scheduleMatchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Place matches on the calendar",
	Long: `Place matches from a YAML or JSON batch file on calendar days inside
the scheduling window, honouring day capacity and rest gaps.`,
	RunE: runScheduleMatches,
}

var (
	scheduleFile      string
	scheduleFormat    string
	scheduleOrder     string
	scheduleOutput    string
	scheduleStartDate string
	scheduleExisting  string
	scheduleCalendar  string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleActivitiesCmd)
	scheduleCmd.AddCommand(scheduleMatchesCmd)

	for _, c := range []*cobra.Command{scheduleActivitiesCmd, scheduleMatchesCmd} {
		c.Flags().StringVar(&scheduleFile, "file", "", "Batch file (YAML or JSON) (required)")
		c.Flags().StringVar(&scheduleFormat, "format", formatText, "Output format: text or json")
		c.Flags().StringVar(&scheduleOrder, "order", "", "Override processing order: asc or desc")
		c.Flags().StringVar(&scheduleOutput, "output", "", "Write the result to this file instead of stdout")
		c.MarkFlagRequired("file")
	}

	scheduleMatchesCmd.Flags().Lookup("format").Usage = "Output format: text, json or ical"
	scheduleMatchesCmd.Flags().StringVar(&scheduleStartDate, "start-date", "", "Treat this day (YYYY-MM-DD) as today")
	scheduleMatchesCmd.Flags().StringVar(&scheduleExisting, "existing", "", "iCalendar file of fixtures already on the calendar")
	scheduleMatchesCmd.Flags().StringVar(&scheduleCalendar, "calendar-name", "Matchday", "Calendar name for ical output")
}

func newLocalService() *scheduler.Service {
	activities, matches := cfg.Engine()
	return scheduler.New(activities, matches, nil, nil, clock.System{Location: cfg.Location}, logger)
}

func orderOptions(order string) ([]scheduler.RunOption, error) {
	if order == "" {
		return nil, nil
	}
	dir, err := priority.ParseDirection(order)
	if err != nil {
		return nil, err
	}
	return []scheduler.RunOption{scheduler.WithOrder(dir)}, nil
}

func runScheduleActivities(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	return withOutput(cmd, func(w io.Writer) error {
		return scheduleActivitiesFile(cmd.Context(), newLocalService(), scheduleFile, scheduleFormat, scheduleOrder, w)
	})
}

func runScheduleMatches(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	req := matchesRequest{
		path:         scheduleFile,
		format:       scheduleFormat,
		order:        scheduleOrder,
		startDate:    scheduleStartDate,
		existingPath: scheduleExisting,
		calendarName: scheduleCalendar,
	}
	return withOutput(cmd, func(w io.Writer) error {
		return scheduleMatchesFile(cmd.Context(), newLocalService(), req, w)
	})
}

// withOutput sends fn's output to --output when set, stdout otherwise.
func withOutput(cmd *cobra.Command, fn func(io.Writer) error) error {
	if scheduleOutput == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := appFs.Create(scheduleOutput)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func scheduleActivitiesFile(ctx context.Context, svc *scheduler.Service, path, format, order string, w io.Writer) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unsupported format %q for activities", format)
	}
	opts, err := orderOptions(order)
	if err != nil {
		return err
	}

	acts, err := batchfile.NewLoader(appFs).Activities(path)
	if err != nil {
		return err
	}
	report, err := svc.ScheduleActivities(ctx, acts, opts...)
	if err != nil {
		return err
	}

	if format == formatJSON {
		return writeIndentedJSON(w, report)
	}
	return schedule.WriteActivityRun(w, report.ActivityRun)
}

type matchesRequest struct {
	path         string
	format       string
	order        string
	startDate    string
	existingPath string
	calendarName string
}

func scheduleMatchesFile(ctx context.Context, svc *scheduler.Service, req matchesRequest, w io.Writer) error {
	switch req.format {
	case formatText, formatJSON, formatICal:
	default:
		return fmt.Errorf("unsupported format %q for matches", req.format)
	}
	opts, err := orderOptions(req.order)
	if err != nil {
		return err
	}
	if req.startDate != "" {
		day, err := clock.ParseDay(req.startDate)
		if err != nil {
			return err
		}
		opts = append(opts, scheduler.WithToday(day))
	}

	exporter := schedule.NewExportService(logger)
	if req.existingPath != "" {
		f, err := appFs.Open(req.existingPath)
		if err != nil {
			return fmt.Errorf("open existing calendar: %w", err)
		}
		imported, err := exporter.ImportFromICal(ctx, f)
		_ = f.Close()
		if err != nil {
			return err
		}
		for _, msg := range imported.Errors {
			logger.Warn().Str("file", req.existingPath).Msg(msg)
		}
		opts = append(opts, scheduler.WithExisting(imported.Matches))
	}

	matches, err := batchfile.NewLoader(appFs).Matches(req.path)
	if err != nil {
		return err
	}
	report, err := svc.ScheduleMatches(ctx, matches, opts...)
	if err != nil {
		return err
	}

	switch req.format {
	case formatJSON:
		return writeIndentedJSON(w, report)
	case formatICal:
		_, err := w.Write(exporter.ExportToICal(report.MatchRun, req.calendarName).Data)
		return err
	default:
		return schedule.WriteMatchRun(w, report.MatchRun)
	}
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
