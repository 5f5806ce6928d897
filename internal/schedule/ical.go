/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/matchday/internal/clock"
	"github.com/friendsincode/matchday/internal/models"
)

const (
	icalDateLayout  = "20060102"
	icalStampLayout = "20060102T150405Z"

	propBroadcaster = "X-MATCHDAY-BROADCASTER"
	propSecurity    = "X-MATCHDAY-SECURITY"
	propPriority    = "X-MATCHDAY-PRIORITY"
)

// ExportService converts match runs to and from iCalendar.
type ExportService struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewExportService creates a new export service.
func NewExportService(logger zerolog.Logger) *ExportService {
	return &ExportService{
		logger: logger.With().Str("component", "schedule_export").Logger(),
		now:    time.Now,
	}
}

// ExportICalResult contains the iCal export data.
type ExportICalResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportToICal writes one all-day VEVENT per placed match. Rejected
// matches are left out.
func (s *ExportService) ExportToICal(run *models.MatchRun, calendarName string) *ExportICalResult {
	stamp := s.now().UTC().Format(icalStampLayout)

	var buf bytes.Buffer
	writeContentLine(&buf, "BEGIN:VCALENDAR")
	writeContentLine(&buf, "VERSION:2.0")
	writeContentLine(&buf, "PRODID:-//Matchday//Fixture Export//EN")
	writeContentLine(&buf, "X-WR-CALNAME:"+escapeICalText(calendarName))
	writeContentLine(&buf, "CALSCALE:GREGORIAN")
	writeContentLine(&buf, "METHOD:PUBLISH")

	for _, m := range run.PlacedMatches() {
		writeContentLine(&buf, "BEGIN:VEVENT")
		writeContentLine(&buf, fmt.Sprintf("UID:%s@matchday", uuid.NewString()))
		writeContentLine(&buf, "DTSTAMP:"+stamp)
		writeContentLine(&buf, "DTSTART;VALUE=DATE:"+m.Date.Format(icalDateLayout))
		writeContentLine(&buf, "DTEND;VALUE=DATE:"+m.Date.AddDays(1).Format(icalDateLayout))
		writeContentLine(&buf, "SUMMARY:"+escapeICalText(m.Label()))
		writeContentLine(&buf, "LOCATION:"+escapeICalText(m.Venue))
		if m.Broadcaster != "" || m.Security != "" {
			desc := fmt.Sprintf("Broadcasting Team: %s\nSecurity Team: %s", m.Broadcaster, m.Security)
			writeContentLine(&buf, "DESCRIPTION:"+escapeICalText(desc))
		}
		if m.Broadcaster != "" {
			writeContentLine(&buf, propBroadcaster+":"+escapeICalText(m.Broadcaster))
		}
		if m.Security != "" {
			writeContentLine(&buf, propSecurity+":"+escapeICalText(m.Security))
		}
		writeContentLine(&buf, fmt.Sprintf("%s:%d", propPriority, m.Priority))
		writeContentLine(&buf, "END:VEVENT")
	}

	writeContentLine(&buf, "END:VCALENDAR")

	return &ExportICalResult{
		Data: buf.Bytes(),
		Filename: fmt.Sprintf("%s-fixtures-%s-to-%s.ics",
			slugify(calendarName), run.WindowStart, run.WindowEnd.AddDays(-1)),
		ContentType: "text/calendar; charset=utf-8",
	}
}

// ImportICalResult contains the result of an iCal import.
type ImportICalResult struct {
	Matches []models.Match
	Skipped int
	Errors  []string
}

// ImportFromICal reads fixtures that are already on the calendar so a new
// batch can be placed around them. Events need a "A vs B" summary, a
// location and a start date.
func (s *ExportService) ImportFromICal(ctx context.Context, data io.Reader) (*ImportICalResult, error) {
	events, err := parseICalEvents(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read iCal data: %w", err)
	}

	result := &ImportICalResult{}
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		teamA, teamB, ok := strings.Cut(ev.Summary, " vs ")
		if !ok || ev.Location == "" || ev.Start == nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("event %q: needs an \"A vs B\" summary, a location and a start date", ev.Summary))
			continue
		}
		day := *ev.Start
		result.Matches = append(result.Matches, models.Match{
			TeamA:       strings.TrimSpace(teamA),
			TeamB:       strings.TrimSpace(teamB),
			Venue:       ev.Location,
			Broadcaster: ev.Broadcaster,
			Security:    ev.Security,
			Priority:    ev.Priority,
			Date:        &day,
		})
	}

	s.logger.Info().
		Int("imported", len(result.Matches)).
		Int("skipped", result.Skipped).
		Msg("iCal import completed")

	return result, nil
}

// ICalEvent represents a parsed iCal event.
type ICalEvent struct {
	UID         string
	Summary     string
	Location    string
	Broadcaster string
	Security    string
	Priority    int
	Start       *clock.Day
}

// parseICalEvents parses VEVENT blocks, unfolding continuation lines.
func parseICalEvents(r io.Reader) ([]ICalEvent, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var events []ICalEvent
	var current *ICalEvent
	for _, line := range lines {
		switch {
		case line == "BEGIN:VEVENT":
			current = &ICalEvent{}
			continue
		case line == "END:VEVENT" && current != nil:
			events = append(events, *current)
			current = nil
			continue
		case current == nil:
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		// Drop parameters such as ;VALUE=DATE or ;TZID=...
		name, _, _ = strings.Cut(name, ";")
		switch strings.ToUpper(name) {
		case "UID":
			current.UID = value
		case "SUMMARY":
			current.Summary = unescapeICalText(value)
		case "LOCATION":
			current.Location = unescapeICalText(value)
		case propBroadcaster:
			current.Broadcaster = unescapeICalText(value)
		case propSecurity:
			current.Security = unescapeICalText(value)
		case propPriority:
			if p, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				current.Priority = p
			}
		case "DTSTART":
			if day, ok := parseICalDay(value); ok {
				current.Start = &day
			}
		}
	}
	return events, nil
}

// parseICalDay accepts DATE and DATE-TIME values and keeps the calendar date.
func parseICalDay(s string) (clock.Day, bool) {
	for _, layout := range []string{icalStampLayout, "20060102T150405", icalDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return clock.DayOf(t), true
		}
	}
	return 0, false
}

// maxLineOctets is the content line limit, excluding the CRLF.
const maxLineOctets = 75

// writeContentLine writes line terminated by CRLF, folding it into
// continuation lines that start with a space so no physical line exceeds
// maxLineOctets. Folds never split a UTF-8 sequence.
func writeContentLine(buf *bytes.Buffer, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		buf.WriteString(line[:cut])
		buf.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	buf.WriteString(line)
	buf.WriteString("\r\n")
}

func escapeICalText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// unescapeICalText reverses escapeICalText in a single pass so an escaped
// backslash is never reread as the start of another escape. Unknown escapes
// are kept as written.
func unescapeICalText(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case '\\', ',', ';':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "matchday"
	}
	return result.String()
}
