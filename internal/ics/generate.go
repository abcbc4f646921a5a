package ics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "uofgsched/internal/log"
	"uofgsched/internal/model"
)

const (
	// ProdID identifies this generator in the feed header.
	ProdID = "-//uofgsched//UofG Student Schedule Exporter//EN"

	// examMethod is the instructional-method marker for final exams. Exam
	// meetings keep their own end date as the recurrence end instead of the
	// section's two-week-early cutoff.
	examMethod = "EXAM"

	uidDomain = "uofgsched"
)

// Options controls feed generation.
type Options struct {
	// Location is the IANA zone all event times are civil-local to.
	// Required.
	Location *time.Location

	// ExcludeBreaks adds EXDATE entries for fall study break and winter
	// reading week dates.
	ExcludeBreaks bool

	// Now supplies the DTSTAMP clock. Defaults to time.Now. Tests pin it.
	Now func() time.Time

	// NewUID supplies event identifiers. Defaults to random UUIDs, which
	// means regenerating a feed produces a disjoint ID set; re-importing an
	// unchanged schedule therefore duplicates events rather than updating
	// them.
	NewUID func() string
}

// Generate renders the flattened meeting list as a single iCalendar feed.
//
// Two passes. The cutoff pass finds, per (course, section), the latest end
// date among non-exam meetings; two weeks before that date, at 23:59:59,
// becomes the section's recurrence cutoff. That trims the exam/reading-week
// tail off weekly lectures. The emission pass writes one VEVENT per meeting,
// using the cutoff as UNTIL for non-exam meetings and the meeting's own end
// date otherwise.
//
// Any malformed date or time string aborts the whole run with a
// *DateParseError; no partial feed is emitted.
func Generate(meetings []model.Meeting, opts Options) ([]byte, error) {
	if opts.Location == nil {
		return nil, fmt.Errorf("ics: Location is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewUID == nil {
		opts.NewUID = uuid.NewString
	}

	cutoffs, err := sectionCutoffs(meetings, opts.Location)
	if err != nil {
		return nil, err
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"PRODID:" + ProdID,
	}

	emitted := 0
	for _, m := range meetings {
		if m.StartTime == "" || m.EndTime == "" {
			continue
		}

		block, err := eventLines(m, cutoffs, opts)
		if err != nil {
			return nil, err
		}
		lines = append(lines, block...)
		lines = append(lines, "")
		emitted++
	}

	// Exactly one blank line between blocks, none before the closing line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	lines = append(lines, "END:VCALENDAR")

	appLog.Info("ics: feed generated", "meetings", len(meetings), "events", emitted)
	return []byte(strings.Join(lines, "\r\n") + "\r\n"), nil
}

// sectionCutoffs runs the cutoff pass: latest non-exam end date per section
// key, minus fourteen days, at the last instant of that day.
func sectionCutoffs(meetings []model.Meeting, loc *time.Location) (map[string]time.Time, error) {
	latest := make(map[string]time.Time)

	for _, m := range meetings {
		if m.InstructionalMethod == examMethod {
			continue
		}
		if m.CourseName == "" || m.SectionNumber == "" || m.EndDate == "" {
			continue
		}
		end, err := parseDate(m.EndDate, loc)
		if err != nil {
			return nil, err
		}
		key := m.Key()
		if cur, ok := latest[key]; !ok || end.After(cur) {
			latest[key] = end
		}
	}

	cutoffs := make(map[string]time.Time, len(latest))
	for key, end := range latest {
		day := end.AddDate(0, 0, -14)
		cutoffs[key] = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc)
	}
	return cutoffs, nil
}

// eventLines renders one meeting as a VEVENT block.
func eventLines(m model.Meeting, cutoffs map[string]time.Time, opts Options) ([]string, error) {
	loc := opts.Location

	startDt, err := combine(m.StartDate, m.StartTime, loc)
	if err != nil {
		return nil, err
	}
	endDt, err := combine(m.StartDate, m.EndTime, loc)
	if err != nil {
		return nil, err
	}

	byDays := DecodeDays(m.DaysOfWeek)
	byDay := strings.Join(byDays, ",")

	until, err := recurrenceEnd(m, cutoffs, loc)
	if err != nil {
		return nil, err
	}
	// The recurrence must outlive the first occurrence.
	if until.Before(endDt) {
		until = endDt
	}

	tzid := loc.String()
	lines := []string{
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:%s@%s", opts.NewUID(), uidDomain),
		"DTSTAMP:" + formatUTC(opts.Now()),
		fmt.Sprintf("DTSTART;TZID=%s:%s", tzid, formatLocal(startDt)),
		fmt.Sprintf("DTEND;TZID=%s:%s", tzid, formatLocal(endDt)),
	}

	if byDay != "" {
		lines = append(lines, fmt.Sprintf("RRULE:FREQ=WEEKLY;BYDAY=%s;UNTIL=%s", byDay, formatLocal(until)))

		if opts.ExcludeBreaks {
			for _, day := range breakDatesFor(startDt, until, weekdaysOf(byDays), loc) {
				ex := time.Date(day.Year(), day.Month(), day.Day(),
					startDt.Hour(), startDt.Minute(), 0, 0, loc)
				lines = append(lines, fmt.Sprintf("EXDATE;TZID=%s:%s", tzid, formatLocal(ex)))
			}
		}
	}

	summary := strings.TrimSpace(fmt.Sprintf("%s %s*%s", m.InstructionalMethod, m.CourseName, m.SectionNumber))
	description := fmt.Sprintf("Instructor(s): %s\nCredits: %s",
		strings.Join(m.Instructors, " | "), formatCredits(m.Credits))

	lines = append(lines,
		"SUMMARY:"+escapeText(summary),
		"DESCRIPTION:"+escapeText(description),
		"LOCATION:"+escapeText(m.Location),
		"END:VEVENT",
	)
	return lines, nil
}

// recurrenceEnd picks the UNTIL instant: the section cutoff for non-exam
// meetings that have one, otherwise the meeting's own end date at day's end,
// otherwise its first start (single-occurrence degenerate case).
func recurrenceEnd(m model.Meeting, cutoffs map[string]time.Time, loc *time.Location) (time.Time, error) {
	if m.InstructionalMethod != examMethod {
		if cutoff, ok := cutoffs[m.Key()]; ok {
			return cutoff, nil
		}
	}
	if m.EndDate != "" {
		return endOfDay(m.EndDate, loc)
	}
	return combine(m.StartDate, m.StartTime, loc)
}

func formatCredits(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

// escapeText escapes text per RFC 5545 so multi-line descriptions stay on
// one physical line.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
