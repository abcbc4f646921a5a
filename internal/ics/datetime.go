package ics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateParseError reports a date or clock-time string the generator could not
// parse. Generation aborts on the first one: a partially-correct feed is
// worse than no feed, because downstream imports cannot be undone.
type DateParseError struct {
	Kind  string // "date" or "time"
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("ics: cannot parse %s %q", e.Kind, e.Value)
}

// clockPattern accepts "9:00 AM", "12:30pm" and plain 24-hour "14:00".
var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(AM|PM)?$`)

// parseDate parses a provider-local MM/DD/YYYY date string into a civil date
// at midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, &DateParseError{Kind: "date", Value: s}
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, &DateParseError{Kind: "date", Value: s}
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, &DateParseError{Kind: "date", Value: s}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

// parseClock parses a clock-time string into hour and minute.
func parseClock(s string) (hour, minute int, err error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, &DateParseError{Kind: "time", Value: s}
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, &DateParseError{Kind: "time", Value: s}
	}
	return hour, minute, nil
}

// combine builds the instant for a date string plus a clock-time string.
func combine(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	day, err := parseDate(dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := parseClock(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// endOfDay returns the last instant (23:59:59) of the given MM/DD/YYYY date.
func endOfDay(dateStr string, loc *time.Location) (time.Time, error) {
	day, err := parseDate(dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc), nil
}

// formatLocal renders a local civil date-time with no zone suffix. The zone
// travels as a TZID parameter on the property instead.
func formatLocal(t time.Time) string {
	return t.Format("20060102T150405")
}

// formatUTC renders a UTC timestamp with the Z suffix.
func formatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
