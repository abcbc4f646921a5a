package ics

import "time"

// University of Guelph break periods, derived from statutory holidays:
//
//   - Fall study break: Saturday before Thanksgiving (2nd Monday of October)
//     through the Tuesday after it. Classes resume Wednesday.
//   - Winter reading week: Monday through Friday of the week of Family Day
//     (3rd Monday of February).
//
// When break exclusion is enabled, recurring meetings get EXDATE entries for
// any break date that falls on one of their weekdays inside the recurrence
// range.

type breakPeriod struct {
	start time.Time // first break day, midnight
	end   time.Time // last break day, midnight
}

// nthWeekdayOfMonth returns the nth occurrence of weekday in the given month.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := int(weekday) - int(first.Weekday())
	if offset < 0 {
		offset += 7
	}
	return first.AddDate(0, 0, offset+(n-1)*7)
}

// readingWeeks returns the break periods for the academic year starting in
// the given fall.
func readingWeeks(fallYear int, loc *time.Location) []breakPeriod {
	thanksgiving := nthWeekdayOfMonth(fallYear, time.October, time.Monday, 2, loc)
	familyDay := nthWeekdayOfMonth(fallYear+1, time.February, time.Monday, 3, loc)

	return []breakPeriod{
		{start: thanksgiving.AddDate(0, 0, -2), end: thanksgiving.AddDate(0, 0, 1)},
		{start: familyDay, end: familyDay.AddDate(0, 0, 4)},
	}
}

// breakDatesFor lists break dates between start and until (inclusive) that
// fall on one of the meeting's weekdays.
func breakDatesFor(start, until time.Time, weekdays []time.Weekday, loc *time.Location) []time.Time {
	wanted := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		wanted[wd] = true
	}

	// Meetings starting August through December belong to that year's fall
	// academic year; January through July to the previous one.
	fallYear := start.Year()
	if start.Month() < time.August {
		fallYear--
	}

	periods := append(readingWeeks(fallYear, loc), readingWeeks(fallYear+1, loc)...)

	var out []time.Time
	for _, p := range periods {
		for day := p.start; !day.After(p.end); day = day.AddDate(0, 0, 1) {
			if day.Before(startOfDay(start)) || day.After(until) {
				continue
			}
			if wanted[day.Weekday()] {
				out = append(out, day)
			}
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
