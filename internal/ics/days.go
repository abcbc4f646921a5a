package ics

import (
	"regexp"
	"time"
)

// dayToken matches the compact day-of-week tokens used by the schedule page.
// "Th" must come first: matching it before the single letters keeps a
// Thursday from also registering as Tuesday + Wednesday. "Tu" needs no
// alternative of its own; "T" matches and the trailing "u" is skipped.
var dayToken = regexp.MustCompile(`Th|M|T|W|F`)

var tokenToByDay = map[string]string{
	"M":  "MO",
	"T":  "TU",
	"W":  "WE",
	"Th": "TH",
	"F":  "FR",
}

var byDayToWeekday = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

// DecodeDays turns a compact day string like "MWF" or "TuTh" into RFC 5545
// BYDAY codes, preserving token order. Unrecognized characters are ignored.
func DecodeDays(s string) []string {
	tokens := dayToken.FindAllString(s, -1)
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if code, ok := tokenToByDay[t]; ok {
			out = append(out, code)
		}
	}
	return out
}

// weekdaysOf maps BYDAY codes to time.Weekday values.
func weekdaysOf(byDays []string) []time.Weekday {
	out := make([]time.Weekday, 0, len(byDays))
	for _, d := range byDays {
		if wd, ok := byDayToWeekday[d]; ok {
			out = append(out, wd)
		}
	}
	return out
}
