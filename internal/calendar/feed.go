package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// Event is one feed entry read back from the generated artifact, carrying
// everything an adapter needs to build a provider payload.
type Event struct {
	Summary     string
	Description string
	Location    string

	// Start / End are the first occurrence, in the feed's named zone.
	Start time.Time
	End   time.Time

	// RRule is the raw recurrence rule, empty for one-off events.
	RRule string
}

// ParseFeed reads the feed artifact back into individual events.
//
// The generator separates event blocks with blank lines, which strict
// iCalendar parsers reject, so those are dropped before parsing.
func ParseFeed(feed []byte) ([]Event, error) {
	if len(feed) == 0 {
		return nil, errors.New("calendar: empty feed")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(normalizeFeed(feed)))
	if err != nil {
		return nil, fmt.Errorf("calendar: parsing feed: %w", err)
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			return nil, fmt.Errorf("calendar: parsing feed event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// normalizeFeed strips blank separator lines and forces CRLF endings.
func normalizeFeed(feed []byte) []byte {
	lines := strings.Split(strings.ReplaceAll(string(feed), "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		kept = append(kept, l)
	}
	return []byte(strings.Join(kept, "\r\n") + "\r\n")
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	start, err := propTime(ve, ical.ComponentPropertyDtStart)
	if err != nil {
		return out, err
	}
	end, err := propTime(ve, ical.ComponentPropertyDtEnd)
	if err != nil {
		return out, err
	}
	out.Start = start
	out.End = end
	return out, nil
}

// propTime reads a date-time property, honoring its TZID parameter. The feed
// writes local values with an explicit named zone rather than UTC.
func propTime(ve *ical.VEvent, name ical.ComponentProperty) (time.Time, error) {
	p := ve.GetProperty(name)
	if p == nil {
		return time.Time{}, fmt.Errorf("missing %s", string(name))
	}
	val := p.Value

	if strings.HasSuffix(val, "Z") {
		return time.Parse("20060102T150405Z", val)
	}

	loc := time.Local
	if params := p.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			l, err := time.LoadLocation(tzs[0])
			if err != nil {
				return time.Time{}, fmt.Errorf("unknown TZID %q: %w", tzs[0], err)
			}
			loc = l
		}
	}
	return time.ParseInLocation("20060102T150405", val, loc)
}

func unescapeText(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\,`, ",")
	s = strings.ReplaceAll(s, `\;`, ";")
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

// untilPattern finds the UNTIL clause of a recurrence rule.
var untilPattern = regexp.MustCompile(`UNTIL=\d{8}T\d{6}Z?`)

// ensureUntilUTC appends the UTC suffix to a timezone-naive UNTIL value.
// Both providers require it, and the feed writes UNTIL in local form.
func ensureUntilUTC(rr string) string {
	return untilPattern.ReplaceAllStringFunc(rr, func(m string) string {
		if strings.HasSuffix(m, "Z") {
			return m
		}
		return m + "Z"
	})
}

// Recurrence is the provider-neutral reading of a weekly recurrence rule.
type Recurrence struct {
	ByDay []string // RFC 5545 day codes in rule order
	Until time.Time
}

// parseRecurrence decodes the feed's weekly RRULE so adapters can translate
// it into their provider's own encoding.
func parseRecurrence(raw string) (Recurrence, error) {
	opt, err := rrule.StrToROption(ensureUntilUTC(raw))
	if err != nil {
		return Recurrence{}, fmt.Errorf("calendar: parsing recurrence %q: %w", raw, err)
	}

	var rec Recurrence
	for _, wd := range opt.Byweekday {
		rec.ByDay = append(rec.ByDay, wd.String())
	}
	rec.Until = opt.Until
	return rec, nil
}

// graphDayNames maps RFC 5545 day codes to Microsoft Graph weekday names.
var graphDayNames = map[string]string{
	"MO": "monday",
	"TU": "tuesday",
	"WE": "wednesday",
	"TH": "thursday",
	"FR": "friday",
	"SA": "saturday",
	"SU": "sunday",
}
