package ics

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"uofgsched/internal/model"
)

func torontoLoc(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Fatalf("loading America/Toronto: %v", err)
	}
	return loc
}

func testOptions(t *testing.T) Options {
	t.Helper()
	n := 0
	return Options{
		Location: torontoLoc(t),
		Now: func() time.Time {
			return time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
		},
		NewUID: func() string {
			n++
			return fmt.Sprintf("uid-%04d", n)
		},
	}
}

func lectureMeeting() model.Meeting {
	return model.Meeting{
		CourseName:          "CIS*2750",
		SectionNumber:       "0101",
		Credits:             0.5,
		Instructors:         []string{"Dr. Smith"},
		InstructionalMethod: "LEC",
		StartTime:           "10:00 AM",
		EndTime:             "10:50 AM",
		DaysOfWeek:          "MW",
		Location:            "ROZH*101",
		StartDate:           "03/01/2024",
		EndDate:             "04/05/2024",
	}
}

func feedLines(t *testing.T, feed []byte) []string {
	t.Helper()
	s := string(feed)
	if !strings.HasSuffix(s, "\r\n") {
		t.Fatal("feed does not end with CRLF")
	}
	return strings.Split(strings.TrimSuffix(s, "\r\n"), "\r\n")
}

func TestGenerateSingleLecture(t *testing.T) {
	feed, err := Generate([]model.Meeting{lectureMeeting()}, testOptions(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"PRODID:" + ProdID,
		"BEGIN:VEVENT",
		"UID:uid-0001@uofgsched",
		"DTSTAMP:20240201T120000Z",
		"DTSTART;TZID=America/Toronto:20240301T100000",
		"DTEND;TZID=America/Toronto:20240301T105000",
		"RRULE:FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20240322T235959",
		"SUMMARY:LEC CIS*2750*0101",
		`DESCRIPTION:Instructor(s): Dr. Smith\nCredits: 0.5`,
		"LOCATION:ROZH*101",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	got := feedLines(t, feed)
	if len(got) != len(want) {
		t.Fatalf("feed has %d lines, want %d:\n%s", len(got), len(want), string(feed))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateCutoffUsesLatestNonExamEndDate(t *testing.T) {
	lab := lectureMeeting()
	lab.InstructionalMethod = "LAB"
	lab.DaysOfWeek = "F"
	lab.EndDate = "03/29/2024"

	feed, err := Generate([]model.Meeting{lectureMeeting(), lab}, testOptions(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Both meetings share the section key, so both recur until two weeks
	// before the later end date (04/05), at day's end.
	count := strings.Count(string(feed), "UNTIL=20240322T235959")
	if count != 2 {
		t.Errorf("got %d events with the shared cutoff, want 2:\n%s", count, feed)
	}
}

func TestGenerateExamKeepsOwnEndDate(t *testing.T) {
	exam := lectureMeeting()
	exam.InstructionalMethod = "EXAM"
	exam.DaysOfWeek = "F"
	exam.StartDate = "04/19/2024"
	exam.EndDate = "04/19/2024"

	feed, err := Generate([]model.Meeting{lectureMeeting(), exam}, testOptions(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(string(feed), "UNTIL=20240322T235959") {
		t.Error("lecture did not get the two-week cutoff")
	}
	if !strings.Contains(string(feed), "UNTIL=20240419T235959") {
		t.Error("exam did not keep its own end date as recurrence end")
	}
}

func TestGenerateSkipsMeetingsWithoutClockTime(t *testing.T) {
	online := lectureMeeting()
	online.StartTime = ""
	online.CourseName = "CIS*3750"

	feed, err := Generate([]model.Meeting{lectureMeeting(), online}, testOptions(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if strings.Count(string(feed), "BEGIN:VEVENT") != 1 {
		t.Errorf("want exactly one event, got:\n%s", feed)
	}
	if strings.Contains(string(feed), "CIS*3750") {
		t.Error("meeting without a start time leaked into the feed")
	}
}

func TestGenerateBlankLineBetweenEvents(t *testing.T) {
	second := lectureMeeting()
	second.CourseName = "CIS*3110"
	second.DaysOfWeek = "TuTh"

	feed, err := Generate([]model.Meeting{lectureMeeting(), second}, testOptions(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lines := feedLines(t, feed)
	blanks := 0
	for i, l := range lines {
		if l != "" {
			continue
		}
		blanks++
		if lines[i-1] != "END:VEVENT" || lines[i+1] != "BEGIN:VEVENT" {
			t.Errorf("blank line %d is not between two event blocks", i)
		}
	}
	if blanks != 1 {
		t.Errorf("got %d blank lines, want 1", blanks)
	}
	if lines[len(lines)-2] == "" {
		t.Error("blank line before END:VCALENDAR")
	}
}

func TestGenerateStableUpToRandomFields(t *testing.T) {
	meetings := []model.Meeting{lectureMeeting()}
	second := lectureMeeting()
	second.CourseName = "CIS*3110"
	second.DaysOfWeek = "TuTh"
	meetings = append(meetings, second)

	strip := func(feed []byte) string {
		var kept []string
		for _, l := range feedLines(t, feed) {
			if strings.HasPrefix(l, "UID:") || strings.HasPrefix(l, "DTSTAMP:") {
				continue
			}
			kept = append(kept, l)
		}
		return strings.Join(kept, "\r\n")
	}

	optsA := testOptions(t)
	optsB := Options{
		Location: torontoLoc(t),
		Now:      time.Now,
		NewUID:   nil, // random UUIDs
	}

	feedA, err := Generate(meetings, optsA)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	feedB, err := Generate(meetings, optsB)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if strip(feedA) != strip(feedB) {
		t.Errorf("feeds differ beyond UID/DTSTAMP:\n--- A ---\n%s\n--- B ---\n%s", strip(feedA), strip(feedB))
	}
}

func TestGenerateUntilNeverBeforeFirstOccurrenceEnd(t *testing.T) {
	// A course so short that the two-week cutoff lands before its first
	// meeting: the recurrence end must be clamped up to the occurrence end.
	short := lectureMeeting()
	short.EndDate = "03/08/2024"

	feed, err := Generate([]model.Meeting{short}, testOptions(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(string(feed), "UNTIL=20240301T105000") {
		t.Errorf("recurrence end not clamped to first occurrence end:\n%s", feed)
	}
}

func TestGenerateMalformedDateAbortsRun(t *testing.T) {
	bad := lectureMeeting()
	bad.StartDate = "March 1, 2024"

	feed, err := Generate([]model.Meeting{lectureMeeting(), bad}, testOptions(t))
	if err == nil {
		t.Fatal("Generate succeeded on a malformed date")
	}
	var dpe *DateParseError
	if !errors.As(err, &dpe) {
		t.Errorf("error = %v, want *DateParseError", err)
	}
	if feed != nil {
		t.Error("partial feed emitted alongside error")
	}
}

func TestGenerateExcludesReadingWeek(t *testing.T) {
	// Winter 2024 term meeting spanning Family Day week (Feb 19-23).
	winter := lectureMeeting()
	winter.StartDate = "01/08/2024"
	winter.EndDate = "04/05/2024"

	opts := testOptions(t)
	opts.ExcludeBreaks = true

	feed, err := Generate([]model.Meeting{winter}, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, want := range []string{
		"EXDATE;TZID=America/Toronto:20240219T100000", // reading week Monday
		"EXDATE;TZID=America/Toronto:20240221T100000", // reading week Wednesday
	} {
		if !strings.Contains(string(feed), want) {
			t.Errorf("missing %s:\n%s", want, feed)
		}
	}

	// Disabled by default.
	feed, err = Generate([]model.Meeting{winter}, testOptions(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(string(feed), "EXDATE") {
		t.Error("EXDATE emitted with break exclusion disabled")
	}
}
