package calendar

import (
	"strings"
	"testing"
	"time"

	"uofgsched/internal/ics"
	"uofgsched/internal/model"
)

func makeFeed(t *testing.T, meetings ...model.Meeting) []byte {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Fatalf("loading America/Toronto: %v", err)
	}
	feed, err := ics.Generate(meetings, ics.Options{Location: loc})
	if err != nil {
		t.Fatalf("generating feed: %v", err)
	}
	return feed
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

func TestParseFeedRoundTrip(t *testing.T) {
	feed := makeFeed(t, lectureMeeting())

	events, err := ParseFeed(feed)
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.Summary != "LEC CIS*2750*0101" {
		t.Errorf("Summary = %q", ev.Summary)
	}
	if !strings.Contains(ev.Description, "Instructor(s): Dr. Smith\nCredits: 0.5") {
		t.Errorf("Description = %q (escaped newline not restored?)", ev.Description)
	}
	if ev.Location != "ROZH*101" {
		t.Errorf("Location = %q", ev.Location)
	}

	loc, _ := time.LoadLocation("America/Toronto")
	wantStart := time.Date(2024, time.March, 1, 10, 0, 0, 0, loc)
	if !ev.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", ev.Start, wantStart)
	}
	wantEnd := time.Date(2024, time.March, 1, 10, 50, 0, 0, loc)
	if !ev.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", ev.End, wantEnd)
	}
	if ev.RRule != "FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20240322T235959" {
		t.Errorf("RRule = %q", ev.RRule)
	}
}

func TestParseFeedToleratesBlankSeparators(t *testing.T) {
	second := lectureMeeting()
	second.CourseName = "CIS*3110"
	second.DaysOfWeek = "TuTh"

	feed := makeFeed(t, lectureMeeting(), second)
	if !strings.Contains(string(feed), "END:VEVENT\r\n\r\nBEGIN:VEVENT") {
		t.Fatal("fixture feed lost its blank separator")
	}

	events, err := ParseFeed(feed)
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestParseFeedEmpty(t *testing.T) {
	if _, err := ParseFeed(nil); err == nil {
		t.Error("ParseFeed(nil) succeeded, want error")
	}
}

func TestEnsureUntilUTC(t *testing.T) {
	tests := []struct{ in, want string }{
		{
			"FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20240322T235959",
			"FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20240322T235959Z",
		},
		{
			"FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=20240322T235959Z",
			"FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=20240322T235959Z",
		},
		{"FREQ=WEEKLY;BYDAY=FR", "FREQ=WEEKLY;BYDAY=FR"},
	}
	for _, tt := range tests {
		if got := ensureUntilUTC(tt.in); got != tt.want {
			t.Errorf("ensureUntilUTC(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRecurrence(t *testing.T) {
	rec, err := parseRecurrence("FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20240322T235959")
	if err != nil {
		t.Fatalf("parseRecurrence: %v", err)
	}
	if len(rec.ByDay) != 2 || rec.ByDay[0] != "MO" || rec.ByDay[1] != "WE" {
		t.Errorf("ByDay = %v", rec.ByDay)
	}
	want := time.Date(2024, time.March, 22, 23, 59, 59, 0, time.UTC)
	if !rec.Until.Equal(want) {
		t.Errorf("Until = %v, want %v", rec.Until, want)
	}
}
