package ics

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in        string
		hour, min int
		wantErr   bool
	}{
		{"10:00 AM", 10, 0, false},
		{"12:30 PM", 12, 30, false},
		{"12:05 AM", 0, 5, false},
		{"2:15pm", 14, 15, false},
		{"11:59 PM", 23, 59, false},
		{"14:00", 14, 0, false},
		{"", 0, 0, true},
		{"25:00", 0, 0, true},
		{"noon", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := parseClock(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseClock(%q) succeeded, want error", tt.in)
				}
				var dpe *DateParseError
				if !errors.As(err, &dpe) {
					t.Errorf("parseClock(%q) error = %v, want *DateParseError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseClock(%q): %v", tt.in, err)
			}
			if h != tt.hour || m != tt.min {
				t.Errorf("parseClock(%q) = %d:%02d, want %d:%02d", tt.in, h, m, tt.hour, tt.min)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	loc := time.UTC
	got, err := combine("03/01/2024", "10:00 AM", loc)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	want := time.Date(2024, time.March, 1, 10, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("combine = %v, want %v", got, want)
	}

	if _, err := combine("2024-03-01", "10:00 AM", loc); err == nil {
		t.Error("combine accepted an ISO date, want MM/DD/YYYY only")
	}
}

func TestEndOfDay(t *testing.T) {
	loc := time.UTC
	got, err := endOfDay("04/05/2024", loc)
	if err != nil {
		t.Fatalf("endOfDay: %v", err)
	}
	want := time.Date(2024, time.April, 5, 23, 59, 59, 0, loc)
	if !got.Equal(want) {
		t.Errorf("endOfDay = %v, want %v", got, want)
	}
}
