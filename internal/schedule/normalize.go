package schedule

import (
	"errors"
	"fmt"
	"strings"

	"uofgsched/internal/model"
)

// ErrMalformedRecord means a course entry was missing fields the rest of the
// pipeline cannot work without.
var ErrMalformedRecord = errors.New("schedule: malformed course record")

// Flatten turns the nested course/section/meeting structure into one Meeting
// per meeting pattern. Section-level fields (course name, section number,
// credits, instructors) are lifted once per course and copied onto each of
// its patterns.
//
// Patterns missing a start or end clock-time string are skipped; those are
// online or asynchronous components with nothing to put on a calendar.
// Output order is input traversal order: courses as received, patterns in
// order within each course. No sorting happens here.
func Flatten(courses []model.RawCourse) ([]model.Meeting, error) {
	meetings := make([]model.Meeting, 0, len(courses))

	for i, course := range courses {
		sec := course.Section
		if sec.CourseName == "" || sec.Number == "" {
			return nil, fmt.Errorf("course %d has no name or section number: %w", i, ErrMalformedRecord)
		}

		for _, m := range sec.PlannedMeetings {
			if m.StartTime == "" || m.EndTime == "" {
				continue
			}
			meetings = append(meetings, model.Meeting{
				CourseName:          sec.CourseName,
				SectionNumber:       sec.Number,
				Credits:             sec.MinimumCredits,
				Instructors:         sec.Faculty,
				InstructionalMethod: m.InstructionalMethod,
				StartTime:           m.StartTime,
				EndTime:             m.EndTime,
				DaysOfWeek:          m.DaysOfWeek,
				Location:            strings.TrimSpace(m.MeetingLocation),
				StartDate:           m.StartDateString,
				EndDate:             m.EndDateString,
			})
		}
	}

	return meetings, nil
}
