package model

// RawMeeting is one meeting pattern exactly as the schedule page delivers
// it inside a section's PlannedMeetings array. All date/time fields are
// provider-local strings; no field is a stable identifier across scrapes.
type RawMeeting struct {
	InstructionalMethod string `json:"InstructionalMethod"`
	StartTime           string `json:"StartTime"`
	EndTime             string `json:"EndTime"`
	FormattedTime       string `json:"FormattedTime"`
	DaysOfWeek          string `json:"DaysOfWeek"`
	MeetingLocation     string `json:"MeetingLocation"`
	StartDateString     string `json:"StartDateString"`
	EndDateString       string `json:"EndDateString"`
}

// RawSection carries the per-course fields shared by all of a section's
// meeting patterns.
type RawSection struct {
	CourseName      string       `json:"CourseName"`
	Number          string       `json:"Number"`
	MinimumCredits  float64      `json:"MinimumCredits"`
	Faculty         []string     `json:"Faculty"`
	PlannedMeetings []RawMeeting `json:"PlannedMeetings"`
}

// RawCourse is one PlannedCourses entry from the page payload.
type RawCourse struct {
	Section RawSection `json:"Section"`
}

// Meeting is the flattened record the generator consumes: one row per
// (course, section, meeting pattern), with section-level fields copied onto
// every row. Meetings without both clock times are filtered out before this
// type is produced.
type Meeting struct {
	CourseName          string
	SectionNumber       string
	Credits             float64
	Instructors         []string
	InstructionalMethod string
	StartTime           string // e.g. "10:00 AM"
	EndTime             string
	DaysOfWeek          string // compact, e.g. "MWF", "TuTh"
	Location            string
	StartDate           string // MM/DD/YYYY
	EndDate             string // MM/DD/YYYY
}

// Key groups meetings that belong to the same section for recurrence-cutoff
// purposes. Not unique across terms; a single run only ever sees one term.
func (m Meeting) Key() string {
	return m.CourseName + "||" + m.SectionNumber
}
