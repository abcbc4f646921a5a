package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	appLog "uofgsched/internal/log"
	"uofgsched/internal/model"
)

var (
	// ErrNoScheduleData means the page did not contain a parseable embedded
	// schedule payload (missing script, no object literal, or invalid JSON).
	ErrNoScheduleData = errors.New("schedule: no embedded schedule data found")

	// ErrTermNotFound means the payload parsed fine but carried no entry for
	// the requested term code.
	ErrTermNotFound = errors.New("schedule: term not found in schedule data")
)

// resultPattern captures the object literal assigned to the script-local
// `result` variable on the schedule-print page.
var resultPattern = regexp.MustCompile(`var\s+result\s*=\s*(\{[\s\S]*?\})\s*;`)

// ExtractTerm pulls the planned-course list for one term out of the schedule
// page HTML.
//
// The page embeds its data as `var result = { ... };` inside a script
// element. The object literal is located with a delimiter-pair rule, checked
// for validity, and the sub-collection whose Code matches term exactly is
// decoded. Callers must not assume the requested term exists in the payload.
func ExtractTerm(pageHTML, term string) ([]model.RawCourse, error) {
	script, err := findResultScript(pageHTML)
	if err != nil {
		return nil, err
	}

	m := resultPattern.FindStringSubmatch(script)
	if m == nil {
		return nil, fmt.Errorf("result assignment not matched: %w", ErrNoScheduleData)
	}
	raw := m[1]

	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("embedded object is not valid JSON: %w", ErrNoScheduleData)
	}

	var planned gjson.Result
	found := false
	gjson.Get(raw, "Terms").ForEach(func(_, t gjson.Result) bool {
		if t.Get("Code").String() == term {
			planned = t.Get("PlannedCourses")
			found = true
			return false
		}
		return true
	})
	if !found {
		return nil, fmt.Errorf("term %q: %w", term, ErrTermNotFound)
	}

	var courses []model.RawCourse
	if err := json.Unmarshal([]byte(planned.Raw), &courses); err != nil {
		return nil, fmt.Errorf("decoding planned courses: %v: %w", err, ErrNoScheduleData)
	}

	appLog.Info("schedule: extracted term", "term", term, "course_count", len(courses))
	return courses, nil
}

// findResultScript returns the text of the first script element whose
// content begins with the `var result` assignment.
func findResultScript(pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", fmt.Errorf("parsing page HTML: %v: %w", err, ErrNoScheduleData)
	}

	var script string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if strings.HasPrefix(strings.TrimSpace(text), "var result") {
			script = text
			return false
		}
		return true
	})
	if script == "" {
		return "", fmt.Errorf("no result script on page: %w", ErrNoScheduleData)
	}
	return script, nil
}
