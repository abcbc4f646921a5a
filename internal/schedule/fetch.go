package schedule

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	appLog "uofgsched/internal/log"
	"uofgsched/internal/session"
)

// StatusError reports a non-success HTTP status from the schedule page.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "schedule: unexpected status " + e.Status
}

// BuildScheduleURL appends the term code to the schedule-print page URL.
func BuildScheduleURL(base, term string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "termId=" + url.QueryEscape(term)
}

// FetchPage performs a single authenticated GET of the schedule page. The
// exported browser cookies are replayed onto the one request; no session
// state is kept across calls.
func FetchPage(ctx context.Context, pageURL string, cookies []session.Cookie) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("schedule: building request: %w", err)
	}

	host := req.URL.Hostname()
	replayed := 0
	for _, c := range cookies {
		if !domainMatches(host, c.Domain) {
			continue
		}
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		replayed++
	}

	appLog.Info("schedule: fetching page", "url", redactURL(pageURL), "cookies", replayed)

	// No explicit per-request timeout; the caller's context is the only bound.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return "", fmt.Errorf("schedule: fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("schedule: reading response: %w", err)
	}
	return string(body), nil
}

// domainMatches reports whether a cookie scoped to domain applies to host.
func domainMatches(host, domain string) bool {
	if domain == "" {
		return true
	}
	domain = strings.TrimPrefix(domain, ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// redactURL trims the query string from a URL for logging; termId is
// harmless but session parameters may not be.
func redactURL(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i] + "?...(redacted)"
	}
	return u
}
