package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"uofgsched/internal/config"
	appLog "uofgsched/internal/log"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// microsoftEndpoint is the common-tenant v2.0 authorization endpoint used
// for the public-client device-code flow.
var microsoftEndpoint = oauth2.Endpoint{
	AuthURL:       "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
	TokenURL:      "https://login.microsoftonline.com/common/oauth2/v2.0/token",
	DeviceAuthURL: "https://login.microsoftonline.com/common/oauth2/v2.0/devicecode",
}

var graphScopes = []string{
	"https://graph.microsoft.com/Calendars.ReadWrite",
	"offline_access",
}

// Outlook imports the feed into an Outlook calendar through Microsoft Graph.
// Authentication uses a public client ID with the device-code flow: the user
// enters a short code at a verification URL instead of a browser redirect.
type Outlook struct {
	ClientID  string
	TokenFile string
	Timezone  string

	// baseURL overrides the Graph endpoint in tests.
	baseURL string
	client  *http.Client
}

func NewOutlook(cfg config.OutlookConfig, timezone string) *Outlook {
	return &Outlook{
		ClientID:  cfg.ClientID,
		TokenFile: cfg.TokenFile,
		Timezone:  timezone,
	}
}

func (o *Outlook) Name() string { return "outlook" }

func (o *Outlook) base() string {
	if o.baseURL != "" {
		return o.baseURL
	}
	return graphBaseURL
}

// Authenticate produces an authorized Graph client. A cached token is
// refreshed transparently; otherwise the device-code flow runs and its
// result is cached for the next run.
func (o *Outlook) Authenticate(ctx context.Context) error {
	if o.ClientID == "" {
		return fmt.Errorf("outlook: client_id is not configured: %w", ErrAuth)
	}

	conf := &oauth2.Config{
		ClientID: o.ClientID,
		Endpoint: microsoftEndpoint,
		Scopes:   graphScopes,
	}

	var ts oauth2.TokenSource
	tok, err := loadToken(o.TokenFile)
	if err == nil {
		ts = conf.TokenSource(ctx, tok)
		if fresh, err := ts.Token(); err == nil {
			tok = fresh
		} else {
			tok = nil
		}
	} else {
		tok = nil
	}

	if tok == nil {
		tok, err = o.deviceFlow(ctx, conf)
		if err != nil {
			return fmt.Errorf("outlook: device login: %v: %w", err, ErrAuth)
		}
		ts = conf.TokenSource(ctx, tok)
	}

	if err := saveToken(o.TokenFile, tok); err != nil {
		appLog.Warn("outlook: could not cache token", "path", o.TokenFile, "err", err)
	}

	o.client = oauth2.NewClient(ctx, ts)
	return nil
}

// deviceFlow requests a device code, tells the user where to enter it and
// polls until the grant completes.
func (o *Outlook) deviceFlow(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	da, err := conf.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting device code: %w", err)
	}

	fmt.Printf("Visit %s and enter code: %s\n", da.VerificationURI, da.UserCode)

	tok, err := conf.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("waiting for device grant: %w", err)
	}
	return tok, nil
}

type oCalendar struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type oCalendarList struct {
	Value []oCalendar `json:"value"`
}

// ResolveOrCreateCalendar returns the first calendar whose name matches
// case-insensitively (Graph display names are treated that way here, unlike
// the Google adapter's exact match), creating one if none does.
func (o *Outlook) ResolveOrCreateCalendar(ctx context.Context, name string) (string, error) {
	if o.client == nil {
		return "", fmt.Errorf("outlook: not authenticated: %w", ErrAuth)
	}

	var list oCalendarList
	if _, err := doJSON(ctx, o.client, http.MethodGet, o.base()+"/me/calendars", nil, &list); err != nil {
		return "", fmt.Errorf("outlook: listing calendars: %w", err)
	}
	for _, cal := range list.Value {
		if strings.EqualFold(cal.Name, name) {
			appLog.Info("outlook: calendar found", "name", cal.Name, "id", cal.ID)
			return cal.ID, nil
		}
	}

	var created oCalendar
	if _, err := doJSON(ctx, o.client, http.MethodPost, o.base()+"/me/calendars", oCalendar{Name: name}, &created); err != nil {
		return "", fmt.Errorf("outlook: creating calendar: %w", err)
	}
	appLog.Info("outlook: calendar created", "name", name, "id", created.ID)
	return created.ID, nil
}

type oDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type oBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type oLocation struct {
	DisplayName string `json:"displayName"`
}

type oPattern struct {
	Type       string   `json:"type"`
	Interval   int      `json:"interval"`
	DaysOfWeek []string `json:"daysOfWeek"`
}

type oRange struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type oRecurrence struct {
	Pattern oPattern `json:"pattern"`
	Range   oRange   `json:"range"`
}

type oEvent struct {
	Subject    string       `json:"subject"`
	Body       oBody        `json:"body"`
	Location   oLocation    `json:"location"`
	Start      oDateTime    `json:"start"`
	End        oDateTime    `json:"end"`
	Recurrence *oRecurrence `json:"recurrence,omitempty"`
}

// ImportEvents inserts every feed event into the calendar, translating the
// weekly RRULE into Graph's pattern/range recurrence encoding. Failed
// inserts are logged and skipped.
func (o *Outlook) ImportEvents(ctx context.Context, calendarID string, feed []byte) (int, error) {
	if o.client == nil {
		return 0, fmt.Errorf("outlook: not authenticated: %w", ErrAuth)
	}

	events, err := ParseFeed(feed)
	if err != nil {
		return 0, err
	}

	endpoint := o.base() + "/me/calendars/" + url.PathEscape(calendarID) + "/events"
	created := 0
	for _, ev := range events {
		body := oEvent{
			Subject:  ev.Summary,
			Body:     oBody{ContentType: "text", Content: ev.Description},
			Location: oLocation{DisplayName: ev.Location},
			Start:    oDateTime{DateTime: ev.Start.Format("2006-01-02T15:04:05"), TimeZone: o.Timezone},
			End:      oDateTime{DateTime: ev.End.Format("2006-01-02T15:04:05"), TimeZone: o.Timezone},
		}

		if ev.RRule != "" {
			rec, err := translateRecurrence(ev.RRule, ev.Start.Format("2006-01-02"))
			if err != nil {
				appLog.Warn("outlook: recurrence translation failed", "summary", ev.Summary, "err", err)
				continue
			}
			body.Recurrence = rec
		}

		if _, err := doJSON(ctx, o.client, http.MethodPost, endpoint, body, nil); err != nil {
			appLog.Warn("outlook: event insert failed", "summary", ev.Summary, "err", err)
			continue
		}
		created++
	}

	appLog.Info("outlook: import finished", "created", created, "total", len(events))
	return created, nil
}

// translateRecurrence converts the feed's weekly RRULE into Graph's
// weekly-pattern, end-date-range encoding.
func translateRecurrence(raw, startDate string) (*oRecurrence, error) {
	rec, err := parseRecurrence(raw)
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(rec.ByDay))
	for _, code := range rec.ByDay {
		if name, ok := graphDayNames[code]; ok {
			days = append(days, name)
		}
	}

	return &oRecurrence{
		Pattern: oPattern{Type: "weekly", Interval: 1, DaysOfWeek: days},
		Range: oRange{
			Type:      "endDate",
			StartDate: startDate,
			EndDate:   rec.Until.Format("2006-01-02"),
		},
	}, nil
}
