package calendar

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"uofgsched/internal/config"
	appLog "uofgsched/internal/log"
)

const (
	googleBaseURL = "https://www.googleapis.com/calendar/v3"
	calendarScope = "https://www.googleapis.com/auth/calendar"
)

// Google imports the feed into Google Calendar through the Calendar v3 REST
// API. Credentials come from an OAuth "installed app" client: a browser
// redirect flow on first run, a cached refreshable token afterwards.
type Google struct {
	CredentialsFile string
	TokenFile       string
	Timezone        string

	// baseURL overrides the API endpoint in tests.
	baseURL string
	client  *http.Client
}

func NewGoogle(cfg config.GoogleConfig, timezone string) *Google {
	return &Google{
		CredentialsFile: cfg.CredentialsFile,
		TokenFile:       cfg.TokenFile,
		Timezone:        timezone,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) base() string {
	if g.baseURL != "" {
		return g.baseURL
	}
	return googleBaseURL
}

// Authenticate produces an authorized HTTP client. A cached token with a
// refresh capability is refreshed transparently by the token source; failing
// that, the interactive browser flow runs once and the result is cached.
func (g *Google) Authenticate(ctx context.Context) error {
	secrets, err := os.ReadFile(g.CredentialsFile)
	if err != nil {
		return fmt.Errorf("google: reading client secrets: %v: %w", err, ErrAuth)
	}
	conf, err := google.ConfigFromJSON(secrets, calendarScope)
	if err != nil {
		return fmt.Errorf("google: parsing client secrets: %v: %w", err, ErrAuth)
	}

	tok, err := loadToken(g.TokenFile)
	if err != nil {
		tok, err = g.interactiveFlow(ctx, conf)
		if err != nil {
			return fmt.Errorf("google: interactive login: %v: %w", err, ErrAuth)
		}
	}

	ts := conf.TokenSource(ctx, tok)
	fresh, err := ts.Token()
	if err != nil {
		// Cached token is expired with no usable refresh token.
		tok, err = g.interactiveFlow(ctx, conf)
		if err != nil {
			return fmt.Errorf("google: interactive login: %v: %w", err, ErrAuth)
		}
		ts = conf.TokenSource(ctx, tok)
		fresh = tok
	}

	if err := saveToken(g.TokenFile, fresh); err != nil {
		appLog.Warn("google: could not cache token", "path", g.TokenFile, "err", err)
	}

	g.client = oauth2.NewClient(ctx, ts)
	return nil
}

// interactiveFlow runs the local-redirect authorization flow: a loopback
// listener receives the authorization code after the user approves access in
// their browser.
func (g *Google) interactiveFlow(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting redirect listener: %w", err)
	}
	defer ln.Close()

	flowConf := *conf
	flowConf.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- errors.New("oauth state mismatch")
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- errors.New("redirect carried no authorization code")
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this tab.")
		codeCh <- code
	})}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := flowConf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL in your browser to authorize calendar access:\n\n  %s\n\n", authURL)

	select {
	case code := <-codeCh:
		return flowConf.Exchange(ctx, code)
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type gCalendar struct {
	ID       string `json:"id,omitempty"`
	Summary  string `json:"summary"`
	TimeZone string `json:"timeZone,omitempty"`
}

type gCalendarList struct {
	Items []gCalendar `json:"items"`
}

// ResolveOrCreateCalendar returns the first calendar whose summary matches
// name exactly (case-sensitive), creating one in the configured timezone if
// none does.
func (g *Google) ResolveOrCreateCalendar(ctx context.Context, name string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("google: not authenticated: %w", ErrAuth)
	}

	var list gCalendarList
	if _, err := doJSON(ctx, g.client, http.MethodGet, g.base()+"/users/me/calendarList", nil, &list); err != nil {
		return "", fmt.Errorf("google: listing calendars: %w", err)
	}
	for _, cal := range list.Items {
		if cal.Summary == name {
			appLog.Info("google: calendar found", "name", name, "id", cal.ID)
			return cal.ID, nil
		}
	}

	var created gCalendar
	body := gCalendar{Summary: name, TimeZone: g.Timezone}
	if _, err := doJSON(ctx, g.client, http.MethodPost, g.base()+"/calendars", body, &created); err != nil {
		return "", fmt.Errorf("google: creating calendar: %w", err)
	}
	appLog.Info("google: calendar created", "name", name, "id", created.ID)
	return created.ID, nil
}

type gEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type gEvent struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Start       gEventTime `json:"start"`
	End         gEventTime `json:"end"`
	Recurrence  []string   `json:"recurrence,omitempty"`
}

// ImportEvents inserts every feed event into the calendar, one POST each.
// Failed inserts are logged and skipped.
func (g *Google) ImportEvents(ctx context.Context, calendarID string, feed []byte) (int, error) {
	if g.client == nil {
		return 0, fmt.Errorf("google: not authenticated: %w", ErrAuth)
	}

	events, err := ParseFeed(feed)
	if err != nil {
		return 0, err
	}

	endpoint := g.base() + "/calendars/" + url.PathEscape(calendarID) + "/events"
	created := 0
	for _, ev := range events {
		body := gEvent{
			Summary:     ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			Start:       gEventTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: g.Timezone},
			End:         gEventTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: g.Timezone},
		}
		if ev.RRule != "" {
			body.Recurrence = []string{"RRULE:" + ensureUntilUTC(ev.RRule)}
		}

		if _, err := doJSON(ctx, g.client, http.MethodPost, endpoint, body, nil); err != nil {
			appLog.Warn("google: event insert failed", "summary", ev.Summary, "err", err)
			continue
		}
		created++
	}

	appLog.Info("google: import finished", "created", created, "total", len(events))
	return created, nil
}
