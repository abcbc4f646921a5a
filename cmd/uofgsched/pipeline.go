package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"uofgsched/internal/calendar"
	"uofgsched/internal/config"
	"uofgsched/internal/ics"
	appLog "uofgsched/internal/log"
	"uofgsched/internal/schedule"
	"uofgsched/internal/session"
)

// exportFeed runs stages 1-4: interactive login, page fetch, extraction,
// normalization and feed generation. It returns the number of meetings
// written into the feed at cfg.Output.
func exportFeed(ctx context.Context, cfg *config.Config, term string) (int, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return 0, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	target, err := url.Parse(cfg.ScheduleURL)
	if err != nil {
		return 0, fmt.Errorf("parsing schedule URL: %w", err)
	}

	pageURL := schedule.BuildScheduleURL(cfg.ScheduleURL, term)
	cookies, err := session.Acquire(ctx, session.Options{
		URL:        pageURL,
		TargetPath: target.Path,
		Timeout:    time.Duration(cfg.LoginTimeoutMinutes) * time.Minute,
	})
	if err != nil {
		return 0, err
	}

	page, err := schedule.FetchPage(ctx, pageURL, cookies)
	if err != nil {
		return 0, err
	}

	courses, err := schedule.ExtractTerm(page, term)
	if err != nil {
		return 0, err
	}

	meetings, err := schedule.Flatten(courses)
	if err != nil {
		return 0, err
	}

	feed, err := ics.Generate(meetings, ics.Options{
		Location:      loc,
		ExcludeBreaks: cfg.ExcludeBreaks,
	})
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(cfg.Output, feed, 0o644); err != nil {
		return 0, fmt.Errorf("writing feed: %w", err)
	}

	appLog.Info("feed written", "path", cfg.Output, "meetings", len(meetings))
	return len(meetings), nil
}

// providerFor builds the named remote calendar adapter from configuration.
func providerFor(name string, cfg *config.Config) (calendar.Provider, error) {
	switch name {
	case "google":
		return calendar.NewGoogle(cfg.Google, cfg.Timezone), nil
	case "outlook":
		return calendar.NewOutlook(cfg.Outlook, cfg.Timezone), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want google or outlook)", name)
	}
}

// importFeed runs stage 5 for one provider: authenticate, resolve or create
// the target calendar and replay the feed into it. It returns the number of
// events created.
func importFeed(ctx context.Context, cfg *config.Config, providerName, feedPath string) (int, error) {
	feed, err := os.ReadFile(feedPath)
	if err != nil {
		return 0, fmt.Errorf("reading feed: %w", err)
	}

	p, err := providerFor(providerName, cfg)
	if err != nil {
		return 0, err
	}

	if err := p.Authenticate(ctx); err != nil {
		return 0, err
	}

	calendarID, err := p.ResolveOrCreateCalendar(ctx, cfg.CalendarName)
	if err != nil {
		return 0, err
	}

	created, err := p.ImportEvents(ctx, calendarID, feed)
	if err != nil {
		return 0, err
	}

	appLog.Info("import complete", "provider", p.Name(), "calendar", cfg.CalendarName, "created", created)
	return created, nil
}
