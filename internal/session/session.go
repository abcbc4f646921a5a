package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	appLog "uofgsched/internal/log"
)

// Default acquisition parameters. The login window is long because it covers
// the user typing credentials and completing MFA by hand.
const (
	DefaultTimeout      = 5 * time.Minute
	DefaultPollInterval = 2 * time.Second
)

// ErrLoginTimeout is returned when the browser never reaches the schedule
// page within the login window.
var ErrLoginTimeout = errors.New("session: timed out waiting for login")

// Cookie is one exported browser cookie. Only the fields needed to replay
// the session into a plain HTTP client are kept.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// Options defines parameters for an interactive session acquisition.
type Options struct {
	// URL is the schedule-print page to open. Institutional SSO will
	// redirect away from it until the user has authenticated.
	URL string

	// TargetPath is the URL fragment whose appearance in the browser's
	// current location signals that login has completed.
	TargetPath string

	// Timeout bounds the whole login wait. If zero, DefaultTimeout is used.
	Timeout time.Duration

	// PollInterval is how often the browser location is sampled. If zero,
	// DefaultPollInterval is used.
	PollInterval time.Duration
}

// Acquire launches a visible Chromium instance, navigates to opts.URL and
// waits for the user to authenticate. Once the browser's location contains
// opts.TargetPath, the full cookie set is exported and returned.
//
// The window must stay visible: the whole point is that the user completes
// login and MFA by hand. The browser process is torn down on every exit
// path, including timeout and context cancellation.
func Acquire(parentCtx context.Context, opts Options) ([]Cookie, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("session: URL is required")
	}
	if opts.TargetPath == "" {
		return nil, fmt.Errorf("session: TargetPath is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	appLog.Info("session: opening browser for login", "url", opts.URL, "timeout", opts.Timeout.String())

	if err := chromedp.Run(ctx, chromedp.Navigate(opts.URL)); err != nil {
		return nil, fmt.Errorf("session: navigate failed: %w", err)
	}

	if err := waitForTarget(ctx, opts); err != nil {
		return nil, err
	}

	cookies, err := exportCookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: cookie export failed: %w", err)
	}

	appLog.Info("session: login complete", "cookie_count", len(cookies))
	return cookies, nil
}

// waitForTarget polls the browser location until it contains opts.TargetPath
// or the login window elapses.
func waitForTarget(ctx context.Context, opts Options) error {
	deadline := time.Now().Add(opts.Timeout)

	for {
		var loc string
		if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
			return fmt.Errorf("session: reading browser location: %w", err)
		}
		if strings.Contains(loc, opts.TargetPath) {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLoginTimeout
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("session: cancelled while waiting for login: %w", ctx.Err())
		case <-time.After(opts.PollInterval):
		}
	}
}

func exportCookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return out, nil
}
