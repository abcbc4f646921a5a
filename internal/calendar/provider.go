package calendar

import (
	"context"
	"errors"
)

// ErrAuth means no valid bearer credential could be produced for a provider.
var ErrAuth = errors.New("calendar: authentication failed")

// Provider is the shared contract of the remote calendar adapters. Both
// implementations follow the same control flow; only payload translation and
// the credential flow differ.
//
// ImportEvents performs no idempotency check: running it twice against an
// unchanged feed creates a duplicate set of events on the remote calendar.
// Feed UIDs are regenerated randomly on every export, so there is no stable
// key to deduplicate on.
type Provider interface {
	// Name identifies the provider in logs and CLI flags.
	Name() string

	// Authenticate produces a bearer credential, refreshing a cached one
	// transparently when it carries a refresh capability and driving the
	// provider's interactive flow otherwise. The resulting credential is
	// persisted for the next run.
	Authenticate(ctx context.Context) error

	// ResolveOrCreateCalendar returns the ID of the first calendar whose
	// display name matches, creating one if none does. Not transactional:
	// concurrent callers can race this into duplicate same-named calendars.
	ResolveOrCreateCalendar(ctx context.Context, name string) (string, error)

	// ImportEvents replays every event in the feed artifact into the
	// provider, one creation call each. A failed insert is logged and
	// skipped; the returned count is the number actually created.
	ImportEvents(ctx context.Context, calendarID string, feed []byte) (int, error)
}
