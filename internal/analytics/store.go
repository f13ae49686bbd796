package analytics

import (
	"context"
	"errors"
)

// ErrUnknownLink is returned by Record when the event's link no longer exists.
var ErrUnknownLink = errors.New("short link does not exist")

// Store defines the append-only click event log.
type Store interface {
	// Record appends an event. Distinct visits are never merged; recording
	// an ID that is already stored is a no-op so redelivery stays idempotent.
	Record(ctx context.Context, event *ClickEvent) error

	// ListByLink returns the link's events inside r, ordered by timestamp ascending.
	ListByLink(ctx context.Context, shortLinkID string, r DateRange) ([]ClickEvent, error)
}
