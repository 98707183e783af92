// Package analytics provides product analytics event tracking.
package analytics

import (
	"context"
	"log/slog"
)

// Tracker records product analytics events. Implementations must never make
// tracking failures fatal for the caller.
type Tracker interface {
	// Track records an event for a user. distinctID identifies the user,
	// event names the action, and props carries event metadata.
	Track(ctx context.Context, distinctID, event string, props map[string]interface{}) error
}

// NopTracker discards all events. Used when no analytics token is configured.
type NopTracker struct{}

var _ Tracker = NopTracker{}

func (NopTracker) Track(ctx context.Context, distinctID, event string, props map[string]interface{}) error {
	slog.Debug("NopTracker.Track: discarding event", "distinct_id", distinctID, "event", event)
	return nil
}
