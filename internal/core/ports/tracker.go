package ports

import "context"

// Tracker receives metrics reported by tasks. It is a side channel: Track
// never blocks and never fails the caller.
//
//go:generate mockgen -source=tracker.go -destination=mocks/mock_tracker.go -package=mocks
type Tracker interface {
	Track(task string, metrics map[string]float64)
	// Close flushes pending metrics.
	Close(ctx context.Context) error
}

// TrackerFactory opens a Tracker writing to path.
type TrackerFactory interface {
	Open(path string) (Tracker, error)
}
