package tracking

import "time"

// WithClock fixes the timestamp of tracked entries.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}
