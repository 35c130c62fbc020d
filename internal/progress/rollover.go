package progress

import (
	"context"
	"time"
)

// DefaultRolloverInterval is how often the local date is re-checked.
const DefaultRolloverInterval = time.Minute

// WatchRollover publishes EventRollover each time the local calendar day
// changes. No write can signal a date gate opening, so this is the one
// periodic check left. It blocks until ctx is done.
func (e *Engine) WatchRollover(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRolloverInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	day := e.cal.Day(e.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.checkRollover(&day) {
				e.log.Info("calendar day changed", "day", day.Format(time.DateOnly))
			}
		}
	}
}

// checkRollover advances *day and publishes when today differs from it.
func (e *Engine) checkRollover(day *time.Time) bool {
	today := e.cal.Day(e.now())
	if today.Equal(*day) {
		return false
	}
	*day = today
	e.publish(EventRollover, 0)
	return true
}
