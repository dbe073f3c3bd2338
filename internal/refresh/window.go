package refresh

import "time"

// WindowFunc returns the fetch window for a cycle starting at now: from local midnight
// lookbackDays-1 days ago, or from backfillStart while the source has no cached data yet.
func WindowFunc(lookbackDays int, loc *time.Location, backfillStart time.Time, hasData func() bool) func(now time.Time) Window {
	if lookbackDays < 2 {
		lookbackDays = 2
	}
	if loc == nil {
		loc = time.UTC
	}
	return func(now time.Time) Window {
		local := now.In(loc)
		y, m, d := local.Date()
		start := time.Date(y, m, d-(lookbackDays-1), 0, 0, 0, 0, loc)
		if !backfillStart.IsZero() && backfillStart.Before(start) && (hasData == nil || !hasData()) {
			start = backfillStart
		}
		return Window{Start: start, End: now}
	}
}
