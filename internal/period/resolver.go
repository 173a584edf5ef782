// Package period computes the boundaries of the currently open accounting
// period. A new accounting day begins at a configurable cutoff hour rather
// than at calendar midnight.
package period

import (
	"errors"
	"fmt"
	"time"
)

// DefaultCutoffHour is the hour of day (UTC) at which a new accounting period
// begins when no other cutoff is configured.
const DefaultCutoffHour = 18

// ErrPeriodInversion is returned when "now" precedes the end of the last
// closed period, which would otherwise produce a negative-length period.
// Typically clock skew or a close recorded by a machine with a faster clock.
var ErrPeriodInversion = errors.New("current time precedes last closure end")

// Resolve computes the half-open interval [start, end) of the currently open
// accounting period.
//
// start is lastClosureEnd when a prior closure exists, otherwise the most
// recent cutoff instant at or before now (bootstrap). end is always now: the
// period stays open-ended until it is explicitly closed.
func Resolve(now time.Time, lastClosureEnd *time.Time, cutoffHour int) (start, end time.Time, err error) {
	if cutoffHour < 0 || cutoffHour > 23 {
		cutoffHour = DefaultCutoffHour
	}
	now = now.UTC()

	if lastClosureEnd != nil {
		last := lastClosureEnd.UTC()
		if now.Before(last) {
			return time.Time{}, time.Time{}, fmt.Errorf(
				"%w: now=%s last=%s", ErrPeriodInversion,
				now.Format(time.RFC3339), last.Format(time.RFC3339))
		}
		return last, now, nil
	}

	return lastCutoff(now, cutoffHour), now, nil
}

// lastCutoff returns the most recent cutoff instant at or before t.
func lastCutoff(t time.Time, cutoffHour int) time.Time {
	c := time.Date(t.Year(), t.Month(), t.Day(), cutoffHour, 0, 0, 0, time.UTC)
	if c.After(t) {
		c = c.Add(-24 * time.Hour)
	}
	return c
}
