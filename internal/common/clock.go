package common

import "time"

// DateFormat is the calendar-date layout used for cache keys and the daily
// dividend-refresh guard.
const DateFormat = "2006-01-02"

// Clock supplies the current time. It is injected into every service with
// date-keyed behavior so tests can simulate day rollover deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

// Today formats the clock's current UTC date as a calendar-date string.
func Today(clock Clock) string {
	return clock.Now().UTC().Format(DateFormat)
}
