package market

import (
	"fmt"
	"time"

	"github.com/gnana990/Equity-updated/internal/observ"
)

// Exchange civil timezone. All session decisions are made in IST regardless
// of where the process runs.
var Location = mustLoadLocation("Asia/Kolkata")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load timezone %s: %v", name, err))
	}
	return loc
}

// TimeOfDay is a wall-clock minute within a day, timezone-agnostic.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM", rejecting out-of-range values and trailing
// input. The error is advisory; callers that tolerate malformed input
// substitute a default instead of failing.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Window is an inclusive wall-clock interval within a trading day.
type Window struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// Session windows used by the scheduler and ad-hoc historical queries. Both
// are defaults only; config can override either.
var (
	CollectionWindow = Window{Open: TimeOfDay{9, 15}, Close: TimeOfDay{15, 30}}
	QueryWindow      = Window{Open: TimeOfDay{9, 0}, Close: TimeOfDay{16, 0}}
)

// IsWeekday reports whether now falls on Monday through Friday in the
// exchange timezone.
func IsWeekday(now time.Time) bool {
	wd := now.In(Location).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsWithinWindow reports whether the exchange wall-clock time of now lies in
// [open, close] inclusive.
func IsWithinWindow(now time.Time, w Window) bool {
	ist := now.In(Location)
	m := ist.Hour()*60 + ist.Minute()
	return m >= w.Open.minutes() && m <= w.Close.minutes()
}

// IsOpen combines the weekday and window predicates and logs the verdict.
// This is the single go/no-go check for collection and alerting.
func IsOpen(now time.Time, w Window) bool {
	weekday := IsWeekday(now)
	within := IsWithinWindow(now, w)
	open := weekday && within
	status := "CLOSED"
	if open {
		status = "OPEN"
	}
	observ.Debug("market_status", map[string]any{
		"status":  status,
		"time":    now.In(Location).Format("15:04"),
		"weekday": weekday,
		"window":  w.Open.String() + "-" + w.Close.String(),
	})
	return open
}
