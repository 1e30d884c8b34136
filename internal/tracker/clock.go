package tracker

import (
	"fmt"
	"time"
)

// Storage formats. Timestamps are written as naive strings already expressed
// in the reporting timezone, so SQLite's date() bucketing never re-shifts
// them. Both formats compare lexicographically in timestamp order.
const (
	timestampLayout = "2006-01-02 15:04:05"
	dayLayout       = "2006-01-02"
)

// Clock resolves "now" and date-bucket keys in a fixed reporting timezone.
// All day and week boundaries are computed here, never on raw UTC instants,
// so activities near midnight land in the user's calendar day.
type Clock struct {
	loc *time.Location

	// nowFn overrides time.Now in tests.
	nowFn func() time.Time
}

// NewClock loads the reporting timezone by IANA name.
func NewClock(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc}, nil
}

// Now returns the current instant in the reporting zone.
func (c *Clock) Now() time.Time {
	if c.nowFn != nil {
		return c.nowFn().In(c.loc)
	}
	return time.Now().In(c.loc)
}

// Location returns the reporting zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Timestamp formats an instant as the naive storage string.
func (c *Clock) Timestamp(t time.Time) string {
	return t.In(c.loc).Format(timestampLayout)
}

// DayKey formats an instant as its reporting-zone calendar day.
func (c *Clock) DayKey(t time.Time) string {
	return t.In(c.loc).Format(dayLayout)
}

// Today returns the current reporting-zone calendar day key.
func (c *Clock) Today() string {
	return c.DayKey(c.Now())
}

// StartOfWeek returns Monday 00:00:00 of the week containing t, in the
// reporting zone. ISO week start: weekday index 0=Monday .. 6=Sunday.
func (c *Clock) StartOfWeek(t time.Time) time.Time {
	t = t.In(c.loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	return day.AddDate(0, 0, -WeekdayIndex(day))
}

// WeekdayIndex maps time.Weekday (0=Sunday) onto the Monday-first index
// used by the week roster. SQLite's strftime('%w') uses the same Sunday
// origin and gets the same remap in SQL-adjacent code.
func WeekdayIndex(t time.Time) int {
	w := int(t.Weekday())
	if w == 0 {
		return 6
	}
	return w - 1
}
