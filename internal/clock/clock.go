package clock

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Resolver maps clinic timezone names to *time.Location. An unknown or
// empty name falls back to UTC so a bad clinic row cannot fail a booking
// request; the fallback is logged as a data-quality warning.
type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver {
	return &Resolver{log: log}
}

func (r *Resolver) Location(timezone string) *time.Location {
	if timezone == "" {
		r.log.Warn("clinic has empty timezone, falling back to UTC")
		return time.UTC
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		r.log.Warn("unknown clinic timezone, falling back to UTC",
			zap.String("timezone", timezone),
			zap.Error(err),
		)
		return time.UTC
	}

	return loc
}

// Day is a calendar date with no time-of-day or zone attached. Which
// instants it spans depends on the clinic location it is evaluated in.
type Day struct {
	Year  int
	Month time.Month
	Date  int
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day{Year: t.Year(), Month: t.Month(), Date: t.Day()}, nil
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Date)
}

// Weekday evaluates the day's weekday in the given location. Midnight
// local time pins the calendar date regardless of UTC offset.
func (d Day) Weekday(loc *time.Location) time.Weekday {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, loc).Weekday()
}

// Bounds returns the UTC instants of local midnight on d and local
// midnight on the following day. time.Date normalizes DST gaps, so the
// span is 23, 24 or 25 hours long depending on the date.
func (d Day) Bounds(loc *time.Location) (start, end time.Time) {
	start = time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, loc).UTC()
	end = time.Date(d.Year, d.Month, d.Date+1, 0, 0, 0, 0, loc).UTC()
	return start, end
}

// At converts a wall-clock time on this day to a UTC instant. The offset
// in effect on this specific date is used, so the same clock time maps
// to different instants across DST transitions.
func (d Day) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Date, hour, minute, 0, 0, loc).UTC()
}

// DayOf returns the calendar date an instant falls on in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	local := t.In(loc)
	return Day{Year: local.Year(), Month: local.Month(), Date: local.Day()}
}

// LocalWeekdayAndClock returns the weekday and wall-clock time of a UTC
// instant as seen in loc.
func LocalWeekdayAndClock(t time.Time, loc *time.Location) (time.Weekday, int, int) {
	local := t.In(loc)
	return local.Weekday(), local.Hour(), local.Minute()
}
