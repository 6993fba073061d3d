package clock

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestResolverFallsBackToUTC(t *testing.T) {
	r := NewResolver(zap.NewNop())

	if loc := r.Location("Not/AZone"); loc != time.UTC {
		t.Errorf("expected UTC fallback for unknown zone, got %v", loc)
	}
	if loc := r.Location(""); loc != time.UTC {
		t.Errorf("expected UTC fallback for empty zone, got %v", loc)
	}
	if loc := r.Location("America/New_York"); loc.String() != "America/New_York" {
		t.Errorf("expected America/New_York, got %v", loc)
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year != 2026 || d.Month != time.March || d.Date != 9 {
		t.Errorf("unexpected day: %+v", d)
	}

	if _, err := ParseDay("03/09/2026"); err == nil {
		t.Error("expected error for non ISO date")
	}
	if _, err := ParseDay(""); err == nil {
		t.Error("expected error for empty date")
	}
}

func TestDayWeekdayIsLocal(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")

	// 2026-03-09 is a Monday everywhere; the weekday of a calendar day
	// does not depend on the zone's UTC offset.
	d := Day{Year: 2026, Month: time.March, Date: 9}
	if got := d.Weekday(tokyo); got != time.Monday {
		t.Errorf("expected Monday in Tokyo, got %v", got)
	}
	if got := d.Weekday(time.UTC); got != time.Monday {
		t.Errorf("expected Monday in UTC, got %v", got)
	}
}

func TestLocalWeekdayAndClockNearMidnight(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// 2026-03-10 02:00 UTC is still Monday evening 2026-03-09 in New York.
	instant := time.Date(2026, time.March, 10, 2, 0, 0, 0, time.UTC)

	weekday, hour, minute := LocalWeekdayAndClock(instant, ny)
	if weekday != time.Monday {
		t.Errorf("expected Monday local weekday, got %v", weekday)
	}
	if hour != 22 || minute != 0 {
		t.Errorf("expected 22:00 local, got %02d:%02d", hour, minute)
	}
}

func TestDayAtAppliesPerDateOffset(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// US clocks spring forward on 2026-03-08: 09:00 local is UTC-5 the
	// day before and UTC-4 the day after.
	before := Day{Year: 2026, Month: time.March, Date: 7}.At(9, 0, ny)
	after := Day{Year: 2026, Month: time.March, Date: 8}.At(9, 0, ny)

	if got := before.Hour(); got != 14 {
		t.Errorf("expected 14:00 UTC before transition, got %02d:00", got)
	}
	if got := after.Hour(); got != 13 {
		t.Errorf("expected 13:00 UTC after transition, got %02d:00", got)
	}
}

func TestDayBoundsAcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// Spring-forward day is 23 hours long, fall-back day is 25.
	start, end := Day{Year: 2026, Month: time.March, Date: 8}.Bounds(ny)
	if got := end.Sub(start); got != 23*time.Hour {
		t.Errorf("expected 23h spring-forward day, got %s", got)
	}

	start, end = Day{Year: 2026, Month: time.November, Date: 1}.Bounds(ny)
	if got := end.Sub(start); got != 25*time.Hour {
		t.Errorf("expected 25h fall-back day, got %s", got)
	}

	start, end = Day{Year: 2026, Month: time.June, Date: 15}.Bounds(ny)
	if got := end.Sub(start); got != 24*time.Hour {
		t.Errorf("expected 24h ordinary day, got %s", got)
	}
}

func TestDayOfRoundTrip(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	d := Day{Year: 2026, Month: time.March, Date: 9}
	instant := d.At(9, 30, ny)

	if got := DayOf(instant, ny); got != d {
		t.Errorf("expected %v, got %v", d, got)
	}
	// The same instant is already March 9 in UTC too (14:30Z).
	if got := DayOf(instant, time.UTC); got != d {
		t.Errorf("expected %v in UTC, got %v", d, got)
	}
}
