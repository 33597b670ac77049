package domain

import (
	"testing"
	"time"
)

// helper: build a time at the given local wall clock and return its UTC
func mustLocalUTC(t *testing.T, offset string, y int, m time.Month, d, hh, mm, ss, ms int) time.Time {
	t.Helper()
	loc, err := ParseOffset(offset)
	if err != nil {
		t.Fatalf("parse offset: %v", err)
	}
	lt := time.Date(y, m, d, hh, mm, ss, ms*int(time.Millisecond), loc)
	return lt.UTC()
}

func mustOffset(t *testing.T, s string) *time.Location {
	t.Helper()
	loc, err := ParseOffset(s)
	if err != nil {
		t.Fatalf("parse offset: %v", err)
	}
	return loc
}

func TestWindowFor_WIBAcrossUTCDate(t *testing.T) {
	loc := mustOffset(t, "+07:00")
	// 2025-03-10 20:00 UTC is already 2025-03-11 03:00 WIB
	ref := time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC)
	w := WindowFor(ref, loc)

	if w.Key != "2025-03-11" {
		t.Fatalf("want key 2025-03-11, got %s", w.Key)
	}
	wantStart := time.Date(2025, time.March, 10, 17, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Fatalf("want start %s, got %s", wantStart, w.Start)
	}
	wantEnd := time.Date(2025, time.March, 11, 16, 59, 59, int(999*time.Millisecond), time.UTC)
	if !w.End.Equal(wantEnd) {
		t.Fatalf("want end %s, got %s", wantEnd, w.End)
	}
}

func TestWindowFor_Boundaries(t *testing.T) {
	loc := mustOffset(t, "+07:00")
	w := WindowFor(mustLocalUTC(t, "+07:00", 2025, time.May, 5, 12, 0, 0, 0), loc)

	midnight := mustLocalUTC(t, "+07:00", 2025, time.May, 5, 0, 0, 0, 0)
	if !w.Contains(midnight) {
		t.Fatalf("local 00:00:00.000 must belong to the day")
	}
	last := mustLocalUTC(t, "+07:00", 2025, time.May, 5, 23, 59, 59, 999)
	if !w.Contains(last) {
		t.Fatalf("local 23:59:59.999 must belong to the day")
	}
	next := mustLocalUTC(t, "+07:00", 2025, time.May, 6, 0, 0, 0, 0)
	if w.Contains(next) {
		t.Fatalf("next local midnight must not belong to the day")
	}
	if got := WindowFor(next, loc).Key; got != "2025-05-06" {
		t.Fatalf("want next key 2025-05-06, got %s", got)
	}
}

func TestWindowFor_BoundaryInstantsShareKey(t *testing.T) {
	loc := mustOffset(t, "+07:00")
	a := WindowFor(mustLocalUTC(t, "+07:00", 2025, time.May, 5, 0, 0, 0, 0), loc)
	b := WindowFor(mustLocalUTC(t, "+07:00", 2025, time.May, 5, 23, 59, 59, 999), loc)
	if a != b {
		t.Fatalf("windows differ: %+v vs %+v", a, b)
	}
}

func TestWindowFor_IndependentOfRefZone(t *testing.T) {
	loc := mustOffset(t, "+07:00")
	ref := time.Date(2025, time.May, 5, 18, 30, 0, 0, time.UTC)
	other := ref.In(time.FixedZone("elsewhere", -5*3600))
	if WindowFor(ref, loc) != WindowFor(other, loc) {
		t.Fatalf("window must not depend on the zone of the reference instant")
	}
}

func TestDayWindow_Next(t *testing.T) {
	loc := mustOffset(t, "+07:00")
	w := WindowFor(mustLocalUTC(t, "+07:00", 2024, time.December, 31, 9, 0, 0, 0), loc)
	n := w.Next(loc)
	if n.Key != "2025-01-01" {
		t.Fatalf("want 2025-01-01, got %s", n.Key)
	}
	if !n.Start.Equal(w.End.Add(time.Millisecond)) {
		t.Fatalf("next window must start right after current end")
	}
}

func TestParseOffset(t *testing.T) {
	cases := []struct {
		in      string
		wantSec int
		wantErr bool
	}{
		{"+07:00", 7 * 3600, false},
		{"+0700", 7 * 3600, false},
		{"-03:30", -(3*3600 + 30*60), false},
		{"Z", 0, false},
		{"UTC", 0, false},
		{"Asia/Jakarta", 0, true},
		{"+7", 0, true},
		{"+14:00", 14 * 3600, false},
		{"-14:00", -14 * 3600, false},
		{"+14:30", 0, true},
		{"+14:59", 0, true},
		{"+15:00", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		loc, err := ParseOffset(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.in, err)
		}
		_, off := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
		if off != c.wantSec {
			t.Fatalf("%q: want offset %d, got %d", c.in, c.wantSec, off)
		}
	}
}
