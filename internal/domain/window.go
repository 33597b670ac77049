package domain

import "time"

// DayKeyLayout is the layout of a day identity key.
const DayKeyLayout = "2006-01-02"

// DayWindow bounds one local calendar day. Both ends are inclusive and are
// expressed in UTC, the store's instant format.
type DayWindow struct {
	Start time.Time
	End   time.Time
	Key   string // local date, YYYY-MM-DD
}

// WindowFor returns the local calendar day containing ref. The result depends
// only on ref and loc, never on the process time zone.
func WindowFor(ref time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := ref.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	// AddDate keeps the boundary at local midnight even for zones with
	// transitions; for fixed offsets it is exactly 24h.
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return DayWindow{
		Start: start.UTC(),
		End:   end.UTC(),
		Key:   start.Format(DayKeyLayout),
	}
}

// Contains reports whether t falls inside the closed window.
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Next returns the window of the following local day.
func (w DayWindow) Next(loc *time.Location) DayWindow {
	return WindowFor(w.End.Add(time.Millisecond), loc)
}
