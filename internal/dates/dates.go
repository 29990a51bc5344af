// Package dates holds the calendar arithmetic shared by the schedulers:
// stable date keys for idempotency maps, month/quarter boundaries, and the
// weekday rules used by payroll and holiday matching.
package dates

import "time"

// Layout is the canonical date key layout. Every "seen" map in the engine
// keys by this representation so repeated queries for the same calendar day
// collide regardless of clock or zone noise on the input time.
const Layout = "2006-01-02"

// Key returns the canonical string key for a calendar day.
func Key(t time.Time) string {
	return t.Format(Layout)
}

// Day truncates a time to midnight UTC, the engine's canonical day value.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// New builds a canonical day value.
func New(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Parse parses a canonical date key. The zero time and false are returned
// for malformed input.
func Parse(s string) (time.Time, bool) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsWeekend reports whether the day is a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Quarter returns the calendar year and quarter (1-4) containing the day.
func Quarter(t time.Time) (year, quarter int) {
	return t.Year(), (int(t.Month())-1)/3 + 1
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay clamps a configured day-of-month into the month containing t, so
// "pay on the 31st" lands on Feb 28 rather than skipping the month.
func ClampDay(day int, t time.Time) int {
	last := DaysIn(t.Year(), t.Month())
	if day < 1 {
		return 1
	}
	if day > last {
		return last
	}
	return day
}

// NthWeekday returns the date of the nth (1-based) occurrence of a weekday in
// the given month, or false when the month has no such occurrence.
func NthWeekday(year int, month time.Month, weekday time.Weekday, nth int) (time.Time, bool) {
	first := New(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (nth-1)*7
	if nth < 1 || day > DaysIn(year, month) {
		return time.Time{}, false
	}
	return New(year, month, day), true
}

// LastWeekday returns the date of the final occurrence of a weekday in the
// given month.
func LastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := New(year, month, DaysIn(year, month))
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// ISOWeekKey returns a stable composite key for the ISO week containing the
// day. Used by the inventory reorder dedup window.
func ISOWeekKey(t time.Time) (year, week int) {
	return t.ISOWeek()
}

// WeekdayFromName maps a lowercase English weekday name to time.Weekday.
func WeekdayFromName(name string) (time.Weekday, bool) {
	switch name {
	case "sunday":
		return time.Sunday, true
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	}
	return 0, false
}
