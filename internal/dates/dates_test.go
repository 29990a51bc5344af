package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyAndParseRoundTrip(t *testing.T) {
	day := New(2025, time.March, 7)
	assert.Equal(t, "2025-03-07", Key(day))

	parsed, ok := Parse("2025-03-07")
	require.True(t, ok)
	assert.Equal(t, day, parsed)

	_, ok = Parse("03/07/2025")
	assert.False(t, ok)
}

func TestDayDropsClockAndZone(t *testing.T) {
	zone := time.FixedZone("plus5", 5*3600)
	noisy := time.Date(2025, time.March, 7, 23, 41, 9, 12, zone)
	assert.Equal(t, New(2025, time.March, 7), Day(noisy))
}

func TestQuarterBoundaries(t *testing.T) {
	tests := []struct {
		day     time.Time
		quarter int
	}{
		{New(2025, time.January, 1), 1},
		{New(2025, time.March, 31), 1},
		{New(2025, time.April, 1), 2},
		{New(2025, time.September, 30), 3},
		{New(2025, time.October, 1), 4},
		{New(2025, time.December, 31), 4},
	}
	for _, tt := range tests {
		year, quarter := Quarter(tt.day)
		assert.Equal(t, 2025, year, Key(tt.day))
		assert.Equal(t, tt.quarter, quarter, Key(tt.day))
	}
}

func TestDaysInHandlesLeapYears(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2025, time.February))
	assert.Equal(t, 31, DaysIn(2025, time.December))
}

func TestClampDay(t *testing.T) {
	feb := New(2025, time.February, 10)
	assert.Equal(t, 28, ClampDay(31, feb))
	assert.Equal(t, 15, ClampDay(15, feb))
	assert.Equal(t, 1, ClampDay(0, feb))
}

func TestNthWeekday(t *testing.T) {
	// Thanksgiving 2025: fourth Thursday of November.
	day, ok := NthWeekday(2025, time.November, time.Thursday, 4)
	require.True(t, ok)
	assert.Equal(t, New(2025, time.November, 27), day)

	_, ok = NthWeekday(2025, time.November, time.Thursday, 5)
	assert.False(t, ok)
}

func TestLastWeekday(t *testing.T) {
	// Memorial Day 2025: last Monday of May.
	assert.Equal(t, New(2025, time.May, 26), LastWeekday(2025, time.May, time.Monday))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(New(2025, time.March, 1)))  // Saturday
	assert.True(t, IsWeekend(New(2025, time.March, 2)))  // Sunday
	assert.False(t, IsWeekend(New(2025, time.March, 3))) // Monday
}

func TestISOWeekKeyStableAcrossYearBoundary(t *testing.T) {
	// Dec 29 2025 and Jan 1 2026 share ISO week 2026-W01.
	y1, w1 := ISOWeekKey(New(2025, time.December, 29))
	y2, w2 := ISOWeekKey(New(2026, time.January, 1))
	assert.Equal(t, y1, y2)
	assert.Equal(t, w1, w2)
}

func TestWeekdayFromName(t *testing.T) {
	wd, ok := WeekdayFromName("friday")
	require.True(t, ok)
	assert.Equal(t, time.Friday, wd)

	_, ok = WeekdayFromName("Friday")
	assert.False(t, ok)
}
