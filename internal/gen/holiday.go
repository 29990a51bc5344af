package gen

import (
	"time"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/event"
)

// HolidayRuleKind selects how a holiday rule matches calendar dates.
type HolidayRuleKind string

const (
	// RuleFixed matches a fixed month/day every year (e.g. July 4).
	RuleFixed HolidayRuleKind = "fixed"
	// RuleNthWeekday matches the nth weekday of a month (e.g. 4th Thursday
	// of November).
	RuleNthWeekday HolidayRuleKind = "nth_weekday"
	// RuleLastWeekday matches the final weekday of a month (e.g. last
	// Monday of May).
	RuleLastWeekday HolidayRuleKind = "last_weekday"
	// RuleRange matches an inclusive month/day span, wrapping year-end when
	// the end precedes the start (e.g. Dec 20 - Jan 2).
	RuleRange HolidayRuleKind = "range"
)

// MonthDay is a recurring calendar position without a year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// HolidayRule is the date-matching half of a holiday definition.
type HolidayRule struct {
	Kind    HolidayRuleKind
	Month   time.Month
	Day     int
	Weekday time.Weekday
	Nth     int
	Start   MonthDay
	End     MonthDay
}

// Matches reports whether the rule covers the given day.
func (r HolidayRule) Matches(day time.Time) bool {
	switch r.Kind {
	case RuleFixed:
		return day.Month() == r.Month && day.Day() == r.Day

	case RuleNthWeekday:
		if day.Month() != r.Month {
			return false
		}
		match, ok := dates.NthWeekday(day.Year(), r.Month, r.Weekday, r.Nth)
		return ok && match.Day() == day.Day()

	case RuleLastWeekday:
		if day.Month() != r.Month {
			return false
		}
		return dates.LastWeekday(day.Year(), r.Month, r.Weekday).Day() == day.Day()

	case RuleRange:
		start := dates.New(day.Year(), r.Start.Month, r.Start.Day)
		end := dates.New(day.Year(), r.End.Month, r.End.Day)
		d := dates.Day(day)
		if !end.Before(start) {
			return !d.Before(start) && !d.After(end)
		}
		// Wraps year-end.
		return !d.Before(start) || !d.After(end)
	}
	return false
}

// Holiday pairs a matching rule with per-business activity modifiers. A
// modifier of zero closes the business for the day; values above one boost
// it. Businesses without an entry use DefaultModifier (or 1 when that is
// also unset).
type Holiday struct {
	Name            string
	Rule            HolidayRule
	DefaultModifier float64
	Modifiers       map[event.BusinessKey]float64
}

// ModifierFor returns the activity modifier for a business on this holiday.
func (h Holiday) ModifierFor(key event.BusinessKey) float64 {
	if m, ok := h.Modifiers[key]; ok {
		return m
	}
	if h.DefaultModifier != 0 {
		return h.DefaultModifier
	}
	return 1
}

// DefaultHolidays is the stock US holiday calendar. Service businesses
// mostly close on major holidays; the restaurant sees boosts around
// Valentine's Day, Thanksgiving eve, and the year-end stretch.
func DefaultHolidays() []Holiday {
	return []Holiday{
		{
			Name:            "New Year's Day",
			Rule:            HolidayRule{Kind: RuleFixed, Month: time.January, Day: 1},
			DefaultModifier: 0.2,
			Modifiers:       map[event.BusinessKey]float64{"chen": 0, "maya": 0},
		},
		{
			Name:            "Memorial Day",
			Rule:            HolidayRule{Kind: RuleLastWeekday, Month: time.May, Weekday: time.Monday},
			DefaultModifier: 0.4,
			Modifiers:       map[event.BusinessKey]float64{"chen": 0, "tony": 1.3},
		},
		{
			Name:            "Independence Day",
			Rule:            HolidayRule{Kind: RuleFixed, Month: time.July, Day: 4},
			DefaultModifier: 0.3,
			Modifiers:       map[event.BusinessKey]float64{"chen": 0, "tony": 1.2},
		},
		{
			Name:            "Labor Day",
			Rule:            HolidayRule{Kind: RuleNthWeekday, Month: time.September, Weekday: time.Monday, Nth: 1},
			DefaultModifier: 0.4,
			Modifiers:       map[event.BusinessKey]float64{"chen": 0, "tony": 1.2},
		},
		{
			Name:            "Valentine's Day",
			Rule:            HolidayRule{Kind: RuleFixed, Month: time.February, Day: 14},
			DefaultModifier: 1,
			Modifiers:       map[event.BusinessKey]float64{"tony": 1.6},
		},
		{
			Name:            "Thanksgiving",
			Rule:            HolidayRule{Kind: RuleNthWeekday, Month: time.November, Weekday: time.Thursday, Nth: 4},
			DefaultModifier: 0.1,
			Modifiers:       map[event.BusinessKey]float64{"chen": 0, "maya": 0, "marcus": 0},
		},
		{
			Name: "Holiday season",
			Rule: HolidayRule{
				Kind:  RuleRange,
				Start: MonthDay{Month: time.December, Day: 20},
				End:   MonthDay{Month: time.January, Day: 2},
			},
			DefaultModifier: 0.6,
			Modifiers:       map[event.BusinessKey]float64{"tony": 1.2},
		},
		{
			Name:            "Christmas Day",
			Rule:            HolidayRule{Kind: RuleFixed, Month: time.December, Day: 25},
			DefaultModifier: 0,
		},
	}
}
