package gen

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/event"
)

// HourRange restricts a pattern to a window of clock hours. The range is
// half-open [Start, End) and may wrap past midnight (e.g. 21-2 for a
// late-night window).
type HourRange struct {
	Start int
	End   int
}

// Contains reports whether the hour falls inside the window.
func (r HourRange) Contains(hour int) bool {
	if r.Start <= r.End {
		return hour >= r.Start && hour < r.End
	}
	return hour >= r.Start || hour < r.End
}

// Pattern is an immutable template describing one recurring kind of activity
// for a business: what fires, how often, and for how much.
//
// Probability axes stack multiplicatively because each is an independent
// real-world driver (a landscaper is busier on a June weekend for two
// separate reasons); the combined probability is clamped to [0, 1] before
// the draw.
type Pattern struct {
	Type                event.Type
	DescriptionTemplate string
	MinAmount           decimal.Decimal
	MaxAmount           decimal.Decimal

	// Probability is the base chance of firing on any given day, in [0, 1].
	Probability float64

	// WeekdayOnly skips Saturdays and Sundays entirely.
	WeekdayOnly bool

	// WeekendBoost multiplies the probability on Sat/Sun. Zero means unset
	// and is treated as 1.
	WeekendBoost float64

	// PhaseMultipliers adjusts probability per day phase; missing phases
	// default to 1.
	PhaseMultipliers map[event.Phase]float64

	// ActiveHours restricts the pattern to a clock-hour window when the
	// caller supplies an hour.
	ActiveHours *HourRange

	// SeasonalMultipliers, when it has an entry for the current month,
	// overrides the business-wide seasonality for this pattern only.
	SeasonalMultipliers map[time.Month]float64
}

func (p *Pattern) weekendBoost() float64 {
	if p.WeekendBoost == 0 {
		return 1
	}
	return p.WeekendBoost
}

func (p *Pattern) phaseMultiplier(phase event.Phase) float64 {
	if phase == "" || p.PhaseMultipliers == nil {
		return 1
	}
	if m, ok := p.PhaseMultipliers[phase]; ok {
		return m
	}
	return 1
}

// seasonalMultiplier resolves the month multiplier for a pattern as an
// explicit ordered lookup: pattern-level override, then business-wide
// seasonality, then identity. The ordering is the precedence rule; keep it
// a flat chain so it stays auditable.
func seasonalMultiplier(
	pattern *Pattern,
	business map[time.Month]float64,
	month time.Month,
) float64 {
	lookups := []map[time.Month]float64{pattern.SeasonalMultipliers, business}
	for _, table := range lookups {
		if table == nil {
			continue
		}
		if m, ok := table[month]; ok {
			return m
		}
	}
	return 1
}
