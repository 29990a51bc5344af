package event

// Phase names one slice of a simulated business day. Patterns may carry
// per-phase probability multipliers keyed by these names.
type Phase string

const (
	PhaseEarlyMorning Phase = "early_morning" // 6:00 - 8:00: prep, planning
	PhaseMorning      Phase = "morning"       // 8:00 - 12:00: business opens
	PhaseLunch        Phase = "lunch"         // 12:00 - 13:00: mid-day lull
	PhaseAfternoon    Phase = "afternoon"     // 13:00 - 17:00: peak business
	PhaseEvening      Phase = "evening"       // 17:00 - 20:00: wind down
	PhaseNight        Phase = "night"         // 20:00 - 6:00: closed, processing
)

// PhaseHours maps each phase to its [start, end) hour boundaries. The night
// phase wraps past midnight.
var PhaseHours = map[Phase][2]int{
	PhaseEarlyMorning: {6, 8},
	PhaseMorning:      {8, 12},
	PhaseLunch:        {12, 13},
	PhaseAfternoon:    {13, 17},
	PhaseEvening:      {17, 20},
	PhaseNight:        {20, 6},
}

// phaseOrder keeps lookups deterministic; map iteration order is not.
var phaseOrder = []Phase{
	PhaseEarlyMorning,
	PhaseMorning,
	PhaseLunch,
	PhaseAfternoon,
	PhaseEvening,
	PhaseNight,
}

// Valid reports whether p names a known day phase.
func (p Phase) Valid() bool {
	_, ok := PhaseHours[p]
	return ok
}

// Hours returns the clock hours covered by the phase, in chronological order.
// A wrapping phase lists its pre-midnight hours first.
func (p Phase) Hours() []int {
	bounds, ok := PhaseHours[p]
	if !ok {
		return nil
	}
	start, end := bounds[0], bounds[1]
	if start <= end {
		hours := make([]int, 0, end-start)
		for h := start; h < end; h++ {
			hours = append(hours, h)
		}
		return hours
	}
	hours := make([]int, 0, (24-start)+end)
	for h := start; h < 24; h++ {
		hours = append(hours, h)
	}
	for h := 0; h < end; h++ {
		hours = append(hours, h)
	}
	return hours
}

// PhaseForHour returns the phase containing the given hour (0-23).
func PhaseForHour(hour int) Phase {
	for _, p := range phaseOrder {
		bounds := PhaseHours[p]
		start, end := bounds[0], bounds[1]
		if start <= end {
			if hour >= start && hour < end {
				return p
			}
		} else if hour >= start || hour < end {
			return p
		}
	}
	return PhaseNight
}
