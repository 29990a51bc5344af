package gen

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/event"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultPatterns maps each business to its stock transaction patterns,
// used when a persona does not declare its own.
func DefaultPatterns() map[event.BusinessKey][]Pattern {
	return map[event.BusinessKey][]Pattern{
		// Landscaping services.
		"craig": {
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Lawn maintenance - {location}",
				MinAmount:           amt("75.00"),
				MaxAmount:           amt("250.00"),
				Probability:         0.7,
				WeekdayOnly:         true,
			},
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Landscaping project - {project_type}",
				MinAmount:           amt("500.00"),
				MaxAmount:           amt("3500.00"),
				Probability:         0.3,
				WeekdayOnly:         true,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Plant supplies - {supplier}",
				MinAmount:           amt("150.00"),
				MaxAmount:           amt("800.00"),
				Probability:         0.4,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Equipment rental",
				MinAmount:           amt("100.00"),
				MaxAmount:           amt("400.00"),
				Probability:         0.2,
				WeekdayOnly:         true,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Fuel for vehicles",
				MinAmount:           amt("80.00"),
				MaxAmount:           amt("200.00"),
				Probability:         0.5,
			},
			{
				Type:                event.TypePaymentReceived,
				DescriptionTemplate: "Payment from {customer}",
				Probability:         0.4,
			},
		},
		// Pizzeria, with time-of-day phases for service periods.
		"tony": {
			{
				Type:                event.TypeCashSale,
				DescriptionTemplate: "Lunch service - pizza sales",
				MinAmount:           amt("400.00"),
				MaxAmount:           amt("1200.00"),
				Probability:         0.7,
				PhaseMultipliers: map[event.Phase]float64{
					event.PhaseMorning: 0.3, event.PhaseLunch: 1.5, event.PhaseAfternoon: 0.8,
				},
				ActiveHours: &HourRange{Start: 11, End: 14},
			},
			{
				Type:                event.TypeCashSale,
				DescriptionTemplate: "Dinner service - pizza sales",
				MinAmount:           amt("1200.00"),
				MaxAmount:           amt("3500.00"),
				Probability:         0.95,
				WeekendBoost:        1.4,
				PhaseMultipliers:    map[event.Phase]float64{event.PhaseEvening: 2.5},
				ActiveHours:         &HourRange{Start: 17, End: 21},
			},
			{
				Type:                event.TypeCashSale,
				DescriptionTemplate: "Late night - pizza sales",
				MinAmount:           amt("600.00"),
				MaxAmount:           amt("1800.00"),
				Probability:         0.6,
				WeekendBoost:        1.8,
				PhaseMultipliers:    map[event.Phase]float64{event.PhaseNight: 1.5},
				ActiveHours:         &HourRange{Start: 21, End: 24},
			},
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Catering order - {event_type}",
				MinAmount:           amt("200.00"),
				MaxAmount:           amt("1200.00"),
				Probability:         0.4,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Food supplies - {supplier}",
				MinAmount:           amt("400.00"),
				MaxAmount:           amt("1500.00"),
				Probability:         0.6,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Beverage inventory",
				MinAmount:           amt("150.00"),
				MaxAmount:           amt("500.00"),
				Probability:         0.3,
			},
			{
				Type:                event.TypePaymentReceived,
				DescriptionTemplate: "Payment from {customer}",
				Probability:         0.5,
			},
		},
		// Tech consulting: high value, lower volume.
		"maya": {
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "IT consulting - {hours} hours",
				MinAmount:           amt("800.00"),
				MaxAmount:           amt("4800.00"),
				Probability:         0.5,
				WeekdayOnly:         true,
			},
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Website development - {client}",
				MinAmount:           amt("2000.00"),
				MaxAmount:           amt("8000.00"),
				Probability:         0.2,
				WeekdayOnly:         true,
			},
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Monthly retainer - {client}",
				MinAmount:           amt("1500.00"),
				MaxAmount:           amt("5000.00"),
				Probability:         0.15,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Cloud services - AWS/Azure",
				MinAmount:           amt("100.00"),
				MaxAmount:           amt("500.00"),
				Probability:         0.1,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Software subscription",
				MinAmount:           amt("50.00"),
				MaxAmount:           amt("300.00"),
				Probability:         0.1,
			},
			{
				Type:                event.TypePaymentReceived,
				DescriptionTemplate: "Payment from {customer}",
				Probability:         0.3,
			},
		},
		// Dental practice.
		"chen": {
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Dental cleaning and exam - {patient}",
				MinAmount:           amt("150.00"),
				MaxAmount:           amt("350.00"),
				Probability:         0.8,
				WeekdayOnly:         true,
			},
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Dental procedure - {procedure}",
				MinAmount:           amt("300.00"),
				MaxAmount:           amt("2500.00"),
				Probability:         0.4,
				WeekdayOnly:         true,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Dental supplies - {supplier}",
				MinAmount:           amt("200.00"),
				MaxAmount:           amt("1200.00"),
				Probability:         0.3,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Lab services - {lab}",
				MinAmount:           amt("100.00"),
				MaxAmount:           amt("600.00"),
				Probability:         0.2,
			},
			{
				Type:                event.TypePaymentReceived,
				DescriptionTemplate: "Insurance payment - {payer}",
				Probability:         0.6,
			},
			{
				Type:                event.TypePaymentReceived,
				DescriptionTemplate: "Patient payment - {patient}",
				Probability:         0.4,
			},
		},
		// Real estate: low volume, high value.
		"marcus": {
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Commission - {property_address}",
				MinAmount:           amt("5000.00"),
				MaxAmount:           amt("25000.00"),
				Probability:         0.15,
			},
			{
				Type:                event.TypeInvoice,
				DescriptionTemplate: "Referral fee",
				MinAmount:           amt("500.00"),
				MaxAmount:           amt("2000.00"),
				Probability:         0.1,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "MLS subscription",
				MinAmount:           amt("299.00"),
				MaxAmount:           amt("299.00"),
				Probability:         0.03,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Marketing materials",
				MinAmount:           amt("200.00"),
				MaxAmount:           amt("1500.00"),
				Probability:         0.2,
			},
			{
				Type:                event.TypeBill,
				DescriptionTemplate: "Professional photography",
				MinAmount:           amt("150.00"),
				MaxAmount:           amt("400.00"),
				Probability:         0.25,
			},
			{
				Type:                event.TypePaymentReceived,
				DescriptionTemplate: "Commission payment",
				Probability:         0.2,
			},
		},
	}
}

// Built-in activity profiles for the stock town businesses. Persona
// configuration can extend or override any of these tables; months, days,
// and businesses not listed default to a multiplier of 1.

// DefaultSeasonality maps each business to month-specific activity
// multipliers. Values above 1 mean busier than average.
func DefaultSeasonality() map[event.BusinessKey]map[time.Month]float64 {
	return map[event.BusinessKey]map[time.Month]float64{
		// Landscaping: April-September high season, winter dormancy.
		"craig": {
			time.April: 1.5, time.May: 1.8, time.June: 2.0, time.July: 2.0,
			time.August: 1.8, time.September: 1.5,
			time.March: 1.0, time.October: 0.8, time.November: 0.6,
			time.December: 0.3, time.January: 0.2, time.February: 0.25,
		},
		// Pizzeria: slight holiday boost only.
		"tony": {
			time.November: 1.1, time.December: 1.15, time.February: 1.1,
		},
		// Tech consulting: Q4 budget spending, Q1 new initiatives.
		"maya": {
			time.January: 1.5, time.February: 1.4, time.October: 1.6,
			time.November: 1.8, time.December: 0.7,
		},
		// Dental: summer breaks and year-end insurance rush.
		"chen": {
			time.June: 1.5, time.July: 1.6, time.November: 1.7, time.December: 1.8,
			time.January: 0.5, time.February: 0.6,
		},
		// Real estate: spring/summer home-buying season.
		"marcus": {
			time.April: 1.4, time.May: 1.8, time.June: 2.0, time.July: 1.8,
			time.August: 1.5,
			time.March: 1.0, time.September: 1.0, time.October: 0.8,
			time.November: 0.4, time.December: 0.3, time.January: 0.25,
			time.February: 0.3,
		},
	}
}

// DefaultDayPatterns maps each business to day-of-week activity multipliers.
func DefaultDayPatterns() map[event.BusinessKey]map[time.Weekday]float64 {
	return map[event.BusinessKey]map[time.Weekday]float64{
		// Restaurant: Thu-Sat peaks, Mon-Wed slower.
		"tony": {
			time.Monday: 0.7, time.Tuesday: 0.8, time.Wednesday: 0.9,
			time.Thursday: 1.2, time.Friday: 1.3, time.Saturday: 1.5,
			time.Sunday: 0.9,
		},
		// Dental: Tue-Thu peak, Saturday limited, Sunday closed.
		"chen": {
			time.Monday: 0.9, time.Tuesday: 1.1, time.Wednesday: 1.2,
			time.Thursday: 1.1, time.Friday: 0.9, time.Saturday: 0.3,
			time.Sunday: 0.0,
		},
		// Real estate: Thu-Fri closings, weekend showings.
		"marcus": {
			time.Monday: 0.7, time.Tuesday: 0.9, time.Wednesday: 1.0,
			time.Thursday: 1.2, time.Friday: 1.3, time.Saturday: 1.4,
			time.Sunday: 1.2,
		},
		// Landscaping: Tue-Thu peak, weekends slow.
		"craig": {
			time.Monday: 0.9, time.Tuesday: 1.1, time.Wednesday: 1.2,
			time.Thursday: 1.1, time.Friday: 1.0, time.Saturday: 0.4,
			time.Sunday: 0.3,
		},
		// Tech consulting: Mon-Thu busy, Friday lighter.
		"maya": {
			time.Monday: 1.1, time.Tuesday: 1.2, time.Wednesday: 1.2,
			time.Thursday: 1.1, time.Friday: 0.8, time.Saturday: 0.2,
			time.Sunday: 0.1,
		},
	}
}

// DefaultTemplates is the sample substitution data for description
// templates like "Lawn maintenance - {location}".
func DefaultTemplates() map[string][]string {
	return map[string][]string{
		"location": {
			"Front yard", "Backyard", "Commercial property",
			"Apartment complex", "HOA common areas",
		},
		"project_type": {
			"Spring cleanup", "Mulching", "Tree trimming",
			"Irrigation install", "Patio installation",
		},
		"supplier":   {"Green Valley Nursery", "Home Depot", "Local supplier"},
		"event_type": {"Birthday party", "Corporate lunch", "School event", "Sports team"},
		"hours":      {"8", "16", "24", "32", "40"},
		"client":     {"Local business", "Startup", "Healthcare client", "Retail store"},
		"patient":    {"Smith family", "Garcia family", "New patient"},
		"procedure":  {"Filling", "Crown", "Root canal", "Extraction", "Whitening"},
		"lab":        {"Atlas Dental Lab", "Quality Dental Lab"},
		"payer":      {"BlueCross", "Delta Dental", "Aetna"},
		"property_address": {
			"123 Oak St", "456 Maple Ave", "789 Pine Rd", "321 Cedar Ln",
		},
		"customer": {"Customer payment"},
	}
}
