// Package econ holds economy-wide scaling models. Today that is inflation:
// a pure, stateless function from calendar date to a monetary factor that
// every generator applies to its drawn amounts.
package econ

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
)

// InflationModel scales monetary amounts over simulated time. A rate of zero
// or a date at or before StartDate always yields a factor of exactly 1: no
// inflation is ever silently applied before activation.
type InflationModel struct {
	AnnualRate decimal.Decimal
	StartDate  time.Time
}

// Disabled returns a model that never adjusts amounts.
func Disabled() InflationModel {
	return InflationModel{AnnualRate: decimal.Zero, StartDate: dates.New(9999, time.December, 31)}
}

// New builds a model with the given annual rate active from startDate.
func New(annualRate decimal.Decimal, startDate time.Time) InflationModel {
	return InflationModel{AnnualRate: annualRate, StartDate: dates.Day(startDate)}
}

// Enabled reports whether the model can ever produce a factor above 1.
func (m InflationModel) Enabled() bool {
	return m.AnnualRate.IsPositive()
}

// FactorFor returns the compounded inflation factor for the given date.
func (m InflationModel) FactorFor(day time.Time) decimal.Decimal {
	day = dates.Day(day)
	if !m.AnnualRate.IsPositive() || !day.After(m.StartDate) {
		return decimal.NewFromInt(1)
	}
	days := day.Sub(m.StartDate).Hours() / 24
	years := days / 365.0
	rate, _ := m.AnnualRate.Float64()
	return decimal.NewFromFloat(math.Pow(1.0+rate, years))
}

// Apply scales a monetary amount by the factor for the given date and rounds
// half-up to cents. Non-positive amounts pass through untouched.
func (m InflationModel) Apply(amount decimal.Decimal, day time.Time) decimal.Decimal {
	if !amount.IsPositive() {
		return amount
	}
	return amount.Mul(m.FactorFor(day)).Round(2)
}

// AnnualMultiplier returns 1 + annual rate, the year-over-year step applied
// on anniversaries.
func (m InflationModel) AnnualMultiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(m.AnnualRate)
}

// IsAnniversary reports whether the date is an activation anniversary.
func (m InflationModel) IsAnniversary(day time.Time) bool {
	if day.Before(m.StartDate) {
		return false
	}
	return day.Month() == m.StartDate.Month() && day.Day() == m.StartDate.Day()
}
