// Package recurring schedules fixed calendar-based bills: rent, insurance,
// software subscriptions, and anything else that fires on a known day of
// the month, optionally anchored to an anniversary with a multi-month
// interval.
package recurring

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/econ"
	"github.com/atlastown/bizsim/internal/event"
)

// Spec is one recurring bill.
type Spec struct {
	Name   string
	Vendor string
	Amount decimal.Decimal

	// DayOfMonth is the calendar day the bill fires on.
	DayOfMonth int

	// AnniversaryDate anchors multi-month intervals; without it an
	// IntervalMonths above 1 never fires.
	AnniversaryDate time.Time

	Category       string
	IntervalMonths int // 0 and 1 both mean monthly
}

// Due reports whether the spec fires on the given date.
func (s *Spec) Due(day time.Time) bool {
	if day.Day() != s.DayOfMonth {
		return false
	}
	if !s.AnniversaryDate.IsZero() {
		monthsDelta := (day.Year()-s.AnniversaryDate.Year())*12 +
			int(day.Month()) - int(s.AnniversaryDate.Month())
		if monthsDelta < 0 {
			return false
		}
		if s.IntervalMonths > 1 && monthsDelta%s.IntervalMonths != 0 {
			return false
		}
	} else if s.IntervalMonths > 1 {
		return false
	}
	return true
}

type specKey struct {
	business event.BusinessKey
	name     string
}

// Scheduler emits due recurring bills at most once per calendar month each.
//
// Not safe for concurrent use.
type Scheduler struct {
	specs         map[event.BusinessKey][]Spec
	inflation     econ.InflationModel
	lastGenerated map[specKey]time.Time
	logger        *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInflation sets the model applied to bill amounts.
func WithInflation(m econ.InflationModel) Option {
	return func(s *Scheduler) { s.inflation = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New builds a Scheduler over the given specs.
func New(specs map[event.BusinessKey][]Spec, opts ...Option) *Scheduler {
	s := &Scheduler{
		specs:         specs,
		inflation:     econ.Disabled(),
		lastGenerated: map[specKey]time.Time{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "recurring_scheduler")
	return s
}

// GenerateDaily returns the recurring bills due on the given date for one
// business. An exact vendor name match is preferred; otherwise the bill
// falls back to the first vendor rather than dropping silently.
func (s *Scheduler) GenerateDaily(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) []event.GeneratedTransaction {
	day = dates.Day(day)
	var txs []event.GeneratedTransaction
	for i := range s.specs[key] {
		spec := &s.specs[key][i]
		if !spec.Due(day) {
			continue
		}
		sk := specKey{key, spec.Name}
		if last, ok := s.lastGenerated[sk]; ok &&
			last.Year() == day.Year() && last.Month() == day.Month() {
			continue
		}

		var vendorID *uuid.UUID
		if p := event.FindPartyByName(vendors, spec.Vendor); p != nil {
			id := p.ID
			vendorID = &id
		} else if len(vendors) > 0 {
			s.logger.Warn("recurring vendor not found, using first vendor",
				"business", key, "name", spec.Name, "vendor", spec.Vendor)
			id := vendors[0].ID
			vendorID = &id
		}
		if vendorID == nil {
			s.logger.Warn("recurring bill dropped, no vendors",
				"business", key, "name", spec.Name)
			continue
		}

		description := spec.Name
		if spec.Category != "" {
			description = spec.Name + " (" + spec.Category + ")"
		}
		txs = append(txs, event.GeneratedTransaction{
			Type:        event.TypeBill,
			Description: description,
			Amount:      s.inflation.Apply(spec.Amount, day),
			VendorID:    vendorID,
			Metadata: map[string]any{
				"recurring_name": spec.Name,
				"vendor_name":    spec.Vendor,
				"category":       spec.Category,
			},
		})
		s.lastGenerated[sk] = day
	}
	return txs
}
