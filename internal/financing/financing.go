// Package financing schedules debt-servicing expenses: term loan interest,
// equipment financing (lease, purchase, or loan), and daily-accrued line of
// credit interest billed monthly.
//
// Every bill is idempotency-keyed by instrument and period, so replaying a
// date never double-bills.
package financing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/event"
)

var (
	twelve      = decimal.NewFromInt(12)
	daysPerYear = decimal.NewFromInt(365) // fixed-day convention, leap years included
	one         = decimal.NewFromInt(1)
)

// Equipment decision thresholds: expensive money or big-ticket equipment
// favors leasing over an outright purchase.
var (
	defaultRateThreshold      = decimal.NewFromFloat(0.08)
	defaultPrincipalThreshold = decimal.NewFromInt(50000)
)

// RateAdjustment changes an instrument's annual rate from a given date on.
type RateAdjustment struct {
	EffectiveDate time.Time
	Rate          decimal.Decimal
}

// rateFor resolves the rate in force on a date: the latest adjustment at or
// before it, else the base rate. Adjustments must be in ascending date order.
func rateFor(base decimal.Decimal, adjustments []RateAdjustment, day time.Time) decimal.Decimal {
	rate := base
	for _, adj := range adjustments {
		if adj.EffectiveDate.After(day) {
			break
		}
		rate = adj.Rate
	}
	return rate
}

// LoanSpec is a fixed-principal term loan billed monthly for interest only.
type LoanSpec struct {
	Name            string
	Principal       decimal.Decimal
	AnnualRate      decimal.Decimal
	TermMonths      int
	PaymentDay      int
	Lender          string
	LoanType        string // defaults to "term_loan"
	StartDate       time.Time
	RateAdjustments []RateAdjustment
}

// EquipmentDecision selects how a piece of equipment is financed.
type EquipmentDecision string

const (
	DecisionAuto     EquipmentDecision = "auto"
	DecisionLease    EquipmentDecision = "lease"
	DecisionPurchase EquipmentDecision = "purchase"
	DecisionLoan     EquipmentDecision = "loan"
)

// EquipmentSpec is an equipment financing arrangement. With DecisionAuto the
// scheduler resolves lease vs purchase from the rate and principal
// thresholds, so the outcome is a pure function of the spec.
type EquipmentSpec struct {
	Name               string
	Principal          decimal.Decimal
	AnnualRate         decimal.Decimal
	TermMonths         int
	PaymentDay         int
	Lender             string
	StartDate          time.Time
	RateAdjustments    []RateAdjustment
	Decision           EquipmentDecision
	RateThreshold      decimal.Decimal // zero means default
	PrincipalThreshold decimal.Decimal // zero means default
}

// BalanceEvent resets a line of credit's running balance on a date.
type BalanceEvent struct {
	EffectiveDate time.Time
	Balance       decimal.Decimal
}

// LineOfCreditSpec is a revolving credit line whose interest accrues daily
// on the running balance and bills once a month.
type LineOfCreditSpec struct {
	Name            string
	AnnualRate      decimal.Decimal
	Balance         decimal.Decimal
	BillingDay      int
	Lender          string
	StartDate       time.Time
	RateAdjustments []RateAdjustment
	BalanceEvents   []BalanceEvent
}

type instrumentKey struct {
	business event.BusinessKey
	name     string
}

type periodKey struct {
	business event.BusinessKey
	name     string
	year     int
	month    time.Month
}

// leaseState tracks a lease's declining balance between payments.
type leaseState struct {
	remainingBalance decimal.Decimal
	remainingTerms   int
}

// Scheduler emits the financing bills due each day.
//
// Not safe for concurrent use.
type Scheduler struct {
	loans     map[event.BusinessKey][]LoanSpec
	locs      map[event.BusinessKey][]LineOfCreditSpec
	equipment map[event.BusinessKey][]EquipmentSpec
	logger    *slog.Logger

	decisions         map[instrumentKey]EquipmentDecision
	leaseStates       map[instrumentKey]*leaseState
	leaseBilled       map[periodKey]bool
	purchaseRecorded  map[instrumentKey]bool
	loanBilled        map[periodKey]bool
	locBilled         map[periodKey]bool
	locAccrued        map[periodKey]decimal.Decimal
	locLastAccrual    map[instrumentKey]time.Time
	locRunningBalance map[instrumentKey]decimal.Decimal
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New builds a financing Scheduler over the given instruments.
func New(
	loans map[event.BusinessKey][]LoanSpec,
	locs map[event.BusinessKey][]LineOfCreditSpec,
	equipment map[event.BusinessKey][]EquipmentSpec,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		loans:     loans,
		locs:      locs,
		equipment: equipment,
		logger:    slog.Default(),

		decisions:         map[instrumentKey]EquipmentDecision{},
		leaseStates:       map[instrumentKey]*leaseState{},
		leaseBilled:       map[periodKey]bool{},
		purchaseRecorded:  map[instrumentKey]bool{},
		loanBilled:        map[periodKey]bool{},
		locBilled:         map[periodKey]bool{},
		locAccrued:        map[periodKey]decimal.Decimal{},
		locLastAccrual:    map[instrumentKey]time.Time{},
		locRunningBalance: map[instrumentKey]decimal.Decimal{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "financing_scheduler")
	return s
}

func findLender(name string, vendors []event.Party) *uuid.UUID {
	if p := event.FindPartyByName(vendors, name); p != nil {
		id := p.ID
		return &id
	}
	return nil
}

// paymentDue reports whether the instrument's monthly payment lands today,
// clamping the configured day into the current month.
func paymentDue(paymentDay int, startDate, day time.Time) bool {
	if !startDate.IsZero() && day.Before(startDate) {
		return false
	}
	return day.Day() == dates.ClampDay(paymentDay, day)
}

// decideEquipment resolves and pins the financing decision for a piece of
// equipment. Auto resolves from the thresholds alone, so two schedulers over
// the same specs always agree.
func (s *Scheduler) decideEquipment(key event.BusinessKey, spec *EquipmentSpec) EquipmentDecision {
	ik := instrumentKey{key, spec.Name}
	if existing, ok := s.decisions[ik]; ok {
		return existing
	}

	decision := EquipmentDecision(strings.ToLower(strings.TrimSpace(string(spec.Decision))))
	switch decision {
	case DecisionLease, DecisionPurchase, DecisionLoan:
	default:
		rateThreshold := spec.RateThreshold
		if rateThreshold.IsZero() {
			rateThreshold = defaultRateThreshold
		}
		principalThreshold := spec.PrincipalThreshold
		if principalThreshold.IsZero() {
			principalThreshold = defaultPrincipalThreshold
		}
		if spec.AnnualRate.GreaterThanOrEqual(rateThreshold) ||
			spec.Principal.GreaterThanOrEqual(principalThreshold) {
			decision = DecisionLease
		} else {
			decision = DecisionPurchase
		}
	}
	s.decisions[ik] = decision
	return decision
}

// amortizedPayment is the level monthly payment that retires the balance
// over the remaining term at the given annual rate.
func amortizedPayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return decimal.Zero
	}
	if !annualRate.IsPositive() {
		return principal.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	}
	monthlyRate := annualRate.Div(twelve)
	growth := one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(termMonths)))
	denominator := one.Sub(one.Div(growth))
	if denominator.IsZero() {
		return decimal.Zero
	}
	return principal.Mul(monthlyRate).Div(denominator).Round(2)
}

// GenerateDaily returns the financing bills due on the given date for one
// business.
func (s *Scheduler) GenerateDaily(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) []event.GeneratedTransaction {
	day = dates.Day(day)
	var txs []event.GeneratedTransaction
	txs = append(txs, s.loanInterest(key, day, vendors)...)
	txs = append(txs, s.equipmentPayments(key, day, vendors)...)
	txs = append(txs, s.locInterest(key, day, vendors)...)
	return txs
}

func (s *Scheduler) loanInterest(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) []event.GeneratedTransaction {
	var txs []event.GeneratedTransaction
	for i := range s.loans[key] {
		spec := &s.loans[key][i]
		if !paymentDue(spec.PaymentDay, spec.StartDate, day) {
			continue
		}
		pk := periodKey{key, spec.Name, day.Year(), day.Month()}
		if s.loanBilled[pk] {
			continue
		}
		vendorID := findLender(spec.Lender, vendors)
		if vendorID == nil {
			s.logger.Warn("loan lender not found, interest skipped",
				"business", key, "loan", spec.Name, "lender", spec.Lender)
			continue
		}
		rate := rateFor(spec.AnnualRate, spec.RateAdjustments, day)
		interest := spec.Principal.Mul(rate).Div(twelve).Round(2)
		if !interest.IsPositive() {
			continue
		}
		loanType := spec.LoanType
		if loanType == "" {
			loanType = "term_loan"
		}
		txs = append(txs, event.GeneratedTransaction{
			Type:        event.TypeBill,
			Description: "Loan interest - " + spec.Name,
			Amount:      interest,
			VendorID:    vendorID,
			Metadata: map[string]any{
				event.MetaFinancingType: loanType,
				"loan_name":             spec.Name,
				"annual_rate":           rate.String(),
			},
		})
		s.loanBilled[pk] = true
	}
	return txs
}

func (s *Scheduler) equipmentPayments(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) []event.GeneratedTransaction {
	var txs []event.GeneratedTransaction
	for i := range s.equipment[key] {
		spec := &s.equipment[key][i]
		decision := s.decideEquipment(key, spec)
		vendorID := findLender(spec.Lender, vendors)
		if vendorID == nil {
			s.logger.Warn("equipment lender not found, payment skipped",
				"business", key, "equipment", spec.Name, "lender", spec.Lender)
			continue
		}

		switch decision {
		case DecisionPurchase:
			if tx, ok := s.equipmentPurchase(key, spec, day, vendorID); ok {
				txs = append(txs, tx)
			}
		case DecisionLease:
			if tx, ok := s.leasePayment(key, spec, day, vendorID); ok {
				txs = append(txs, tx)
			}
		default: // loan
			if tx, ok := s.equipmentLoanInterest(key, spec, day, vendorID); ok {
				txs = append(txs, tx)
			}
		}
	}
	return txs
}

// equipmentPurchase books the one-time asset purchase bill.
func (s *Scheduler) equipmentPurchase(
	key event.BusinessKey,
	spec *EquipmentSpec,
	day time.Time,
	vendorID *uuid.UUID,
) (event.GeneratedTransaction, bool) {
	ik := instrumentKey{key, spec.Name}
	if s.purchaseRecorded[ik] {
		return event.GeneratedTransaction{}, false
	}
	var due bool
	if spec.StartDate.IsZero() {
		due = paymentDue(spec.PaymentDay, spec.StartDate, day)
	} else {
		due = !day.Before(spec.StartDate)
	}
	if !due {
		return event.GeneratedTransaction{}, false
	}
	amount := spec.Principal.Round(2)
	s.purchaseRecorded[ik] = true
	return event.GeneratedTransaction{
		Type:        event.TypeBill,
		Description: "Equipment purchase - " + spec.Name,
		Amount:      amount,
		VendorID:    vendorID,
		Metadata: map[string]any{
			event.MetaFinancingType: "equipment_purchase",
			"equipment_name":        spec.Name,
			"line_items": []map[string]string{{
				"description":  spec.Name + " purchase",
				"amount":       amount.String(),
				"account_hint": "equipment_asset",
			}},
		},
	}, true
}

// leasePayment books one amortized lease installment and advances the
// declining balance.
func (s *Scheduler) leasePayment(
	key event.BusinessKey,
	spec *EquipmentSpec,
	day time.Time,
	vendorID *uuid.UUID,
) (event.GeneratedTransaction, bool) {
	if !paymentDue(spec.PaymentDay, spec.StartDate, day) {
		return event.GeneratedTransaction{}, false
	}
	pk := periodKey{key, spec.Name, day.Year(), day.Month()}
	if s.leaseBilled[pk] {
		return event.GeneratedTransaction{}, false
	}
	ik := instrumentKey{key, spec.Name}
	state := s.leaseStates[ik]
	if state == nil {
		state = &leaseState{
			remainingBalance: spec.Principal,
			remainingTerms:   spec.TermMonths,
		}
		s.leaseStates[ik] = state
	}
	if state.remainingTerms <= 0 || !state.remainingBalance.IsPositive() {
		return event.GeneratedTransaction{}, false
	}

	rate := rateFor(spec.AnnualRate, spec.RateAdjustments, day)
	payment := amortizedPayment(state.remainingBalance, rate, state.remainingTerms)
	if !payment.IsPositive() {
		return event.GeneratedTransaction{}, false
	}
	interest := state.remainingBalance.Mul(rate.Div(twelve)).Round(2)
	principal := payment.Sub(interest).Round(2)
	if principal.IsNegative() {
		principal = decimal.Zero
	}

	tx := event.GeneratedTransaction{
		Type:        event.TypeBill,
		Description: "Equipment lease payment - " + spec.Name,
		Amount:      payment,
		VendorID:    vendorID,
		Metadata: map[string]any{
			event.MetaFinancingType: "equipment_lease",
			"equipment_name":        spec.Name,
			"annual_rate":           rate.String(),
			"interest_amount":       interest.String(),
			"principal_amount":      principal.String(),
			"line_items": []map[string]string{
				{
					"description":  "Interest expense - " + spec.Name,
					"amount":       interest.String(),
					"account_hint": "interest_expense",
				},
				{
					"description":  "Equipment principal - " + spec.Name,
					"amount":       principal.String(),
					"account_hint": "equipment_asset",
				},
			},
		},
	}
	state.remainingBalance = state.remainingBalance.Sub(principal).Round(2)
	state.remainingTerms--
	s.leaseBilled[pk] = true
	return tx, true
}

// equipmentLoanInterest books interest-only payments on equipment financed
// as a plain loan.
func (s *Scheduler) equipmentLoanInterest(
	key event.BusinessKey,
	spec *EquipmentSpec,
	day time.Time,
	vendorID *uuid.UUID,
) (event.GeneratedTransaction, bool) {
	if !paymentDue(spec.PaymentDay, spec.StartDate, day) {
		return event.GeneratedTransaction{}, false
	}
	pk := periodKey{key, spec.Name, day.Year(), day.Month()}
	if s.loanBilled[pk] {
		return event.GeneratedTransaction{}, false
	}
	rate := rateFor(spec.AnnualRate, spec.RateAdjustments, day)
	interest := spec.Principal.Mul(rate).Div(twelve).Round(2)
	if !interest.IsPositive() {
		return event.GeneratedTransaction{}, false
	}
	s.loanBilled[pk] = true
	return event.GeneratedTransaction{
		Type:        event.TypeBill,
		Description: "Equipment financing interest - " + spec.Name,
		Amount:      interest,
		VendorID:    vendorID,
		Metadata: map[string]any{
			event.MetaFinancingType: "equipment_financing",
			"loan_name":             spec.Name,
			"annual_rate":           rate.String(),
		},
	}, true
}

// accrueLOC walks every day since the last accrual, applying balance events
// and adding a day of interest to the month the day belongs to.
func (s *Scheduler) accrueLOC(key event.BusinessKey, spec *LineOfCreditSpec, through time.Time) {
	if !spec.StartDate.IsZero() && through.Before(spec.StartDate) {
		return
	}
	ik := instrumentKey{key, spec.Name}
	last, ok := s.locLastAccrual[ik]
	if !ok {
		last = through.AddDate(0, 0, -1)
	}

	for day := last.AddDate(0, 0, 1); !day.After(through); day = day.AddDate(0, 0, 1) {
		if !spec.StartDate.IsZero() && day.Before(spec.StartDate) {
			continue
		}
		balance, ok := s.locRunningBalance[ik]
		if !ok {
			balance = spec.Balance
		}
		for _, ev := range spec.BalanceEvents {
			if dates.Day(ev.EffectiveDate).Equal(day) {
				balance = ev.Balance
			}
		}
		s.locRunningBalance[ik] = balance
		if balance.IsPositive() {
			rate := rateFor(spec.AnnualRate, spec.RateAdjustments, day)
			daily := balance.Mul(rate).Div(daysPerYear)
			bucket := periodKey{key, spec.Name, day.Year(), day.Month()}
			s.locAccrued[bucket] = s.locAccrued[bucket].Add(daily)
		}
	}
	s.locLastAccrual[ik] = through
}

// billPeriod returns the month a billing date settles. A billing day at or
// past month end settles the current month; otherwise the prior one.
func billPeriod(billingDay int, day time.Time) (int, time.Month) {
	if billingDay >= dates.DaysIn(day.Year(), day.Month()) {
		return day.Year(), day.Month()
	}
	month, year := day.Month()-1, day.Year()
	if month < time.January {
		month = time.December
		year--
	}
	return year, month
}

func (s *Scheduler) locInterest(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) []event.GeneratedTransaction {
	var txs []event.GeneratedTransaction
	for i := range s.locs[key] {
		spec := &s.locs[key][i]
		s.accrueLOC(key, spec, day)
		if !spec.StartDate.IsZero() && day.Before(spec.StartDate) {
			continue
		}
		if day.Day() != dates.ClampDay(spec.BillingDay, day) {
			continue
		}
		billYear, billMonth := billPeriod(dates.ClampDay(spec.BillingDay, day), day)
		pk := periodKey{key, spec.Name, billYear, billMonth}
		if s.locBilled[pk] {
			continue
		}
		interest := s.locAccrued[pk].Round(2)
		if !interest.IsPositive() {
			s.locBilled[pk] = true
			continue
		}
		vendorID := findLender(spec.Lender, vendors)
		if vendorID == nil {
			s.logger.Warn("credit line lender not found, interest skipped",
				"business", key, "line", spec.Name, "lender", spec.Lender)
			continue
		}
		txs = append(txs, event.GeneratedTransaction{
			Type:        event.TypeBill,
			Description: "Line of credit interest - " + spec.Name,
			Amount:      interest,
			VendorID:    vendorID,
			Metadata: map[string]any{
				event.MetaFinancingType: "line_of_credit",
				"credit_line":           spec.Name,
				"annual_rate":           rateFor(spec.AnnualRate, spec.RateAdjustments, day).String(),
				"interest_period":       fmt.Sprintf("%04d-%02d", billYear, billMonth),
			},
		})
		s.locBilled[pk] = true
		delete(s.locAccrued, pk)
	}
	return txs
}

// Instruments returns the instrument names configured for a business, for
// diagnostics output. Sorted for stable listings.
func (s *Scheduler) Instruments(key event.BusinessKey) []string {
	var names []string
	for _, l := range s.loans[key] {
		names = append(names, l.Name)
	}
	for _, e := range s.equipment[key] {
		names = append(names, e.Name)
	}
	for _, l := range s.locs[key] {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}
