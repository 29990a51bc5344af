// Package payroll generates payroll runs, employment tax deposits, and the
// annual compliance filings that follow them (Form 941, Form 940, W-2, and
// 1099-NEC processing fees).
//
// The generator is stateful: deposit schedules depend on accumulated
// quarterly liability, and filings are keyed so each fires exactly once per
// period no matter how often a day is replayed after the first time.
package payroll

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/econ"
	"github.com/atlastown/bizsim/internal/event"
)

// Employment tax rates and IRS deposit thresholds. These are the simulated
// economy's fixed constants, not a tax table that tracks real-world years.
var (
	socialSecurityRate    = decimal.NewFromFloat(0.062)
	medicareRate          = decimal.NewFromFloat(0.0145)
	withholdingRate       = decimal.NewFromFloat(0.12)
	quarterlyDepositLimit = decimal.NewFromInt(2500)
	semiWeeklyThreshold   = decimal.NewFromInt(50000)
	futaRate              = decimal.NewFromFloat(0.006)
	futaDepositThreshold  = decimal.NewFromInt(500)
	form941Fee            = decimal.RequireFromString("75.00")
	form940Fee            = decimal.RequireFromString("50.00")
	w2ProcessingFee       = decimal.RequireFromString("85.00")
	form1099Fee           = decimal.RequireFromString("7.50")
	contractor1099Floor   = decimal.NewFromInt(600)
)

// Vendor categories that can never be 1099 contractors: payments to lenders,
// payroll providers, and tax authorities are not compensation for services.
var excluded1099Categories = map[string]bool{
	"financing": true,
	"payroll":   true,
	"tax":       true,
}

// Frequency is a normalized payroll cadence.
type Frequency string

const (
	Weekly   Frequency = "weekly"
	BiWeekly Frequency = "bi-weekly"
	Monthly  Frequency = "monthly"
)

// NormalizeFrequency canonicalizes user-supplied cadence spellings. Unknown
// values fall back to bi-weekly, the most common small-business cadence.
func NormalizeFrequency(raw string) Frequency {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-")
	if normalized == "biweekly" {
		normalized = string(BiWeekly)
	}
	switch Frequency(normalized) {
	case Weekly, BiWeekly, Monthly:
		return Frequency(normalized)
	}
	return BiWeekly
}

// weeksCovered is the number of worked weeks one pay run covers.
func (f Frequency) weeksCovered() decimal.Decimal {
	switch f {
	case BiWeekly:
		return decimal.NewFromInt(2)
	case Monthly:
		return decimal.NewFromInt(4)
	default:
		return decimal.NewFromInt(1)
	}
}

// PayDay names when payroll runs: either a weekday (weekly and bi-weekly
// cadences, or "last <weekday> of the month" for monthly) or a fixed day of
// the month.
type PayDay struct {
	weekday    time.Weekday
	hasWeekday bool
	dayOfMonth int
}

// OnWeekday builds a weekday pay day.
func OnWeekday(w time.Weekday) PayDay {
	return PayDay{weekday: w, hasWeekday: true}
}

// OnDayOfMonth builds a fixed day-of-month pay day.
func OnDayOfMonth(day int) PayDay {
	return PayDay{dayOfMonth: day}
}

// ParsePayDay accepts either a weekday name or a numeric day of month.
// Weekday names match case-insensitively.
func ParsePayDay(raw string) (PayDay, error) {
	if w, ok := dates.WeekdayFromName(strings.ToLower(strings.TrimSpace(raw))); ok {
		return OnWeekday(w), nil
	}
	var day int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d", &day); err == nil && day >= 1 && day <= 31 {
		return OnDayOfMonth(day), nil
	}
	return PayDay{}, fmt.Errorf("payroll: unrecognized pay day %q", raw)
}

// EmployeeSpec describes one role on a business's roster.
type EmployeeSpec struct {
	Role         string
	Count        int
	PayRate      decimal.Decimal
	HoursPerWeek decimal.Decimal
}

// Config is a business's payroll schedule and counterparties.
type Config struct {
	Frequency     Frequency
	PayDay        PayDay
	PayrollVendor string
	TaxAuthority  string
}

type quarterKey struct {
	business event.BusinessKey
	year     int
	quarter  int
}

type yearKey struct {
	business event.BusinessKey
	year     int
}

type contractorKey struct {
	business event.BusinessKey
	year     int
	vendorID uuid.UUID
}

// Generator produces payroll bills and employment tax events.
//
// Not safe for concurrent use.
type Generator struct {
	employees map[event.BusinessKey][]EmployeeSpec
	configs   map[event.BusinessKey]Config
	inflation econ.InflationModel
	logger    *slog.Logger

	lastPayDate         map[event.BusinessKey]time.Time
	taxDueByDate        map[event.BusinessKey]map[string]decimal.Decimal
	quarterTaxLiability map[quarterKey]decimal.Decimal
	quarterTaxDeposited map[quarterKey]decimal.Decimal
	form941Filed        map[quarterKey]bool
	futaByYear          map[yearKey]decimal.Decimal
	futaDepositedByYear map[yearKey]decimal.Decimal
	futaDepositRecorded map[quarterKey]bool
	form940Filed        map[yearKey]bool
	yearEndProcessed    map[yearKey]bool
	form1099Filed       map[contractorKey]bool
	vendorPaidByYear    map[contractorKey]decimal.Decimal
}

// Option configures a Generator.
type Option func(*Generator)

// WithInflation sets the model used to adjust pay rates over time.
func WithInflation(m econ.InflationModel) Option {
	return func(g *Generator) { g.inflation = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New builds a payroll Generator for the given rosters and schedules.
func New(
	employees map[event.BusinessKey][]EmployeeSpec,
	configs map[event.BusinessKey]Config,
	opts ...Option,
) *Generator {
	g := &Generator{
		employees: employees,
		configs:   configs,
		inflation: econ.Disabled(),
		logger:    slog.Default(),

		lastPayDate:         map[event.BusinessKey]time.Time{},
		taxDueByDate:        map[event.BusinessKey]map[string]decimal.Decimal{},
		quarterTaxLiability: map[quarterKey]decimal.Decimal{},
		quarterTaxDeposited: map[quarterKey]decimal.Decimal{},
		form941Filed:        map[quarterKey]bool{},
		futaByYear:          map[yearKey]decimal.Decimal{},
		futaDepositedByYear: map[yearKey]decimal.Decimal{},
		futaDepositRecorded: map[quarterKey]bool{},
		form940Filed:        map[yearKey]bool{},
		yearEndProcessed:    map[yearKey]bool{},
		form1099Filed:       map[contractorKey]bool{},
		vendorPaidByYear:    map[contractorKey]decimal.Decimal{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "payroll_generator")
	return g
}

// RecordVendorPayment accumulates money paid to a vendor during a calendar
// year. The running totals drive 1099-NEC eligibility the following January.
func (g *Generator) RecordVendorPayment(
	key event.BusinessKey,
	day time.Time,
	vendorID uuid.UUID,
	category string,
	amount decimal.Decimal,
) {
	if !amount.IsPositive() || excluded1099Categories[strings.ToLower(category)] {
		return
	}
	k := contractorKey{key, day.Year(), vendorID}
	g.vendorPaidByYear[k] = g.vendorPaidByYear[k].Add(amount)
}

// payrollDue reports whether a pay run lands on the given date.
func (g *Generator) payrollDue(key event.BusinessKey, day time.Time) bool {
	cfg, ok := g.configs[key]
	if !ok || len(g.employees[key]) == 0 {
		return false
	}
	last, hasLast := g.lastPayDate[key]

	switch cfg.Frequency {
	case Weekly, BiWeekly:
		if !cfg.PayDay.hasWeekday || day.Weekday() != cfg.PayDay.weekday {
			return false
		}
		if !hasLast {
			return true
		}
		gap := int(day.Sub(last).Hours() / 24)
		if cfg.Frequency == BiWeekly {
			return gap >= 14
		}
		return gap >= 7
	case Monthly:
		if hasLast && last.Year() == day.Year() && last.Month() == day.Month() {
			return false
		}
		if !cfg.PayDay.hasWeekday {
			return day.Day() == cfg.PayDay.dayOfMonth
		}
		return day.Equal(dates.LastWeekday(day.Year(), day.Month(), cfg.PayDay.weekday))
	}
	return false
}

// grossPay totals the roster's inflation-adjusted pay for one run.
func (g *Generator) grossPay(employees []EmployeeSpec, freq Frequency, day time.Time) decimal.Decimal {
	weeks := freq.weeksCovered()
	factor := g.inflation.FactorFor(day)
	total := decimal.Zero
	for _, emp := range employees {
		adjusted := emp.PayRate.Mul(factor)
		total = total.Add(adjusted.Mul(emp.HoursPerWeek).Mul(weeks).Mul(decimal.NewFromInt(int64(emp.Count))))
	}
	return total.Round(2)
}

// depositSchedule classifies the quarter's accumulated liability into an IRS
// deposit cadence.
func depositSchedule(quarterTotal decimal.Decimal) string {
	if quarterTotal.LessThan(quarterlyDepositLimit) {
		return "quarterly"
	}
	if quarterTotal.LessThanOrEqual(semiWeeklyThreshold) {
		return "monthly"
	}
	return "semi-weekly"
}

// form941DueQuarters returns the quarters whose Form 941 is due on the given
// date. Jan 31 covers the prior year's fourth quarter.
func form941DueQuarters(day time.Time) []struct{ Year, Quarter int } {
	switch {
	case day.Month() == time.April && day.Day() == 30:
		return []struct{ Year, Quarter int }{{day.Year(), 1}}
	case day.Month() == time.July && day.Day() == 31:
		return []struct{ Year, Quarter int }{{day.Year(), 2}}
	case day.Month() == time.October && day.Day() == 31:
		return []struct{ Year, Quarter int }{{day.Year(), 3}}
	case day.Month() == time.January && day.Day() == 31:
		return []struct{ Year, Quarter int }{{day.Year() - 1, 4}}
	}
	return nil
}

// nextMonthlyDepositDate is the 15th of the month after the pay date.
func nextMonthlyDepositDate(payDate time.Time) time.Time {
	month, year := payDate.Month()+1, payDate.Year()
	if month > time.December {
		month = time.January
		year++
	}
	return dates.New(year, month, 15)
}

// scheduleTaxDeposit books the run's withheld taxes against the quarter and
// queues a deposit if the cadence calls for one.
func (g *Generator) scheduleTaxDeposit(key event.BusinessKey, payDate time.Time, taxes decimal.Decimal) {
	if !taxes.IsPositive() {
		return
	}
	_, quarter := dates.Quarter(payDate)
	qk := quarterKey{key, payDate.Year(), quarter}
	quarterTotal := g.quarterTaxLiability[qk].Add(taxes)
	g.quarterTaxLiability[qk] = quarterTotal

	schedule := depositSchedule(quarterTotal)
	if schedule == "quarterly" {
		// Small balances ride until the Form 941 filing settles the quarter.
		return
	}

	var dueDate time.Time
	if schedule == "semi-weekly" {
		dueDate = payDate.AddDate(0, 0, 3)
	} else {
		dueDate = nextMonthlyDepositDate(payDate)
	}

	outstanding := quarterTotal.Sub(g.quarterTaxDeposited[qk])
	if !outstanding.IsPositive() {
		return
	}
	due := g.taxDueByDate[key]
	if due == nil {
		due = map[string]decimal.Decimal{}
		g.taxDueByDate[key] = due
	}
	dateKey := dates.Key(dueDate)
	due[dateKey] = due[dateKey].Add(outstanding)
	g.quarterTaxDeposited[qk] = quarterTotal
}

// findVendor matches a configured vendor name against the party list,
// falling back to the first party when nothing matches.
func findVendor(name string, vendors []event.Party) *uuid.UUID {
	if p := event.FindPartyOrFirst(vendors, name); p != nil {
		id := p.ID
		return &id
	}
	return nil
}

// eligible1099Vendors filters the party list down to contractors owed a
// 1099-NEC for the tax year: service vendors paid over the reporting floor,
// excluding categories that are never nonemployee compensation.
func (g *Generator) eligible1099Vendors(key event.BusinessKey, taxYear int, vendors []event.Party) []event.Party {
	var eligible []event.Party
	for _, vendor := range vendors {
		if excluded1099Categories[strings.ToLower(vendor.Category)] {
			continue
		}
		paid := g.vendorPaidByYear[contractorKey{key, taxYear, vendor.ID}]
		if paid.GreaterThan(contractor1099Floor) {
			eligible = append(eligible, vendor)
		}
	}
	return eligible
}

// GenerateDaily returns the payroll and employment tax bills due on the
// given date for one business.
func (g *Generator) GenerateDaily(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) []event.GeneratedTransaction {
	day = dates.Day(day)
	employees := g.employees[key]
	cfg, ok := g.configs[key]
	if !ok || len(employees) == 0 {
		return nil
	}

	var txs []event.GeneratedTransaction

	if g.payrollDue(key, day) {
		if tx, taxes, ok := g.runPayroll(key, day, employees, cfg, vendors); ok {
			txs = append(txs, tx)
			g.scheduleTaxDeposit(key, day, taxes)
		}
	}

	txs = append(txs, g.depositsDue(key, day, cfg, vendors)...)
	txs = append(txs, g.quarterlyFilings(key, day, cfg, vendors)...)
	txs = append(txs, g.futaDeposits(key, day, cfg, vendors)...)
	txs = append(txs, g.yearEndFilings(key, day, cfg, vendors)...)
	return txs
}

func (g *Generator) runPayroll(
	key event.BusinessKey,
	day time.Time,
	employees []EmployeeSpec,
	cfg Config,
	vendors []event.Party,
) (event.GeneratedTransaction, decimal.Decimal, bool) {
	gross := g.grossPay(employees, cfg.Frequency, day)
	if !gross.IsPositive() {
		return event.GeneratedTransaction{}, decimal.Zero, false
	}

	ss := gross.Mul(socialSecurityRate).Round(2)
	medicare := gross.Mul(medicareRate).Round(2)
	withholding := gross.Mul(withholdingRate).Round(2)
	taxes := ss.Add(medicare).Add(withholding)

	// The run is booked even when no payroll vendor exists: the pay date
	// advances and taxes accrue either way, only the bill is dropped.
	g.lastPayDate[key] = day
	g.accrueFUTA(key, day, gross)

	vendorID := findVendor(cfg.PayrollVendor, vendors)
	if vendorID == nil {
		g.logger.Warn("payroll vendor missing, run not billed",
			"business", key, "vendor", cfg.PayrollVendor)
		return event.GeneratedTransaction{}, taxes, true
	}

	roles := make([]string, len(employees))
	for i, emp := range employees {
		roles[i] = fmt.Sprintf("%d %s", emp.Count, emp.Role)
	}
	tx := event.GeneratedTransaction{
		Type:        event.TypeBill,
		Description: fmt.Sprintf("Payroll (%s) - %s", cfg.Frequency, strings.Join(roles, ", ")),
		Amount:      gross,
		VendorID:    vendorID,
		Metadata: map[string]any{
			"payroll_gross":               gross.String(),
			"tax_social_security":         ss.String(),
			"tax_medicare":                medicare.String(),
			"tax_withholding":             withholding.String(),
			event.MetaExpenseAccountHint:  "payroll",
		},
	}
	g.logger.Info("payroll run generated",
		"business", key, "date", dates.Key(day), "gross", gross.String())
	return tx, taxes, true
}

func (g *Generator) accrueFUTA(key event.BusinessKey, day time.Time, gross decimal.Decimal) {
	futa := gross.Mul(futaRate).Round(2)
	yk := yearKey{key, day.Year()}
	g.futaByYear[yk] = g.futaByYear[yk].Add(futa)
}

func (g *Generator) depositsDue(
	key event.BusinessKey,
	day time.Time,
	cfg Config,
	vendors []event.Party,
) []event.GeneratedTransaction {
	due := g.taxDueByDate[key]
	amount, ok := due[dates.Key(day)]
	if !ok || !amount.IsPositive() {
		return nil
	}
	delete(due, dates.Key(day))

	vendorID := findVendor(cfg.TaxAuthority, vendors)
	if vendorID == nil {
		g.logger.Warn("tax authority vendor missing, deposit dropped",
			"business", key, "vendor", cfg.TaxAuthority)
		return nil
	}
	return []event.GeneratedTransaction{{
		Type:        event.TypeBill,
		Description: "Payroll tax deposit",
		Amount:      amount.Round(2),
		VendorID:    vendorID,
		Metadata: map[string]any{
			"tax_deposit":                "payroll",
			event.MetaExpenseAccountHint: "payroll tax",
		},
	}}
}

func (g *Generator) quarterlyFilings(
	key event.BusinessKey,
	day time.Time,
	cfg Config,
	vendors []event.Party,
) []event.GeneratedTransaction {
	var txs []event.GeneratedTransaction
	for _, q := range form941DueQuarters(day) {
		qk := quarterKey{key, q.Year, q.Quarter}
		if g.form941Filed[qk] {
			continue
		}

		filingVendor := cfg.PayrollVendor
		if filingVendor == "" {
			filingVendor = cfg.TaxAuthority
		}
		if vendorID := findVendor(filingVendor, vendors); vendorID != nil {
			txs = append(txs, event.GeneratedTransaction{
				Type:        event.TypeBill,
				Description: fmt.Sprintf("Form 941 filing Q%d %d", q.Quarter, q.Year),
				Amount:      form941Fee,
				VendorID:    vendorID,
				Metadata: map[string]any{
					"compliance_filing":          "form_941",
					"tax_year":                   fmt.Sprint(q.Year),
					"quarter":                    fmt.Sprint(q.Quarter),
					event.MetaExpenseAccountHint: "payroll tax",
				},
			})
		}

		// The filing settles whatever the quarter still owes (balances under
		// the quarterly threshold were never deposited mid-quarter).
		remaining := g.quarterTaxLiability[qk].Sub(g.quarterTaxDeposited[qk])
		if remaining.IsPositive() {
			if vendorID := findVendor(cfg.TaxAuthority, vendors); vendorID != nil {
				txs = append(txs, event.GeneratedTransaction{
					Type:        event.TypeBill,
					Description: "Payroll tax deposit",
					Amount:      remaining.Round(2),
					VendorID:    vendorID,
					Metadata: map[string]any{
						"tax_deposit":                "payroll",
						event.MetaExpenseAccountHint: "payroll tax",
						"form_941":                   "true",
						"tax_year":                   fmt.Sprint(q.Year),
						"quarter":                    fmt.Sprint(q.Quarter),
					},
				})
			}
			g.quarterTaxDeposited[qk] = g.quarterTaxLiability[qk]
		}
		g.form941Filed[qk] = true
	}
	return txs
}

func (g *Generator) futaDeposits(
	key event.BusinessKey,
	day time.Time,
	cfg Config,
	vendors []event.Party,
) []event.GeneratedTransaction {
	var txs []event.GeneratedTransaction
	for _, q := range form941DueQuarters(day) {
		qk := quarterKey{key, q.Year, q.Quarter}
		yk := yearKey{key, q.Year}
		remaining := g.futaByYear[yk].Sub(g.futaDepositedByYear[yk])
		if !remaining.IsPositive() {
			continue
		}
		// FUTA under $500 carries forward, except at year end.
		if remaining.LessThan(futaDepositThreshold) && q.Quarter != 4 {
			continue
		}
		if g.futaDepositRecorded[qk] {
			continue
		}
		vendorID := findVendor(cfg.TaxAuthority, vendors)
		if vendorID == nil {
			continue
		}
		txs = append(txs, event.GeneratedTransaction{
			Type:        event.TypeBill,
			Description: fmt.Sprintf("FUTA tax deposit Q%d %d", q.Quarter, q.Year),
			Amount:      remaining.Round(2),
			VendorID:    vendorID,
			Metadata: map[string]any{
				"tax_deposit":                "futa",
				event.MetaExpenseAccountHint: "payroll tax",
				"tax_year":                   fmt.Sprint(q.Year),
				"quarter":                    fmt.Sprint(q.Quarter),
			},
		})
		g.futaDepositedByYear[yk] = g.futaDepositedByYear[yk].Add(remaining)
		g.futaDepositRecorded[qk] = true
	}
	return txs
}

// yearEndFilings emits the January 31 block: Form 940, W-2 processing, and
// one 1099-NEC per eligible contractor, all for the prior tax year.
func (g *Generator) yearEndFilings(
	key event.BusinessKey,
	day time.Time,
	cfg Config,
	vendors []event.Party,
) []event.GeneratedTransaction {
	if day.Month() != time.January || day.Day() != 31 {
		return nil
	}
	taxYear := day.Year() - 1
	yk := yearKey{key, taxYear}

	filingVendorName := cfg.PayrollVendor
	if filingVendorName == "" {
		filingVendorName = cfg.TaxAuthority
	}
	filingVendor := findVendor(filingVendorName, vendors)

	var txs []event.GeneratedTransaction

	if !g.form940Filed[yk] {
		if filingVendor != nil {
			txs = append(txs, event.GeneratedTransaction{
				Type:        event.TypeBill,
				Description: fmt.Sprintf("Form 940 filing %d", taxYear),
				Amount:      form940Fee,
				VendorID:    filingVendor,
				Metadata: map[string]any{
					"compliance_filing":          "form_940",
					"tax_year":                   fmt.Sprint(taxYear),
					event.MetaExpenseAccountHint: "payroll tax",
				},
			})
		}
		g.form940Filed[yk] = true
	}

	if !g.yearEndProcessed[yk] {
		if filingVendor != nil {
			txs = append(txs, event.GeneratedTransaction{
				Type:        event.TypeBill,
				Description: fmt.Sprintf("Year-end W-2 processing %d", taxYear),
				Amount:      w2ProcessingFee,
				VendorID:    filingVendor,
				Metadata: map[string]any{
					"compliance_filing":          "w2",
					"tax_year":                   fmt.Sprint(taxYear),
					event.MetaExpenseAccountHint: "payroll",
				},
			})
		}
		g.yearEndProcessed[yk] = true
	}

	for _, vendor := range g.eligible1099Vendors(key, taxYear, vendors) {
		ck := contractorKey{key, taxYear, vendor.ID}
		if g.form1099Filed[ck] {
			continue
		}
		billTo := filingVendor
		if billTo == nil {
			id := vendor.ID
			billTo = &id
		}
		txs = append(txs, event.GeneratedTransaction{
			Type:        event.TypeBill,
			Description: fmt.Sprintf("1099-NEC processing - %s %d", vendor.DisplayName, taxYear),
			Amount:      form1099Fee,
			VendorID:    billTo,
			Metadata: map[string]any{
				"compliance_filing":          "1099_nec",
				"tax_year":                   fmt.Sprint(taxYear),
				"recipient_vendor_id":        vendor.ID.String(),
				"recipient_vendor_name":      vendor.DisplayName,
				event.MetaExpenseAccountHint: "payroll",
			},
		})
		g.form1099Filed[ck] = true
	}
	return txs
}
