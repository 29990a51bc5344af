// Package gen implements the daily probabilistic transaction generator: for
// each configured pattern it decides whether an event fires today, how much
// it is worth, and which counterparty it involves.
//
// All randomness flows through one explicitly seeded source owned by the
// Generator. Given the same seed and the same sequence of dates and inputs,
// the generator reproduces an identical transaction stream.
package gen

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/econ"
	"github.com/atlastown/bizsim/internal/event"
)

// agingBucket maps a days-overdue span to the probability that an open
// invoice gets paid on any given day.
type agingBucket struct {
	minDays     int
	maxDays     int // -1 means unbounded
	probability float64
}

// Older invoices are progressively less likely to ever be paid.
var agingBuckets = []agingBucket{
	{0, 30, 0.80},
	{31, 60, 0.60},
	{61, 90, 0.40},
	{91, 120, 0.20},
	{121, -1, 0.05},
}

// PendingInvoice is an open receivable supplied by the caller for
// payment_received patterns to settle.
type PendingInvoice struct {
	ID          string
	Number      string
	CustomerID  *uuid.UUID
	AmountDue   decimal.Decimal
	InvoiceDate time.Time
	DueDate     time.Time
}

// dueReference returns the date payment aging is measured from.
func (p *PendingInvoice) dueReference() (time.Time, bool) {
	if !p.DueDate.IsZero() {
		return p.DueDate, true
	}
	if !p.InvoiceDate.IsZero() {
		return p.InvoiceDate, true
	}
	return time.Time{}, false
}

// Config carries the per-business activity tables the generator samples
// from. All tables are data-driven; the zero value for any of them falls
// back to the built-in defaults.
type Config struct {
	Patterns    map[event.BusinessKey][]Pattern
	Seasonality map[event.BusinessKey]map[time.Month]float64
	DayPatterns map[event.BusinessKey]map[time.Weekday]float64
	Holidays    []Holiday
	Templates   map[string][]string
}

// Generator produces the daily transaction stream for every business.
//
// Not safe for concurrent use: callers must serialize calls per instance,
// both for the internal RNG and for deterministic draw ordering.
type Generator struct {
	rng          *rand.Rand
	inflation    econ.InflationModel
	patterns     map[event.BusinessKey][]Pattern
	seasonality  map[event.BusinessKey]map[time.Month]float64
	dayPatterns  map[event.BusinessKey]map[time.Weekday]float64
	holidays     []Holiday
	templates    map[string][]string
	templateKeys []string // sorted, so substitution draws stay deterministic
	logger       *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed fixes the random source. Two generators constructed with the same
// seed and fed the same inputs emit identical streams.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithInflation sets the inflation model applied to drawn amounts.
func WithInflation(m econ.InflationModel) Option {
	return func(g *Generator) {
		g.inflation = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New builds a Generator from the given activity tables. Missing tables use
// the built-in business defaults.
func New(cfg Config, opts ...Option) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		inflation:   econ.Disabled(),
		patterns:    cfg.Patterns,
		seasonality: cfg.Seasonality,
		dayPatterns: cfg.DayPatterns,
		holidays:    cfg.Holidays,
		templates:   cfg.Templates,
		logger:      slog.Default(),
	}
	if g.patterns == nil {
		g.patterns = map[event.BusinessKey][]Pattern{}
	}
	if g.seasonality == nil {
		g.seasonality = DefaultSeasonality()
	}
	if g.dayPatterns == nil {
		g.dayPatterns = DefaultDayPatterns()
	}
	if g.templates == nil {
		g.templates = DefaultTemplates()
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "transaction_generator")

	g.templateKeys = make([]string, 0, len(g.templates))
	for key := range g.templates {
		g.templateKeys = append(g.templateKeys, key)
	}
	sort.Strings(g.templateKeys)
	return g
}

// dailyOptions carries the optional knobs of a GenerateDaily call.
type dailyOptions struct {
	pending []PendingInvoice
	hour    int
	hasHour bool
	phase   event.Phase
	hourly  bool
}

// DailyOption adjusts a single GenerateDaily call.
type DailyOption func(*dailyOptions)

// WithPendingInvoices supplies the open receivables that payment_received
// patterns may settle.
func WithPendingInvoices(invoices []PendingInvoice) DailyOption {
	return func(o *dailyOptions) {
		o.pending = invoices
	}
}

// AtHour restricts evaluation to patterns active at the given hour (0-23).
func AtHour(hour int) DailyOption {
	return func(o *dailyOptions) {
		o.hour = hour
		o.hasHour = true
	}
}

// InPhase applies the pattern's phase multiplier for the given day phase.
func InPhase(phase event.Phase) DailyOption {
	return func(o *dailyOptions) {
		o.phase = phase
	}
}

// Hourly spreads each pattern's probability across the hours of the
// requested phase and evaluates it once per hour instead of once per day.
func Hourly() DailyOption {
	return func(o *dailyOptions) {
		o.hourly = true
	}
}

// GenerateDaily evaluates every pattern registered for the business against
// the given calendar day and returns the transactions that fire.
//
// Patterns needing a counterparty are skipped, not failed, when the matching
// list (customers for invoices and cash sales, vendors for bills, pending
// invoices for payments) is empty: "nothing due today" is a valid outcome.
func (g *Generator) GenerateDaily(
	key event.BusinessKey,
	day time.Time,
	customers []event.Party,
	vendors []event.Party,
	opts ...DailyOption,
) []event.GeneratedTransaction {
	var o dailyOptions
	for _, opt := range opts {
		opt(&o)
	}
	day = dates.Day(day)
	patterns := g.patterns[key]

	payable := g.selectPayableInvoices(o.pending, day)

	var txs []event.GeneratedTransaction
	if o.hourly {
		txs = g.generateHourly(key, day, customers, vendors, &o, &payable)
	} else {
		txs = g.generateOnce(key, day, customers, vendors, &o, &payable)
	}

	g.logger.Debug("transactions generated",
		"business", key,
		"date", dates.Key(day),
		"patterns", len(patterns),
		"count", len(txs),
	)
	return txs
}

func (g *Generator) generateOnce(
	key event.BusinessKey,
	day time.Time,
	customers []event.Party,
	vendors []event.Party,
	o *dailyOptions,
	payable *[]PendingInvoice,
) []event.GeneratedTransaction {
	var txs []event.GeneratedTransaction
	for i := range g.patterns[key] {
		pattern := &g.patterns[key][i]
		hour, hasHour := o.hour, o.hasHour
		if !g.shouldGenerate(pattern, key, day, hour, hasHour, o.phase, pattern.Probability) {
			continue
		}
		if tx, ok := g.realize(pattern, key, day, customers, vendors, payable); ok {
			txs = append(txs, tx)
		}
	}
	return txs
}

func (g *Generator) generateHourly(
	key event.BusinessKey,
	day time.Time,
	customers []event.Party,
	vendors []event.Party,
	o *dailyOptions,
	payable *[]PendingInvoice,
) []event.GeneratedTransaction {
	hours := o.phase.Hours()
	if len(hours) == 0 && o.hasHour {
		hours = []int{o.hour}
	}
	if len(hours) == 0 {
		return nil
	}

	// Spread each pattern's daily probability evenly across the hours it is
	// active in, so the per-day expectation is unchanged.
	type hourlyPattern struct {
		pattern     *Pattern
		activeHours map[int]bool
		probability float64
	}
	var plans []hourlyPattern
	for i := range g.patterns[key] {
		pattern := &g.patterns[key][i]
		active := make(map[int]bool)
		for _, h := range hours {
			if pattern.ActiveHours == nil || pattern.ActiveHours.Contains(h) {
				active[h] = true
			}
		}
		if len(active) == 0 {
			continue
		}
		plans = append(plans, hourlyPattern{
			pattern:     pattern,
			activeHours: active,
			probability: pattern.Probability / float64(len(active)),
		})
	}

	var txs []event.GeneratedTransaction
	for _, hour := range hours {
		for _, plan := range plans {
			if !plan.activeHours[hour] {
				continue
			}
			if !g.shouldGenerate(plan.pattern, key, day, hour, true, o.phase, plan.probability) {
				continue
			}
			if tx, ok := g.realize(plan.pattern, key, day, customers, vendors, payable); ok {
				txs = append(txs, tx)
			}
		}
	}
	return txs
}

// shouldGenerate runs the multiplier stack and the single probability draw.
func (g *Generator) shouldGenerate(
	pattern *Pattern,
	key event.BusinessKey,
	day time.Time,
	hour int,
	hasHour bool,
	phase event.Phase,
	baseProbability float64,
) bool {
	weekend := dates.IsWeekend(day)
	if pattern.WeekdayOnly && weekend {
		return false
	}
	if hasHour && pattern.ActiveHours != nil && !pattern.ActiveHours.Contains(hour) {
		return false
	}

	p := baseProbability
	p *= g.dayMultiplier(key, day.Weekday())
	if weekend {
		p *= pattern.weekendBoost()
	}
	p *= pattern.phaseMultiplier(phase)
	p *= seasonalMultiplier(pattern, g.seasonality[key], day.Month())

	holidayMult, _ := g.HolidayContext(key, day)
	if holidayMult <= 0 {
		return false
	}
	p *= holidayMult

	// Stacked multipliers must not exceed certainty.
	p = math.Min(math.Max(p, 0), 1)
	return g.rng.Float64() < p
}

// realize turns a fired pattern into a transaction, choosing a counterparty.
// The boolean is false when the pattern had to be skipped for lack of one.
func (g *Generator) realize(
	pattern *Pattern,
	key event.BusinessKey,
	day time.Time,
	customers []event.Party,
	vendors []event.Party,
	payable *[]PendingInvoice,
) (event.GeneratedTransaction, bool) {
	if pattern.Type == event.TypePaymentReceived {
		return g.realizePayment(payable)
	}

	var customerID, vendorID *uuid.UUID
	switch pattern.Type {
	case event.TypeInvoice, event.TypeCashSale:
		if len(customers) == 0 {
			g.logger.Debug("pattern skipped, no customers", "business", key, "type", pattern.Type)
			return event.GeneratedTransaction{}, false
		}
		id := customers[g.rng.Intn(len(customers))].ID
		customerID = &id
	case event.TypeBill, event.TypeBillPayment:
		if len(vendors) == 0 {
			g.logger.Debug("pattern skipped, no vendors", "business", key, "type", pattern.Type)
			return event.GeneratedTransaction{}, false
		}
		id := vendors[g.rng.Intn(len(vendors))].ID
		vendorID = &id
	}

	return event.GeneratedTransaction{
		Type:        pattern.Type,
		Description: g.fillTemplate(pattern.DescriptionTemplate),
		Amount:      g.drawAmount(pattern, day),
		CustomerID:  customerID,
		VendorID:    vendorID,
	}, true
}

func (g *Generator) realizePayment(payable *[]PendingInvoice) (event.GeneratedTransaction, bool) {
	pool := *payable
	if len(pool) == 0 {
		return event.GeneratedTransaction{}, false
	}
	idx := g.rng.Intn(len(pool))
	invoice := pool[idx]
	*payable = append(pool[:idx], pool[idx+1:]...)

	if invoice.ID == "" || !invoice.AmountDue.IsPositive() {
		return event.GeneratedTransaction{}, false
	}
	number := invoice.Number
	if number == "" {
		number = "N/A"
	}
	return event.GeneratedTransaction{
		Type:        event.TypePaymentReceived,
		Description: "Payment received - Invoice #" + number,
		Amount:      invoice.AmountDue,
		CustomerID:  invoice.CustomerID,
		Metadata:    map[string]any{"invoice_id": invoice.ID},
	}, true
}

// selectPayableInvoices draws, per open invoice, whether it gets paid today
// based on its aging bucket.
func (g *Generator) selectPayableInvoices(pending []PendingInvoice, day time.Time) []PendingInvoice {
	var payable []PendingInvoice
	for i := range pending {
		p := paymentProbability(&pending[i], day)
		if p <= 0 {
			continue
		}
		if g.rng.Float64() < p {
			payable = append(payable, pending[i])
		}
	}
	return payable
}

func paymentProbability(invoice *PendingInvoice, day time.Time) float64 {
	ref, ok := invoice.dueReference()
	if !ok {
		return 0
	}
	overdue := int(dates.Day(day).Sub(dates.Day(ref)).Hours() / 24)
	if overdue < 0 {
		overdue = 0
	}
	for _, bucket := range agingBuckets {
		if bucket.maxDays < 0 {
			return bucket.probability
		}
		if overdue >= bucket.minDays && overdue <= bucket.maxDays {
			return bucket.probability
		}
	}
	return 0
}

func (g *Generator) dayMultiplier(key event.BusinessKey, weekday time.Weekday) float64 {
	if m, ok := g.dayPatterns[key][weekday]; ok {
		return m
	}
	return 1
}

// HolidayContext returns the combined holiday modifier and the names of the
// holidays active on the given day. A zero modifier means the business is
// closed and suppresses generation entirely.
func (g *Generator) HolidayContext(key event.BusinessKey, day time.Time) (float64, []string) {
	multiplier := 1.0
	var names []string
	for _, holiday := range g.holidays {
		if !holiday.Rule.Matches(day) {
			continue
		}
		names = append(names, holiday.Name)
		value := holiday.ModifierFor(key)
		if value <= 0 {
			return 0, names
		}
		multiplier *= value
	}
	return multiplier, names
}

// SeasonalMultiplier exposes the resolved month multiplier for a pattern,
// primarily for the driver's day-context logging.
func (g *Generator) SeasonalMultiplier(key event.BusinessKey, month time.Month, pattern *Pattern) float64 {
	if pattern == nil {
		pattern = &Pattern{}
	}
	return seasonalMultiplier(pattern, g.seasonality[key], month)
}

// drawAmount samples the pattern's amount range, snaps it to a five-cent
// grid, and applies inflation for the day.
func (g *Generator) drawAmount(pattern *Pattern, day time.Time) decimal.Decimal {
	if pattern.MinAmount.Equal(pattern.MaxAmount) {
		return g.inflation.Apply(pattern.MinAmount, day)
	}
	low, _ := pattern.MinAmount.Float64()
	high, _ := pattern.MaxAmount.Float64()
	// Mode sits toward the low end: most jobs are routine, a few are big.
	mode := low + (high-low)*0.3
	raw := triangular(g.rng, low, high, mode)
	snapped := math.Round(raw/0.05) * 0.05
	base := decimal.NewFromFloat(snapped).Round(2)
	return g.inflation.Apply(base, day)
}

// fillTemplate substitutes {placeholder} tokens with random sample data.
// Keys are visited in sorted order so the draw sequence is deterministic.
func (g *Generator) fillTemplate(template string) string {
	result := template
	for _, key := range g.templateKeys {
		placeholder := "{" + key + "}"
		if !strings.Contains(result, placeholder) {
			continue
		}
		values := g.templates[key]
		if len(values) == 0 {
			continue
		}
		result = strings.ReplaceAll(result, placeholder, values[g.rng.Intn(len(values))])
	}
	return result
}

// triangular samples a triangular distribution on [low, high] with the given
// mode.
func triangular(rng *rand.Rand, low, high, mode float64) float64 {
	u := rng.Float64()
	c := (mode - low) / (high - low)
	if u > c {
		u = 1 - u
		c = 1 - c
		low, high = high, low
	}
	return low + (high-low)*math.Sqrt(u*c)
}
