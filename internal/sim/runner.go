// Package sim drives the whole engine across a calendar window: it walks
// day by day, invokes every scheduler for every business, journals what
// fired, and only then commits scheduler state (pair seen, tax created,
// tax paid) so a crashed run resumes without double-booking.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/b2b"
	"github.com/atlastown/bizsim/internal/config"
	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/econ"
	"github.com/atlastown/bizsim/internal/event"
	"github.com/atlastown/bizsim/internal/financing"
	"github.com/atlastown/bizsim/internal/gen"
	"github.com/atlastown/bizsim/internal/inventory"
	"github.com/atlastown/bizsim/internal/journal"
	"github.com/atlastown/bizsim/internal/payroll"
	"github.com/atlastown/bizsim/internal/recurring"
	"github.com/atlastown/bizsim/internal/tax"
)

// Sink receives the journaled output of a run. *journal.Store satisfies it;
// tests use an in-memory implementation.
type Sink interface {
	RecordRun(ctx context.Context, run journal.Run) error
	AppendBatch(ctx context.Context, entries []journal.Entry) error
}

// Params identify one run.
type Params struct {
	RunID string
	Seed  int64
	Start time.Time
	End   time.Time
}

// Stats summarizes a completed run.
type Stats struct {
	Days      int
	Entries   int
	Revenue   decimal.Decimal
	Expenses  decimal.Decimal
	TotalCOGS decimal.Decimal
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithInflation overrides the inflation model derived from the personas.
func WithInflation(m econ.InflationModel) Option {
	return func(r *Runner) {
		r.inflation = m
		r.inflationSet = true
	}
}

// WithDirectory overrides the party directory derived from the personas.
func WithDirectory(d Directory) Option {
	return func(r *Runner) {
		r.dir = d
		r.dirSet = true
	}
}

// Runner owns one run's scheduler instances and bookkeeping.
//
// Not safe for concurrent use.
type Runner struct {
	registry *config.Registry
	params   Params
	dir      Directory
	dirSet   bool
	logger   *slog.Logger

	inflation    econ.InflationModel
	inflationSet bool

	gen       *gen.Generator
	recurring *recurring.Scheduler
	payroll   *payroll.Generator
	financing *financing.Scheduler
	inventory *inventory.Scheduler
	tax       *tax.Scheduler
	b2b       *b2b.Coordinator

	seq          int64
	invoiceSeq   map[event.BusinessKey]int
	openInvoices map[event.BusinessKey][]gen.PendingInvoice
	stats        Stats
}

// New builds a Runner over loaded personas. When no explicit inflation model
// is given, the first persona (in key order) that declares one wins.
func New(registry *config.Registry, params Params, opts ...Option) *Runner {
	r := &Runner{
		registry:     registry,
		params:       params,
		logger:       slog.Default(),
		inflation:    econ.Disabled(),
		invoiceSeq:   map[event.BusinessKey]int{},
		openInvoices: map[event.BusinessKey][]gen.PendingInvoice{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "runner", "run", params.RunID)

	if !r.dirSet {
		r.dir = BuildDirectory(registry)
	}
	if !r.inflationSet {
		for _, key := range registry.Keys() {
			persona, _ := registry.Persona(key)
			if persona.HasInflation {
				r.inflation = persona.Inflation
				break
			}
		}
	}

	r.gen = gen.New(registry.GeneratorConfig(),
		gen.WithSeed(params.Seed),
		gen.WithInflation(r.inflation),
		gen.WithLogger(r.logger),
	)
	r.recurring = recurring.New(registry.RecurringSpecs(),
		recurring.WithInflation(r.inflation),
		recurring.WithLogger(r.logger),
	)
	r.payroll = payroll.New(registry.EmployeeRosters(), registry.PayrollConfigs(),
		payroll.WithInflation(r.inflation),
		payroll.WithLogger(r.logger),
	)
	loans, locs, equipment := registry.FinancingSpecs()
	r.financing = financing.New(loans, locs, equipment,
		financing.WithLogger(r.logger),
	)
	r.inventory = inventory.New(registry.InventoryConfigs(),
		inventory.WithLogger(r.logger),
	)
	r.tax = tax.New(registry.TaxConfigs())
	r.b2b = b2b.New(r.dir.Orgs, registry.B2BConfigs(),
		b2b.WithInflation(r.inflation),
	)

	return r
}

// Run walks every day of the window, journaling as it goes. The returned
// stats cover the whole run.
func (r *Runner) Run(ctx context.Context, sink Sink) (Stats, error) {
	start := dates.Day(r.params.Start)
	end := dates.Day(r.params.End)
	if end.Before(start) {
		return Stats{}, fmt.Errorf("run %s: end date %s before start date %s",
			r.params.RunID, dates.Key(end), dates.Key(start))
	}

	err := sink.RecordRun(ctx, journal.Run{
		ID:        r.params.RunID,
		Seed:      r.params.Seed,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("run %s: %w", r.params.RunID, err)
	}

	r.logger.Info("run started",
		"start", dates.Key(start),
		"end", dates.Key(end),
		"seed", r.params.Seed,
		"businesses", len(r.registry.Keys()),
	)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return r.stats, fmt.Errorf("run %s: %w", r.params.RunID, err)
		}
		if err := r.runDay(ctx, sink, day); err != nil {
			return r.stats, fmt.Errorf("run %s day %s: %w", r.params.RunID, dates.Key(day), err)
		}
		r.stats.Days++
	}

	r.logger.Info("run finished",
		"days", r.stats.Days,
		"entries", r.stats.Entries,
		"revenue", r.stats.Revenue.String(),
		"expenses", r.stats.Expenses.String(),
	)
	return r.stats, nil
}

// runDay generates one day's entries across all businesses, journals them
// atomically, then commits the deferred scheduler marks.
func (r *Runner) runDay(ctx context.Context, sink Sink, day time.Time) error {
	var entries []journal.Entry
	var marks []func()

	for _, key := range r.registry.Keys() {
		customers := r.dir.Customers[key]
		vendors := r.dir.Vendors[key]

		txs := r.gen.GenerateDaily(key, day, customers, vendors,
			gen.WithPendingInvoices(r.openInvoices[key]))
		txs = append(txs, r.recurring.GenerateDaily(key, day, vendors)...)
		txs = append(txs, r.payroll.GenerateDaily(key, day, vendors)...)
		txs = append(txs, r.financing.GenerateDaily(key, day, vendors)...)

		if cogs := r.inventory.RecordDailyActivity(key, day, salesRevenue(txs)); cogs != nil {
			r.stats.TotalCOGS = r.stats.TotalCOGS.Add(cogs.TotalCOGS)
			r.logger.Debug("cogs recorded",
				"business", key,
				"date", dates.Key(day),
				"total", cogs.TotalCOGS.String(),
			)
		}
		txs = append(txs, r.inventory.GenerateDaily(key, day, vendors)...)

		taxTxs, taxMarks := r.taxActions(key, day, vendors)
		txs = append(txs, taxTxs...)
		marks = append(marks, taxMarks...)

		for i := range txs {
			entries = append(entries, r.toEntry(key, day, &txs[i]))
		}
	}

	pairEntries, pairMarks := r.planB2B(day)
	entries = append(entries, pairEntries...)
	marks = append(marks, pairMarks...)

	if err := sink.AppendBatch(ctx, entries); err != nil {
		return err
	}
	for _, mark := range marks {
		mark()
	}
	r.stats.Entries += len(entries)
	return nil
}

// taxActions converts due quarterly tax steps into transactions. Marks are
// deferred until the day's batch lands in the journal; a missing tax vendor
// leaves the action unmarked so it retries the next day.
func (r *Runner) taxActions(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) ([]event.GeneratedTransaction, []func()) {
	var txs []event.GeneratedTransaction
	var marks []func()

	for _, action := range r.tax.ActionsFor(key, day) {
		vendor := event.FindPartyByName(vendors, action.TaxVendor)
		if vendor == nil {
			r.logger.Warn("tax vendor not found",
				"business", key,
				"vendor", action.TaxVendor,
			)
			continue
		}

		vendorID := vendor.ID
		tx := event.GeneratedTransaction{
			Amount:   action.EstimatedTax,
			VendorID: &vendorID,
			Metadata: map[string]any{
				"tax_year": fmt.Sprintf("%d", action.TaxYear),
				"quarter":  fmt.Sprintf("%d", action.Quarter),
				"due_date": dates.Key(action.DueDate),
			},
		}
		switch action.Kind {
		case tax.ActionCreate:
			tx.Type = event.TypeBill
			tx.Description = fmt.Sprintf("Estimated tax payment - Q%d %d", action.Quarter, action.TaxYear)
		case tax.ActionPay:
			tx.Type = event.TypeBillPayment
			tx.Description = fmt.Sprintf("Estimated tax paid - Q%d %d", action.Quarter, action.TaxYear)
		default:
			continue
		}
		txs = append(txs, tx)

		taxYear, quarter, kind := action.TaxYear, action.Quarter, action.Kind
		marks = append(marks, func() {
			if kind == tax.ActionCreate {
				r.tax.MarkCreated(key, taxYear, quarter)
			} else {
				r.tax.MarkPaid(key, taxYear, quarter)
			}
		})
	}
	return txs, marks
}

// planB2B turns the day's cross-business pairs into journal entries: an
// invoice for the seller, a bill for the buyer, and when the pair settles
// same-day, the matching payment on each side.
func (r *Runner) planB2B(day time.Time) ([]journal.Entry, []func()) {
	var entries []journal.Entry
	var marks []func()

	for _, pair := range r.b2b.PlanPairs(day, r.dir.Customers) {
		buyerID := pair.BuyerOrgID
		sellerID := pair.SellerOrgID
		// Each entry gets its own metadata map; toEntry mutates it.
		pairMeta := func() map[string]any {
			return map[string]any{
				event.MetaB2BPairID: pair.PairID,
				"due_date":          dates.Key(pair.DueDate),
			}
		}

		invoice := event.GeneratedTransaction{
			Type:        event.TypeInvoice,
			Description: pair.Description,
			Amount:      pair.Amount,
			CustomerID:  &buyerID,
			Metadata:    pairMeta(),
		}
		entries = append(entries, r.toEntry(pair.SellerKey, day, &invoice))

		bill := event.GeneratedTransaction{
			Type:        event.TypeBill,
			Description: pair.Description,
			Amount:      pair.Amount,
			VendorID:    &sellerID,
			Metadata:    pairMeta(),
		}
		entries = append(entries, r.toEntry(pair.BuyerKey, day, &bill))

		if pair.PaymentFlow == "same_day" {
			payment := event.GeneratedTransaction{
				Type:        event.TypePaymentReceived,
				Description: "Payment received - " + pair.Description,
				Amount:      pair.Amount,
				CustomerID:  &buyerID,
				Metadata:    pairMeta(),
			}
			entries = append(entries, r.toEntry(pair.SellerKey, day, &payment))

			settle := event.GeneratedTransaction{
				Type:        event.TypeBillPayment,
				Description: "Payment sent - " + pair.Description,
				Amount:      pair.Amount,
				VendorID:    &sellerID,
				Metadata:    pairMeta(),
			}
			entries = append(entries, r.toEntry(pair.BuyerKey, day, &settle))
		}

		pairID := pair.PairID
		marks = append(marks, func() { r.b2b.MarkPairSeen(pairID) })
	}
	return entries, marks
}

// toEntry converts one generated transaction to a journal entry, assigning
// the next logical sequence number and keeping the runner's receivable and
// vendor-payment bookkeeping current.
func (r *Runner) toEntry(
	key event.BusinessKey,
	day time.Time,
	tx *event.GeneratedTransaction,
) journal.Entry {
	r.seq++
	e := journal.Entry{
		ID:          journal.EntryID(r.params.RunID, r.seq),
		RunID:       r.params.RunID,
		Seq:         r.seq,
		Business:    key,
		Date:        dates.Day(day),
		Type:        tx.Type,
		Description: tx.Description,
		Amount:      tx.Amount,
		CustomerID:  tx.CustomerID,
		VendorID:    tx.VendorID,
		Metadata:    tx.Metadata,
	}

	switch {
	case tx.Type.IsRevenue():
		r.stats.Revenue = r.stats.Revenue.Add(tx.Amount)
	case tx.Type.IsExpense():
		r.stats.Expenses = r.stats.Expenses.Add(tx.Amount)
	}

	switch tx.Type {
	case event.TypeInvoice:
		r.invoiceSeq[key]++
		number := fmt.Sprintf("INV-%04d", r.invoiceSeq[key])
		tx.Meta()["invoice_number"] = number
		e.Metadata = tx.Metadata
		// Cross-business invoices settle through the pair's own payment
		// flow, not the retail receivables pool.
		if _, b2bPair := e.Metadata[event.MetaB2BPairID]; !b2bPair {
			r.openInvoices[key] = append(r.openInvoices[key], gen.PendingInvoice{
				ID:          e.ID.String(),
				Number:      number,
				CustomerID:  tx.CustomerID,
				AmountDue:   tx.Amount,
				InvoiceDate: e.Date,
				DueDate:     e.Date.AddDate(0, 0, 30),
			})
		}
	case event.TypePaymentReceived:
		if id, ok := tx.Metadata["invoice_id"].(string); ok {
			r.settleInvoice(key, id)
		}
	case event.TypeBillPayment:
		if tx.VendorID != nil {
			r.payroll.RecordVendorPayment(key, day, *tx.VendorID,
				r.dir.VendorCategory(*tx.VendorID), tx.Amount)
		}
	}
	return e
}

func (r *Runner) settleInvoice(key event.BusinessKey, invoiceID string) {
	open := r.openInvoices[key]
	for i := range open {
		if open[i].ID == invoiceID {
			r.openInvoices[key] = append(open[:i:i], open[i+1:]...)
			return
		}
	}
}

// salesRevenue sums the day's new sales. Settlements of older invoices do
// not drive inventory consumption.
func salesRevenue(txs []event.GeneratedTransaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txs {
		switch txs[i].Type {
		case event.TypeInvoice, event.TypeCashSale:
			total = total.Add(txs[i].Amount)
		}
	}
	return total
}
