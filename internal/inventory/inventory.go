// Package inventory tracks per-item stock levels driven by daily business
// activity and reorders on a weekly check day when an item falls to its
// reorder level. Consumption is costed against unit cost to produce a daily
// cost-of-goods-sold summary.
package inventory

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/event"
)

// Driver selects what drives daily consumption.
type Driver string

const (
	// DriverRevenue derives sales volume from the day's revenue divided by
	// the average sale price.
	DriverRevenue Driver = "revenue"
	// DriverAppointments consumes a fixed daily visit count regardless of
	// revenue.
	DriverAppointments Driver = "appointments"
)

// ItemSpec is one stocked item.
type ItemSpec struct {
	SKU             string
	Name            string
	UnitCost        decimal.Decimal
	ConsumptionRate decimal.Decimal // units consumed per sale or visit
	ReorderLevel    decimal.Decimal
	ReorderQuantity decimal.Decimal
	Vendor          string
	Category        string
}

// Config is a business's inventory tracking setup.
type Config struct {
	Enabled           bool
	CheckDay          time.Weekday
	CostingMethod     string // informational; costing is unit-cost FIFO
	Driver            Driver
	AverageSalePrice  decimal.Decimal
	AverageVisitCount decimal.Decimal
	Items             []ItemSpec
}

// COGSSummary is the cost of one day's consumption.
type COGSSummary struct {
	Business  event.BusinessKey
	Date      time.Time
	TotalCOGS decimal.Decimal
	ByItem    map[string]decimal.Decimal
}

type levelKey struct {
	business event.BusinessKey
	sku      string
}

type orderKey struct {
	business event.BusinessKey
	sku      string
	isoYear  int
	isoWeek  int
}

// Scheduler owns stock levels and reorder state.
//
// Not safe for concurrent use.
type Scheduler struct {
	configs map[event.BusinessKey]Config
	levels  map[levelKey]decimal.Decimal
	ordered map[orderKey]bool
	logger  *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New builds a Scheduler. Every enabled item starts fully stocked at
// reorder level plus one reorder quantity.
func New(configs map[event.BusinessKey]Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		configs: configs,
		levels:  map[levelKey]decimal.Decimal{},
		ordered: map[orderKey]bool{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "inventory_scheduler")

	for key, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		for _, item := range cfg.Items {
			s.levels[levelKey{key, item.SKU}] = item.ReorderLevel.Add(item.ReorderQuantity)
		}
	}
	return s
}

// Level returns the current stock of an item.
func (s *Scheduler) Level(key event.BusinessKey, sku string) (decimal.Decimal, bool) {
	level, ok := s.levels[levelKey{key, sku}]
	return level, ok
}

// dailyVolume converts the day's activity into a sales or visit count.
func (cfg *Config) dailyVolume(revenue decimal.Decimal) decimal.Decimal {
	switch cfg.Driver {
	case DriverAppointments:
		return cfg.AverageVisitCount
	default:
		if !revenue.IsPositive() || !cfg.AverageSalePrice.IsPositive() {
			return decimal.Zero
		}
		return revenue.Div(cfg.AverageSalePrice)
	}
}

// RecordDailyActivity consumes stock for one day of business and returns the
// cost of what was consumed. Returns nil when nothing was consumed.
func (s *Scheduler) RecordDailyActivity(
	key event.BusinessKey,
	day time.Time,
	revenue decimal.Decimal,
) *COGSSummary {
	cfg, ok := s.configs[key]
	if !ok || !cfg.Enabled {
		return nil
	}
	volume := cfg.dailyVolume(revenue)
	if !volume.IsPositive() {
		return nil
	}

	total := decimal.Zero
	byItem := map[string]decimal.Decimal{}
	for _, item := range cfg.Items {
		consumed := item.ConsumptionRate.Mul(volume)
		if !consumed.IsPositive() {
			continue
		}
		lk := levelKey{key, item.SKU}
		s.levels[lk] = s.levels[lk].Sub(consumed)
		cost := consumed.Mul(item.UnitCost)
		byItem[item.SKU] = cost
		total = total.Add(cost)
	}
	if total.IsZero() {
		return nil
	}
	return &COGSSummary{
		Business:  key,
		Date:      dates.Day(day),
		TotalCOGS: total.Round(2),
		ByItem:    byItem,
	}
}

// GenerateDaily returns restock bills for items at or below their reorder
// level. Reorders happen only on the configured check day, at most once per
// item per ISO week, and restock immediately.
func (s *Scheduler) GenerateDaily(
	key event.BusinessKey,
	day time.Time,
	vendors []event.Party,
) []event.GeneratedTransaction {
	cfg, ok := s.configs[key]
	if !ok || !cfg.Enabled {
		return nil
	}
	day = dates.Day(day)
	if day.Weekday() != cfg.CheckDay {
		return nil
	}
	isoYear, isoWeek := dates.ISOWeekKey(day)

	var txs []event.GeneratedTransaction
	for _, item := range cfg.Items {
		lk := levelKey{key, item.SKU}
		if s.levels[lk].GreaterThan(item.ReorderLevel) {
			continue
		}
		week := orderKey{key, item.SKU, isoYear, isoWeek}
		if s.ordered[week] {
			continue
		}
		vendor := event.FindPartyByName(vendors, item.Vendor)
		if vendor == nil {
			s.logger.Warn("restock vendor not found, reorder skipped",
				"business", key, "sku", item.SKU, "vendor", item.Vendor)
			continue
		}
		vendorID := vendor.ID
		quantity := item.ReorderQuantity
		txs = append(txs, event.GeneratedTransaction{
			Type:        event.TypeBill,
			Description: "Inventory restock - " + item.Name,
			Amount:      quantity.Mul(item.UnitCost).Round(2),
			VendorID:    &vendorID,
			Metadata: map[string]any{
				event.MetaInventorySKU: item.SKU,
				"quantity":             quantity.IntPart(),
			},
		})
		s.ordered[week] = true
		s.levels[lk] = s.levels[lk].Add(quantity)
		s.logger.Info("inventory reorder",
			"business", key, "sku", item.SKU,
			"quantity", quantity.String(), "date", dates.Key(day))
	}
	return txs
}
