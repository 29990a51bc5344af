package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/event"
)

var supplier = event.Party{
	ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("supplier")),
	DisplayName: "Test Supplier",
	Category:    "supplies",
}

func suppliers() []event.Party { return []event.Party{supplier} }

func flourConfig() map[event.BusinessKey]Config {
	return map[event.BusinessKey]Config{
		"chen": {
			Enabled:          true,
			CheckDay:         time.Monday,
			CostingMethod:    "fifo",
			Driver:           DriverRevenue,
			AverageSalePrice: decimal.NewFromInt(20),
			Items: []ItemSpec{{
				SKU:             "FLOUR-50LB",
				Name:            "Pizza Flour",
				UnitCost:        decimal.NewFromInt(24),
				ConsumptionRate: decimal.NewFromFloat(0.1),
				ReorderLevel:    decimal.NewFromInt(10),
				ReorderQuantity: decimal.NewFromInt(20),
				Vendor:          "Test Supplier",
				Category:        "ingredients",
			}},
		},
	}
}

func TestConsumptionLowersStockLevels(t *testing.T) {
	s := New(flourConfig())

	// Initial level is reorder level + reorder quantity = 30.
	level, ok := s.Level("chen", "FLOUR-50LB")
	require.True(t, ok)
	assert.Equal(t, "30", level.String())

	// $200 revenue at $20/sale = 10 sales x 0.1 units.
	s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.NewFromInt(200))
	// $400 revenue = 2 more units.
	s.RecordDailyActivity("chen", dates.New(2024, time.January, 3), decimal.NewFromInt(400))

	level, _ = s.Level("chen", "FLOUR-50LB")
	assert.Equal(t, "27", level.String())
}

func TestCOGSFromUnitCosts(t *testing.T) {
	configs := flourConfig()
	cfg := configs["chen"]
	cfg.Items = append(cfg.Items, ItemSpec{
		SKU:             "CHEESE-5LB",
		Name:            "Mozzarella Cheese",
		UnitCost:        decimal.NewFromFloat(18.50),
		ConsumptionRate: decimal.NewFromFloat(0.25),
		ReorderLevel:    decimal.NewFromInt(20),
		ReorderQuantity: decimal.NewFromInt(40),
		Vendor:          "Test Supplier",
		Category:        "ingredients",
	})
	configs["chen"] = cfg
	s := New(configs)

	// $200 revenue = 10 sales. Flour 1 x $24, cheese 2.5 x $18.50 = $46.25.
	summary := s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.NewFromInt(200))
	require.NotNil(t, summary)
	assert.Equal(t, event.BusinessKey("chen"), summary.Business)
	assert.Equal(t, "70.25", summary.TotalCOGS.String())
	assert.Equal(t, "24", summary.ByItem["FLOUR-50LB"].String())
	assert.Equal(t, "46.25", summary.ByItem["CHEESE-5LB"].String())
}

func TestNoConsumptionReturnsNilSummary(t *testing.T) {
	s := New(flourConfig())
	assert.Nil(t, s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.Zero))
	assert.Nil(t, s.RecordDailyActivity("unknown", dates.New(2024, time.January, 2), decimal.NewFromInt(500)))
}

func TestReorderOnlyOnCheckDay(t *testing.T) {
	s := New(flourConfig())

	// Deplete to 5, below the reorder level of 10.
	s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.NewFromInt(5000))
	level, _ := s.Level("chen", "FLOUR-50LB")
	assert.Equal(t, "5", level.String())

	// Tuesday: no reorder even though stock is low.
	assert.Empty(t, s.GenerateDaily("chen", dates.New(2024, time.January, 2), suppliers()))

	// Monday: reorder fires.
	txs := s.GenerateDaily("chen", dates.New(2024, time.January, 8), suppliers())
	require.Len(t, txs, 1)
	assert.Equal(t, event.TypeBill, txs[0].Type)
	assert.Equal(t, "Inventory restock - Pizza Flour", txs[0].Description)
	// 20 units x $24.
	assert.Equal(t, "480", txs[0].Amount.String())
	require.NotNil(t, txs[0].VendorID)
	assert.Equal(t, supplier.ID, *txs[0].VendorID)
	assert.Equal(t, "FLOUR-50LB", txs[0].Metadata[event.MetaInventorySKU])
	assert.Equal(t, int64(20), txs[0].Metadata["quantity"])

	// The order replenishes stock immediately.
	level, _ = s.Level("chen", "FLOUR-50LB")
	assert.Equal(t, "25", level.String())
}

func TestNoDuplicateOrderSameWeek(t *testing.T) {
	s := New(flourConfig())
	s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.NewFromInt(5000))

	monday := dates.New(2024, time.January, 8)
	require.Len(t, s.GenerateDaily("chen", monday, suppliers()), 1)
	assert.Empty(t, s.GenerateDaily("chen", monday, suppliers()))
}

func TestAppointmentDriverConsumesFixedVolume(t *testing.T) {
	configs := map[event.BusinessKey]Config{
		"tony": {
			Enabled:           true,
			CheckDay:          time.Monday,
			Driver:            DriverAppointments,
			AverageVisitCount: decimal.NewFromInt(12),
			Items: []ItemSpec{{
				SKU:             "GLOVES-M",
				Name:            "Nitrile Gloves",
				UnitCost:        decimal.NewFromFloat(12.50),
				ConsumptionRate: decimal.NewFromFloat(0.05),
				ReorderLevel:    decimal.NewFromInt(20),
				ReorderQuantity: decimal.NewFromInt(40),
				Vendor:          "Test Supplier",
			}},
		},
	}
	s := New(configs)

	// Five days, 12 visits x 0.05 = 0.6 units each; revenue is ignored.
	for d := 1; d <= 5; d++ {
		s.RecordDailyActivity("tony", dates.New(2024, time.January, d), decimal.Zero)
	}
	level, _ := s.Level("tony", "GLOVES-M")
	assert.Equal(t, "57", level.String())

	// Still above the reorder level: no order on check day.
	assert.Empty(t, s.GenerateDaily("tony", dates.New(2024, time.January, 8), suppliers()))
}

func TestItemsReorderIndependently(t *testing.T) {
	configs := map[event.BusinessKey]Config{
		"chen": {
			Enabled:          true,
			CheckDay:         time.Monday,
			Driver:           DriverRevenue,
			AverageSalePrice: decimal.NewFromInt(10),
			Items: []ItemSpec{
				{
					SKU: "ITEM-A", Name: "Item A",
					UnitCost:        decimal.NewFromInt(5),
					ConsumptionRate: decimal.NewFromInt(1),
					ReorderLevel:    decimal.NewFromInt(10),
					ReorderQuantity: decimal.NewFromInt(20),
					Vendor:          "Test Supplier",
				},
				{
					SKU: "ITEM-B", Name: "Item B",
					UnitCost:        decimal.NewFromInt(10),
					ConsumptionRate: decimal.NewFromFloat(0.1),
					ReorderLevel:    decimal.NewFromInt(10),
					ReorderQuantity: decimal.NewFromInt(20),
					Vendor:          "Test Supplier",
				},
			},
		},
	}
	s := New(configs)

	// $200 = 20 sales: A drops to 10 (reorder), B to 28 (fine).
	s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.NewFromInt(200))

	txs := s.GenerateDaily("chen", dates.New(2024, time.January, 8), suppliers())
	require.Len(t, txs, 1)
	assert.Equal(t, "ITEM-A", txs[0].Metadata[event.MetaInventorySKU])
	assert.Equal(t, "100", txs[0].Amount.String())
}

func TestMissingVendorSkipsReorder(t *testing.T) {
	s := New(flourConfig())
	s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.NewFromInt(5000))

	// Wrong vendor list: nothing billed, nothing marked ordered.
	other := event.Party{ID: uuid.New(), DisplayName: "Somebody Else"}
	assert.Empty(t, s.GenerateDaily("chen", dates.New(2024, time.January, 8), []event.Party{other}))

	// The next week with the right vendor, the reorder goes through.
	txs := s.GenerateDaily("chen", dates.New(2024, time.January, 15), suppliers())
	assert.Len(t, txs, 1)
}

func TestDisabledConfigIsInert(t *testing.T) {
	configs := flourConfig()
	cfg := configs["chen"]
	cfg.Enabled = false
	configs["chen"] = cfg
	s := New(configs)

	assert.Nil(t, s.RecordDailyActivity("chen", dates.New(2024, time.January, 2), decimal.NewFromInt(200)))
	assert.Empty(t, s.GenerateDaily("chen", dates.New(2024, time.January, 8), suppliers()))
	_, ok := s.Level("chen", "FLOUR-50LB")
	assert.False(t, ok)
}
