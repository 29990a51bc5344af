package gen

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/econ"
	"github.com/atlastown/bizsim/internal/event"
)

func testParty(name string) event.Party {
	return event.Party{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)), DisplayName: name}
}

func singlePatternConfig(key event.BusinessKey, p Pattern) Config {
	return Config{
		Patterns:    map[event.BusinessKey][]Pattern{key: {p}},
		Seasonality: map[event.BusinessKey]map[time.Month]float64{},
		DayPatterns: map[event.BusinessKey]map[time.Weekday]float64{},
	}
}

func TestGenerateDailyDeterministicForSeed(t *testing.T) {
	cfg := Config{
		Patterns: map[event.BusinessKey][]Pattern{
			"craig": {
				{
					Type:                event.TypeInvoice,
					DescriptionTemplate: "Landscaping - {location}",
					MinAmount:           decimal.NewFromInt(150),
					MaxAmount:           decimal.NewFromInt(800),
					Probability:         0.6,
				},
				{
					Type:                event.TypeBill,
					DescriptionTemplate: "Supplies from {supplier}",
					MinAmount:           decimal.NewFromInt(40),
					MaxAmount:           decimal.NewFromInt(300),
					Probability:         0.4,
				},
			},
		},
	}
	customers := []event.Party{testParty("Homeowner A"), testParty("Homeowner B")}
	vendors := []event.Party{testParty("Depot")}

	run := func() []event.GeneratedTransaction {
		g := New(cfg, WithSeed(42))
		var all []event.GeneratedTransaction
		day := dates.New(2025, time.March, 1)
		for i := 0; i < 60; i++ {
			all = append(all, g.GenerateDaily("craig", day.AddDate(0, 0, i), customers, vendors)...)
		}
		return all
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Type, second[i].Type)
		assert.Equal(t, first[i].Description, second[i].Description)
		assert.True(t, first[i].Amount.Equal(second[i].Amount),
			"amount mismatch at %d: %s vs %s", i, first[i].Amount, second[i].Amount)
		assert.Equal(t, first[i].CustomerID, second[i].CustomerID)
		assert.Equal(t, first[i].VendorID, second[i].VendorID)
	}
}

func TestSeasonalityShiftsVolume(t *testing.T) {
	// Craig's landscaping peaks in June (2.0x) and nearly stops in January
	// (0.2x); over a month of draws the ratio has to show up.
	cfg := singlePatternConfig("craig", Pattern{
		Type:                event.TypeInvoice,
		DescriptionTemplate: "Mowing",
		MinAmount:           decimal.NewFromInt(100),
		MaxAmount:           decimal.NewFromInt(200),
		Probability:         0.3,
	})
	cfg.Seasonality = DefaultSeasonality()
	customers := []event.Party{testParty("C")}

	count := func(year int, month time.Month) int {
		g := New(cfg, WithSeed(7))
		total := 0
		days := dates.DaysIn(year, month)
		for d := 1; d <= days; d++ {
			total += len(g.GenerateDaily("craig", dates.New(year, month, d), customers, nil))
		}
		return total
	}

	june := count(2025, time.June)
	january := count(2025, time.January)
	assert.Greater(t, june, january*3, "june=%d january=%d", june, january)
}

func TestPatternSeasonalOverrideWinsOverBusiness(t *testing.T) {
	pattern := Pattern{SeasonalMultipliers: map[time.Month]float64{time.June: 0.5}}
	business := map[time.Month]float64{time.June: 2.0, time.July: 1.5}

	assert.Equal(t, 0.5, seasonalMultiplier(&pattern, business, time.June))
	assert.Equal(t, 1.5, seasonalMultiplier(&pattern, business, time.July))
	assert.Equal(t, 1.0, seasonalMultiplier(&pattern, business, time.August))
}

func TestWeekdayOnlySkipsWeekends(t *testing.T) {
	cfg := singlePatternConfig("tony", Pattern{
		Type:                event.TypeInvoice,
		DescriptionTemplate: "Repair",
		MinAmount:           decimal.NewFromInt(50),
		MaxAmount:           decimal.NewFromInt(60),
		Probability:         1.0,
		WeekdayOnly:         true,
	})
	g := New(cfg, WithSeed(1))
	customers := []event.Party{testParty("C")}

	saturday := dates.New(2025, time.March, 1)
	require.True(t, dates.IsWeekend(saturday))
	assert.Empty(t, g.GenerateDaily("tony", saturday, customers, nil))

	monday := dates.New(2025, time.March, 3)
	require.False(t, dates.IsWeekend(monday))
	assert.Len(t, g.GenerateDaily("tony", monday, customers, nil), 1)
}

func TestMissingCounterpartySkipsPattern(t *testing.T) {
	cfg := Config{
		Patterns: map[event.BusinessKey][]Pattern{
			"maya": {
				{Type: event.TypeInvoice, DescriptionTemplate: "Job", MinAmount: decimal.NewFromInt(10), MaxAmount: decimal.NewFromInt(20), Probability: 1.0},
				{Type: event.TypeBill, DescriptionTemplate: "Parts", MinAmount: decimal.NewFromInt(10), MaxAmount: decimal.NewFromInt(20), Probability: 1.0},
			},
		},
		Seasonality: map[event.BusinessKey]map[time.Month]float64{},
		DayPatterns: map[event.BusinessKey]map[time.Weekday]float64{},
	}
	g := New(cfg, WithSeed(3))
	day := dates.New(2025, time.April, 2)

	// No counterparties at all: both patterns skip cleanly.
	assert.Empty(t, g.GenerateDaily("maya", day, nil, nil))

	// Customers only: the invoice fires, the bill still skips.
	txs := New(cfg, WithSeed(3)).GenerateDaily("maya", day, []event.Party{testParty("C")}, nil)
	require.Len(t, txs, 1)
	assert.Equal(t, event.TypeInvoice, txs[0].Type)
}

func TestDrawAmountStaysInRangeOnNickelGrid(t *testing.T) {
	cfg := singlePatternConfig("chen", Pattern{
		Type:                event.TypeCashSale,
		DescriptionTemplate: "Sale",
		MinAmount:           decimal.NewFromFloat(12.50),
		MaxAmount:           decimal.NewFromFloat(96.25),
		Probability:         1.0,
	})
	g := New(cfg, WithSeed(99))
	nickel := decimal.NewFromFloat(0.05)

	for i := 0; i < 200; i++ {
		amount := g.drawAmount(&g.patterns["chen"][0], dates.New(2025, time.May, 5))
		assert.True(t, amount.GreaterThanOrEqual(decimal.NewFromFloat(12.45)), "amount %s below range", amount)
		assert.True(t, amount.LessThanOrEqual(decimal.NewFromFloat(96.30)), "amount %s above range", amount)
		assert.True(t, amount.Mod(nickel).IsZero(), "amount %s not on five-cent grid", amount)
	}
}

func TestDrawAmountFixedRangeAppliesInflation(t *testing.T) {
	model := econ.New(decimal.NewFromFloat(0.10), dates.New(2023, time.January, 1))
	cfg := singlePatternConfig("chen", Pattern{
		Type:        event.TypeBill,
		MinAmount:   decimal.NewFromInt(100),
		MaxAmount:   decimal.NewFromInt(100),
		Probability: 1.0,
	})
	g := New(cfg, WithSeed(1), WithInflation(model))

	amount := g.drawAmount(&g.patterns["chen"][0], dates.New(2024, time.January, 1))
	assert.Equal(t, "110", amount.String())
}

func TestPaymentReceivedSettlesPendingInvoice(t *testing.T) {
	cfg := singlePatternConfig("maya", Pattern{
		Type:                event.TypePaymentReceived,
		DescriptionTemplate: "Payment received",
		Probability:         1.0,
	})
	g := New(cfg, WithSeed(11))
	customerID := testParty("Client").ID
	day := dates.New(2025, time.June, 10)

	invoice := PendingInvoice{
		ID:         "inv-1",
		Number:     "1042",
		CustomerID: &customerID,
		AmountDue:  decimal.NewFromFloat(420.75),
		DueDate:    day.AddDate(0, 0, -5),
	}

	// A fresh invoice pays at 0.80 per day; by day 20 it should have fired.
	var got *event.GeneratedTransaction
	for i := 0; i < 20 && got == nil; i++ {
		txs := g.GenerateDaily("maya", day.AddDate(0, 0, i), nil, nil, WithPendingInvoices([]PendingInvoice{invoice}))
		if len(txs) > 0 {
			got = &txs[0]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, event.TypePaymentReceived, got.Type)
	assert.Equal(t, "Payment received - Invoice #1042", got.Description)
	assert.True(t, got.Amount.Equal(invoice.AmountDue))
	assert.Equal(t, "inv-1", got.Metadata["invoice_id"])
}

func TestPaymentProbabilityAgingBuckets(t *testing.T) {
	day := dates.New(2025, time.July, 1)
	cases := []struct {
		overdueDays int
		want        float64
	}{
		{0, 0.80},
		{30, 0.80},
		{31, 0.60},
		{60, 0.60},
		{61, 0.40},
		{90, 0.40},
		{91, 0.20},
		{120, 0.20},
		{121, 0.05},
		{400, 0.05},
	}
	for _, tc := range cases {
		invoice := PendingInvoice{DueDate: day.AddDate(0, 0, -tc.overdueDays)}
		assert.Equal(t, tc.want, paymentProbability(&invoice, day), "overdue %d days", tc.overdueDays)
	}

	// Invoices not yet due pay at the freshest rate.
	future := PendingInvoice{DueDate: day.AddDate(0, 0, 10)}
	assert.Equal(t, 0.80, paymentProbability(&future, day))

	// No dates at all means no payment draw.
	assert.Equal(t, 0.0, paymentProbability(&PendingInvoice{}, day))
}

func TestHolidayClosureSuppressesGeneration(t *testing.T) {
	cfg := singlePatternConfig("chen", Pattern{
		Type:                event.TypeCashSale,
		DescriptionTemplate: "Sale",
		MinAmount:           decimal.NewFromInt(10),
		MaxAmount:           decimal.NewFromInt(20),
		Probability:         1.0,
	})
	cfg.Holidays = []Holiday{
		{
			Name:            "Thanksgiving",
			Rule:            HolidayRule{Kind: RuleNthWeekday, Month: time.November, Weekday: time.Thursday, Nth: 4},
			DefaultModifier: 1.5,
			Modifiers:       map[event.BusinessKey]float64{"chen": 0},
		},
	}
	g := New(cfg, WithSeed(5))
	customers := []event.Party{testParty("C")}

	thanksgiving := dates.New(2025, time.November, 27)
	assert.Empty(t, g.GenerateDaily("chen", thanksgiving, customers, nil))

	mult, names := g.HolidayContext("chen", thanksgiving)
	assert.Zero(t, mult)
	assert.Equal(t, []string{"Thanksgiving"}, names)

	dayAfter := dates.New(2025, time.November, 28)
	assert.NotEmpty(t, g.GenerateDaily("chen", dayAfter, customers, nil))
}

func TestHourlyModeRespectsActiveHours(t *testing.T) {
	cfg := singlePatternConfig("chen", Pattern{
		Type:                event.TypeCashSale,
		DescriptionTemplate: "Lunch special",
		MinAmount:           decimal.NewFromInt(10),
		MaxAmount:           decimal.NewFromInt(30),
		Probability:         1.0,
		ActiveHours:         &HourRange{Start: 12, End: 13},
	})
	g := New(cfg, WithSeed(8))
	customers := []event.Party{testParty("C")}
	day := dates.New(2025, time.September, 3)

	// The morning phase never overlaps the pattern's noon window.
	morning := g.GenerateDaily("chen", day, customers, nil, InPhase(event.PhaseMorning), Hourly())
	assert.Empty(t, morning)

	lunch := g.GenerateDaily("chen", day, customers, nil, InPhase(event.PhaseLunch), Hourly())
	assert.NotEmpty(t, lunch)
}

func TestFillTemplateSubstitutesAllPlaceholders(t *testing.T) {
	cfg := Config{
		Templates: map[string][]string{
			"location": {"Maple St"},
			"supplier": {"Depot"},
		},
	}
	g := New(cfg, WithSeed(1))
	assert.Equal(t, "Job at Maple St via Depot", g.fillTemplate("Job at {location} via {supplier}"))
	assert.Equal(t, "No tokens here", g.fillTemplate("No tokens here"))
}

func TestDefaultTablesCoverAllBusinesses(t *testing.T) {
	keys := []event.BusinessKey{"craig", "tony", "maya", "chen", "marcus"}
	seasonality := DefaultSeasonality()
	days := DefaultDayPatterns()
	for _, key := range keys {
		assert.Contains(t, seasonality, key)
		assert.Contains(t, days, key)
	}
	assert.Equal(t, 2.0, seasonality["craig"][time.June])
	assert.Equal(t, 0.2, seasonality["craig"][time.January])
}
