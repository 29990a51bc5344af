package payroll

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

var (
	payrollVendor = event.Party{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("gusto")),
		DisplayName: "Gusto Payroll",
		Category:    "payroll",
	}
	taxAuthority = event.Party{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("irs")),
		DisplayName: "IRS",
		Category:    "tax",
	}
	contractor = event.Party{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("plow")),
		DisplayName: "Pete's Plowing",
		Category:    "services",
	}
)

func allVendors() []event.Party {
	return []event.Party{payrollVendor, taxAuthority, contractor}
}

func biWeeklyGenerator(rate, hours float64) *Generator {
	return New(
		map[event.BusinessKey][]EmployeeSpec{
			"craig": {{
				Role:         "crew",
				Count:        2,
				PayRate:      decimal.NewFromFloat(rate),
				HoursPerWeek: decimal.NewFromFloat(hours),
			}},
		},
		map[event.BusinessKey]Config{
			"craig": {
				Frequency:     BiWeekly,
				PayDay:        OnWeekday(time.Friday),
				PayrollVendor: "Gusto Payroll",
				TaxAuthority:  "IRS",
			},
		},
	)
}

func TestNormalizeFrequency(t *testing.T) {
	assert.Equal(t, Weekly, NormalizeFrequency("Weekly"))
	assert.Equal(t, BiWeekly, NormalizeFrequency("biweekly"))
	assert.Equal(t, BiWeekly, NormalizeFrequency("bi_weekly"))
	assert.Equal(t, Monthly, NormalizeFrequency(" monthly "))
	assert.Equal(t, BiWeekly, NormalizeFrequency("fortnightly"))
}

func TestParsePayDay(t *testing.T) {
	pd, err := ParsePayDay("friday")
	require.NoError(t, err)
	assert.True(t, pd.hasWeekday)
	assert.Equal(t, time.Friday, pd.weekday)

	pd, err = ParsePayDay(" Friday ")
	require.NoError(t, err)
	assert.True(t, pd.hasWeekday)
	assert.Equal(t, time.Friday, pd.weekday)

	pd, err = ParsePayDay("15")
	require.NoError(t, err)
	assert.False(t, pd.hasWeekday)
	assert.Equal(t, 15, pd.dayOfMonth)

	_, err = ParsePayDay("someday")
	assert.Error(t, err)
}

func TestBiWeeklyRunFiresEveryOtherFriday(t *testing.T) {
	g := biWeeklyGenerator(20, 40)
	vendors := allVendors()

	// 2025-03-07 is a Friday.
	first := dates.New(2025, time.March, 7)
	require.Equal(t, time.Friday, first.Weekday())

	txs := g.GenerateDaily("craig", first, vendors)
	require.Len(t, txs, 1)
	run := txs[0]
	assert.Equal(t, event.TypeBill, run.Type)
	assert.Equal(t, "Payroll (bi-weekly) - 2 crew", run.Description)
	// 2 employees x $20/h x 40h x 2 weeks.
	assert.Equal(t, "3200", run.Amount.String())
	require.NotNil(t, run.VendorID)
	assert.Equal(t, payrollVendor.ID, *run.VendorID)
	assert.Equal(t, "198.4", run.Metadata["tax_social_security"])
	assert.Equal(t, "46.4", run.Metadata["tax_medicare"])
	assert.Equal(t, "384", run.Metadata["tax_withholding"])

	// The next Friday the gap is only 7 days.
	assert.Empty(t, g.GenerateDaily("craig", first.AddDate(0, 0, 7), vendors))
	// Two weeks out it runs again.
	assert.Len(t, g.GenerateDaily("craig", first.AddDate(0, 0, 14), vendors), 1)
}

func TestMonthlyRunOnFixedDayOncePerMonth(t *testing.T) {
	g := New(
		map[event.BusinessKey][]EmployeeSpec{
			"chen": {{Role: "cook", Count: 1, PayRate: decimal.NewFromInt(25), HoursPerWeek: decimal.NewFromInt(40)}},
		},
		map[event.BusinessKey]Config{
			"chen": {Frequency: Monthly, PayDay: OnDayOfMonth(1), PayrollVendor: "Gusto Payroll", TaxAuthority: "IRS"},
		},
	)
	vendors := allVendors()

	txs := g.GenerateDaily("chen", dates.New(2025, time.May, 1), vendors)
	require.Len(t, txs, 1)
	// 1 x $25/h x 40h x 4 weeks.
	assert.Equal(t, "4000", txs[0].Amount.String())

	// Replaying the same day or any other day that month produces nothing.
	assert.Empty(t, g.GenerateDaily("chen", dates.New(2025, time.May, 1), vendors))
	assert.Empty(t, g.GenerateDaily("chen", dates.New(2025, time.May, 15), vendors))
	assert.Len(t, g.GenerateDaily("chen", dates.New(2025, time.June, 1), vendors), 1)
}

func TestMonthlyRunOnLastWeekday(t *testing.T) {
	g := New(
		map[event.BusinessKey][]EmployeeSpec{
			"maya": {{Role: "stylist", Count: 1, PayRate: decimal.NewFromInt(30), HoursPerWeek: decimal.NewFromInt(35)}},
		},
		map[event.BusinessKey]Config{
			"maya": {Frequency: Monthly, PayDay: OnWeekday(time.Friday), PayrollVendor: "Gusto Payroll", TaxAuthority: "IRS"},
		},
	)
	vendors := allVendors()

	// The last Friday of May 2025 is the 30th.
	assert.Empty(t, g.GenerateDaily("maya", dates.New(2025, time.May, 23), vendors))
	assert.Len(t, g.GenerateDaily("maya", dates.New(2025, time.May, 30), vendors), 1)
}

func TestDepositScheduleTiers(t *testing.T) {
	assert.Equal(t, "quarterly", depositSchedule(decimal.NewFromInt(2499)))
	assert.Equal(t, "monthly", depositSchedule(decimal.NewFromInt(2500)))
	assert.Equal(t, "monthly", depositSchedule(decimal.NewFromInt(50000)))
	assert.Equal(t, "semi-weekly", depositSchedule(decimal.NewFromFloat(50000.01)))
}

func TestMonthlyDepositArrivesOnTheFifteenth(t *testing.T) {
	// Five crew at $40/h: gross 16000 per run, taxes 3144, which lands the
	// quarter in the monthly tier on the first run.
	g := biWeeklyGenerator(40, 40)
	g.employees["craig"][0].Count = 5
	vendors := allVendors()

	run := g.GenerateDaily("craig", dates.New(2025, time.March, 7), vendors)
	require.Len(t, run, 1)
	assert.Equal(t, "16000", run[0].Amount.String())

	deposit := g.GenerateDaily("craig", dates.New(2025, time.April, 15), vendors)
	require.Len(t, deposit, 1)
	assert.Equal(t, "Payroll tax deposit", deposit[0].Description)
	require.NotNil(t, deposit[0].VendorID)
	assert.Equal(t, taxAuthority.ID, *deposit[0].VendorID)
	// ss 992 + medicare 232 + withholding 1920
	assert.Equal(t, "3144", deposit[0].Amount.String())

	// Replaying the due date does not double-bill.
	assert.Empty(t, g.GenerateDaily("craig", dates.New(2025, time.April, 15), vendors))
}

func TestSemiWeeklyDepositLagsThreeDays(t *testing.T) {
	// A big roster pushes the quarter straight past $50k.
	g := New(
		map[event.BusinessKey][]EmployeeSpec{
			"marcus": {{Role: "agent", Count: 40, PayRate: decimal.NewFromInt(100), HoursPerWeek: decimal.NewFromInt(40)}},
		},
		map[event.BusinessKey]Config{
			"marcus": {Frequency: BiWeekly, PayDay: OnWeekday(time.Friday), PayrollVendor: "Gusto Payroll", TaxAuthority: "IRS"},
		},
	)
	vendors := allVendors()

	payDate := dates.New(2025, time.March, 7)
	run := g.GenerateDaily("marcus", payDate, vendors)
	require.Len(t, run, 1)
	// gross 320000 -> taxes well past the semi-weekly threshold

	deposit := g.GenerateDaily("marcus", payDate.AddDate(0, 0, 3), vendors)
	require.Len(t, deposit, 1)
	assert.Equal(t, "Payroll tax deposit", deposit[0].Description)
}

func TestForm941SettlesQuarterAndFilesOnce(t *testing.T) {
	g := biWeeklyGenerator(10, 10)
	vendors := allVendors()

	// Small roster: quarter liability stays under $2500, nothing deposited
	// mid-quarter, everything settles at the Apr 30 filing.
	for _, day := range []time.Time{
		dates.New(2025, time.March, 7),
		dates.New(2025, time.March, 21),
	} {
		require.Len(t, g.GenerateDaily("craig", day, vendors), 1)
	}

	txs := g.GenerateDaily("craig", dates.New(2025, time.April, 30), vendors)
	require.Len(t, txs, 2)
	assert.Equal(t, "Form 941 filing Q1 2025", txs[0].Description)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("75.00")))
	assert.Equal(t, "Payroll tax deposit", txs[1].Description)
	assert.Equal(t, "true", txs[1].Metadata["form_941"])
	// Two runs of gross 400 each: taxes 2 x (24.80 + 5.80 + 48.00).
	assert.Equal(t, "157.2", txs[1].Amount.String())

	// Replaying the filing date emits nothing new.
	assert.Empty(t, g.GenerateDaily("craig", dates.New(2025, time.April, 30), vendors))
}

func TestFUTACarriesForwardUntilThresholdOrYearEnd(t *testing.T) {
	g := biWeeklyGenerator(20, 40)
	vendors := allVendors()

	// One run: gross 3200, FUTA 19.20, far below the $500 threshold.
	require.Len(t, g.GenerateDaily("craig", dates.New(2025, time.March, 7), vendors), 1)

	// Q1 filing date: 941 fee + settling deposit, but no FUTA deposit.
	q1 := g.GenerateDaily("craig", dates.New(2025, time.April, 30), vendors)
	for _, tx := range q1 {
		assert.NotEqual(t, "futa", tx.Metadata["tax_deposit"])
	}

	// Q4 (Jan 31) forces the remaining balance out regardless of size.
	// Another run first so the year has liability.
	require.Len(t, g.GenerateDaily("craig", dates.New(2025, time.June, 6), vendors), 1)
	yearEnd := g.GenerateDaily("craig", dates.New(2026, time.January, 31), vendors)
	var futa *event.GeneratedTransaction
	for i := range yearEnd {
		if yearEnd[i].Metadata["tax_deposit"] == "futa" {
			futa = &yearEnd[i]
		}
	}
	require.NotNil(t, futa)
	assert.Equal(t, "FUTA tax deposit Q4 2025", futa.Description)
	// Two runs x 19.20.
	assert.Equal(t, "38.4", futa.Amount.String())
}

func TestYearEndFilingsFireOnceOnJan31(t *testing.T) {
	g := biWeeklyGenerator(20, 40)
	vendors := allVendors()

	txs := g.GenerateDaily("craig", dates.New(2026, time.January, 31), vendors)
	descriptions := make([]string, len(txs))
	for i, tx := range txs {
		descriptions[i] = tx.Description
	}
	assert.Contains(t, descriptions, "Form 940 filing 2025")
	assert.Contains(t, descriptions, "Year-end W-2 processing 2025")

	assert.Empty(t, g.GenerateDaily("craig", dates.New(2026, time.January, 31), vendors))
}

func Test1099EligibilityByCategoryAndPaidTotal(t *testing.T) {
	g := biWeeklyGenerator(20, 40)
	vendors := allVendors()

	// Paid the contractor $800 across 2025, and a similar amount to the
	// payroll provider, whose category disqualifies it.
	g.RecordVendorPayment("craig", dates.New(2025, time.June, 1), contractor.ID, contractor.Category, decimal.NewFromInt(500))
	g.RecordVendorPayment("craig", dates.New(2025, time.October, 1), contractor.ID, contractor.Category, decimal.NewFromInt(300))
	g.RecordVendorPayment("craig", dates.New(2025, time.June, 1), payrollVendor.ID, payrollVendor.Category, decimal.NewFromInt(900))

	txs := g.GenerateDaily("craig", dates.New(2026, time.January, 31), vendors)
	var forms []event.GeneratedTransaction
	for _, tx := range txs {
		if tx.Metadata["compliance_filing"] == "1099_nec" {
			forms = append(forms, tx)
		}
	}
	require.Len(t, forms, 1)
	assert.Equal(t, "1099-NEC processing - Pete's Plowing 2025", forms[0].Description)
	assert.Equal(t, contractor.ID.String(), forms[0].Metadata["recipient_vendor_id"])
	assert.True(t, forms[0].Amount.Equal(decimal.RequireFromString("7.50")))
}

func Test1099RequiresOverSixHundred(t *testing.T) {
	g := biWeeklyGenerator(20, 40)
	g.RecordVendorPayment("craig", dates.New(2025, time.June, 1), contractor.ID, contractor.Category, decimal.NewFromInt(600))

	eligible := g.eligible1099Vendors("craig", 2025, allVendors())
	assert.Empty(t, eligible, "exactly $600 is below the reporting floor")

	g.RecordVendorPayment("craig", dates.New(2025, time.July, 1), contractor.ID, contractor.Category, decimal.NewFromFloat(0.01))
	assert.Len(t, g.eligible1099Vendors("craig", 2025, allVendors()), 1)
}

func TestNoEmployeesMeansNoPayroll(t *testing.T) {
	g := New(nil, map[event.BusinessKey]Config{
		"craig": {Frequency: Weekly, PayDay: OnWeekday(time.Friday)},
	})
	assert.Empty(t, g.GenerateDaily("craig", dates.New(2025, time.March, 7), allVendors()))
}
