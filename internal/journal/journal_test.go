package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlastown/bizsim/internal/event"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(t *testing.T, s *Store) Run {
	t.Helper()
	run := Run{
		ID:        "run-1",
		Seed:      42,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.RecordRun(context.Background(), run))
	return run
}

func entryFixture(runID string, seq int64, day time.Time) Entry {
	return Entry{
		RunID:       runID,
		Seq:         seq,
		Business:    "craig",
		Date:        day,
		Type:        event.TypeInvoice,
		Description: "Lawn maintenance - Front yard",
		Amount:      decimal.RequireFromString("125.50"),
	}
}

func TestAppendAndList(t *testing.T) {
	s := openTestStore(t)
	run := testRun(t, s)
	ctx := context.Background()
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	customer := uuid.NewSHA1(uuid.NameSpaceOID, []byte("customer"))
	first := entryFixture(run.ID, 1, day)
	first.CustomerID = &customer
	first.Metadata = map[string]any{"invoice_id": "INV-1001"}
	require.NoError(t, s.Append(ctx, first))

	second := entryFixture(run.ID, 2, day)
	second.Type = event.TypeBill
	second.Description = "Fuel for vehicles"
	second.Amount = decimal.RequireFromString("92")
	require.NoError(t, s.Append(ctx, second))

	entries, err := s.ListEntries(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, EntryID(run.ID, 1), entries[0].ID)
	assert.Equal(t, "125.5", entries[0].Amount.String())
	require.NotNil(t, entries[0].CustomerID)
	assert.Equal(t, customer, *entries[0].CustomerID)
	assert.Equal(t, "INV-1001", entries[0].Metadata["invoice_id"])
	assert.Nil(t, entries[0].VendorID)

	assert.Equal(t, event.TypeBill, entries[1].Type)
	assert.Equal(t, day, entries[1].Date)
	assert.Nil(t, entries[1].Metadata)
}

func TestAppendIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	run := testRun(t, s)
	ctx := context.Background()
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	e := entryFixture(run.ID, 7, day)
	require.NoError(t, s.Append(ctx, e))
	require.NoError(t, s.Append(ctx, e))

	entries, err := s.ListEntries(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAppendBatch(t *testing.T) {
	s := openTestStore(t)
	run := testRun(t, s)
	ctx := context.Background()
	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	batch := []Entry{
		entryFixture(run.ID, 1, day),
		entryFixture(run.ID, 2, day),
		entryFixture(run.ID, 3, day),
	}
	require.NoError(t, s.AppendBatch(ctx, batch))

	// Replaying the same batch adds nothing.
	require.NoError(t, s.AppendBatch(ctx, batch))

	entries, err := s.ListEntries(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	require.NoError(t, s.AppendBatch(ctx, nil))
}

func TestEntriesForDayAndBusiness(t *testing.T) {
	s := openTestStore(t)
	run := testRun(t, s)
	ctx := context.Background()
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	first := entryFixture(run.ID, 1, monday)
	second := entryFixture(run.ID, 2, tuesday)
	third := entryFixture(run.ID, 3, tuesday)
	third.Business = "tony"
	require.NoError(t, s.AppendBatch(ctx, []Entry{first, second, third}))

	mondayEntries, err := s.EntriesForDay(ctx, run.ID, monday)
	require.NoError(t, err)
	require.Len(t, mondayEntries, 1)
	assert.Equal(t, int64(1), mondayEntries[0].Seq)

	tonyEntries, err := s.EntriesForBusiness(ctx, run.ID, "tony")
	require.NoError(t, err)
	require.Len(t, tonyEntries, 1)
	assert.Equal(t, int64(3), tonyEntries[0].Seq)
}

func TestTotals(t *testing.T) {
	s := openTestStore(t)
	run := testRun(t, s)
	ctx := context.Background()
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	invoice := entryFixture(run.ID, 1, day)
	invoice.Amount = decimal.RequireFromString("300")
	bill := entryFixture(run.ID, 2, day)
	bill.Type = event.TypeBill
	bill.Amount = decimal.RequireFromString("120.40")
	sale := entryFixture(run.ID, 3, day)
	sale.Business = "tony"
	sale.Type = event.TypeCashSale
	sale.Amount = decimal.RequireFromString("980")
	require.NoError(t, s.AppendBatch(ctx, []Entry{invoice, bill, sale}))

	totals, err := s.Totals(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, event.BusinessKey("craig"), totals[0].Business)
	assert.Equal(t, "300", totals[0].Revenue.String())
	assert.Equal(t, "120.4", totals[0].Expenses.String())
	assert.Equal(t, 2, totals[0].Count)

	assert.Equal(t, event.BusinessKey("tony"), totals[1].Business)
	assert.Equal(t, "980", totals[1].Revenue.String())
	assert.Equal(t, 1, totals[1].Count)
}

func TestGetRun(t *testing.T) {
	s := openTestStore(t)
	run := testRun(t, s)

	got, err := s.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	_, err = s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestEntryIDIsDeterministic(t *testing.T) {
	assert.Equal(t, EntryID("run-1", 5), EntryID("run-1", 5))
	assert.NotEqual(t, EntryID("run-1", 5), EntryID("run-1", 6))
	assert.NotEqual(t, EntryID("run-1", 5), EntryID("run-2", 5))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
