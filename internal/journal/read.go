package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlastown/bizsim/internal/event"
)

// entryColumns is the canonical SELECT list shared by all entry queries.
const entryColumns = `id, run_id, seq, business, entry_date, type, description, amount, customer_id, vendor_id, metadata`

// entryOrder keeps query results deterministic across replays.
const entryOrder = `ORDER BY seq ASC, id COLLATE BINARY ASC`

// GetRun fetches one run record. Returns sql.ErrNoRows when absent.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	var startDate, endDate string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seed, start_date, end_date FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.Seed, &startDate, &endDate)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	if run.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return Run{}, fmt.Errorf("get run: parse start date: %w", err)
	}
	if run.EndDate, err = time.Parse(dateLayout, endDate); err != nil {
		return Run{}, fmt.Errorf("get run: parse end date: %w", err)
	}
	return run, nil
}

// ListEntries returns every entry for a run in logical order.
func (s *Store) ListEntries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM entries WHERE run_id = ? %s
	`, entryColumns, entryOrder), runID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// EntriesForDay returns a single day's entries for a run in logical order.
func (s *Store) EntriesForDay(ctx context.Context, runID string, day time.Time) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM entries WHERE run_id = ? AND entry_date = ? %s
	`, entryColumns, entryOrder), runID, day.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("entries for day: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// EntriesForBusiness returns one business's entries for a run in logical order.
func (s *Store) EntriesForBusiness(ctx context.Context, runID string, key event.BusinessKey) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM entries WHERE run_id = ? AND business = ? %s
	`, entryColumns, entryOrder), runID, string(key))
	if err != nil {
		return nil, fmt.Errorf("entries for business: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// BusinessTotals aggregates one business's journaled activity.
type BusinessTotals struct {
	Business event.BusinessKey
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	Count    int
}

// Totals sums revenue and expenses per business for a run. Amounts are TEXT
// in the database, so the summation happens here on exact decimals rather
// than in SQL on floats.
func (s *Store) Totals(ctx context.Context, runID string) ([]BusinessTotals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT business, type, amount FROM entries
		WHERE run_id = ?
		ORDER BY business ASC, seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	defer rows.Close()

	var totals []BusinessTotals
	byBusiness := map[event.BusinessKey]int{}
	for rows.Next() {
		var business, typeName, amountText string
		if err := rows.Scan(&business, &typeName, &amountText); err != nil {
			return nil, fmt.Errorf("totals: scan: %w", err)
		}
		amount, err := decimal.NewFromString(amountText)
		if err != nil {
			return nil, fmt.Errorf("totals: parse amount %q: %w", amountText, err)
		}
		key := event.BusinessKey(business)
		idx, ok := byBusiness[key]
		if !ok {
			idx = len(totals)
			byBusiness[key] = idx
			totals = append(totals, BusinessTotals{Business: key})
		}
		t := event.Type(typeName)
		switch {
		case t.IsRevenue():
			totals[idx].Revenue = totals[idx].Revenue.Add(amount)
		case t.IsExpense():
			totals[idx].Expenses = totals[idx].Expenses.Add(amount)
		}
		totals[idx].Count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}
	return totals, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var id, business, entryDate, typeName, amountText, metadataJSON string
		var customerID, vendorID sql.NullString
		if err := rows.Scan(&id, &e.RunID, &e.Seq, &business, &entryDate, &typeName,
			&e.Description, &amountText, &customerID, &vendorID, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scan entry: parse id: %w", err)
		}
		e.ID = parsed
		e.Business = event.BusinessKey(business)
		e.Type = event.Type(typeName)
		if e.Date, err = time.Parse(dateLayout, entryDate); err != nil {
			return nil, fmt.Errorf("scan entry: parse date: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amountText); err != nil {
			return nil, fmt.Errorf("scan entry: parse amount %q: %w", amountText, err)
		}
		if customerID.Valid {
			parsed, err := uuid.Parse(customerID.String)
			if err != nil {
				return nil, fmt.Errorf("scan entry: parse customer id: %w", err)
			}
			e.CustomerID = &parsed
		}
		if vendorID.Valid {
			parsed, err := uuid.Parse(vendorID.String)
			if err != nil {
				return nil, fmt.Errorf("scan entry: parse vendor id: %w", err)
			}
			e.VendorID = &parsed
		}
		if metadataJSON != "" && metadataJSON != "{}" {
			if err := json.Unmarshal([]byte(metadataJSON), &e.Metadata); err != nil {
				return nil, fmt.Errorf("scan entry: parse metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	return entries, nil
}
