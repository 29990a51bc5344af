package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RecordRun inserts the run record. Duplicate run IDs are silently ignored,
// so resuming a run reuses the existing record.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, start_date, end_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seed,
		run.StartDate.Format(dateLayout),
		run.EndDate.Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Append inserts one entry. The entry ID is derived from (run, seq) when the
// caller leaves it zero. Duplicate IDs are silently ignored for idempotency;
// other constraint violations still return errors.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = EntryID(e.RunID, e.Seq)
	}
	metadataJSON, err := marshalMetadata(e.Metadata)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	var customerID, vendorID any
	if e.CustomerID != nil {
		customerID = e.CustomerID.String()
	}
	if e.VendorID != nil {
		vendorID = e.VendorID.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries
		(id, run_id, seq, business, entry_date, type, description, amount, customer_id, vendor_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID.String(),
		e.RunID,
		e.Seq,
		string(e.Business),
		e.Date.Format(dateLayout),
		string(e.Type),
		e.Description,
		e.Amount.String(),
		customerID,
		vendorID,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// AppendBatch inserts a day's entries in one transaction so a crash never
// leaves a partial day in the journal.
func (s *Store) AppendBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append batch: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries
		(id, run_id, seq, business, entry_date, type, description, amount, customer_id, vendor_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("append batch: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = EntryID(e.RunID, e.Seq)
		}
		metadataJSON, err := marshalMetadata(e.Metadata)
		if err != nil {
			return fmt.Errorf("append batch: %w", err)
		}
		var customerID, vendorID any
		if e.CustomerID != nil {
			customerID = e.CustomerID.String()
		}
		if e.VendorID != nil {
			vendorID = e.VendorID.String()
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID.String(),
			e.RunID,
			e.Seq,
			string(e.Business),
			e.Date.Format(dateLayout),
			string(e.Type),
			e.Description,
			e.Amount.String(),
			customerID,
			vendorID,
			metadataJSON,
		); err != nil {
			return fmt.Errorf("append batch: insert seq %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append batch: commit: %w", err)
	}
	return nil
}

// marshalMetadata converts the metadata map to JSON TEXT. Map keys are sorted
// by json.Marshal, and HTML escaping is disabled so stored text matches what
// golden fixtures expect byte for byte.
func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
