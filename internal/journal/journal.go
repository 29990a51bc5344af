package journal

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "github.com/mattn/go-sqlite3"

	"github.com/atlastown/bizsim/internal/event"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// idNamespace roots deterministic entry IDs. Same run and seq always yield
// the same ID, which makes appends idempotent across crash recovery.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("atlas-town-journal"))

// dateLayout is the canonical TEXT encoding for dates in the database.
const dateLayout = "2006-01-02"

// Run describes one simulation run.
type Run struct {
	ID        string
	Seed      int64
	StartDate time.Time
	EndDate   time.Time
}

// Entry is one journaled financial event.
type Entry struct {
	ID          uuid.UUID
	RunID       string
	Seq         int64
	Business    event.BusinessKey
	Date        time.Time
	Type        event.Type
	Description string
	Amount      decimal.Decimal
	CustomerID  *uuid.UUID
	VendorID    *uuid.UUID
	Metadata    map[string]any
}

// EntryID derives the deterministic ID for a (run, seq) pair.
func EntryID(runID string, seq int64) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s:%d", runID, seq)))
}

// Store is a SQLite-backed journal. SQLite supports a single writer, so the
// connection pool is pinned to one connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path. Pragmas and schema are
// applied on every call; Open is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
