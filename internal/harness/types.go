package harness

// Scenario defines one end-to-end simulation test.
// Scenarios load a personas directory, run a seeded calendar window, and
// assert on the resulting journal entries.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario pins down.
	Description string `yaml:"description"`

	// Personas is the personas directory, relative to the scenario file.
	Personas string `yaml:"personas"`

	// Seed is the RNG seed for the run.
	Seed int64 `yaml:"seed"`

	// Start and End bound the calendar window (YYYY-MM-DD, inclusive).
	Start string `yaml:"start"`
	End   string `yaml:"end"`

	// RunID is an optional fixed run identifier. Defaults to the scenario
	// name so golden files stay deterministic.
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the entry trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the journaled entry trace.
type Assertion struct {
	// Type specifies the assertion type:
	//   - "entry_contains": an entry matching the given fields exists
	//   - "entry_count": entries matching the given fields number Count
	//   - "entry_order": matching entry types appear in the given order
	//   - "business_total": a business's revenue/expense totals match
	Type string `yaml:"type"`

	// Business filters entries by business key. Empty matches all.
	Business string `yaml:"business,omitempty"`

	// EntryType filters by transaction type (used by entry_contains,
	// entry_count).
	EntryType string `yaml:"entry_type,omitempty"`

	// Description filters by exact description.
	Description string `yaml:"description,omitempty"`

	// Amount is the expected amount as a decimal string.
	Amount string `yaml:"amount,omitempty"`

	// Date filters by entry date (YYYY-MM-DD).
	Date string `yaml:"date,omitempty"`

	// Count is the expected match count (used by entry_count).
	Count int `yaml:"count,omitempty"`

	// Types is the expected type order (used by entry_order). Other entry
	// types may interleave; the listed types must appear in this order.
	Types []string `yaml:"types,omitempty"`

	// Revenue and Expenses are expected totals (used by business_total).
	Revenue  string `yaml:"revenue,omitempty"`
	Expenses string `yaml:"expenses,omitempty"`
}

// Assertion type constants.
const (
	AssertEntryContains = "entry_contains"
	AssertEntryCount    = "entry_count"
	AssertEntryOrder    = "entry_order"
	AssertBusinessTotal = "business_total"
)

// EntrySnapshot is the stable view of one journal entry used by assertions
// and golden files. Identifiers are omitted so snapshots stay readable.
type EntrySnapshot struct {
	Seq         int64  `json:"seq"`
	Date        string `json:"date"`
	Business    string `json:"business"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Entries contains every journaled entry in order.
	Entries []EntrySnapshot `json:"entries"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
