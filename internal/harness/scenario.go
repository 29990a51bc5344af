package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/atlastown/bizsim/internal/config"
	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/journal"
	"github.com/atlastown/bizsim/internal/sim"
)

// LoadScenario reads and parses a scenario YAML file. The personas path is
// resolved relative to the scenario file. Returns an error if the file is
// malformed, contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Personas != "" && !filepath.IsAbs(scenario.Personas) {
		scenario.Personas = filepath.Join(filepath.Dir(path), scenario.Personas)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Personas == "" {
		return fmt.Errorf("personas directory is required")
	}
	if _, err := os.Stat(s.Personas); os.IsNotExist(err) {
		return fmt.Errorf("personas directory not found: %s", s.Personas)
	}
	if _, ok := dates.Parse(s.Start); !ok {
		return fmt.Errorf("start date %q is not YYYY-MM-DD", s.Start)
	}
	if _, ok := dates.Parse(s.End); !ok {
		return fmt.Errorf("end date %q is not YYYY-MM-DD", s.End)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertEntryContains:
		if a.Business == "" && a.EntryType == "" && a.Description == "" {
			return fmt.Errorf("assertions[%d]: entry_contains needs at least one filter", index)
		}
	case AssertEntryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for entry_count", index)
		}
	case AssertEntryOrder:
		if len(a.Types) == 0 {
			return fmt.Errorf("assertions[%d]: types list is required for entry_order", index)
		}
	case AssertBusinessTotal:
		if a.Business == "" {
			return fmt.Errorf("assertions[%d]: business is required for business_total", index)
		}
		if a.Revenue == "" && a.Expenses == "" {
			return fmt.Errorf("assertions[%d]: business_total needs revenue or expenses", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// traceSink collects journal entries in memory.
type traceSink struct {
	entries []journal.Entry
}

func (s *traceSink) RecordRun(ctx context.Context, run journal.Run) error { return nil }

func (s *traceSink) AppendBatch(ctx context.Context, entries []journal.Entry) error {
	s.entries = append(s.entries, entries...)
	return nil
}

// Run executes a scenario: load personas, run the window against an
// in-memory sink, then check every assertion. Returns an error only when
// the scenario cannot be executed; assertion failures land in the Result.
func Run(scenario *Scenario) (*Result, error) {
	registry, err := config.Load(scenario.Personas)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	start, _ := dates.Parse(scenario.Start)
	end, _ := dates.Parse(scenario.End)
	runID := scenario.RunID
	if runID == "" {
		runID = scenario.Name
	}

	runner := sim.New(registry, sim.Params{
		RunID: runID,
		Seed:  scenario.Seed,
		Start: start,
		End:   end,
	})

	sink := &traceSink{}
	if _, err := runner.Run(context.Background(), sink); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := &Result{Pass: true}
	for _, e := range sink.entries {
		result.Entries = append(result.Entries, EntrySnapshot{
			Seq:         e.Seq,
			Date:        dates.Key(e.Date),
			Business:    string(e.Business),
			Type:        string(e.Type),
			Description: e.Description,
			Amount:      e.Amount.String(),
		})
	}

	for i, assertion := range scenario.Assertions {
		checkAssertion(result, i, &assertion)
	}
	return result, nil
}
