package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/atlastown/bizsim/internal/journal"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a journaled run per business",
		Long: `Report per-business revenue, expense, and entry totals for a run.

Example:
  bizsim report --db town.db --run-id demo-2025`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run identifier to report on")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	settings, err := LoadSettings()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = settings.Database.Path
	}
	runID := opts.RunID
	if runID == "" {
		runID = settings.Run.ID
	}
	if runID == "" {
		return NewExitError(ExitCommandError, "no run ID given (use --run-id)")
	}

	store, err := journal.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("run %q not found", runID), err)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	totals, err := store.Totals(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to total entries", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	return formatter.Success(buildReport(run, totals))
}

type reportLine struct {
	Business string `json:"business"`
	Entries  int    `json:"entries"`
	Revenue  string `json:"revenue"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

type runReportData struct {
	RunID     string       `json:"run_id"`
	Seed      int64        `json:"seed"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Lines     []reportLine `json:"businesses"`
	TotalNet  string       `json:"total_net"`
	TotalRows int          `json:"total_entries"`
}

func buildReport(run journal.Run, totals []journal.BusinessTotals) runReportData {
	data := runReportData{
		RunID: run.ID,
		Seed:  run.Seed,
		Start: run.StartDate.Format("2006-01-02"),
		End:   run.EndDate.Format("2006-01-02"),
	}
	townNet := decimal.Zero
	for _, bt := range totals {
		net := bt.Revenue.Sub(bt.Expenses)
		townNet = townNet.Add(net)
		data.TotalRows += bt.Count
		data.Lines = append(data.Lines, reportLine{
			Business: string(bt.Business),
			Entries:  bt.Count,
			Revenue:  bt.Revenue.StringFixed(2),
			Expenses: bt.Expenses.StringFixed(2),
			Net:      net.StringFixed(2),
		})
	}
	data.TotalNet = townNet.StringFixed(2)
	return data
}

func (d runReportData) String() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	p.Fprintf(&b, "Run %s (seed %d, %s to %s)\n", d.RunID, d.Seed, d.Start, d.End)
	p.Fprintf(&b, "%-12s %10s %14s %14s %14s\n", "BUSINESS", "ENTRIES", "REVENUE", "EXPENSES", "NET")
	for _, line := range d.Lines {
		p.Fprintf(&b, "%-12s %10d %14s %14s %14s\n",
			line.Business, line.Entries, line.Revenue, line.Expenses, line.Net)
	}
	p.Fprintf(&b, "%-12s %10d %44s\n", "TOTAL", d.TotalRows, d.TotalNet)
	return strings.TrimRight(b.String(), "\n")
}
