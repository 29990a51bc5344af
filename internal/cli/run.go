package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/atlastown/bizsim/internal/config"
	"github.com/atlastown/bizsim/internal/dates"
	"github.com/atlastown/bizsim/internal/journal"
	"github.com/atlastown/bizsim/internal/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	RunID    string
	Seed     int64
	Start    string
	End      string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [personas-dir]",
		Short: "Simulate a calendar window and journal the events",
		Long: `Run the simulation across a calendar window.

Personas are loaded from the given directory (or the configured default),
the journal database is created if needed, and every day of the window is
generated and journaled. Re-running the same run ID resumes idempotently.

Example:
  bizsim run --db town.db --seed 42 --start 2025-01-01 --end 2025-12-31 ./personas`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			personasDir := ""
			if len(args) == 1 {
				personasDir = args[0]
			}
			return runSimulation(opts, personasDir, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run identifier (default: random)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "RNG seed (default: current time)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end", "", "window end (YYYY-MM-DD)")

	return cmd
}

func runSimulation(opts *RunOptions, personasDir string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	settings, err := LoadSettings()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load settings", err)
	}
	params, dbPath, err := resolveRunParams(opts, settings)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid run parameters", err)
	}
	if personasDir == "" {
		personasDir = settings.Personas.Dir
	}

	slog.Info("loading personas", "dir", personasDir)
	registry, err := config.Load(personasDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load personas", err)
	}
	slog.Info("personas loaded", "businesses", len(registry.Keys()))

	slog.Info("opening journal", "path", dbPath)
	store, err := journal.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("error closing journal", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := sim.New(registry, params, sim.WithLogger(logger))
	stats, err := runner.Run(ctx, store)
	if err != nil {
		return WrapExitError(ExitFailure, "run failed", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	return formatter.Success(runSummary{
		RunID:    params.RunID,
		Seed:     params.Seed,
		Start:    dates.Key(params.Start),
		End:      dates.Key(params.End),
		Days:     stats.Days,
		Entries:  stats.Entries,
		Revenue:  stats.Revenue.StringFixed(2),
		Expenses: stats.Expenses.StringFixed(2),
	})
}

type runSummary struct {
	RunID    string `json:"run_id"`
	Seed     int64  `json:"seed"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Days     int    `json:"days"`
	Entries  int    `json:"entries"`
	Revenue  string `json:"revenue"`
	Expenses string `json:"expenses"`
}

func (s runSummary) String() string {
	return fmt.Sprintf("run %s: %d days, %d entries, revenue %s, expenses %s",
		s.RunID, s.Days, s.Entries, s.Revenue, s.Expenses)
}

// resolveRunParams merges flags over settings and fills the remaining
// defaults: a random run ID, a time-based seed, and the current calendar
// year as the window.
func resolveRunParams(opts *RunOptions, settings Settings) (sim.Params, string, error) {
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = settings.Database.Path
	}

	params := sim.Params{
		RunID: opts.RunID,
		Seed:  opts.Seed,
	}
	if params.RunID == "" {
		params.RunID = settings.Run.ID
	}
	if params.RunID == "" {
		params.RunID = uuid.NewString()
	}
	if params.Seed == 0 {
		params.Seed = settings.Run.Seed
	}
	if params.Seed == 0 {
		params.Seed = time.Now().UnixNano()
	}

	startRaw := opts.Start
	if startRaw == "" {
		startRaw = settings.Run.Start
	}
	endRaw := opts.End
	if endRaw == "" {
		endRaw = settings.Run.End
	}
	now := time.Now()
	if startRaw == "" {
		params.Start = dates.New(now.Year(), time.January, 1)
	} else {
		start, ok := dates.Parse(startRaw)
		if !ok {
			return sim.Params{}, "", fmt.Errorf("bad start date %q", startRaw)
		}
		params.Start = start
	}
	if endRaw == "" {
		params.End = dates.New(now.Year(), time.December, 31)
	} else {
		end, ok := dates.Parse(endRaw)
		if !ok {
			return sim.Params{}, "", fmt.Errorf("bad end date %q", endRaw)
		}
		params.End = end
	}
	if params.End.Before(params.Start) {
		return sim.Params{}, "", fmt.Errorf("end %s before start %s", endRaw, startRaw)
	}
	return params, dbPath, nil
}
