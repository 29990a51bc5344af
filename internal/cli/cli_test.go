package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with the given args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", "testdata/personas")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidateReportsPersonaCount(t *testing.T) {
	out, err := execute(t, "validate", "testdata/personas")
	require.NoError(t, err)
	assert.Contains(t, out, "1 personas valid")
	assert.Contains(t, out, "demo")
}

func TestValidateJSONOutput(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/personas")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateFailsOnBrokenPersona(t *testing.T) {
	out, err := execute(t, "validate", "testdata/broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "schema_violation")
}

func TestValidateMissingDirectory(t *testing.T) {
	out, err := execute(t, "validate", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "unreadable")
}

func TestRunThenReport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "town.db")

	out, err := execute(t, "run", "testdata/personas",
		"--db", dbPath,
		"--run-id", "cli-test",
		"--seed", "11",
		"--start", "2025-03-01",
		"--end", "2025-03-03")
	require.NoError(t, err)
	assert.Contains(t, out, "run cli-test")
	assert.Contains(t, out, "3 days")

	report, err := execute(t, "report", "--db", dbPath, "--run-id", "cli-test")
	require.NoError(t, err)
	assert.Contains(t, report, "Run cli-test")
	assert.Contains(t, report, "demo")
	assert.Contains(t, report, "TOTAL")
}

func TestRunIsIdempotentAcrossInvocations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "town.db")
	args := []string{"run", "testdata/personas",
		"--db", dbPath,
		"--run-id", "replay",
		"--seed", "11",
		"--start", "2025-03-01",
		"--end", "2025-03-02"}

	_, err := execute(t, args...)
	require.NoError(t, err)
	first, err := execute(t, "--format", "json", "report", "--db", dbPath, "--run-id", "replay")
	require.NoError(t, err)

	_, err = execute(t, args...)
	require.NoError(t, err)
	second, err := execute(t, "--format", "json", "report", "--db", dbPath, "--run-id", "replay")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunRejectsBadDates(t *testing.T) {
	_, err := execute(t, "run", "testdata/personas",
		"--db", filepath.Join(t.TempDir(), "town.db"),
		"--start", "03/01/2025")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReportUnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "town.db")
	_, err := execute(t, "run", "testdata/personas",
		"--db", dbPath, "--run-id", "exists", "--seed", "1",
		"--start", "2025-03-01", "--end", "2025-03-01")
	require.NoError(t, err)

	_, err = execute(t, "report", "--db", dbPath, "--run-id", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestReportRequiresRunID(t *testing.T) {
	_, err := execute(t, "report", "--db", filepath.Join(t.TempDir(), "town.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSettingsEnvOverride(t *testing.T) {
	t.Setenv("BIZSIM_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("BIZSIM_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("BIZSIM_RUN_SEED", "99")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", s.Database.Path)
	assert.Equal(t, int64(99), s.Run.Seed)
	assert.Equal(t, "personas", s.Personas.Dir)
}

func TestSettingsFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("database:\n  path: file.db\nrun:\n  id: from-file\n"), 0o600))
	t.Setenv("BIZSIM_CONFIG", cfg)

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "file.db", s.Database.Path)
	assert.Equal(t, "from-file", s.Run.ID)
}

func TestExitErrorCodes(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad input")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "bad input", err.Error())

	wrapped := WrapExitError(ExitFailure, "run failed", errors.New("boom"))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("outer: %w", wrapped)))
	assert.Equal(t, "run failed: boom", wrapped.Error())
	assert.Equal(t, "boom", wrapped.Unwrap().Error())

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestResolveRunParamsDefaults(t *testing.T) {
	opts := &RunOptions{RootOptions: &RootOptions{}}
	params, dbPath, err := resolveRunParams(opts, Settings{})
	require.NoError(t, err)
	assert.Equal(t, "", dbPath)
	assert.NotEmpty(t, params.RunID)
	assert.NotZero(t, params.Seed)
	assert.Equal(t, params.Start.Year(), params.End.Year())
	assert.True(t, params.Start.Before(params.End))
}

func TestResolveRunParamsRejectsInvertedWindow(t *testing.T) {
	opts := &RunOptions{
		RootOptions: &RootOptions{},
		Start:       "2025-06-01",
		End:         "2025-01-01",
	}
	_, _, err := resolveRunParams(opts, Settings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start")
}
