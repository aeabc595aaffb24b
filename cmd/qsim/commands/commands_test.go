package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panyam/queuesim/core"
	"github.com/panyam/queuesim/runtime"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so tests do not leak values
// into each other through the package level commands.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer runtime.QuietTest(t)()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--no-color", "--log-level", "OFF"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTheoryCommand(t *testing.T) {
	out, err := execute(t, "theory", "-l", "5", "-m", "6", "-k", "10", "--json")
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.InDelta(t, 0.0311, m["blocking_probability"], 1e-4)

	out, err = execute(t, "theory", "-l", "2", "-m", "2", "-k", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Blocking probability:   25.00%")
}

func TestTheoryCommand_Invalid(t *testing.T) {
	_, err := execute(t, "theory", "-l", "0")
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration), "got %v", err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("QSIM_CAPACITY", "3")
	out, err := execute(t, "theory", "-l", "1", "-m", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "K=3")
}

func TestRunAndPlot(t *testing.T) {
	dir := t.TempDir()
	resultFile := filepath.Join(dir, "run.json")

	out, err := execute(t, "run", "-l", "5", "-m", "6", "-k", "10", "-t", "200", "-n", "1000", "--seed", "42", "--out", resultFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Statistics")
	assert.Contains(t, out, "Results written to")

	data, err := os.ReadFile(resultFile)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.EqualValues(t, 42, saved["seed"])
	assert.NotEmpty(t, saved["trajectory"])

	plotDir := filepath.Join(dir, "plots")
	out, err = execute(t, "plot", resultFile, "--dir", plotDir)
	require.NoError(t, err)
	entries, err := os.ReadDir(plotDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Contains(t, out, "trajectory.svg")
}

func TestRunCommand_InvalidParams(t *testing.T) {
	_, err := execute(t, "run", "--horizon=-5")
	assert.True(t, errors.Is(err, core.ErrInvalidConfiguration), "got %v", err)
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	plan := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(plan, []byte(`
params: {horizon: 100, max_arrivals: 500}
seed: 3
grid:
  arrival_rates: [1, 4]
  process_rates: [5]
  capacities: [2, 4]
`), 0o644))
	outFile := filepath.Join(dir, "sweep.yaml")

	out, err := execute(t, "sweep", plan, "-w", "2", "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Sweep: 4 runs")
	_, err = os.Stat(outFile)
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "qsim dev")
}
