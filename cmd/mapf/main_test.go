package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScenariosAreValid(t *testing.T) {
	seen := make(map[string]bool)
	for _, sc := range scenarios {
		assert.False(t, seen[sc.Name], "duplicate scenario %s", sc.Name)
		seen[sc.Name] = true
		inst := sc.Build()
		require.NoError(t, inst.Validate(), sc.Name)
	}
}

func TestSolveCommand(t *testing.T) {
	out, err := execute(t, "solve", "--scenario", "open8", "--solver", "astar", "--paths", "--map")
	require.NoError(t, err)
	assert.Contains(t, out, "solved")
	assert.Contains(t, out, "14")
	assert.Contains(t, out, "(7,7)")
	assert.Contains(t, out, "A.......")
}

func TestSolveCommandInfeasible(t *testing.T) {
	out, err := execute(t, "solve", "--scenario", "corridor", "--solver", "astar")
	require.NoError(t, err)
	assert.Contains(t, out, "infeasible")
	assert.NotContains(t, out, "sum of costs")
}

func TestSolveCommandErrors(t *testing.T) {
	_, err := execute(t, "solve", "--scenario", "nowhere")
	assert.ErrorContains(t, err, "unknown scenario")

	_, err = execute(t, "solve", "--solver", "dijkstra")
	assert.True(t, core.Is(err, core.ErrCodeUnknownSolver))

	_, err = execute(t, "solve", "--objective", "fastest")
	assert.True(t, core.Is(err, core.ErrCodeInvalidSettings))

	_, err = execute(t, "solve", "--stay-at-goal=false", "--goal-occupation-time", "0")
	assert.True(t, core.Is(err, core.ErrCodeInvalidSettings))
}

func TestSettingsFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
heuristic = "rra"
objective_function = "makespan"
stay_at_goal = false
goal_occupation_time = 3
time_out = "2s"
`), 0o644))

	var sf settingsFlags
	fs := pflag.NewFlagSet("solve", pflag.ContinueOnError)
	sf.register(fs)
	require.NoError(t, fs.Parse([]string{"-c", path, "--objective", "soc"}))
	got, err := sf.resolve(fs)
	require.NoError(t, err)

	assert.Equal(t, core.HeuristicRRA, got.Heuristic)
	assert.Equal(t, core.SumOfCosts, got.Objective)
	assert.False(t, got.StayAtGoal)
	assert.Equal(t, 3, got.GoalOccupationTime)
	assert.Equal(t, "2s", got.TimeOut.String())
}

func TestBenchCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bench.csv")
	out, err := execute(t, "bench",
		"--scenario", "open8,junction",
		"--solver", "astar,cbs",
		"--timeout", "10s",
		"-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "benchmark summary")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, csvHeader, rows[0])
	for _, row := range rows[1:] {
		assert.Equal(t, "solved", row[8])
		assert.Equal(t, "true", row[15])
	}
}

func TestSummarize(t *testing.T) {
	results := []*benchResult{
		{Solver: "cbs", Status: core.StatusSolved, RuntimeMs: 2, SumOfCosts: 7},
		{Solver: "cbs", Status: core.StatusTimeout},
		{Solver: "astar", Status: core.StatusInfeasible},
	}
	got := summarize(results)
	require.Len(t, got, 2)
	assert.Equal(t, &solverSummary{Name: "astar", Runs: 1}, got[0])
	assert.Equal(t, &solverSummary{Name: "cbs", Runs: 2, Solved: 1, Timeouts: 1, TotalRuntimeMs: 2, TotalCost: 7}, got[1])
}

func TestRenderMap(t *testing.T) {
	sc, err := lookupScenario("junction")
	require.NoError(t, err)
	assert.Equal(t, "A.B\n#.#\n", renderMap(sc.Build()))
}
