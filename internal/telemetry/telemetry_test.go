package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-grid/internal/algo"
	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

func pos(x, y int) core.Pos { return core.Pos{X: x, Y: y} }

func junction(t *testing.T) *core.Instance {
	t.Helper()
	m, err := core.NewMap(3, 2, []core.Pos{pos(0, 1), pos(2, 1)})
	require.NoError(t, err)
	inst, err := core.NewInstance(m, []core.Agent{
		{ID: 0, Start: pos(0, 0), Goal: pos(2, 0)},
		{ID: 1, Start: pos(2, 0), Goal: pos(0, 0)},
	})
	require.NoError(t, err)
	return inst
}

func TestInstrumentCountsSolves(t *testing.T) {
	settings := core.DefaultSettings()
	base, err := algo.NewSolver("cbs", settings)
	require.NoError(t, err)
	s := Instrument(base)
	assert.Equal(t, "cbs", s.Name())

	solved := solvesTotal.WithLabelValues("cbs", "solved")
	before := testutil.ToFloat64(solved)
	generatedBefore := testutil.ToFloat64(nodesGenerated.WithLabelValues("cbs"))

	sol, err := s.Solve(context.Background(), junction(t))
	require.NoError(t, err)
	require.True(t, sol.Feasible)

	assert.Equal(t, before+1, testutil.ToFloat64(solved))
	assert.Equal(t, generatedBefore+float64(sol.Info.Generated),
		testutil.ToFloat64(nodesGenerated.WithLabelValues("cbs")))
}

func TestInstrumentCountsErrors(t *testing.T) {
	base, err := algo.NewSolver("astar", core.DefaultSettings())
	require.NoError(t, err)

	failed := solvesTotal.WithLabelValues("astar", "error")
	before := testutil.ToFloat64(failed)
	_, err = Instrument(base).Solve(context.Background(), &core.Instance{})
	require.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestMetricsObserver(t *testing.T) {
	settings := core.DefaultSettings()
	s, err := algo.NewSolver("id:cbs", settings, algo.WithObserver(MetricsObserver{}))
	require.NoError(t, err)

	merges := mergesTotal.WithLabelValues("id:cbs")
	vertex := conflictsTotal.WithLabelValues("cbs", "vertex")
	expanded := nodesExpanded.WithLabelValues("cbs")
	mergesBefore := testutil.ToFloat64(merges)
	vertexBefore := testutil.ToFloat64(vertex)
	expandedBefore := testutil.ToFloat64(expanded)

	sol, err := s.Solve(context.Background(), junction(t))
	require.NoError(t, err)
	require.True(t, sol.Feasible)

	assert.Equal(t, mergesBefore+1, testutil.ToFloat64(merges))
	assert.Greater(t, testutil.ToFloat64(vertex), vertexBefore)
	assert.Greater(t, testutil.ToFloat64(expanded), expandedBefore)
}
