package algo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/sim"
)

func p(x, y int) core.Pos { return core.Pos{X: x, Y: y} }

// createGrid creates an n x n map without obstacles.
func createGrid(n int) *core.Map {
	return core.MustMap(n, n, nil)
}

// createInstance builds an instance whose agents get IDs in pair order.
func createInstance(t *testing.T, m *core.Map, pairs ...[2]core.Pos) *core.Instance {
	t.Helper()
	agents := make([]core.Agent, len(pairs))
	for i, pr := range pairs {
		agents[i] = core.Agent{ID: core.AgentID(i), Start: pr[0], Goal: pr[1]}
	}
	inst, err := core.NewInstance(m, agents)
	require.NoError(t, err)
	return inst
}

// junctionInstance is a 3x2 corridor with one side pocket at (1,1). The two
// agents swap ends, so one of them has to dodge into the pocket.
func junctionInstance(t *testing.T) *core.Instance {
	m := core.MustMap(3, 2, []core.Pos{p(0, 1), p(2, 1)})
	return createInstance(t, m,
		[2]core.Pos{p(0, 0), p(2, 0)},
		[2]core.Pos{p(2, 0), p(0, 0)},
	)
}

// corridorInstance is a 3x1 corridor where two agents swap ends. It has no
// solution.
func corridorInstance(t *testing.T) *core.Instance {
	return createInstance(t, core.MustMap(3, 1, nil),
		[2]core.Pos{p(0, 0), p(2, 0)},
		[2]core.Pos{p(2, 0), p(0, 0)},
	)
}

// passingInstance is a 4x1 corridor where A sits between B and B's goal.
// It is only solvable when agents vanish: A has to reach its goal and
// disappear before B can pass.
func passingInstance(t *testing.T) *core.Instance {
	return createInstance(t, core.MustMap(4, 1, nil),
		[2]core.Pos{p(1, 0), p(2, 0)},
		[2]core.Pos{p(0, 0), p(3, 0)},
	)
}

// crossInstance is a plus-shaped map where two agents' only shortest paths
// meet on the center cell at t=1.
func crossInstance(t *testing.T) *core.Instance {
	m := core.MustMap(3, 3, []core.Pos{p(0, 0), p(2, 0), p(0, 2), p(2, 2)})
	return createInstance(t, m,
		[2]core.Pos{p(0, 1), p(2, 1)},
		[2]core.Pos{p(1, 0), p(1, 2)},
	)
}

// openInstance has three agents crossing a 4x4 open grid.
func openInstance(t *testing.T) *core.Instance {
	return createInstance(t, createGrid(4),
		[2]core.Pos{p(0, 0), p(3, 3)},
		[2]core.Pos{p(3, 0), p(0, 3)},
		[2]core.Pos{p(0, 2), p(3, 1)},
	)
}

func vanishSettings(k int) core.Settings {
	s := core.DefaultSettings()
	s.StayAtGoal = false
	s.GoalOccupationTime = k
	return s
}

func mustSolver(t *testing.T, name string, settings core.Settings, opts ...Option) Solver {
	t.Helper()
	s, err := NewSolver(name, settings, opts...)
	require.NoError(t, err)
	return s
}

// solve runs solver under a generous time budget so a broken search fails
// the test instead of hanging it.
func solve(t *testing.T, s Solver, inst *core.Instance) *core.Solution {
	t.Helper()
	sol, err := Run(context.Background(), s, inst, 20*time.Second)
	require.NoError(t, err)
	require.NotNil(t, sol)
	return sol
}

func requireValidPlan(t *testing.T, inst *core.Instance, settings core.Settings, sol *core.Solution) {
	t.Helper()
	require.True(t, sol.Feasible, "status %v", sol.Info.Status)
	require.NoError(t, sim.Replay(inst, settings, sol.Paths))
	require.Nil(t, FindFirstConflict(sol.Paths, settings))
}
