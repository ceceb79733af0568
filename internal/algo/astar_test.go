package algo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

func TestFindPathOnEmptyGrid(t *testing.T) {
	for _, kind := range []core.HeuristicKind{core.HeuristicManhattan, core.HeuristicRRA} {
		t.Run(kind.String(), func(t *testing.T) {
			settings := core.DefaultSettings()
			settings.Heuristic = kind
			e := NewEngine(createGrid(8), settings, nil)

			path := e.FindPath(context.Background(), p(0, 0), p(7, 7))
			require.Len(t, path, 15)
			assert.Equal(t, 14, path.Cost())
			assert.Equal(t, p(0, 0), path[0])
			assert.Equal(t, p(7, 7), path[14])
			assert.Positive(t, e.Stats().Expanded)
		})
	}
}

func TestFindPathUnreachable(t *testing.T) {
	m := core.MustMap(3, 3, []core.Pos{p(1, 0), p(1, 1), p(1, 2)})
	e := NewEngine(m, core.DefaultSettings(), nil)
	assert.Nil(t, e.FindPath(context.Background(), p(0, 0), p(2, 2)))
}

func TestVertexConstraintForcesWait(t *testing.T) {
	e := NewEngine(core.MustMap(3, 1, nil), core.DefaultSettings(), nil)
	path := e.FindPathWithConstraints(context.Background(), p(0, 0), p(2, 0),
		[]VertexConstraint{{Pos: p(1, 0), Time: 1}}, nil)
	assert.Equal(t, core.Path{p(0, 0), p(0, 0), p(1, 0), p(2, 0)}, path)
}

func TestEdgeConstraintEnforcement(t *testing.T) {
	e := NewEngine(core.MustMap(3, 1, nil), core.DefaultSettings(), nil)
	path := e.FindPathWithConstraints(context.Background(), p(0, 0), p(1, 0),
		nil, []EdgeConstraint{{From: p(0, 0), To: p(1, 0), Time: 1}})
	assert.Equal(t, core.Path{p(0, 0), p(0, 0), p(1, 0)}, path)
}

func TestGoalConstraintDelaysSettling(t *testing.T) {
	vertex := []VertexConstraint{{Pos: p(1, 0), Time: 3}}
	m := core.MustMap(3, 1, nil)

	// Staying agents cannot settle before the last constraint on their goal.
	e := NewEngine(m, core.DefaultSettings(), nil)
	path := e.FindPathWithConstraints(context.Background(), p(0, 0), p(1, 0), vertex, nil)
	require.NotNil(t, path)
	assert.Equal(t, 4, path.Cost())
	assert.NotEqual(t, p(1, 0), path[3])

	// Vanishing agents are gone long before t=3.
	e = NewEngine(m, vanishSettings(1), nil)
	path = e.FindPathWithConstraints(context.Background(), p(0, 0), p(1, 0), vertex, nil)
	assert.Equal(t, core.Path{p(0, 0), p(1, 0)}, path)
}

func TestGoalOccupationTime(t *testing.T) {
	e := NewEngine(createGrid(4), vanishSettings(3), nil)
	path := e.FindPath(context.Background(), p(0, 0), p(2, 0))
	assert.Equal(t, core.Path{p(0, 0), p(1, 0), p(2, 0), p(2, 0), p(2, 0)}, path)
}

func TestReservationTable(t *testing.T) {
	ctx := context.Background()
	m := createGrid(3)

	t.Run("parked agent blocks forever", func(t *testing.T) {
		rt := NewReservationTable()
		rt.Reserve(0, core.Path{p(0, 1), p(1, 1)})
		completed := CompletedPositions{p(1, 1): 1}

		e := NewEngine(m, core.DefaultSettings(), nil)
		path := e.FindPathWithReservationTable(ctx, p(1, 0), p(1, 2), rt, completed)
		require.NotNil(t, path)
		assert.Equal(t, 4, path.Cost())
		for step, cell := range path[1:] {
			assert.NotEqual(t, p(1, 1), cell, "t=%d", step+1)
		}
	})

	t.Run("vanished agent frees its goal", func(t *testing.T) {
		rt := NewReservationTable()
		rt.Reserve(0, core.Path{p(0, 1), p(1, 1)})

		e := NewEngine(m, vanishSettings(1), nil)
		path := e.FindPathWithReservationTable(ctx, p(1, 0), p(1, 2), rt, nil)
		require.NotNil(t, path)
		assert.Equal(t, 3, path.Cost())
		assert.NotEqual(t, p(1, 1), path[1])
	})

	t.Run("swap with reserved agent", func(t *testing.T) {
		rt := NewReservationTable()
		rt.Reserve(0, core.Path{p(1, 1), p(1, 0)})
		completed := CompletedPositions{p(1, 0): 1}

		e := NewEngine(m, core.DefaultSettings(), nil)
		path := e.FindPathWithReservationTable(ctx, p(1, 0), p(1, 2), rt, completed)
		require.NotNil(t, path)
		assert.Equal(t, 4, path.Cost())

		settings := core.DefaultSettings()
		settings.EdgeConflict = false
		e = NewEngine(m, settings, nil)
		path = e.FindPathWithReservationTable(ctx, p(1, 0), p(1, 2), rt, completed)
		assert.Equal(t, core.Path{p(1, 0), p(1, 1), p(1, 2)}, path)
	})

	t.Run("occupant lookup", func(t *testing.T) {
		rt := NewReservationTable()
		rt.Reserve(4, core.Path{p(0, 0), p(1, 0)})
		a, ok := rt.Occupant(p(1, 0), 1)
		assert.True(t, ok)
		assert.Equal(t, 4, a)
		assert.False(t, rt.Reserved(p(1, 0), 0))
	})
}

func TestBuildMDD(t *testing.T) {
	md := newModel(createGrid(3), core.DefaultSettings(), heuristic.Manhattan{},
		[]core.Agent{{Start: p(0, 0), Goal: p(2, 2)}})

	assert.Nil(t, buildMDD(md, 0, 3, false))

	d := buildMDD(md, 0, 4, false)
	require.NotNil(t, d)
	assert.Equal(t, 9, d.size())
	paths := d.paths(100)
	assert.Len(t, paths, 6)
	for _, path := range paths {
		assert.Equal(t, 4, path.Cost())
		assert.Equal(t, p(2, 2), path[4])
	}

	vanish := newModel(createGrid(3), vanishSettings(2), md.h, md.agents)
	assert.Nil(t, buildMDD(vanish, 0, 4, false))
	d = buildMDD(vanish, 0, 5, false)
	require.NotNil(t, d)
	for _, path := range d.paths(100) {
		assert.Equal(t, path[4], path[5])
	}
	assert.Len(t, d.paths(100), 6)

	// A bounded MDD also keeps the agent that vanishes before the bound.
	short := newModel(createGrid(3), vanishSettings(1), md.h,
		[]core.Agent{{Start: p(0, 0), Goal: p(1, 0)}})
	exact := buildMDD(short, 0, 3, false)
	bounded := buildMDD(short, 0, 3, true)
	require.NotNil(t, exact)
	require.NotNil(t, bounded)
	finishesAt := func(d *mdd, t int) bool {
		for _, idx := range d.layers[t] {
			if d.finishes(short, idx) {
				return true
			}
		}
		return false
	}
	assert.False(t, finishesAt(exact, 1))
	assert.True(t, finishesAt(bounded, 1))
	assert.Greater(t, bounded.size(), exact.size())
}
