package heuristic

import (
	"github.com/oleiade/lane/v2"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// RRA owns one resumable reverse search per goal. A table is created on the
// first query for its goal and extended only as far as later queries need.
// Values are exact shortest-path distances.
type RRA struct {
	m      *core.Map
	tables map[core.Pos]*rraTable
}

// NewRRA creates an empty RRA* provider for m.
func NewRRA(m *core.Map) *RRA {
	return &RRA{m: m, tables: make(map[core.Pos]*rraTable)}
}

// Distance returns the true shortest-path distance, or Unreachable.
func (r *RRA) Distance(from, goal core.Pos) int {
	t, ok := r.tables[goal]
	if !ok {
		t = newRRATable(r.m, goal, from)
		r.tables[goal] = t
	}
	return t.resolve(from)
}

// Resolved reports how many cells have an exact distance for goal.
func (r *RRA) Resolved(goal core.Pos) int {
	if t, ok := r.tables[goal]; ok {
		return len(t.closed)
	}
	return 0
}

// rraTable is a backwards A* from the goal, ordered toward the cell of the
// first query. Manhattan is consistent, so every closed cell is exact no
// matter which cell later queries ask for.
type rraTable struct {
	m      *core.Map
	goal   core.Pos
	origin core.Pos
	open   *lane.PriorityQueue[core.Pos, int]
	g      map[core.Pos]int
	closed map[core.Pos]int
}

func newRRATable(m *core.Map, goal, origin core.Pos) *rraTable {
	t := &rraTable{
		m:      m,
		goal:   goal,
		origin: origin,
		open:   lane.NewMinPriorityQueue[core.Pos, int](),
		g:      make(map[core.Pos]int),
		closed: make(map[core.Pos]int),
	}
	if m.Passable(goal) {
		t.g[goal] = 0
		t.open.Push(goal, goal.Manhattan(origin))
	}
	return t
}

// resolve resumes the reverse search until p is closed or the open list
// runs dry.
func (t *rraTable) resolve(p core.Pos) int {
	if d, ok := t.closed[p]; ok {
		return d
	}
	if !t.m.Passable(p) {
		return Unreachable
	}

	for !t.open.Empty() {
		n, _, _ := t.open.Pop()
		if _, done := t.closed[n]; done {
			continue
		}
		gn := t.g[n]
		t.closed[n] = gn

		for _, nb := range t.m.Neighbors(n) {
			if _, done := t.closed[nb]; done {
				continue
			}
			if old, seen := t.g[nb]; seen && old <= gn+1 {
				continue
			}
			t.g[nb] = gn + 1
			t.open.Push(nb, gn+1+nb.Manhattan(t.origin))
		}

		if n == p {
			return gn
		}
	}
	return Unreachable
}
