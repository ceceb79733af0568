package algo

import "github.com/elektrokombinacija/mapf-grid/internal/core"

// VertexConstraint forbids Agent from being on Pos at Time.
type VertexConstraint struct {
	Agent int
	Pos   core.Pos
	Time  int
}

// EdgeConstraint forbids Agent from moving From->To arriving at Time.
type EdgeConstraint struct {
	Agent    int
	From, To core.Pos
	Time     int
}

type edgeTime struct {
	from, to core.Pos
	t        int
}

// restriction filters single-agent transitions arriving at time t.
type restriction interface {
	allows(from, to agentState, t int) bool
	// horizon is the last time step at which the restriction can reject
	// anything time-dependent.
	horizon() int
}

// constraintSet is the CBS low-level restriction for one agent.
type constraintSet struct {
	vertex     map[cellTime]bool
	edge       map[edgeTime]bool
	lastVertex map[core.Pos]int
	last       int
	stay       bool
}

func newConstraintSet(vertex []VertexConstraint, edge []EdgeConstraint, stay bool) *constraintSet {
	cs := &constraintSet{
		vertex:     make(map[cellTime]bool, len(vertex)),
		edge:       make(map[edgeTime]bool, len(edge)),
		lastVertex: make(map[core.Pos]int),
		stay:       stay,
	}
	for _, c := range vertex {
		cs.vertex[cellTime{c.Pos, c.Time}] = true
		if t, ok := cs.lastVertex[c.Pos]; !ok || c.Time > t {
			cs.lastVertex[c.Pos] = c.Time
		}
		cs.last = max(cs.last, c.Time)
	}
	for _, c := range edge {
		cs.edge[edgeTime{c.From, c.To, c.Time}] = true
		cs.last = max(cs.last, c.Time)
	}
	return cs
}

func (cs *constraintSet) allows(from, to agentState, t int) bool {
	if to.done {
		if from.done || !cs.stay {
			return true
		}
		// Settling occupies the goal for every later step.
		last, ok := cs.lastVertex[to.pos]
		return !ok || last < t
	}
	if cs.vertex[cellTime{to.pos, t}] {
		return false
	}
	return !cs.edge[edgeTime{from.pos, to.pos, t}]
}

func (cs *constraintSet) horizon() int { return cs.last }

// ReservationTable records the cells claimed by already planned agents,
// one claim per (cell, time step).
type ReservationTable struct {
	cells   map[cellTime]int
	last    map[core.Pos]int
	horizon int
}

// NewReservationTable returns an empty table.
func NewReservationTable() *ReservationTable {
	return &ReservationTable{
		cells: make(map[cellTime]int),
		last:  make(map[core.Pos]int),
	}
}

// Reserve claims every (cell, time) along path for agent.
func (rt *ReservationTable) Reserve(agent int, path core.Path) {
	for t, p := range path {
		rt.cells[cellTime{p, t}] = agent
		if last, ok := rt.last[p]; !ok || t > last {
			rt.last[p] = t
		}
		rt.horizon = max(rt.horizon, t)
	}
}

// Occupant returns the agent holding p at t.
func (rt *ReservationTable) Occupant(p core.Pos, t int) (int, bool) {
	a, ok := rt.cells[cellTime{p, t}]
	return a, ok
}

// Reserved reports whether p is claimed at t.
func (rt *ReservationTable) Reserved(p core.Pos, t int) bool {
	_, ok := rt.cells[cellTime{p, t}]
	return ok
}

// CompletedPositions maps a goal cell to the time step from which an agent
// parked there occupies it forever.
type CompletedPositions map[core.Pos]int

// reservations is the Cooperative A* restriction. A move is rejected when
// its target is reserved, or parked on, at arrival time, or when it swaps
// with the agent that held the target one step earlier. An agent may only
// settle on its goal once no reservation on that cell remains at or after
// the settling step.
type reservations struct {
	rt        *ReservationTable
	completed CompletedPositions
	edge      bool
	stay      bool
	last      int
}

func newReservations(rt *ReservationTable, completed CompletedPositions, settings core.Settings) *reservations {
	if rt == nil {
		rt = NewReservationTable()
	}
	r := &reservations{
		rt:        rt,
		completed: completed,
		edge:      settings.EdgeConflict,
		stay:      settings.StayAtGoal,
		last:      rt.horizon,
	}
	for _, t := range completed {
		r.last = max(r.last, t)
	}
	return r
}

func (r *reservations) allows(from, to agentState, t int) bool {
	if to.done {
		if from.done || !r.stay {
			return true
		}
		last, ok := r.rt.last[to.pos]
		return !ok || last < t
	}
	if r.rt.Reserved(to.pos, t) {
		return false
	}
	if since, ok := r.completed[to.pos]; ok && since <= t {
		return false
	}
	if !r.edge || from.pos == to.pos {
		return true
	}
	a, ok := r.rt.Occupant(from.pos, t)
	if !ok {
		return true
	}
	b, ok := r.rt.Occupant(to.pos, t-1)
	return !ok || a != b
}

func (r *reservations) horizon() int { return r.last }
