package algo

import (
	"encoding/binary"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

// agentState is one agent's configuration at a time step.
type agentState struct {
	pos     core.Pos
	counter int  // consecutive steps on the goal; only tracked when agents vanish
	done    bool // settled forever (stay at goal) or vanished
}

// move is a transition for one agent and the cost it adds.
type move struct {
	next agentState
	cost int
}

// model holds the per-agent transition system shared by every search:
// which moves exist, what they cost, and how far each agent is from done.
type model struct {
	m        *core.Map
	settings core.Settings
	h        heuristic.Provider
	agents   []core.Agent
}

func newModel(m *core.Map, settings core.Settings, h heuristic.Provider, agents []core.Agent) *model {
	return &model{m: m, settings: settings, h: h, agents: agents}
}

// initial returns agent i's state at time zero.
func (md *model) initial(i int) agentState {
	a := md.agents[i]
	s := agentState{pos: a.Start}
	if !md.settings.StayAtGoal && a.Start == a.Goal {
		s.counter = 1
	}
	return s
}

func (md *model) initialAll() []agentState {
	out := make([]agentState, len(md.agents))
	for i := range md.agents {
		out[i] = md.initial(i)
	}
	return out
}

// enter returns the state reached when agent i steps (or waits) onto p.
func (md *model) enter(i int, from agentState, p core.Pos) agentState {
	next := agentState{pos: p}
	if md.settings.StayAtGoal || p != md.agents[i].Goal {
		return next
	}
	if from.pos == p {
		next.counter = from.counter + 1
	} else {
		next.counter = 1
	}
	return next
}

// successors appends every transition available to agent i from s.
// Done agents self-loop at zero cost. With stay-at-goal an agent on its goal
// may settle; otherwise it vanishes once it has occupied the goal long enough.
func (md *model) successors(i int, s agentState, buf []move) []move {
	if s.done {
		return append(buf, move{next: s, cost: 0})
	}
	goal := md.agents[i].Goal
	if s.pos == goal {
		if md.settings.StayAtGoal {
			buf = append(buf, move{next: agentState{pos: goal, done: true}, cost: 0})
		} else if s.counter >= md.settings.GoalOccupationTime {
			return append(buf, move{next: agentState{pos: goal, counter: s.counter, done: true}, cost: 0})
		}
	}
	buf = append(buf, move{next: md.enter(i, s, s.pos), cost: 1})
	for _, nb := range md.m.Neighbors(s.pos) {
		buf = append(buf, move{next: md.enter(i, s, nb), cost: 1})
	}
	return buf
}

// heuristic estimates agent i's remaining cost from s, or Unreachable.
func (md *model) heuristic(i int, s agentState) int {
	if s.done {
		return 0
	}
	goal := md.agents[i].Goal
	if md.settings.StayAtGoal {
		return md.h.Distance(s.pos, goal)
	}
	k := md.settings.GoalOccupationTime
	if s.pos == goal {
		if rem := k - s.counter; rem > 0 {
			return rem
		}
		return 0
	}
	d := md.h.Distance(s.pos, goal)
	if d == heuristic.Unreachable {
		return d
	}
	return d + k - 1
}

// occupies returns the cell s blocks; vanished agents block nothing.
func (md *model) occupies(s agentState) (core.Pos, bool) {
	if s.done && !md.settings.StayAtGoal {
		return core.Pos{}, false
	}
	return s.pos, true
}

// collide reports whether two simultaneous transitions a->a2 and b->b2
// produce a vertex or (when enabled) an edge conflict.
func (md *model) collide(a, a2, b, b2 agentState) bool {
	pa, okA := md.occupies(a2)
	pb, okB := md.occupies(b2)
	if !okA || !okB {
		return false
	}
	if pa == pb {
		return true
	}
	return md.settings.EdgeConflict && a.pos != a2.pos && a.pos == b2.pos && b.pos == a2.pos
}

// evaluate returns the aggregated g, f and h for per-agent costs and states.
// ok is false when some agent cannot reach its goal.
func (md *model) evaluate(states []agentState, costs []int) (g, f, h int, ok bool) {
	totals := make([]int, len(states))
	for i, s := range states {
		hi := md.heuristic(i, s)
		if hi == heuristic.Unreachable {
			return 0, 0, 0, false
		}
		totals[i] = costs[i] + hi
	}
	g = aggregate(md.settings.Objective, costs)
	f = aggregate(md.settings.Objective, totals)
	return g, f, f - g, true
}

func allDone(states []agentState) bool {
	for _, s := range states {
		if !s.done {
			return false
		}
	}
	return true
}

// appendStateKey encodes states into b for use as a map key.
func appendStateKey(b []byte, states []agentState) []byte {
	for _, s := range states {
		b = binary.LittleEndian.AppendUint16(b, uint16(s.pos.X))
		b = binary.LittleEndian.AppendUint16(b, uint16(s.pos.Y))
		b = binary.LittleEndian.AppendUint16(b, uint16(s.counter))
		if s.done {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	}
	return b
}

// stateKey identifies a configuration at time t. Past the horizon the
// environment is static, so time is clamped and equal configurations merge.
func stateKey(states []agentState, t, horizon int) string {
	if t > horizon {
		t = horizon
	}
	b := make([]byte, 0, len(states)*7+binary.MaxVarintLen64)
	b = appendStateKey(b, states)
	b = binary.AppendUvarint(b, uint64(t))
	return string(b)
}

// extractPaths turns a time-ordered sequence of joint states into one path
// per agent, keeping only the steps where the agent is not yet done.
func extractPaths(trace [][]agentState) []core.Path {
	if len(trace) == 0 {
		return nil
	}
	paths := make([]core.Path, len(trace[0]))
	for i := range paths {
		for _, states := range trace {
			if states[i].done {
				break
			}
			paths[i] = append(paths[i], states[i].pos)
		}
	}
	return paths
}
