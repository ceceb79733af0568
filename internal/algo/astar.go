package algo

import (
	"context"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

// jointNode is one entry of a search arena. parent indexes the same arena.
type jointNode struct {
	states []agentState
	costs  []int
	t      int
	g, h   int
	parent int
}

// spaceTimeSearch is the best-first loop shared by every A* mode. It plans
// all agents of md jointly, applying restrict (if any) to each agent's
// transitions, and returns one path per agent or nil.
func spaceTimeSearch(s *search, md *model, restrict restriction) []core.Path {
	n := len(md.agents)
	horizon := 0
	if restrict != nil {
		horizon = restrict.horizon()
	}

	rootStates := md.initialAll()
	rootCosts := make([]int, n)
	g, f, h, ok := md.evaluate(rootStates, rootCosts)
	if !ok {
		return nil
	}
	arena := []jointNode{{states: rootStates, costs: rootCosts, g: g, h: h, parent: -1}}
	open := newFrontier[int]()
	open.push(0, f, h)
	s.generated(1)
	closed := make(map[string]bool)

	options := make([][]move, n)
	chosen := make([]move, n)

	for !open.empty() {
		if s.stopped() {
			s.log.Debug("search stopped", "expanded", s.stats.Expanded)
			return nil
		}
		idx, _ := open.pop()
		node := arena[idx]
		key := stateKey(node.states, node.t, horizon)
		if closed[key] {
			continue
		}
		closed[key] = true

		if allDone(node.states) {
			return extractPaths(traceArena(arena, idx))
		}
		s.expanded()

		for i := range node.states {
			options[i] = md.successors(i, node.states[i], options[i][:0])
		}
		next := node.t + 1
		forEachJointMove(md, node.states, options, chosen, next, restrict, func() {
			states := make([]agentState, n)
			costs := make([]int, n)
			for i, mv := range chosen {
				states[i] = mv.next
				costs[i] = node.costs[i] + mv.cost
			}
			if closed[stateKey(states, next, horizon)] {
				return
			}
			g, f, h, ok := md.evaluate(states, costs)
			if !ok {
				return
			}
			arena = append(arena, jointNode{states: states, costs: costs, t: next, g: g, h: h, parent: idx})
			open.push(len(arena)-1, f, h)
			s.generated(1)
		})
	}
	return nil
}

// forEachJointMove enumerates every combination of per-agent moves that the
// restriction allows and that is collision-free, leaving the combination in
// chosen before calling emit.
func forEachJointMove(md *model, cur []agentState, options [][]move, chosen []move, t int, restrict restriction, emit func()) {
	var rec func(i int)
	rec = func(i int) {
		if i == len(cur) {
			emit()
			return
		}
	next:
		for _, mv := range options[i] {
			if restrict != nil && !restrict.allows(cur[i], mv.next, t) {
				continue
			}
			for j := 0; j < i; j++ {
				if md.collide(cur[i], mv.next, cur[j], chosen[j].next) {
					continue next
				}
			}
			chosen[i] = mv
			rec(i + 1)
		}
	}
	rec(0)
}

func traceArena(arena []jointNode, idx int) [][]agentState {
	var trace [][]agentState
	for ; idx >= 0; idx = arena[idx].parent {
		trace = append(trace, arena[idx].states)
	}
	for l, r := 0, len(trace)-1; l < r; l, r = l+1, r-1 {
		trace[l], trace[r] = trace[r], trace[l]
	}
	return trace
}

// Engine is the single-agent space-time A* used as a building block by the
// higher-level solvers. A nil path means no path exists under the given
// restrictions or the search was stopped.
type Engine struct {
	Map       *core.Map
	Settings  core.Settings
	Heuristic heuristic.Provider

	s     *search
	stats Stats
}

// NewEngine creates an engine. A nil provider selects the one named by
// settings.
func NewEngine(m *core.Map, settings core.Settings, h heuristic.Provider) *Engine {
	if h == nil {
		h = heuristic.New(settings.Heuristic, m)
	}
	return &Engine{Map: m, Settings: settings, Heuristic: h}
}

func newEngine(s *search, m *core.Map, settings core.Settings, h heuristic.Provider) *Engine {
	e := NewEngine(m, settings, h)
	e.s = s
	return e
}

// FindPath plans start->goal on the empty map.
func (e *Engine) FindPath(ctx context.Context, start, goal core.Pos) core.Path {
	return e.find(ctx, start, goal, nil)
}

// FindPathWithReservationTable plans start->goal around the cells reserved in
// rt and the goals in completed.
func (e *Engine) FindPathWithReservationTable(ctx context.Context, start, goal core.Pos, rt *ReservationTable, completed CompletedPositions) core.Path {
	return e.find(ctx, start, goal, newReservations(rt, completed, e.Settings))
}

// FindPathWithConstraints plans start->goal honoring the given constraints.
// The Agent field of each constraint is ignored; callers pass only the
// constraints of the agent being planned.
func (e *Engine) FindPathWithConstraints(ctx context.Context, start, goal core.Pos, vertex []VertexConstraint, edge []EdgeConstraint) core.Path {
	return e.find(ctx, start, goal, newConstraintSet(vertex, edge, e.Settings.StayAtGoal))
}

// Stats returns the work done by searches that ran outside a solver.
func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) find(ctx context.Context, start, goal core.Pos, restrict restriction) core.Path {
	s := e.s
	if s == nil {
		s = newSearch(ctx, "engine", nil)
		defer func() { e.stats.Add(s.stats) }()
	}
	md := newModel(e.Map, e.Settings, e.Heuristic, []core.Agent{{Start: start, Goal: goal}})
	paths := spaceTimeSearch(s, md, restrict)
	if paths == nil {
		return nil
	}
	return paths[0]
}

// JointAStar searches the full joint state space of all agents at once.
type JointAStar struct {
	settings core.Settings
	opts     options
}

// NewJointAStar creates a joint A* solver.
func NewJointAStar(settings core.Settings, opts ...Option) *JointAStar {
	return &JointAStar{settings: settings, opts: buildOptions(opts)}
}

func (a *JointAStar) Name() string { return NameAStar }

// Solve implements Solver.
func (a *JointAStar) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	s := newSearch(ctx, a.Name(), a.opts.observer)
	s.log.Debug("solve started", "agents", inst.NumAgents())
	md := newModel(inst.Map, a.settings, heuristic.New(a.settings.Heuristic, inst.Map), inst.Agents)
	return s.finish(spaceTimeSearch(s, md, nil)), nil
}
