package algo

import (
	"context"
	"encoding/binary"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

// odNode is a joint state under operator decomposition. Agents before next
// have already moved to step t+1; the rest are still at step t. For an
// intermediate node base is the arena index of its standard ancestor, where
// every agent is at step t.
type odNode struct {
	states []agentState
	costs  []int
	t      int
	next   int
	base   int
	parent int
}

func (n *odNode) standard() bool { return n.next == 0 }

// ODAStar is joint A* with operator decomposition: each expansion assigns a
// move to a single agent, which keeps the branching factor linear in the
// number of agents.
type ODAStar struct {
	settings core.Settings
	opts     options
}

// NewODAStar creates an A*+OD solver.
func NewODAStar(settings core.Settings, opts ...Option) *ODAStar {
	return &ODAStar{settings: settings, opts: buildOptions(opts)}
}

func (o *ODAStar) Name() string { return NameOD }

// Solve implements Solver.
func (o *ODAStar) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	s := newSearch(ctx, o.Name(), o.opts.observer)
	s.log.Debug("solve started", "agents", inst.NumAgents())
	md := newModel(inst.Map, o.settings, heuristic.New(o.settings.Heuristic, inst.Map), inst.Agents)
	return s.finish(odSearch(s, md)), nil
}

func odSearch(s *search, md *model) []core.Path {
	n := len(md.agents)
	rootStates := md.initialAll()
	rootCosts := make([]int, n)
	_, f, h, ok := md.evaluate(rootStates, rootCosts)
	if !ok {
		return nil
	}
	arena := []odNode{{states: rootStates, costs: rootCosts, parent: -1}}
	open := newFrontier[int]()
	open.push(0, f, h)
	s.generated(1)
	closed := make(map[string]bool)

	var buf []move
	for !open.empty() {
		if s.stopped() {
			return nil
		}
		idx, _ := open.pop()
		node := arena[idx]
		key := odKey(arena, &node)
		if closed[key] {
			continue
		}
		closed[key] = true

		if node.standard() && allDone(node.states) {
			return extractPaths(odTrace(arena, idx))
		}
		s.expanded()

		baseIdx := node.base
		if node.standard() {
			baseIdx = idx
		}
		base := arena[baseIdx].states
		i := node.next
		buf = md.successors(i, base[i], buf[:0])

	moves:
		for _, mv := range buf {
			for j := 0; j < i; j++ {
				if md.collide(base[i], mv.next, base[j], node.states[j]) {
					continue moves
				}
			}
			child := odNode{
				states: append([]agentState(nil), node.states...),
				costs:  append([]int(nil), node.costs...),
				t:      node.t,
				next:   i + 1,
				base:   baseIdx,
				parent: idx,
			}
			child.states[i] = mv.next
			child.costs[i] += mv.cost
			if child.next == n {
				child.next = 0
				child.t++
			}
			_, f, h, ok := md.evaluate(child.states, child.costs)
			if !ok {
				continue
			}
			arena = append(arena, child)
			open.push(len(arena)-1, f, h)
			s.generated(1)
		}
	}
	return nil
}

// odKey identifies an intermediate node by its standard ancestor's
// configuration, the moves assigned so far and the next agent to move.
func odKey(arena []odNode, node *odNode) string {
	var b []byte
	if node.standard() {
		b = appendStateKey(b, node.states)
	} else {
		b = appendStateKey(b, arena[node.base].states)
		b = appendStateKey(b, node.states[:node.next])
	}
	b = binary.AppendUvarint(b, uint64(node.next))
	return string(b)
}

func odTrace(arena []odNode, idx int) [][]agentState {
	var trace [][]agentState
	for ; idx >= 0; idx = arena[idx].parent {
		if arena[idx].standard() {
			trace = append(trace, arena[idx].states)
		}
	}
	for l, r := 0, len(trace)-1; l < r; l, r = l+1, r-1 {
		trace[l], trace[r] = trace[r], trace[l]
	}
	return trace
}
