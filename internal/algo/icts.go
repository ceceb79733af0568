package algo

import (
	"context"
	"encoding/binary"

	"github.com/oleiade/lane/v2"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

// ICTS implements the Increasing Cost Tree Search. High-level nodes are
// per-agent cost vectors explored in order of aggregate cost; each is
// checked by searching the product of the agents' MDDs.
//
// Under makespan a cost vector holds upper bounds: an agent may finish at
// any step up to its coordinate, so agents can clear the way for others by
// vanishing early.
type ICTS struct {
	settings core.Settings
	opts     options
}

// NewICTS creates an ICTS solver.
func NewICTS(settings core.Settings, opts ...Option) *ICTS {
	return &ICTS{settings: settings, opts: buildOptions(opts)}
}

func (c *ICTS) Name() string { return NameICTS }

type mddMemoKey struct {
	agent, cost int
}

// Solve implements Solver.
func (c *ICTS) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	s := newSearch(ctx, c.Name(), c.opts.observer)
	h := heuristic.New(c.settings.Heuristic, inst.Map)
	md := newModel(inst.Map, c.settings, h, inst.Agents)
	engine := newEngine(s, inst.Map, c.settings, h)

	n := inst.NumAgents()
	root := make([]int, n)
	for i, a := range inst.Agents {
		path := engine.FindPath(ctx, a.Start, a.Goal)
		if path == nil {
			return s.finish(nil), nil
		}
		root[i] = path.Cost()
	}
	bounded := c.settings.Objective == core.Makespan
	s.log.Debug("solve started", "agents", n, "root", root)

	open := lane.NewMinPriorityQueue[[]int, int]()
	open.Push(root, aggregate(c.settings.Objective, root))
	visited := map[string]bool{costKey(root): true}
	memo := make(map[mddMemoKey]*mdd)
	s.generated(1)

	for !open.Empty() {
		if s.stopped() {
			break
		}
		costs, total, _ := open.Pop()
		s.log.Debug("checking cost vector", "costs", costs, "total", total)

		mdds := make([]*mdd, n)
		feasible := true
		for i := range costs {
			k := mddMemoKey{i, costs[i]}
			d, ok := memo[k]
			if !ok {
				d = buildMDD(md, i, costs[i], bounded)
				memo[k] = d
			}
			if d == nil {
				feasible = false
				break
			}
			mdds[i] = d
		}
		if feasible {
			if paths := totalMDD(s, md, mdds); paths != nil {
				if c.settings.StayAtGoal {
					trimParked(paths)
				}
				return s.finish(paths), nil
			}
		}

		for _, child := range c.children(costs) {
			key := costKey(child)
			if visited[key] {
				continue
			}
			visited[key] = true
			open.Push(child, aggregate(c.settings.Objective, child))
			s.generated(1)
		}
	}
	return s.finish(nil), nil
}

// children raises one coordinate for sum-of-costs. For makespan, bounded
// MDDs grow with their bound, so a vector whose coordinates all equal its
// maximum covers every vector with that maximum: the child first lifts
// every coordinate to the maximum, then raises them all together.
func (c *ICTS) children(costs []int) [][]int {
	if c.settings.Objective == core.Makespan {
		top := aggregate(core.Makespan, costs)
		child := make([]int, len(costs))
		flat := true
		for i, v := range costs {
			child[i] = top
			flat = flat && v == top
		}
		if flat {
			for i := range child {
				child[i]++
			}
		}
		return [][]int{child}
	}
	out := make([][]int, len(costs))
	for i := range costs {
		child := append([]int(nil), costs...)
		child[i]++
		out[i] = child
	}
	return out
}

func costKey(costs []int) string {
	var b []byte
	for _, v := range costs {
		b = binary.AppendUvarint(b, uint64(v))
	}
	return string(b)
}

// trimParked drops trailing goal waits. An agent that stays at its goal
// occupies the same cell either way.
func trimParked(paths []core.Path) {
	for i, p := range paths {
		for len(p) > 1 && p[len(p)-1] == p[len(p)-2] {
			p = p[:len(p)-1]
		}
		paths[i] = p
	}
}
