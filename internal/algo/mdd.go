package algo

import (
	"encoding/binary"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// mddNode is a (state, time) pair of an MDD. Several parents may reach the
// same node, so the diagram is a DAG.
type mddNode struct {
	state    agentState
	t        int
	parents  []int
	children []int
}

// mdd holds every path of one agent whose cost is exactly cost, or at most
// cost when bounded. layers[t] lists the node indices at time t.
type mdd struct {
	agent   int
	cost    int
	bounded bool
	nodes   []mddNode
	layers  [][]int
}

type mddKey struct {
	state agentState
	t     int
}

// buildMDD returns agent i's MDD for cost, or nil when no such path exists.
// A bounded MDD also keeps paths that finish before cost, so the agent may
// settle or vanish at any layer where it is allowed to. A layer-by-layer
// forward pass keeps states that can still finish by cost; a backward pass
// drops those that do not finish.
func buildMDD(md *model, i, cost int, bounded bool) *mdd {
	d := &mdd{agent: i, cost: cost, bounded: bounded, layers: make([][]int, cost+1)}
	start := md.initial(i)
	if md.heuristic(i, start) > cost {
		return nil
	}
	d.nodes = append(d.nodes, mddNode{state: start})
	d.layers[0] = []int{0}

	var buf []move
	for t := 0; t < cost; t++ {
		index := make(map[mddKey]int)
		for _, idx := range d.layers[t] {
			buf = md.successors(i, d.nodes[idx].state, buf[:0])
			for _, mv := range buf {
				if mv.next.done {
					continue
				}
				if t+1+md.heuristic(i, mv.next) > cost {
					continue
				}
				k := mddKey{mv.next, t + 1}
				child, ok := index[k]
				if !ok {
					child = len(d.nodes)
					d.nodes = append(d.nodes, mddNode{state: mv.next, t: t + 1})
					d.layers[t+1] = append(d.layers[t+1], child)
					index[k] = child
				}
				d.nodes[idx].children = append(d.nodes[idx].children, child)
				d.nodes[child].parents = append(d.nodes[child].parents, idx)
			}
		}
	}

	alive := make([]bool, len(d.nodes))
	for _, idx := range d.layers[cost] {
		alive[idx] = md.heuristic(i, d.nodes[idx].state) == 0
	}
	for t := cost - 1; t >= 0; t-- {
		for _, idx := range d.layers[t] {
			if d.finishes(md, idx) {
				alive[idx] = true
				continue
			}
			for _, c := range d.nodes[idx].children {
				if alive[c] {
					alive[idx] = true
					break
				}
			}
		}
	}
	if !alive[0] {
		return nil
	}
	d.prune(alive)
	return d
}

// finishes reports whether the agent may become done right after node idx
// before the last layer. Only bounded MDDs allow that.
func (d *mdd) finishes(md *model, idx int) bool {
	n := d.nodes[idx]
	return d.bounded && n.t < d.cost && md.heuristic(d.agent, n.state) == 0
}

// prune drops dead nodes and their edges; indices are kept stable.
func (d *mdd) prune(alive []bool) {
	keep := func(ids []int) []int {
		out := ids[:0]
		for _, id := range ids {
			if alive[id] {
				out = append(out, id)
			}
		}
		return out
	}
	for t := range d.layers {
		d.layers[t] = keep(d.layers[t])
	}
	for idx := range d.nodes {
		if !alive[idx] {
			d.nodes[idx].children = nil
			d.nodes[idx].parents = nil
			continue
		}
		d.nodes[idx].children = keep(d.nodes[idx].children)
		d.nodes[idx].parents = keep(d.nodes[idx].parents)
	}
}

// size returns the number of live nodes.
func (d *mdd) size() int {
	n := 0
	for _, l := range d.layers {
		n += len(l)
	}
	return n
}

// paths enumerates up to limit root-to-goal paths, following every parent
// chain from the goal layer back to the start. Paths that finish early in a
// bounded MDD are not listed.
func (d *mdd) paths(limit int) []core.Path {
	var out []core.Path
	var walk func(idx int, suffix []core.Pos)
	walk = func(idx int, suffix []core.Pos) {
		if len(out) >= limit {
			return
		}
		n := d.nodes[idx]
		suffix = append([]core.Pos{n.state.pos}, suffix...)
		if n.t == 0 {
			out = append(out, core.Path(suffix))
			return
		}
		for _, p := range n.parents {
			walk(p, suffix)
		}
	}
	for _, idx := range d.layers[d.cost] {
		walk(idx, nil)
	}
	return out
}

// doneIndex marks an agent whose MDD has ended and who is now done.
const doneIndex = -1

type totalNode struct {
	tuple  []int
	parent int
}

// totalMDD searches the cross product of the agents' MDDs one time layer at
// a time, discarding joint nodes with a vertex or edge conflict. It returns
// a conflict-free path per agent, or nil.
func totalMDD(s *search, md *model, mdds []*mdd) []core.Path {
	n := len(mdds)
	depth := 0
	for _, d := range mdds {
		depth = max(depth, d.cost)
	}

	arena := []totalNode{{tuple: make([]int, n), parent: -1}}
	layer := []int{0}
	cur := make([]agentState, n)
	next := make([]agentState, n)
	options := make([][]int, n)
	chosen := make([]int, n)

	for t := 0; t < depth; t++ {
		if s.stopped() {
			return nil
		}
		seen := make(map[string]bool)
		var nextLayer []int
		for _, idx := range layer {
			s.expanded()
			tuple := arena[idx].tuple
			for i, d := range mdds {
				cur[i] = d.stateAt(md, tuple[i])
				switch {
				case tuple[i] == doneIndex:
					options[i] = append(options[i][:0], doneIndex)
				case t == d.cost:
					options[i] = append(options[i][:0], doneIndex)
				default:
					options[i] = append(options[i][:0], d.nodes[tuple[i]].children...)
					if d.finishes(md, tuple[i]) {
						options[i] = append(options[i], doneIndex)
					}
				}
			}

			var rec func(i int)
			rec = func(i int) {
				if i == n {
					child := append([]int(nil), chosen...)
					key := tupleKey(child)
					if seen[key] {
						return
					}
					seen[key] = true
					arena = append(arena, totalNode{tuple: child, parent: idx})
					nextLayer = append(nextLayer, len(arena)-1)
					s.generated(1)
					return
				}
			opts:
				for _, o := range options[i] {
					next[i] = mdds[i].stateAt(md, o)
					for j := 0; j < i; j++ {
						if md.collide(cur[i], next[i], cur[j], next[j]) {
							continue opts
						}
					}
					chosen[i] = o
					rec(i + 1)
				}
			}
			rec(0)
		}
		if len(nextLayer) == 0 {
			return nil
		}
		layer = nextLayer
	}

	// Any surviving joint node at the deepest layer is a solution.
	paths := make([]core.Path, n)
	var chain []int
	for idx := layer[0]; idx >= 0; idx = arena[idx].parent {
		chain = append(chain, idx)
	}
	for k := len(chain) - 1; k >= 0; k-- {
		for i, ni := range arena[chain[k]].tuple {
			if ni != doneIndex {
				paths[i] = append(paths[i], mdds[i].nodes[ni].state.pos)
			}
		}
	}
	return paths
}

// stateAt returns the agent state for an MDD node index, or the done state.
func (d *mdd) stateAt(md *model, idx int) agentState {
	if idx == doneIndex {
		return agentState{pos: md.agents[d.agent].Goal, done: true}
	}
	return d.nodes[idx].state
}

func tupleKey(tuple []int) string {
	b := make([]byte, 0, len(tuple)*binary.MaxVarintLen32)
	for _, v := range tuple {
		b = binary.AppendVarint(b, int64(v))
	}
	return string(b)
}
