package algo

import (
	"context"
	"math"
	"math/bits"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

// agentSet is a bitset of agent indices.
type agentSet []uint64

func newAgentSet(n int) agentSet {
	return make(agentSet, (n+63)/64)
}

func (s agentSet) add(i int) {
	s[i/64] |= 1 << (uint(i) % 64)
}

func (s agentSet) has(i int) bool {
	return s[i/64]&(1<<(uint(i)%64)) != 0
}

func (s agentSet) empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// subsetOf reports whether every member of s is in o.
func (s agentSet) subsetOf(o agentSet) bool {
	for k, w := range s {
		if w&^o[k] != 0 {
			return false
		}
	}
	return true
}

// union adds o's members to s.
func (s agentSet) union(o agentSet) {
	for k, w := range o {
		s[k] |= w
	}
}

func (s agentSet) len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// mstarNode is a joint configuration in the M* search graph. Nodes are keyed
// by configuration alone and are revisited when their collision set grows.
type mstarNode struct {
	states    []agentState
	costs     []int
	g         int
	parent    int
	collision agentSet
	backprop  map[int]bool
	version   int
}

type mstarEntry struct {
	idx, version int
}

// MStar implements M*: agents follow their individually optimal policies
// unless they belong to the node's collision set, in which case all their
// moves are considered. Collisions found downstream are propagated back to
// ancestors, which are then re-expanded with the larger set.
type MStar struct {
	settings core.Settings
	opts     options
}

// NewMStar creates an M* solver.
func NewMStar(settings core.Settings, opts ...Option) *MStar {
	return &MStar{settings: settings, opts: buildOptions(opts)}
}

func (m *MStar) Name() string { return NameMStar }

// Solve implements Solver.
func (m *MStar) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	s := newSearch(ctx, m.Name(), m.opts.observer)
	s.log.Debug("solve started", "agents", inst.NumAgents())
	run := &mstarRun{
		s:      s,
		md:     newModel(inst.Map, m.settings, heuristic.New(m.settings.Heuristic, inst.Map), inst.Agents),
		policy: newModel(inst.Map, m.settings, heuristic.NewRRA(inst.Map), inst.Agents),
		index:  make(map[string]int),
		open:   newFrontier[mstarEntry](),
	}
	return s.finish(run.search()), nil
}

type mstarRun struct {
	s      *search
	md     *model
	policy *model // exact distances for the individually optimal moves
	nodes  []mstarNode
	index  map[string]int
	open   *frontier[mstarEntry]
}

func (r *mstarRun) search() []core.Path {
	n := len(r.md.agents)
	rootStates := r.md.initialAll()
	root, ok := r.node(rootStates)
	if !ok {
		return nil
	}
	r.nodes[root].g = 0
	r.nodes[root].costs = make([]int, n)
	r.push(root)

	options := make([][]move, n)
	var buf []move
	for !r.open.empty() {
		if r.s.stopped() {
			return nil
		}
		e, _ := r.open.pop()
		if e.version != r.nodes[e.idx].version {
			continue
		}
		cur := e.idx
		if allDone(r.nodes[cur].states) {
			return extractPaths(r.trace(cur))
		}
		r.s.expanded()

		states := r.nodes[cur].states
		for i, st := range states {
			if r.nodes[cur].collision.has(i) {
				options[i] = r.md.successors(i, st, options[i][:0])
				continue
			}
			buf = r.policy.successors(i, st, buf[:0])
			options[i] = append(options[i][:0], r.policyMove(i, st, buf))
		}
		r.forEachCombination(options, make([]move, n), 0, func(chosen []move) {
			r.relax(cur, chosen)
		})
	}
	return nil
}

// policyMove picks the first move on an individually optimal path.
func (r *mstarRun) policyMove(i int, st agentState, moves []move) move {
	here := r.policy.heuristic(i, st)
	for _, mv := range moves {
		if mv.cost+r.policy.heuristic(i, mv.next) == here {
			return mv
		}
	}
	return moves[0]
}

func (r *mstarRun) forEachCombination(options [][]move, chosen []move, i int, fn func([]move)) {
	if i == len(options) {
		fn(chosen)
		return
	}
	for _, mv := range options[i] {
		chosen[i] = mv
		r.forEachCombination(options, chosen, i+1, fn)
	}
}

// relax applies one joint transition from node cur.
func (r *mstarRun) relax(cur int, chosen []move) {
	n := len(chosen)
	from := r.nodes[cur].states
	next := make([]agentState, n)
	for i, mv := range chosen {
		next[i] = mv.next
	}
	child, ok := r.node(next)
	if !ok {
		return
	}
	r.nodes[child].backprop[cur] = true

	phi := newAgentSet(n)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if r.md.collide(from[i], next[i], from[j], next[j]) {
				phi.add(i)
				phi.add(j)
			}
		}
	}
	r.nodes[child].collision.union(phi)
	r.backpropagate(cur, r.nodes[child].collision)

	if !phi.empty() {
		return
	}
	costs := make([]int, n)
	for i, mv := range chosen {
		costs[i] = r.nodes[cur].costs[i] + mv.cost
	}
	g := aggregate(r.md.settings.Objective, costs)
	if g >= r.nodes[child].g {
		return
	}
	r.nodes[child].g = g
	r.nodes[child].costs = costs
	r.nodes[child].parent = cur
	r.push(child)
}

// backpropagate merges c into v's collision set and, if it grew, re-opens v
// and forwards the merged set to every predecessor that reached v.
func (r *mstarRun) backpropagate(v int, c agentSet) {
	if c.subsetOf(r.nodes[v].collision) {
		return
	}
	r.nodes[v].collision.union(c)
	r.s.log.Debug("collision set grew", "node", v, "size", r.nodes[v].collision.len())
	if r.nodes[v].costs != nil {
		r.push(v)
	}
	for u := range r.nodes[v].backprop {
		r.backpropagate(u, r.nodes[v].collision)
	}
}

// node returns the index of the node for states, creating it on first use.
// ok is false when some agent can no longer reach its goal.
func (r *mstarRun) node(states []agentState) (int, bool) {
	key := stateKey(states, 0, 0)
	if idx, ok := r.index[key]; ok {
		return idx, true
	}
	for i, st := range states {
		if r.md.heuristic(i, st) == heuristic.Unreachable {
			return 0, false
		}
	}
	r.nodes = append(r.nodes, mstarNode{
		states:    states,
		g:         math.MaxInt,
		parent:    -1,
		collision: newAgentSet(len(states)),
		backprop:  make(map[int]bool),
	})
	idx := len(r.nodes) - 1
	r.index[key] = idx
	r.s.generated(1)
	return idx, true
}

func (r *mstarRun) push(idx int) {
	node := &r.nodes[idx]
	node.version++
	_, f, h, ok := r.md.evaluate(node.states, node.costs)
	if !ok {
		return
	}
	r.open.push(mstarEntry{idx: idx, version: node.version}, f, h)
}

func (r *mstarRun) trace(idx int) [][]agentState {
	var trace [][]agentState
	for ; idx >= 0; idx = r.nodes[idx].parent {
		trace = append(trace, r.nodes[idx].states)
	}
	for l, rr := 0, len(trace)-1; l < rr; l, rr = l+1, rr-1 {
		trace[l], trace[rr] = trace[rr], trace[l]
	}
	return trace
}
