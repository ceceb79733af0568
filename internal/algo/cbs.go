package algo

import (
	"container/heap"
	"context"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

// CBS implements Conflict-Based Search.
type CBS struct {
	settings core.Settings
	opts     options
}

// NewCBS creates a CBS solver.
func NewCBS(settings core.Settings, opts ...Option) *CBS {
	return &CBS{settings: settings, opts: buildOptions(opts)}
}

func (c *CBS) Name() string { return NameCBS }

// ctNode is a node in the CBS constraint tree. Constraint slices are never
// modified after the node is built; children copy and extend them.
type ctNode struct {
	id     int
	vertex []VertexConstraint
	edge   []EdgeConstraint
	paths  []core.Path
	cost   int
	index  int
}

type ctHeap []*ctNode

func (h ctHeap) Len() int { return len(h) }
func (h ctHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].id < h[j].id
}
func (h ctHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *ctHeap) Push(x any) {
	n := x.(*ctNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *ctHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// cbsRun holds the state of one CBS solve.
type cbsRun struct {
	s        *search
	settings core.Settings
	inst     *core.Instance
	engine   *Engine
	nextID   int
}

func (c *CBS) newRun(ctx context.Context, inst *core.Instance) *cbsRun {
	s := newSearch(ctx, c.Name(), c.opts.observer)
	return &cbsRun{
		s:        s,
		settings: c.settings,
		inst:     inst,
		engine:   newEngine(s, inst.Map, c.settings, heuristic.New(c.settings.Heuristic, inst.Map)),
	}
}

// Solve implements the CBS algorithm.
func (c *CBS) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	r := c.newRun(ctx, inst)
	r.s.log.Debug("solve started", "agents", inst.NumAgents())

	root := r.root()
	if root == nil {
		return r.s.finish(nil), nil
	}

	open := &ctHeap{}
	heap.Init(open)
	heap.Push(open, root)

	for open.Len() > 0 {
		if r.s.stopped() {
			r.s.log.Debug("search stopped", "open", open.Len())
			break
		}
		node := heap.Pop(open).(*ctNode)
		r.s.expanded()

		conflict := node.checkConflicts(r.settings)
		if conflict == nil {
			return r.s.finish(node.paths), nil
		}
		r.s.obs.OnConflict(r.s.solver, conflict)

		for _, child := range r.branch(node, conflict) {
			heap.Push(open, child)
		}
	}
	return r.s.finish(nil), nil
}

// RootConflict plans every agent independently, as the root of the
// constraint tree does, and returns the first conflict among those paths.
func (c *CBS) RootConflict(ctx context.Context, inst *core.Instance) (*Conflict, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	root := c.newRun(ctx, inst).root()
	if root == nil {
		return nil, nil
	}
	return root.checkConflicts(c.settings), nil
}

func (n *ctNode) checkConflicts(settings core.Settings) *Conflict {
	return FindFirstConflict(n.paths, settings)
}

// root plans each agent without constraints.
func (r *cbsRun) root() *ctNode {
	node := &ctNode{id: r.nextID, paths: make([]core.Path, r.inst.NumAgents())}
	r.nextID++
	for i := range r.inst.Agents {
		if !r.replan(node, i) {
			return nil
		}
	}
	node.cost = aggregate(r.settings.Objective, pathCosts(node.paths))
	r.s.generated(1)
	return node
}

// branch builds the two children resolving conflict. Each child adds one
// constraint for one of the two agents and replans only that agent.
func (r *cbsRun) branch(parent *ctNode, conflict *Conflict) []*ctNode {
	type addition struct {
		agent  int
		vertex *VertexConstraint
		edge   *EdgeConstraint
	}
	var adds []addition
	if conflict.IsEdge {
		adds = []addition{
			{agent: conflict.Agent1, edge: &EdgeConstraint{Agent: conflict.Agent1, From: conflict.EdgeFrom, To: conflict.EdgeTo, Time: conflict.Time}},
			{agent: conflict.Agent2, edge: &EdgeConstraint{Agent: conflict.Agent2, From: conflict.EdgeTo, To: conflict.EdgeFrom, Time: conflict.Time}},
		}
	} else {
		adds = []addition{
			{agent: conflict.Agent1, vertex: &VertexConstraint{Agent: conflict.Agent1, Pos: conflict.Pos, Time: conflict.Time}},
			{agent: conflict.Agent2, vertex: &VertexConstraint{Agent: conflict.Agent2, Pos: conflict.Pos, Time: conflict.Time}},
		}
	}

	children := make([]*ctNode, 0, 2)
	for _, add := range adds {
		child := &ctNode{
			id:     r.nextID,
			vertex: parent.vertex,
			edge:   parent.edge,
			paths:  append([]core.Path(nil), parent.paths...),
		}
		r.nextID++
		if add.vertex != nil {
			child.vertex = append(append([]VertexConstraint(nil), parent.vertex...), *add.vertex)
		}
		if add.edge != nil {
			child.edge = append(append([]EdgeConstraint(nil), parent.edge...), *add.edge)
		}
		if !r.replan(child, add.agent) {
			continue
		}
		child.cost = aggregate(r.settings.Objective, pathCosts(child.paths))
		r.s.generated(1)
		children = append(children, child)
	}
	return children
}

// replan recomputes agent i's path in node under the constraints naming i.
func (r *cbsRun) replan(node *ctNode, i int) bool {
	var vertex []VertexConstraint
	for _, c := range node.vertex {
		if c.Agent == i {
			vertex = append(vertex, c)
		}
	}
	var edge []EdgeConstraint
	for _, c := range node.edge {
		if c.Agent == i {
			edge = append(edge, c)
		}
	}
	agent := r.inst.Agents[i]
	path := r.engine.FindPathWithConstraints(r.s.ctx, agent.Start, agent.Goal, vertex, edge)
	if path == nil {
		return false
	}
	node.paths[i] = path
	return true
}

func pathCosts(paths []core.Path) []int {
	costs := make([]int, len(paths))
	for i, p := range paths {
		costs[i] = p.Cost()
	}
	return costs
}
