package algo

import (
	"context"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/heuristic"
)

// Cooperative implements Cooperative A*: agents are planned one at a time in
// index order, each around the reservations of those planned before it.
// It is fast but neither complete nor optimal.
type Cooperative struct {
	settings core.Settings
	opts     options
}

// NewCooperative creates a Cooperative A* solver.
func NewCooperative(settings core.Settings, opts ...Option) *Cooperative {
	return &Cooperative{settings: settings, opts: buildOptions(opts)}
}

func (c *Cooperative) Name() string { return NameCooperative }

// Solve implements Solver.
func (c *Cooperative) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	s := newSearch(ctx, c.Name(), c.opts.observer)
	engine := newEngine(s, inst.Map, c.settings, heuristic.New(c.settings.Heuristic, inst.Map))

	rt := NewReservationTable()
	completed := make(CompletedPositions)
	paths := make([]core.Path, inst.NumAgents())

	for i, agent := range inst.Agents {
		path := engine.FindPathWithReservationTable(ctx, agent.Start, agent.Goal, rt, completed)
		if path == nil {
			s.log.Debug("agent could not be planned", "agent", agent.ID, "priority", i)
			return s.finish(nil), nil
		}
		paths[i] = path

		// Lower-priority agents must avoid this one's path, and with
		// stay-at-goal its goal from arrival onwards.
		rt.Reserve(i, path)
		if c.settings.StayAtGoal {
			completed[agent.Goal] = path.Cost()
		}
	}
	return s.finish(paths), nil
}
