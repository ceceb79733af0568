// Package sim replays joint plans step by step and checks that every move
// is legal and no two agents collide.
package sim

import (
	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// Metrics summarizes a replayed plan.
type Metrics struct {
	Steps      int // time steps simulated
	Moves      int // agent steps that changed cell
	Waits      int // agent steps spent on the same cell
	SumOfCosts int
	Makespan   int
}

// Simulator advances a joint plan one time step at a time.
type Simulator struct {
	inst     *core.Instance
	settings core.Settings
	paths    []core.Path

	currentTime int
	horizon     int
	poses       []core.Pos
	present     []bool

	metrics Metrics
}

// NewSimulator checks the shape of paths against inst and returns a
// simulator positioned at time zero.
func NewSimulator(inst *core.Instance, settings core.Settings, paths []core.Path) (*Simulator, error) {
	if len(paths) != inst.NumAgents() {
		return nil, core.New(core.ErrCodeInvalidPlan, "plan has %d paths for %d agents", len(paths), inst.NumAgents())
	}
	s := &Simulator{
		inst:     inst,
		settings: settings,
		paths:    paths,
		poses:    make([]core.Pos, len(paths)),
		present:  make([]bool, len(paths)),
	}
	for i, path := range paths {
		agent := inst.Agents[i]
		if len(path) == 0 {
			return nil, core.New(core.ErrCodeInvalidPlan, "agent %d has an empty path", agent.ID)
		}
		if path[0] != agent.Start {
			return nil, core.New(core.ErrCodeInvalidPlan, "agent %d starts at %v, not %v", agent.ID, path[0], agent.Start)
		}
		if path[len(path)-1] != agent.Goal {
			return nil, core.New(core.ErrCodeInvalidPlan, "agent %d ends at %v, not its goal %v", agent.ID, path[len(path)-1], agent.Goal)
		}
		if !settings.StayAtGoal {
			if err := checkOccupation(agent, path, settings.GoalOccupationTime); err != nil {
				return nil, err
			}
		}
		s.poses[i] = path[0]
		s.present[i] = true
		s.horizon = max(s.horizon, len(path)-1)
	}
	s.metrics.SumOfCosts = core.SumOfCostsOf(paths)
	s.metrics.Makespan = core.MakespanOf(paths)
	if err := s.checkCollisions(nil); err != nil {
		return nil, err
	}
	return s, nil
}

// checkOccupation verifies a vanishing agent holds its goal for exactly k
// steps at the end of its path and never earlier.
func checkOccupation(agent core.Agent, path core.Path, k int) error {
	run := 0
	for t, p := range path {
		if p != agent.Goal {
			run = 0
			continue
		}
		run++
		if run == k && t != len(path)-1 {
			return core.New(core.ErrCodeInvalidPlan, "agent %d would have vanished at t=%d", agent.ID, t)
		}
	}
	if run < k {
		return core.New(core.ErrCodeInvalidPlan, "agent %d occupies its goal %d steps, need %d", agent.ID, run, k)
	}
	return nil
}

// Done reports whether every path has been played out.
func (s *Simulator) Done() bool {
	return s.currentTime >= s.horizon
}

// Step advances every agent by one time step and checks the result.
func (s *Simulator) Step() error {
	prev := append([]core.Pos(nil), s.poses...)
	prevPresent := append([]bool(nil), s.present...)
	s.currentTime++
	s.metrics.Steps++

	for i, path := range s.paths {
		pos, ok := path.At(s.currentTime, s.settings.StayAtGoal)
		s.present[i] = ok
		if !ok {
			continue
		}
		s.poses[i] = pos
		if s.currentTime >= len(path) {
			continue // parked on the goal
		}
		if pos == prev[i] {
			s.metrics.Waits++
			continue
		}
		if prev[i].Manhattan(pos) != 1 || !s.inst.Map.Passable(pos) {
			return core.New(core.ErrCodeInvalidPlan, "agent %d jumps %v->%v at t=%d",
				s.inst.Agents[i].ID, prev[i], pos, s.currentTime)
		}
		s.metrics.Moves++
	}

	if !s.settings.EdgeConflict {
		return s.checkCollisions(nil)
	}
	return s.checkCollisions(func(i, j int) bool {
		return prevPresent[i] && prevPresent[j] &&
			prev[i] != s.poses[i] && prev[i] == s.poses[j] && prev[j] == s.poses[i]
	})
}

// checkCollisions reports two agents on one cell, or a pair for which
// swapped returns true.
func (s *Simulator) checkCollisions(swapped func(i, j int) bool) error {
	occupant := make(map[core.Pos]int, len(s.poses))
	for i, pos := range s.poses {
		if !s.present[i] {
			continue
		}
		if j, taken := occupant[pos]; taken {
			return core.New(core.ErrCodeInvalidPlan, "agents %d and %d collide at %v t=%d",
				s.inst.Agents[j].ID, s.inst.Agents[i].ID, pos, s.currentTime)
		}
		occupant[pos] = i
	}
	if swapped == nil {
		return nil
	}
	for i := range s.poses {
		if !s.present[i] {
			continue
		}
		for j := 0; j < i; j++ {
			if s.present[j] && swapped(i, j) {
				return core.New(core.ErrCodeInvalidPlan, "agents %d and %d swap %v<->%v at t=%d",
					s.inst.Agents[j].ID, s.inst.Agents[i].ID, s.poses[j], s.poses[i], s.currentTime)
			}
		}
	}
	return nil
}

// Run steps until the plan is played out.
func (s *Simulator) Run() (Metrics, error) {
	for !s.Done() {
		if err := s.Step(); err != nil {
			return s.metrics, err
		}
	}
	return s.metrics, nil
}

// Metrics returns the counters gathered so far.
func (s *Simulator) Metrics() Metrics {
	return s.metrics
}

// Replay checks paths as a plan for inst under settings and returns the
// first violation as an INVALID_PLAN error.
func Replay(inst *core.Instance, settings core.Settings, paths []core.Path) error {
	s, err := NewSimulator(inst, settings, paths)
	if err != nil {
		return err
	}
	_, err = s.Run()
	return err
}
