package core

import (
	"fmt"
	"time"
)

// Path is a time-indexed sequence of cells; Path[t] is the cell at step t.
// It starts at the agent's start and ends with its last occupied step.
type Path []Pos

// Cost returns the number of steps the agent spends in the plan.
func (p Path) Cost() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// At returns the cell occupied at step t. Past the end of the path the agent
// either stays on its final cell (stayAtGoal) or is gone.
func (p Path) At(t int, stayAtGoal bool) (Pos, bool) {
	if len(p) == 0 || t < 0 {
		return Pos{}, false
	}
	if t < len(p) {
		return p[t], true
	}
	if stayAtGoal {
		return p[len(p)-1], true
	}
	return Pos{}, false
}

// Status classifies how a solve ended.
type Status int

const (
	StatusSolved Status = iota
	StatusInfeasible
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Info is the statistics record produced by every top-level solve.
type Info struct {
	RunID      string
	Solver     string
	SumOfCosts int
	Makespan   int
	Generated  int
	Expanded   int
	Merges     int // Independence Detection group merges
	Elapsed    time.Duration
	Status     Status
}

// Solution is a joint plan. Paths is nil unless Feasible; Info is always set.
type Solution struct {
	Paths    []Path
	Info     Info
	Feasible bool
}

// NewSolution wraps paths; nil paths produce an infeasible solution.
func NewSolution(paths []Path, status Status) *Solution {
	sol := &Solution{Paths: paths, Feasible: paths != nil && status == StatusSolved}
	sol.Info.Status = status
	if !sol.Feasible {
		sol.Paths = nil
		if status == StatusSolved {
			sol.Info.Status = StatusInfeasible
		}
	}
	sol.ComputeCosts()
	return sol
}

// ComputeCosts fills SumOfCosts and Makespan from the paths.
func (s *Solution) ComputeCosts() {
	s.Info.SumOfCosts = SumOfCostsOf(s.Paths)
	s.Info.Makespan = MakespanOf(s.Paths)
}

// Cost returns the solution cost under the objective.
func (s *Solution) Cost(o Objective) int {
	if o == Makespan {
		return s.Info.Makespan
	}
	return s.Info.SumOfCosts
}

// SumOfCostsOf sums path costs.
func SumOfCostsOf(paths []Path) int {
	total := 0
	for _, p := range paths {
		total += p.Cost()
	}
	return total
}

// MakespanOf returns the largest path cost.
func MakespanOf(paths []Path) int {
	maxC := 0
	for _, p := range paths {
		if c := p.Cost(); c > maxC {
			maxC = c
		}
	}
	return maxC
}
