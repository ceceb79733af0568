// Package core defines domain models for grid multi-agent path finding.
package core

import "fmt"

// Pos is a cell on the grid.
type Pos struct {
	X, Y int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Manhattan returns the 4-connected grid distance between p and q.
func (p Pos) Manhattan(q Pos) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// HeuristicKind selects the single-agent distance estimate.
type HeuristicKind int

const (
	HeuristicManhattan HeuristicKind = iota // |dx| + |dy|, ignores obstacles
	HeuristicRRA                            // Reverse Resumable A*, exact distances
)

func (h HeuristicKind) String() string {
	switch h {
	case HeuristicManhattan:
		return "manhattan"
	case HeuristicRRA:
		return "rra"
	default:
		return fmt.Sprintf("HeuristicKind(%d)", int(h))
	}
}

// Objective selects how per-agent costs are aggregated.
type Objective int

const (
	SumOfCosts Objective = iota
	Makespan
)

func (o Objective) String() string {
	switch o {
	case SumOfCosts:
		return "sum_of_costs"
	case Makespan:
		return "makespan"
	default:
		return fmt.Sprintf("Objective(%d)", int(o))
	}
}
