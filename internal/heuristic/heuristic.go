// Package heuristic provides single-agent distance estimates for the search
// engines: Manhattan distance and Reverse Resumable A* (RRA*) tables.
package heuristic

import (
	"math"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// Unreachable is returned when the goal provably cannot be reached.
const Unreachable = math.MaxInt32

// Provider estimates the number of moves from a cell to a goal.
// Implementations are not safe for concurrent use.
type Provider interface {
	Distance(from, goal core.Pos) int
}

// New returns the provider selected by kind for map m.
func New(kind core.HeuristicKind, m *core.Map) Provider {
	switch kind {
	case core.HeuristicRRA:
		return NewRRA(m)
	default:
		return Manhattan{}
	}
}

// Manhattan ignores obstacles; it never overestimates on a 4-connected grid.
type Manhattan struct{}

// Distance returns |dx| + |dy|.
func (Manhattan) Distance(from, goal core.Pos) int {
	return from.Manhattan(goal)
}
