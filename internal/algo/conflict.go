package algo

import (
	"fmt"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// Conflict is a collision between two agents' paths. Agents are indices into
// the path slice. For a vertex conflict both agents are on Pos at Time. For
// an edge conflict Agent1 moves EdgeFrom->EdgeTo and Agent2 moves the other
// way, both arriving at Time.
type Conflict struct {
	Agent1, Agent2 int
	Pos            core.Pos
	Time           int
	IsEdge         bool
	EdgeFrom       core.Pos
	EdgeTo         core.Pos
}

func (c *Conflict) String() string {
	if c.IsEdge {
		return fmt.Sprintf("edge conflict: agents %d,%d swap %v<->%v arriving t=%d",
			c.Agent1, c.Agent2, c.EdgeFrom, c.EdgeTo, c.Time)
	}
	return fmt.Sprintf("vertex conflict: agents %d,%d at %v t=%d", c.Agent1, c.Agent2, c.Pos, c.Time)
}

type cellTime struct {
	pos core.Pos
	t   int
}

// FindFirstConflict returns the earliest conflict among paths, or nil.
// Time steps are scanned in order and, within a step, agents in index order.
// With StayAtGoal agents remain on their last cell after their path ends;
// otherwise they are gone. Edge conflicts are only reported when
// EdgeConflict is set.
func FindFirstConflict(paths []core.Path, settings core.Settings) *Conflict {
	var first *Conflict
	scanConflicts(paths, settings, func(c *Conflict) bool {
		first = c
		return false
	})
	return first
}

// FindAllConflicts returns every conflicting pair in scan order.
func FindAllConflicts(paths []core.Path, settings core.Settings) []*Conflict {
	var conflicts []*Conflict
	scanConflicts(paths, settings, func(c *Conflict) bool {
		conflicts = append(conflicts, c)
		return true
	})
	return conflicts
}

// scanConflicts records, for every (cell, time), the agents occupying it and
// calls fn for each conflict until fn returns false.
//
// A swap is found from the later agent's side: agent i moving prev->pos at t
// conflicts with whoever now stands on prev if that agent stood on pos at t-1.
func scanConflicts(paths []core.Path, settings core.Settings, fn func(*Conflict) bool) {
	horizon := 0
	for _, p := range paths {
		horizon = max(horizon, len(p))
	}
	occ := make(map[cellTime][]int)

	for t := 0; t < horizon; t++ {
		for i, path := range paths {
			pos, ok := path.At(t, settings.StayAtGoal)
			if !ok {
				continue
			}
			key := cellTime{pos, t}
			for _, j := range occ[key] {
				if !fn(&Conflict{Agent1: j, Agent2: i, Pos: pos, Time: t}) {
					return
				}
			}
			occ[key] = append(occ[key], i)

			if !settings.EdgeConflict || t == 0 {
				continue
			}
			prev, _ := path.At(t-1, settings.StayAtGoal)
			if prev == pos {
				continue
			}
			for _, j := range occ[cellTime{prev, t}] {
				if j == i {
					continue
				}
				if back, ok := paths[j].At(t-1, settings.StayAtGoal); ok && back == pos {
					c := &Conflict{
						Agent1:   j,
						Agent2:   i,
						Pos:      pos,
						Time:     t,
						IsEdge:   true,
						EdgeFrom: pos,
						EdgeTo:   prev,
					}
					if !fn(c) {
						return
					}
				}
			}
		}
	}
}

// HasConflict reports whether paths contain any conflict.
func HasConflict(paths []core.Path, settings core.Settings) bool {
	return FindFirstConflict(paths, settings) != nil
}
