package algo

import "github.com/elektrokombinacija/mapf-grid/internal/core"

// Observer receives search events. Implementations are called from the
// solving goroutine and must not block.
type Observer interface {
	// OnNodeExpanded is called each time a search node is expanded; expanded
	// is the running count for the current solve.
	OnNodeExpanded(solver string, expanded int)

	// OnConflict is called when a conflict is detected between planned paths.
	OnConflict(solver string, c *Conflict)

	// OnMerge is called when Independence Detection merges two agent groups.
	OnMerge(solver string, merged []core.AgentID)

	// OnSolution is called when a feasible solution is found.
	OnSolution(solver string, sol *core.Solution)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnNodeExpanded(string, int)        {}
func (NopObserver) OnConflict(string, *Conflict)      {}
func (NopObserver) OnMerge(string, []core.AgentID)    {}
func (NopObserver) OnSolution(string, *core.Solution) {}
