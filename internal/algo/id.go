package algo

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// ID implements Independence Detection around a base solver. Every agent
// starts in its own group; groups whose plans conflict are merged and only
// the merged group is replanned.
//
// Initial singleton groups are solved concurrently, so the base solver and
// its observer must tolerate concurrent Solve calls. All solvers in this
// package do.
type ID struct {
	base     Solver
	settings core.Settings
	opts     options
}

// NewID wraps base with Independence Detection.
func NewID(base Solver, settings core.Settings, opts ...Option) *ID {
	return &ID{base: base, settings: settings, opts: buildOptions(opts)}
}

func (d *ID) Name() string { return idPrefix + d.base.Name() }

// Solve implements Solver.
func (d *ID) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	s := newSearch(ctx, d.Name(), d.opts.observer)
	n := inst.NumAgents()
	s.log.Debug("solve started", "agents", n)

	groups := make([][]int, n)
	groupOf := make([]int, n)
	for i := range groups {
		groups[i] = []int{i}
		groupOf[i] = i
	}
	paths := make([]core.Path, n)

	subs := make([]*core.Solution, n)
	eg, egctx := errgroup.WithContext(ctx)
	for i := range groups {
		eg.Go(func() error {
			sol, err := d.base.Solve(egctx, inst.Subset(groups[i]))
			subs[i] = sol
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for i, sol := range subs {
		if !d.absorb(s, sol, groups[i], paths) {
			return s.finish(nil), nil
		}
	}

	for {
		if s.stopped() {
			return s.finish(nil), nil
		}
		conflict := FindFirstConflict(paths, d.settings)
		if conflict == nil {
			return s.finish(paths), nil
		}
		s.obs.OnConflict(s.solver, conflict)

		ga, gb := groupOf[conflict.Agent1], groupOf[conflict.Agent2]
		merged := append(append([]int(nil), groups[ga]...), groups[gb]...)
		slices.Sort(merged)
		groups[ga], groups[gb] = merged, nil
		for _, a := range merged {
			groupOf[a] = ga
		}
		s.stats.Merges++

		ids := make([]core.AgentID, len(merged))
		for k, a := range merged {
			ids[k] = inst.Agents[a].ID
		}
		s.obs.OnMerge(s.solver, ids)
		s.log.Debug("merged groups", "agents", ids, "conflict", conflict)

		sol, err := d.base.Solve(ctx, inst.Subset(merged))
		if err != nil {
			return nil, err
		}
		if !d.absorb(s, sol, merged, paths) {
			return s.finish(nil), nil
		}
	}
}

// absorb accounts a group solve and splices its paths into paths. It
// returns false when the group has no plan.
func (d *ID) absorb(s *search, sol *core.Solution, group []int, paths []core.Path) bool {
	s.stats.Generated += sol.Info.Generated
	s.stats.Expanded += sol.Info.Expanded
	if !sol.Feasible {
		s.log.Debug("group solve failed", "group", group, "status", sol.Info.Status)
		return false
	}
	for k, a := range group {
		paths[a] = sol.Paths[k]
	}
	return true
}
