package algo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/ctxlog"
)

// Flag is a cooperative cancellation signal shared between a supervisor and
// a running search. Searches poll it at the top of every loop iteration.
type Flag struct {
	raised atomic.Bool
}

// Raise asks every search holding the flag to stop.
func (f *Flag) Raise() {
	f.raised.Store(true)
}

// Raised reports whether Raise was called. A nil flag is never raised.
func (f *Flag) Raised() bool {
	return f != nil && f.raised.Load()
}

type flagKey struct{}

// WithFlag returns a context carrying f.
func WithFlag(ctx context.Context, f *Flag) context.Context {
	return context.WithValue(ctx, flagKey{}, f)
}

func flagFrom(ctx context.Context) *Flag {
	f, _ := ctx.Value(flagKey{}).(*Flag)
	return f
}

// Stats counts search work. Generated counts states or nodes created,
// Expanded counts those taken from a frontier and expanded.
type Stats struct {
	Generated int
	Expanded  int
	Merges    int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Generated += o.Generated
	s.Expanded += o.Expanded
	s.Merges += o.Merges
}

// search is the per-solve bookkeeping every algorithm threads through its
// loops: cancellation, statistics, observer and logger.
type search struct {
	ctx     context.Context
	flag    *Flag
	stats   Stats
	obs     Observer
	log     *log.Logger
	started time.Time
	solver  string
}

func newSearch(ctx context.Context, solver string, obs Observer) *search {
	if obs == nil {
		obs = NopObserver{}
	}
	return &search{
		ctx:     ctx,
		flag:    flagFrom(ctx),
		obs:     obs,
		log:     ctxlog.FromContext(ctx).With("solver", solver),
		started: time.Now(),
		solver:  solver,
	}
}

// stopped reports whether the search must give up: the flag was raised or
// the context is done.
func (s *search) stopped() bool {
	return s.flag.Raised() || s.ctx.Err() != nil
}

func (s *search) generated(n int) {
	s.stats.Generated += n
}

func (s *search) expanded() {
	s.stats.Expanded++
	s.obs.OnNodeExpanded(s.solver, s.stats.Expanded)
}

// finish wraps the search outcome into a Solution. nil paths mean no plan:
// timeout if the search was stopped, infeasible otherwise.
func (s *search) finish(paths []core.Path) *core.Solution {
	status := core.StatusSolved
	switch {
	case paths != nil:
	case s.stopped():
		status = core.StatusTimeout
	default:
		status = core.StatusInfeasible
	}
	sol := core.NewSolution(paths, status)
	sol.Info.RunID = uuid.NewString()
	sol.Info.Solver = s.solver
	sol.Info.Generated = s.stats.Generated
	sol.Info.Expanded = s.stats.Expanded
	sol.Info.Merges = s.stats.Merges
	sol.Info.Elapsed = time.Since(s.started)
	if sol.Feasible {
		s.obs.OnSolution(s.solver, sol)
	}
	s.log.Debug("solve finished",
		"status", sol.Info.Status,
		"soc", sol.Info.SumOfCosts,
		"makespan", sol.Info.Makespan,
		"generated", sol.Info.Generated,
		"expanded", sol.Info.Expanded,
		"elapsed", sol.Info.Elapsed)
	return sol
}
