package algo

import (
	"context"
	"time"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/ctxlog"
)

type runResult struct {
	sol *core.Solution
	err error
}

// Run solves inst with solver on a worker goroutine and waits at most
// timeout (zero waits indefinitely). When the deadline passes, or ctx is
// done, Run raises the cancellation flag and waits for the search to notice
// it; the solution then carries StatusTimeout.
func Run(ctx context.Context, solver Solver, inst *core.Instance, timeout time.Duration) (*core.Solution, error) {
	flag := &Flag{}
	ctx = WithFlag(ctx, flag)
	logger := ctxlog.FromContext(ctx)

	start := time.Now()
	done := make(chan runResult, 1)
	go func() {
		sol, err := solver.Solve(ctx, inst)
		done <- runResult{sol, err}
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	var res runResult
	select {
	case res = <-done:
	case <-deadline:
		logger.Debug("time budget exhausted", "solver", solver.Name(), "timeout", timeout)
		flag.Raise()
		res = <-done
	case <-ctx.Done():
		flag.Raise()
		res = <-done
	}
	if res.err != nil {
		return nil, res.err
	}
	res.sol.Info.Elapsed = time.Since(start)
	return res.sol, nil
}
