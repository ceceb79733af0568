// Package algo implements grid MAPF solvers: joint A*, operator
// decomposition, Cooperative A*, CBS, ICTS, M* and Independence Detection.
package algo

import (
	"context"
	"strings"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// Solver is the interface for MAPF algorithms.
type Solver interface {
	// Solve plans every agent of inst. Search exhaustion and timeout are
	// reported through Solution.Feasible and Info.Status; the error is
	// reserved for malformed input.
	Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error)

	// Name returns the algorithm name.
	Name() string
}

// Option configures a solver built by NewSolver.
type Option func(*options)

type options struct {
	observer Observer
}

// WithObserver attaches o to the solver's search events.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.observer == nil {
		o.observer = NopObserver{}
	}
	return o
}

// Solver names accepted by NewSolver. Any of them may be prefixed with
// "id:" to run under Independence Detection.
const (
	NameAStar       = "astar"
	NameOD          = "od"
	NameCooperative = "cooperative"
	NameCBS         = "cbs"
	NameICTS        = "icts"
	NameMStar       = "mstar"
	idPrefix        = "id:"
)

// Names lists every base solver name in registry order.
func Names() []string {
	return []string{NameAStar, NameOD, NameCooperative, NameCBS, NameICTS, NameMStar}
}

// NewSolver builds the solver called name for settings.
func NewSolver(name string, settings core.Settings, opts ...Option) (Solver, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if base, ok := strings.CutPrefix(name, idPrefix); ok {
		inner, err := NewSolver(base, settings, opts...)
		if err != nil {
			return nil, err
		}
		if _, nested := inner.(*ID); nested {
			return nil, core.New(core.ErrCodeUnknownSolver, "nested independence detection: %q", name)
		}
		return NewID(inner, settings, opts...), nil
	}
	switch name {
	case NameAStar:
		return NewJointAStar(settings, opts...), nil
	case NameOD:
		return NewODAStar(settings, opts...), nil
	case NameCooperative:
		return NewCooperative(settings, opts...), nil
	case NameCBS:
		return NewCBS(settings, opts...), nil
	case NameICTS:
		return NewICTS(settings, opts...), nil
	case NameMStar:
		return NewMStar(settings, opts...), nil
	}
	return nil, core.New(core.ErrCodeUnknownSolver, "unknown solver: %q", name)
}
