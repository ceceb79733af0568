// Package telemetry instruments solvers with Prometheus metrics and
// OpenTelemetry spans.
package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/elektrokombinacija/mapf-grid/internal/algo"
	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

var tracer = otel.Tracer("mapf.solve")

var (
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_solves_total",
		Help: "Solve calls by solver and outcome",
	}, []string{"solver", "status"})

	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapf_solve_duration_seconds",
		Help:    "Wall-clock solve time",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"solver"})

	nodesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_nodes_generated_total",
		Help: "Search nodes generated, as reported by finished solves",
	}, []string{"solver"})

	nodesExpanded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_nodes_expanded_total",
		Help: "Search nodes expanded, counted as they happen",
	}, []string{"solver"})

	conflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_conflicts_total",
		Help: "Conflicts found between planned paths by kind",
	}, []string{"solver", "kind"})

	mergesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapf_id_merges_total",
		Help: "Independence Detection group merges",
	}, []string{"solver"})

	solutionCost = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mapf_solution_sum_of_costs",
		Help:    "Sum of costs of feasible solutions",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"solver"})
)

// Instrument wraps s so every Solve call is traced and counted.
func Instrument(s algo.Solver) algo.Solver {
	return &instrumented{inner: s}
}

type instrumented struct {
	inner algo.Solver
}

func (i *instrumented) Name() string { return i.inner.Name() }

// Solve implements algo.Solver.
func (i *instrumented) Solve(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	name := i.inner.Name()
	ctx, span := tracer.Start(ctx, "mapf.Solve",
		trace.WithAttributes(
			attribute.String("solver", name),
			attribute.Int("agents", len(inst.Agents)),
		),
	)
	defer span.End()

	sol, err := i.inner.Solve(ctx, inst)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solve rejected input")
		solvesTotal.WithLabelValues(name, "error").Inc()
		return nil, err
	}

	info := sol.Info
	solvesTotal.WithLabelValues(name, info.Status.String()).Inc()
	solveDuration.WithLabelValues(name).Observe(info.Elapsed.Seconds())
	nodesGenerated.WithLabelValues(name).Add(float64(info.Generated))

	span.SetAttributes(
		attribute.String("run_id", info.RunID),
		attribute.String("status", info.Status.String()),
		attribute.Int("sum_of_costs", info.SumOfCosts),
		attribute.Int("makespan", info.Makespan),
		attribute.Int("generated", info.Generated),
		attribute.Int("expanded", info.Expanded),
		attribute.Int("merges", info.Merges),
	)
	if !sol.Feasible {
		span.SetStatus(codes.Error, info.Status.String())
	}
	return sol, nil
}

// MetricsObserver is an algo.Observer that records search events as
// Prometheus metrics. It is safe for concurrent use.
type MetricsObserver struct{}

func (MetricsObserver) OnNodeExpanded(solver string, _ int) {
	nodesExpanded.WithLabelValues(solver).Inc()
}

func (MetricsObserver) OnConflict(solver string, c *algo.Conflict) {
	kind := "vertex"
	if c.IsEdge {
		kind = "edge"
	}
	conflictsTotal.WithLabelValues(solver, kind).Inc()
}

func (MetricsObserver) OnMerge(solver string, _ []core.AgentID) {
	mergesTotal.WithLabelValues(solver).Inc()
}

func (MetricsObserver) OnSolution(solver string, sol *core.Solution) {
	solutionCost.WithLabelValues(solver).Observe(float64(sol.Info.SumOfCosts))
}
