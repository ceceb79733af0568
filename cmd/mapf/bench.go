package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-grid/internal/algo"
	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/ctxlog"
	"github.com/elektrokombinacija/mapf-grid/internal/sim"
	"github.com/elektrokombinacija/mapf-grid/internal/telemetry"
)

const defaultBenchTimeout = 5 * time.Second

// benchResult is one solver run on one scenario.
type benchResult struct {
	Timestamp  string
	GoVersion  string
	OS         string
	Arch       string
	RunID      string
	Scenario   string
	NumAgents  int
	Solver     string
	Status     core.Status
	RuntimeMs  float64
	SumOfCosts int
	Makespan   int
	Generated  int
	Expanded   int
	Merges     int
	Valid      bool
}

// solverSummary aggregates results per solver.
type solverSummary struct {
	Name           string
	Runs           int
	Solved         int
	Timeouts       int
	TotalRuntimeMs float64
	TotalCost      int
}

func defaultBenchSolvers() []string {
	names := algo.Names()
	return append(names, "id:astar", "id:cbs")
}

func newBenchCmd() *cobra.Command {
	var (
		sf           settingsFlags
		output       string
		solverFilter string
		scenFilter   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run solvers across built-in scenarios",
		Example: `  mapf bench -o results/bench.csv
  mapf bench --solver cbs,icts --scenario warehouse,junction --timeout 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			if settings.TimeOut == 0 {
				settings.TimeOut = defaultBenchTimeout
			}
			selected, err := scenarioNames(scenFilter)
			if err != nil {
				return err
			}
			solvers := defaultBenchSolvers()
			if solverFilter != "" {
				solvers = strings.Split(solverFilter, ",")
			}

			ctx := cmd.Context()
			logger := ctxlog.FromContext(ctx)
			logger.Info("running benchmarks",
				"scenarios", len(selected), "solvers", len(solvers), "timeout", settings.TimeOut)

			var results []*benchResult
			for _, sc := range selected {
				inst := sc.Build()
				for _, name := range solvers {
					s, err := algo.NewSolver(strings.TrimSpace(name), settings,
						algo.WithObserver(telemetry.MetricsObserver{}))
					if err != nil {
						return err
					}
					sol, err := algo.Run(ctx, telemetry.Instrument(s), inst, settings.TimeOut)
					if err != nil {
						return err
					}
					if err := ctx.Err(); err != nil {
						return err
					}
					r := newBenchResult(sc.Name, inst, sol)
					if sol.Feasible {
						err := sim.Replay(inst, settings, sol.Paths)
						r.Valid = err == nil
						if err != nil {
							logger.Warn("invalid plan", "scenario", sc.Name, "solver", s.Name(), "err", err)
						}
					}
					logger.Debug("run finished", "scenario", sc.Name, "solver", s.Name(),
						"status", sol.Info.Status, "ms", r.RuntimeMs)
					results = append(results, r)
				}
			}

			if output != "" {
				if err := writeCSVFile(results, output); err != nil {
					return fmt.Errorf("write results: %w", err)
				}
				logger.Info("results written", "path", output)
			}
			printSummary(cmd.OutOrStdout(), results)
			return nil
		},
	}

	sf.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV output file")
	cmd.Flags().StringVar(&solverFilter, "solver", "", "comma-separated solvers (default: all)")
	cmd.Flags().StringVar(&scenFilter, "scenario", "", "comma-separated scenarios (default: all)")
	return cmd
}

func newBenchResult(scenario string, inst *core.Instance, sol *core.Solution) *benchResult {
	info := sol.Info
	return &benchResult{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		RunID:      info.RunID,
		Scenario:   scenario,
		NumAgents:  inst.NumAgents(),
		Solver:     info.Solver,
		Status:     info.Status,
		RuntimeMs:  float64(info.Elapsed.Microseconds()) / 1000.0,
		SumOfCosts: info.SumOfCosts,
		Makespan:   info.Makespan,
		Generated:  info.Generated,
		Expanded:   info.Expanded,
		Merges:     info.Merges,
	}
}

var csvHeader = []string{
	"timestamp", "go_version", "os", "arch", "run_id",
	"scenario", "num_agents", "solver", "status", "runtime_ms",
	"sum_of_costs", "makespan", "generated", "expanded", "merges", "valid",
}

func writeCSVFile(results []*benchResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeCSV(file, results); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeCSV(w io.Writer, results []*benchResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Timestamp, r.GoVersion, r.OS, r.Arch, r.RunID,
			r.Scenario, strconv.Itoa(r.NumAgents), r.Solver, r.Status.String(),
			strconv.FormatFloat(r.RuntimeMs, 'f', 3, 64),
			strconv.Itoa(r.SumOfCosts), strconv.Itoa(r.Makespan),
			strconv.Itoa(r.Generated), strconv.Itoa(r.Expanded), strconv.Itoa(r.Merges),
			strconv.FormatBool(r.Valid),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func summarize(results []*benchResult) []*solverSummary {
	byName := make(map[string]*solverSummary)
	for _, r := range results {
		m, ok := byName[r.Solver]
		if !ok {
			m = &solverSummary{Name: r.Solver}
			byName[r.Solver] = m
		}
		m.Runs++
		switch r.Status {
		case core.StatusSolved:
			m.Solved++
			m.TotalRuntimeMs += r.RuntimeMs
			m.TotalCost += r.SumOfCosts
		case core.StatusTimeout:
			m.Timeouts++
		}
	}
	out := make([]*solverSummary, 0, len(byName))
	for _, m := range byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func printSummary(w io.Writer, results []*benchResult) {
	fmt.Fprintln(w, styleTitle.Render("benchmark summary"))
	fmt.Fprintf(w, "%-16s %6s %7s %8s %13s %9s\n",
		"solver", "runs", "solved", "timeout", "avg time(ms)", "avg soc")
	fmt.Fprintln(w, styleDim.Render(strings.Repeat("-", 64)))
	for _, m := range summarize(results) {
		avgTime, avgCost := 0.0, 0.0
		if m.Solved > 0 {
			avgTime = m.TotalRuntimeMs / float64(m.Solved)
			avgCost = float64(m.TotalCost) / float64(m.Solved)
		}
		fmt.Fprintf(w, "%-16s %6d %7d %8d %13.2f %9.2f\n",
			m.Name, m.Runs, m.Solved, m.Timeouts, avgTime, avgCost)
	}
}
