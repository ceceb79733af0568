package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-grid/internal/algo"
	"github.com/elektrokombinacija/mapf-grid/internal/ctxlog"
	"github.com/elektrokombinacija/mapf-grid/internal/sim"
	"github.com/elektrokombinacija/mapf-grid/internal/telemetry"
)

func newSolveCmd() *cobra.Command {
	var (
		sf        settingsFlags
		name      string
		solver    string
		showPaths bool
		showMap   bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a built-in scenario",
		Example: `  # Optimal sum of costs with CBS
  mapf solve --scenario junction --solver cbs

  # Makespan with ICTS under Independence Detection, vanishing agents
  mapf solve --scenario warehouse --solver id:icts --objective makespan \
    --stay-at-goal=false --goal-occupation-time 2

  # Settings from a file, 2s budget
  mapf solve --scenario cross --solver mstar -c settings.toml --timeout 2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			sc, err := lookupScenario(name)
			if err != nil {
				return err
			}
			inst := sc.Build()

			s, err := algo.NewSolver(solver, settings, algo.WithObserver(telemetry.MetricsObserver{}))
			if err != nil {
				return err
			}
			s = telemetry.Instrument(s)

			ctx := cmd.Context()
			logger := ctxlog.FromContext(ctx)
			logger.Info("solving", "scenario", sc.Name, "solver", s.Name(), "agents", inst.NumAgents())

			sol, err := algo.Run(ctx, s, inst, settings.TimeOut)
			if err != nil {
				return err
			}
			if sol.Feasible {
				if err := sim.Replay(inst, settings, sol.Paths); err != nil {
					return fmt.Errorf("plan failed validation: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if showMap {
				fmt.Fprint(out, renderMap(inst))
			}
			printSolution(out, sol)
			if showPaths && sol.Feasible {
				printPaths(out, inst, sol)
			}
			return ctx.Err()
		},
	}

	sf.register(cmd.Flags())
	cmd.Flags().StringVarP(&name, "scenario", "s", "open8", "built-in scenario name")
	cmd.Flags().StringVar(&solver, "solver", algo.NameCBS, "solver name, optionally prefixed with id:")
	cmd.Flags().BoolVar(&showPaths, "paths", false, "print every agent's path")
	cmd.Flags().BoolVar(&showMap, "map", false, "draw the scenario map")
	return cmd
}
