package main

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
	"github.com/elektrokombinacija/mapf-grid/internal/ctxlog"
)

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "mapf",
		Short:         "Multi-agent path finding on 4-connected grids",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), ctxlog.New(errOut, level)))
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newSolveCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newScenariosCmd())
	return root
}

// settingsFlags exposes core.Settings on the command line. Flags the user
// set override values from --config, which override the defaults.
type settingsFlags struct {
	config       string
	heuristic    string
	objective    string
	stayAtGoal   bool
	occupation   int
	edgeConflict bool
	timeout      time.Duration
}

func (f *settingsFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "", "TOML settings file")
	fs.StringVar(&f.heuristic, "heuristic", "manhattan", "single-agent heuristic: manhattan or rra")
	fs.StringVar(&f.objective, "objective", "soc", "objective: soc or makespan")
	fs.BoolVar(&f.stayAtGoal, "stay-at-goal", true, "agents remain on their goal after arriving")
	fs.IntVar(&f.occupation, "goal-occupation-time", 1, "steps an agent holds its goal before vanishing")
	fs.BoolVar(&f.edgeConflict, "edge-conflict", true, "forbid agents swapping cells")
	fs.DurationVar(&f.timeout, "timeout", 0, "wall-clock budget per solve (0 = none)")
}

func (f *settingsFlags) resolve(fs *pflag.FlagSet) (core.Settings, error) {
	s := core.DefaultSettings()
	var err error
	if f.config != "" {
		if s, err = core.LoadSettings(f.config); err != nil {
			return core.Settings{}, err
		}
	}
	if fs.Changed("heuristic") {
		if s.Heuristic, err = core.ParseHeuristic(f.heuristic); err != nil {
			return core.Settings{}, err
		}
	}
	if fs.Changed("objective") {
		if s.Objective, err = core.ParseObjective(f.objective); err != nil {
			return core.Settings{}, err
		}
	}
	if fs.Changed("stay-at-goal") {
		s.StayAtGoal = f.stayAtGoal
	}
	if fs.Changed("goal-occupation-time") {
		s.GoalOccupationTime = f.occupation
	}
	if fs.Changed("edge-conflict") {
		s.EdgeConflict = f.edgeConflict
	}
	if fs.Changed("timeout") {
		s.TimeOut = f.timeout
	}
	return s, s.Validate()
}
