package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

// scenario is a fixed instance shipped with the binary.
type scenario struct {
	Name        string
	Description string
	Build       func() *core.Instance
}

func pos(x, y int) core.Pos { return core.Pos{X: x, Y: y} }

// agents builds agents with sequential IDs from start/goal pairs.
func agents(pairs ...[2]core.Pos) []core.Agent {
	out := make([]core.Agent, len(pairs))
	for i, pr := range pairs {
		out[i] = core.Agent{ID: core.AgentID(i), Start: pr[0], Goal: pr[1]}
	}
	return out
}

var scenarios = []scenario{
	{
		Name:        "open8",
		Description: "single agent crossing an empty 8x8 grid",
		Build: func() *core.Instance {
			return core.MustInstance(core.MustMap(8, 8, nil), agents(
				[2]core.Pos{pos(0, 0), pos(7, 7)},
			))
		},
	},
	{
		Name:        "corridor",
		Description: "two agents swapping ends of a 3x1 corridor (unsolvable)",
		Build: func() *core.Instance {
			return core.MustInstance(core.MustMap(3, 1, nil), agents(
				[2]core.Pos{pos(0, 0), pos(2, 0)},
				[2]core.Pos{pos(2, 0), pos(0, 0)},
			))
		},
	},
	{
		Name:        "junction",
		Description: "two agents swapping ends of a corridor with one side pocket",
		Build: func() *core.Instance {
			m := core.MustMap(3, 2, []core.Pos{pos(0, 1), pos(2, 1)})
			return core.MustInstance(m, agents(
				[2]core.Pos{pos(0, 0), pos(2, 0)},
				[2]core.Pos{pos(2, 0), pos(0, 0)},
			))
		},
	},
	{
		Name:        "cross",
		Description: "two agents meeting in the centre of a plus-shaped map",
		Build: func() *core.Instance {
			m := core.MustMap(3, 3, []core.Pos{pos(0, 0), pos(2, 0), pos(0, 2), pos(2, 2)})
			return core.MustInstance(m, agents(
				[2]core.Pos{pos(0, 1), pos(2, 1)},
				[2]core.Pos{pos(1, 0), pos(1, 2)},
			))
		},
	},
	{
		Name:        "independent",
		Description: "two agents in disjoint corners of an 8x8 grid",
		Build: func() *core.Instance {
			return core.MustInstance(core.MustMap(8, 8, nil), agents(
				[2]core.Pos{pos(0, 0), pos(2, 2)},
				[2]core.Pos{pos(5, 5), pos(7, 7)},
			))
		},
	},
	{
		Name:        "warehouse",
		Description: "four agents crossing a 7x5 floor between shelf rows",
		Build: func() *core.Instance {
			shelves := []core.Pos{
				pos(1, 1), pos(2, 1), pos(4, 1), pos(5, 1),
				pos(1, 3), pos(2, 3), pos(4, 3), pos(5, 3),
			}
			return core.MustInstance(core.MustMap(7, 5, shelves), agents(
				[2]core.Pos{pos(0, 0), pos(6, 4)},
				[2]core.Pos{pos(6, 0), pos(0, 4)},
				[2]core.Pos{pos(3, 0), pos(3, 4)},
				[2]core.Pos{pos(0, 2), pos(6, 2)},
			))
		},
	},
}

func lookupScenario(name string) (scenario, error) {
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc, nil
		}
	}
	return scenario{}, fmt.Errorf("unknown scenario %q (see 'mapf scenarios')", name)
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, sc := range scenarios {
				inst := sc.Build()
				size := fmt.Sprintf("%dx%d", inst.Map.Width, inst.Map.Height)
				fmt.Fprintf(out, "%s %s %s\n",
					styleKey.Render(sc.Name),
					styleDim.Render(fmt.Sprintf("%-5s %d agents", size, inst.NumAgents())),
					sc.Description)
			}
			return nil
		},
	}
}

// scenarioNames resolves a comma-separated filter; empty selects all.
func scenarioNames(filter string) ([]scenario, error) {
	if filter == "" {
		return scenarios, nil
	}
	var out []scenario
	for _, name := range strings.Split(filter, ",") {
		sc, err := lookupScenario(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
