package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorRed   = lipgloss.Color("167")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleKey   = lipgloss.NewStyle().Foreground(colorGray)
	styleValue = lipgloss.NewStyle().Foreground(colorWhite)
	styleDim   = lipgloss.NewStyle().Foreground(colorDim)

	statusStyles = map[core.Status]lipgloss.Style{
		core.StatusSolved:     lipgloss.NewStyle().Foreground(colorGreen),
		core.StatusInfeasible: lipgloss.NewStyle().Foreground(colorRed),
		core.StatusTimeout:    lipgloss.NewStyle().Foreground(colorAmber),
	}
)

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Width(14).Render(key)+" "+styleValue.Render(value))
}

func renderStatus(s core.Status) string {
	return statusStyles[s].Render(s.String())
}

func printSolution(w io.Writer, sol *core.Solution) {
	info := sol.Info
	fmt.Fprintln(w, styleTitle.Render(info.Solver))
	printKeyValue(w, "run", info.RunID)
	printKeyValue(w, "status", renderStatus(info.Status))
	if sol.Feasible {
		printKeyValue(w, "sum of costs", fmt.Sprint(info.SumOfCosts))
		printKeyValue(w, "makespan", fmt.Sprint(info.Makespan))
	}
	printKeyValue(w, "generated", fmt.Sprint(info.Generated))
	printKeyValue(w, "expanded", fmt.Sprint(info.Expanded))
	if info.Merges > 0 {
		printKeyValue(w, "merges", fmt.Sprint(info.Merges))
	}
	printKeyValue(w, "elapsed", info.Elapsed.String())
}

func printPaths(w io.Writer, inst *core.Instance, sol *core.Solution) {
	for i, path := range sol.Paths {
		cells := make([]string, len(path))
		for t, p := range path {
			cells[t] = p.String()
		}
		label := fmt.Sprintf("agent %d", inst.Agents[i].ID)
		fmt.Fprintln(w, styleKey.Width(14).Render(label)+" "+styleDim.Render(strings.Join(cells, " ")))
	}
}

// agentGlyph labels agent i: upper case marks the start, lower case the goal.
func agentGlyph(i int, start bool) byte {
	base := byte('a')
	if start {
		base = 'A'
	}
	return base + byte(i%26)
}

// renderMap draws the grid with obstacles, starts and goals.
func renderMap(inst *core.Instance) string {
	m := inst.Map
	rows := make([][]byte, m.Height)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(".", m.Width))
	}
	for _, p := range m.Obstacles() {
		rows[p.Y][p.X] = '#'
	}
	for i, a := range inst.Agents {
		rows[a.Goal.Y][a.Goal.X] = agentGlyph(i, false)
		rows[a.Start.Y][a.Start.X] = agentGlyph(i, true)
	}
	var b strings.Builder
	for _, row := range rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}
