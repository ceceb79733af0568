package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMapNeighbors(t *testing.T) {
	m := MustMap(3, 3, []Pos{{1, 1}})

	tests := []struct {
		p    Pos
		want []Pos
	}{
		{Pos{0, 0}, []Pos{{1, 0}, {0, 1}}},
		{Pos{1, 0}, []Pos{{2, 0}, {0, 0}}},
		{Pos{2, 2}, []Pos{{2, 1}, {1, 2}}},
		{Pos{1, 1}, nil},
		{Pos{5, 5}, nil},
	}

	for _, tt := range tests {
		got := m.Neighbors(tt.p)
		if len(got) != len(tt.want) {
			t.Errorf("Neighbors(%v) = %v, want %v", tt.p, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Neighbors(%v) = %v, want %v", tt.p, got, tt.want)
				break
			}
		}
	}
}

func TestNewMapRejectsBadInput(t *testing.T) {
	if _, err := NewMap(0, 3, nil); !Is(err, ErrCodeInvalidInstance) {
		t.Errorf("empty map: got %v, want INVALID_INSTANCE", err)
	}
	if _, err := NewMap(2, 2, []Pos{{2, 0}}); !Is(err, ErrCodeInvalidInstance) {
		t.Errorf("obstacle off map: got %v, want INVALID_INSTANCE", err)
	}
}

func TestNewInstanceValidation(t *testing.T) {
	m := MustMap(4, 4, []Pos{{2, 2}})

	tests := []struct {
		name    string
		agents  []Agent
		wantErr bool
	}{
		{"valid", []Agent{{ID: 0, Start: Pos{0, 0}, Goal: Pos{3, 3}}, {ID: 1, Start: Pos{3, 0}, Goal: Pos{0, 3}}}, false},
		{"start equals own goal", []Agent{{ID: 0, Start: Pos{1, 1}, Goal: Pos{1, 1}}}, false},
		{"no agents", nil, true},
		{"start on obstacle", []Agent{{ID: 0, Start: Pos{2, 2}, Goal: Pos{0, 0}}}, true},
		{"goal off map", []Agent{{ID: 0, Start: Pos{0, 0}, Goal: Pos{4, 0}}}, true},
		{"duplicate start", []Agent{{ID: 0, Start: Pos{0, 0}, Goal: Pos{3, 3}}, {ID: 1, Start: Pos{0, 0}, Goal: Pos{0, 3}}}, true},
		{"duplicate goal", []Agent{{ID: 0, Start: Pos{0, 0}, Goal: Pos{3, 3}}, {ID: 1, Start: Pos{1, 0}, Goal: Pos{3, 3}}}, true},
		{"start on other goal", []Agent{{ID: 0, Start: Pos{0, 0}, Goal: Pos{3, 3}}, {ID: 1, Start: Pos{3, 3}, Goal: Pos{0, 3}}}, true},
		{"duplicate id", []Agent{{ID: 7, Start: Pos{0, 0}, Goal: Pos{3, 3}}, {ID: 7, Start: Pos{1, 0}, Goal: Pos{0, 3}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInstance(m, tt.agents)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewInstance() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && GetCode(err) != ErrCodeInvalidInstance {
				t.Errorf("error code = %q, want %q", GetCode(err), ErrCodeInvalidInstance)
			}
		})
	}
}

func TestSubsetKeepsIdentity(t *testing.T) {
	m := MustMap(4, 1, nil)
	inst := MustInstance(m, []Agent{
		{ID: 10, Start: Pos{0, 0}, Goal: Pos{1, 0}},
		{ID: 20, Start: Pos{2, 0}, Goal: Pos{3, 0}},
	})

	sub := inst.Subset([]int{1})
	if sub.NumAgents() != 1 || sub.Agents[0].ID != 20 {
		t.Fatalf("Subset([1]) agents = %+v", sub.Agents)
	}
	if sub.Map != inst.Map {
		t.Error("Subset should share the map")
	}
	if inst.AgentByID(20) == nil || inst.AgentByID(30) != nil {
		t.Error("AgentByID lookup mismatch")
	}
}

func TestPathAt(t *testing.T) {
	p := Path{{0, 0}, {1, 0}}

	if pos, ok := p.At(5, true); !ok || pos != (Pos{1, 0}) {
		t.Errorf("stay: At(5) = %v, %v", pos, ok)
	}
	if _, ok := p.At(2, false); ok {
		t.Error("vanish: agent should be gone after its path")
	}
	if p.Cost() != 1 || (Path{}).Cost() != 0 {
		t.Error("unexpected path cost")
	}
}

func TestNewSolutionInfeasible(t *testing.T) {
	sol := NewSolution(nil, StatusTimeout)
	if sol.Feasible || sol.Paths != nil || sol.Info.Status != StatusTimeout {
		t.Errorf("unexpected solution %+v", sol)
	}
	sol = NewSolution(nil, StatusSolved)
	if sol.Info.Status != StatusInfeasible {
		t.Errorf("nil paths must not report solved, got %v", sol.Info.Status)
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	data := `
heuristic = "rra"
objective_function = "makespan"
stay_at_goal = false
goal_occupation_time = 3
time_out = "250ms"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	want := Settings{
		Heuristic:          HeuristicRRA,
		Objective:          Makespan,
		StayAtGoal:         false,
		GoalOccupationTime: 3,
		EdgeConflict:       true,
		TimeOut:            250 * time.Millisecond,
	}
	if s != want {
		t.Errorf("LoadSettings = %+v, want %+v", s, want)
	}
}

func TestParseSettingsRejects(t *testing.T) {
	tests := []string{
		`heuristic = "dijkstra"`,
		`objective_function = "fastest"`,
		`stay_at_goal = false
goal_occupation_time = 0`,
		`time_out = "soon"`,
		`colour = "blue"`,
	}
	for _, data := range tests {
		if _, err := ParseSettings(data); !Is(err, ErrCodeInvalidSettings) {
			t.Errorf("ParseSettings(%q) error = %v, want INVALID_SETTINGS", data, err)
		}
	}
}
