package core

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings configures every solver. It is read-only once a solve starts.
type Settings struct {
	Heuristic HeuristicKind
	Objective Objective
	// StayAtGoal keeps arrived agents on their goal forever. When false,
	// agents occupy the goal for GoalOccupationTime steps and then vanish.
	StayAtGoal         bool
	GoalOccupationTime int
	EdgeConflict       bool
	// TimeOut bounds wall-clock solve time; zero means unbounded.
	TimeOut time.Duration
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Heuristic:          HeuristicManhattan,
		Objective:          SumOfCosts,
		StayAtGoal:         true,
		GoalOccupationTime: 1,
		EdgeConflict:       true,
	}
}

// Validate checks settings consistency.
func (s Settings) Validate() error {
	if s.Heuristic != HeuristicManhattan && s.Heuristic != HeuristicRRA {
		return New(ErrCodeInvalidSettings, "unknown heuristic %v", s.Heuristic)
	}
	if s.Objective != SumOfCosts && s.Objective != Makespan {
		return New(ErrCodeInvalidSettings, "unknown objective %v", s.Objective)
	}
	if !s.StayAtGoal && s.GoalOccupationTime < 1 {
		return New(ErrCodeInvalidSettings, "goal_occupation_time must be at least 1, got %d", s.GoalOccupationTime)
	}
	if s.TimeOut < 0 {
		return New(ErrCodeInvalidSettings, "time_out must not be negative, got %v", s.TimeOut)
	}
	return nil
}

// ParseHeuristic maps a configuration tag to a HeuristicKind.
func ParseHeuristic(tag string) (HeuristicKind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "manhattan":
		return HeuristicManhattan, nil
	case "rra", "rra*", "reverse_resumable_astar":
		return HeuristicRRA, nil
	default:
		return 0, New(ErrCodeInvalidSettings, "unknown heuristic %q", tag)
	}
}

// ParseObjective maps a configuration tag to an Objective.
func ParseObjective(tag string) (Objective, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "soc", "sum_of_costs", "sumofcosts":
		return SumOfCosts, nil
	case "makespan":
		return Makespan, nil
	default:
		return 0, New(ErrCodeInvalidSettings, "unknown objective %q", tag)
	}
}

// settingsFile mirrors the TOML layout. Pointers distinguish "absent" from
// zero values so absent keys keep their defaults.
type settingsFile struct {
	Heuristic          string `toml:"heuristic"`
	Objective          string `toml:"objective_function"`
	StayAtGoal         *bool  `toml:"stay_at_goal"`
	GoalOccupationTime *int   `toml:"goal_occupation_time"`
	EdgeConflict       *bool  `toml:"edge_conflict"`
	TimeOut            string `toml:"time_out"`
}

// LoadSettings reads settings from a TOML file on top of DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	var f settingsFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Settings{}, Wrap(ErrCodeInvalidSettings, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, New(ErrCodeInvalidSettings, "unknown key %q in %s", undecoded[0].String(), path)
	}
	return f.apply(DefaultSettings())
}

// ParseSettings decodes settings from TOML text on top of DefaultSettings.
func ParseSettings(data string) (Settings, error) {
	var f settingsFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return Settings{}, Wrap(ErrCodeInvalidSettings, err, "decode settings")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, New(ErrCodeInvalidSettings, "unknown key %q", undecoded[0].String())
	}
	return f.apply(DefaultSettings())
}

func (f settingsFile) apply(s Settings) (Settings, error) {
	var err error
	if f.Heuristic != "" {
		if s.Heuristic, err = ParseHeuristic(f.Heuristic); err != nil {
			return Settings{}, err
		}
	}
	if f.Objective != "" {
		if s.Objective, err = ParseObjective(f.Objective); err != nil {
			return Settings{}, err
		}
	}
	if f.StayAtGoal != nil {
		s.StayAtGoal = *f.StayAtGoal
	}
	if f.GoalOccupationTime != nil {
		s.GoalOccupationTime = *f.GoalOccupationTime
	}
	if f.EdgeConflict != nil {
		s.EdgeConflict = *f.EdgeConflict
	}
	if f.TimeOut != "" && f.TimeOut != "none" {
		if s.TimeOut, err = time.ParseDuration(f.TimeOut); err != nil {
			return Settings{}, Wrap(ErrCodeInvalidSettings, err, "time_out %q", f.TimeOut)
		}
	}
	return s, s.Validate()
}
