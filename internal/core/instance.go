package core

// Instance is an immutable MAPF problem: a shared map and an ordered list of
// agents. Slice position is the internal agent index used by every solver.
type Instance struct {
	Map    *Map
	Agents []Agent
}

// NewInstance validates and builds an instance. The agents slice is copied.
func NewInstance(m *Map, agents []Agent) (*Instance, error) {
	inst := &Instance{
		Map:    m,
		Agents: append([]Agent(nil), agents...),
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// MustInstance is NewInstance for fixtures; it panics on invalid input.
func MustInstance(m *Map, agents []Agent) *Instance {
	inst, err := NewInstance(m, agents)
	if err != nil {
		panic(err)
	}
	return inst
}

// Validate checks instance consistency.
func (inst *Instance) Validate() error {
	if inst.Map == nil {
		return New(ErrCodeInvalidInstance, "instance has no map")
	}
	if len(inst.Agents) == 0 {
		return New(ErrCodeInvalidInstance, "instance has no agents")
	}

	ids := make(map[AgentID]bool, len(inst.Agents))
	owner := make(map[Pos]AgentID, 2*len(inst.Agents)) // starts and goals
	for _, a := range inst.Agents {
		if ids[a.ID] {
			return New(ErrCodeInvalidInstance, "duplicate agent id %d", a.ID)
		}
		ids[a.ID] = true

		if !inst.Map.Passable(a.Start) {
			return New(ErrCodeInvalidInstance, "agent %d start %v is blocked or off the map", a.ID, a.Start)
		}
		if !inst.Map.Passable(a.Goal) {
			return New(ErrCodeInvalidInstance, "agent %d goal %v is blocked or off the map", a.ID, a.Goal)
		}
		for _, p := range []Pos{a.Start, a.Goal} {
			if other, taken := owner[p]; taken && other != a.ID {
				return New(ErrCodeInvalidInstance, "agents %d and %d both use cell %v as start or goal", other, a.ID, p)
			}
			owner[p] = a.ID
		}
	}
	return nil
}

// NumAgents returns the number of agents.
func (inst *Instance) NumAgents() int {
	return len(inst.Agents)
}

// AgentByID finds an agent by its caller-facing ID.
func (inst *Instance) AgentByID(id AgentID) *Agent {
	for i := range inst.Agents {
		if inst.Agents[i].ID == id {
			return &inst.Agents[i]
		}
	}
	return nil
}

// Subset returns a new instance holding the agents at the given indices, in
// that order, sharing the same map. Agent IDs are preserved.
func (inst *Instance) Subset(indices []int) *Instance {
	agents := make([]Agent, len(indices))
	for k, i := range indices {
		agents[k] = inst.Agents[i]
	}
	return &Instance{Map: inst.Map, Agents: agents}
}
