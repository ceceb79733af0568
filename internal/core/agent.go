package core

// AgentID is the caller-facing identity of an agent. It survives re-indexing
// when instances are split into groups.
type AgentID int

// Agent moves from Start to Goal.
type Agent struct {
	ID    AgentID
	Start Pos
	Goal  Pos
}
