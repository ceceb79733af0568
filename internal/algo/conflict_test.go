package algo

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/elektrokombinacija/mapf-grid/internal/core"
)

func TestFindFirstConflict_NoConflict(t *testing.T) {
	paths := []core.Path{
		{p(0, 0), p(1, 0), p(2, 0)},
		{p(0, 2), p(1, 2), p(2, 2)},
	}

	if c := FindFirstConflict(paths, core.DefaultSettings()); c != nil {
		t.Errorf("expected no conflict, got %v", c)
	}
}

func TestFindFirstConflict_VertexConflict(t *testing.T) {
	paths := []core.Path{
		{p(0, 0), p(1, 0), p(2, 0)},
		{p(1, 1), p(1, 0), p(1, 2)},
	}

	got := FindFirstConflict(paths, core.DefaultSettings())
	want := &Conflict{Agent1: 0, Agent2: 1, Pos: p(1, 0), Time: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("conflict mismatch (-want +got):\n%s", diff)
	}
}

func TestFindFirstConflict_EdgeConflict(t *testing.T) {
	paths := []core.Path{
		{p(0, 0), p(1, 0)},
		{p(1, 0), p(0, 0)},
	}

	got := FindFirstConflict(paths, core.DefaultSettings())
	want := &Conflict{
		Agent1:   0,
		Agent2:   1,
		Pos:      p(0, 0),
		Time:     1,
		IsEdge:   true,
		EdgeFrom: p(0, 0),
		EdgeTo:   p(1, 0),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("conflict mismatch (-want +got):\n%s", diff)
	}

	settings := core.DefaultSettings()
	settings.EdgeConflict = false
	if c := FindFirstConflict(paths, settings); c != nil {
		t.Errorf("swaps are allowed without edge conflicts, got %v", c)
	}
}

func TestFindFirstConflict_ParkedAgent(t *testing.T) {
	// Agent 0 arrives at (1,0) at t=1 and stays; agent 1 crosses it at t=2.
	paths := []core.Path{
		{p(0, 0), p(1, 0)},
		{p(1, 2), p(1, 1), p(1, 0), p(2, 0)},
	}

	c := FindFirstConflict(paths, core.DefaultSettings())
	if c == nil || c.IsEdge || c.Pos != p(1, 0) || c.Time != 2 {
		t.Fatalf("expected vertex conflict at (1,0) t=2, got %v", c)
	}

	if c := FindFirstConflict(paths, vanishSettings(1)); c != nil {
		t.Errorf("agent 0 vanished after t=1, got %v", c)
	}
}

func TestFindFirstConflict_Idempotent(t *testing.T) {
	paths := []core.Path{
		{p(0, 0), p(1, 0), p(2, 0), p(3, 0)},
		{p(3, 0), p(2, 0), p(1, 0), p(0, 0)},
		{p(0, 1), p(1, 1), p(2, 1)},
	}
	settings := core.DefaultSettings()

	first := FindFirstConflict(paths, settings)
	second := FindFirstConflict(paths, settings)
	if first == nil {
		t.Fatal("expected a conflict")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("detection is not repeatable (-first +second):\n%s", diff)
	}
}

func TestFindAllConflicts(t *testing.T) {
	paths := []core.Path{
		{p(0, 0), p(1, 0), p(2, 0)},
		{p(1, 1), p(1, 0), p(2, 0)},
	}

	conflicts := FindAllConflicts(paths, core.DefaultSettings())
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(conflicts))
	}
	if conflicts[0].Time != 1 || conflicts[1].Time != 2 {
		t.Errorf("conflicts out of time order: %v, %v", conflicts[0], conflicts[1])
	}
	if !HasConflict(paths, core.DefaultSettings()) {
		t.Error("HasConflict disagrees with FindAllConflicts")
	}
}
