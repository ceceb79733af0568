package core

import "sort"

// neighborOffsets lists 4-connected moves in a fixed order: up, right, down, left.
var neighborOffsets = [4]Pos{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Map is an immutable 4-connected grid with blocked cells.
type Map struct {
	Width, Height int
	obstacles     map[Pos]bool
	adjacency     [][]Pos // row-major, passable neighbors per cell
}

// NewMap builds a width x height grid. Obstacles outside the grid are rejected.
func NewMap(width, height int, obstacles []Pos) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, New(ErrCodeInvalidInstance, "map must be non-empty, got %dx%d", width, height)
	}
	m := &Map{
		Width:     width,
		Height:    height,
		obstacles: make(map[Pos]bool, len(obstacles)),
	}
	for _, o := range obstacles {
		if !m.InBounds(o) {
			return nil, New(ErrCodeInvalidInstance, "obstacle %v outside %dx%d map", o, width, height)
		}
		m.obstacles[o] = true
	}

	m.adjacency = make([][]Pos, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := Pos{X: x, Y: y}
			if m.obstacles[p] {
				continue
			}
			var nbs []Pos
			for _, d := range neighborOffsets {
				q := Pos{X: x + d.X, Y: y + d.Y}
				if m.Passable(q) {
					nbs = append(nbs, q)
				}
			}
			m.adjacency[m.index(p)] = nbs
		}
	}
	return m, nil
}

// MustMap is NewMap for fixtures; it panics on invalid input.
func MustMap(width, height int, obstacles []Pos) *Map {
	m, err := NewMap(width, height, obstacles)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Map) index(p Pos) int {
	return p.Y*m.Width + p.X
}

// InBounds reports whether p lies on the grid.
func (m *Map) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height
}

// IsObstacle reports whether p is a blocked cell.
func (m *Map) IsObstacle(p Pos) bool {
	return m.obstacles[p]
}

// Passable reports whether an agent may stand on p.
func (m *Map) Passable(p Pos) bool {
	return m.InBounds(p) && !m.obstacles[p]
}

// Neighbors returns the passable 4-connected neighbors of p.
// The returned slice is shared and must not be modified.
func (m *Map) Neighbors(p Pos) []Pos {
	if !m.Passable(p) {
		return nil
	}
	return m.adjacency[m.index(p)]
}

// Obstacles returns blocked cells in row-major order.
func (m *Map) Obstacles() []Pos {
	out := make([]Pos, 0, len(m.obstacles))
	for p := range m.obstacles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return m.index(out[i]) < m.index(out[j])
	})
	return out
}

// FreeCells counts passable cells.
func (m *Map) FreeCells() int {
	return m.Width*m.Height - len(m.obstacles)
}
