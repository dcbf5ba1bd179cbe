package world

import (
	"fmt"
	"slices"
)

// Water marks a cell with no community.
const Water uint64 = 0

// Map is the W×H grid. Each land cell holds the id of the community on it;
// water cells hold Water.
type Map struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Cells  []uint64 `json:"cells"` // Row-major, len = Width*Height
}

// NewMap creates an all-water map.
func NewMap(width, height int) *Map {
	return &Map{
		Width:  width,
		Height: height,
		Cells:  make([]uint64, width*height),
	}
}

// InBounds returns true if the coordinate is on the grid.
func (m *Map) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < m.Width && c.Y < m.Height
}

// Index returns the row-major slice index of c.
func (m *Map) Index(c Coord) int {
	return c.Y*m.Width + c.X
}

// At returns the community id at c, or Water when c is water or off-grid.
func (m *Map) At(c Coord) uint64 {
	if !m.InBounds(c) {
		return Water
	}
	return m.Cells[m.Index(c)]
}

// Set places a community id on c.
func (m *Map) Set(c Coord, id uint64) {
	m.Cells[m.Index(c)] = id
}

// LandCount returns the number of occupied cells.
func (m *Map) LandCount() int {
	n := 0
	for _, id := range m.Cells {
		if id != Water {
			n++
		}
	}
	return n
}

// OccupiedNeighbors returns the community ids orthogonally adjacent to c,
// in NeighborDirections order.
func (m *Map) OccupiedNeighbors(c Coord) []uint64 {
	out := make([]uint64, 0, 4)
	for _, n := range c.Neighbors() {
		if id := m.At(n); id != Water {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns an independent copy.
func (m *Map) Clone() *Map {
	return &Map{Width: m.Width, Height: m.Height, Cells: slices.Clone(m.Cells)}
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(%dx%d, land=%d)", m.Width, m.Height, m.LandCount())
}
