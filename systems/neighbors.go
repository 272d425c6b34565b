package systems

import "github.com/pthm-cable/forestsim/components"

// NeighborIndex is a lookup table of Chebyshev neighbourhoods.
// For every cell and every radius 1..MaxRadius it holds the cells within that
// distance, excluding the cell itself, clipped to the grid. Entries are ordered
// by X then Y. The table is built once and never modified.
type NeighborIndex struct {
	size      int
	maxRadius int
	table     [][][]components.Position // [radius-1][x*size+y]
}

// NewNeighborIndex precomputes neighbourhoods for radii up to half the grid size.
func NewNeighborIndex(size int) *NeighborIndex {
	maxRadius := size / 2
	if maxRadius < 1 {
		maxRadius = 1
	}

	table := make([][][]components.Position, maxRadius)
	for r := 1; r <= maxRadius; r++ {
		byCell := make([][]components.Position, size*size)
		for x := 0; x < size; x++ {
			for y := 0; y < size; y++ {
				byCell[x*size+y] = neighborhood(size, x, y, r)
			}
		}
		table[r-1] = byCell
	}

	return &NeighborIndex{size: size, maxRadius: maxRadius, table: table}
}

// neighborhood lists the cells within Chebyshev radius r of (x, y).
func neighborhood(size, x, y, r int) []components.Position {
	cells := make([]components.Position, 0, (2*r+1)*(2*r+1)-1)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= size || ny < 0 || ny >= size {
				continue
			}
			cells = append(cells, components.Position{X: nx, Y: ny})
		}
	}
	return cells
}

// Within returns the cells within radius of p. The radius is clamped to
// [1, MaxRadius]. The returned slice is shared and must not be modified.
func (n *NeighborIndex) Within(p components.Position, radius int) []components.Position {
	if radius < 1 {
		radius = 1
	}
	if radius > n.maxRadius {
		radius = n.maxRadius
	}
	return n.table[radius-1][p.X*n.size+p.Y]
}

// MaxRadius returns the largest indexed radius.
func (n *NeighborIndex) MaxRadius() int {
	return n.maxRadius
}

// Size returns the grid edge length.
func (n *NeighborIndex) Size() int {
	return n.size
}
