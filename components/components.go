// Package components defines ECS components for the simulation.
package components

import "math"

// HomeRange is the bounded set of cells an agent patrols.
// Cells holds every cell within Radius of Origin followed by Origin itself;
// Memory is parallel to Cells and counts ticks since each cell was last visited.
type HomeRange struct {
	Origin Position
	Radius int
	Cells  []Position
	Memory []float64
}

// Unvisited is the memory value of a cell the agent has never been to.
var Unvisited = math.Inf(1)

// NewHomeRange builds a home range from the neighbours of origin at radius.
// The neighbour slice is copied. All memory entries start unvisited except current.
func NewHomeRange(origin Position, radius int, neighbors []Position, current Position) HomeRange {
	cells := make([]Position, 0, len(neighbors)+1)
	cells = append(cells, neighbors...)
	cells = append(cells, origin)

	memory := make([]float64, len(cells))
	for i := range memory {
		memory[i] = Unvisited
	}
	hr := HomeRange{Origin: origin, Radius: radius, Cells: cells, Memory: memory}
	if i := hr.IndexOf(current); i >= 0 {
		hr.Memory[i] = 0
	}
	return hr
}

// IndexOf returns the index of p in Cells, or -1.
func (hr *HomeRange) IndexOf(p Position) int {
	for i, c := range hr.Cells {
		if c == p {
			return i
		}
	}
	return -1
}

// Contains reports whether p is part of the home range.
func (hr *HomeRange) Contains(p Position) bool {
	return hr.IndexOf(p) >= 0
}

// Size returns the number of cells in the home range.
func (hr *HomeRange) Size() int {
	return len(hr.Cells)
}
