// Package systems provides the per-tick rules of the simulation: the landscape
// state machine, neighbourhood lookups, movement, feeding and predation.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/forestsim/components"
)

// CellIndex buckets entities by grid cell. It is rebuilt every tick after
// movement; each bucket keeps insertion order, so inserting in population
// order preserves the first-match rule of predation.
type CellIndex struct {
	size  int
	cells [][]ecs.Entity
}

// NewCellIndex creates an empty index for a size x size grid.
func NewCellIndex(size int) *CellIndex {
	cells := make([][]ecs.Entity, size*size)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}
	return &CellIndex{size: size, cells: cells}
}

// Clear removes all entities from the index.
func (ci *CellIndex) Clear() {
	for i := range ci.cells {
		ci.cells[i] = ci.cells[i][:0]
	}
}

// Insert appends an entity to the bucket at p.
func (ci *CellIndex) Insert(e ecs.Entity, p components.Position) {
	idx := p.X*ci.size + p.Y
	ci.cells[idx] = append(ci.cells[idx], e)
}

// At returns the entities at p in insertion order.
// The slice is only valid until the next Clear.
func (ci *CellIndex) At(p components.Position) []ecs.Entity {
	return ci.cells[p.X*ci.size+p.Y]
}

// Count returns the number of entities at p.
func (ci *CellIndex) Count(p components.Position) int {
	return len(ci.cells[p.X*ci.size+p.Y])
}
