package components

// Position is an integer grid coordinate. X indexes rows, Y indexes columns.
type Position struct {
	X, Y int
}

// Chebyshev returns the king-move distance between two positions.
func Chebyshev(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
