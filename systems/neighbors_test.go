package systems

import (
	"testing"

	"github.com/pthm-cable/forestsim/components"
)

func TestNeighborIndexCounts(t *testing.T) {
	idx := NewNeighborIndex(11)
	if idx.MaxRadius() != 5 {
		t.Fatalf("MaxRadius = %d, want 5", idx.MaxRadius())
	}

	tests := []struct {
		name   string
		pos    components.Position
		radius int
		want   int
	}{
		{"interior r1", components.Position{X: 5, Y: 5}, 1, 8},
		{"interior r2", components.Position{X: 5, Y: 5}, 2, 24},
		{"corner r1", components.Position{X: 0, Y: 0}, 1, 3},
		{"corner r3", components.Position{X: 0, Y: 0}, 3, 15},
		{"edge r1", components.Position{X: 0, Y: 5}, 1, 5},
		{"center r5 covers grid", components.Position{X: 5, Y: 5}, 5, 120},
		{"radius clamped high", components.Position{X: 5, Y: 5}, 99, 120},
		{"radius clamped low", components.Position{X: 5, Y: 5}, 0, 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := idx.Within(tc.pos, tc.radius)
			if len(got) != tc.want {
				t.Errorf("len(Within(%v, %d)) = %d, want %d", tc.pos, tc.radius, len(got), tc.want)
			}
			for _, c := range got {
				if c == tc.pos {
					t.Errorf("neighbourhood of %v contains the cell itself", tc.pos)
				}
				if c.X < 0 || c.X >= 11 || c.Y < 0 || c.Y >= 11 {
					t.Errorf("out of bounds cell %v", c)
				}
			}
		})
	}
}

func TestNeighborIndexOrderAndIdempotence(t *testing.T) {
	idx := NewNeighborIndex(5)
	p := components.Position{X: 2, Y: 2}

	first := idx.Within(p, 1)
	want := []components.Position{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 3}, {X: 2, Y: 1}, {X: 2, Y: 3}, {X: 3, Y: 1}, {X: 3, Y: 2}, {X: 3, Y: 3}}
	if len(first) != len(want) {
		t.Fatalf("got %d cells, want %d", len(first), len(want))
	}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, first[i], want[i])
		}
	}

	for i := 0; i < 10; i++ {
		again := idx.Within(p, 1)
		if len(again) != len(first) {
			t.Fatalf("query %d returned %d cells, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("query %d differs at %d: %v vs %v", i, j, again[j], first[j])
			}
		}
	}
}

func TestNeighborIndexTinyGrid(t *testing.T) {
	idx := NewNeighborIndex(1)
	if idx.MaxRadius() != 1 {
		t.Errorf("MaxRadius = %d, want 1", idx.MaxRadius())
	}
	if got := idx.Within(components.Position{}, 1); len(got) != 0 {
		t.Errorf("1x1 grid has neighbours: %v", got)
	}
}
