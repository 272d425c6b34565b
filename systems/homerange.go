package systems

import "github.com/pthm-cable/forestsim/components"

// SpawnHomeRange builds a fresh home range anchored at origin.
func SpawnHomeRange(idx *NeighborIndex, origin components.Position, radius int) components.HomeRange {
	radius = clampRadius(idx, radius, radius)
	return components.NewHomeRange(origin, radius, idx.Within(origin, radius), origin)
}

// ReviewHomeRange runs the yearly undernourishment check. If mean intake over
// the accumulated ticks is below threshold, the radius grows by one (capped at
// maxRadius and at the index ceiling) and the home range is rebuilt around its
// origin with fresh memory. No observed ticks means no change. The
// accumulator is reset in every case. Returns true if the range expanded.
func ReviewHomeRange(idx *NeighborIndex, hr *components.HomeRange, f *components.Forage,
	pos components.Position, maxRadius int, threshold float64) bool {
	defer f.Reset()

	avg, ok := f.Average()
	if !ok || avg >= threshold {
		return false
	}

	radius := clampRadius(idx, hr.Radius+1, maxRadius)
	if radius <= hr.Radius {
		return false
	}
	*hr = components.NewHomeRange(hr.Origin, radius, idx.Within(hr.Origin, radius), pos)
	return true
}

// clampRadius caps radius at maxRadius and at the largest indexed radius.
func clampRadius(idx *NeighborIndex, radius, maxRadius int) int {
	if radius > maxRadius {
		radius = maxRadius
	}
	if radius > idx.MaxRadius() {
		radius = idx.MaxRadius()
	}
	if radius < 1 {
		radius = 1
	}
	return radius
}
