package systems

import "github.com/pthm-cable/forestsim/components"

// ChooseCell picks the adjacent home-range cell visited longest ago.
// Candidates are home-range cells at Chebyshev distance 1 from pos; the
// largest memory value wins, ties going to the earliest cell in home-range
// order. The chosen cell's memory is reset to 0 and every other entry grows
// by one. ok is false, and memory untouched, when no candidate exists.
func ChooseCell(pos components.Position, hr *components.HomeRange) (next components.Position, ok bool) {
	pick := -1
	for i, c := range hr.Cells {
		if components.Chebyshev(c, pos) != 1 {
			continue
		}
		if pick < 0 || hr.Memory[i] > hr.Memory[pick] {
			pick = i
		}
	}
	if pick < 0 {
		return pos, false
	}

	for i := range hr.Memory {
		if i == pick {
			hr.Memory[i] = 0
		} else {
			hr.Memory[i]++
		}
	}
	return hr.Cells[pick], true
}

// Move applies the habitat-dependent stay/relocate rule shared by all species.
// Old growth holds an agent for up to two extra ticks, closed canopy for one,
// and seral forest not at all. Returns true if the agent changed cell.
func Move(pos *components.Position, vit *components.Vitals, hr *components.HomeRange, habitat Habitat) bool {
	var relocate bool
	switch habitat {
	case HabitatOldGrowth:
		relocate = vit.TimeInCell > 2
	case HabitatSeral:
		relocate = true
	default:
		relocate = vit.TimeInCell > 1
	}

	if !relocate {
		vit.TimeInCell++
		return false
	}

	vit.TimeInCell = 1
	next, ok := ChooseCell(*pos, hr)
	if !ok {
		return false
	}
	*pos = next
	return true
}
