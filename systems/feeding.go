package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/forestsim/components"
)

// Graze returns one deer's intake at p, capped at maxGain, and credits it to
// fitness and the forage accumulator.
func Graze(l *Landscape, p components.Position, season Season, maxGain float64,
	vit *components.Vitals, f *components.Forage) float64 {
	intake := math.Min(maxGain, l.Forage(p, season))
	vit.Fitness += intake
	f.Add(intake)
	return intake
}

// Strike draws one predation attempt. efficiency 0 never succeeds.
func Strike(rng *rand.Rand, efficiency float64) bool {
	return rng.Float64() < efficiency
}
