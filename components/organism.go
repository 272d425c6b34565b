package components

// Species identifies which population an agent belongs to.
type Species uint8

const (
	SpeciesDeer Species = iota
	SpeciesWolf
)

// String returns the species name as used in logs and output columns.
func (s Species) String() string {
	switch s {
	case SpeciesDeer:
		return "deer"
	case SpeciesWolf:
		return "wolf"
	default:
		return "unknown"
	}
}

// Identity holds the run-unique agent ID and its species.
// IDs are assigned monotonically and never reused within a run.
type Identity struct {
	ID      uint64
	Species Species
}

// Vitals holds the scalar health state driving survival and reproduction.
type Vitals struct {
	Fitness    float64
	TimeInCell int // consecutive ticks spent in the current cell, starting at 1
}

// Forage accumulates intake between yearly home-range reviews.
type Forage struct {
	Intake float64
	Ticks  int
}

// Add records one tick with the given intake.
func (f *Forage) Add(intake float64) {
	f.Intake += intake
	f.Ticks++
}

// Average returns mean intake per tick. ok is false when no ticks were observed.
func (f *Forage) Average() (avg float64, ok bool) {
	if f.Ticks == 0 {
		return 0, false
	}
	return f.Intake / float64(f.Ticks), true
}

// Reset clears the accumulator.
func (f *Forage) Reset() {
	f.Intake = 0
	f.Ticks = 0
}

// Hunter holds wolf-only predation state.
type Hunter struct {
	TicksSinceKill int
}

// Ready reports whether the hunt cooldown has elapsed.
func (h *Hunter) Ready(refresh int) bool {
	return h.TicksSinceKill >= refresh
}
