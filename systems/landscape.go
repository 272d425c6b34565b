package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
)

// ForestState is the land cover of a cell.
type ForestState uint8

const (
	OldGrowth ForestState = iota
	Logged
)

// String returns the state name.
func (s ForestState) String() string {
	if s == Logged {
		return "logged"
	}
	return "old_growth"
}

// Habitat is the nutrition regime of a cell, derived from state and age.
type Habitat uint8

const (
	HabitatOldGrowth    Habitat = iota
	HabitatSeral                // logged, canopy still open
	HabitatClosedCanopy         // logged, canopy closed
)

// Season selects the food factor applied at intake time.
type Season uint8

const (
	Summer Season = iota
	Winter
)

// String returns the season name.
func (s Season) String() string {
	if s == Winter {
		return "winter"
	}
	return "summer"
}

// Cell is one landscape patch.
type Cell struct {
	Pos       components.Position
	State     ForestState
	Age       int     // ticks since logging; only meaningful when Logged
	Protected bool    // fixed at landscape creation
	Nutrition float64 // recomputed every tick; NaN where no deer are present
}

// AgeValue returns the ticks since logging. ok is false for old growth.
func (c *Cell) AgeValue() (age int, ok bool) {
	if c.State != Logged {
		return 0, false
	}
	return c.Age, true
}

// ConfigurationError reports a parameter combination the model cannot honour.
// It is fatal for the run.
type ConfigurationError struct {
	Requested int
	Available int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %d cells requested for logging but only %d loggable cells remain",
		e.Requested, e.Available)
}

// Landscape is the N x N forest grid.
type Landscape struct {
	size        int
	cells       []Cell // row-major: x*size+y
	loggable    []components.Position
	forest      config.ForestConfig
	seralLength int
}

// NewLandscape creates an all old-growth landscape. When the protection policy
// is enabled, the leading columns are protected and only the trailing
// ProtectedColumns block remains loggable.
func NewLandscape(cfg *config.Config) *Landscape {
	size := cfg.Landscape.Size
	protectedCols := 0
	if cfg.Landscape.Protection {
		protectedCols = ProtectedColumns(cfg)
	}

	l := &Landscape{
		size:        size,
		cells:       make([]Cell, size*size),
		forest:      cfg.Forest,
		seralLength: cfg.Derived.SeralLength,
	}
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			pos := components.Position{X: x, Y: y}
			protected := y < protectedCols
			l.cells[x*size+y] = Cell{Pos: pos, Protected: protected, Nutrition: math.NaN()}
			if !protected {
				l.loggable = append(l.loggable, pos)
			}
		}
	}
	return l
}

// ProtectedColumns returns how many leading columns the protection policy
// reserves: everything except the columns needed to hold the whole logging
// programme (cells per month times logging events in the window).
func ProtectedColumns(cfg *config.Config) int {
	size := cfg.Landscape.Size
	total := cfg.Logging.CellsPerMonth * cfg.Derived.LoggingEvents
	open := int(math.Ceil(float64(total) / float64(size)))
	if open > size {
		open = size
	}
	return size - open
}

// Size returns the grid edge length.
func (l *Landscape) Size() int {
	return l.size
}

// At returns the cell at p.
func (l *Landscape) At(p components.Position) *Cell {
	return &l.cells[p.X*l.size+p.Y]
}

// Cells returns all cells in row-major order. Callers must not modify them.
func (l *Landscape) Cells() []Cell {
	return l.cells
}

// Loggable returns the cells eligible for logging under the protection policy.
// The slice is shared and must not be modified.
func (l *Landscape) Loggable() []components.Position {
	return l.loggable
}

// LoggedCount returns the number of logged cells.
func (l *Landscape) LoggedCount() int {
	n := 0
	for i := range l.cells {
		if l.cells[i].State == Logged {
			n++
		}
	}
	return n
}

// Habitat classifies the cell at p.
func (l *Landscape) Habitat(p components.Position) Habitat {
	c := l.At(p)
	switch {
	case c.State == OldGrowth:
		return HabitatOldGrowth
	case c.Age < l.seralLength:
		return HabitatSeral
	default:
		return HabitatClosedCanopy
	}
}

// AdvanceAge adds one tick to the age of every logged cell.
func (l *Landscape) AdvanceAge() {
	for i := range l.cells {
		if l.cells[i].State == Logged {
			l.cells[i].Age++
		}
	}
}

// Log converts count uniformly chosen loggable old-growth cells to logged
// with age 0 and returns them. It fails with a *ConfigurationError when fewer
// than count eligible cells remain; the landscape is left unchanged.
func (l *Landscape) Log(count int, rng *rand.Rand) ([]components.Position, error) {
	if count <= 0 {
		return nil, nil
	}

	eligible := make([]components.Position, 0, len(l.loggable))
	for _, p := range l.loggable {
		if l.At(p).State == OldGrowth {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) < count {
		return nil, &ConfigurationError{Requested: count, Available: len(eligible)}
	}

	// Partial Fisher-Yates: the first count entries become the sample.
	for i := 0; i < count; i++ {
		j := i + rng.Intn(len(eligible)-i)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	drawn := eligible[:count]
	for _, p := range drawn {
		c := l.At(p)
		c.State = Logged
		c.Age = 0
	}
	return drawn, nil
}

// Occupancy counts agents per cell.
type Occupancy interface {
	Count(p components.Position) int
}

// ComputeNutrition recomputes per-cell nutrition from deer occupancy.
// Cells without deer are left undefined (NaN); otherwise the habitat's base
// nutrition is shared evenly among the deer present.
func (l *Landscape) ComputeNutrition(deer Occupancy) {
	for i := range l.cells {
		c := &l.cells[i]
		c.Nutrition = math.NaN()

		k := deer.Count(c.Pos)
		if k == 0 {
			continue
		}
		c.Nutrition = l.BaseNutrition(c.Pos) / float64(k)
	}
}

// BaseNutrition returns the unshared nutrition of the cell at p.
func (l *Landscape) BaseNutrition(p components.Position) float64 {
	switch l.Habitat(p) {
	case HabitatOldGrowth:
		return l.forest.OldGrowthBaseNutrition
	case HabitatSeral:
		return SeralNutrition(l.forest.SeralBaseNutrition, l.At(p).Age)
	default:
		return l.forest.NewGrowthBaseNutrition
	}
}

// SeralNutrition is the regrowing biomass of a seral cell: concave and
// increasing in age.
func SeralNutrition(base float64, age int) float64 {
	return base + math.Log(float64(age)+1)
}

// SeasonFactor returns the food multiplier for the cell at p.
func (l *Landscape) SeasonFactor(p components.Position, season Season) float64 {
	oldGrowth := l.At(p).State == OldGrowth
	switch {
	case season == Summer && oldGrowth:
		return l.forest.SummerFactorOldGrowth
	case season == Summer:
		return l.forest.SummerFactorNewGrowth
	case oldGrowth:
		return l.forest.WinterFactorOldGrowth
	default:
		return l.forest.WinterFactorNewGrowth
	}
}

// Forage returns the food available to one deer at p this tick:
// the shared nutrition scaled by the season factor, or 0 if undefined.
func (l *Landscape) Forage(p components.Position, season Season) float64 {
	n := l.At(p).Nutrition
	if math.IsNaN(n) {
		return 0
	}
	return n * l.SeasonFactor(p, season)
}
