// Package game runs the deer/wolf simulation on a logged forest landscape.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/systems"
	"github.com/pthm-cable/forestsim/telemetry"
)

// ErrFinished is returned by Step once the configured horizon is reached.
var ErrFinished = errors.New("simulation finished")

// Options configures a simulation beyond its Config.
type Options struct {
	Seed   int64        // Overrides cfg.Sim.Seed when non-zero
	Logger *slog.Logger // nil = slog.Default()

	// Perf times the pipeline phases. nil disables timing.
	Perf *telemetry.PerfCollector

	// OnYear is called after the last tick of every simulated year.
	OnYear func(year int, row telemetry.Row)
}

// Simulation holds the complete state of one run.
type Simulation struct {
	cfg    *config.Config
	seed   int64
	rng    *rand.Rand
	logger *slog.Logger
	perf   *telemetry.PerfCollector
	onYear func(int, telemetry.Row)

	world *ecs.World

	deerMapper *ecs.Map5[
		components.Identity,
		components.Position,
		components.Vitals,
		components.HomeRange,
		components.Forage,
	]
	wolfMapper *ecs.Map6[
		components.Identity,
		components.Position,
		components.Vitals,
		components.HomeRange,
		components.Forage,
		components.Hunter,
	]
	agentFilter *ecs.Filter2[components.Identity, components.HomeRange]

	// Individual component mappers for lookups
	idMap     *ecs.Map1[components.Identity]
	posMap    *ecs.Map1[components.Position]
	vitMap    *ecs.Map1[components.Vitals]
	hrMap     *ecs.Map1[components.HomeRange]
	forageMap *ecs.Map1[components.Forage]
	hunterMap *ecs.Map1[components.Hunter]

	// Populations in insertion order; every order-dependent rule iterates these.
	deer   []ecs.Entity
	wolves []ecs.Entity

	neighbors *systems.NeighborIndex
	landscape *systems.Landscape
	deerCells *systems.CellIndex

	collector *telemetry.Collector
	recorder  *telemetry.Recorder

	tick   int
	nextID uint64
}

// New creates a simulation, spawns the initial populations and records the
// initial state as row 0.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Sim.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:    cfg,
		seed:   seed,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
		perf:   opts.Perf,
		onYear: opts.OnYear,
		world:  world,
		deerMapper: ecs.NewMap5[
			components.Identity,
			components.Position,
			components.Vitals,
			components.HomeRange,
			components.Forage,
		](world),
		wolfMapper: ecs.NewMap6[
			components.Identity,
			components.Position,
			components.Vitals,
			components.HomeRange,
			components.Forage,
			components.Hunter,
		](world),
		agentFilter: ecs.NewFilter2[components.Identity, components.HomeRange](world),
		idMap:       ecs.NewMap1[components.Identity](world),
		posMap:      ecs.NewMap1[components.Position](world),
		vitMap:      ecs.NewMap1[components.Vitals](world),
		hrMap:       ecs.NewMap1[components.HomeRange](world),
		forageMap:   ecs.NewMap1[components.Forage](world),
		hunterMap:   ecs.NewMap1[components.Hunter](world),
		neighbors:   systems.NewNeighborIndex(cfg.Landscape.Size),
		landscape:   systems.NewLandscape(cfg),
		deerCells:   systems.NewCellIndex(cfg.Landscape.Size),
		collector:   telemetry.NewCollector(),
		recorder:    telemetry.NewRecorder(cfg.Derived.Ticks),
	}

	s.spawnInitialPopulation()
	row := s.record()

	logger.Info("simulation created",
		"seed", seed,
		"size", cfg.Landscape.Size,
		"ticks", cfg.Derived.Ticks,
		"protection", cfg.Landscape.Protection,
		"cells_per_month", cfg.Logging.CellsPerMonth,
		"initial", row,
	)
	return s, nil
}

// Run steps the simulation to its horizon. The context is checked between
// ticks; a cancelled run returns the context error with the rows recorded
// so far intact.
func (s *Simulation) Run(ctx context.Context) error {
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
	}

	last, _ := s.recorder.Last()
	s.logger.Info("simulation finished", "seed", s.seed, "final", last)
	return nil
}

// Done reports whether the configured horizon has been reached.
func (s *Simulation) Done() bool {
	return s.tick >= s.cfg.Derived.Ticks
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int {
	return s.tick
}

// Seed returns the effective RNG seed.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// Config returns the run configuration.
func (s *Simulation) Config() *config.Config {
	return s.cfg
}

// Landscape returns the forest grid.
func (s *Simulation) Landscape() *systems.Landscape {
	return s.landscape
}

// Recorder returns the record stream of the run.
func (s *Simulation) Recorder() *telemetry.Recorder {
	return s.recorder
}

// Population returns the live count of a species.
func (s *Simulation) Population(species components.Species) int {
	if species == components.SpeciesDeer {
		return len(s.deer)
	}
	return len(s.wolves)
}

// Snapshot captures the landscape and every live agent.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Seed:    s.seed,
		Tick:    s.tick,
		Size:    s.landscape.Size(),
	}

	for _, c := range s.landscape.Cells() {
		cs := telemetry.CellState{
			X:         c.Pos.X,
			Y:         c.Pos.Y,
			State:     c.State.String(),
			Protected: c.Protected,
		}
		if age, ok := c.AgeValue(); ok {
			cs.Age = &age
		}
		snap.Cells = append(snap.Cells, cs)
	}

	for _, pop := range [][]ecs.Entity{s.deer, s.wolves} {
		for _, e := range pop {
			id := s.idMap.Get(e)
			pos := s.posMap.Get(e)
			vit := s.vitMap.Get(e)
			hr := s.hrMap.Get(e)
			snap.Agents = append(snap.Agents, telemetry.AgentState{
				ID:         id.ID,
				Species:    id.Species.String(),
				X:          pos.X,
				Y:          pos.Y,
				Fitness:    vit.Fitness,
				TimeInCell: vit.TimeInCell,
				OriginX:    hr.Origin.X,
				OriginY:    hr.Origin.Y,
				Radius:     hr.Radius,
				HomeRange:  hr.Size(),
			})
		}
	}
	return snap
}
