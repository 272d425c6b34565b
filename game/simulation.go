package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/systems"
	"github.com/pthm-cable/forestsim/telemetry"
)

// Step advances the simulation by one tick through the fixed pipeline.
// A logging over-draw aborts the run with a *systems.ConfigurationError.
func (s *Simulation) Step() error {
	if s.Done() {
		return ErrFinished
	}
	s.tick++

	day := s.cfg.DayOfYear(s.tick)
	season := systems.Winter
	if s.cfg.IsSummer(day) {
		season = systems.Summer
	}
	yearEnd := s.cfg.IsYearEnd(day)

	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseLandscape)
	s.landscape.AdvanceAge()
	if s.cfg.IsLoggingTick(s.tick) {
		if err := s.logForest(); err != nil {
			return err
		}
	}

	s.perf.StartPhase(telemetry.PhaseMovement)
	s.moveAll(s.deer)
	s.moveAll(s.wolves)

	s.perf.StartPhase(telemetry.PhaseCellIndex)
	s.indexDeer()

	s.perf.StartPhase(telemetry.PhaseForage)
	s.landscape.ComputeNutrition(s.deerCells)
	s.feedDeer(season)
	if yearEnd {
		s.reviewHomeRanges(s.deer, components.SpeciesDeer, s.cfg.Derived.DeerRadius)
	}

	s.perf.StartPhase(telemetry.PhasePredation)
	s.hunt()
	if yearEnd {
		s.reviewHomeRanges(s.wolves, components.SpeciesWolf, s.cfg.Derived.WolfRadius)
	}

	s.perf.StartPhase(telemetry.PhaseBirths)
	s.wolves = s.reproduce(s.wolves, components.SpeciesWolf)
	s.deer = s.reproduce(s.deer, components.SpeciesDeer)

	s.perf.StartPhase(telemetry.PhaseMortality)
	s.deer = s.decay(s.deer, components.SpeciesDeer)
	s.wolves = s.decay(s.wolves, components.SpeciesWolf)

	s.perf.StartPhase(telemetry.PhaseRecord)
	row := s.record()
	s.perf.EndTick()

	if yearEnd && s.onYear != nil {
		s.onYear(s.tick/s.cfg.Sim.YearLength, row)
	}
	return nil
}

// logForest clears the monthly quota of cells.
func (s *Simulation) logForest() error {
	cells, err := s.landscape.Log(s.cfg.Logging.CellsPerMonth, s.rng)
	if err != nil {
		s.logger.Error("logging failed", "tick", s.tick, "error", err)
		return err
	}
	s.logger.Info("logging event",
		"tick", s.tick,
		"cells", len(cells),
		"logged_total", s.landscape.LoggedCount(),
	)
	return nil
}

// moveAll applies the movement rule to every member of pop in order.
func (s *Simulation) moveAll(pop []ecs.Entity) {
	for _, e := range pop {
		pos := s.posMap.Get(e)
		systems.Move(pos, s.vitMap.Get(e), s.hrMap.Get(e), s.landscape.Habitat(*pos))
	}
}

// indexDeer rebuilds the deer co-location index in population order.
func (s *Simulation) indexDeer() {
	s.deerCells.Clear()
	for _, e := range s.deer {
		s.deerCells.Insert(e, *s.posMap.Get(e))
	}
}

// feedDeer grazes every deer on its current cell.
func (s *Simulation) feedDeer(season systems.Season) {
	maxGain := s.cfg.Forage.MaxFoodGain
	for _, e := range s.deer {
		systems.Graze(s.landscape, *s.posMap.Get(e), season, maxGain, s.vitMap.Get(e), s.forageMap.Get(e))
	}
}

// hunt runs predation. Each ready wolf tries the deer sharing its cell in
// population order until one strike succeeds. Afterwards every wolf ages its
// kill timer and counts one observed tick.
func (s *Simulation) hunt() {
	pc := s.cfg.Predation

	for _, w := range s.wolves {
		hunter := s.hunterMap.Get(w)
		if !hunter.Ready(pc.HuntRefresh) {
			continue
		}
		for _, d := range s.deerCells.At(*s.posMap.Get(w)) {
			prey := s.vitMap.Get(d)
			if prey.Fitness <= 0 {
				continue // already taken this tick
			}
			if !systems.Strike(s.rng, pc.Efficiency) {
				continue
			}
			prey.Fitness = 0
			s.vitMap.Get(w).Fitness += pc.GainFromDeer
			s.forageMap.Get(w).Intake += pc.GainFromDeer
			hunter.TicksSinceKill = -1
			s.collector.RecordKill()
			break
		}
	}

	for _, w := range s.wolves {
		s.hunterMap.Get(w).TicksSinceKill++
		s.forageMap.Get(w).Ticks++
	}
}

// reviewHomeRanges runs the yearly undernourishment check for pop.
func (s *Simulation) reviewHomeRanges(pop []ecs.Entity, species components.Species, radius config.RadiusRange) {
	threshold := s.cfg.Forage.UndernourishedThreshold
	expanded := 0
	for _, e := range pop {
		if systems.ReviewHomeRange(s.neighbors, s.hrMap.Get(e), s.forageMap.Get(e),
			*s.posMap.Get(e), radius.Max, threshold) {
			expanded++
		}
	}
	s.logger.Debug("home range review",
		"tick", s.tick,
		"species", species.String(),
		"population", len(pop),
		"expanded", expanded,
	)
}

// record appends the census and event counters of the current tick.
func (s *Simulation) record() telemetry.Row {
	var census telemetry.Census
	query := s.agentFilter.Query()
	for query.Next() {
		id, hr := query.Get()
		census.Add(id.Species, hr.Size())
	}

	row := census.Row(s.tick)
	s.recorder.Record(row, s.collector.Flush(s.tick))
	if s.cfg.Output.Tracking {
		s.track(s.deer, components.SpeciesDeer)
		s.track(s.wolves, components.SpeciesWolf)
	}
	return row
}

// track samples the position and fitness of every member of pop.
func (s *Simulation) track(pop []ecs.Entity, species components.Species) {
	for _, e := range pop {
		pos := s.posMap.Get(e)
		s.recorder.Track(species, telemetry.TrackRow{
			ID:       s.idMap.Get(e).ID,
			Timestep: s.tick,
			X:        pos.X,
			Y:        pos.Y,
			Fitness:  s.vitMap.Get(e).Fitness,
		})
	}
}
