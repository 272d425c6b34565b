package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/systems"
)

// spawnInitialPopulation places deer first, then wolves, at uniform random cells.
func (s *Simulation) spawnInitialPopulation() {
	size := s.cfg.Landscape.Size
	for i := 0; i < s.cfg.Deer.InitialCount; i++ {
		pos := components.Position{X: s.rng.Intn(size), Y: s.rng.Intn(size)}
		s.deer = append(s.deer, s.spawnDeer(pos))
	}
	for i := 0; i < s.cfg.Wolf.InitialCount; i++ {
		pos := components.Position{X: s.rng.Intn(size), Y: s.rng.Intn(size)}
		s.wolves = append(s.wolves, s.spawnWolf(pos))
	}
}

// spawnDeer creates a deer at pos with a fresh home range anchored there.
func (s *Simulation) spawnDeer(pos components.Position) ecs.Entity {
	id := s.newIdentity(components.SpeciesDeer)
	vit := s.newVitals(s.cfg.Deer)
	hr := s.newHomeRange(pos, s.cfg.Derived.DeerRadius)
	forage := components.Forage{}
	return s.deerMapper.NewEntity(&id, &pos, &vit, &hr, &forage)
}

// spawnWolf creates a wolf at pos. New wolves are ready to hunt.
func (s *Simulation) spawnWolf(pos components.Position) ecs.Entity {
	id := s.newIdentity(components.SpeciesWolf)
	vit := s.newVitals(s.cfg.Wolf)
	hr := s.newHomeRange(pos, s.cfg.Derived.WolfRadius)
	forage := components.Forage{}
	hunter := components.Hunter{TicksSinceKill: s.cfg.Predation.HuntRefresh}
	return s.wolfMapper.NewEntity(&id, &pos, &vit, &hr, &forage, &hunter)
}

func (s *Simulation) newIdentity(species components.Species) components.Identity {
	s.nextID++
	return components.Identity{ID: s.nextID, Species: species}
}

func (s *Simulation) newVitals(sc config.SpeciesConfig) components.Vitals {
	return components.Vitals{Fitness: sc.InitialFitness, TimeInCell: 1}
}

func (s *Simulation) newHomeRange(pos components.Position, radius config.RadiusRange) components.HomeRange {
	return systems.SpawnHomeRange(s.neighbors, pos, radius.Initial)
}

// speciesConfig returns the life-history parameters of a species.
func (s *Simulation) speciesConfig(species components.Species) config.SpeciesConfig {
	if species == components.SpeciesDeer {
		return s.cfg.Deer
	}
	return s.cfg.Wolf
}

// reproduce lets every current member of pop above the birth threshold pay
// the birth cost and produce one offspring at its position. Offspring are
// created after the scan and appended in parent order.
func (s *Simulation) reproduce(pop []ecs.Entity, species components.Species) []ecs.Entity {
	sc := s.speciesConfig(species)

	var births []components.Position
	for _, e := range pop {
		vit := s.vitMap.Get(e)
		if vit.Fitness <= sc.BirthThreshold {
			continue
		}
		vit.Fitness -= sc.BirthLoss
		births = append(births, *s.posMap.Get(e))
	}

	for _, pos := range births {
		if species == components.SpeciesDeer {
			pop = append(pop, s.spawnDeer(pos))
		} else {
			pop = append(pop, s.spawnWolf(pos))
		}
		s.collector.RecordBirth(species)
	}
	return pop
}

// decay applies the per-tick fitness loss to every member of pop, newborns
// included, then removes those at or below zero. Survivors keep their order.
func (s *Simulation) decay(pop []ecs.Entity, species components.Species) []ecs.Entity {
	loss := s.speciesConfig(species).FitnessLoss

	var dead []ecs.Entity
	survivors := pop[:0]
	for _, e := range pop {
		vit := s.vitMap.Get(e)
		vit.Fitness -= loss
		if vit.Fitness <= 0 {
			dead = append(dead, e)
			continue
		}
		survivors = append(survivors, e)
	}

	for _, e := range dead {
		s.world.RemoveEntity(e)
		s.collector.RecordDeath(species)
	}
	return survivors
}
