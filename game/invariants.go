package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/systems"
)

// CheckInvariants verifies the state a completed tick must leave behind.
// It returns every violation found, joined.
func (s *Simulation) CheckInvariants() error {
	var errs []error

	for _, c := range s.landscape.Cells() {
		if !math.IsNaN(c.Nutrition) && c.Nutrition < 0 {
			errs = append(errs, fmt.Errorf("cell %v: negative nutrition %g", c.Pos, c.Nutrition))
		}
		if c.State == systems.OldGrowth && c.Age != 0 {
			errs = append(errs, fmt.Errorf("cell %v: old growth with age %d", c.Pos, c.Age))
		}
		if c.Age < 0 {
			errs = append(errs, fmt.Errorf("cell %v: negative age %d", c.Pos, c.Age))
		}
	}

	errs = append(errs, s.checkPopulation(s.deer, components.SpeciesDeer)...)
	errs = append(errs, s.checkPopulation(s.wolves, components.SpeciesWolf)...)

	n := 0
	query := s.agentFilter.Query()
	for query.Next() {
		n++
	}
	if n != len(s.deer)+len(s.wolves) {
		errs = append(errs, fmt.Errorf("world holds %d agents, populations hold %d", n, len(s.deer)+len(s.wolves)))
	}
	return errors.Join(errs...)
}

func (s *Simulation) checkPopulation(pop []ecs.Entity, species components.Species) []error {
	var errs []error
	var lastID uint64
	for _, e := range pop {
		if !s.world.Alive(e) {
			errs = append(errs, fmt.Errorf("%s: removed entity still in population", species))
			continue
		}
		id := s.idMap.Get(e)
		pos := s.posMap.Get(e)
		vit := s.vitMap.Get(e)
		hr := s.hrMap.Get(e)

		if id.Species != species {
			errs = append(errs, fmt.Errorf("agent %d: species %s in %s population", id.ID, id.Species, species))
		}
		if id.ID <= lastID {
			errs = append(errs, fmt.Errorf("agent %d: out of insertion order after %d", id.ID, lastID))
		}
		lastID = id.ID

		if vit.Fitness <= 0 {
			errs = append(errs, fmt.Errorf("agent %d: alive with fitness %g", id.ID, vit.Fitness))
		}
		if !hr.Contains(*pos) {
			errs = append(errs, fmt.Errorf("agent %d: position %v outside home range", id.ID, *pos))
		}
		if len(hr.Memory) != len(hr.Cells) {
			errs = append(errs, fmt.Errorf("agent %d: %d memory entries for %d cells", id.ID, len(hr.Memory), len(hr.Cells)))
		}
	}
	return errs
}
