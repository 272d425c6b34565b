package telemetry

import "github.com/pthm-cable/forestsim/components"

// Collector accumulates birth, death and kill events within one tick and
// produces an EventRow.
type Collector struct {
	deerBorn   int
	deerDied   int
	wolvesBorn int
	wolvesDied int
	kills      int
}

// NewCollector creates a new event collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordBirth records a birth event.
func (c *Collector) RecordBirth(species components.Species) {
	if species == components.SpeciesDeer {
		c.deerBorn++
	} else {
		c.wolvesBorn++
	}
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath(species components.Species) {
	if species == components.SpeciesDeer {
		c.deerDied++
	} else {
		c.wolvesDied++
	}
}

// RecordKill records a successful predation.
func (c *Collector) RecordKill() {
	c.kills++
}

// Flush produces the EventRow for the given tick and resets counters.
func (c *Collector) Flush(tick int) EventRow {
	row := EventRow{
		Timestep:   tick,
		DeerBorn:   c.deerBorn,
		DeerDied:   c.deerDied,
		WolvesBorn: c.wolvesBorn,
		WolvesDied: c.wolvesDied,
		Kills:      c.kills,
	}
	*c = Collector{}
	return row
}
