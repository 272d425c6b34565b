// Package telemetry records per-tick population summaries and exports them
// for the downstream merge and plotting tools.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/forestsim/components"
)

// Row is one tick of the population record stream.
type Row struct {
	Timestep int     `csv:"timestep"`
	NDeer    int     `csv:"n_deer"`
	NWolves  int     `csv:"n_wolves"`
	HRDeer   float64 `csv:"hr_deer"`   // mean home-range cell count, 0 if no deer
	HRWolves float64 `csv:"hr_wolves"` // mean home-range cell count, 0 if no wolves
}

// LogValue implements slog.LogValuer for structured logging.
func (r Row) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("timestep", r.Timestep),
		slog.Int("n_deer", r.NDeer),
		slog.Int("n_wolves", r.NWolves),
		slog.Float64("hr_deer", r.HRDeer),
		slog.Float64("hr_wolves", r.HRWolves),
	)
}

// EventRow counts demographic events during one tick.
type EventRow struct {
	Timestep   int `csv:"timestep"`
	DeerBorn   int `csv:"deer_born"`
	DeerDied   int `csv:"deer_died"`
	WolvesBorn int `csv:"wolves_born"`
	WolvesDied int `csv:"wolves_died"`
	Kills      int `csv:"kills"`
}

// TrackRow is one agent's state at the end of a tick.
type TrackRow struct {
	ID       uint64  `csv:"id"`
	Timestep int     `csv:"timestep"`
	X        int     `csv:"x"`
	Y        int     `csv:"y"`
	Fitness  float64 `csv:"fitness"`
}

// Census accumulates population counts and home-range sizes for one tick.
type Census struct {
	deer, wolves     int
	deerHR, wolvesHR int
}

// Add counts one live agent.
func (c *Census) Add(species components.Species, homeRangeSize int) {
	if species == components.SpeciesDeer {
		c.deer++
		c.deerHR += homeRangeSize
	} else {
		c.wolves++
		c.wolvesHR += homeRangeSize
	}
}

// Row converts the census into a record row. Empty species report 0.
func (c *Census) Row(tick int) Row {
	hrDeer, _ := MeanHomeRange(c.deerHR, c.deer)
	hrWolves, _ := MeanHomeRange(c.wolvesHR, c.wolves)
	return Row{
		Timestep: tick,
		NDeer:    c.deer,
		NWolves:  c.wolves,
		HRDeer:   hrDeer,
		HRWolves: hrWolves,
	}
}

// MeanHomeRange returns total/count. ok is false for an empty population,
// which has no range to average.
func MeanHomeRange(total, count int) (mean float64, ok bool) {
	if count == 0 {
		return 0, false
	}
	return float64(total) / float64(count), true
}

// Recorder keeps the in-memory record stream of a run.
// Export to disk happens once the run is over.
type Recorder struct {
	rows   []Row
	events []EventRow

	// Per-agent tracks, filled only when tracking is enabled.
	deerTracks []TrackRow
	wolfTracks []TrackRow
}

// NewRecorder creates a recorder sized for the given number of ticks.
func NewRecorder(ticks int) *Recorder {
	return &Recorder{
		rows:   make([]Row, 0, ticks+1),
		events: make([]EventRow, 0, ticks+1),
	}
}

// Record appends one tick.
func (r *Recorder) Record(row Row, events EventRow) {
	r.rows = append(r.rows, row)
	r.events = append(r.events, events)
}

// Track appends one agent position sample.
func (r *Recorder) Track(species components.Species, row TrackRow) {
	if species == components.SpeciesDeer {
		r.deerTracks = append(r.deerTracks, row)
	} else {
		r.wolfTracks = append(r.wolfTracks, row)
	}
}

// Tracks returns the recorded samples of a species.
func (r *Recorder) Tracks(species components.Species) []TrackRow {
	if species == components.SpeciesDeer {
		return r.deerTracks
	}
	return r.wolfTracks
}

// Rows returns the recorded population rows.
func (r *Recorder) Rows() []Row {
	return r.rows
}

// Events returns the recorded event rows.
func (r *Recorder) Events() []EventRow {
	return r.events
}

// Last returns the most recent row.
func (r *Recorder) Last() (Row, bool) {
	if len(r.rows) == 0 {
		return Row{}, false
	}
	return r.rows[len(r.rows)-1], true
}
