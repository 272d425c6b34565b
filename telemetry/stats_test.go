package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/forestsim/components"
)

func TestMeanHomeRange(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		count  int
		want   float64
		wantOK bool
	}{
		{"empty species", 0, 0, 0, false},
		{"single agent", 9, 1, 9, true},
		{"mixed sizes", 9 + 25, 2, 17, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MeanHomeRange(tt.total, tt.count)
			if ok != tt.wantOK || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MeanHomeRange(%d, %d) = (%v, %v), want (%v, %v)",
					tt.total, tt.count, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCensusRow(t *testing.T) {
	var c Census
	c.Add(components.SpeciesDeer, 9)
	c.Add(components.SpeciesDeer, 4)
	c.Add(components.SpeciesDeer, 5)

	row := c.Row(7)
	if row.Timestep != 7 || row.NDeer != 3 || row.NWolves != 0 {
		t.Fatalf("row = %+v", row)
	}
	if row.HRDeer != 6 {
		t.Errorf("HRDeer = %v, want 6", row.HRDeer)
	}
	// No wolves: the mean is undefined and stored as 0.
	if row.HRWolves != 0 {
		t.Errorf("HRWolves = %v, want 0", row.HRWolves)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector()
	c.RecordBirth(components.SpeciesDeer)
	c.RecordBirth(components.SpeciesDeer)
	c.RecordBirth(components.SpeciesWolf)
	c.RecordDeath(components.SpeciesDeer)
	c.RecordDeath(components.SpeciesWolf)
	c.RecordKill()

	got := c.Flush(12)
	want := EventRow{Timestep: 12, DeerBorn: 2, DeerDied: 1, WolvesBorn: 1, WolvesDied: 1, Kills: 1}
	if got != want {
		t.Errorf("Flush = %+v, want %+v", got, want)
	}
	if again := c.Flush(13); again != (EventRow{Timestep: 13}) {
		t.Errorf("counters not reset: %+v", again)
	}
}

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Timestep: 0, NDeer: 10, NWolves: 2, HRDeer: 9, HRWolves: 25},
		{Timestep: 1, NDeer: 12, NWolves: 1, HRDeer: 9, HRWolves: 25},
		{Timestep: 2, NDeer: 14, NWolves: 0, HRDeer: 12},
		{Timestep: 3, NDeer: 16, NWolves: 0, HRDeer: 12},
	}

	s := Summarize(rows)
	if s.Ticks != 3 || s.FinalDeer != 16 || s.FinalWolves != 0 {
		t.Errorf("final state = %+v", s)
	}
	if s.DeerExtinctAt != -1 {
		t.Errorf("DeerExtinctAt = %d, want -1", s.DeerExtinctAt)
	}
	if s.WolvesExtinctAt != 2 {
		t.Errorf("WolvesExtinctAt = %d, want 2", s.WolvesExtinctAt)
	}
	if math.Abs(s.MeanDeer-13) > 1e-9 {
		t.Errorf("MeanDeer = %v, want 13", s.MeanDeer)
	}
	// Sample standard deviation of 10, 12, 14, 16.
	if math.Abs(s.StdDeer-math.Sqrt(20.0/3)) > 1e-9 {
		t.Errorf("StdDeer = %v, want %v", s.StdDeer, math.Sqrt(20.0/3))
	}
	if math.Abs(s.MeanHRDeer-10.5) > 1e-9 {
		t.Errorf("MeanHRDeer = %v, want 10.5", s.MeanHRDeer)
	}
	if s.MeanHRWolves != 25 {
		t.Errorf("MeanHRWolves = %v, want 25", s.MeanHRWolves)
	}
	if s.Coexistence != 0.5 {
		t.Errorf("Coexistence = %v, want 0.5", s.Coexistence)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.DeerExtinctAt != -1 || s.WolvesExtinctAt != -1 || s.MeanDeer != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}
