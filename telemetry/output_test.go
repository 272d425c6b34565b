package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
)

func sampleRows() []Row {
	return []Row{
		{Timestep: 0, NDeer: 180, NWolves: 10, HRDeer: 8.5, HRWolves: 48.25},
		{Timestep: 1, NDeer: 180, NWolves: 10, HRDeer: 8.5, HRWolves: 48.25},
		{Timestep: 2, NDeer: 181, NWolves: 9, HRDeer: 8.75, HRWolves: 0},
	}
}

func TestRowsRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		om, err := NewOutputManager(t.TempDir(), compress)
		if err != nil {
			t.Fatal(err)
		}
		path, err := om.WriteRows(sampleRows())
		if err != nil {
			t.Fatalf("WriteRows: %v", err)
		}
		if strings.HasSuffix(path, ".zst") != compress {
			t.Errorf("path %q does not match compress=%v", path, compress)
		}

		got, err := ReadRows(path)
		if err != nil {
			t.Fatalf("ReadRows: %v", err)
		}
		want := sampleRows()
		if len(got) != len(want) {
			t.Fatalf("read %d rows, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	}
}

func TestRowsHeader(t *testing.T) {
	om, err := NewOutputManager(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	path, err := om.WriteRows(sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	if header != "timestep,n_deer,n_wolves,hr_deer,hr_wolves" {
		t.Errorf("header = %q", header)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("", false)
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	if _, err := om.WriteRows(sampleRows()); err != nil {
		t.Errorf("nil manager WriteRows: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil manager Close: %v", err)
	}
}

func TestOutputManagerArtefacts(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	if err := om.WriteConfig(config.MustDefaults()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if _, err := om.WriteEvents([]EventRow{{Timestep: 1, Kills: 2}}); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if err := om.WriteSummary(Summarize(sampleRows())); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 360); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 720); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}

	for _, name := range []string{ConfigFile, EventsFile, SummaryFile, PerfFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	events, err := ReadCSV[EventRow](filepath.Join(dir, EventsFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Kills != 2 {
		t.Errorf("events = %+v", events)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(2)
	if _, ok := r.Last(); ok {
		t.Error("empty recorder reported a last row")
	}
	for _, row := range sampleRows() {
		r.Record(row, EventRow{Timestep: row.Timestep})
	}
	if len(r.Rows()) != 3 || len(r.Events()) != 3 {
		t.Fatalf("rows=%d events=%d, want 3", len(r.Rows()), len(r.Events()))
	}
	last, ok := r.Last()
	if !ok || last.Timestep != 2 {
		t.Errorf("Last = %+v, %v", last, ok)
	}
}

func TestWriteTracking(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, true)
	if err != nil {
		t.Fatal(err)
	}

	rec := NewRecorder(2)
	rec.Track(components.SpeciesWolf, TrackRow{ID: 181, Timestep: 0, X: 3, Y: 4, Fitness: 50})
	rec.Track(components.SpeciesWolf, TrackRow{ID: 181, Timestep: 1, X: 3, Y: 5, Fitness: 49})
	rec.Track(components.SpeciesDeer, TrackRow{ID: 1, Timestep: 0, X: 0, Y: 0, Fitness: 30})

	path, err := om.WriteTracking(components.SpeciesWolf, rec.Tracks(components.SpeciesWolf))
	if err != nil {
		t.Fatalf("WriteTracking: %v", err)
	}
	if want := filepath.Join(dir, "wolf_tracking.csv.zst"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	got, err := ReadCSV[TrackRow](path)
	if err != nil {
		t.Fatal(err)
	}
	want := rec.Tracks(components.SpeciesWolf)
	if len(got) != len(want) || got[1] != want[1] {
		t.Errorf("read %+v, want %+v", got, want)
	}
	if n := len(rec.Tracks(components.SpeciesDeer)); n != 1 {
		t.Errorf("deer tracks = %d, want 1", n)
	}
}
