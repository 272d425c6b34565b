package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/systems"
	"github.com/pthm-cable/forestsim/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, years int) *config.Config {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("config.Defaults: %v", err)
	}
	cfg.Sim.Years = years
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

func newSim(t *testing.T, cfg *config.Config, seed int64) *Simulation {
	t.Helper()
	sim, err := New(cfg, Options{Seed: seed, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sim
}

func TestInitialRow(t *testing.T) {
	cfg := testConfig(t, 1)
	sim := newSim(t, cfg, 1)

	row, ok := sim.Recorder().Last()
	if !ok {
		t.Fatal("no initial row recorded")
	}
	if row.Timestep != 0 || row.NDeer != 180 || row.NWolves != 10 {
		t.Errorf("initial row = %+v", row)
	}
	// Interior deer have a radius-1 range of 9 cells; edge and corner ranges are smaller.
	if row.HRDeer <= 3 || row.HRDeer > 9 {
		t.Errorf("HRDeer = %v, want in (3, 9]", row.HRDeer)
	}
	if err := sim.CheckInvariants(); err != nil {
		t.Errorf("invariants after spawn: %v", err)
	}
}

func TestInvariantsHoldThroughLogging(t *testing.T) {
	cfg := testConfig(t, 7) // covers the year-5 logging window and two yearly reviews after it
	sim := newSim(t, cfg, 7)

	for !sim.Done() {
		if err := sim.Step(); err != nil {
			t.Fatalf("tick %d: %v", sim.Tick(), err)
		}
		if err := sim.CheckInvariants(); err != nil {
			t.Fatalf("tick %d: %v", sim.Tick(), err)
		}
		row, _ := sim.Recorder().Last()
		if row.NDeer != sim.Population(components.SpeciesDeer) || row.NWolves != sim.Population(components.SpeciesWolf) {
			t.Fatalf("tick %d: row %+v disagrees with populations", sim.Tick(), row)
		}
	}

	rows := sim.Recorder().Rows()
	if len(rows) != cfg.Derived.Ticks+1 {
		t.Fatalf("recorded %d rows, want %d", len(rows), cfg.Derived.Ticks+1)
	}
	for i, r := range rows {
		if r.Timestep != i {
			t.Fatalf("row %d has timestep %d", i, r.Timestep)
		}
	}

	want := cfg.Logging.CellsPerMonth * cfg.Derived.LoggingEvents
	if got := sim.Landscape().LoggedCount(); got != want {
		t.Errorf("LoggedCount = %d, want %d", got, want)
	}
	if err := sim.Step(); !errors.Is(err, ErrFinished) {
		t.Errorf("Step past horizon = %v, want ErrFinished", err)
	}
}

func TestDeterministicForSeed(t *testing.T) {
	cfg := testConfig(t, 2)

	a := newSim(t, cfg, 42)
	b := newSim(t, cfg, 42)
	if err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	ra, rb := a.Recorder().Rows(), b.Recorder().Rows()
	for i := range ra {
		if ra[i] != rb[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, ra[i], rb[i])
		}
	}
	ea, eb := a.Recorder().Events(), b.Recorder().Events()
	for i := range ea {
		if ea[i] != eb[i] {
			t.Fatalf("events %d differ: %+v vs %+v", i, ea[i], eb[i])
		}
	}
}

func TestNoKillsWithZeroEfficiency(t *testing.T) {
	cfg := testConfig(t, 3)
	cfg.Predation.Efficiency = 0
	sim := newSim(t, cfg, 3)

	for i := 0; i < 1000; i++ {
		if err := sim.Step(); err != nil {
			t.Fatal(err)
		}
	}

	for _, ev := range sim.Recorder().Events() {
		if ev.Kills != 0 {
			t.Fatalf("tick %d: %d kills with zero efficiency", ev.Timestep, ev.Kills)
		}
	}

	// Without prey wolves only decay: 50 fitness at 1 per tick.
	rows := sim.Recorder().Rows()
	if rows[49].NWolves != cfg.Wolf.InitialCount {
		t.Errorf("wolves at tick 49 = %d, want %d", rows[49].NWolves, cfg.Wolf.InitialCount)
	}
	if rows[50].NWolves != 0 {
		t.Errorf("wolves at tick 50 = %d, want 0", rows[50].NWolves)
	}
}

func TestDeerOnlyBaseline(t *testing.T) {
	run := func(efficiency float64) []telemetry.Row {
		cfg := testConfig(t, 2)
		cfg.Wolf.InitialCount = 0
		cfg.Deer.BirthThreshold = 1e9
		cfg.Predation.Efficiency = efficiency
		sim := newSim(t, cfg, 11)
		if err := sim.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		for _, ev := range sim.Recorder().Events() {
			if ev.DeerBorn != 0 || ev.Kills != 0 || ev.WolvesBorn != 0 {
				t.Fatalf("tick %d: unexpected events %+v", ev.Timestep, ev)
			}
		}
		return sim.Recorder().Rows()
	}

	rows := run(0)
	for i := 1; i < len(rows); i++ {
		if rows[i].NWolves != 0 {
			t.Fatalf("tick %d: wolves appeared", i)
		}
		if rows[i].NDeer > rows[i-1].NDeer {
			t.Fatalf("tick %d: deer grew from %d to %d without reproduction", i, rows[i-1].NDeer, rows[i].NDeer)
		}
	}

	// Predation parameters are irrelevant without wolves.
	other := run(1)
	for i := range rows {
		if rows[i] != other[i] {
			t.Fatalf("row %d differs with predation efficiency changed: %+v vs %+v", i, rows[i], other[i])
		}
	}
}

func TestOverdrawAbortsRun(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Logging.StartYear = 0
	cfg.Logging.StopYear = 1
	cfg.Logging.CellsPerMonth = 100 // the second logging day finds only 21 cells
	if err := cfg.Finalize(); err != nil {
		t.Fatal(err)
	}
	sim := newSim(t, cfg, 5)

	err := sim.Run(context.Background())
	var cfgErr *systems.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Run error = %v, want *systems.ConfigurationError", err)
	}
	if cfgErr.Requested != 100 || cfgErr.Available != 21 {
		t.Errorf("error = %+v, want requested 100, available 21", cfgErr)
	}
	if sim.Tick() != 31 {
		t.Errorf("aborted at tick %d, want 31", sim.Tick())
	}
}

func TestRunHonoursContext(t *testing.T) {
	cfg := testConfig(t, 1)
	sim := newSim(t, cfg, 9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sim.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if sim.Tick() != 0 {
		t.Errorf("ran %d ticks after cancellation", sim.Tick())
	}
}

func TestYearCallbackAndPerf(t *testing.T) {
	cfg := testConfig(t, 2)
	perf := telemetry.NewPerfCollector(cfg.Sim.YearLength)

	var years []int
	sim, err := New(cfg, Options{
		Seed:   4,
		Logger: quietLogger(),
		Perf:   perf,
		OnYear: func(year int, row telemetry.Row) {
			years = append(years, year)
			if row.Timestep != year*cfg.Sim.YearLength {
				t.Errorf("year %d reported at tick %d", year, row.Timestep)
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(years) != 2 || years[0] != 1 || years[1] != 2 {
		t.Errorf("year callbacks = %v, want [1 2]", years)
	}
	if stats := perf.Stats(); stats.AvgTickDuration <= 0 {
		t.Error("expected step timings to be collected")
	}
}

func TestSnapshotMatchesPopulation(t *testing.T) {
	cfg := testConfig(t, 1)
	sim := newSim(t, cfg, 2)
	for i := 0; i < 100; i++ {
		if err := sim.Step(); err != nil {
			t.Fatal(err)
		}
	}

	snap := sim.Snapshot()
	if snap.Tick != 100 || snap.Seed != 2 {
		t.Errorf("snapshot header = tick %d seed %d", snap.Tick, snap.Seed)
	}
	if len(snap.Cells) != cfg.Landscape.Size*cfg.Landscape.Size {
		t.Errorf("snapshot has %d cells", len(snap.Cells))
	}
	if snap.Count("deer") != sim.Population(components.SpeciesDeer) {
		t.Errorf("snapshot deer = %d, population = %d", snap.Count("deer"), sim.Population(components.SpeciesDeer))
	}
	if snap.Count("wolf") != sim.Population(components.SpeciesWolf) {
		t.Errorf("snapshot wolves = %d, population = %d", snap.Count("wolf"), sim.Population(components.SpeciesWolf))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Predation.Efficiency = 2
	if _, err := New(cfg, Options{Logger: quietLogger()}); err == nil {
		t.Fatal("expected error for invalid config")
	}
}
