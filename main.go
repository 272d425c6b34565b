package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/game"
	"github.com/pthm-cable/forestsim/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, or time-based if that is 0 too)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV streams and config snapshot (empty = config output.dir)")
	protect := flag.Bool("protect", false, "Enable the column protection policy")
	compress := flag.Bool("compress", false, "Write zstd-compressed CSV streams")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	perf := flag.Bool("perf", false, "Log and write per-year step timings")
	snapshot := flag.Bool("snapshot", false, "Write the final landscape and agents as JSON")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *protect {
		cfg.Landscape.Protection = true
	}
	if *compress {
		cfg.Output.Compress = true
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Sim.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	cfg.Sim.Seed = rngSeed

	om, err := telemetry.NewOutputManager(cfg.Output.Dir, cfg.Output.Compress)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	var perfCollector *telemetry.PerfCollector
	if *perf {
		perfCollector = telemetry.NewPerfCollector(cfg.Sim.YearLength)
	}

	opts := game.Options{
		Seed:   rngSeed,
		Logger: logger,
		Perf:   perfCollector,
		OnYear: func(year int, row telemetry.Row) {
			slog.Info("year complete", "year", year, "row", row)
			if perfCollector == nil {
				return
			}
			stats := perfCollector.Stats()
			slog.Info("perf", "year", year, "stats", stats)
			if err := om.WritePerf(stats, row.Timestep); err != nil {
				slog.Error("failed to write perf", "error", err)
			}
		},
	}

	sim, err := game.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := sim.Run(ctx)
	if runErr != nil {
		slog.Error("run aborted", "tick", sim.Tick(), "error", runErr)
	}

	// Rows recorded so far are written even for an aborted run.
	rows := sim.Recorder().Rows()
	if path, err := om.WriteRows(rows); err != nil {
		slog.Error("failed to write rows", "error", err)
	} else if path != "" {
		slog.Info("rows written", "path", path, "rows", len(rows))
	}
	if cfg.Output.Events {
		if _, err := om.WriteEvents(sim.Recorder().Events()); err != nil {
			slog.Error("failed to write events", "error", err)
		}
	}

	if cfg.Output.Tracking {
		for _, species := range []components.Species{components.SpeciesDeer, components.SpeciesWolf} {
			if _, err := om.WriteTracking(species, sim.Recorder().Tracks(species)); err != nil {
				slog.Error("failed to write tracks", "species", species.String(), "error", err)
			}
		}
	}

	summary := telemetry.Summarize(rows)
	slog.Info("summary", "summary", summary)
	if err := om.WriteSummary(summary); err != nil {
		slog.Error("failed to write summary", "error", err)
	}

	if *snapshot && om != nil {
		path, err := telemetry.SaveSnapshot(sim.Snapshot(), om.Dir())
		if err != nil {
			slog.Error("failed to write snapshot", "error", err)
		} else {
			slog.Info("snapshot written", "path", path)
		}
	}

	if runErr != nil {
		om.Close()
		os.Exit(1)
	}
}
