// Package main runs a parameter sweep of independent simulations and writes
// one record stream per (scenario, value, run) plus a sqlite run index.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pthm-cable/forestsim/batch"
	"github.com/pthm-cable/forestsim/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	scenario := flag.String("scenario", "base", "Scenario name (first directory level)")
	param := flag.String("param", "cells_per_month", "Parameter to sweep: "+strings.Join(config.ParamNames(), ", "))
	values := flag.String("values", "0,2,4,6,8", "Comma-separated parameter values")
	runs := flag.Int("runs", 10, "Runs per value")
	workers := flag.Int("workers", runtime.NumCPU(), "Parallel runs")
	seed := flag.Int64("seed", 0, "Base seed; run i uses seed+i+1")
	outputDir := flag.String("output", "", "Output root directory")
	protect := flag.Bool("protect", false, "Enable the column protection policy")
	compress := flag.Bool("compress", false, "Write zstd-compressed CSV streams")
	logLevel := flag.String("log-level", "warn", "Per-run log level: debug, info, warn, error")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *protect {
		cfg.Landscape.Protection = true
	}

	vals, err := batch.ParseValues(*values)
	if err != nil {
		slog.Error("invalid --values", "error", err)
		os.Exit(1)
	}
	jobs, err := batch.Plan(*scenario, *param, vals, *runs, *seed)
	if err != nil {
		slog.Error("invalid --param", "error", err)
		os.Exit(1)
	}

	layout := batch.Layout{Root: *outputDir, Compress: *compress}
	if err := os.MkdirAll(layout.Root, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if err := cfg.WriteYAML(filepath.Join(layout.Root, "config_"+*scenario+".yaml")); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	idx, err := batch.OpenIndex(layout.IndexPath())
	if err != nil {
		slog.Error("failed to open run index", "error", err)
		os.Exit(1)
	}
	defer idx.Close()

	// Per-run simulation logs are quieter than the batch progress log.
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelWarn
	}
	runLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	runner := &batch.Runner{
		Base:      cfg,
		Layout:    layout,
		Workers:   *workers,
		Index:     idx,
		Logger:    logger,
		SimLogger: runLogger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting batch",
		"scenario", *scenario,
		"param", *param,
		"values", vals,
		"runs", *runs,
		"workers", *workers,
		"protection", cfg.Landscape.Protection,
	)
	start := time.Now()

	results, err := runner.Run(ctx, jobs)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	slog.Info("batch finished",
		"jobs", len(jobs),
		"failed", failed,
		"elapsed", time.Since(start).Round(time.Second).String(),
	)
	if err != nil {
		slog.Error("batch aborted", "error", err)
		os.Exit(1)
	}

	persistence, err := idx.Persistence(*scenario)
	if err != nil {
		slog.Error("failed to read run index", "error", err)
		os.Exit(1)
	}
	for _, v := range vals {
		slog.Info("persistence", "param", *param, "value", v, "fraction", persistence[v])
	}
	if failed > 0 {
		os.Exit(1)
	}
}
