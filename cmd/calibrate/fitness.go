package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/game"
	"github.com/pthm-cable/forestsim/telemetry"
)

// FitnessEvaluator runs simulations over a fixed seed set and scores how well
// a parameter vector keeps both species alive.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Seeds run in parallel; an invalid vector scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return math.Inf(1)
	}

	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			summary, err := fe.runSimulation(cfg, s)
			if err != nil {
				results[idx] = seedResult{fitness: math.Inf(1)}
				return
			}
			results[idx] = seedResult{
				fitness: computeFitness(summary, cfg.Derived.Ticks),
				quality: computeQuality(summary),
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality float64
	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes one full run. cfg is shared read-only between seeds.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (telemetry.Summary, error) {
	sim, err := game.New(cfg, game.Options{Seed: seed, Logger: fe.logger})
	if err != nil {
		return telemetry.Summary{}, err
	}
	if err := sim.Run(context.Background()); err != nil {
		return telemetry.Summary{}, err
	}
	return telemetry.Summarize(sim.Recorder().Rows()), nil
}

// survivalTicks returns the first tick at which either species died out, or
// the horizon if both persisted.
func survivalTicks(s telemetry.Summary, horizon int) int {
	survival := horizon
	for _, at := range []int{s.DeerExtinctAt, s.WolvesExtinctAt} {
		if at >= 0 && at < survival {
			survival = at
		}
	}
	return survival
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality separates runs with equal survival.
func computeFitness(s telemetry.Summary, horizon int) float64 {
	return -(float64(survivalTicks(s, horizon)) * (1.0 + 0.2*computeQuality(s)))
}

// computeQuality scores population stability in [0, 1]: 1 for constant
// populations, falling with the coefficients of variation of both species.
func computeQuality(s telemetry.Summary) float64 {
	if s.MeanDeer == 0 || s.MeanWolves == 0 {
		return 0
	}
	cvDeer := s.StdDeer / s.MeanDeer
	cvWolves := s.StdWolves / s.MeanWolves
	return s.Coexistence * math.Exp(-(cvDeer*cvDeer + cvWolves*cvWolves))
}
