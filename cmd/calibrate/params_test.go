package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/telemetry"
)

func TestParamVectorNormalize(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()

	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: round trip %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}

	for i, spec := range pv.Specs {
		if spec.Default < spec.Min || spec.Default > spec.Max {
			t.Errorf("%s: default %v outside [%v, %v]", spec.Name, spec.Default, spec.Min, spec.Max)
		}
		if n := pv.Normalize(def)[i]; n < 0 || n > 1 {
			t.Errorf("%s: normalized default %v", spec.Name, n)
		}
	}
}

func TestApplyToConfig(t *testing.T) {
	pv := NewParamVector()
	cfg := config.MustDefaults()

	x := pv.DefaultVector()
	x[0] = 5 // predation_efficiency, clamped to 0.5
	if err := pv.ApplyToConfig(cfg, x); err != nil {
		t.Fatalf("ApplyToConfig: %v", err)
	}
	if cfg.Predation.Efficiency != 0.5 {
		t.Errorf("Efficiency = %v, want 0.5", cfg.Predation.Efficiency)
	}
	if cfg.Predation.HuntRefresh != 7 {
		t.Errorf("HuntRefresh = %d, want 7", cfg.Predation.HuntRefresh)
	}
}

func TestComputeFitness(t *testing.T) {
	persisted := telemetry.Summary{
		DeerExtinctAt: -1, WolvesExtinctAt: -1,
		MeanDeer: 100, StdDeer: 0, MeanWolves: 10, StdWolves: 0,
		Coexistence: 1,
	}
	collapsed := persisted
	collapsed.WolvesExtinctAt = 400
	collapsed.Coexistence = 0.2

	if got := survivalTicks(persisted, 1000); got != 1000 {
		t.Errorf("survival of persisting run = %d, want 1000", got)
	}
	if got := survivalTicks(collapsed, 1000); got != 400 {
		t.Errorf("survival of collapsed run = %d, want 400", got)
	}
	if q := computeQuality(persisted); math.Abs(q-1) > 1e-9 {
		t.Errorf("quality of constant populations = %v, want 1", q)
	}
	if computeFitness(persisted, 1000) >= computeFitness(collapsed, 1000) {
		t.Error("persisting run should score lower (better) than collapsed run")
	}
}
