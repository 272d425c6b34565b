package main

import (
	"fmt"

	"github.com/pthm-cable/forestsim/config"
)

// ParamSpec defines a single calibrated parameter.
type ParamSpec struct {
	Name    string  // config.SetParam name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all calibrated parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibrated parameters.
// Logging pressure and protection are the experiment's treatment and stay fixed.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Predation
			{Name: "predation_efficiency", Min: 0.02, Max: 0.5, Default: 0.16},
			{Name: "gain_from_deer", Min: 4, Max: 30, Default: 12},
			{Name: "hunt_refresh", Min: 1, Max: 20, Default: 7},
			// Forage
			{Name: "max_food_gain", Min: 1, Max: 4, Default: 2},
			// Reproduction
			{Name: "deer_birth_threshold", Min: 40, Max: 100, Default: 60},
			{Name: "deer_birth_loss", Min: 10, Max: 40, Default: 30},
			{Name: "wolf_birth_threshold", Min: 60, Max: 200, Default: 100},
			{Name: "wolf_birth_loss", Min: 20, Max: 80, Default: 50},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig sets the clamped values on cfg and re-validates it.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	for i, v := range pv.Clamp(values) {
		if err := cfg.SetParam(pv.Specs[i].Name, v); err != nil {
			return err
		}
	}
	if err := cfg.Finalize(); err != nil {
		return fmt.Errorf("calibrated config: %w", err)
	}
	return nil
}
