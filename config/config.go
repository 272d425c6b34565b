// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// A Config is built once per run and treated as read-only afterwards.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Landscape LandscapeConfig `yaml:"landscape"`
	Logging   LoggingConfig   `yaml:"logging"`
	Forest    ForestConfig    `yaml:"forest"`
	Deer      SpeciesConfig   `yaml:"deer"`
	Wolf      SpeciesConfig   `yaml:"wolf"`
	Predation PredationConfig `yaml:"predation"`
	Forage    ForageConfig    `yaml:"forage"`
	Output    OutputConfig    `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds run length, calendar and seeding parameters.
type SimConfig struct {
	Seed           int64   `yaml:"seed"`            // 0 = time-based (resolved by the caller)
	Years          int     `yaml:"years"`           // Simulation horizon in years
	YearLength     int     `yaml:"year_length"`     // Ticks per year
	WinterFraction float64 `yaml:"winter_fraction"` // Winter starts at this fraction of the year
	MonthLength    int     `yaml:"month_length"`    // Ticks between logging events
}

// LandscapeConfig holds grid parameters.
type LandscapeConfig struct {
	Size       int  `yaml:"size"`       // Grid is Size x Size cells
	Protection bool `yaml:"protection"` // Protect a block of columns from logging
}

// LoggingConfig holds logging pressure parameters.
type LoggingConfig struct {
	CellsPerMonth int `yaml:"cells_per_month"`
	StartYear     int `yaml:"start_year"` // Logging window start (inclusive)
	StopYear      int `yaml:"stop_year"`  // Logging window end (exclusive)
}

// ForestConfig holds nutrition and regrowth parameters.
type ForestConfig struct {
	OldGrowthBaseNutrition float64 `yaml:"old_growth_base_nutrition"`
	SeralBaseNutrition     float64 `yaml:"seral_base_nutrition"`      // Seral nutrition = this + ln(age+1)
	NewGrowthBaseNutrition float64 `yaml:"new_growth_base_nutrition"` // Closed-canopy nutrition
	SeralYears             int     `yaml:"seral_years"`               // Canopy closes after this many years

	SummerFactorOldGrowth float64 `yaml:"summer_factor_old_growth"`
	SummerFactorNewGrowth float64 `yaml:"summer_factor_new_growth"`
	WinterFactorOldGrowth float64 `yaml:"winter_factor_old_growth"`
	WinterFactorNewGrowth float64 `yaml:"winter_factor_new_growth"`
}

// SpeciesConfig holds the per-species life-history parameters.
// Deer and wolves share one movement and home-range implementation;
// these values are the only things that differ between them.
type SpeciesConfig struct {
	InitialCount   int     `yaml:"initial_count"`
	InitialFitness float64 `yaml:"initial_fitness"`
	FitnessLoss    float64 `yaml:"fitness_loss"`    // Linear decay per tick
	BirthThreshold float64 `yaml:"birth_threshold"` // Reproduce when fitness exceeds this
	BirthLoss      float64 `yaml:"birth_loss"`      // Fitness paid by the parent
	InitialRadius  int     `yaml:"initial_radius"`  // 0 = species default
	MaxRadius      int     `yaml:"max_radius"`      // 0 = species default
}

// PredationConfig holds wolf hunting parameters.
type PredationConfig struct {
	Efficiency   float64 `yaml:"efficiency"`     // Per-encounter kill probability
	GainFromDeer float64 `yaml:"gain_from_deer"` // Fitness reward per kill
	HuntRefresh  int     `yaml:"hunt_refresh"`   // Ticks between kills
}

// ForageConfig holds deer feeding parameters.
type ForageConfig struct {
	MaxFoodGain             float64 `yaml:"max_food_gain"`            // Per-tick intake cap
	UndernourishedThreshold float64 `yaml:"undernourished_threshold"` // Yearly mean intake below this expands the home range
}

// OutputConfig holds output parameters.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"` // Write .csv.zst instead of .csv
	Events   bool   `yaml:"events"`   // Also write events.csv
	Tracking bool   `yaml:"tracking"` // Also write per-tick agent positions
}

// RadiusRange holds resolved home-range radii for one species.
type RadiusRange struct {
	Initial int
	Max     int
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Ticks          int // Sim.Years * Sim.YearLength
	StartTick      int // First logging tick (inclusive)
	StopTick       int // Last logging tick (exclusive)
	WinterStart    int // Day of year winter begins
	SeralLength    int // Ticks until canopy closure
	MaxIndexRadius int // Largest radius the neighbor index holds
	LoggingEvents  int // Number of logging days inside the window
	DeerRadius     RadiusRange
	WolfRadius     RadiusRange
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded default configuration with derived values computed.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// MustDefaults is like Defaults but panics on error.
func MustDefaults() *Config {
	cfg, err := Defaults()
	if err != nil {
		panic(fmt.Sprintf("config: failed to load defaults: %v", err))
	}
	return cfg
}

// Finalize recomputes derived values and validates the result.
// Call it after mutating a Config by hand.
func (c *Config) Finalize() error {
	c.computeDerived()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	d := &c.Derived
	d.Ticks = c.Sim.Years * c.Sim.YearLength
	d.StartTick = c.Logging.StartYear * c.Sim.YearLength
	d.StopTick = c.Logging.StopYear * c.Sim.YearLength
	d.WinterStart = int(c.Sim.WinterFraction * float64(c.Sim.YearLength))
	d.SeralLength = c.Forest.SeralYears * c.Sim.YearLength

	d.MaxIndexRadius = c.Landscape.Size / 2
	if d.MaxIndexRadius < 1 {
		d.MaxIndexRadius = 1
	}

	d.LoggingEvents = 0
	for tick := d.StartTick; tick < d.StopTick; tick++ {
		if tick >= 1 && c.IsLoggingDay(c.DayOfYear(tick)) {
			d.LoggingEvents++
		}
	}

	d.DeerRadius = c.resolveRadius(c.Deer, 1, d.MaxIndexRadius)
	d.WolfRadius = c.resolveRadius(c.Wolf, int(math.Ceil(float64(c.Landscape.Size)/4)), d.MaxIndexRadius)
}

// resolveRadius fills species radius defaults and caps them at the indexed maximum.
func (c *Config) resolveRadius(s SpeciesConfig, defInitial, maxIndexed int) RadiusRange {
	r := RadiusRange{Initial: s.InitialRadius, Max: s.MaxRadius}
	if r.Initial <= 0 {
		r.Initial = defInitial
	}
	if r.Max <= 0 || r.Max > maxIndexed {
		r.Max = maxIndexed
	}
	if r.Initial < 1 {
		r.Initial = 1
	}
	if r.Initial > r.Max {
		r.Initial = r.Max
	}
	return r
}

// DayOfYear returns the 1-based calendar day for a 1-based tick.
func (c *Config) DayOfYear(tick int) int {
	if c.Sim.YearLength <= 0 {
		return 1
	}
	return (tick-1)%c.Sim.YearLength + 1
}

// IsSummer reports whether the given day of year falls before winter.
func (c *Config) IsSummer(day int) bool {
	return day < c.Derived.WinterStart
}

// IsYearEnd reports whether the given day is the last day of the year.
func (c *Config) IsYearEnd(day int) bool {
	return day == c.Sim.YearLength
}

// IsLoggingDay reports whether logging happens on this day of year.
// Logging happens on the first day of each month outside winter.
func (c *Config) IsLoggingDay(day int) bool {
	if c.Sim.MonthLength <= 0 {
		return false
	}
	winterStart := int(c.Sim.WinterFraction * float64(c.Sim.YearLength))
	return day <= winterStart && (day-1)%c.Sim.MonthLength == 0
}

// IsLoggingTick reports whether a logging event happens at the given tick.
func (c *Config) IsLoggingTick(tick int) bool {
	if tick < c.Derived.StartTick || tick >= c.Derived.StopTick {
		return false
	}
	return c.IsLoggingDay(c.DayOfYear(tick))
}

// Validate checks the configuration for values the simulator cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Landscape.Size >= 1, "landscape.size must be >= 1, got %d", c.Landscape.Size)
	check(c.Sim.Years >= 0, "sim.years must be >= 0, got %d", c.Sim.Years)
	check(c.Sim.YearLength >= 1, "sim.year_length must be >= 1, got %d", c.Sim.YearLength)
	check(c.Sim.MonthLength >= 1, "sim.month_length must be >= 1, got %d", c.Sim.MonthLength)
	check(c.Sim.WinterFraction > 0 && c.Sim.WinterFraction <= 1,
		"sim.winter_fraction must be in (0, 1], got %g", c.Sim.WinterFraction)
	check(c.Logging.CellsPerMonth >= 0, "logging.cells_per_month must be >= 0, got %d", c.Logging.CellsPerMonth)
	check(c.Logging.StartYear <= c.Logging.StopYear,
		"logging.start_year (%d) must not exceed logging.stop_year (%d)", c.Logging.StartYear, c.Logging.StopYear)
	check(c.Forest.SeralYears >= 0, "forest.seral_years must be >= 0, got %d", c.Forest.SeralYears)
	check(c.Forest.OldGrowthBaseNutrition >= 0, "forest.old_growth_base_nutrition must be >= 0")
	check(c.Forest.SeralBaseNutrition >= 0, "forest.seral_base_nutrition must be >= 0")
	check(c.Forest.NewGrowthBaseNutrition >= 0, "forest.new_growth_base_nutrition must be >= 0")
	check(c.Predation.Efficiency >= 0 && c.Predation.Efficiency <= 1,
		"predation.efficiency must be in [0, 1], got %g", c.Predation.Efficiency)
	check(c.Predation.HuntRefresh >= 0, "predation.hunt_refresh must be >= 0, got %d", c.Predation.HuntRefresh)
	check(c.Forage.MaxFoodGain >= 0, "forage.max_food_gain must be >= 0")

	for _, s := range []struct {
		name string
		sp   SpeciesConfig
	}{{"deer", c.Deer}, {"wolf", c.Wolf}} {
		check(s.sp.InitialCount >= 0, "%s.initial_count must be >= 0, got %d", s.name, s.sp.InitialCount)
		check(s.sp.InitialFitness > 0, "%s.initial_fitness must be > 0, got %g", s.name, s.sp.InitialFitness)
		check(s.sp.FitnessLoss >= 0, "%s.fitness_loss must be >= 0, got %g", s.name, s.sp.FitnessLoss)
		check(s.sp.BirthLoss >= 0, "%s.birth_loss must be >= 0, got %g", s.name, s.sp.BirthLoss)
	}

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// params maps sweepable parameter names to setters.
// Integer parameters are truncated.
var params = map[string]func(c *Config, v float64){
	"cells_per_month":       func(c *Config, v float64) { c.Logging.CellsPerMonth = int(v) },
	"predation_efficiency":  func(c *Config, v float64) { c.Predation.Efficiency = v },
	"gain_from_deer":        func(c *Config, v float64) { c.Predation.GainFromDeer = v },
	"hunt_refresh":          func(c *Config, v float64) { c.Predation.HuntRefresh = int(v) },
	"max_food_gain":         func(c *Config, v float64) { c.Forage.MaxFoodGain = v },
	"deer_initial_count":    func(c *Config, v float64) { c.Deer.InitialCount = int(v) },
	"deer_birth_threshold":  func(c *Config, v float64) { c.Deer.BirthThreshold = v },
	"deer_birth_loss":       func(c *Config, v float64) { c.Deer.BirthLoss = v },
	"deer_fitness_loss":     func(c *Config, v float64) { c.Deer.FitnessLoss = v },
	"wolf_initial_count":    func(c *Config, v float64) { c.Wolf.InitialCount = int(v) },
	"wolf_birth_threshold":  func(c *Config, v float64) { c.Wolf.BirthThreshold = v },
	"wolf_birth_loss":       func(c *Config, v float64) { c.Wolf.BirthLoss = v },
	"wolf_fitness_loss":     func(c *Config, v float64) { c.Wolf.FitnessLoss = v },
	"seral_years":           func(c *Config, v float64) { c.Forest.SeralYears = int(v) },
	"old_growth_nutrition":  func(c *Config, v float64) { c.Forest.OldGrowthBaseNutrition = v },
	"new_growth_nutrition":  func(c *Config, v float64) { c.Forest.NewGrowthBaseNutrition = v },
	"winter_factor_old":     func(c *Config, v float64) { c.Forest.WinterFactorOldGrowth = v },
	"winter_factor_new":     func(c *Config, v float64) { c.Forest.WinterFactorNewGrowth = v },
	"landscape_size":        func(c *Config, v float64) { c.Landscape.Size = int(v) },
	"years":                 func(c *Config, v float64) { c.Sim.Years = int(v) },
}

// SetParam sets a named sweep parameter and recomputes derived values.
// It does not validate; call Finalize once all parameters are set.
func (c *Config) SetParam(name string, value float64) error {
	set, ok := params[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	set(c, value)
	c.computeDerived()
	return nil
}

// ParamNames returns the sorted list of sweepable parameter names.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
