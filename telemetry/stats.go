package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// Summary condenses one run's record stream into the figures the batch index
// and the calibrator compare across runs.
type Summary struct {
	Ticks int `json:"ticks" db:"ticks"`

	FinalDeer   int `json:"final_deer" db:"final_deer"`
	FinalWolves int `json:"final_wolves" db:"final_wolves"`

	// First tick at which the species count reached zero; -1 if it persisted.
	DeerExtinctAt   int `json:"deer_extinct_at" db:"deer_extinct_at"`
	WolvesExtinctAt int `json:"wolves_extinct_at" db:"wolves_extinct_at"`

	MeanDeer   float64 `json:"mean_deer" db:"mean_deer"`
	StdDeer    float64 `json:"std_deer" db:"std_deer"`
	MeanWolves float64 `json:"mean_wolves" db:"mean_wolves"`
	StdWolves  float64 `json:"std_wolves" db:"std_wolves"`

	// Mean of hr_* over ticks where the species was present.
	MeanHRDeer   float64 `json:"mean_hr_deer" db:"mean_hr_deer"`
	MeanHRWolves float64 `json:"mean_hr_wolves" db:"mean_hr_wolves"`

	// Fraction of recorded ticks with both species alive.
	Coexistence float64 `json:"coexistence" db:"coexistence"`
}

// Summarize computes a Summary over rows. Row 0 is included.
func Summarize(rows []Row) Summary {
	s := Summary{DeerExtinctAt: -1, WolvesExtinctAt: -1}
	if len(rows) == 0 {
		return s
	}

	deer := make([]float64, len(rows))
	wolves := make([]float64, len(rows))
	var hrDeer, hrWolves []float64
	both := 0
	for i, r := range rows {
		deer[i] = float64(r.NDeer)
		wolves[i] = float64(r.NWolves)
		if r.NDeer > 0 {
			hrDeer = append(hrDeer, r.HRDeer)
		} else if s.DeerExtinctAt < 0 {
			s.DeerExtinctAt = r.Timestep
		}
		if r.NWolves > 0 {
			hrWolves = append(hrWolves, r.HRWolves)
		} else if s.WolvesExtinctAt < 0 {
			s.WolvesExtinctAt = r.Timestep
		}
		if r.NDeer > 0 && r.NWolves > 0 {
			both++
		}
	}

	last := rows[len(rows)-1]
	s.Ticks = last.Timestep
	s.FinalDeer = last.NDeer
	s.FinalWolves = last.NWolves
	s.MeanDeer, s.StdDeer = meanStd(deer)
	s.MeanWolves, s.StdWolves = meanStd(wolves)
	s.MeanHRDeer, _ = meanStd(hrDeer)
	s.MeanHRWolves, _ = meanStd(hrWolves)
	s.Coexistence = float64(both) / float64(len(rows))
	return s
}

// meanStd wraps stat.MeanStdDev, which is undefined for fewer than two samples.
func meanStd(xs []float64) (mean, std float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("ticks", s.Ticks),
		slog.Int("final_deer", s.FinalDeer),
		slog.Int("final_wolves", s.FinalWolves),
		slog.Int("deer_extinct_at", s.DeerExtinctAt),
		slog.Int("wolves_extinct_at", s.WolvesExtinctAt),
		slog.Float64("mean_deer", s.MeanDeer),
		slog.Float64("mean_wolves", s.MeanWolves),
		slog.Float64("coexistence", s.Coexistence),
	)
}
