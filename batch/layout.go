// Package batch runs independent simulations over a parameter sweep and
// lays their outputs out for the downstream merge tooling.
package batch

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
)

// Job identifies one run: a (scenario, parameter value, run index) triple.
type Job struct {
	Scenario string  `db:"scenario"`
	Param    string  `db:"param"`
	Value    float64 `db:"value"`
	Run      int     `db:"run"`
	Seed     int64   `db:"seed"`
}

// String returns the job key used in logs.
func (j Job) String() string {
	return fmt.Sprintf("%s/%s=%s/%d", j.Scenario, j.Param, FormatValue(j.Value), j.Run)
}

// Plan expands a sweep into jobs, value-major. Run i of every value shares
// the seed baseSeed+i+1, so values are compared on common random numbers.
// param must be one of config.ParamNames.
func Plan(scenario, param string, values []float64, runs int, baseSeed int64) ([]Job, error) {
	if !slices.Contains(config.ParamNames(), param) {
		return nil, fmt.Errorf("unknown parameter %q (valid: %s)", param, strings.Join(config.ParamNames(), ", "))
	}
	jobs := make([]Job, 0, len(values)*runs)
	for _, v := range values {
		for run := 0; run < runs; run++ {
			jobs = append(jobs, Job{
				Scenario: scenario,
				Param:    param,
				Value:    v,
				Run:      run,
				Seed:     baseSeed + int64(run) + 1,
			})
		}
	}
	return jobs, nil
}

// Layout maps jobs to output paths: <root>/<scenario>/<value>/pop_dynam_<run>.csv.
type Layout struct {
	Root     string
	Compress bool // append .zst to CSV names
}

// Dir returns the directory holding all runs of a job's parameter value.
func (l Layout) Dir(j Job) string {
	return filepath.Join(l.Root, j.Scenario, FormatValue(j.Value))
}

// RowsPath returns the population record stream path of a job.
func (l Layout) RowsPath(j Job) string {
	return filepath.Join(l.Dir(j), l.name("pop_dynam", j.Run))
}

// EventsPath returns the event stream path of a job.
func (l Layout) EventsPath(j Job) string {
	return filepath.Join(l.Dir(j), l.name("events", j.Run))
}

// TrackingPath returns the per-tick track stream path of one species.
func (l Layout) TrackingPath(j Job, species components.Species) string {
	return filepath.Join(l.Dir(j), l.name(species.String()+"_tracking", j.Run))
}

// IndexPath returns the sqlite run index path.
func (l Layout) IndexPath() string {
	return filepath.Join(l.Root, "runs.db")
}

func (l Layout) name(stem string, run int) string {
	name := fmt.Sprintf("%s_%d.csv", stem, run)
	if l.Compress {
		name += ".zst"
	}
	return name
}

// FormatValue renders a parameter value the shortest way that round-trips,
// so 4 becomes "4" and 0.16 stays "0.16".
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseValues parses a comma-separated value list.
func ParseValues(s string) ([]float64, error) {
	var values []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing value %q: %w", field, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return values, nil
}
