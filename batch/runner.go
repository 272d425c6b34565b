package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
	"github.com/pthm-cable/forestsim/game"
	"github.com/pthm-cable/forestsim/telemetry"
)

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Summary  telemetry.Summary
	Path     string
	Duration time.Duration
	Err      error
}

// Runner executes jobs on a bounded pool of workers. Runs share nothing but
// the read-only base config, which every worker clones.
type Runner struct {
	Base    *config.Config
	Layout  Layout
	Workers int          // 0 = GOMAXPROCS
	Index   *Index       // optional run index
	Logger  *slog.Logger // nil = slog.Default()

	// SimLogger receives the logs of the individual simulations. nil = Logger.
	SimLogger *slog.Logger
}

// Run executes jobs and returns their results in job order. Failed jobs are
// reported in their Result; the returned error is only set for failures of
// the batch itself (index writes, cancellation).
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	simLogger := r.SimLogger
	if simLogger == nil {
		simLogger = logger
	}

	type indexed struct {
		i   int
		res Result
	}
	todo := make(chan int)
	done := make(chan indexed)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range todo {
				done <- indexed{i: i, res: r.runJob(ctx, jobs[i], simLogger)}
			}
		}()
	}

	go func() {
		defer close(todo)
		for i := range jobs {
			select {
			case todo <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	results := make([]Result, len(jobs))
	ran := make([]bool, len(jobs))
	var indexErr error
	finished := 0
	for d := range done {
		results[d.i] = d.res
		ran[d.i] = true
		finished++
		if d.res.Err != nil {
			logger.Error("run failed", "job", d.res.Job.String(), "error", d.res.Err)
			continue
		}
		logger.Info("run finished",
			"job", d.res.Job.String(),
			"done", finished,
			"total", len(jobs),
			"duration_ms", d.res.Duration.Milliseconds(),
			"summary", d.res.Summary,
		)
		if r.Index != nil && indexErr == nil {
			indexErr = r.Index.Put(RunRecord{
				Job:        d.res.Job,
				Summary:    d.res.Summary,
				Path:       d.res.Path,
				DurationMS: d.res.Duration.Milliseconds(),
				FinishedAt: time.Now().Unix(),
			})
		}
	}

	if err := ctx.Err(); err != nil {
		// Jobs never handed to a worker fail with the cancellation.
		for i, job := range jobs {
			if !ran[i] {
				results[i] = Result{Job: job, Path: r.Layout.RowsPath(job), Err: err}
			}
		}
		return results, err
	}
	return results, indexErr
}

// runJob runs one simulation and writes its record streams.
func (r *Runner) runJob(ctx context.Context, job Job, simLogger *slog.Logger) Result {
	start := time.Now()
	res := Result{Job: job, Path: r.Layout.RowsPath(job)}

	cfg := r.Base.Clone()
	if err := cfg.SetParam(job.Param, job.Value); err != nil {
		res.Err = err
		return res
	}
	if err := cfg.Finalize(); err != nil {
		res.Err = fmt.Errorf("%s=%s: %w", job.Param, FormatValue(job.Value), err)
		return res
	}

	sim, err := game.New(cfg, game.Options{
		Seed:   job.Seed,
		Logger: simLogger.With("job", job.String()),
	})
	if err != nil {
		res.Err = err
		return res
	}
	if err := sim.Run(ctx); err != nil {
		res.Err = err
		return res
	}

	if err := os.MkdirAll(r.Layout.Dir(job), 0755); err != nil {
		res.Err = fmt.Errorf("creating run directory: %w", err)
		return res
	}
	rows := sim.Recorder().Rows()
	if err := telemetry.WriteCSV(res.Path, rows); err != nil {
		res.Err = fmt.Errorf("writing rows: %w", err)
		return res
	}
	if cfg.Output.Events {
		if err := telemetry.WriteCSV(r.Layout.EventsPath(job), sim.Recorder().Events()); err != nil {
			res.Err = fmt.Errorf("writing events: %w", err)
			return res
		}
	}

	if cfg.Output.Tracking {
		for _, species := range []components.Species{components.SpeciesDeer, components.SpeciesWolf} {
			if err := telemetry.WriteCSV(r.Layout.TrackingPath(job, species), sim.Recorder().Tracks(species)); err != nil {
				res.Err = fmt.Errorf("writing %s tracks: %w", species, err)
				return res
			}
		}
	}

	res.Summary = telemetry.Summarize(rows)
	res.Duration = time.Since(start)
	return res
}
