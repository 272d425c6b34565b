package batch

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/forestsim/telemetry"
)

// Index is the sqlite table of finished runs, one row per job.
type Index struct {
	conn *sqlx.DB
}

// RunRecord is one row of the run index.
type RunRecord struct {
	Job
	telemetry.Summary

	Path       string `db:"path"`
	DurationMS int64  `db:"duration_ms"`
	FinishedAt int64  `db:"finished_at"` // unix seconds
}

// OpenIndex opens or creates the run index at path.
func OpenIndex(path string) (*Index, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	// One writer; results are inserted from the collecting goroutine.
	conn.SetMaxOpenConns(1)

	idx := &Index{conn: conn}
	if err := idx.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return idx, nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.conn.Close()
}

func (idx *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		scenario TEXT NOT NULL,
		param TEXT NOT NULL,
		value REAL NOT NULL,
		run INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		path TEXT NOT NULL,
		ticks INTEGER NOT NULL,
		final_deer INTEGER NOT NULL,
		final_wolves INTEGER NOT NULL,
		deer_extinct_at INTEGER NOT NULL,
		wolves_extinct_at INTEGER NOT NULL,
		mean_deer REAL NOT NULL,
		std_deer REAL NOT NULL,
		mean_wolves REAL NOT NULL,
		std_wolves REAL NOT NULL,
		mean_hr_deer REAL NOT NULL,
		mean_hr_wolves REAL NOT NULL,
		coexistence REAL NOT NULL,
		duration_ms INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		PRIMARY KEY (scenario, param, value, run)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_param ON runs(scenario, param, value);
	`
	_, err := idx.conn.Exec(schema)
	return err
}

// Put inserts or replaces the record of a run.
func (idx *Index) Put(rec RunRecord) error {
	_, err := idx.conn.NamedExec(`
		INSERT OR REPLACE INTO runs (
			scenario, param, value, run, seed, path,
			ticks, final_deer, final_wolves, deer_extinct_at, wolves_extinct_at,
			mean_deer, std_deer, mean_wolves, std_wolves,
			mean_hr_deer, mean_hr_wolves, coexistence,
			duration_ms, finished_at
		) VALUES (
			:scenario, :param, :value, :run, :seed, :path,
			:ticks, :final_deer, :final_wolves, :deer_extinct_at, :wolves_extinct_at,
			:mean_deer, :std_deer, :mean_wolves, :std_wolves,
			:mean_hr_deer, :mean_hr_wolves, :coexistence,
			:duration_ms, :finished_at
		)`, rec)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.Job, err)
	}
	return nil
}

// Runs returns every run of a scenario ordered by parameter value and run index.
func (idx *Index) Runs(scenario string) ([]RunRecord, error) {
	var recs []RunRecord
	err := idx.conn.Select(&recs,
		"SELECT * FROM runs WHERE scenario = ? ORDER BY value, run",
		scenario,
	)
	return recs, err
}

// Persistence reports, per parameter value, the fraction of runs in which
// both species survived to the horizon.
func (idx *Index) Persistence(scenario string) (map[float64]float64, error) {
	var rows []struct {
		Value    float64 `db:"value"`
		Fraction float64 `db:"fraction"`
	}
	err := idx.conn.Select(&rows, `
		SELECT value, AVG(CASE WHEN deer_extinct_at < 0 AND wolves_extinct_at < 0 THEN 1.0 ELSE 0.0 END) AS fraction
		FROM runs WHERE scenario = ? GROUP BY value ORDER BY value`,
		scenario,
	)
	if err != nil {
		return nil, err
	}

	out := make(map[float64]float64, len(rows))
	for _, r := range rows {
		out[r.Value] = r.Fraction
	}
	return out, nil
}
