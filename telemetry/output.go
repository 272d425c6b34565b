package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zstd"

	"github.com/pthm-cable/forestsim/components"
	"github.com/pthm-cable/forestsim/config"
)

// Output file names.
const (
	RowsFile    = "pop_dynam.csv"
	EventsFile  = "events.csv"
	PerfFile    = "perf.csv"
	SummaryFile = "summary.json"
	ConfigFile  = "config.yaml"

	trackingSuffix = "_tracking.csv"

	zstdSuffix = ".zst"
)

// OutputManager writes the artefacts of a single run into one directory.
type OutputManager struct {
	dir      string
	compress bool

	perfFile          *os.File
	perfHeaderWritten bool
}

// NewOutputManager creates the output directory.
// Returns nil if dir is empty (output disabled); all methods accept a nil receiver.
func NewOutputManager(dir string, compress bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &OutputManager{dir: dir, compress: compress}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, ConfigFile))
}

// WriteRows exports the population record stream and returns its path.
func (om *OutputManager) WriteRows(rows []Row) (string, error) {
	if om == nil {
		return "", nil
	}
	path := om.path(RowsFile)
	if err := WriteCSV(path, rows); err != nil {
		return "", fmt.Errorf("writing rows: %w", err)
	}
	return path, nil
}

// WriteEvents exports the event stream and returns its path.
func (om *OutputManager) WriteEvents(events []EventRow) (string, error) {
	if om == nil {
		return "", nil
	}
	path := om.path(EventsFile)
	if err := WriteCSV(path, events); err != nil {
		return "", fmt.Errorf("writing events: %w", err)
	}
	return path, nil
}

// WriteTracking exports the per-tick tracks of one species to
// <species>_tracking.csv and returns its path.
func (om *OutputManager) WriteTracking(species components.Species, tracks []TrackRow) (string, error) {
	if om == nil {
		return "", nil
	}
	path := om.path(TrackingFile(species))
	if err := WriteCSV(path, tracks); err != nil {
		return "", fmt.Errorf("writing %s tracks: %w", species, err)
	}
	return path, nil
}

// TrackingFile returns the uncompressed track file name of a species.
func TrackingFile(species components.Species) string {
	return species.String() + trackingSuffix
}

// WritePerf appends one performance window to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if om.perfFile == nil {
		f, err := os.Create(filepath.Join(om.dir, PerfFile))
		if err != nil {
			return fmt.Errorf("creating %s: %w", PerfFile, err)
		}
		om.perfFile = f
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteSummary saves the run summary as JSON.
func (om *OutputManager) WriteSummary(s Summary) error {
	if om == nil {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, SummaryFile), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", SummaryFile, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes any open output files.
func (om *OutputManager) Close() error {
	if om == nil || om.perfFile == nil {
		return nil
	}
	return om.perfFile.Close()
}

func (om *OutputManager) path(name string) string {
	if om.compress {
		name += zstdSuffix
	}
	return filepath.Join(om.dir, name)
}

// WriteCSV writes records with a header row. A path ending in .zst is
// zstd-compressed.
func WriteCSV[T any](path string, records []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var w io.Writer = f
	if strings.HasSuffix(path, zstdSuffix) {
		enc, encErr := zstd.NewWriter(f)
		if encErr != nil {
			return fmt.Errorf("zstd writer: %w", encErr)
		}
		defer func() {
			if cerr := enc.Close(); err == nil {
				err = cerr
			}
		}()
		w = enc
	}
	return gocsv.Marshal(records, w)
}

// ReadCSV reads records written by WriteCSV.
func ReadCSV[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, zstdSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	var records []T
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// ReadRows imports a population record stream.
func ReadRows(path string) ([]Row, error) {
	return ReadCSV[Row](path)
}
