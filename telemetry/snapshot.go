package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the landscape and every live agent at one tick.
type Snapshot struct {
	Version int   `json:"version"`
	Seed    int64 `json:"seed"`
	Tick    int   `json:"tick"`
	Size    int   `json:"size"`

	Cells  []CellState  `json:"cells"`
	Agents []AgentState `json:"agents"`
}

// CellState is one landscape cell.
type CellState struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	State     string `json:"state"`
	Age       *int   `json:"age,omitempty"` // nil for old growth
	Protected bool   `json:"protected,omitempty"`
}

// AgentState is one live agent.
type AgentState struct {
	ID         uint64  `json:"id"`
	Species    string  `json:"species"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Fitness    float64 `json:"fitness"`
	TimeInCell int     `json:"time_in_cell"`
	OriginX    int     `json:"origin_x"`
	OriginY    int     `json:"origin_y"`
	Radius     int     `json:"radius"`
	HomeRange  int     `json:"home_range"` // cell count
}

// Count returns the number of agents of the named species.
func (s *Snapshot) Count(species string) int {
	n := 0
	for _, a := range s.Agents {
		if a.Species == species {
			n++
		}
	}
	return n
}

// SaveSnapshot writes a snapshot to dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
