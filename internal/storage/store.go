// Package storage persists simulation runs to disk: one directory per
// run holding JSON metadata and CSV trajectories for both agents.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/gyresim/internal/sim"
	"github.com/san-kum/gyresim/internal/swimmer"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string     `json:"id"`
	Family      string     `json:"family"`
	Timestamp   time.Time  `json:"timestamp"`
	Dt          float64    `json:"dt"`
	Duration    float64    `json:"duration"`
	Orientation string     `json:"orientation"`
	Direction   string     `json:"direction"`
	Converged   bool       `json:"converged"`
	ConvergedAt float64    `json:"converged_at"`
	ControlCost float64    `json:"control_cost"`
	Steps       int        `json:"steps"`
	Center      [2]float64 `json:"center"`
	Radius      float64    `json:"radius,omitempty"`
	Seed        int64      `json:"seed,omitempty"`
}

// Save writes one run under a directory named by its ID. An empty ID
// gets a family+timestamp name, matching how ad-hoc single runs are
// launched from the CLI.
func (s *Store) Save(params sim.Params, out *sim.Output, radius float64, seed int64) (string, error) {
	runID := out.ID
	if runID == "" {
		runID = fmt.Sprintf("%s_%d", params.Flow.Family, time.Now().Unix())
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Family:      params.Flow.Family.String(),
		Timestamp:   time.Now(),
		Dt:          params.Timestep,
		Duration:    params.TotalTime,
		Orientation: params.Orientation.String(),
		Direction:   params.Direction.String(),
		Converged:   out.Converged,
		ConvergedAt: out.ConvergedAt,
		ControlCost: out.ControlCost,
		Steps:       out.Steps,
		Center:      [2]float64{params.Flow.Center.X, params.Flow.Center.Y},
		Radius:      radius,
		Seed:        seed,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeTrajectory(filepath.Join(runDir, "mobile.csv"), out.Mobile.History()); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, "target.csv"), out.Target.History()); err != nil {
		return "", err
	}

	return runID, nil
}

func writeTrajectory(path string, hist []swimmer.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time", "x", "y", "theta"}); err != nil {
		return err
	}
	for _, sample := range hist {
		row := []string{
			strconv.FormatFloat(sample.T, 'f', 6, 64),
			strconv.FormatFloat(sample.Pose.X, 'f', 6, 64),
			strconv.FormatFloat(sample.Pose.Y, 'f', 6, 64),
			strconv.FormatFloat(sample.Pose.Theta, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory reads one agent's trajectory back; which is "mobile" or
// "target".
func (s *Store) LoadTrajectory(runID, which string) ([]swimmer.Sample, error) {
	if which != "mobile" && which != "target" {
		return nil, fmt.Errorf("storage: unknown trajectory %q", which)
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, which+".csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []swimmer.Sample{}, nil
	}

	samples := make([]swimmer.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 4 {
			continue
		}
		vals := make([]float64, 4)
		ok := true
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		samples = append(samples, swimmer.Sample{
			T:    vals[0],
			Pose: swimmer.Pose{X: vals[1], Y: vals[2], Theta: vals[3]},
		})
	}
	return samples, nil
}
