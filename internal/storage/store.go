// Package storage archives ensemble runs on disk.
//
// Each run lives in its own directory under the base directory:
//
//	<id>/metadata.json     configuration and summary
//	<id>/positions.csv     stopped positions
//	<id>/trajectories.csv  recorded traces, if any
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/damage"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/stats"
	"github.com/san-kum/iontrim/internal/trajectory"
	"github.com/san-kum/iontrim/internal/transport"
)

const (
	metadataFile     = "metadata.json"
	positionsFile    = "positions.csv"
	trajectoriesFile = "trajectories.csv"
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

// Summary is the scalar part of sim.Results.
type Summary struct {
	Requested     int                `json:"requested"`
	TotalIons     int                `json:"total_ions"`
	Stopped       int                `json:"stopped_count"`
	Backscattered int                `json:"backscattered_count"`
	Transmitted   int                `json:"transmitted_count"`
	Anomalous     int                `json:"anomalous_count"`
	Stats         stats.Summary      `json:"stats"`
	Damage        *damage.Statistics `json:"damage,omitempty"`
	Canceled      bool               `json:"canceled"`
	Elapsed       time.Duration      `json:"elapsed_ns"`
}

func Summarize(r *sim.Results) Summary {
	return Summary{
		Requested:     r.Requested,
		TotalIons:     r.TotalIons,
		Stopped:       r.Stopped,
		Backscattered: r.Backscattered,
		Transmitted:   r.Transmitted,
		Anomalous:     r.Anomalous,
		Stats:         r.Stats,
		Damage:        r.Damage,
		Canceled:      r.Canceled,
		Elapsed:       r.Elapsed,
	}
}

type RunMetadata struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Timestamp time.Time      `json:"timestamp"`
	Config    *config.Config `json:"config"`
	Summary   Summary        `json:"summary"`
}

// Save writes a run and returns its generated id.
func (s *Store) Save(label string, cfg *config.Config, res *sim.Results) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Label:     label,
		Timestamp: time.Now(),
		Config:    cfg,
		Summary:   Summarize(res),
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := writePositions(filepath.Join(runDir, positionsFile), res.StoppedPositions); err != nil {
		return "", err
	}

	if len(res.Trajectories) > 0 {
		if err := writeTrajectories(filepath.Join(runDir, trajectoriesFile), res.Trajectories); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writePositions(path string, positions []transport.Vec3) error {
	return writeCSV(path, []string{"x", "y", "z"}, func(w *csv.Writer) error {
		for _, p := range positions {
			if err := w.Write([]string{formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2])}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeTrajectories(path string, trajs []sim.Trajectory) error {
	header := []string{"ion", "outcome", "x", "y", "z", "energy"}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for _, tr := range trajs {
			for _, pt := range tr.Points {
				row := []string{
					strconv.Itoa(tr.Ion),
					tr.Outcome.String(),
					formatFloat(pt.Position[0]),
					formatFloat(pt.Position[1]),
					formatFloat(pt.Position[2]),
					formatFloat(pt.Energy),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// List returns every readable run, newest first.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Store) LoadPositions(runID string) ([]transport.Vec3, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}

	positions := make([]transport.Vec3, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 fields, got %d", positionsFile, i+2, len(rec))
		}
		v, err := parseFloats(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", positionsFile, i+2, err)
		}
		positions = append(positions, transport.Vec3{v[0], v[1], v[2]})
	}
	return positions, nil
}

// LoadTrajectories returns nil when the run recorded none.
func (s *Store) LoadTrajectories(runID string) ([]sim.Trajectory, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, trajectoriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var trajs []sim.Trajectory
	for i, rec := range records {
		if len(rec) != 6 {
			return nil, fmt.Errorf("%s line %d: expected 6 fields, got %d", trajectoriesFile, i+2, len(rec))
		}
		ion, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoriesFile, i+2, err)
		}
		var outcome transport.Outcome
		if err := outcome.UnmarshalText([]byte(rec[1])); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoriesFile, i+2, err)
		}
		v, err := parseFloats(rec[2:])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", trajectoriesFile, i+2, err)
		}

		if len(trajs) == 0 || trajs[len(trajs)-1].Ion != ion {
			trajs = append(trajs, sim.Trajectory{Ion: ion, Outcome: outcome})
		}
		last := &trajs[len(trajs)-1]
		last.Points = append(last.Points, trajectory.TracePoint{
			Position: transport.Vec3{v[0], v[1], v[2]},
			Energy:   v[3],
		})
	}
	return trajs, nil
}
