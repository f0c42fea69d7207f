package storage

import (
	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/stats"
)

// DefaultBins is the depth histogram resolution used in exports.
const DefaultBins = 50

type ExportData struct {
	Config  *config.Config  `json:"config"`
	Summary Summary         `json:"summary"`
	Depth   stats.Histogram `json:"depth_histogram"`
	Results *sim.Results    `json:"results"`
}

// ExportJSON writes the full results of a run, including every stopped
// position and recorded trace.
func ExportJSON(path string, cfg *config.Config, res *sim.Results) error {
	data := ExportData{
		Config:  cfg,
		Summary: Summarize(res),
		Depth:   stats.DepthHistogram(res.Depths(), DefaultBins),
		Results: res,
	}
	return writeJSON(path, data)
}

// ExportRun re-exports an archived run.
func (s *Store) ExportRun(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	positions, err := s.LoadPositions(runID)
	if err != nil {
		return err
	}
	trajs, err := s.LoadTrajectories(runID)
	if err != nil {
		return err
	}

	sum := meta.Summary
	res := &sim.Results{
		Requested:        sum.Requested,
		TotalIons:        sum.TotalIons,
		Stopped:          sum.Stopped,
		Backscattered:    sum.Backscattered,
		Transmitted:      sum.Transmitted,
		Anomalous:        sum.Anomalous,
		Stats:            sum.Stats,
		StoppedPositions: positions,
		Trajectories:     trajs,
		Damage:           sum.Damage,
		Canceled:         sum.Canceled,
		Elapsed:          sum.Elapsed,
	}
	return ExportJSON(path, meta.Config, res)
}
