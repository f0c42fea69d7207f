// Package automation drives batches of ensemble runs: energy sweeps,
// replica studies and scripted scenarios.
package automation

import (
	"context"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/experiment"
	"github.com/san-kum/iontrim/internal/geometry"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/storage"
	"github.com/san-kum/iontrim/internal/transport"
)

var log = config.NamedLogger("automation")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides parts of the base configuration for one run. Zero
// values leave the base untouched.
type ScenarioStep struct {
	Preset          string          `yaml:"preset"`
	Energy          float64         `yaml:"energy"`
	Ions            int             `yaml:"ions"`
	Seed            uint64          `yaml:"seed"`
	StoppingModel   string          `yaml:"stopping_model"`
	ScatteringModel string          `yaml:"scattering_model"`
	GeometryType    string          `yaml:"geometry_type"`
	GeometryParams  geometry.Params `yaml:"geometry_params"`
	SaveAs          string          `yaml:"save_as"`
}

// Apply returns a copy of base with the step's overrides.
func (s ScenarioStep) Apply(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return nil, transport.NewConfigError("preset", s.Preset, "unknown preset")
		}
		p.IonCount, p.Seed, p.Workers = cfg.IonCount, cfg.Seed, cfg.Workers
		p.Damage = cfg.Damage
		cfg = p
	}
	if s.Energy > 0 {
		cfg.InitialEnergy = s.Energy
	}
	if s.Ions > 0 {
		cfg.IonCount = s.Ions
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.StoppingModel != "" {
		cfg.StoppingModel = s.StoppingModel
	}
	if s.ScatteringModel != "" {
		cfg.ScatteringModel = s.ScatteringModel
	}
	if s.GeometryType != "" {
		cfg.GeometryType = s.GeometryType
		cfg.GeometryParams = s.GeometryParams
	}
	return cfg, nil
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step    int
	Config  *config.Config
	Results *sim.Results
	RunID   string
}

// RunScenario executes all steps in order. Steps with SaveAs set are
// archived in st when st is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, registry *experiment.Registry, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		log.Infof("running step %d/%d of %s", i+1, len(scenario.Steps), scenario.Name)

		cfg, err := step.Apply(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res, err := exp.Run(ctx, nil)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Step: i + 1, Config: cfg, Results: res}
		if step.SaveAs != "" && st != nil {
			if sr.RunID, err = st.Save(step.SaveAs, cfg, res); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// EnergySweep runs the base configuration at NumSteps energies between
// EnergyMin and EnergyMax.
type EnergySweep struct {
	Base      *config.Config
	EnergyMin float64
	EnergyMax float64
	NumSteps  int
	// Log spaces the energies logarithmically.
	Log bool
}

func (s *EnergySweep) Energies() ([]float64, error) {
	if s.NumSteps < 1 {
		return nil, transport.NewConfigError("steps", s.NumSteps, "must be positive")
	}
	if !(s.EnergyMin > 0) || s.EnergyMax < s.EnergyMin {
		return nil, transport.NewConfigError("energy_range", [2]float64{s.EnergyMin, s.EnergyMax}, "need 0 < min <= max")
	}
	if s.NumSteps == 1 {
		return []float64{s.EnergyMin}, nil
	}
	out := make([]float64, s.NumSteps)
	if s.Log {
		return floats.LogSpan(out, s.EnergyMin, s.EnergyMax), nil
	}
	return floats.Span(out, s.EnergyMin, s.EnergyMax), nil
}

// SweepPoint summarizes one energy of a sweep.
type SweepPoint struct {
	Energy        float64 `json:"energy"`
	MeanDepth     float64 `json:"mean_depth"`
	Straggle      float64 `json:"straggle"`
	// LateralStd is the per-axis lateral straggle, the RMS of the x and y
	// standard deviations.
	LateralStd    float64 `json:"lateral_std"`
	Stopped       float64 `json:"stopped_fraction"`
	Backscattered float64 `json:"backscattered_fraction"`
	Transmitted   float64 `json:"transmitted_fraction"`
}

func pointFrom(energy float64, r *sim.Results) SweepPoint {
	return SweepPoint{
		Energy:        energy,
		MeanDepth:     r.Stats.Z.Mean,
		Straggle:      r.Stats.Z.Std,
		LateralStd:    math.Hypot(r.Stats.X.Std, r.Stats.Y.Std) / math.Sqrt2,
		Stopped:       r.Fraction(r.Stopped),
		Backscattered: r.Fraction(r.Backscattered),
		Transmitted:   r.Fraction(r.Transmitted),
	}
}

// RunSweep executes an energy sweep
func RunSweep(ctx context.Context, sweep *EnergySweep, registry *experiment.Registry, progress func(done, total int)) ([]SweepPoint, error) {
	energies, err := sweep.Energies()
	if err != nil {
		return nil, err
	}

	points := make([]SweepPoint, 0, len(energies))
	for i, e := range energies {
		cfg := sweep.Base.Clone()
		cfg.InitialEnergy = e

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return points, err
		}
		res, err := exp.Run(ctx, nil)
		if err != nil {
			return points, err
		}
		if res.Canceled {
			return points, ctx.Err()
		}

		points = append(points, pointFrom(e, res))
		log.Debugf("sweep %d/%d: E=%.1f eV range=%.1f A", i+1, len(energies), e, res.Stats.Z.Mean)
		if progress != nil {
			progress(i+1, len(energies))
		}
	}

	return points, nil
}

// ReplicaStudy repeats the base run with Replicas consecutive seeds to
// estimate the run-to-run scatter of the mean range.
type ReplicaStudy struct {
	Base     *config.Config
	Replicas int
}

type ReplicaSummary struct {
	MeanDepths []float64 `json:"mean_depths"`
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"std_dev"`
	StdErr     float64   `json:"std_err"`
}

func RunReplicas(ctx context.Context, study *ReplicaStudy, registry *experiment.Registry) (*ReplicaSummary, error) {
	if study.Replicas < 2 {
		return nil, transport.NewConfigError("replicas", study.Replicas, "need at least 2")
	}

	depths := make([]float64, 0, study.Replicas)
	for i := 0; i < study.Replicas; i++ {
		cfg := study.Base.Clone()
		cfg.Seed = study.Base.Seed + uint64(i)

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return nil, err
		}
		res, err := exp.Run(ctx, nil)
		if err != nil {
			return nil, err
		}
		if res.Canceled {
			return nil, ctx.Err()
		}
		depths = append(depths, res.Stats.Z.Mean)
	}

	mean, std := stat.MeanStdDev(depths, nil)
	return &ReplicaSummary{
		MeanDepths: depths,
		Mean:       mean,
		StdDev:     std,
		StdErr:     stat.StdErr(std, float64(len(depths))),
	}, nil
}
