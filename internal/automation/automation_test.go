package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/experiment"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/stats"
	"github.com/san-kum/iontrim/internal/storage"
	"github.com/san-kum/iontrim/internal/transport"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.IonCount = 10
	cfg.InitialEnergy = 5000
	cfg.Seed = 3
	return cfg
}

func TestStepApply(t *testing.T) {
	g := NewWithT(t)
	base := smallConfig()

	cfg, err := ScenarioStep{Preset: "He in W", Energy: 1000, ScatteringModel: "coulomb"}.Apply(base)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.TargetZ).To(Equal(74.0))
	g.Expect(cfg.InitialEnergy).To(Equal(1000.0))
	g.Expect(cfg.IonCount).To(Equal(10))
	g.Expect(cfg.Seed).To(Equal(uint64(3)))
	g.Expect(cfg.ScatteringModel).To(Equal("coulomb"))
	g.Expect(base.TargetZ).To(Equal(14.0))

	_, err = ScenarioStep{Preset: "Xe in Au"}.Apply(base)
	g.Expect(errors.Is(err, transport.ErrInvalidConfig)).To(BeTrue())
}

func TestLoadScenario(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := `
name: implant
description: two energies then a sphere
steps:
  - energy: 2000
    save_as: low
  - energy: 4000
    geometry_type: sphere
    geometry_params:
      radius: 300
      center_z: 300
`
	g.Expect(os.WriteFile(path, []byte(data), 0644)).To(Succeed())

	sc, err := LoadScenario(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sc.Name).To(Equal("implant"))
	g.Expect(sc.Steps).To(HaveLen(2))
	g.Expect(sc.Steps[1].GeometryParams).To(HaveKey("radius"))

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	g.Expect(os.WriteFile(empty, []byte("name: nothing\n"), 0644)).To(Succeed())
	_, err = LoadScenario(empty)
	g.Expect(err).To(HaveOccurred())
}

func TestRunScenario(t *testing.T) {
	g := NewWithT(t)
	st := storage.New(t.TempDir())
	g.Expect(st.Init()).To(Succeed())

	sc := &Scenario{
		Name: "test",
		Steps: []ScenarioStep{
			{Energy: 2000, SaveAs: "low"},
			{Energy: 4000, GeometryType: "sphere", GeometryParams: map[string]any{"radius": 300, "center_z": 300}},
		},
	}

	results, err := RunScenario(context.Background(), sc, smallConfig(), experiment.NewRegistry(), st)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(2))
	g.Expect(results[0].RunID).NotTo(BeEmpty())
	g.Expect(results[1].RunID).To(BeEmpty())
	g.Expect(results[1].Config.GeometryType).To(Equal("sphere"))
	g.Expect(results[1].Results.TotalIons).To(Equal(10))

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(1))
	g.Expect(runs[0].Label).To(Equal("low"))
}

func TestRunScenarioBadStep(t *testing.T) {
	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{{StoppingModel: "bethe"}}}
	_, err := RunScenario(context.Background(), sc, smallConfig(), experiment.NewRegistry(), nil)
	if !errors.Is(err, experiment.ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestEnergies(t *testing.T) {
	tests := []struct {
		name  string
		sweep EnergySweep
		want  []float64
	}{
		{"linear", EnergySweep{EnergyMin: 1000, EnergyMax: 3000, NumSteps: 3}, []float64{1000, 2000, 3000}},
		{"log", EnergySweep{EnergyMin: 100, EnergyMax: 10000, NumSteps: 3, Log: true}, []float64{100, 1000, 10000}},
		{"single", EnergySweep{EnergyMin: 500, EnergyMax: 900, NumSteps: 1}, []float64{500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sweep.Energies()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9*tt.want[i] {
					t.Errorf("energy %d: expected %f, got %f", i, tt.want[i], got[i])
				}
			}
		})
	}

	bad := []EnergySweep{
		{EnergyMin: 0, EnergyMax: 10, NumSteps: 2},
		{EnergyMin: 10, EnergyMax: 5, NumSteps: 2},
		{EnergyMin: 1, EnergyMax: 5, NumSteps: 0},
	}
	for _, s := range bad {
		if _, err := s.Energies(); !errors.Is(err, transport.ErrInvalidConfig) {
			t.Errorf("%+v: expected ErrInvalidConfig, got %v", s, err)
		}
	}
}

func TestRunSweepRangeGrowsWithEnergy(t *testing.T) {
	g := NewWithT(t)
	base := smallConfig()
	base.IonCount = 30

	calls := 0
	points, err := RunSweep(context.Background(), &EnergySweep{
		Base: base, EnergyMin: 1000, EnergyMax: 20000, NumSteps: 2,
	}, experiment.NewRegistry(), func(done, total int) { calls++ })

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(points).To(HaveLen(2))
	g.Expect(calls).To(Equal(2))
	g.Expect(points[1].MeanDepth).To(BeNumerically(">", points[0].MeanDepth))
	for _, p := range points {
		g.Expect(p.Stopped + p.Backscattered + p.Transmitted).To(BeNumerically("<=", 1+1e-12))
	}
}

func TestRunReplicas(t *testing.T) {
	g := NewWithT(t)

	sum, err := RunReplicas(context.Background(), &ReplicaStudy{Base: smallConfig(), Replicas: 3}, experiment.NewRegistry())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sum.MeanDepths).To(HaveLen(3))
	g.Expect(sum.StdDev).To(BeNumerically(">=", 0))
	g.Expect(sum.StdErr).To(BeNumerically("<=", sum.StdDev))

	_, err = RunReplicas(context.Background(), &ReplicaStudy{Base: smallConfig(), Replicas: 1}, experiment.NewRegistry())
	g.Expect(errors.Is(err, transport.ErrInvalidConfig)).To(BeTrue())
}

func TestSweepPointLateralStraggle(t *testing.T) {
	g := NewWithT(t)
	r := &sim.Results{
		TotalIons: 4,
		Stopped:   4,
		Stats: stats.Summary{
			Count: 4,
			X:     stats.Axis{Std: 30},
			Y:     stats.Axis{Std: 40},
			Z:     stats.Axis{Mean: 1500, Std: 400},
			R:     stats.Axis{Mean: 45, Std: 500},
		},
	}

	p := pointFrom(5e4, r)
	g.Expect(p.LateralStd).To(BeNumerically("~", math.Sqrt(1250), 1e-9))
	g.Expect(p.MeanDepth).To(Equal(1500.0))
	g.Expect(p.Straggle).To(Equal(400.0))
	g.Expect(p.Stopped).To(Equal(1.0))
}
