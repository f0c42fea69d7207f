package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/gomega"

	"github.com/san-kum/iontrim/internal/config"
	"github.com/san-kum/iontrim/internal/damage"
	"github.com/san-kum/iontrim/internal/sim"
	"github.com/san-kum/iontrim/internal/stats"
	"github.com/san-kum/iontrim/internal/trajectory"
	"github.com/san-kum/iontrim/internal/transport"
)

func sampleResults() *sim.Results {
	return &sim.Results{
		Requested:     10,
		TotalIons:     10,
		Stopped:       7,
		Backscattered: 2,
		Transmitted:   1,
		Stats: stats.Summary{
			Count: 7,
			Z:     stats.Axis{Mean: 1523.4, Std: 402.1},
		},
		StoppedPositions: []sim.Vec3{{0, 0, 1000}, {0, 0, 1500}, {0, 0, 1600}, {0, 0, 2000}},
		Damage:           &damage.Statistics{Vacancies: 42, RecoilEvents: 60, Deposited: 12000},
		Elapsed:          1500 * time.Millisecond,
	}
}

func TestRenderSummary(t *testing.T) {
	g := NewWithT(t)
	out := RenderSummary(config.DefaultConfig(), sampleResults())

	g.Expect(out).To(ContainSubstring("Ion transport summary"))
	g.Expect(out).To(ContainSubstring("7 (70.0%)"))
	g.Expect(out).To(ContainSubstring("1523.4 A"))
	g.Expect(out).To(ContainSubstring("42 (4.2 per ion)"))
	g.Expect(out).To(ContainSubstring("1.5s"))
	g.Expect(out).NotTo(ContainSubstring("abandoned"))
}

func TestRenderSummaryCanceledAndAnomalous(t *testing.T) {
	g := NewWithT(t)
	r := sampleResults()
	r.Requested = 100
	r.Canceled = true
	r.Anomalous = 1
	r.Damage = nil

	out := RenderSummary(nil, r)
	g.Expect(out).To(ContainSubstring("stopped early"))
	g.Expect(out).To(ContainSubstring("1 ions abandoned"))
	g.Expect(out).NotTo(ContainSubstring("vacancies"))
}

func TestRenderSummaryEmptyRun(t *testing.T) {
	g := NewWithT(t)
	g.Expect(func() { RenderSummary(nil, &sim.Results{}) }).NotTo(Panic())
}

func TestDepthProfile(t *testing.T) {
	g := NewWithT(t)

	g.Expect(DepthProfile(stats.Histogram{}, 40, 10)).To(ContainSubstring("no stopped ions"))

	h := stats.NewHistogram([]float64{10, 20, 20, 30, 90}, 5, 0, 100)
	out := DepthProfile(h, 40, 8)
	g.Expect(out).To(ContainSubstring("depth 0-100 A, 5 bins"))
	g.Expect(strings.Count(out, "\n")).To(BeNumerically(">=", 8))
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)

	if c.Grid[0][0] == brailleBlank || c.Grid[1][3] == brailleBlank {
		t.Error("diagonal should light both corner cells")
	}
	if c.Grid[0][3] != brailleBlank {
		t.Error("off-diagonal cell should stay blank")
	}

	c.Set(100, 100)
	c.Set(-1, 0)
	c.Clear()
	for _, row := range c.Grid {
		for _, r := range row {
			if r != brailleBlank {
				t.Fatal("clear left lit cells")
			}
		}
	}
}

func TestTrajectoryPlot(t *testing.T) {
	g := NewWithT(t)

	empty := TrajectoryPlot(nil, 10, 5)
	g.Expect(strings.Count(empty, "\n")).To(Equal(5))

	trajs := []sim.Trajectory{{
		Outcome: transport.StoppedInside,
		Points: []trajectory.TracePoint{
			{Position: sim.Vec3{0, 0, 0}, Energy: 1000},
			{Position: sim.Vec3{5, 0, 50}, Energy: 500},
			{Position: sim.Vec3{-5, 0, 100}, Energy: 5},
		},
	}, {
		Points: []trajectory.TracePoint{{Position: sim.Vec3{0, 0, 20}}},
	}}
	out := TrajectoryPlot(trajs, 10, 5)
	g.Expect(out).NotTo(Equal(empty))
	g.Expect(strings.Count(out, "\n")).To(Equal(5))
}

func TestSparklineAndBar(t *testing.T) {
	g := NewWithT(t)
	g.Expect(Sparkline(nil, 4)).To(Equal("────"))
	g.Expect(Sparkline([]float64{0, 1, 2, 3}, 4)).To(ContainSubstring("█"))
	g.Expect(ProgressBar(0.5, 10)).To(ContainSubstring("█████░░░░░"))
	g.Expect(ProgressBar(2, 4)).To(ContainSubstring("████"))
}

func TestProgressModel(t *testing.T) {
	g := NewWithT(t)

	want := sampleResults()
	stopped := 0
	m := NewProgressModel(func(progress func(done, total int)) (*sim.Results, error) {
		progress(5, 10)
		return want, nil
	}, func() { stopped++ })

	m.Init()

	_, cmd := m.Update(progressMsg{done: 5, total: 10})
	g.Expect(cmd).NotTo(BeNil())
	g.Expect(m.View()).To(ContainSubstring("5/10 ions"))

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	g.Expect(stopped).To(Equal(1))
	g.Expect(m.View()).To(ContainSubstring("stopping"))

	_, cmd = m.Update(doneMsg{res: want})
	g.Expect(cmd).NotTo(BeNil())
	res, err := m.Result()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(res).To(BeIdenticalTo(want))
}
