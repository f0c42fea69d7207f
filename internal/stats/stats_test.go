package stats

import (
	"math"
	"math/rand/v2"
	"testing"

	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/iontrim/internal/transport"
)

func TestRunningEmpty(t *testing.T) {
	var r Running
	if r.Mean() != 0 || r.Std() != 0 {
		t.Errorf("expected zero moments, got mean=%f std=%f", r.Mean(), r.Std())
	}

	var m Moments
	s := m.Summary()
	if s.Count != 0 || s.Z.Mean != 0 || s.R.Std != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestRunningMatchesGonum(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewPCG(3, 4))

	xs := make([]float64, 5000)
	var r Running
	for i := range xs {
		xs[i] = 1500 + 400*rng.NormFloat64()
		r.Observe(xs[i])
	}

	mean, std := stat.PopMeanStdDev(xs, nil)
	g.Expect(r.N).To(Equal(len(xs)))
	g.Expect(r.Mean()).To(BeNumerically("~", mean, 1e-9))
	g.Expect(r.Std()).To(BeNumerically("~", std, 1e-6))
}

func TestRunningClampsVariance(t *testing.T) {
	var r Running
	for i := 0; i < 3; i++ {
		r.Observe(1e8 + 0.1)
	}
	if r.Std() < 0 || math.IsNaN(r.Std()) {
		t.Errorf("std must be non-negative, got %f", r.Std())
	}
}

func TestMergeEqualsSequential(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewPCG(9, 9))

	var all, a, b Moments
	for i := 0; i < 1000; i++ {
		p := transport.Vec3{rng.Float64(), rng.Float64(), 100 * rng.Float64()}
		all.Observe(p)
		if i < 400 {
			a.Observe(p)
		} else {
			b.Observe(p)
		}
	}
	a.Merge(b)

	g.Expect(a.Count()).To(Equal(all.Count()))
	g.Expect(a.Z.Mean()).To(BeNumerically("~", all.Z.Mean(), 1e-9))
	g.Expect(a.R.Std()).To(BeNumerically("~", all.R.Std(), 1e-9))
}

func TestMomentsRadial(t *testing.T) {
	var m Moments
	m.Observe(transport.Vec3{3, 4, 10})
	m.Observe(transport.Vec3{-3, -4, 20})

	s := m.Summary()
	if s.R.Mean != 5 || s.R.Std != 0 {
		t.Errorf("expected r=5 std=0, got %+v", s.R)
	}
	if s.Z.Mean != 15 || s.Z.Std != 5 {
		t.Errorf("expected z mean 15 std 5, got %+v", s.Z)
	}
	if s.X.Mean != 0 {
		t.Errorf("expected x mean 0, got %f", s.X.Mean)
	}
}

func TestHistogram(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		bins   int
		want   []float64
	}{
		{"uniform", []float64{0.5, 1.5, 2.5, 3.5}, 4, []float64{1, 1, 1, 1}},
		{"upper edge included", []float64{0, 4}, 4, []float64{1, 0, 0, 1}},
		{"out of range dropped", []float64{-1, 1, 5}, 2, []float64{1, 0}},
		{"empty", nil, 3, []float64{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistogram(tt.values, tt.bins, 0, 4)
			if len(h.Edges) != tt.bins+1 {
				t.Fatalf("expected %d edges, got %d", tt.bins+1, len(h.Edges))
			}
			if h.Edges[tt.bins] != 4 {
				t.Errorf("expected last edge 4, got %f", h.Edges[tt.bins])
			}
			for i, w := range tt.want {
				if h.Counts[i] != w {
					t.Errorf("bin %d: expected %f, got %f", i, w, h.Counts[i])
				}
			}
		})
	}
}

func TestDepthHistogram(t *testing.T) {
	h := DepthHistogram([]float64{10, 20, 30, 40}, 3)
	if h.Total() != 4 {
		t.Errorf("expected 4 binned values, got %f", h.Total())
	}
	if h.Edges[0] != 10 || h.Edges[3] != 40 {
		t.Errorf("unexpected span %v", h.Edges)
	}
	c := h.Centers()
	if len(c) != 3 || math.Abs(c[0]-15) > 1e-12 {
		t.Errorf("unexpected centers %v", c)
	}

	single := DepthHistogram([]float64{7, 7}, 2)
	if single.Total() != 2 {
		t.Errorf("degenerate range should still bin all values, got %f", single.Total())
	}
}
