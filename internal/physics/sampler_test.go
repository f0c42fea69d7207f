package physics

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/san-kum/iontrim/internal/transport"
)

func TestNewAmorphousSampler(t *testing.T) {
	s, err := NewAmorphousSampler(0.04994)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantL := math.Cbrt(1 / 0.04994)
	if math.Abs(s.FreePath-wantL) > 1e-12 {
		t.Errorf("expected free path %f, got %f", wantL, s.FreePath)
	}
	if math.Abs(s.MaxP-wantL/math.Sqrt(math.Pi)) > 1e-12 {
		t.Errorf("unexpected pmax %f", s.MaxP)
	}

	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewAmorphousSampler(d); !errors.Is(err, transport.ErrInvalidConfig) {
			t.Errorf("density %v: expected ErrInvalidConfig, got %v", d, err)
		}
	}
}

func TestAmorphousSamplerDraws(t *testing.T) {
	s, _ := NewAmorphousSampler(0.05)
	rng := rand.New(rand.NewPCG(1, 2))
	dirs := []Vec3{{0, 0, 1}, {1, 0, 0}, {0.6, 0.8, 0}, {-0.2, 0.3, -0.9327379053}}

	for _, d := range dirs {
		d = transport.Renormalize(d)
		for i := 0; i < 1000; i++ {
			c := s.Next(rng, Vec3{}, d)
			if c.FreePath != s.FreePath {
				t.Fatalf("free path changed: %f", c.FreePath)
			}
			if c.ImpactParameter < 0 || c.ImpactParameter > s.MaxP {
				t.Fatalf("impact parameter %f outside [0, %f]", c.ImpactParameter, s.MaxP)
			}
			if math.Abs(c.RecoilDirection.Dot(d)) > 1e-9 {
				t.Fatalf("recoil direction not perpendicular: dot=%g", c.RecoilDirection.Dot(d))
			}
			if math.Abs(c.RecoilDirection.Len()-1) > 1e-9 {
				t.Fatalf("recoil direction not unit: %f", c.RecoilDirection.Len())
			}
		}
	}
}

func TestAmorphousSamplerDeterministic(t *testing.T) {
	s, _ := NewAmorphousSampler(0.05)
	a := rand.New(rand.NewPCG(7, 0))
	b := rand.New(rand.NewPCG(7, 0))
	dir := Vec3{0, 0, 1}

	for i := 0; i < 100; i++ {
		ca := s.Next(a, Vec3{}, dir)
		cb := s.Next(b, Vec3{}, dir)
		if ca != cb {
			t.Fatalf("draw %d differs: %+v vs %+v", i, ca, cb)
		}
	}
}

func TestPerpendicularAzimuth(t *testing.T) {
	dir := Vec3{0, 0, 1}
	u := Perpendicular(dir, 0)
	v := Perpendicular(dir, math.Pi/2)
	if math.Abs(u.Dot(v)) > 1e-12 {
		t.Errorf("azimuths 90 degrees apart should be orthogonal, dot=%g", u.Dot(v))
	}
	w := Perpendicular(dir, math.Pi)
	if u.Add(w).Len() > 1e-12 {
		t.Errorf("opposite azimuths should cancel, got %v", u.Add(w))
	}
}
