// Package stats accumulates streaming moments of stopped-ion positions.
package stats

import (
	"math"

	"github.com/san-kum/iontrim/internal/transport"
)

// Running keeps count, sum and sum of squares of one scalar. The zero value
// is ready to use.
type Running struct {
	N     int
	Sum   float64
	SumSq float64
}

func (r *Running) Observe(x float64) {
	r.N++
	r.Sum += x
	r.SumSq += x * x
}

func (r *Running) Merge(o Running) {
	r.N += o.N
	r.Sum += o.Sum
	r.SumSq += o.SumSq
}

func (r *Running) Reset() { *r = Running{} }

func (r Running) Mean() float64 {
	if r.N == 0 {
		return 0
	}
	return r.Sum / float64(r.N)
}

// Std is the population standard deviation. The variance is clamped at zero
// against cancellation.
func (r Running) Std() float64 {
	if r.N == 0 {
		return 0
	}
	m := r.Mean()
	return math.Sqrt(math.Max(0, r.SumSq/float64(r.N)-m*m))
}

// Moments tracks x, y, z and the lateral radius r = sqrt(x^2+y^2).
type Moments struct {
	X, Y, Z, R Running
}

func (m *Moments) Observe(p transport.Vec3) {
	m.X.Observe(p[0])
	m.Y.Observe(p[1])
	m.Z.Observe(p[2])
	m.R.Observe(math.Hypot(p[0], p[1]))
}

func (m *Moments) Merge(o Moments) {
	m.X.Merge(o.X)
	m.Y.Merge(o.Y)
	m.Z.Merge(o.Z)
	m.R.Merge(o.R)
}

func (m *Moments) Count() int { return m.Z.N }

// Axis is a finalized mean and standard deviation.
type Axis struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Summary is the finalized view of Moments.
type Summary struct {
	Count int  `json:"count"`
	X     Axis `json:"x"`
	Y     Axis `json:"y"`
	Z     Axis `json:"z"`
	R     Axis `json:"r"`
}

func (m *Moments) Summary() Summary {
	axis := func(r Running) Axis { return Axis{Mean: r.Mean(), Std: r.Std()} }
	return Summary{
		Count: m.Count(),
		X:     axis(m.X),
		Y:     axis(m.Y),
		Z:     axis(m.Z),
		R:     axis(m.R),
	}
}
