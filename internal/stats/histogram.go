package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram holds len(Edges)-1 bins; bin i covers [Edges[i], Edges[i+1]).
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []float64 `json:"counts"`
}

// NewHistogram bins values into n equal-width bins spanning [lo, hi]. Values
// outside the span are dropped.
func NewHistogram(values []float64, n int, lo, hi float64) Histogram {
	if n < 1 {
		n = 1
	}
	if !(hi > lo) {
		hi = lo + 1
	}
	edges := floats.Span(make([]float64, n+1), lo, hi)
	// the last bin is closed
	edges[n] = math.Nextafter(hi, math.Inf(1))

	in := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v <= hi {
			in = append(in, v)
		}
	}
	sort.Float64s(in)

	counts := make([]float64, n)
	if len(in) > 0 {
		stat.Histogram(counts, edges, in, nil)
	}
	edges[n] = hi
	return Histogram{Edges: edges, Counts: counts}
}

// DepthHistogram bins values over their own range.
func DepthHistogram(values []float64, n int) Histogram {
	if len(values) == 0 {
		return NewHistogram(nil, n, 0, 1)
	}
	return NewHistogram(values, n, floats.Min(values), floats.Max(values))
}

// Centers returns the midpoint of each bin.
func (h Histogram) Centers() []float64 {
	c := make([]float64, len(h.Counts))
	for i := range c {
		c[i] = 0.5 * (h.Edges[i] + h.Edges[i+1])
	}
	return c
}

// Total is the number of binned values.
func (h Histogram) Total() float64 { return floats.Sum(h.Counts) }
