package geometry

import "math"

// Ray march parameters (Angstrom).
const (
	MarchStep        = 10.0
	MarchMaxDistance = 10000.0
	MarchRefinements = 10
)

// Container is the part of Geometry the ray march needs.
type Container interface {
	Contains(p Vec3) bool
}

// RayMarch steps from p along dir in MarchStep increments until containment
// flips, then bisects the last interval MarchRefinements times. The returned
// point lies on the far side of the crossing. The march never exceeds
// MarchMaxDistance.
func RayMarch(g Container, p, dir Vec3) (Vec3, float64, bool) {
	return march(g, p, dir, MarchStep, MarchMaxDistance, MarchRefinements)
}

func march(g Container, p, dir Vec3, step, maxDist float64, refinements int) (Vec3, float64, bool) {
	was := g.Contains(p)
	n := int(maxDist / step)

	for i := 1; i <= n; i++ {
		dist := float64(i) * step
		cur := p.Add(dir.Mul(dist))
		now := g.Contains(cur)
		if now == was {
			continue
		}

		back := p.Add(dir.Mul(dist - step))
		for j := 0; j < refinements; j++ {
			mid := cur.Add(back).Mul(0.5)
			if g.Contains(mid) == now {
				cur = mid
			} else {
				back = mid
			}
		}
		return cur, cur.Sub(p).Len(), true
	}

	return Vec3{}, math.Inf(1), false
}
