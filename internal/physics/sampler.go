package physics

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/iontrim/internal/transport"
)

type Vec3 = transport.Vec3

// Collision describes the next collision partner relative to the projectile.
type Collision struct {
	FreePath        float64 // A
	ImpactParameter float64 // A
	// RecoilDirection is a unit vector perpendicular to the flight direction
	// pointing from the projectile path towards the target atom.
	RecoilDirection Vec3
}

// CollisionSampler draws the next collision. Implementations must keep no
// mutable state; all randomness comes from rng.
type CollisionSampler interface {
	Next(rng *rand.Rand, pos, dir Vec3) Collision
}

// AmorphousSampler treats the target as amorphous: the free path is the mean
// atomic spacing and impact parameters are uniform over the disc whose
// cylinder of length FreePath holds one atom on average.
type AmorphousSampler struct {
	FreePath float64
	MaxP     float64
}

func NewAmorphousSampler(density float64) (*AmorphousSampler, error) {
	if !transport.IsFinite(density) || density <= 0 {
		return nil, transport.NewConfigError("density", density, "must be positive")
	}
	l := math.Cbrt(1 / density)
	return &AmorphousSampler{FreePath: l, MaxP: l / math.Sqrt(math.Pi)}, nil
}

func (s *AmorphousSampler) Next(rng *rand.Rand, pos, dir Vec3) Collision {
	p := s.MaxP * math.Sqrt(rng.Float64())
	phi := 2 * math.Pi * rng.Float64()
	return Collision{
		FreePath:        s.FreePath,
		ImpactParameter: p,
		RecoilDirection: Perpendicular(dir, phi),
	}
}

// Perpendicular returns the unit vector normal to dir at azimuth phi.
func Perpendicular(dir Vec3, phi float64) Vec3 {
	k := 0
	for i := 1; i < 3; i++ {
		if math.Abs(dir[i]) < math.Abs(dir[k]) {
			k = i
		}
	}
	var axis Vec3
	axis[k] = 1

	u := dir.Cross(axis).Normalize()
	w := dir.Cross(u)
	s, c := math.Sincos(phi)
	return u.Mul(c).Add(w.Mul(s))
}
