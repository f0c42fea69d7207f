package physics

import (
	"math"

	"github.com/san-kum/iontrim/internal/transport"
)

// StoppingModel is the continuous (electronic) energy-loss channel.
type StoppingModel interface {
	Name() string
	// EnergyLoss returns the loss over pathLength at energy. The result is in
	// [0, energy].
	EnergyLoss(energy, pathLength float64) float64
}

// Lindhard implements velocity-proportional electronic stopping,
// S_e = k*sqrt(E), with the Lindhard-Scharff coefficient scaled by a
// correction factor.
type Lindhard struct {
	factor float64 // k * density, eV^0.5 / A
}

// LindhardCoefficient returns k in eV^0.5 A^2 for the given pair.
func LindhardCoefficient(z1, m1, z2, correction float64) float64 {
	zsum := math.Pow(z1, 2.0/3.0) + math.Pow(z2, 2.0/3.0)
	return correction * 1.212 * math.Pow(z1, 7.0/6.0) * z2 / (math.Pow(zsum, 1.5) * math.Sqrt(m1))
}

func NewLindhard(cfg transport.PhysicsConfig) *Lindhard {
	k := LindhardCoefficient(cfg.Z1, cfg.M1, cfg.Z2, cfg.StoppingCorrection)
	return &Lindhard{factor: k * cfg.Density}
}

func (l *Lindhard) Name() string { return "lindhard" }

func (l *Lindhard) EnergyLoss(energy, pathLength float64) float64 {
	if energy <= 0 || pathLength <= 0 {
		return 0
	}
	return math.Min(l.factor*math.Sqrt(energy)*pathLength, energy)
}

// NoStopping disables electronic loss.
type NoStopping struct{}

func (NoStopping) Name() string                    { return "none" }
func (NoStopping) EnergyLoss(_, _ float64) float64 { return 0 }
