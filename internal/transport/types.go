package transport

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a position or direction in Angstrom space.
type Vec3 = mgl64.Vec3

// DefaultMinEnergy is the energy (eV) below which an ion is considered stopped.
const DefaultMinEnergy = 5.0

// PhysicsConfig describes the projectile/target pair. It is set once per run.
type PhysicsConfig struct {
	Z1 float64 // projectile atomic number
	M1 float64 // projectile mass (amu)
	Z2 float64 // target atomic number
	M2 float64 // target mass (amu)

	Density            float64 // atoms/A^3
	StoppingCorrection float64 // Lindhard correction factor
	MinEnergy          float64 // eV
}

// Validate reports the first inconsistent field as a *ConfigError.
func (c PhysicsConfig) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"projectile_z", c.Z1},
		{"projectile_m", c.M1},
		{"target_z", c.Z2},
		{"target_m", c.M2},
		{"density", c.Density},
		{"min_energy", c.MinEnergy},
	}
	for _, f := range fields {
		if !IsFinite(f.v) {
			return InvalidField(f.name, f.v, ErrNonFinite)
		}
		if f.v <= 0 {
			return NewConfigError(f.name, f.v, "must be positive")
		}
	}
	if !IsFinite(c.StoppingCorrection) || c.StoppingCorrection < 0 {
		return NewConfigError("stopping_correction", c.StoppingCorrection, "must be finite and non-negative")
	}
	return nil
}

// MaxTransferFraction is the head-on kinematic factor 4*M1*M2/(M1+M2)^2.
func (c PhysicsConfig) MaxTransferFraction() float64 {
	s := c.M1 + c.M2
	return 4 * c.M1 * c.M2 / (s * s)
}

// ProjectileState is the mutable state of one ion.
type ProjectileState struct {
	Position  Vec3
	Direction Vec3
	Energy    float64
}

// NewProjectileState normalizes dir and validates energy.
func NewProjectileState(pos, dir Vec3, energy float64) (ProjectileState, error) {
	if !VecFinite(pos) {
		return ProjectileState{}, InvalidField("initial_position", pos, ErrNonFinite)
	}
	unit, err := Normalize(dir)
	if err != nil {
		return ProjectileState{}, InvalidField("initial_direction", dir, err)
	}
	if !IsFinite(energy) || energy <= 0 {
		return ProjectileState{}, NewConfigError("initial_energy", energy, "must be positive")
	}
	return ProjectileState{Position: pos, Direction: unit, Energy: energy}, nil
}

// IsValid reports whether every component is finite.
func (s ProjectileState) IsValid() bool {
	return VecFinite(s.Position) && VecFinite(s.Direction) && IsFinite(s.Energy)
}

// Normalize returns v scaled to unit length, or ErrZeroDirection.
func Normalize(v Vec3) (Vec3, error) {
	l := v.Len()
	if l == 0 || !IsFinite(l) {
		return Vec3{}, ErrZeroDirection
	}
	return v.Mul(1 / l), nil
}

// Renormalize re-projects an almost-unit vector onto the unit sphere. A
// degenerate input is returned unchanged.
func Renormalize(v Vec3) Vec3 {
	u, err := Normalize(v)
	if err != nil {
		return v
	}
	return u
}

func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func VecFinite(v Vec3) bool {
	return IsFinite(v[0]) && IsFinite(v[1]) && IsFinite(v[2])
}

// Outcome is the terminal classification of one ion.
type Outcome int

const (
	StoppedInside Outcome = iota
	Backscattered
	Transmitted
	// Anomalous ions hit a numerical guard and are kept out of statistics.
	Anomalous
)

func (o Outcome) String() string {
	switch o {
	case StoppedInside:
		return "stopped"
	case Backscattered:
		return "backscattered"
	case Transmitted:
		return "transmitted"
	case Anomalous:
		return "anomalous"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for _, c := range []Outcome{StoppedInside, Backscattered, Transmitted, Anomalous} {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("transport: unknown outcome %q", b)
}

// ClassifyExit decides between Backscattered and Transmitted for an ion that
// left the target at exit after starting at origin with direction beam. An ion
// that ends up behind its starting plane is backscattered.
func ClassifyExit(origin, beam, exit Vec3) Outcome {
	if exit.Sub(origin).Dot(beam) < 0 {
		return Backscattered
	}
	return Transmitted
}
