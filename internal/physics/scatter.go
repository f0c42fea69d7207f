package physics

import (
	"math"

	"github.com/san-kum/iontrim/internal/transport"
)

const (
	// BohrRadius in A.
	BohrRadius = 0.52917721
	// CoulombE2 is e^2/(4*pi*eps0) in eV*A.
	CoulombE2 = 14.399645
)

// ScatterResult is the outcome of one elastic collision.
type ScatterResult struct {
	Direction       Vec3
	Energy          float64
	RecoilEnergy    float64
	RecoilDirection Vec3
	// Theta is the center-of-mass scattering angle.
	Theta float64
}

// ScatteringKernel computes one binary collision. Energy is conserved:
// RecoilEnergy lies in [0, gamma*energy] and Energy = energy - RecoilEnergy.
type ScatteringKernel interface {
	Name() string
	Scatter(energy float64, dir Vec3, impact float64, recoilDir Vec3) ScatterResult
}

// kinematics turns a center-of-mass angle into lab-frame directions and
// energies.
type kinematics struct {
	gamma     float64 // 4*M1*M2/(M1+M2)^2
	massRatio float64 // M1/M2
}

func newKinematics(cfg transport.PhysicsConfig) kinematics {
	return kinematics{gamma: cfg.MaxTransferFraction(), massRatio: cfg.M1 / cfg.M2}
}

// apply takes cos(Theta/2) and builds the result.
func (k kinematics) apply(energy float64, dir Vec3, recoilDir Vec3, cosHalf float64) ScatterResult {
	cosHalf = clamp(cosHalf, 0, 1)
	sinHalf := math.Sqrt(1 - cosHalf*cosHalf)

	transfer := clamp(k.gamma*energy*sinHalf*sinHalf, 0, k.gamma*energy)

	cosTheta := 2*cosHalf*cosHalf - 1
	sinTheta := 2 * sinHalf * cosHalf
	theta1 := math.Atan2(sinTheta, cosTheta+k.massRatio)
	s1, c1 := math.Sincos(theta1)

	// recoil leaves at (pi - Theta)/2, i.e. cos = sin(Theta/2)
	out := dir.Mul(c1).Sub(recoilDir.Mul(s1))
	recoil := dir.Mul(sinHalf).Add(recoilDir.Mul(cosHalf))

	return ScatterResult{
		Direction:       transport.Renormalize(out),
		Energy:          energy - transfer,
		RecoilEnergy:    transfer,
		RecoilDirection: transport.Renormalize(recoil),
		Theta:           2 * math.Acos(cosHalf),
	}
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return hi
	}
	return math.Max(lo, math.Min(hi, x))
}

// ZBL universal screening function coefficients.
var (
	zblC = [4]float64{0.18175, 0.50986, 0.28022, 0.028171}
	zblD = [4]float64{3.1998, 0.94229, 0.4029, 0.20162}
)

// MAGIC fitting constants for the ZBL potential.
const (
	magicC1 = 0.99229
	magicC2 = 0.011615
	magicC3 = 0.0071222
	magicC4 = 9.3066
	magicC5 = 14.813
)

const (
	newtonMaxIter = 100
	newtonTol     = 1e-10
)

// Magic evaluates the screened-Coulomb scattering angle with the
// Biersack-Haggmark MAGIC formula for the ZBL universal potential.
type Magic struct {
	kinematics
	screening float64 // A
	epsFactor float64 // reduced energy per eV
}

func NewMagic(cfg transport.PhysicsConfig) *Magic {
	a := 0.8854 * BohrRadius / (math.Pow(cfg.Z1, 0.23) + math.Pow(cfg.Z2, 0.23))
	return &Magic{
		kinematics: newKinematics(cfg),
		screening:  a,
		epsFactor:  a * cfg.M2 / ((cfg.M1 + cfg.M2) * cfg.Z1 * cfg.Z2 * CoulombE2),
	}
}

func (m *Magic) Name() string { return "magic" }

// ScreeningLength returns the universal screening length in A.
func (m *Magic) ScreeningLength() float64 { return m.screening }

// ReducedEnergy converts a lab energy in eV.
func (m *Magic) ReducedEnergy(energy float64) float64 { return energy * m.epsFactor }

func (m *Magic) Scatter(energy float64, dir Vec3, impact float64, recoilDir Vec3) ScatterResult {
	eps := m.ReducedEnergy(energy)
	b := math.Max(impact, 0) / m.screening
	return m.apply(energy, dir, recoilDir, m.cosHalf(eps, b))
}

// zbl returns V(R) = phi(R)/R and dV/dR in reduced units.
func zbl(r float64) (v, dv float64) {
	var phi, dphi float64
	for i := range zblC {
		e := zblC[i] * math.Exp(-zblD[i]*r)
		phi += e
		dphi -= zblD[i] * e
	}
	v = phi / r
	dv = dphi/r - phi/(r*r)
	return v, dv
}

// closestApproach solves 1 - V(R)/eps - (b/R)^2 = 0 by Newton iteration,
// starting from the unscreened Coulomb value which bounds the root from above.
func closestApproach(eps, b float64) float64 {
	r := 1/(2*eps) + math.Sqrt(1/(4*eps*eps)+b*b)
	for i := 0; i < newtonMaxIter; i++ {
		v, dv := zbl(r)
		f := 1 - v/eps - (b*b)/(r*r)
		df := -dv/eps + 2*b*b/(r*r*r)
		if df <= 0 || !transport.IsFinite(df) {
			break
		}
		next := r - f/df
		if next <= 0 {
			next = r / 2
		}
		if math.Abs(next-r) < newtonTol*r {
			return next
		}
		r = next
	}
	return r
}

func (m *Magic) cosHalf(eps, b float64) float64 {
	if eps <= 0 || !transport.IsFinite(eps) {
		return 1
	}
	if b == 0 {
		return 0
	}
	r0 := closestApproach(eps, b)
	v, dv := zbl(r0)
	if dv >= 0 || !transport.IsFinite(dv) {
		return 1
	}
	rho := -2 * (eps - v) / dv

	sqe := math.Sqrt(eps)
	alpha := 1 + magicC1/sqe
	beta := (magicC2 + sqe) / (magicC3 + sqe)
	gamma := (magicC4 + eps) / (magicC5 + eps)
	a := 2 * alpha * eps * math.Pow(b, beta)
	// 1 / (gamma*(sqrt(1+a^2) - a)) without the cancellation
	g := (math.Sqrt(1+a*a) + a) / gamma
	delta := a * (r0 - b) / (1 + g)

	return (b + rho + delta) / (r0 + rho)
}

// Coulomb uses unscreened Rutherford scattering, tan(Theta/2) = b0/(2p).
type Coulomb struct {
	kinematics
	z1z2e2  float64
	cmRatio float64 // M2/(M1+M2)
}

func NewCoulomb(cfg transport.PhysicsConfig) *Coulomb {
	return &Coulomb{
		kinematics: newKinematics(cfg),
		z1z2e2:     cfg.Z1 * cfg.Z2 * CoulombE2,
		cmRatio:    cfg.M2 / (cfg.M1 + cfg.M2),
	}
}

func (c *Coulomb) Name() string { return "coulomb" }

func (c *Coulomb) Scatter(energy float64, dir Vec3, impact float64, recoilDir Vec3) ScatterResult {
	b0 := c.z1z2e2 / (energy * c.cmRatio)
	p2 := 2 * math.Max(impact, 0)
	// cos(Theta/2) = 2p / sqrt(b0^2 + 4p^2); p = 0 gives a head-on collision
	cosHalf := p2 / math.Hypot(b0, p2)
	if !transport.IsFinite(cosHalf) {
		cosHalf = 1
	}
	return c.apply(energy, dir, recoilDir, cosHalf)
}
