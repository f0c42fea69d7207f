package damage

import (
	"fmt"
	"math"
)

// DisplacementEnergies are threshold displacement energies (eV).
var DisplacementEnergies = map[string]float64{
	"Si":   15.0,
	"GaAs": 10.0,
	"SiO2": 20.0,
	"W":    90.0,
	"Cu":   30.0,
	"Fe":   40.0,
	"Al":   25.0,
	"Ni":   40.0,
	"Ti":   30.0,
	"C":    28.0,
}

// SurfaceBindingEnergies are used for sputtering estimates (eV).
var SurfaceBindingEnergies = map[string]float64{
	"Si": 4.7,
	"W":  8.8,
	"Cu": 3.5,
	"Fe": 4.3,
	"Al": 3.4,
	"Ti": 4.9,
	"C":  7.4,
}

// DefaultSurfaceBinding is used when a material has no tabulated value.
const DefaultSurfaceBinding = 4.0

// ConfigFor returns DefaultConfig with the tabulated displacement energy of
// material.
func ConfigFor(material string) (Config, error) {
	ed, ok := DisplacementEnergies[material]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrNoMaterial, material)
	}
	cfg := DefaultConfig()
	cfg.DisplacementEnergy = ed
	return cfg, nil
}

// SurfaceBinding looks up material, falling back to DefaultSurfaceBinding.
func SurfaceBinding(material string) float64 {
	if us, ok := SurfaceBindingEnergies[material]; ok {
		return us
	}
	return DefaultSurfaceBinding
}

// EstimateSputteringYield gives a rough Sigmund-type yield (atoms per ion).
func EstimateSputteringYield(energy, m1, m2, surfaceBinding float64) float64 {
	if surfaceBinding <= 0 || energy < surfaceBinding || m1 <= 0 || m2 <= 0 {
		return 0
	}
	lambda := m1 / (m1 + m2)
	alpha := 0.3 * math.Pow(m2/m1, 0.67)
	return math.Max(0, alpha*lambda*energy/surfaceBinding)
}
