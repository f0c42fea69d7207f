package config

import (
	"slices"
	"strings"
)

// Preset is a common projectile/target combination.
type Preset struct {
	Name        string
	Description string
	Projectile  string
	Target      string

	Z1, M1, Z2, M2 float64
	Density        float64
	Energy         float64
	Correction     float64
	ZMin, ZMax     float64
}

var Presets = map[string]Preset{
	"B in Si": {
		Name: "B in Si", Description: "Boron implantation in Silicon (Standard PMOS)",
		Projectile: "B", Target: "Si",
		Z1: 5, M1: 11.009, Z2: 14, M2: 28.086, Density: 0.04994,
		Energy: 50000, Correction: 1.5, ZMax: 4000,
	},
	"As in Si": {
		Name: "As in Si", Description: "Arsenic implantation in Silicon (NMOS source/drain)",
		Projectile: "As", Target: "Si",
		Z1: 33, M1: 74.922, Z2: 14, M2: 28.086, Density: 0.04994,
		Energy: 80000, Correction: 1.5, ZMax: 3000,
	},
	"P in Si": {
		Name: "P in Si", Description: "Phosphorus implantation in Silicon (NMOS)",
		Projectile: "P", Target: "Si",
		Z1: 15, M1: 30.974, Z2: 14, M2: 28.086, Density: 0.04994,
		Energy: 60000, Correction: 1.5, ZMax: 3500,
	},
	"BF2 in Si": {
		Name: "BF2 in Si", Description: "BF2 molecular implantation in Silicon (Shallow junctions)",
		Projectile: "BF2", Target: "Si",
		Z1: 5, M1: 49.0, Z2: 14, M2: 28.086, Density: 0.04994,
		Energy: 40000, Correction: 1.5, ZMax: 2000,
	},
	"Ga in GaN": {
		Name: "Ga in GaN", Description: "Gallium implantation in Gallium Nitride",
		Projectile: "Ga", Target: "GaN",
		Z1: 31, M1: 69.723, Z2: 31, M2: 69.723, Density: 0.08838,
		Energy: 100000, Correction: 1.5, ZMax: 2500,
	},
	"He in W": {
		Name: "He in W", Description: "Helium implantation in Tungsten (Plasma-wall interaction)",
		Projectile: "He", Target: "W",
		Z1: 2, M1: 4.003, Z2: 74, M2: 183.84, Density: 0.06306,
		Energy: 20000, Correction: 1.5, ZMax: 1500,
	},
	"Ar in Cu": {
		Name: "Ar in Cu", Description: "Argon implantation in Copper (Surface modification)",
		Projectile: "Ar", Target: "Cu",
		Z1: 18, M1: 39.948, Z2: 29, M2: 63.546, Density: 0.08491,
		Energy: 50000, Correction: 1.5, ZMax: 2000,
	},
	"N in Ti": {
		Name: "N in Ti", Description: "Nitrogen implantation in Titanium (TiN formation)",
		Projectile: "N", Target: "Ti",
		Z1: 7, M1: 14.007, Z2: 22, M2: 47.867, Density: 0.05662,
		Energy: 35000, Correction: 1.5, ZMax: 2500,
	},
}

// Apply copies the preset onto cfg.
func (p Preset) Apply(cfg *Config) {
	cfg.ProjectileZ, cfg.ProjectileM = p.Z1, p.M1
	cfg.TargetZ, cfg.TargetM = p.Z2, p.M2
	cfg.Density = p.Density
	cfg.InitialEnergy = p.Energy
	cfg.StoppingCorrection = p.Correction
	cfg.GeometryType = "planar"
	cfg.GeometryParams = nil
	cfg.ZMin, cfg.ZMax = p.ZMin, p.ZMax
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
// Names match case-insensitively.
func GetPreset(name string) *Config {
	for key, p := range Presets {
		if strings.EqualFold(key, name) {
			cfg := DefaultConfig()
			p.Apply(cfg)
			return cfg
		}
	}
	return nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
