package config

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/iontrim/internal/damage"
	"github.com/san-kum/iontrim/internal/geometry"
	"github.com/san-kum/iontrim/internal/transport"
)

const (
	DefaultIons        = 1000
	DefaultEnergy      = 50000.0
	DefaultCorrection  = 1.5
	DefaultMaxRecorded = 100
	DefaultZMax        = 4000.0
)

type Config struct {
	ProjectileZ        float64 `yaml:"projectile_z" toml:"projectile_z" json:"projectile_z"`
	ProjectileM        float64 `yaml:"projectile_m" toml:"projectile_m" json:"projectile_m"`
	TargetZ            float64 `yaml:"target_z" toml:"target_z" json:"target_z"`
	TargetM            float64 `yaml:"target_m" toml:"target_m" json:"target_m"`
	Density            float64 `yaml:"density" toml:"density" json:"density"`
	StoppingCorrection float64 `yaml:"stopping_correction" toml:"stopping_correction" json:"stopping_correction"`
	MinEnergy          float64 `yaml:"min_energy" toml:"min_energy" json:"min_energy"`

	InitialEnergy    float64    `yaml:"initial_energy" toml:"initial_energy" json:"initial_energy"`
	InitialPosition  [3]float64 `yaml:"initial_position" toml:"initial_position" json:"initial_position"`
	InitialDirection [3]float64 `yaml:"initial_direction" toml:"initial_direction" json:"initial_direction"`
	IonCount         int        `yaml:"ion_count" toml:"ion_count" json:"ion_count"`

	GeometryType   string          `yaml:"geometry_type" toml:"geometry_type" json:"geometry_type"`
	GeometryParams geometry.Params `yaml:"geometry_params,omitempty" toml:"geometry_params,omitempty" json:"geometry_params,omitempty"`
	ZMin           float64         `yaml:"z_min" toml:"z_min" json:"z_min"`
	ZMax           float64         `yaml:"z_max" toml:"z_max" json:"z_max"`

	StoppingModel   string `yaml:"stopping_model" toml:"stopping_model" json:"stopping_model"`
	ScatteringModel string `yaml:"scattering_model" toml:"scattering_model" json:"scattering_model"`

	Seed               uint64 `yaml:"seed" toml:"seed" json:"seed"`
	Workers            int    `yaml:"workers" toml:"workers" json:"workers"`
	RecordTrajectories bool   `yaml:"record_trajectories" toml:"record_trajectories" json:"record_trajectories"`
	MaxRecorded        int    `yaml:"max_recorded" toml:"max_recorded" json:"max_recorded"`
	MaxSteps           int    `yaml:"max_steps" toml:"max_steps" json:"max_steps"`

	Damage *damage.Config `yaml:"damage,omitempty" toml:"damage,omitempty" json:"damage,omitempty"`
}

// DefaultConfig is boron into a 4000 A silicon slab at 50 keV.
func DefaultConfig() *Config {
	return &Config{
		ProjectileZ:        5,
		ProjectileM:        11.009,
		TargetZ:            14,
		TargetM:            28.086,
		Density:            0.04994,
		StoppingCorrection: DefaultCorrection,
		MinEnergy:          transport.DefaultMinEnergy,
		InitialEnergy:      DefaultEnergy,
		InitialDirection:   [3]float64{0, 0, 1},
		IonCount:           DefaultIons,
		GeometryType:       "planar",
		ZMin:               0,
		ZMax:               DefaultZMax,
		StoppingModel:      "lindhard",
		ScatteringModel:    "magic",
		MaxRecorded:        DefaultMaxRecorded,
		MaxSteps:           1_000_000,
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.GeometryParams = maps.Clone(c.GeometryParams)
	if c.Damage != nil {
		d := *c.Damage
		out.Damage = &d
	}
	return &out
}

func (c *Config) Physics() transport.PhysicsConfig {
	return transport.PhysicsConfig{
		Z1:                 c.ProjectileZ,
		M1:                 c.ProjectileM,
		Z2:                 c.TargetZ,
		M2:                 c.TargetM,
		Density:            c.Density,
		StoppingCorrection: c.StoppingCorrection,
		MinEnergy:          c.MinEnergy,
	}
}

func (c *Config) InitialState() (transport.ProjectileState, error) {
	return transport.NewProjectileState(
		transport.Vec3(c.InitialPosition),
		transport.Vec3(c.InitialDirection),
		c.InitialEnergy,
	)
}

// GeometryParamsWithDefaults fills z_min/z_max from ZMin/ZMax when the
// parameter map does not set them.
func (c *Config) GeometryParamsWithDefaults() geometry.Params {
	p := geometry.Params{}
	maps.Copy(p, c.GeometryParams)
	if _, ok := p["z_min"]; !ok {
		p["z_min"] = c.ZMin
	}
	if _, ok := p["z_max"]; !ok {
		p["z_max"] = c.ZMax
	}
	return p
}

func (c *Config) Geometry() (geometry.Geometry, error) {
	return geometry.FromParams(c.GeometryType, c.GeometryParamsWithDefaults())
}

// Validate reports the first configuration problem. Every error matches
// transport.ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Physics().Validate(); err != nil {
		return err
	}
	if _, err := c.InitialState(); err != nil {
		return err
	}
	if c.IonCount < 0 {
		return transport.NewConfigError("ion_count", c.IonCount, "must be non-negative")
	}
	if c.Workers < 0 {
		return transport.NewConfigError("workers", c.Workers, "must be non-negative")
	}
	if c.MaxRecorded < 0 {
		return transport.NewConfigError("max_recorded", c.MaxRecorded, "must be non-negative")
	}
	if c.MaxSteps <= 0 {
		return transport.NewConfigError("max_steps", c.MaxSteps, "must be positive")
	}
	if c.StoppingModel == "" {
		return transport.NewConfigError("stopping_model", c.StoppingModel, "required")
	}
	if c.ScatteringModel == "" {
		return transport.NewConfigError("scattering_model", c.ScatteringModel, "required")
	}
	if c.Damage != nil {
		if err := c.Damage.Validate(); err != nil {
			return err
		}
	}
	_, err := c.Geometry()
	return err
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads YAML, or TOML for a .toml extension, over DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
