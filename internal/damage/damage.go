// Package damage records displacement damage produced by the primary ion.
//
// A Recorder sits behind the trajectory engine as a collision observer. Every
// transfer above the displacement threshold leaves a vacancy; transfers that
// are also above the tracking threshold yield a RecoilEvent that a caller may
// follow as a secondary cascade. The package itself never recurses.
package damage

import (
	"errors"

	"github.com/san-kum/iontrim/internal/stats"
	"github.com/san-kum/iontrim/internal/transport"
)

type Vec3 = transport.Vec3

var ErrNoMaterial = errors.New("damage: unknown material")

// Config holds the thresholds of one target material.
type Config struct {
	DisplacementEnergy float64 `yaml:"displacement_energy" toml:"displacement_energy" json:"displacement_energy"`
	MaxCascadeDepth    int     `yaml:"max_cascade_depth" toml:"max_cascade_depth" json:"max_cascade_depth"`
	MinRecoilEnergy    float64 `yaml:"min_recoil_energy" toml:"min_recoil_energy" json:"min_recoil_energy"`
}

func DefaultConfig() Config {
	return Config{
		DisplacementEnergy: 25.0,
		MaxCascadeDepth:    5,
		MinRecoilEnergy:    10.0,
	}
}

func (c Config) Validate() error {
	if !transport.IsFinite(c.DisplacementEnergy) || c.DisplacementEnergy <= 0 {
		return transport.NewConfigError("displacement_energy", c.DisplacementEnergy, "must be positive")
	}
	if !transport.IsFinite(c.MinRecoilEnergy) || c.MinRecoilEnergy < 0 {
		return transport.NewConfigError("min_recoil_energy", c.MinRecoilEnergy, "must be non-negative")
	}
	if c.MaxCascadeDepth < 0 {
		return transport.NewConfigError("max_cascade_depth", c.MaxCascadeDepth, "must be non-negative")
	}
	return nil
}

// RecoilEvent is a displaced target atom energetic enough to be followed.
type RecoilEvent struct {
	Position      Vec3    `json:"position"`
	Energy        float64 `json:"energy"`
	Direction     Vec3    `json:"direction"`
	PrimaryEnergy float64 `json:"primary_energy"`
	Generation    int     `json:"generation"`
}

// Recorder is not safe for concurrent use. Parallel runs keep one per worker
// and Merge them afterwards.
type Recorder struct {
	cfg Config

	Vacancies     []Vec3
	Interstitials []Vec3
	Events        []RecoilEvent
	// Deposited is the total energy handed to target atoms (eV).
	Deposited float64
}

func NewRecorder(cfg Config) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Recorder{cfg: cfg}, nil
}

func (r *Recorder) Config() Config { return r.cfg }

func (r *Recorder) IsDisplacement(transferred float64) bool {
	return transferred > r.cfg.DisplacementEnergy
}

func (r *Recorder) IsTrackable(transferred float64) bool {
	return transferred > r.cfg.MinRecoilEnergy
}

// RegisterCollision records the damage of one collision and returns the recoil
// to follow, or nil.
func (r *Recorder) RegisterCollision(pos Vec3, incoming, transferred float64, dir Vec3, generation int) *RecoilEvent {
	r.Deposited += transferred
	if !r.IsDisplacement(transferred) {
		return nil
	}
	r.Vacancies = append(r.Vacancies, pos)

	if !r.IsTrackable(transferred) || generation >= r.cfg.MaxCascadeDepth {
		return nil
	}
	ev := RecoilEvent{
		Position:      pos,
		Energy:        transferred,
		Direction:     dir,
		PrimaryEnergy: incoming,
		Generation:    generation,
	}
	r.Events = append(r.Events, ev)
	return &ev
}

// OnCollision registers a primary-ion collision.
func (r *Recorder) OnCollision(pos Vec3, incoming, transferred float64, dir Vec3) {
	r.RegisterCollision(pos, incoming, transferred, dir, 0)
}

// RegisterRecoilStop records where a followed recoil came to rest.
func (r *Recorder) RegisterRecoilStop(pos Vec3) {
	r.Interstitials = append(r.Interstitials, pos)
}

// Merge appends o's records after r's.
func (r *Recorder) Merge(o *Recorder) {
	if o == nil {
		return
	}
	r.Vacancies = append(r.Vacancies, o.Vacancies...)
	r.Interstitials = append(r.Interstitials, o.Interstitials...)
	r.Events = append(r.Events, o.Events...)
	r.Deposited += o.Deposited
}

func (r *Recorder) Reset() {
	r.Vacancies = nil
	r.Interstitials = nil
	r.Events = nil
	r.Deposited = 0
}

// Statistics summarizes a Recorder.
type Statistics struct {
	Vacancies        int     `json:"total_vacancies"`
	Interstitials    int     `json:"total_interstitials"`
	RecoilEvents     int     `json:"total_recoil_events"`
	MaxGeneration    int     `json:"max_generation"`
	GenerationCounts []int   `json:"generation_counts"`
	FrenkelPairs     int     `json:"frenkel_pairs"`
	Deposited        float64 `json:"deposited_energy"`
}

func (r *Recorder) Statistics() Statistics {
	s := Statistics{
		Vacancies:     len(r.Vacancies),
		Interstitials: len(r.Interstitials),
		RecoilEvents:  len(r.Events),
		FrenkelPairs:  min(len(r.Vacancies), len(r.Interstitials)),
		Deposited:     r.Deposited,
	}
	for _, e := range r.Events {
		s.MaxGeneration = max(s.MaxGeneration, e.Generation)
	}
	if len(r.Events) > 0 {
		s.GenerationCounts = make([]int, s.MaxGeneration+1)
		for _, e := range r.Events {
			s.GenerationCounts[e.Generation]++
		}
	}
	return s
}

// DPAProfile returns displacements per atom against depth over [zmin, zmax]
// for a unit lateral cross-section.
func (r *Recorder) DPAProfile(density, zmin, zmax float64, bins int) (centers, dpa []float64) {
	depths := make([]float64, len(r.Vacancies))
	for i, v := range r.Vacancies {
		depths[i] = v[2]
	}
	h := stats.NewHistogram(depths, bins, zmin, zmax)

	centers = h.Centers()
	dpa = make([]float64, len(h.Counts))
	if density <= 0 {
		return centers, dpa
	}
	width := h.Edges[1] - h.Edges[0]
	atoms := density * width
	for i, c := range h.Counts {
		dpa[i] = c / atoms
	}
	return centers, dpa
}
