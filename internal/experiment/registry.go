package experiment

import (
	"errors"
	"fmt"
	"slices"

	"github.com/san-kum/iontrim/internal/physics"
	"github.com/san-kum/iontrim/internal/transport"
)

var ErrUnknownModel = errors.New("experiment: unknown model")

// Registry maps strategy names to constructors. Each run builds its own
// strategies from its own PhysicsConfig.
type Registry struct {
	stopping   map[string]func(transport.PhysicsConfig) physics.StoppingModel
	scattering map[string]func(transport.PhysicsConfig) physics.ScatteringKernel
}

func NewRegistry() *Registry {
	r := &Registry{
		stopping:   make(map[string]func(transport.PhysicsConfig) physics.StoppingModel),
		scattering: make(map[string]func(transport.PhysicsConfig) physics.ScatteringKernel),
	}

	r.stopping["lindhard"] = func(c transport.PhysicsConfig) physics.StoppingModel { return physics.NewLindhard(c) }
	r.stopping["none"] = func(transport.PhysicsConfig) physics.StoppingModel { return physics.NoStopping{} }

	r.scattering["magic"] = func(c transport.PhysicsConfig) physics.ScatteringKernel { return physics.NewMagic(c) }
	r.scattering["coulomb"] = func(c transport.PhysicsConfig) physics.ScatteringKernel { return physics.NewCoulomb(c) }

	return r
}

func (r *Registry) RegisterStopping(name string, fn func(transport.PhysicsConfig) physics.StoppingModel) {
	r.stopping[name] = fn
}

func (r *Registry) RegisterScattering(name string, fn func(transport.PhysicsConfig) physics.ScatteringKernel) {
	r.scattering[name] = fn
}

func (r *Registry) GetStopping(name string, cfg transport.PhysicsConfig) (physics.StoppingModel, error) {
	fn, ok := r.stopping[name]
	if !ok {
		return nil, transport.InvalidField("stopping_model", name, fmt.Errorf("%w: %s", ErrUnknownModel, name))
	}
	return fn(cfg), nil
}

func (r *Registry) GetScattering(name string, cfg transport.PhysicsConfig) (physics.ScatteringKernel, error) {
	fn, ok := r.scattering[name]
	if !ok {
		return nil, transport.InvalidField("scattering_model", name, fmt.Errorf("%w: %s", ErrUnknownModel, name))
	}
	return fn(cfg), nil
}

func (r *Registry) ListStopping() []string   { return sortedKeys(r.stopping) }
func (r *Registry) ListScattering() []string { return sortedKeys(r.scattering) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
