package geometry

import (
	"fmt"
	"strings"

	"github.com/san-kum/iontrim/internal/transport"
)

// Params is the free-form parameter map of the configuration object.
type Params map[string]any

// FromParams parses tag and params into a Spec and builds the geometry.
func FromParams(tag string, params Params) (Geometry, error) {
	spec, err := SpecFromParams(tag, params)
	if err != nil {
		return nil, err
	}
	return New(spec)
}

// SpecFromParams converts the configuration form into a Spec. Unknown tags
// fail here, before any geometry is used.
func SpecFromParams(tag string, params Params) (Spec, error) {
	kind, err := ParseKind(tag)
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Kind: kind, X: Unbounded, Y: Unbounded}

	switch kind {
	case KindPlanar:
		spec.Z, err = params.rng("z", true)
	case KindBox:
		if spec.X, err = params.rng("x", true); err != nil {
			return spec, err
		}
		if spec.Y, err = params.rng("y", true); err != nil {
			return spec, err
		}
		spec.Z, err = params.rng("z", true)
	case KindCylinder:
		if spec.Radius, err = params.float("radius", true, 0); err != nil {
			return spec, err
		}
		if spec.Center[0], err = params.float("center_x", false, 0); err != nil {
			return spec, err
		}
		if spec.Center[1], err = params.float("center_y", false, 0); err != nil {
			return spec, err
		}
		spec.Z, err = params.rng("z", true)
	case KindSphere:
		if spec.Radius, err = params.float("radius", true, 0); err != nil {
			return spec, err
		}
		for i, k := range []string{"center_x", "center_y", "center_z"} {
			if spec.Center[i], err = params.float(k, false, 0); err != nil {
				return spec, err
			}
		}
	case KindMultiLayer:
		if spec.Boundaries, err = params.floats("layer_z_positions"); err != nil {
			return spec, err
		}
		if spec.X, err = params.rng("x", false); err != nil {
			return spec, err
		}
		spec.Y, err = params.rng("y", false)
	}
	return spec, err
}

// rng reads <axis>_min and <axis>_max. Optional ranges default to Unbounded
// on each missing side.
func (p Params) rng(axis string, required bool) (Range, error) {
	lo, err := p.float(axis+"_min", required, Unbounded.Min)
	if err != nil {
		return Range{}, err
	}
	hi, err := p.float(axis+"_max", required, Unbounded.Max)
	if err != nil {
		return Range{}, err
	}
	return Range{lo, hi}, nil
}

func (p Params) lookup(key string) (any, bool) {
	if v, ok := p[key]; ok {
		return v, true
	}
	for k, v := range p {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func (p Params) float(key string, required bool, def float64) (float64, error) {
	v, ok := p.lookup(key)
	if !ok {
		if required {
			return 0, transport.InvalidField(key, nil, ErrMissingParam)
		}
		return def, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, transport.NewConfigError(key, v, "not a number")
	}
	return f, nil
}

func (p Params) floats(key string) ([]float64, error) {
	v, ok := p.lookup(key)
	if !ok {
		return nil, transport.InvalidField(key, nil, ErrMissingParam)
	}
	switch list := v.(type) {
	case []float64:
		out := make([]float64, len(list))
		copy(out, list)
		return out, nil
	case []int:
		out := make([]float64, len(list))
		for i, n := range list {
			out[i] = float64(n)
		}
		return out, nil
	case []any:
		out := make([]float64, len(list))
		for i, e := range list {
			f, ok := toFloat(e)
			if !ok {
				return nil, transport.NewConfigError(key, v, fmt.Sprintf("element %d is not a number", i))
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, transport.NewConfigError(key, v, "not a list of numbers")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
