package geometry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/iontrim/internal/transport"
)

type Vec3 = transport.Vec3

var (
	// ErrUnknownKind indicates a geometry tag outside the five supported kinds.
	ErrUnknownKind = errors.New("geometry: unknown geometry type")

	// ErrMissingParam indicates a required geometry parameter was not given.
	ErrMissingParam = errors.New("geometry: missing parameter")
)

// Kind tags the geometry variant.
type Kind int

const (
	KindPlanar Kind = iota
	KindBox
	KindCylinder
	KindSphere
	KindMultiLayer
)

var kindNames = [...]string{
	KindPlanar:     "planar",
	KindBox:        "box",
	KindCylinder:   "cylinder",
	KindSphere:     "sphere",
	KindMultiLayer: "multilayer",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a configuration tag to a Kind. Matching is case-insensitive.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return 0, transport.InvalidField("geometry_type", name, ErrUnknownKind)
}

// Kinds lists the supported tags in declaration order.
func Kinds() []string {
	out := make([]string, len(kindNames))
	copy(out, kindNames[:])
	return out
}

// AABB is an axis-aligned bounding box. Unbounded axes use +/-Inf.
type AABB struct {
	Min, Max Vec3
}

// Contains reports whether p lies within the box, bounds included.
func (b AABB) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Geometry is the capability set shared by every target shape.
type Geometry interface {
	Kind() Kind
	Contains(p Vec3) bool
	Bounds() AABB
	// Intersect returns the first point along p+t*dir (t >= 0) where
	// containment flips, and its distance. ok is false and the distance is
	// +Inf when no crossing exists.
	Intersect(p, dir Vec3) (hit Vec3, dist float64, ok bool)
}

// Range is a closed interval.
type Range struct {
	Min, Max float64
}

func (r Range) contains(v float64) bool { return v >= r.Min && v <= r.Max }

func (r Range) validate(field string) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return transport.NewConfigError(field, r, "bound is NaN")
	}
	if r.Min > r.Max {
		return transport.NewConfigError(field, r, "min exceeds max")
	}
	return nil
}

// Unbounded is the lateral range used when no bounds are given.
var Unbounded = Range{Min: math.Inf(-1), Max: math.Inf(1)}

// Spec is the tagged description of a geometry. Only the fields used by Kind
// are read.
type Spec struct {
	Kind Kind

	X, Y, Z Range // box bounds; Z also for planar and cylinder

	Radius float64
	Center Vec3 // sphere center; cylinder uses Center[0:2]

	Boundaries []float64 // multilayer z boundaries, ascending
}

// New builds a geometry from spec, validating it completely.
func New(spec Spec) (Geometry, error) {
	switch spec.Kind {
	case KindPlanar:
		return NewPlanar(spec.Z.Min, spec.Z.Max)
	case KindBox:
		return NewBox(spec.X, spec.Y, spec.Z)
	case KindCylinder:
		return NewCylinder(spec.Radius, spec.Z, spec.Center[0], spec.Center[1])
	case KindSphere:
		return NewSphere(spec.Radius, spec.Center)
	case KindMultiLayer:
		x, y := spec.X, spec.Y
		if x == (Range{}) {
			x = Unbounded
		}
		if y == (Range{}) {
			y = Unbounded
		}
		return NewMultiLayer(spec.Boundaries, x, y)
	}
	return nil, transport.InvalidField("geometry_type", spec.Kind, ErrUnknownKind)
}

func validRadius(r float64) error {
	if !transport.IsFinite(r) || r <= 0 {
		return transport.NewConfigError("radius", r, "must be positive")
	}
	return nil
}
