package geometry

import (
	"math"
	"sort"

	"github.com/san-kum/iontrim/internal/transport"
)

// Planar is a slab z in [Z.Min, Z.Max], unbounded in x and y.
type Planar struct {
	Z Range
}

func NewPlanar(zmin, zmax float64) (*Planar, error) {
	z := Range{zmin, zmax}
	if err := z.validate("z"); err != nil {
		return nil, err
	}
	return &Planar{Z: z}, nil
}

func (g *Planar) Kind() Kind { return KindPlanar }

func (g *Planar) Contains(p Vec3) bool { return g.Z.contains(p[2]) }

func (g *Planar) Bounds() AABB {
	return AABB{
		Min: Vec3{math.Inf(-1), math.Inf(-1), g.Z.Min},
		Max: Vec3{math.Inf(1), math.Inf(1), g.Z.Max},
	}
}

func (g *Planar) Intersect(p, dir Vec3) (Vec3, float64, bool) {
	return slabIntersect(g.Contains(p), p, dir, [3]Range{Unbounded, Unbounded, g.Z})
}

// Box is an axis-aligned box.
type Box struct {
	X, Y, Z Range
}

func NewBox(x, y, z Range) (*Box, error) {
	for _, r := range []struct {
		name string
		r    Range
	}{{"x", x}, {"y", y}, {"z", z}} {
		if err := r.r.validate(r.name); err != nil {
			return nil, err
		}
	}
	return &Box{X: x, Y: y, Z: z}, nil
}

func (g *Box) Kind() Kind { return KindBox }

func (g *Box) Contains(p Vec3) bool {
	return g.X.contains(p[0]) && g.Y.contains(p[1]) && g.Z.contains(p[2])
}

func (g *Box) Bounds() AABB {
	return AABB{
		Min: Vec3{g.X.Min, g.Y.Min, g.Z.Min},
		Max: Vec3{g.X.Max, g.Y.Max, g.Z.Max},
	}
}

func (g *Box) Intersect(p, dir Vec3) (Vec3, float64, bool) {
	return slabIntersect(g.Contains(p), p, dir, [3]Range{g.X, g.Y, g.Z})
}

// Cylinder has its axis parallel to z through (CX, CY).
type Cylinder struct {
	Radius   float64
	Z        Range
	CX, CY   float64
	radiusSq float64
}

func NewCylinder(radius float64, z Range, cx, cy float64) (*Cylinder, error) {
	if err := validRadius(radius); err != nil {
		return nil, err
	}
	if err := z.validate("z"); err != nil {
		return nil, err
	}
	return &Cylinder{Radius: radius, Z: z, CX: cx, CY: cy, radiusSq: radius * radius}, nil
}

func (g *Cylinder) Kind() Kind { return KindCylinder }

func (g *Cylinder) Contains(p Vec3) bool {
	if !g.Z.contains(p[2]) {
		return false
	}
	dx, dy := p[0]-g.CX, p[1]-g.CY
	return dx*dx+dy*dy <= g.radiusSq
}

func (g *Cylinder) Bounds() AABB {
	return AABB{
		Min: Vec3{g.CX - g.Radius, g.CY - g.Radius, g.Z.Min},
		Max: Vec3{g.CX + g.Radius, g.CY + g.Radius, g.Z.Max},
	}
}

func (g *Cylinder) Intersect(p, dir Vec3) (Vec3, float64, bool) {
	return RayMarch(g, p, dir)
}

// Sphere is a ball of Radius around Center.
type Sphere struct {
	Radius   float64
	Center   Vec3
	radiusSq float64
}

func NewSphere(radius float64, center Vec3) (*Sphere, error) {
	if err := validRadius(radius); err != nil {
		return nil, err
	}
	if !transport.VecFinite(center) {
		return nil, transport.InvalidField("center", center, transport.ErrNonFinite)
	}
	return &Sphere{Radius: radius, Center: center, radiusSq: radius * radius}, nil
}

func (g *Sphere) Kind() Kind { return KindSphere }

func (g *Sphere) Contains(p Vec3) bool {
	d := p.Sub(g.Center)
	return d.Dot(d) <= g.radiusSq
}

func (g *Sphere) Bounds() AABB {
	r := Vec3{g.Radius, g.Radius, g.Radius}
	return AABB{Min: g.Center.Sub(r), Max: g.Center.Add(r)}
}

func (g *Sphere) Intersect(p, dir Vec3) (Vec3, float64, bool) {
	oc := p.Sub(g.Center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - g.radiusSq
	disc := b*b - c
	if disc < 0 {
		return Vec3{}, math.Inf(1), false
	}
	sq := math.Sqrt(disc)
	t := -b + sq
	if c > 0 {
		t = -b - sq
		if t < 0 {
			return Vec3{}, math.Inf(1), false
		}
	}
	return p.Add(dir.Mul(t)), t, true
}

// NoLayer is returned by LayerIndex for positions outside every layer.
const NoLayer = -1

// MultiLayer stacks len(Boundaries)-1 layers along z.
type MultiLayer struct {
	Boundaries []float64
	X, Y       Range
}

func NewMultiLayer(boundaries []float64, x, y Range) (*MultiLayer, error) {
	if len(boundaries) < 2 {
		return nil, transport.NewConfigError("layer_z_positions", boundaries, "need at least two boundaries")
	}
	for i, b := range boundaries {
		if !transport.IsFinite(b) {
			return nil, transport.InvalidField("layer_z_positions", boundaries, transport.ErrNonFinite)
		}
		if i > 0 && b <= boundaries[i-1] {
			return nil, transport.NewConfigError("layer_z_positions", boundaries, "must be strictly ascending")
		}
	}
	if err := x.validate("x"); err != nil {
		return nil, err
	}
	if err := y.validate("y"); err != nil {
		return nil, err
	}
	b := make([]float64, len(boundaries))
	copy(b, boundaries)
	return &MultiLayer{Boundaries: b, X: x, Y: y}, nil
}

func (g *MultiLayer) Kind() Kind { return KindMultiLayer }

func (g *MultiLayer) zRange() Range {
	return Range{g.Boundaries[0], g.Boundaries[len(g.Boundaries)-1]}
}

func (g *MultiLayer) Contains(p Vec3) bool {
	return g.X.contains(p[0]) && g.Y.contains(p[1]) && g.zRange().contains(p[2])
}

func (g *MultiLayer) Bounds() AABB {
	z := g.zRange()
	return AABB{
		Min: Vec3{g.X.Min, g.Y.Min, z.Min},
		Max: Vec3{g.X.Max, g.Y.Max, z.Max},
	}
}

func (g *MultiLayer) Intersect(p, dir Vec3) (Vec3, float64, bool) {
	return RayMarch(g, p, dir)
}

// NumLayers returns the number of layers.
func (g *MultiLayer) NumLayers() int { return len(g.Boundaries) - 1 }

// LayerIndex returns the layer holding z. Layers are half-open [z_i, z_i+1)
// except the last, which includes its upper boundary.
func (g *MultiLayer) LayerIndex(z float64) int {
	zr := g.zRange()
	if !zr.contains(z) {
		return NoLayer
	}
	if z == zr.Max {
		return g.NumLayers() - 1
	}
	i := sort.Search(len(g.Boundaries), func(i int) bool { return g.Boundaries[i] > z })
	return i - 1
}

// slabIntersect handles the analytic case for shapes bounded by axis planes.
func slabIntersect(inside bool, p, dir Vec3, axes [3]Range) (Vec3, float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for i, r := range axes {
		if math.IsInf(r.Min, -1) && math.IsInf(r.Max, 1) {
			continue
		}
		if dir[i] == 0 {
			if !r.contains(p[i]) {
				return Vec3{}, math.Inf(1), false
			}
			continue
		}
		t1 := (r.Min - p[i]) / dir[i]
		t2 := (r.Max - p[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}
	if tmin > tmax {
		return Vec3{}, math.Inf(1), false
	}

	t := tmin
	if inside {
		t = tmax
	}
	if t < 0 || math.IsInf(t, 0) {
		return Vec3{}, math.Inf(1), false
	}
	return p.Add(dir.Mul(t)), t, true
}
