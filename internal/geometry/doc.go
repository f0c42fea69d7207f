// Package geometry provides the target shapes an ion can travel through.
//
// Five closed variants implement [Geometry]:
//
//   - [Planar]: slab bounded in z, unbounded laterally
//   - [Box]: axis-aligned box
//   - [Cylinder]: cylinder with its axis along z
//   - [Sphere]: sphere around a center point
//   - [MultiLayer]: stacked z-layers with optional lateral bounds
//
// All containment tests use inclusive bounds. Shapes are immutable values and
// may be shared freely between workers.
//
// # Intersections
//
// [Geometry.Intersect] finds the first boundary crossing along a ray. Planar,
// Box and Sphere solve it analytically; the other variants fall back to a
// bounded ray march followed by bisection (see [RayMarch]).
package geometry
