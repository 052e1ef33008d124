package ikdtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a point in the tree's 3-D domain plus an arbitrary caller
// payload. Payload is not interpreted by the tree; it rides along with the
// point through inserts, deletes, and query results.
type Point struct {
	X, Y, Z float64
	Payload any
}

// vec converts p to a gonum r3.Vec for use in the vector arithmetic that
// backs AABB and distance computations.
func (p Point) vec() r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: p.Z} }

// at returns the coordinate of p along the given axis (0=X, 1=Y, 2=Z).
func (p Point) at(axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// pointEqual reports whether a and b are the same point within an absolute
// per-component tolerance eps. This is intentionally an absolute epsilon
// (see the design notes' open question on relative vs. absolute epsilon):
// for points with very large coordinates, this degenerates to an exact
// equality test.
func pointEqual(a, b Point, eps float64) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

// squaredDistance returns the squared Euclidean distance between a and b.
// The tree only ever needs squared Euclidean distance in R^3, per the
// package's non-goals (no general-metric nearest neighbour).
func squaredDistance(a, b r3.Vec) float64 {
	d := r3.Sub(a, b)
	return r3.Dot(d, d)
}

// Box is an axis-aligned box. Membership is min-inclusive, max-exclusive
// on every axis, matching the tree's box semantics throughout (search,
// add_box, delete_box, downsample voxels).
type Box struct {
	Min, Max r3.Vec
}

// NewBox builds a Box from two arbitrary corners, normalizing so that Min
// holds the smaller coordinate on each axis.
func NewBox(a, b Point) Box {
	return Box{
		Min: r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// Contains reports whether p lies inside b under min-inclusive,
// max-exclusive semantics.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// disjoint reports whether no point of the closed box other (a node's
// tight AABB) can lie inside b under b's min-inclusive, max-exclusive
// membership.
func (b Box) disjoint(other Box) bool {
	return b.Max.X <= other.Min.X || other.Max.X < b.Min.X ||
		b.Max.Y <= other.Min.Y || other.Max.Y < b.Min.Y ||
		b.Max.Z <= other.Min.Z || other.Max.Z < b.Min.Z
}

// containsBox reports whether every point of the closed box other lies
// inside b under b's min-inclusive, max-exclusive membership.
func (b Box) containsBox(other Box) bool {
	return b.Min.X <= other.Min.X && other.Max.X < b.Max.X &&
		b.Min.Y <= other.Min.Y && other.Max.Y < b.Max.Y &&
		b.Min.Z <= other.Min.Z && other.Max.Z < b.Max.Z
}

// center returns the midpoint of b.
func (b Box) center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// halfDiagonalSq returns the squared length of half of b's diagonal, used
// as the subtree radius bound in radius-search pruning.
func (b Box) halfDiagonalSq() float64 {
	half := r3.Scale(0.5, r3.Sub(b.Max, b.Min))
	return r3.Dot(half, half)
}

// boxPointDistSq returns the squared distance from p to the nearest point
// of b, 0 if p is inside b. Used by k-NN search's box_dist^2 lower bound.
func boxPointDistSq(b Box, p r3.Vec) float64 {
	var d r3.Vec
	d.X = clampGapSq(p.X, b.Min.X, b.Max.X)
	d.Y = clampGapSq(p.Y, b.Min.Y, b.Max.Y)
	d.Z = clampGapSq(p.Z, b.Min.Z, b.Max.Z)
	return d.X + d.Y + d.Z
}

func clampGapSq(v, lo, hi float64) float64 {
	if v < lo {
		return (lo - v) * (lo - v)
	}
	if v > hi {
		return (v - hi) * (v - hi)
	}
	return 0
}

// voxelCell returns the axis-aligned voxel of edge length delta containing
// p, per floor(p/delta)*delta on each axis.
func voxelCell(p Point, delta float64) Box {
	fx := math.Floor(p.X/delta) * delta
	fy := math.Floor(p.Y/delta) * delta
	fz := math.Floor(p.Z/delta) * delta
	return Box{
		Min: r3.Vec{X: fx, Y: fy, Z: fz},
		Max: r3.Vec{X: fx + delta, Y: fy + delta, Z: fz + delta},
	}
}
