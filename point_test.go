package ikdtree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPointEqualAbsoluteEpsilon(t *testing.T) {
	a := Point{X: 1.0, Y: 2.0, Z: 3.0}

	cases := []struct {
		name string
		b    Point
		eps  float64
		want bool
	}{
		{"identical", Point{X: 1.0, Y: 2.0, Z: 3.0}, 1e-6, true},
		{"within eps on every axis", Point{X: 1.0000001, Y: 2.0000001, Z: 3.0000001}, 1e-6, true},
		{"within eps, looser tolerance", Point{X: 1.0000001, Y: 2.0000001, Z: 3.0000001}, 1e-5, true},
		{"off on one axis only", Point{X: 1.0, Y: 2.0, Z: 3.1}, 1e-6, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := pointEqual(a, c.b, c.eps); got != c.want {
				t.Errorf("pointEqual(%v, %v, %v) = %v, want %v", a, c.b, c.eps, got, c.want)
			}
		})
	}
}

func TestBoxContainsMinInclusiveMaxExclusive(t *testing.T) {
	b := Box{Min: r3.Vec{X: 0, Y: 0, Z: 0}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}

	if !b.Contains(Point{X: 0, Y: 0, Z: 0}) {
		t.Error("min corner should be contained")
	}
	if b.Contains(Point{X: 1, Y: 0, Z: 0}) {
		t.Error("max corner should not be contained")
	}
	if !b.Contains(Point{X: 0.5, Y: 0.5, Z: 0.5}) {
		t.Error("interior point should be contained")
	}
}

func TestBoxDisjointAndContainsBox(t *testing.T) {
	a := Box{Min: r3.Vec{X: 0, Y: 0, Z: 0}, Max: r3.Vec{X: 2, Y: 2, Z: 2}}
	b := Box{Min: r3.Vec{X: 1, Y: 1, Z: 1}, Max: r3.Vec{X: 1.5, Y: 1.5, Z: 1.5}}
	c := Box{Min: r3.Vec{X: 3, Y: 3, Z: 3}, Max: r3.Vec{X: 4, Y: 4, Z: 4}}

	if a.disjoint(b) {
		t.Error("overlapping boxes should not be disjoint")
	}
	if !a.disjoint(c) {
		t.Error("non-overlapping boxes should be disjoint")
	}
	if !a.containsBox(b) {
		t.Error("a should fully contain b")
	}
	if a.containsBox(c) {
		t.Error("a should not contain c")
	}
}

func TestVoxelCellFloorsToGrid(t *testing.T) {
	p := Point{X: 1.25, Y: -0.4, Z: 3.99}
	cell := voxelCell(p, 0.5)

	if !cell.Contains(p) {
		t.Fatalf("voxel cell %v does not contain its own point %v", cell, p)
	}

	want := Box{
		Min: r3.Vec{X: 1.0, Y: -0.5, Z: 3.5},
		Max: r3.Vec{X: 1.5, Y: 0.0, Z: 4.0},
	}
	if math.Abs(cell.Min.X-want.Min.X) > 1e-9 || math.Abs(cell.Min.Y-want.Min.Y) > 1e-9 || math.Abs(cell.Min.Z-want.Min.Z) > 1e-9 {
		t.Errorf("voxelCell(%v, 0.5) = %v, want %v", p, cell, want)
	}
}

func TestBoxPointDistSqZeroInside(t *testing.T) {
	b := Box{Min: r3.Vec{X: 0, Y: 0, Z: 0}, Max: r3.Vec{X: 2, Y: 2, Z: 2}}
	if d := boxPointDistSq(b, r3.Vec{X: 1, Y: 1, Z: 1}); d != 0 {
		t.Errorf("boxPointDistSq for interior point = %v, want 0", d)
	}

	d := boxPointDistSq(b, r3.Vec{X: 3, Y: 0, Z: 0})
	if math.Abs(d-1) > 1e-9 {
		t.Errorf("boxPointDistSq = %v, want 1", d)
	}
}
