package ikdtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// collectLive appends every live point in n's subtree to out, without
// touching the removed-point accounting (used by the query engine's
// full-containment fast paths; contrast with flattenLive in builder.go,
// which is the rebuild path and does track removed points).
func collectLive(n *node, out *[]Point) {
	if n == nil {
		return
	}
	left, right := n.children()
	collectLive(left, out)
	if n.isLive() {
		*out = append(*out, n.point)
	}
	collectLive(right, out)
}

// descendGuarded runs visit(c) under the search-counter discipline
// required when c is currently the published background-rebuild target:
// the caller increments the search counter before descending and
// decrements it on return, blocking only while the rebuilder holds the
// counter at its exclusive (-1) value during its flatten and swap phases.
func (t *Tree) descendGuarded(c *node, visit func(*node)) {
	if c == nil {
		return
	}
	if t.crossingRebuild(c) {
		t.searchEnter()
		defer t.searchExit()
	}
	visit(c)
}

// BoxSearch returns every live point inside box.
func (t *Tree) BoxSearch(box Box) []Point {
	var out []Point
	t.boxSearchNode(t.root.Load(), box, &out)
	return out
}

func (t *Tree) boxSearchNode(n *node, box Box, out *[]Point) {
	if n == nil {
		return
	}
	t.pushDown(n)

	aabb := n.liveAABB()
	if box.disjoint(aabb) {
		return
	}
	if box.containsBox(aabb) {
		collectLive(n, out)
		return
	}
	if n.isLive() && box.Contains(n.point) {
		*out = append(*out, n.point)
	}

	left, right := n.children()
	t.descendGuarded(left, func(c *node) { t.boxSearchNode(c, box, out) })
	t.descendGuarded(right, func(c *node) { t.boxSearchNode(c, box, out) })
}

// RadiusSearch returns every live point within squared distance r*r of
// center.
func (t *Tree) RadiusSearch(center Point, r float64) []Point {
	var out []Point
	t.radiusSearchNode(t.root.Load(), center.vec(), r, &out)
	return out
}

func (t *Tree) radiusSearchNode(n *node, q r3.Vec, r float64, out *[]Point) {
	if n == nil {
		return
	}
	t.pushDown(n)

	aabb := n.liveAABB()
	c := aabb.center()
	diff := r3.Sub(c, q)
	d := math.Sqrt(r3.Dot(diff, diff))
	sqrtRadius := math.Sqrt(n.radiusSq)

	if d > r+sqrtRadius {
		return
	}
	if d <= r-sqrtRadius {
		collectLive(n, out)
		return
	}

	if n.isLive() && squaredDistance(n.point.vec(), q) <= r*r {
		*out = append(*out, n.point)
	}

	left, right := n.children()
	t.descendGuarded(left, func(c *node) { t.radiusSearchNode(c, q, r, out) })
	t.descendGuarded(right, func(c *node) { t.radiusSearchNode(c, q, r, out) })
}
