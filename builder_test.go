package ikdtree

import (
	"math/rand"
	"testing"
)

func randomPoints(n int, seed int64) []Point {
	r := rand.New(rand.NewSource(seed))
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: r.Float64() * 100, Y: r.Float64() * 100, Z: r.Float64() * 100, Payload: i}
	}
	return pts
}

func TestNthElementPartitionsAroundMedian(t *testing.T) {
	pts := randomPoints(101, 1)
	k := len(pts) / 2
	nthElement(pts, k, 0)

	pivot := pts[k].at(0)
	for i := 0; i < k; i++ {
		if pts[i].at(0) > pivot {
			t.Fatalf("point at index %d (%v) exceeds pivot %v before position %d", i, pts[i].at(0), pivot, k)
		}
	}
	for i := k + 1; i < len(pts); i++ {
		if pts[i].at(0) < pivot {
			t.Fatalf("point at index %d (%v) is below pivot %v after position %d", i, pts[i].at(0), pivot, k)
		}
	}
}

func TestBuildSubtreeCoversAllPoints(t *testing.T) {
	pts := randomPoints(500, 2)
	root := buildSubtree(append([]Point{}, pts...))

	var collected []Point
	collectLive(root, &collected)

	if len(collected) != len(pts) {
		t.Fatalf("buildSubtree lost points: got %d, want %d", len(collected), len(pts))
	}
	if root.size != len(pts) {
		t.Errorf("root.size = %d, want %d", root.size, len(pts))
	}
	if root.invalidCount != 0 {
		t.Errorf("root.invalidCount = %d, want 0 on a fresh build", root.invalidCount)
	}
}

func TestBuildSubtreeEmpty(t *testing.T) {
	if root := buildSubtree(nil); root != nil {
		t.Errorf("buildSubtree(nil) = %v, want nil", root)
	}
}

func TestWidestAxisPicksGreatestSpread(t *testing.T) {
	pts := []Point{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 1, Z: 0.5},
		{X: -2, Y: 0, Z: 0.2},
	}
	if axis := widestAxis(pts); axis != 0 {
		t.Errorf("widestAxis = %d, want 0 (X has the greatest spread)", axis)
	}
}

func TestFlattenLiveSeparatesRemovedFromLive(t *testing.T) {
	pts := randomPoints(50, 3)
	root := buildSubtree(append([]Point{}, pts...))

	// Mark a handful of points deleted directly, bypassing the mutator, to
	// exercise flattenLive's removed-point accounting in isolation.
	var marked int
	var mark func(n *node)
	mark = func(n *node) {
		if n == nil || marked >= 5 {
			return
		}
		n.pointDeleted = true
		marked++
		left, right := n.children()
		mark(left)
		mark(right)
	}
	mark(root)

	var live, removed []Point
	flattenLive(root, &live, &removed)

	if len(removed) != 5 {
		t.Errorf("len(removed) = %d, want 5", len(removed))
	}
	if len(live)+len(removed) != len(pts) {
		t.Errorf("live+removed = %d, want %d", len(live)+len(removed), len(pts))
	}
}
