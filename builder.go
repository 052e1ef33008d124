package ikdtree

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// buildSubtree builds a balanced subtree over points, mutating points
// in place (it is the caller's scratch buffer, never the caller's own
// source slice — see Tree.Build and rebuild.go, which always pass a copy).
// It returns nil for an empty slice.
func buildSubtree(points []Point) *node {
	if len(points) == 0 {
		return nil
	}

	axis := widestAxis(points)
	mid := len(points) / 2
	nthElement(points, mid, axis)
	pivot := points[mid]

	n := newNode(pivot, axis)
	n.setChild(false, buildSubtree(points[:mid]))
	n.setChild(true, buildSubtree(points[mid+1:]))
	update(n, false)
	return n
}

// parallelBuildMinPoints is the subtree size below which buildSubtreeParallel
// stops fanning out and falls back to the sequential builder: below this,
// goroutine setup costs more than the recursive partition it would save.
const parallelBuildMinPoints = 4096

// buildSubtreeParallel is buildSubtree's fan-out counterpart, used for
// Tree.BuildContext's initial bulk load over large point sets. It mirrors
// buildSubtree's median-partition recursion but runs the two child
// subtrees concurrently via errgroup, stopping the fan-out once depth runs
// out or a subtree drops below parallelBuildMinPoints. ctx cancellation is
// checked at the top of every call so a caller can abort a very large
// build in progress.
func buildSubtreeParallel(ctx context.Context, points []Point, depth int) (*node, error) {
	if len(points) == 0 {
		return nil, nil
	}
	if depth <= 0 || len(points) <= parallelBuildMinPoints {
		return buildSubtree(points), ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	axis := widestAxis(points)
	mid := len(points) / 2
	nthElement(points, mid, axis)
	pivot := points[mid]
	n := newNode(pivot, axis)

	g, gctx := errgroup.WithContext(ctx)
	var left, right *node
	g.Go(func() error {
		var err error
		left, err = buildSubtreeParallel(gctx, points[:mid], depth-1)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = buildSubtreeParallel(gctx, points[mid+1:], depth-1)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n.setChild(false, left)
	n.setChild(true, right)
	update(n, false)
	return n, nil
}

// fanoutDepth bounds buildSubtreeParallel's recursion so the number of
// goroutines in flight at once stays within a small multiple of
// GOMAXPROCS, rather than one per node down to parallelBuildMinPoints.
func fanoutDepth() int {
	depth := 0
	for procs := runtime.GOMAXPROCS(0); procs > 1; procs /= 2 {
		depth++
	}
	return depth
}

// widestAxis picks the axis with the greatest coordinate spread across
// points, tie-breaking toward the smallest axis index. It uses
// gonum.org/v1/gonum/floats for the per-axis min/max reduction rather than
// a hand-rolled loop, the way this package's numeric building blocks lean
// on gonum elsewhere (see aggregate.go's use of gonum's r3 vector type).
func widestAxis(points []Point) int {
	scratch := make([]float64, len(points))

	var spread [3]float64
	for axis := 0; axis < 3; axis++ {
		for i, p := range points {
			scratch[i] = p.at(axis)
		}
		spread[axis] = floats.Max(scratch) - floats.Min(scratch)
	}

	best := 0
	for axis := 1; axis < 3; axis++ {
		if spread[axis] > spread[best] {
			best = axis
		}
	}
	return best
}

// nthElement partitions points in place so that points[k] holds the value
// that would be at position k if points were sorted by axis, using
// Hoare/Lomuto-style quickselect rather than a full sort (per the design
// notes: the builder partitions around the median with an in-place
// nth-element selection, not O(n log n) sorting).
func nthElement(points []Point, k, axis int) {
	lo, hi := 0, len(points)-1
	for lo < hi {
		p := partitionByAxis(points, lo, hi, axis)
		switch {
		case p == k:
			return
		case p < k:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partitionByAxis(points []Point, lo, hi, axis int) int {
	pivotVal := points[hi].at(axis)
	i := lo
	for j := lo; j < hi; j++ {
		if points[j].at(axis) < pivotVal {
			points[i], points[j] = points[j], points[i]
			i++
		}
	}
	points[i], points[hi] = points[hi], points[i]
	return i
}

// flattenLive walks a subtree in-order and appends every live point
// (point_deleted == false) to out, recording the coordinates of deleted,
// non-downsample-deleted nodes into removed (the "foreground/background
// removed" accounting from the design notes). Pending push-down bits on
// each node are applied to its children before they are read. It is the
// shared core of the inline and background rebuild flatten step.
func flattenLive(n *node, out *[]Point, removed *[]Point) {
	if n == nil {
		return
	}
	left, right := n.children()
	n.mu.Lock()
	if n.pushLeft && left != nil {
		applyPushBits(n, left)
	}
	if n.pushRight && right != nil {
		applyPushBits(n, right)
	}
	n.pushLeft, n.pushRight = false, false
	n.mu.Unlock()
	flattenLive(left, out, removed)
	if n.pointDeleted {
		if !n.pointDownsampleDeleted {
			*removed = append(*removed, n.point)
		}
	} else {
		*out = append(*out, n.point)
	}
	flattenLive(right, out, removed)
}

