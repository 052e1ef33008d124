package ikdtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// update recomputes n's subtree aggregates (size, invalid/downsample-delete
// counts, the tree-deleted flags, the subtree AABB and radius) from its
// children, and fixes up their parent backlinks. isRoot must be true iff n
// is currently the tree's real root, since alpha_bal/alpha_del are
// maintained only there.
func update(n *node, isRoot bool) {
	left, right := n.children()

	leftSize, rightSize := 0, 0
	leftInvalid, rightInvalid := 0, 0
	leftDown, rightDown := 0, 0

	if left != nil {
		leftSize, leftInvalid, leftDown = left.size, left.invalidCount, left.downDelCount
		left.parent = n
	}
	if right != nil {
		rightSize, rightInvalid, rightDown = right.size, right.invalidCount, right.downDelCount
		right.parent = n
	}

	n.size = 1 + leftSize + rightSize
	n.invalidCount = btoi(n.pointDeleted) + leftInvalid + rightInvalid
	n.downDelCount = btoi(n.pointDownsampleDeleted) + leftDown + rightDown

	n.treeDownsampleDeleted = n.pointDownsampleDeleted &&
		(left == nil || left.treeDownsampleDeleted) &&
		(right == nil || right.treeDownsampleDeleted)
	n.treeDeleted = n.pointDeleted &&
		(left == nil || left.treeDeleted) &&
		(right == nil || right.treeDeleted)

	updateAABB(n, left, right)

	if isRoot && n.size > 3 {
		bigger := leftSize
		if rightSize > bigger {
			bigger = rightSize
		}
		n.alphaBal = float64(bigger) / float64(n.size-1)
		n.alphaDel = float64(n.invalidCount) / float64(n.size)
	}
}

// updateAABB implements the AABB half of update: union of child AABBs and
// n.point, falling back to including deleted contributions when the whole
// subtree is deleted so that pruning in the query engine stays sound (see
// invariant 3 in the design notes).
func updateAABB(n *node, left, right *node) {
	includeAll := n.treeDeleted

	minV := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	maxV := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	touched := false

	if includeAll || !n.pointDeleted {
		expandBounds(&minV, &maxV, n.point.vec())
		touched = true
	}
	if left != nil && (includeAll || !left.treeDeleted) {
		expandBounds(&minV, &maxV, left.aabbMin)
		expandBounds(&minV, &maxV, left.aabbMax)
		touched = true
	}
	if right != nil && (includeAll || !right.treeDeleted) {
		expandBounds(&minV, &maxV, right.aabbMin)
		expandBounds(&minV, &maxV, right.aabbMax)
		touched = true
	}

	if !touched {
		// Can only happen transiently while flags are being set up out of
		// order; fall back to the node's own point so the box never ends
		// up inverted (min > max).
		minV, maxV = n.point.vec(), n.point.vec()
	}

	n.aabbMin, n.aabbMax = minV, maxV
	n.radiusSq = n.liveAABB().halfDiagonalSq()
}

func expandBounds(minV, maxV *r3.Vec, v r3.Vec) {
	minV.X, maxV.X = math.Min(minV.X, v.X), math.Max(maxV.X, v.X)
	minV.Y, maxV.Y = math.Min(minV.Y, v.Y), math.Max(maxV.Y, v.Y)
	minV.Z, maxV.Z = math.Min(minV.Z, v.Z), math.Max(maxV.Z, v.Z)
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
