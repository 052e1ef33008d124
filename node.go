package ikdtree

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"
)

// node is one node of the incremental k-d tree. Child edges are
// atomic.Pointer[node] rather than plain pointers: the background
// rebuilder's ownership-transfer swap (see rebuild.go) is a single atomic
// store on the edge that currently owns a subtree, made under the
// structural mutex after checking that the edge still holds it, following the
// package design notes' "model as an atomic pointer slot in the parent
// node" guidance.
type node struct {
	point Point
	axis  int

	left   atomic.Pointer[node]
	right  atomic.Pointer[node]
	parent *node // written by the single mutator goroutine, or under the structural mutex during a background rebuild's swap

	size         int
	invalidCount int
	downDelCount int

	pointDeleted           bool
	treeDeleted            bool
	pointDownsampleDeleted bool
	treeDownsampleDeleted  bool

	// pushLeft/pushRight: a delete/restore bit recorded at this node has
	// not yet been applied to that child.
	pushLeft  bool
	pushRight bool

	aabbMin, aabbMax r3.Vec
	radiusSq         float64

	// alphaBal/alphaDel are maintained only while this node is the tree's
	// real root.
	alphaBal, alphaDel float64

	// working marks that a mutator currently holds this node; it is a
	// best-effort marker consulted by the post-rebuild ancestor walk
	// (see runRebuild in rebuild.go), not a blocking lock.
	working atomic.Bool

	// mu serialises push_down on this node against a concurrent query
	// that also needs to observe/apply this node's push flags.
	mu sync.Mutex
}

func newNode(p Point, axis int) *node {
	return &node{point: p, axis: axis}
}

// children returns the current left/right child pointers.
func (n *node) children() (left, right *node) {
	return n.left.Load(), n.right.Load()
}

// child returns the child pointer on the given side (false=left, true=right).
func (n *node) child(right bool) *node {
	if right {
		return n.right.Load()
	}
	return n.left.Load()
}

// setChild atomically stores newChild on the given side and, if non-nil,
// fixes its parent backlink. Callers are responsible for holding whatever
// synchronization the call site needs (structural mutex for cross-rebuild
// edges, otherwise none: the tree is single-mutator).
func (n *node) setChild(right bool, newChild *node) {
	if right {
		n.right.Store(newChild)
	} else {
		n.left.Store(newChild)
	}
	if newChild != nil {
		newChild.parent = n
	}
}

// liveAABB returns the node's current subtree AABB as a Box.
func (n *node) liveAABB() Box {
	return Box{Min: n.aabbMin, Max: n.aabbMax}
}

// isLive reports whether this single node's point is not (lazily) deleted.
func (n *node) isLive() bool {
	return !n.pointDeleted
}
