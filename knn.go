package ikdtree

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// knnItem is one candidate in the bounded max-heap used by KNNSearch.
type knnItem struct {
	point  Point
	distSq float64
}

// knnHeap is a max-heap of knnItem (largest squared distance on top),
// used as a fixed-capacity priority queue so the k-th best candidate can
// be evicted in O(log k) when a closer point is found.
type knnHeap []knnItem

func (h knnHeap) Len() int            { return len(h) }
func (h knnHeap) Less(i, j int) bool  { return h[i].distSq > h[j].distSq }
func (h knnHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *knnHeap) Push(x interface{}) { *h = append(*h, x.(knnItem)) }
func (h *knnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// KNNSearch returns up to k live points nearest to q, sorted by increasing
// squared distance, along with their squared distances. If maxDist > 0,
// only points within maxDist (not squared) are eligible. k <= 0 returns no
// results.
func (t *Tree) KNNSearch(q Point, k int, maxDist float64) ([]Point, []float64) {
	if k <= 0 {
		return nil, nil
	}

	cutoffSq := math.Inf(1)
	if maxDist > 0 {
		cutoffSq = maxDist * maxDist
	}

	h := &knnHeap{}
	heap.Init(h)
	t.knnSearchNode(t.root.Load(), q.vec(), k, cutoffSq, h)

	nResults := h.Len()
	points := make([]Point, nResults)
	dists := make([]float64, nResults)
	for i := nResults - 1; i >= 0; i-- {
		item := heap.Pop(h).(knnItem)
		points[i] = item.point
		dists[i] = item.distSq
	}
	return points, dists
}

func (t *Tree) knnSearchNode(n *node, q r3.Vec, k int, dMaxSq float64, h *knnHeap) {
	if n == nil {
		return
	}
	t.pushDown(n)

	bound := boxPointDistSq(n.liveAABB(), q)
	cutoff := dMaxSq
	if h.Len() >= k {
		cutoff = (*h)[0].distSq
	}
	if bound > cutoff {
		return
	}

	if n.isLive() {
		d2 := squaredDistance(n.point.vec(), q)
		if d2 <= dMaxSq {
			if h.Len() < k {
				heap.Push(h, knnItem{point: n.point, distSq: d2})
			} else if d2 < (*h)[0].distSq {
				(*h)[0] = knnItem{point: n.point, distSq: d2}
				heap.Fix(h, 0)
			}
		}
	}

	left, right := n.children()
	leftBound := nodeBound(left, q)
	rightBound := nodeBound(right, q)

	near, far := left, right
	farBound := rightBound
	if rightBound < leftBound {
		near, far = right, left
		farBound = leftBound
	}

	t.descendGuarded(near, func(c *node) { t.knnSearchNode(c, q, k, dMaxSq, h) })

	// Explicit reading of "descend into the far child iff the heap isn't
	// full yet, or the far child's lower bound still beats the current
	// worst candidate" — see the design notes' open question on this test's
	// original short-circuit precedence being ambiguous; this package
	// spells it out rather than reproducing that ambiguity.
	if h.Len() < k || farBound < (*h)[0].distSq {
		t.descendGuarded(far, func(c *node) { t.knnSearchNode(c, q, k, dMaxSq, h) })
	}
}

func nodeBound(n *node, q r3.Vec) float64 {
	if n == nil {
		return math.Inf(1)
	}
	return boxPointDistSq(n.liveAABB(), q)
}
