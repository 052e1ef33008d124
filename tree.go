package ikdtree

import (
	"context"
	"fmt"
)

// New constructs a Tree from cfg, filling any zero-valued field with its
// DefaultConfig counterpart. An invalid, non-zero field (e.g. a
// BalanceCriterionParam outside [0.5, 1)) panics, since a bad Config is a
// programmer error caught at construction time, before any data is at risk.
func New(cfg Config) *Tree {
	if err := validateConfig(&cfg); err != nil {
		panic(err)
	}
	return &Tree{
		cfg:     cfg,
		metrics: newTreeMetrics(cfg.Registerer),
	}
}

// Build replaces the tree's entire contents with a freshly balanced
// subtree over points. Intended for the initial bulk load; call it on an
// otherwise idle Tree. Equivalent to BuildContext with a background
// context.
func (t *Tree) Build(points []Point) {
	_ = t.BuildContext(context.Background(), points)
}

// BuildContext is Build with cancellation: for large point sets the
// initial partition fans out across goroutines (see
// buildSubtreeParallel), and ctx lets a caller abort a bulk load that is
// taking too long. A canceled build leaves the tree's previous contents
// untouched.
func (t *Tree) BuildContext(ctx context.Context, points []Point) error {
	cp := make([]Point, len(points))
	copy(cp, points)

	root, err := buildSubtreeParallel(ctx, cp, fanoutDepth())
	if err != nil {
		return err
	}
	t.root.Store(root)
	return nil
}

// AddPoints inserts points one at a time and returns the number of leaves
// created, which is always len(points). If downsample is true, each point
// is routed through the voxel-grid downsampling insert instead of a plain
// insert: the other live points in its voxel are deleted and one leaf is
// added for whichever point is kept, which may be an incumbent rather than
// the new point. The returned count does not reflect that merging.
func (t *Tree) AddPoints(points []Point, downsample bool) int {
	for _, p := range points {
		if downsample {
			t.downsampleInsert(p)
		} else {
			t.addPointAt(rootEdge(), true, p)
		}
	}
	return len(points)
}

// DeletePoints marks every node matching a point in points (within
// Config.EPS) as deleted. A point with no match is a silent no-op.
func (t *Tree) DeletePoints(points []Point) {
	for _, p := range points {
		t.deletePointAt(rootEdge(), true, p)
	}
}

// AddBoxes clears point_deleted (but never point_downsample_deleted) for
// every node inside each box.
func (t *Tree) AddBoxes(boxes []Box) {
	for _, b := range boxes {
		t.addBoxAt(rootEdge(), true, b)
	}
}

// DeleteBoxes marks every live node inside each box as deleted and returns
// the total count removed across all boxes.
func (t *Tree) DeleteBoxes(boxes []Box) int {
	total := 0
	for _, b := range boxes {
		total += t.deleteBoxAt(rootEdge(), true, b, false)
	}
	return total
}

// Size returns the total node count in the tree, live and lazily deleted.
func (t *Tree) Size() int {
	if root := t.root.Load(); root != nil {
		return root.size
	}
	return 0
}

// ValidCount returns the number of live (non-deleted) points in the tree.
func (t *Tree) ValidCount() int {
	root := t.root.Load()
	if root == nil {
		return 0
	}
	return root.size - root.invalidCount
}

// RootRange returns the tree's overall bounding box.
func (t *Tree) RootRange() Box {
	root := t.root.Load()
	if root == nil {
		return Box{}
	}
	return root.liveAABB()
}

// RootAlpha returns the root's current balance and garbage ratios, as
// maintained by the last update() call on the root.
func (t *Tree) RootAlpha() (balance, garbage float64) {
	root := t.root.Load()
	if root == nil {
		return 0, 0
	}
	return root.alphaBal, root.alphaDel
}

// AcquireRemovedPoints drains and returns every point permanently dropped
// by a rebuild since the last call (points removed by rebuilds are only
// evictable there, since lazy deletion elsewhere just flips a bit).
func (t *Tree) AcquireRemovedPoints() []Point {
	t.removedMu.Lock()
	defer t.removedMu.Unlock()
	out := t.removed
	t.removed = nil
	return out
}

// Stats is a point-in-time snapshot of the tree's size, useful for tests
// and logging without holding onto a *Tree reference.
type Stats struct {
	Size          int
	ValidCount    int
	InvalidCount  int
	Range         Box
	BalanceAlpha  float64
	GarbageAlpha  float64
	RebuildActive bool
}

// Stats returns a snapshot of the tree's current aggregates.
func (t *Tree) Stats() Stats {
	root := t.root.Load()
	if root == nil {
		return Stats{}
	}
	bal, del := t.RootAlpha()
	return Stats{
		Size:          root.size,
		ValidCount:    root.size - root.invalidCount,
		InvalidCount:  root.invalidCount,
		Range:         root.liveAABB(),
		BalanceAlpha:  bal,
		GarbageAlpha:  del,
		RebuildActive: t.activeRebuild.Load() != nil,
	}
}

// String renders a one-line summary of Stats, for logging and test
// failure output.
func (s Stats) String() string {
	return fmt.Sprintf("ikdtree.Stats{size=%d valid=%d invalid=%d rebuilding=%t}",
		s.Size, s.ValidCount, s.InvalidCount, s.RebuildActive)
}

// Close signals any in-flight background rebuild to finish without
// starting new ones, and blocks until it has. Safe to call once a Tree is
// no longer needed.
func (t *Tree) Close() {
	t.terminating.Store(true)
	t.rebuildWG.Wait()
}
