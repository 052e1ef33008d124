package ikdtree

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTree() *Tree {
	cfg := DefaultConfig()
	cfg.MinUnbalSize = 4
	return New(cfg)
}

func TestAddPointsThenBoxSearchFindsAll(t *testing.T) {
	tr := newTestTree()
	pts := randomPoints(300, 10)
	tr.AddPoints(pts, false)

	require.Equal(t, len(pts), tr.Size())
	require.Equal(t, len(pts), tr.ValidCount())

	found := tr.BoxSearch(NewBox(Point{X: -1, Y: -1, Z: -1}, Point{X: 200, Y: 200, Z: 200}))
	require.Len(t, found, len(pts))
}

func TestDeletePointsIsIdempotent(t *testing.T) {
	tr := newTestTree()
	pts := randomPoints(50, 11)
	tr.AddPoints(pts, false)

	target := []Point{pts[5], pts[5], pts[5]}
	tr.DeletePoints(target)

	require.Equal(t, len(pts)-1, tr.ValidCount(), "deleting the same point three times removes it once")

	// Deleting something never inserted is a silent no-op.
	tr.DeletePoints([]Point{{X: 10000, Y: 10000, Z: 10000}})
	require.Equal(t, len(pts)-1, tr.ValidCount())
}

func TestAddBoxesRestoresDeletedPointsButNotDownsampled(t *testing.T) {
	tr := newTestTree()
	pts := randomPoints(40, 12)
	tr.AddPoints(pts, false)

	box := NewBox(Point{X: -1, Y: -1, Z: -1}, Point{X: 1000, Y: 1000, Z: 1000})

	removed := tr.DeleteBoxes([]Box{box})
	require.Equal(t, len(pts), removed)
	require.Equal(t, 0, tr.ValidCount())

	tr.AddBoxes([]Box{box})
	require.Equal(t, len(pts), tr.ValidCount(), "add_box should restore ordinary deletions")
}

func TestDownsampleInsertKeepsOnePointPerVoxel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DownsampleSize = 1.0
	tr := New(cfg)

	cluster := []Point{
		{X: 0.1, Y: 0.1, Z: 0.1},
		{X: 0.2, Y: 0.2, Z: 0.2},
		{X: 0.3, Y: 0.8, Z: 0.3},
	}
	tr.AddPoints(cluster, true)

	require.Equal(t, 1, tr.ValidCount(), "all three points share one voxel and should collapse to one")
}

func TestDownsampleInsertAcrossDistinctVoxelsKeepsBoth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DownsampleSize = 1.0
	tr := New(cfg)

	tr.AddPoints([]Point{
		{X: 0.1, Y: 0.1, Z: 0.1},
		{X: 5.1, Y: 5.1, Z: 5.1},
	}, true)

	require.Equal(t, 2, tr.ValidCount())
}

func TestKNNSearchMatchesBruteForce(t *testing.T) {
	tr := newTestTree()
	pts := randomPoints(400, 13)
	tr.AddPoints(pts, false)

	q := Point{X: 50, Y: 50, Z: 50}
	k := 10

	gotPts, gotDists := tr.KNNSearch(q, k, 0)
	require.Len(t, gotPts, k)
	require.Len(t, gotDists, k)

	type scored struct {
		p Point
		d float64
	}
	all := make([]scored, len(pts))
	for i, p := range pts {
		all[i] = scored{p, squaredDistance(p.vec(), q.vec())}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].d < all[j].d })

	for i := 0; i < k; i++ {
		require.InDelta(t, all[i].d, gotDists[i], 1e-9, "rank %d distance mismatch", i)
	}
}

func TestRadiusSearchMatchesBruteForce(t *testing.T) {
	tr := newTestTree()
	pts := randomPoints(300, 14)
	tr.AddPoints(pts, false)

	center := Point{X: 50, Y: 50, Z: 50}
	radius := 20.0

	got := tr.RadiusSearch(center, radius)

	var want int
	for _, p := range pts {
		if squaredDistance(p.vec(), center.vec()) <= radius*radius {
			want++
		}
	}
	require.Len(t, got, want)
}

func TestRebuildTriggersAndPreservesValidCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RebuildThreshold = 50
	cfg.MinUnbalSize = 4
	tr := New(cfg)

	pts := randomPoints(2000, 15)
	tr.AddPoints(pts, false)

	require.Equal(t, len(pts), tr.ValidCount())

	// Delete half the points; the heavy invalid ratio should force at
	// least one rebuild (inline or background) along the way.
	tr.DeletePoints(pts[:len(pts)/2])
	require.Equal(t, len(pts)-len(pts)/2, tr.ValidCount())

	stats := tr.Stats()
	require.Equal(t, tr.ValidCount(), stats.ValidCount)
}

func TestStatsStringDoesNotPanicOnEmptyTree(t *testing.T) {
	tr := newTestTree()
	_ = tr.Stats().String()
}
