package ikdtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDownsampleDeleteIsIrreversibleByAddBoxes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DownsampleSize = 1.0
	tr := New(cfg)

	tr.AddPoints([]Point{{X: 0.1, Y: 0.1, Z: 0.1}}, false)
	require.Equal(t, 1, tr.ValidCount())

	box := NewBox(Point{X: -5, Y: -5, Z: -5}, Point{X: 5, Y: 5, Z: 5})

	removed := tr.deleteBoxAt(rootEdge(), true, box, true)
	require.Equal(t, 1, removed)
	require.Equal(t, 0, tr.ValidCount())

	tr.AddBoxes([]Box{box})
	require.Equal(t, 0, tr.ValidCount(), "a downsample-origin delete must survive an ordinary add_box restore")
}

func TestDeleteBoxPartialOverlapOnlyRemovesContainedPoints(t *testing.T) {
	tr := newTestTree()
	tr.AddPoints([]Point{
		{X: 0, Y: 0, Z: 0},
		{X: 5, Y: 5, Z: 5},
		{X: 10, Y: 10, Z: 10},
	}, false)

	removed := tr.DeleteBoxes([]Box{NewBox(Point{X: -1, Y: -1, Z: -1}, Point{X: 6, Y: 6, Z: 6})})

	require.Equal(t, 2, removed)
	require.Equal(t, 1, tr.ValidCount())

	remaining := tr.BoxSearch(NewBox(Point{X: -100, Y: -100, Z: -100}, Point{X: 100, Y: 100, Z: 100}))
	require.Len(t, remaining, 1)
	require.Equal(t, 10.0, remaining[0].X)
}

func TestDeleteBoxDisjointIsNoOp(t *testing.T) {
	tr := newTestTree()
	tr.AddPoints(randomPoints(20, 30), false)

	removed := tr.DeleteBoxes([]Box{NewBox(Point{X: 10000, Y: 10000, Z: 10000}, Point{X: 10001, Y: 10001, Z: 10001})})
	require.Equal(t, 0, removed)
	require.Equal(t, 20, tr.ValidCount())
}
