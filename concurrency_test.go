package ikdtree

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestConcurrentSearchersDuringMutation exercises the tri-state search
// counter (§5): one goroutine mutates the tree continuously while several
// others run BoxSearch/KNNSearch/RadiusSearch concurrently. None of this
// should deadlock or race against a background rebuild's ownership swap.
func TestConcurrentSearchersDuringMutation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RebuildThreshold = 30
	cfg.MinUnbalSize = 4
	tr := New(cfg)

	seed := randomPoints(500, 20)
	tr.AddPoints(seed, false)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		more := randomPoints(2000, 21)
		for i, p := range more {
			if gctx.Err() != nil {
				return nil
			}
			tr.AddPoints([]Point{p}, false)
			if i%7 == 0 {
				tr.DeletePoints([]Point{more[i/2]})
			}
		}
		return nil
	})

	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for gctx.Err() == nil {
				_ = tr.BoxSearch(NewBox(Point{X: 0, Y: 0, Z: 0}, Point{X: 100, Y: 100, Z: 100}))
				_, _ = tr.KNNSearch(Point{X: 50, Y: 50, Z: 50}, 5, 0)
				_ = tr.RadiusSearch(Point{X: 50, Y: 50, Z: 50}, 10)
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	tr.Close()
}

func TestCloseWaitsForBackgroundRebuild(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RebuildThreshold = 20
	cfg.MinUnbalSize = 4
	tr := New(cfg)

	tr.AddPoints(randomPoints(5000, 22), false)
	tr.Close()

	require.False(t, tr.activeRebuild.Load() != nil, "no rebuild should still be in flight after Close returns")
}
