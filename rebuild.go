package ikdtree

import (
	"runtime"

	"github.com/go-kit/log/level"
)

// maybeRebuild is called once a mutator has confirmed criterionCheck(cur)
// for a node it just touched. A rebuild already in flight anywhere in the
// tree is never overlapped with another: the tree has exactly one active
// rebuildJob at a time, so a second trigger while one is running is simply
// skipped (the next mutation to cross this subtree will re-check once the
// running rebuild finishes).
func (t *Tree) maybeRebuild(cur *node) {
	if t.activeRebuild.Load() != nil {
		return
	}
	if cur.size > t.cfg.RebuildThreshold {
		t.publishRebuild(cur)
		return
	}
	t.rebuildInline(cur)
}

// rebuildInline flattens and rebalances cur's subtree synchronously, on the
// calling mutator's own goroutine. Used for subtrees at or below
// Config.RebuildThreshold, where the pause is short enough not to warrant
// the background machinery.
func (t *Tree) rebuildInline(cur *node) {
	t.metrics.rebuildsInline.Inc()
	e := edgeOf(cur)

	var live, removedPts []Point
	flattenLive(cur, &live, &removedPts)
	t.recordRemoved(removedPts)

	newRoot := buildSubtree(live)
	t.edgeSet(e, newRoot)
	if newRoot != nil {
		update(newRoot, e.parent == nil)
	}
}

// publishRebuild hands cur's subtree off to a background goroutine, per
// the package's balanced-in-the-background design (§4.9): the subtree is
// published as the active rebuild target so crossing mutators can find and
// log against it, and a goroutine takes it from there.
func (t *Tree) publishRebuild(cur *node) {
	if t.terminating.Load() {
		t.rebuildInline(cur)
		return
	}

	job := &rebuildJob{target: cur, parentEdge: edgeOf(cur)}
	job.loggingOpen.Store(true)
	t.activeRebuild.Store(job)

	t.metrics.rebuildsBackground.Inc()
	level.Debug(t.cfg.Logger).Log("msg", "background rebuild started", "size", cur.size)

	t.rebuildWG.Add(1)
	go t.runRebuild(job)
}

// runRebuild is the background rebuild goroutine body. It flattens the
// detached subtree, builds its balanced replacement, replays whatever
// crossing mutations accumulated against the old subtree while that
// happened, and finally swaps the replacement in under a brief exclusive
// search lock.
func (t *Tree) runRebuild(job *rebuildJob) {
	defer t.rebuildWG.Done()

	// Flatten under both structMu and the exclusive search lock (§4.9 step
	// 2): structMu alone only keeps out other mutators/rebuilds, but a
	// guarded searcher reaches pushDown (query.go, knn.go) through nothing
	// but the search counter, and pushDown writes the very deletion flags
	// flattenLive reads. Holding searchLockExclusive for this span blocks
	// that writer out.
	t.structMu.Lock()
	t.searchLockExclusive()
	var live, removedPts []Point
	flattenLive(job.target, &live, &removedPts)
	t.searchUnlockExclusive()
	t.structMu.Unlock()
	t.recordRemoved(removedPts)

	newRoot := buildSubtree(live)

	// Replay whatever crossing mutations landed on the old subtree while
	// it was detached, looping until the log goes quiet. Each pass yields
	// periodically so a long backlog never starves the foreground mutator.
	for {
		t.structMu.Lock()
		job.logMu.Lock()
		entries := job.log
		job.log = nil
		job.logMu.Unlock()
		t.structMu.Unlock()

		if len(entries) == 0 {
			break
		}
		level.Debug(t.cfg.Logger).Log("msg", "replaying crossing mutations", "count", len(entries))
		for i, e := range entries {
			t.replayLogEntry(&newRoot, e)
			if i%10 == 9 {
				runtime.Gosched()
			}
		}
	}

	// Final window: close logging, drain anything that slipped in during
	// the last replay pass, and swap — all under one structural-mutex
	// hold, since every crossing call site also takes structMu for its
	// whole mutate-then-maybe-log step. Nothing can land on the old
	// subtree once this critical section starts.
	t.structMu.Lock()

	job.loggingOpen.Store(false)
	job.logMu.Lock()
	tail := job.log
	job.log = nil
	job.logMu.Unlock()
	for _, e := range tail {
		t.replayLogEntry(&newRoot, e)
	}

	if t.edgeGet(job.parentEdge) != job.target {
		t.structMu.Unlock()
		t.fatal(ErrInconsistentParent)
		return
	}

	t.searchLockExclusive()
	t.edgeSet(job.parentEdge, newRoot)
	t.activeRebuild.Store(nil)
	t.searchUnlockExclusive()

	t.structMu.Unlock()

	if newRoot != nil {
		update(newRoot, job.parentEdge.parent == nil)
	}
	// Walk up to the root, skipping any ancestor a mutator currently holds
	// (it updates that node itself on its way back up) or one with a push
	// still pending toward the side we came from.
	fromRight := job.parentEdge.right
	for p := job.parentEdge.parent; p != nil; p = p.parent {
		p.mu.Lock()
		pending := p.pushLeft
		if fromRight {
			pending = p.pushRight
		}
		if !pending && !p.working.Load() {
			update(p, p.parent == nil)
		}
		p.mu.Unlock()
		if p.parent != nil {
			fromRight = p.parent.right.Load() == p
		}
	}

	level.Debug(t.cfg.Logger).Log("msg", "background rebuild finished")
}

// replayLogEntry applies one logged operation to the subtree rooted at
// *root, growing *root from nil on the entry that first needs a node to
// exist. This is the same per-node mutator logic used on the live tree
// (addPointCore/deletePointCore/addBoxCore/deleteBoxCore), called with
// allowRebuild=false since the subtree being replayed onto is not attached
// to the tree yet and has no rebuild policy of its own until it is.
func (t *Tree) replayLogEntry(root **node, e logEntry) {
	switch e.kind {
	case opAddPoint:
		if *root == nil {
			leaf := newNode(e.point, 0)
			update(leaf, false)
			*root = leaf
			return
		}
		t.addPointCore(*root, e.point, false)

	case opDeletePoint:
		if *root != nil {
			t.deletePointCore(*root, e.point, false)
		}

	case opAddBox:
		if *root != nil {
			t.addBoxCore(*root, e.box, false)
		}

	case opDeleteBox:
		if *root != nil {
			t.deleteBoxCore(*root, e.box, e.downsample, false)
		}

	case opPushDown:
		if *root != nil {
			applyPushBits(&node{
				treeDeleted:           e.flagTreeDeleted,
				treeDownsampleDeleted: e.flagTreeDownsampleDeleted,
			}, *root)
		}
	}
}
