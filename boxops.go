package ikdtree

// deleteBoxAt marks every live node inside box as deleted, at or below the
// slot identified by e, returning the count of previously-live nodes that
// were removed. downsample marks the deletion as downsample-origin
// (irreversible by AddBoxes) — used internally by downsampleInsert.
func (t *Tree) deleteBoxAt(e edge, allowRebuild bool, box Box, downsample bool) int {
	cur := t.edgeGet(e)
	if cur == nil {
		return 0
	}

	if job := t.activeRebuild.Load(); job != nil && job.target == cur {
		t.structMu.Lock()
		// Re-validate under structMu: see addPointAt's comment in
		// mutate.go for why the unlocked check above can be stale.
		if t.activeRebuild.Load() != job || t.edgeGet(e) != cur {
			t.structMu.Unlock()
			return t.deleteBoxAt(e, allowRebuild, box, downsample)
		}
		count := t.deleteBoxCore(cur, box, downsample, false)
		if job.loggingOpen.Load() {
			t.appendLog(job, logEntry{kind: opDeleteBox, box: box, downsample: downsample})
		}
		t.structMu.Unlock()
		return count
	}

	return t.deleteBoxCore(cur, box, downsample, allowRebuild)
}

func (t *Tree) deleteBoxCore(cur *node, box Box, downsample, allowRebuild bool) int {
	cur.working.Store(true)
	defer cur.working.Store(false)

	t.pushDown(cur)

	if box.disjoint(cur.liveAABB()) {
		return 0
	}

	if box.containsBox(cur.liveAABB()) {
		removed := cur.size - cur.invalidCount
		cur.treeDeleted = true
		cur.pointDeleted = true
		cur.pushLeft = true
		cur.pushRight = true
		cur.invalidCount = cur.size
		if downsample {
			cur.treeDownsampleDeleted = true
			cur.pointDownsampleDeleted = true
			cur.downDelCount = cur.size
		}
		return removed
	}

	removed := 0
	if !cur.pointDeleted && box.Contains(cur.point) {
		cur.pointDeleted = true
		if downsample {
			cur.pointDownsampleDeleted = true
		}
		removed++
	}

	removed += t.deleteBoxAt(edge{parent: cur, right: false}, allowRebuild, box, downsample)
	removed += t.deleteBoxAt(edge{parent: cur, right: true}, allowRebuild, box, downsample)

	update(cur, cur.parent == nil)

	if allowRebuild && criterionCheck(&t.cfg, cur) {
		t.maybeRebuild(cur)
	}
	return removed
}

// addBoxAt clears point_deleted (never point_downsample_deleted) for every
// node inside box, at or below the slot identified by e.
func (t *Tree) addBoxAt(e edge, allowRebuild bool, box Box) {
	cur := t.edgeGet(e)
	if cur == nil {
		return
	}

	if job := t.activeRebuild.Load(); job != nil && job.target == cur {
		t.structMu.Lock()
		if t.activeRebuild.Load() != job || t.edgeGet(e) != cur {
			t.structMu.Unlock()
			t.addBoxAt(e, allowRebuild, box)
			return
		}
		t.addBoxCore(cur, box, false)
		if job.loggingOpen.Load() {
			t.appendLog(job, logEntry{kind: opAddBox, box: box})
		}
		t.structMu.Unlock()
		return
	}

	t.addBoxCore(cur, box, allowRebuild)
}

func (t *Tree) addBoxCore(cur *node, box Box, allowRebuild bool) {
	cur.working.Store(true)
	defer cur.working.Store(false)

	t.pushDown(cur)

	if box.disjoint(cur.liveAABB()) {
		return
	}

	if box.containsBox(cur.liveAABB()) {
		if !cur.treeDownsampleDeleted {
			cur.treeDeleted = false
		}
		if !cur.pointDownsampleDeleted {
			cur.pointDeleted = false
		}
		cur.pushLeft = true
		cur.pushRight = true
		cur.invalidCount = cur.downDelCount
		if allowRebuild && criterionCheck(&t.cfg, cur) {
			t.maybeRebuild(cur)
		}
		return
	}

	if !cur.pointDownsampleDeleted && box.Contains(cur.point) {
		cur.pointDeleted = false
	}

	t.addBoxAt(edge{parent: cur, right: false}, allowRebuild, box)
	t.addBoxAt(edge{parent: cur, right: true}, allowRebuild, box)

	update(cur, cur.parent == nil)

	if allowRebuild && criterionCheck(&t.cfg, cur) {
		t.maybeRebuild(cur)
	}
}
