package ikdtree

// addPointAt inserts p at the child slot identified by e. If the slot is
// empty, a fresh leaf is created there directly; otherwise the insertion
// descends into the existing node, crossing into the background-rebuild
// logging discipline (§4.9) if that node happens to be the currently
// published rebuild target.
func (t *Tree) addPointAt(e edge, allowRebuild bool, p Point) {
	cur := t.edgeGet(e)
	if cur == nil {
		axis := 0
		if e.parent != nil {
			axis = (e.parent.axis + 1) % 3
		}
		leaf := newNode(p, axis)
		update(leaf, false)
		t.edgeSet(e, leaf)
		return
	}

	if job := t.activeRebuild.Load(); job != nil && job.target == cur {
		t.structMu.Lock()
		// Re-validate under structMu: the background swap (rebuild.go)
		// also runs entirely under structMu, so it may have completed
		// between the unlocked check above and this Lock(), leaving cur
		// detached. If so, fall back through to the current edge rather
		// than mutating a subtree the live tree no longer points at.
		if t.activeRebuild.Load() != job || t.edgeGet(e) != cur {
			t.structMu.Unlock()
			t.addPointAt(e, allowRebuild, p)
			return
		}
		t.addPointCore(cur, p, false)
		if job.loggingOpen.Load() {
			t.appendLog(job, logEntry{kind: opAddPoint, point: p})
		}
		t.structMu.Unlock()
		return
	}

	t.addPointCore(cur, p, allowRebuild)
}

// addPointCore implements the per-node body of the mutator template from
// §4.5 for a node that already exists: acquire working, push_down,
// descend by the split axis, update on the way back up, and — if
// allowRebuild — check the balance criterion and dispatch a rebuild.
func (t *Tree) addPointCore(cur *node, p Point, allowRebuild bool) {
	cur.working.Store(true)
	defer cur.working.Store(false)

	t.pushDown(cur)

	goRight := p.at(cur.axis) >= cur.point.at(cur.axis)
	t.addPointAt(edge{parent: cur, right: goRight}, allowRebuild, p)

	update(cur, cur.parent == nil)

	if allowRebuild && criterionCheck(&t.cfg, cur) {
		t.maybeRebuild(cur)
	}
}

// deletePointAt marks the node matching p (within cfg.EPS) as deleted, if
// present at or below the slot identified by e. A miss is a silent
// success: point-set deletion is idempotent by design (§7).
func (t *Tree) deletePointAt(e edge, allowRebuild bool, p Point) {
	cur := t.edgeGet(e)
	if cur == nil {
		return
	}

	if job := t.activeRebuild.Load(); job != nil && job.target == cur {
		t.structMu.Lock()
		if t.activeRebuild.Load() != job || t.edgeGet(e) != cur {
			t.structMu.Unlock()
			t.deletePointAt(e, allowRebuild, p)
			return
		}
		t.deletePointCore(cur, p, false)
		if job.loggingOpen.Load() {
			t.appendLog(job, logEntry{kind: opDeletePoint, point: p})
		}
		t.structMu.Unlock()
		return
	}

	t.deletePointCore(cur, p, allowRebuild)
}

func (t *Tree) deletePointCore(cur *node, p Point, allowRebuild bool) {
	cur.working.Store(true)
	defer cur.working.Store(false)

	t.pushDown(cur)

	if !cur.pointDeleted && pointEqual(cur.point, p, t.cfg.EPS) {
		cur.pointDeleted = true
		update(cur, cur.parent == nil)
		if allowRebuild && criterionCheck(&t.cfg, cur) {
			t.maybeRebuild(cur)
		}
		return
	}

	goRight := p.at(cur.axis) >= cur.point.at(cur.axis)
	t.deletePointAt(edge{parent: cur, right: goRight}, allowRebuild, p)

	update(cur, cur.parent == nil)

	if allowRebuild && criterionCheck(&t.cfg, cur) {
		t.maybeRebuild(cur)
	}
}
