package ikdtree

// pushDown propagates n's pending tree_deleted/tree_downsample_deleted
// bits one level down to whichever children have a pushLeft/pushRight flag
// set, per the package's lazy-delete propagation rules. It is safe to call
// concurrently with another pushDown or query touching the same node: the
// work happens under n.mu, and a caller that loses the race to acquire the
// mutex simply observes the flags already cleared once it gets in.
func (t *Tree) pushDown(n *node) {
	if n == nil || (!n.pushLeft && !n.pushRight) {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.pushLeft && !n.pushRight {
		return
	}

	if n.pushLeft {
		t.applyPushTo(n, false)
		n.pushLeft = false
	}
	if n.pushRight {
		t.applyPushTo(n, true)
		n.pushRight = false
	}
}

// applyPushTo applies parent's pending delete bits to its isRight child. If
// that child is currently the published background-rebuild target, the
// push is both applied immediately to the detached old subtree (so the
// foreground mutator/search path observes it right away) and recorded to
// the rebuild's operation log so it is replayed against the new subtree
// once the rebuild finishes.
//
// The child pointer is re-read via parent's own atomic edge rather than
// taken as a parameter: the background swap (rebuild.go) also runs
// entirely under structMu, so if it lands between the unlocked check below
// and the Lock(), re-fetching here picks up whatever is now actually
// attached instead of pushing onto a subtree the live tree no longer
// points at.
func (t *Tree) applyPushTo(parent *node, isRight bool) {
	child := parent.child(isRight)
	if child == nil {
		return
	}

	job := t.activeRebuild.Load()
	if job == nil || job.target != child {
		applyPushBits(parent, child)
		return
	}

	t.structMu.Lock()
	defer t.structMu.Unlock()

	job = t.activeRebuild.Load()
	child = parent.child(isRight)
	if job == nil || job.target != child {
		applyPushBits(parent, child)
		return
	}

	applyPushBits(parent, child)
	if job.loggingOpen.Load() {
		t.appendLog(job, logEntry{
			kind:                      opPushDown,
			flagTreeDeleted:           parent.treeDeleted,
			flagTreeDownsampleDeleted: parent.treeDownsampleDeleted,
		})
	}
}

// applyPushBits is the pure bit-propagation step, factored out so both the
// foreground path and the background replay (rebuild.go) share one
// implementation.
func applyPushBits(parent, child *node) {
	if parent.treeDownsampleDeleted {
		child.treeDownsampleDeleted = true
		child.pointDownsampleDeleted = true
	}

	child.treeDeleted = parent.treeDeleted || child.treeDownsampleDeleted
	child.pointDeleted = child.treeDeleted || child.pointDownsampleDeleted

	if parent.treeDownsampleDeleted {
		child.downDelCount = child.size
	}
	if parent.treeDeleted {
		child.invalidCount = child.size
	} else {
		child.invalidCount = child.downDelCount
	}

	child.pushLeft = true
	child.pushRight = true
}
