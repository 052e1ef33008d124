package ikdtree

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// opKind identifies one entry in a rebuild job's operation log.
type opKind int

const (
	opAddPoint opKind = iota
	opDeletePoint
	opAddBox
	opDeleteBox
	opPushDown
)

// logEntry is one operation recorded against the subtree currently under
// background rebuild, to be replayed against its freshly built replacement
// once the rebuild finishes flattening and building (§4.9 steps 3-6). Only
// the fields relevant to kind are populated.
type logEntry struct {
	kind opKind

	point Point
	box   Box

	downsample bool

	flagTreeDeleted           bool
	flagTreeDownsampleDeleted bool
}

// rebuildJob describes one in-flight background rebuild: which subtree is
// being rebuilt, where it is attached, and the operation log accumulating
// concurrent mutations against it while the new subtree is being built.
type rebuildJob struct {
	target     *node
	parentEdge edge

	// loggingOpen is true for the span of the rebuild during which
	// crossing mutations/push-downs must be logged for replay (the
	// flatten-through-build stages); it is false before the job is
	// published and after the swap completes.
	loggingOpen atomic.Bool

	logMu sync.Mutex
	log   []logEntry
}

// Tree is an incremental k-d tree over 3-D points. The zero value is not
// usable; construct one with New. A Tree tolerates exactly one mutator/query
// goroutine at a time for its write-side API (AddPoints, DeletePoints,
// AddBoxes, DeleteBoxes), plus any number of concurrent BoxSearch /
// RadiusSearch / KNNSearch callers, following the same single-writer,
// many-reader discipline as the package's design notes (§5).
type Tree struct {
	cfg Config

	root atomic.Pointer[node]

	// structMu serialises the background rebuilder's ownership swap (and
	// any foreground access that must cross into a subtree currently
	// detached for rebuild) against the rest of the structural machinery.
	structMu sync.Mutex

	activeRebuild atomic.Pointer[rebuildJob]

	// searchCounter implements the tri-state guard from §5: -1 means a
	// background rebuild holds exclusive access (during its flatten or its
	// swap), 0 means idle, and any n > 0 is the number of in-flight
	// guarded reads.
	searchCounter atomic.Int32

	removedMu sync.Mutex
	removed   []Point

	rebuildWG   sync.WaitGroup
	terminating atomic.Bool

	metrics *treeMetrics
}

// crossingRebuild reports whether c is the subtree currently published for
// background rebuild.
func (t *Tree) crossingRebuild(c *node) bool {
	job := t.activeRebuild.Load()
	return job != nil && job.target == c
}

// appendLog records e against job's operation log, enforcing
// Config.MaxQueueLen. Safe for concurrent callers: the mutator thread and
// any query goroutine crossing into the detached subtree may both append.
func (t *Tree) appendLog(job *rebuildJob, e logEntry) {
	job.logMu.Lock()
	defer job.logMu.Unlock()

	if len(job.log) >= t.cfg.MaxQueueLen {
		t.fatal(ErrQueueOverflow)
		return
	}
	job.log = append(job.log, e)
	t.metrics.observeQueueLen(len(job.log))
}

// spinWait yields the scheduler for a short, increasing interval, per §5's
// "spin-with-sleep (≈1µs)" model for the search-counter spins below: a bare
// CAS loop burns a full core spinning on a lock that's typically held for a
// few hundred nanoseconds, so a couple of Gosched rounds followed by a
// microsecond sleep gets out of the way of other goroutines without giving
// up much latency on the common uncontended case.
func spinWait(spins int) {
	if spins < 4 {
		runtime.Gosched()
		return
	}
	time.Sleep(time.Microsecond)
}

// searchEnter registers one guarded reader, spinning past a rebuild's brief
// exclusive windows (§5's "tri-state search counter").
func (t *Tree) searchEnter() {
	for spins := 0; ; spins++ {
		cur := t.searchCounter.Load()
		if cur < 0 {
			spinWait(spins)
			continue
		}
		if t.searchCounter.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

func (t *Tree) searchExit() {
	t.searchCounter.Add(-1)
}

// searchLockExclusive is used by the background rebuilder around its
// flatten of the old subtree and around the ownership swap, to block out
// guarded readers for those two windows.
func (t *Tree) searchLockExclusive() {
	for spins := 0; !t.searchCounter.CompareAndSwap(0, -1); spins++ {
		spinWait(spins)
	}
}

func (t *Tree) searchUnlockExclusive() {
	t.searchCounter.Store(0)
}

// recordRemoved appends points to the tree's removed-point accumulator,
// drained by AcquireRemovedPoints.
func (t *Tree) recordRemoved(points []Point) {
	if len(points) == 0 {
		return
	}
	t.removedMu.Lock()
	t.removed = append(t.removed, points...)
	t.removedMu.Unlock()
}
