package ikdtree

import "github.com/cockroachdb/errors"

// Sentinel errors for the two fatal conditions described by the package's
// error-handling design: operation-log overflow during a background
// rebuild, and a structural invariant violation observed at ownership
// swap. Both indicate the tree can no longer be trusted and are reported
// through Config.OnFatal rather than an ordinary error return, since no
// public mutator signature has room for one (see §7 of the design notes:
// not-found deletes and empty-result queries are the only "errors" on the
// normal path, and both are silent successes).
var (
	// ErrQueueOverflow is reported when the background rebuild's operation
	// log exceeds Config.MaxQueueLen. It means the mutation rate sustained
	// during a rebuild exceeded replay bandwidth.
	ErrQueueOverflow = errors.New("ikdtree: operation log overflow")

	// ErrInconsistentParent is reported when the ownership swap at the end
	// of a background rebuild finds the parent-edge slot no longer pointing
	// at the subtree that was published for rebuild.
	ErrInconsistentParent = errors.New("ikdtree: inconsistent parent pointer during rebuild swap")
)

// fatal routes an unrecoverable error to cfg.OnFatal, defaulting to a
// panic so that failures never pass silently into a corrupted tree.
func (t *Tree) fatal(err error) {
	if t.cfg.OnFatal != nil {
		t.cfg.OnFatal(err)
		return
	}
	panic(err)
}
