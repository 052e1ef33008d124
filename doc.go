// Package ikdtree implements an incremental k-d tree over dynamic sets of
// 3-D points.
//
// Unlike a static spatial index, a Tree supports interleaved point
// insertion, point deletion, axis-aligned box deletion and restoration, and
// voxel-style downsampling on insert, while keeping itself approximately
// balanced through partial, on-the-fly rebuilds. Large unbalanced subtrees
// are rebuilt on a dedicated background goroutine so that box/radius/k-NN
// queries and further mutation from the owning goroutine can continue
// without blocking on the rebuild.
//
// Basic usage:
//
//	t := ikdtree.New(ikdtree.DefaultConfig())
//	t.Build(points)
//	t.AddPoints(more, false)
//	near, dists := t.KNNSearch(ikdtree.Point{X: 1, Y: 2, Z: 3}, 8, 0)
//
// # Concurrency
//
// A Tree is safe for one mutating/querying goroutine (Build, AddPoints,
// DeletePoints, AddBoxes, DeleteBoxes) plus any number of concurrent
// goroutines calling only the *Search methods and the read-only snapshot
// accessors (Size, ValidCount, RootRange, RootAlpha,
// AcquireRemovedPoints). It is not safe to call the mutating methods from
// more than one goroutine without external synchronization.
package ikdtree
