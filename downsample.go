package ikdtree

// downsampleInsert implements the voxel-grid downsampling insert path: p is
// not added outright. Instead its voxel cell is searched for existing live
// points, and the single point nearest the cell's center — p or one of the
// incumbents — survives; everything else in the cell is removed with the
// downsample bit set (so AddBoxes can never resurrect it). The eventual
// operation-log entries land in delete-then-add order, matching the
// two calls below.
func (t *Tree) downsampleInsert(p Point) {
	cell := voxelCell(p, t.cfg.DownsampleSize)

	var candidates []Point
	t.boxSearchNode(t.root.Load(), cell, &candidates)

	chosen := p
	if len(candidates) > 0 {
		center := cell.center()
		bestSq := squaredDistance(p.vec(), center)
		for _, c := range candidates {
			if d := squaredDistance(c.vec(), center); d < bestSq {
				bestSq = d
				chosen = c
			}
		}
	}

	t.deleteBoxAt(rootEdge(), true, cell, true)
	t.addPointAt(rootEdge(), true, chosen)
}
