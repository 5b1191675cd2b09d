package services

import "sweepdu/internal/domain"

// finalize computes the aggregate of ref from its children, which must all
// be final already. A directory's own size is not part of its totals.
// linked is the block count of shared links whose owner sits directly in
// ref; it lands in the shared tally of ref and its ancestors.
func finalize(tree *domain.Tree, ref domain.Ref, linked int64) {
	node := tree.Node(ref)
	if node.Kind != domain.KindDirectory {
		node.Agg = node.LeafAggregate()
		return
	}
	agg := domain.Aggregate{SharedBlocks: linked}
	for _, childRef := range node.Children {
		child := tree.Node(childRef)
		agg.TotalSize += child.Agg.TotalSize
		agg.TotalBlocks += child.Agg.TotalBlocks
		agg.SharedBlocks += child.Agg.SharedBlocks
		if child.Kind.Counted() {
			agg.TotalItems += 1 + child.Agg.TotalItems
		}
	}
	agg.UniqueBlocks = agg.TotalBlocks
	node.Agg = agg
}

// AggregateTree recomputes every aggregate bottom-up in one pass.
func AggregateTree(tree *domain.Tree) {
	linked := sharedPlacement(tree)
	tree.PostOrder(func(ref domain.Ref) {
		finalize(tree, ref, linked[ref])
	})
}

// sharedPlacement maps each directory to the blocks of shared links whose
// owning link it contains. A shared link without a visible owner counts
// toward its own directory.
func sharedPlacement(tree *domain.Tree) map[domain.Ref]int64 {
	owners := make(map[HardlinkKey]domain.Ref)
	var links []domain.Ref
	tree.Walk(func(ref domain.Ref, depth int) bool {
		node := tree.Node(ref)
		switch {
		case node.Kind == domain.KindHardlink:
			links = append(links, ref)
		case node.Nlink > 1 && !node.IsDir() && node.Kind.Counted():
			key := HardlinkKey{Dev: node.Dev, Ino: node.Ino}
			if _, ok := owners[key]; !ok {
				owners[key] = ref
			}
		}
		return true
	})

	linked := make(map[domain.Ref]int64)
	for _, ref := range links {
		node := tree.Node(ref)
		at := tree.Parent(ref)
		if owner, ok := owners[HardlinkKey{Dev: node.Dev, Ino: node.Ino}]; ok {
			at = tree.Parent(owner)
		}
		if at != domain.NoRef {
			linked[at] += node.Blocks
		}
	}
	return linked
}
