package services

import (
	"sync/atomic"

	"sweepdu/internal/domain"
)

// ScanStats holds the live counters of one scan. Workers update it without
// locks; once frozen every further add is dropped. Shared link blocks are
// tallied by the hardlink registry, not here.
type ScanStats struct {
	entries     atomic.Int64
	directories atomic.Int64
	files       atomic.Int64
	errors      atomic.Int64
	size        atomic.Int64
	blocks      atomic.Int64
	frozen      atomic.Bool
}

func NewScanStats() *ScanStats {
	return &ScanStats{}
}

func (stats *ScanStats) add(counter *atomic.Int64, delta int64) {
	if stats.frozen.Load() {
		return
	}
	counter.Add(delta)
}

// AddEntry accounts a freshly created node.
func (stats *ScanStats) AddEntry(node *domain.Node) {
	stats.add(&stats.entries, 1)
	switch node.Kind {
	case domain.KindFile, domain.KindHardlink, domain.KindSymlink, domain.KindSpecial:
		stats.add(&stats.files, 1)
	case domain.KindError:
		stats.add(&stats.errors, 1)
	}
	leaf := node.LeafAggregate()
	if leaf.TotalSize != 0 {
		stats.add(&stats.size, leaf.TotalSize)
	}
	if leaf.TotalBlocks != 0 {
		stats.add(&stats.blocks, leaf.TotalBlocks)
	}
}

// AddError counts an error that turned an existing node into an Error node.
func (stats *ScanStats) AddError() {
	stats.add(&stats.errors, 1)
}

// AddDirectory counts a directory once its listing has been read.
func (stats *ScanStats) AddDirectory() {
	stats.add(&stats.directories, 1)
}

func (stats *ScanStats) Freeze() {
	stats.frozen.Store(true)
}

func (stats *ScanStats) Frozen() bool {
	return stats.frozen.Load()
}

func (stats *ScanStats) Snapshot() domain.StatsSnapshot {
	return domain.StatsSnapshot{
		Entries:     stats.entries.Load(),
		Directories: stats.directories.Load(),
		Files:       stats.files.Load(),
		Errors:      stats.errors.Load(),
		Size:        stats.size.Load(),
		Blocks:      stats.blocks.Load(),
	}
}

// StatsFromTree recomputes counters for a tree that was not scanned live,
// such as an imported one.
func StatsFromTree(tree *domain.Tree) domain.StatsSnapshot {
	stats := NewScanStats()
	tree.Walk(func(ref domain.Ref, depth int) bool {
		node := tree.Node(ref)
		stats.AddEntry(node)
		if node.IsDir() {
			stats.AddDirectory()
		}
		return true
	})
	stats.Freeze()
	snapshot := stats.Snapshot()
	if root := tree.Node(tree.Root()); root != nil {
		snapshot.SharedBlocks = root.Agg.SharedBlocks
	}
	return snapshot
}
