package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"sweepdu/internal/domain"
)

// treeBuilder is the single owner of the tree while a scan runs. Workers
// hand it finished listings; it attaches them, hands out new directory
// jobs and closes directories bottom-up as their subtrees complete.
type treeBuilder struct {
	tree  *domain.Tree
	stats *ScanStats
	log   logrus.FieldLogger
	// open counts, per unfinished directory, its own pending listing plus
	// every sub-directory that has not closed yet.
	open map[domain.Ref]int
	// owners maps the node ID of each owning link to its place in the
	// tree; waiting holds shared blocks whose owner is not attached yet.
	owners  map[domain.NodeID]domain.Ref
	waiting map[domain.NodeID]int64
	linked  map[domain.Ref]int64
	backlog []dirJob
	pending int
	last    string
	every   time.Duration
}

func newTreeBuilder(tree *domain.Tree, stats *ScanStats, log logrus.FieldLogger) *treeBuilder {
	return &treeBuilder{
		tree:    tree,
		stats:   stats,
		log:     log,
		open:    make(map[domain.Ref]int),
		owners:  make(map[domain.NodeID]domain.Ref),
		waiting: make(map[domain.NodeID]int64),
		linked:  make(map[domain.Ref]int64),
		every:   defaultProgressEvery,
	}
}

func (builder *treeBuilder) run(ctx context.Context, root dirJob, jobs chan<- dirJob, results <-chan listing, report func(string)) error {
	builder.queue(root)
	ticker := time.NewTicker(builder.every)
	defer ticker.Stop()

	for builder.pending > 0 {
		var send chan<- dirJob
		var next dirJob
		if len(builder.backlog) > 0 {
			send = jobs
			next = builder.backlog[len(builder.backlog)-1]
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case send <- next:
			builder.backlog = builder.backlog[:len(builder.backlog)-1]
		case result := <-results:
			builder.pending--
			if err := builder.attach(result); err != nil {
				return err
			}
		case <-ticker.C:
			report(builder.last)
		}
	}
	report(builder.last)
	return nil
}

func (builder *treeBuilder) queue(job dirJob) {
	builder.open[job.ref] = 1
	builder.backlog = append(builder.backlog, job)
	builder.pending++
}

func (builder *treeBuilder) attach(result listing) error {
	ref := result.job.ref
	builder.last = result.job.path
	if result.err != nil {
		if ref == builder.tree.Root() {
			return &RootError{Path: result.job.path, Err: result.err}
		}
		entry := builder.log.WithError(result.err).WithField("dir", result.job.path)
		if isPermissionErr(result.err) {
			entry.Debug("directory not readable")
		} else {
			entry.Warn("directory listing failed")
		}
		node := builder.tree.Node(ref)
		node.Kind = domain.KindError
		node.Err = result.err.Error()
		builder.stats.AddError()
		builder.done(ref)
		return nil
	}

	builder.stats.AddDirectory()
	for _, entry := range result.entries {
		child := builder.tree.Add(ref, entry.node)
		switch {
		case entry.descend:
			builder.open[ref]++
			builder.queue(dirJob{ref: child, path: entry.path, dev: entry.node.Dev})
		case entry.node.Kind == domain.KindHardlink:
			builder.shareWith(entry.owner, entry.node.Blocks)
		case entry.owns:
			builder.owners[entry.node.ID] = child
			if blocks, ok := builder.waiting[entry.node.ID]; ok {
				delete(builder.waiting, entry.node.ID)
				builder.share(ref, blocks)
			}
		}
	}
	builder.done(ref)
	return nil
}

// done retires one outstanding item of ref and closes every directory on
// the way up that has nothing left open.
func (builder *treeBuilder) done(ref domain.Ref) {
	for ref != domain.NoRef {
		builder.open[ref]--
		if builder.open[ref] > 0 {
			return
		}
		delete(builder.open, ref)
		finalize(builder.tree, ref, builder.linked[ref])
		delete(builder.linked, ref)
		ref = builder.tree.Parent(ref)
	}
}

// shareWith books the blocks of a shared link against the directory that
// holds its owner.
func (builder *treeBuilder) shareWith(owner domain.NodeID, blocks int64) {
	if ref, ok := builder.owners[owner]; ok {
		builder.share(builder.tree.Parent(ref), blocks)
		return
	}
	builder.waiting[owner] += blocks
}

// share adds blocks to the shared tally of dir. A closed directory and its
// closed ancestors are patched in place; the first open one picks the
// change up when it closes.
func (builder *treeBuilder) share(dir domain.Ref, blocks int64) {
	if _, open := builder.open[dir]; open {
		builder.linked[dir] += blocks
		return
	}
	for dir != domain.NoRef {
		if _, open := builder.open[dir]; open {
			return
		}
		builder.tree.Node(dir).Agg.SharedBlocks += blocks
		dir = builder.tree.Parent(dir)
	}
}
