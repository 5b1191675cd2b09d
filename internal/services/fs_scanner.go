package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"sweepdu/internal/domain"
)

type FSScanner struct {
	log logrus.FieldLogger
}

func NewFSScanner(log logrus.FieldLogger) *FSScanner {
	if log == nil {
		log = discardLogger()
	}
	return &FSScanner{log: log}
}

type dirJob struct {
	ref  domain.Ref
	path string
	dev  uint64
}

type rawEntry struct {
	node    domain.Node
	path    string
	descend bool
	// owns is set on the first of several links to one inode; shared
	// links carry the node ID of that owner instead.
	owns  bool
	owner domain.NodeID
}

type listing struct {
	job     dirJob
	entries []rawEntry
	err     error
}

// scanRun is the state of one Scan call.
type scanRun struct {
	req     ScanRequest
	root    string
	rootDev uint64
	stats   *ScanStats
	links   *Registry
	dirs    *Registry
	log     logrus.FieldLogger
}

func (scanner *FSScanner) Scan(ctx context.Context, req ScanRequest, progress chan<- ScanProgress) (ScanResult, error) {
	start := time.Now()
	root := cleanPath(req.RootPath)
	log := scanner.log.WithField("path", root)
	if err := ctx.Err(); err != nil {
		return ScanResult{RootPath: root}, err
	}

	info, err := os.Stat(root)
	if err != nil {
		log.WithError(err).Error("scan root inaccessible")
		return ScanResult{RootPath: root}, &RootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return ScanResult{RootPath: root}, &RootError{Path: root, Err: ErrNotDirectory}
	}

	rootStat := statOf(info)
	run := &scanRun{
		req:     req,
		root:    root,
		rootDev: rootStat.dev,
		stats:   NewScanStats(),
		links:   NewRegistry(),
		log:     log,
	}
	if run.req.Filter.Root == "" {
		run.req.Filter.Root = root
	}
	if req.FollowSymlinks {
		run.dirs = NewRegistry()
	}

	tree := domain.NewTree(root)
	rootNode := domain.Node{
		ID:    domain.NextID(),
		Kind:  domain.KindDirectory,
		Name:  root,
		Size:  info.Size(),
		Dev:   rootStat.dev,
		Ino:   rootStat.ino,
		Nlink: rootStat.nlink,
	}
	if req.Extended {
		rootNode.Extended = extendedOf(info, rootStat)
	}
	rootRef := tree.Add(domain.NoRef, rootNode)
	run.stats.AddEntry(&rootNode)
	if run.dirs != nil {
		run.dirs.Claim(HardlinkKey{Dev: rootStat.dev, Ino: rootStat.ino}, rootNode.ID)
	}

	workers := req.Threads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = maxInt(1, workers)
	log.WithField("threads", workers).Info("scan started")

	group, groupCtx := errgroup.WithContext(ctx)
	jobs := make(chan dirJob, workers*2)
	results := make(chan listing, workers*2)

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return run.worker(groupCtx, jobs, results)
		})
	}
	group.Go(func() error {
		defer close(jobs)
		builder := newTreeBuilder(tree, run.stats, log)
		if req.ProgressEvery > 0 {
			builder.every = req.ProgressEvery
		}
		return builder.run(groupCtx, dirJob{ref: rootRef, path: root, dev: rootStat.dev}, jobs, results, run.progressFunc(progress))
	})

	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			log.WithField("elapsed", time.Since(start)).Info("scan cancelled")
			return ScanResult{RootPath: root}, ctx.Err()
		}
		log.WithError(err).Error("scan failed")
		return ScanResult{RootPath: root}, err
	}

	run.stats.Freeze()
	snapshot := run.snapshot()
	log.WithFields(logrus.Fields{
		"entries": snapshot.Entries,
		"errors":  snapshot.Errors,
		"elapsed": time.Since(start),
	}).Info("scan finished")

	return ScanResult{
		RootPath: root,
		Tree:     tree,
		Stats:    snapshot,
		Duration: time.Since(start),
	}, nil
}

func (run *scanRun) progressFunc(progress chan<- ScanProgress) func(current string) {
	return func(current string) {
		progressNonBlocking(progress, ScanProgress{
			Path:    run.root,
			Current: current,
			Stats:   run.snapshot(),
		})
	}
}

func (run *scanRun) snapshot() domain.StatsSnapshot {
	snapshot := run.stats.Snapshot()
	snapshot.SharedBlocks = run.links.SharedBlocks()
	return snapshot
}

func (run *scanRun) worker(ctx context.Context, jobs <-chan dirJob, results chan<- listing) error {
	for job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result := run.list(ctx, job)
		select {
		case results <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// list reads one directory with a single ReadDir call and turns every
// child into a finished node.
func (run *scanRun) list(ctx context.Context, job dirJob) listing {
	dir, err := os.Open(job.path)
	if err != nil {
		return listing{job: job, err: err}
	}
	entries, err := dir.ReadDir(-1)
	dir.Close()
	if err != nil && len(entries) == 0 {
		return listing{job: job, err: err}
	}
	if err != nil {
		run.log.WithError(err).WithField("dir", job.path).Debug("partial directory listing")
	}

	raw := make([]rawEntry, 0, len(entries))
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		path := filepath.Join(job.path, entry.Name())
		item := run.entry(path, entry, job.dev)
		item.node.Agg = item.node.LeafAggregate()
		run.stats.AddEntry(&item.node)
		raw = append(raw, item)
	}
	return listing{job: job, entries: raw}
}

func (run *scanRun) entry(path string, entry os.DirEntry, parentDev uint64) rawEntry {
	name := entry.Name()
	info, err := entry.Info()
	if err != nil {
		return run.errorEntry(path, name, err)
	}
	mode := info.Mode()
	if mode&os.ModeSymlink != 0 && run.req.FollowSymlinks {
		target, err := os.Stat(path)
		if err != nil {
			return run.errorEntry(path, name, fmt.Errorf("broken symlink: %w", err))
		}
		info = target
		mode = target.Mode()
	}

	stat := statOf(info)
	node := domain.Node{
		ID:     domain.NextID(),
		Name:   name,
		Size:   info.Size(),
		Blocks: stat.blocks,
		Dev:    stat.dev,
		Ino:    stat.ino,
		Nlink:  stat.nlink,
	}
	if run.req.Extended {
		node.Extended = extendedOf(info, stat)
	}

	meta := Metadata{IsDir: mode.IsDir(), Dev: stat.dev}
	if meta.IsDir {
		if stat.dev != parentDev {
			meta.FSType, _ = filesystemType(path)
		}
		if run.req.Filter.ExcludeCaches {
			meta.CacheTagged = hasCacheTag(path)
		}
	}
	switch Classify(path, meta, run.rootDev, run.req.Filter) {
	case ExcludeOtherFS:
		node.Kind = domain.KindOtherFS
		return rawEntry{node: node}
	case ExcludeKernelFS:
		node.Kind = domain.KindKernelFS
		node.FSType = KernelFilesystemName(meta.FSType)
		return rawEntry{node: node}
	case ExcludeCacheDir, ExcludePattern:
		node.Kind = domain.KindExcluded
		return rawEntry{node: node}
	}

	key := HardlinkKey{Dev: stat.dev, Ino: stat.ino}
	switch {
	case mode.IsDir():
		node.Kind = domain.KindDirectory
		if run.dirs != nil && !run.dirs.Claim(key, node.ID) {
			// Already reached through another path; keep it as a plain link.
			node.Kind = domain.KindSymlink
			node.Size, node.Blocks = 0, 0
			return rawEntry{node: node}
		}
		return rawEntry{node: node, path: path, descend: true}
	case mode&os.ModeSymlink != 0:
		node.Kind = domain.KindSymlink
	case mode.IsRegular():
		node.Kind = domain.KindFile
	default:
		node.Kind = domain.KindSpecial
	}
	if run.links.Register(key, node.ID, node.Blocks, node.Nlink) == Shared {
		node.Kind = domain.KindHardlink
		info, _ := run.links.Lookup(key)
		return rawEntry{node: node, owner: info.FirstNodeID}
	}
	return rawEntry{node: node, owns: node.Nlink > 1}
}

func (run *scanRun) errorEntry(path, name string, err error) rawEntry {
	run.log.WithError(err).WithField("entry", path).Debug("entry unreadable")
	return rawEntry{node: domain.Node{
		ID:   domain.NextID(),
		Kind: domain.KindError,
		Name: name,
		Err:  err.Error(),
	}}
}

func extendedOf(info os.FileInfo, stat entryStat) *domain.Extended {
	return &domain.Extended{
		ModTime: info.ModTime(),
		UID:     stat.uid,
		GID:     stat.gid,
		Mode:    uint32(info.Mode()),
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
