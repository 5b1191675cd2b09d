package services

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweepdu/internal/domain"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644))
}

func childNamed(t *testing.T, tree *domain.Tree, parent domain.Ref, name string) (domain.Ref, *domain.Node) {
	t.Helper()
	for _, ref := range tree.Children(parent) {
		if node := tree.Node(ref); node.Name == name {
			return ref, node
		}
	}
	require.Failf(t, "child not found", "%q under %q", name, tree.Path(parent))
	return domain.NoRef, nil
}

func scan(t *testing.T, req ScanRequest) ScanResult {
	t.Helper()
	result, err := NewFSScanner(nil).Scan(context.Background(), req, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Tree)
	return result
}

func TestScanEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "one"), 100)
	writeFile(t, filepath.Join(root, "sub", "two"), 200)
	writeFile(t, filepath.Join(root, "sub", "three"), 300)
	writeFile(t, filepath.Join(root, "skip.me"), 5000)

	result := scan(t, ScanRequest{
		RootPath: root,
		Threads:  4,
		Filter:   FilterOptions{Patterns: []string{"*.me"}},
	})

	tree := result.Tree
	rootNode := tree.Node(tree.Root())
	assert.Equal(t, int64(600), rootNode.Agg.TotalSize)
	assert.Equal(t, int64(4), rootNode.Agg.TotalItems)
	assert.Zero(t, result.Stats.Errors)
	assert.Equal(t, int64(3), result.Stats.Files)
	assert.Equal(t, int64(2), result.Stats.Directories)

	_, skipped := childNamed(t, tree, tree.Root(), "skip.me")
	assert.Equal(t, domain.KindExcluded, skipped.Kind)
	assert.Zero(t, skipped.Agg.TotalSize)

	subRef, sub := childNamed(t, tree, tree.Root(), "sub")
	assert.Equal(t, domain.KindDirectory, sub.Kind)
	assert.Len(t, tree.Children(subRef), 3)
	assert.Equal(t, int64(600), sub.Agg.TotalSize)
	assert.Equal(t, int64(3), sub.Agg.TotalItems)
}

func TestScanExcludedDirectoryNotRecursed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "vendor", "deep", "file"), 1000)
	writeFile(t, filepath.Join(root, "keep"), 10)

	result := scan(t, ScanRequest{RootPath: root, Filter: FilterOptions{Patterns: []string{"vendor"}}})
	tree := result.Tree

	ref, vendor := childNamed(t, tree, tree.Root(), "vendor")
	assert.Equal(t, domain.KindExcluded, vendor.Kind)
	assert.Empty(t, tree.Children(ref))
	assert.Zero(t, vendor.Agg.TotalSize)
	assert.Equal(t, int64(10), tree.Node(tree.Root()).Agg.TotalSize)
	assert.Equal(t, int64(1), tree.Node(tree.Root()).Agg.TotalItems)
}

func TestScanHardlinksCountedOnce(t *testing.T) {
	root := t.TempDir()
	original := filepath.Join(root, "original")
	writeFile(t, original, 8192)
	if err := os.Link(original, filepath.Join(root, "second")); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}
	if runtime.GOOS == "windows" {
		t.Skip("no inode identity")
	}

	result := scan(t, ScanRequest{RootPath: root, Threads: 2})
	tree := result.Tree
	rootNode := tree.Node(tree.Root())

	var owners, shared int
	var blocks int64
	for _, ref := range tree.Children(tree.Root()) {
		node := tree.Node(ref)
		switch node.Kind {
		case domain.KindFile:
			owners++
			blocks = node.Blocks
		case domain.KindHardlink:
			shared++
		}
	}
	assert.Equal(t, 1, owners)
	assert.Equal(t, 1, shared)
	assert.Equal(t, int64(2*8192), rootNode.Agg.TotalSize)
	assert.Equal(t, blocks, rootNode.Agg.TotalBlocks)
	assert.Equal(t, blocks, rootNode.Agg.SharedBlocks)
	assert.Equal(t, blocks, result.Stats.Blocks)
	assert.Equal(t, int64(2), rootNode.Agg.TotalItems)
}

func TestScanHardlinksAcrossDirectories(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no inode identity")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "orig"), 8192)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	if err := os.Link(filepath.Join(root, "a", "orig"), filepath.Join(root, "b", "link")); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}

	result := scan(t, ScanRequest{RootPath: root, Threads: 4})
	tree := result.Tree

	// Either link may become the owner; its directory carries the tally.
	var ownerDir, linkDir *domain.Node
	var blocks int64
	for _, name := range []string{"a", "b"} {
		dirRef, dir := childNamed(t, tree, tree.Root(), name)
		for _, ref := range tree.Children(dirRef) {
			switch node := tree.Node(ref); node.Kind {
			case domain.KindFile:
				ownerDir, blocks = dir, node.Blocks
			case domain.KindHardlink:
				linkDir = dir
			}
		}
	}
	require.NotNil(t, ownerDir)
	require.NotNil(t, linkDir)
	require.NotSame(t, ownerDir, linkDir)

	assert.Equal(t, blocks, ownerDir.Agg.SharedBlocks)
	assert.Equal(t, blocks, ownerDir.Agg.TotalBlocks)
	assert.Zero(t, linkDir.Agg.SharedBlocks)
	assert.Zero(t, linkDir.Agg.TotalBlocks)
	rootNode := tree.Node(tree.Root())
	assert.Equal(t, blocks, rootNode.Agg.SharedBlocks)
	assert.Equal(t, blocks, result.Stats.SharedBlocks)
	assert.Equal(t, blocks, result.Stats.Blocks)
}

func TestScanSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dir", "file"), 50)
	require.NoError(t, os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dir-link")))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "dir", "loop")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))

	t.Run("recorded without recursion", func(t *testing.T) {
		result := scan(t, ScanRequest{RootPath: root})
		tree := result.Tree
		ref, link := childNamed(t, tree, tree.Root(), "dir-link")
		assert.Equal(t, domain.KindSymlink, link.Kind)
		assert.Empty(t, tree.Children(ref))
		_, dangling := childNamed(t, tree, tree.Root(), "dangling")
		assert.Equal(t, domain.KindSymlink, dangling.Kind)
		assert.Zero(t, result.Stats.Errors)
	})

	t.Run("followed once per directory", func(t *testing.T) {
		done := make(chan ScanResult, 1)
		go func() {
			result, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: root, FollowSymlinks: true}, nil)
			assert.NoError(t, err)
			done <- result
		}()
		var result ScanResult
		select {
		case result = <-done:
		case <-time.After(10 * time.Second):
			t.Fatal("scan did not terminate on a symlink cycle")
		}
		require.NotNil(t, result.Tree)
		tree := result.Tree

		dirRef, dir := childNamed(t, tree, tree.Root(), "dir")
		linkRef, link := childNamed(t, tree, tree.Root(), "dir-link")
		// Exactly one of the two names is expanded.
		assert.NotEqual(t, dir.Kind, link.Kind)
		assert.Equal(t, 2, len(tree.Children(dirRef))+len(tree.Children(linkRef)))
		assert.Equal(t, int64(50), tree.Node(tree.Root()).Agg.TotalSize)

		_, dangling := childNamed(t, tree, tree.Root(), "dangling")
		assert.Equal(t, domain.KindError, dangling.Kind)
		assert.Contains(t, dangling.Err, "broken symlink")
		assert.Equal(t, int64(1), result.Stats.Errors)
	})
}

func TestScanUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok"), 10)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "secret"), 999)
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	result := scan(t, ScanRequest{RootPath: root})
	tree := result.Tree
	ref, node := childNamed(t, tree, tree.Root(), "locked")
	assert.Equal(t, domain.KindError, node.Kind)
	assert.NotEmpty(t, node.Err)
	assert.Empty(t, tree.Children(ref))
	assert.Equal(t, int64(1), result.Stats.Errors)
	assert.Equal(t, int64(10), tree.Node(tree.Root()).Agg.TotalSize)
	assert.Equal(t, int64(1), tree.Node(tree.Root()).Agg.TotalItems)
}

func TestScanRootErrors(t *testing.T) {
	root := t.TempDir()

	_, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: filepath.Join(root, "nope")}, nil)
	assert.ErrorIs(t, err, ErrRootInaccessible)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	file := filepath.Join(root, "file")
	writeFile(t, file, 1)
	_, err = NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: file}, nil)
	assert.ErrorIs(t, err, ErrRootInaccessible)
	assert.ErrorIs(t, err, ErrNotDirectory)

	if runtime.GOOS != "windows" && os.Geteuid() != 0 {
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.Mkdir(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })
		_, err = NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: locked}, nil)
		var rootErr *RootError
		require.ErrorAs(t, err, &rootErr)
		assert.Equal(t, locked, rootErr.Path)
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, filepath.Join(root, "d", strings.Repeat("n", i+1)), 1)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewFSScanner(nil).Scan(ctx, ScanRequest{RootPath: root}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result.Tree)
}

func TestScanCancelledWhileRunning(t *testing.T) {
	root := t.TempDir()
	dir := root
	for depth := 0; depth < 200; depth++ {
		dir = filepath.Join(dir, "d")
		for i := 0; i < 5; i++ {
			writeFile(t, filepath.Join(dir, strings.Repeat("f", i+1)), 1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progress := make(chan ScanProgress, 1)
	go func() {
		select {
		case <-progress:
			cancel()
		case <-ctx.Done():
		}
	}()

	result, err := NewFSScanner(nil).Scan(ctx, ScanRequest{
		RootPath:      root,
		Threads:       2,
		ProgressEvery: time.Microsecond,
	}, progress)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result.Tree)
	assert.Zero(t, result.Stats)
}

func TestScanCacheDirAndExtended(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "build", "obj"), 700)
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", cacheTagName), []byte(cacheTagSignature+"\n"), 0o644))
	writeFile(t, filepath.Join(root, "notes"), 12)

	result := scan(t, ScanRequest{RootPath: root, Extended: true, Filter: FilterOptions{ExcludeCaches: true}})
	tree := result.Tree

	_, build := childNamed(t, tree, tree.Root(), "build")
	assert.Equal(t, domain.KindExcluded, build.Kind)
	_, notes := childNamed(t, tree, tree.Root(), "notes")
	require.NotNil(t, notes.Extended)
	assert.False(t, notes.Extended.ModTime.IsZero())
	assert.Equal(t, int64(12), tree.Node(tree.Root()).Agg.TotalSize)
}

func TestScanProgressReported(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b"), 1)
	progress := make(chan ScanProgress, 1024)

	_, err := NewFSScanner(nil).Scan(context.Background(), ScanRequest{RootPath: root, ProgressEvery: time.Millisecond}, progress)
	require.NoError(t, err)
	require.NotEmpty(t, progress)

	var last ScanProgress
	for len(progress) > 0 {
		last = <-progress
	}
	assert.Equal(t, cleanPath(root), last.Path)
	assert.Equal(t, int64(3), last.Stats.Entries)
}

// The totals must agree with an independent parallel walk of the same tree.
func TestScanMatchesIndependentWalk(t *testing.T) {
	root := t.TempDir()
	for d := 0; d < 6; d++ {
		for f := 0; f < 15; f++ {
			dir := filepath.Join(root, "level"+strings.Repeat("x", d%3), "d"+string(rune('a'+d)))
			writeFile(t, filepath.Join(dir, "f"+string(rune('a'+f))), d*100+f)
		}
	}

	var mu sync.Mutex
	var size, items int64
	err := fastwalk.Walk(&fastwalk.Config{Follow: false}, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == root {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		items++
		if !d.IsDir() {
			size += info.Size()
		}
		return nil
	})
	require.NoError(t, err)

	result := scan(t, ScanRequest{RootPath: root, Threads: 8})
	rootNode := result.Tree.Node(result.Tree.Root())
	assert.Equal(t, size, rootNode.Agg.TotalSize)
	assert.Equal(t, items, rootNode.Agg.TotalItems)
	assert.Equal(t, items+1, result.Stats.Entries)
}
