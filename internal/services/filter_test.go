package services

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

type classifyCase struct {
	name string
	path string
	meta Metadata
	opts FilterOptions
	want Decision
}

func TestClassify(t *testing.T) {
	root := filepath.FromSlash("/srv/data")
	var procMagic int64
	for magic := range pseudoFilesystems {
		procMagic = magic
		break
	}

	tests := []classifyCase{
		{
			name: "plain file",
			path: filepath.Join(root, "a.txt"),
			meta: Metadata{Dev: 1},
			want: Include,
		},
		{
			name: "metadata failure",
			path: filepath.Join(root, "gone"),
			meta: Metadata{Err: errors.New("vanished")},
			opts: FilterOptions{Patterns: []string{"gone"}},
			want: DecisionError,
		},
		{
			name: "other filesystem wins over pattern",
			path: filepath.Join(root, "mnt"),
			meta: Metadata{IsDir: true, Dev: 2, CacheTagged: true},
			opts: FilterOptions{OneFileSystem: true, ExcludeCaches: true, Patterns: []string{"mnt"}},
			want: ExcludeOtherFS,
		},
		{
			name: "other filesystem allowed",
			path: filepath.Join(root, "mnt"),
			meta: Metadata{IsDir: true, Dev: 2},
			want: Include,
		},
		{
			name: "cache directory",
			path: filepath.Join(root, "build"),
			meta: Metadata{IsDir: true, Dev: 1, CacheTagged: true},
			opts: FilterOptions{ExcludeCaches: true, Patterns: []string{"build"}},
			want: ExcludeCacheDir,
		},
		{
			name: "cache tag ignored when disabled",
			path: filepath.Join(root, "build"),
			meta: Metadata{IsDir: true, Dev: 1, CacheTagged: true},
			want: Include,
		},
		{
			name: "basename pattern",
			path: filepath.Join(root, "src", "node_modules"),
			meta: Metadata{IsDir: true, Dev: 1},
			opts: FilterOptions{Root: root, Patterns: []string{"node_*"}},
			want: ExcludePattern,
		},
		{
			name: "relative pattern",
			path: filepath.Join(root, "logs", "app.log"),
			meta: Metadata{Dev: 1},
			opts: FilterOptions{Root: root, Patterns: []string{filepath.Join("logs", "*.log")}},
			want: ExcludePattern,
		},
		{
			name: "full path pattern",
			path: filepath.Join(root, "tmp"),
			meta: Metadata{IsDir: true, Dev: 1},
			opts: FilterOptions{Patterns: []string{filepath.Join(root, "t?p")}},
			want: ExcludePattern,
		},
		{
			name: "character class",
			path: filepath.Join(root, "core.9"),
			meta: Metadata{Dev: 1},
			opts: FilterOptions{Patterns: []string{"core.[0-9]"}},
			want: ExcludePattern,
		},
		{
			name: "hidden kept by default",
			path: filepath.Join(root, ".git"),
			meta: Metadata{IsDir: true, Dev: 1},
			want: Include,
		},
		{
			name: "hidden excluded on request",
			path: filepath.Join(root, ".git"),
			meta: Metadata{IsDir: true, Dev: 1},
			opts: FilterOptions{ExcludeHidden: true},
			want: ExcludePattern,
		},
	}
	if procMagic != 0 {
		tests = append(tests, classifyCase{
			name: "kernel filesystem",
			path: filepath.Join(root, "proc"),
			meta: Metadata{IsDir: true, Dev: 9, FSType: procMagic},
			opts: FilterOptions{ExcludeKernFS: true, Patterns: []string{"proc"}},
			want: ExcludeKernelFS,
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path, tt.meta, 1, tt.opts))
		})
	}
}
