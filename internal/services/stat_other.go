//go:build windows

package services

import "os"

type entryStat struct {
	dev    uint64
	ino    uint64
	nlink  uint64
	blocks int64
	uid    uint32
	gid    uint32
}

// No inode identity here: every entry is its own single link.
func statOf(info os.FileInfo) entryStat {
	return entryStat{nlink: 1, blocks: (info.Size() + 511) / 512}
}
