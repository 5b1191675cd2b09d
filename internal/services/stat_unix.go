//go:build !windows

package services

import (
	"os"
	"syscall"
)

type entryStat struct {
	dev    uint64
	ino    uint64
	nlink  uint64
	blocks int64
	uid    uint32
	gid    uint32
}

func statOf(info os.FileInfo) entryStat {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return entryStat{nlink: 1, blocks: (info.Size() + 511) / 512}
	}
	return entryStat{
		dev:    uint64(stat.Dev),
		ino:    uint64(stat.Ino),
		nlink:  uint64(stat.Nlink),
		blocks: int64(stat.Blocks),
		uid:    stat.Uid,
		gid:    stat.Gid,
	}
}
