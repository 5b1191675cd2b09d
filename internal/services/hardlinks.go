package services

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"sweepdu/internal/domain"
)

type Ownership uint8

const (
	Owner Ownership = iota
	Shared
)

func (ownership Ownership) String() string {
	if ownership == Shared {
		return "shared"
	}
	return "owner"
}

type HardlinkKey struct {
	Dev uint64
	Ino uint64
}

func (key HardlinkKey) hash() uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], key.Dev)
	binary.LittleEndian.PutUint64(buf[8:], key.Ino)
	return xxhash.Sum64(buf[:])
}

type HardlinkInfo struct {
	FirstNodeID     domain.NodeID
	AccountedBlocks int64
	ObservedLinks   uint64
	LinkCount       uint64
}

const registryShards = 64

type registryShard struct {
	mu      sync.Mutex
	entries map[HardlinkKey]*HardlinkInfo
}

// Registry decides which of several links to one inode owns its blocks.
// The first registration for a key wins. Which link that is depends on
// directory listing order and worker scheduling, so it may differ between
// runs; totals do not.
type Registry struct {
	shards [registryShards]registryShard
	shared atomic.Int64
	count  atomic.Int64
}

func NewRegistry() *Registry {
	registry := &Registry{}
	for index := range registry.shards {
		registry.shards[index].entries = make(map[HardlinkKey]*HardlinkInfo)
	}
	return registry
}

func (registry *Registry) shard(key HardlinkKey) *registryShard {
	return &registry.shards[key.hash()%registryShards]
}

// Register records one observed link. Entries with at most one link never
// touch the map.
func (registry *Registry) Register(key HardlinkKey, id domain.NodeID, blocks int64, nlink uint64) Ownership {
	if nlink <= 1 {
		return Owner
	}
	shard := registry.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if info, ok := shard.entries[key]; ok {
		info.ObservedLinks++
		registry.shared.Add(blocks)
		return Shared
	}
	shard.entries[key] = &HardlinkInfo{
		FirstNodeID:     id,
		AccountedBlocks: blocks,
		ObservedLinks:   1,
		LinkCount:       nlink,
	}
	registry.count.Add(1)
	return Owner
}

// Claim marks a physical directory as visited and reports whether the
// caller is the first. Used to stop symlink cycles when following links.
func (registry *Registry) Claim(key HardlinkKey, id domain.NodeID) bool {
	shard := registry.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if info, ok := shard.entries[key]; ok {
		info.ObservedLinks++
		return false
	}
	shard.entries[key] = &HardlinkInfo{FirstNodeID: id, ObservedLinks: 1}
	registry.count.Add(1)
	return true
}

func (registry *Registry) Lookup(key HardlinkKey) (HardlinkInfo, bool) {
	shard := registry.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	info, ok := shard.entries[key]
	if !ok {
		return HardlinkInfo{}, false
	}
	return *info, true
}

func (registry *Registry) Len() int {
	return int(registry.count.Load())
}

// SharedBlocks is the global tally of blocks from non-owning links.
func (registry *Registry) SharedBlocks() int64 {
	return registry.shared.Load()
}
