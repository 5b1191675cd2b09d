package domain

import (
	"strings"
	"sync/atomic"
	"time"
)

type Kind uint8

const (
	KindDirectory Kind = iota
	KindFile
	KindSymlink
	KindHardlink
	KindSpecial
	KindError
	KindExcluded
	KindOtherFS
	KindKernelFS
)

var kindNames = [...]string{
	KindDirectory: "directory",
	KindFile:      "file",
	KindSymlink:   "symlink",
	KindHardlink:  "hardlink",
	KindSpecial:   "special",
	KindError:     "error",
	KindExcluded:  "excluded",
	KindOtherFS:   "otherfs",
	KindKernelFS:  "kernfs",
}

func (kind Kind) String() string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}
	return "unknown"
}

func ParseKind(value string) (Kind, bool) {
	for index, name := range kindNames {
		if name == value {
			return Kind(index), true
		}
	}
	return 0, false
}

// Counted reports whether entries of this kind contribute to item totals.
func (kind Kind) Counted() bool {
	switch kind {
	case KindDirectory, KindFile, KindSymlink, KindHardlink, KindSpecial:
		return true
	default:
		return false
	}
}

// Placeholder kinds are recorded but never carry content.
func (kind Kind) Placeholder() bool {
	switch kind {
	case KindError, KindExcluded, KindOtherFS, KindKernelFS:
		return true
	default:
		return false
	}
}

type NodeID uint64

var lastNodeID atomic.Uint64

// NextID returns an identifier that is never handed out twice in the process.
func NextID() NodeID {
	return NodeID(lastNodeID.Add(1))
}

type Extended struct {
	ModTime time.Time
	UID     uint32
	GID     uint32
	Mode    uint32
}

type Aggregate struct {
	TotalSize    int64
	TotalBlocks  int64
	TotalItems   int64
	SharedBlocks int64
	UniqueBlocks int64
}

type Node struct {
	ID       NodeID
	Kind     Kind
	Name     string
	Size     int64
	Blocks   int64
	Dev      uint64
	Ino      uint64
	Nlink    uint64
	Extended *Extended
	Err      string
	// FSType names the filesystem of a kernel filesystem placeholder.
	FSType   string
	Agg      Aggregate
	Parent   Ref
	Children []Ref
}

// DisplayName is the name with invalid UTF-8 sequences replaced.
func (node *Node) DisplayName() string {
	return strings.ToValidUTF8(node.Name, "�")
}

func (node *Node) IsDir() bool {
	return node.Kind == KindDirectory
}

func (node *Node) Hidden() bool {
	return strings.HasPrefix(node.Name, ".")
}

// LeafAggregate is the aggregate a non-directory node holds from creation.
// Placeholders contribute nothing; shared hardlinks keep their size while
// their blocks are tallied at the directory holding the owning link.
func (node *Node) LeafAggregate() Aggregate {
	switch node.Kind {
	case KindFile, KindSymlink, KindSpecial:
		return Aggregate{TotalSize: node.Size, TotalBlocks: node.Blocks, UniqueBlocks: node.Blocks}
	case KindHardlink:
		return Aggregate{TotalSize: node.Size}
	default:
		return Aggregate{}
	}
}

const BlockSize = 512

// Usage is the size shown for a node: apparent bytes, or allocated bytes.
// Shared links still show their own allocation even though their parent
// does not count it.
func (node *Node) Usage(apparent bool) int64 {
	if apparent {
		return node.Agg.TotalSize
	}
	if node.Kind == KindHardlink {
		return node.Blocks * BlockSize
	}
	return node.Agg.TotalBlocks * BlockSize
}

func (node *Node) ModTime() time.Time {
	if node.Extended == nil {
		return time.Time{}
	}
	return node.Extended.ModTime
}
