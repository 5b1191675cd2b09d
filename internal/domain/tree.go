package domain

import (
	"path/filepath"
	"strings"
)

// Ref addresses a node inside a Tree arena.
type Ref int32

const NoRef Ref = -1

// Tree stores nodes in a flat arena. Parents are indexes, never owners.
// Pointers returned by Node stay valid until the next Add.
type Tree struct {
	RootPath string
	nodes    []Node
}

func NewTree(rootPath string) *Tree {
	return &Tree{RootPath: rootPath}
}

// Add appends node under parent and returns its reference. The first node
// added with NoRef becomes the root.
func (tree *Tree) Add(parent Ref, node Node) Ref {
	ref := Ref(len(tree.nodes))
	node.Parent = parent
	if node.ID == 0 {
		node.ID = NextID()
	}
	tree.nodes = append(tree.nodes, node)
	if parent != NoRef {
		tree.nodes[parent].Children = append(tree.nodes[parent].Children, ref)
	}
	return ref
}

func (tree *Tree) Root() Ref {
	if tree == nil || len(tree.nodes) == 0 {
		return NoRef
	}
	return 0
}

func (tree *Tree) Len() int {
	if tree == nil {
		return 0
	}
	return len(tree.nodes)
}

func (tree *Tree) Node(ref Ref) *Node {
	if tree == nil || ref < 0 || int(ref) >= len(tree.nodes) {
		return nil
	}
	return &tree.nodes[ref]
}

func (tree *Tree) Parent(ref Ref) Ref {
	if node := tree.Node(ref); node != nil {
		return node.Parent
	}
	return NoRef
}

func (tree *Tree) Children(ref Ref) []Ref {
	if node := tree.Node(ref); node != nil {
		return node.Children
	}
	return nil
}

// Ancestors returns the chain from the root down to ref, inclusive.
func (tree *Tree) Ancestors(ref Ref) []Ref {
	var chain []Ref
	for current := ref; current != NoRef; current = tree.Parent(current) {
		chain = append(chain, current)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Path rebuilds the filesystem path of ref from the root path and names.
func (tree *Tree) Path(ref Ref) string {
	chain := tree.Ancestors(ref)
	if len(chain) == 0 {
		return ""
	}
	parts := make([]string, 0, len(chain))
	parts = append(parts, tree.RootPath)
	for _, current := range chain[1:] {
		parts = append(parts, tree.nodes[current].Name)
	}
	return filepath.Join(parts...)
}

// RelPath is Path relative to the root, using forward slashes.
func (tree *Tree) RelPath(ref Ref) string {
	chain := tree.Ancestors(ref)
	if len(chain) < 2 {
		return ""
	}
	parts := make([]string, 0, len(chain)-1)
	for _, current := range chain[1:] {
		parts = append(parts, tree.nodes[current].Name)
	}
	return strings.Join(parts, "/")
}

// PostOrder visits every node after all of its children.
func (tree *Tree) PostOrder(visit func(ref Ref)) {
	root := tree.Root()
	if root == NoRef {
		return
	}
	type frame struct {
		ref  Ref
		next int
	}
	stack := []frame{{ref: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := tree.nodes[top.ref].Children
		if top.next < len(children) {
			child := children[top.next]
			top.next++
			stack = append(stack, frame{ref: child})
			continue
		}
		visit(top.ref)
		stack = stack[:len(stack)-1]
	}
}

// Walk visits nodes depth-first in stored order. Returning false skips the
// node's children.
func (tree *Tree) Walk(visit func(ref Ref, depth int) bool) {
	root := tree.Root()
	if root == NoRef {
		return
	}
	type frame struct {
		ref   Ref
		depth int
	}
	stack := []frame{{ref: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(top.ref, top.depth) {
			continue
		}
		children := tree.nodes[top.ref].Children
		for index := len(children) - 1; index >= 0; index-- {
			stack = append(stack, frame{ref: children[index], depth: top.depth + 1})
		}
	}
}
