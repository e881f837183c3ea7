// Package arena provides a dense, index-addressed octree store. Nodes are
// addressed by a stable NodeId rather than by pointer, so the tree has no
// parent/child reference cycles and can be copied or snapshotted by copying
// a slice.
package arena

import "github.com/kestrelpc/potree/internal/aabb"

// NodeId is a stable, monotonically assigned index into an Arena. The root
// is always id 0.
type NodeId uint32

// Node is one octree node. Fields mirror the Potree v2 hierarchy record plus
// the bookkeeping needed to place a node in the tree and in its backing
// files.
type Node struct {
	Name string

	BoundingBox aabb.Aabb
	Spacing     float64
	Level       uint32

	// NodeType is 0 (leaf), 1 (inner), or 2 (proxy: a placeholder whose
	// hierarchy chunk has not yet been loaded).
	NodeType  uint8
	NumPoints uint32

	// ByteOffset/ByteSize locate the node's point payload in octree.bin.
	// Meaningless while NodeType == 2.
	ByteOffset uint64
	ByteSize   uint64

	// HierarchyByteOffset/HierarchyByteSize locate the node's hierarchy
	// chunk in hierarchy.bin. Set when the node is recorded as a proxy
	// (NodeType == 2); not cleared when its chunk is later parsed.
	HierarchyByteOffset uint64
	HierarchyByteSize   uint64

	Parent   *NodeId
	Children [8]*NodeId
}

// Arena is a growable, append-only store of Nodes. It never frees a slot:
// a reader's tree only grows over its lifetime, and the whole arena is
// dropped with the reader.
type Arena struct {
	nodes []Node
}

// New returns an empty Arena.
func New() *Arena {
	return &Arena{}
}

// RootID is the id of the tree's root node, fixed at 0.
func RootID() NodeId { return 0 }

// Len reports the number of nodes currently stored.
func (a *Arena) Len() int { return len(a.nodes) }

// Reserve appends additional empty node slots (so Len grows by additional)
// and returns the ids assigned to them, in order. Callers use this to
// pre-allocate a contiguous id range before linking nodes together.
func (a *Arena) Reserve(additional int) []NodeId {
	if additional <= 0 {
		return nil
	}
	start := len(a.nodes)
	a.nodes = append(a.nodes, make([]Node, additional)...)

	ids := make([]NodeId, additional)
	for i := range ids {
		ids[i] = NodeId(start + i)
	}
	return ids
}

// Insert appends node and returns its newly assigned id.
func (a *Arena) Insert(node Node) NodeId {
	id := NodeId(len(a.nodes))
	a.nodes = append(a.nodes, node)
	return id
}

// Get returns a pointer to the node at id, or nil if id is out of range.
func (a *Arena) Get(id NodeId) *Node {
	if int(id) >= len(a.nodes) {
		return nil
	}
	return &a.nodes[id]
}
