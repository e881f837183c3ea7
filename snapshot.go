package potree

// SnapshotNode is one node of a HierarchySnapshot: the currently-loaded
// fields of an arena.Node, flattened into an index-addressed, JSON- and
// print-friendly form. Children holds snapshot indices, not NodeIds;
// Children[i] is the child occupying octant i, and 0 means "no child in
// this slot" since index 0 is always the root, which can never be anyone's
// child.
type SnapshotNode struct {
	ID    NodeId
	Index int

	Name                string
	BoundingBox         Aabb
	Spacing             float64
	Level               uint32
	NodeType            uint8
	NumPoints           uint32
	ByteOffset          uint64
	ByteSize            uint64
	HierarchyByteOffset uint64
	HierarchyByteSize   uint64

	Children [8]uint32
}

// HierarchySnapshot flattens the currently-loaded octree into a slice of
// SnapshotNode, depth-first from the root. A node always appears at a lower
// index than any of its children, so the slice can be walked forward
// without ever looking ahead.
func (r *Reader) HierarchySnapshot() []SnapshotNode {
	root := r.octree.Get(RootID())
	if root == nil {
		return nil
	}

	type frame struct {
		parentIndex  int
		parentOctant int
		id           NodeId
	}

	stack := []frame{{parentIndex: 0, id: RootID()}}
	var out []SnapshotNode

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := r.octree.Get(f.id)
		currentIndex := len(out)

		// Push children before appending the current node, so the stack
		// (LIFO) visits them in reverse octant order; this only affects
		// relative ordering among siblings, not the parent-before-child
		// guarantee the snapshot promises. octant is carried through so the
		// child lands in its parent's Children slot by actual octant, not by
		// the order it happened to be visited in.
		for octant, c := range node.Children {
			if c != nil {
				stack = append(stack, frame{parentIndex: currentIndex, parentOctant: octant, id: *c})
			}
		}

		out = append(out, SnapshotNode{
			ID:                  f.id,
			Index:               currentIndex,
			Name:                node.Name,
			BoundingBox:         node.BoundingBox,
			Spacing:             node.Spacing,
			Level:               node.Level,
			NodeType:            node.NodeType,
			NumPoints:           node.NumPoints,
			ByteOffset:          node.ByteOffset,
			ByteSize:            node.ByteSize,
			HierarchyByteOffset: node.HierarchyByteOffset,
			HierarchyByteSize:   node.HierarchyByteSize,
		})

		if f.parentIndex < currentIndex {
			out[f.parentIndex].Children[f.parentOctant] = uint32(currentIndex)
		}
	}

	return out
}
