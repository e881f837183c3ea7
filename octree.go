package potree

import (
	"github.com/kestrelpc/potree/internal/aabb"
	"github.com/kestrelpc/potree/internal/arena"
)

// Arena, Node, and NodeId are re-exported from internal/arena via type
// aliases so Reader.Octree() can hand callers a *Arena directly. A direct
// definition here would create an import cycle: internal/hierarchy also
// needs arena.Arena to mutate during parsing, and it cannot import potree
// (potree already imports internal/hierarchy). Aabb is re-exported for the
// same reason: Node.BoundingBox is one.
type (
	Arena  = arena.Arena
	Node   = arena.Node
	NodeId = arena.NodeId
	Aabb   = aabb.Aabb
)

// RootID is the id of the tree's root node, fixed at 0.
func RootID() NodeId { return arena.RootID() }
