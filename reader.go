package potree

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kestrelpc/potree/internal/aabb"
	"github.com/kestrelpc/potree/internal/arena"
	"github.com/kestrelpc/potree/internal/hierarchy"
	"github.com/kestrelpc/potree/internal/points"

	"github.com/kestrelpc/potree/blob"
)

// Vec3 is a point in 3-space, re-exported from internal/aabb for the same
// reason Arena/Node/NodeId are: internal/hierarchy needs it and cannot import
// potree. internal/points declares its own identically shaped Vec3, which
// LoadPoints converts to and from this one.
type Vec3 = aabb.Vec3

// PointData is one decoded point: its world-space position and RGB color at
// 8 bits per channel (decoded channel values above 255 are divided by 256;
// values up to 255 are kept as they are).
type PointData struct {
	Position Vec3
	Color    [3]uint8
}

// Reader holds an opened point cloud's metadata and its octree, and fetches
// hierarchy chunks and point payloads from a BlobSource on demand.
type Reader struct {
	metadata     Metadata
	hierarchyURL string
	octreeURL    string
	octree       *arena.Arena
	source       blob.BlobSource
	log          zerolog.Logger
}

// Open fetches baseURL+"/metadata.json", seeds the octree with a root node
// per the format's invariant that the root is always present and always a
// proxy for the first hierarchy chunk, and loads that first chunk.
func Open(ctx context.Context, baseURL string, source blob.BlobSource, opts ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	r := &Reader{
		hierarchyURL: baseURL + "/hierarchy.bin",
		octreeURL:    baseURL + "/octree.bin",
		octree:       arena.New(),
		source:       source,
		log:          o.log,
	}

	metadataURL := baseURL + "/metadata.json"
	if err := source.GetJSON(ctx, metadataURL, nil, &r.metadata); err != nil {
		return nil, fmt.Errorf("potree: loading metadata from %s: %w", metadataURL, err)
	}

	rootID := r.octree.Insert(arena.Node{
		Name: "r",
		BoundingBox: aabb.Aabb{
			Min: arrayToVec3(r.metadata.BoundingBox.Min),
			Max: arrayToVec3(r.metadata.BoundingBox.Max),
		},
		Spacing:             r.metadata.Spacing,
		NodeType:            2,
		HierarchyByteOffset: 0,
		HierarchyByteSize:   r.metadata.Hierarchy.FirstChunkSize,
	})

	if err := r.LoadHierarchy(ctx, rootID); err != nil {
		return nil, err
	}

	r.log.Debug().Str("url", baseURL).Uint64("points", r.metadata.Points).Msg("opened potree cloud")
	return r, nil
}

// LoadHierarchy expands node id's hierarchy chunk if it is a proxy
// (NodeType == 2), fetching the chunk's byte range and parsing it in place.
// It is a no-op for a node that isn't a proxy.
func (r *Reader) LoadHierarchy(ctx context.Context, id NodeId) error {
	node := r.octree.Get(id)
	if node == nil {
		return fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	if node.NodeType != 2 {
		return nil
	}

	data, err := r.source.GetRange(ctx, r.hierarchyURL, node.HierarchyByteOffset, node.HierarchyByteSize, nil)
	if err != nil {
		return fmt.Errorf("potree: fetching hierarchy chunk for node %d: %w", id, err)
	}

	if err := hierarchy.ParseChunk(r.octree, id, data); err != nil {
		return fmt.Errorf("potree: parsing hierarchy chunk for node %d: %w: %w", id, ErrInvalidBinaryData, err)
	}
	return nil
}

// LoadEntireHierarchy walks the whole tree, calling LoadHierarchy on every
// node reachable from the root's children. The root itself is already
// loaded by Open, so traversal starts one level down — mirroring the
// reference implementation, which recurses into children only. It defends
// against the root somehow still being a proxy (which Open should never
// leave it as) by expanding it first rather than silently skipping it.
//
// Traversal uses an explicit []NodeId stack instead of native recursion, so
// arbitrarily deep trees don't grow the Go call stack. Children are pushed
// in descending octant order so the stack (LIFO) pops them in ascending
// octant order within each sibling group.
func (r *Reader) LoadEntireHierarchy(ctx context.Context) error {
	if r.octree.Get(RootID()) == nil {
		return fmt.Errorf("%w: id %d", ErrNodeNotFound, RootID())
	}
	if r.octree.Get(RootID()).NodeType == 2 {
		if err := r.LoadHierarchy(ctx, RootID()); err != nil {
			return err
		}
	}

	// Re-fetch after LoadHierarchy: it can grow the arena's backing slice
	// via Reserve, which may reallocate and strand any *Node taken before
	// the call.
	stack := make([]NodeId, 0, 8)
	pushChildren := func(children [8]*NodeId) {
		for i := len(children) - 1; i >= 0; i-- {
			if children[i] != nil {
				stack = append(stack, *children[i])
			}
		}
	}
	pushChildren(r.octree.Get(RootID()).Children)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := r.LoadHierarchy(ctx, id); err != nil {
			return err
		}

		pushChildren(r.octree.Get(id).Children)
	}
	return nil
}

// LoadPoints fetches and decodes the point payload for node id. Only the
// "BROTLI" encoding is implemented; any other value in metadata.json's
// encoding field fails with *EncodingUnimplementedError.
func (r *Reader) LoadPoints(ctx context.Context, id NodeId) ([]PointData, error) {
	node := r.octree.Get(id)
	if node == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNodeNotFound, id)
	}
	if r.metadata.Encoding != encodingBrotli {
		return nil, &EncodingUnimplementedError{Encoding: r.metadata.Encoding}
	}

	raw, err := r.source.GetRange(ctx, r.octreeURL, node.ByteOffset, node.ByteSize, nil)
	if err != nil {
		return nil, fmt.Errorf("potree: fetching points for node %d: %w", id, err)
	}

	attrs := make([]points.AttributeSpec, len(r.metadata.Attributes))
	for i, a := range r.metadata.Attributes {
		attrs[i] = points.AttributeSpec{Name: a.Name, Size: a.Size}
	}

	decoded, err := points.Decode(raw,
		points.NodeInfo{
			NumPoints:      node.NumPoints,
			BoundingBoxMin: points.Vec3(node.BoundingBox.Min),
		},
		points.MetadataInfo{
			Scale:      points.Vec3{X: r.metadata.Scale[0], Y: r.metadata.Scale[1], Z: r.metadata.Scale[2]},
			Offset:     points.Vec3{X: r.metadata.Offset[0], Y: r.metadata.Offset[1], Z: r.metadata.Offset[2]},
			Attributes: attrs,
		})
	if err != nil {
		sentinel := ErrInvalidBinaryData
		if errors.Is(err, points.ErrDecompress) {
			sentinel = ErrDecompress
		}
		return nil, fmt.Errorf("potree: decoding points for node %d: %w: %w", id, sentinel, err)
	}

	out := make([]PointData, len(decoded))
	for i, p := range decoded {
		out[i] = PointData{Position: Vec3(p.Position), Color: p.Color}
	}
	return out, nil
}

// Octree returns the reader's arena, including whatever portion of the tree
// has been loaded so far.
func (r *Reader) Octree() *Arena {
	return r.octree
}

func arrayToVec3(a [3]float64) Vec3 {
	return Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// Metadata returns the parsed metadata.json document.
func (r *Reader) Metadata() Metadata {
	return r.metadata
}
