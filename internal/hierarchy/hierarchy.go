// Package hierarchy parses a Potree v2 hierarchy chunk — a flat run of
// fixed-width binary records — into nodes linked inside an arena.Arena.
package hierarchy

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/kestrelpc/potree/internal/aabb"
	"github.com/kestrelpc/potree/internal/arena"
)

// recordSize is the width in bytes of one hierarchy record: type (u8),
// child_mask (u8), num_points (u32), byte_offset (u64), byte_size (u64).
const recordSize = 22

// ErrInvalidBinaryData is returned for any structurally malformed chunk:
// wrong length, an unknown node type byte, or a child-mask/record-count
// mismatch.
var ErrInvalidBinaryData = errors.New("hierarchy: invalid binary data")

// ParseChunk decodes buf, a run of 22-byte hierarchy records, against a
// sub-root node that is already present in a at rootID (either the tree's
// real root or a proxy node being re-materialized). It pre-allocates the
// remaining num_nodes-1 slots, walks records in chunk order, and links each
// record's children into the arena before moving to the next record. Each
// record's children take the next unclaimed slots, so the records of a chunk
// are laid out breadth-first.
func ParseChunk(a *arena.Arena, rootID arena.NodeId, buf []byte) error {
	if len(buf) == 0 || len(buf)%recordSize != 0 {
		return fmt.Errorf("%w: chunk length %d is not a positive multiple of %d", ErrInvalidBinaryData, len(buf), recordSize)
	}
	numNodes := len(buf) / recordSize

	ids := make([]arena.NodeId, numNodes)
	ids[0] = rootID
	if numNodes > 1 {
		copy(ids[1:], a.Reserve(numNodes-1))
	}

	cursor := 1
	for i := 0; i < numNodes; i++ {
		rec := buf[i*recordSize : (i+1)*recordSize]
		recType := rec[0]
		mask := rec[1]
		numPoints := binary.LittleEndian.Uint32(rec[2:6])
		byteOffset := binary.LittleEndian.Uint64(rec[6:14])
		byteSize := binary.LittleEndian.Uint64(rec[14:22])

		if recType > 2 {
			return fmt.Errorf("%w: record %d has unknown type %d", ErrInvalidBinaryData, i, recType)
		}

		curID := ids[i]
		cur := a.Get(curID)
		if cur == nil {
			return fmt.Errorf("%w: record %d references unknown node id %d", ErrInvalidBinaryData, i, curID)
		}

		switch {
		case cur.NodeType == 2:
			// Re-materializing a proxy: overwrite its point-payload range
			// even though the incoming record may declare it a proxy again
			// (a chain of proxies pointing at further hierarchy chunks).
			cur.ByteOffset = byteOffset
			cur.ByteSize = byteSize
		case recType == 2:
			// A freshly discovered proxy child: its offsets point into
			// hierarchy.bin, not octree.bin.
			cur.HierarchyByteOffset = byteOffset
			cur.HierarchyByteSize = byteSize
		default:
			cur.ByteOffset = byteOffset
			cur.ByteSize = byteSize
		}
		cur.NumPoints = numPoints

		if cur.ByteSize == 0 {
			cur.NumPoints = 0 // workaround for potree/potree#1125
		}

		cur.NodeType = recType

		if recType == 2 {
			continue // proxies declare no children in this chunk
		}

		for j := 0; j < 8; j++ {
			if mask&(1<<uint(j)) == 0 {
				continue
			}
			if cursor >= numNodes {
				return fmt.Errorf("%w: child mask at record %d overruns record count %d", ErrInvalidBinaryData, i, numNodes)
			}

			childID := ids[cursor]
			child := a.Get(childID)
			child.Name = fmt.Sprintf("%s%d", cur.Name, j)
			child.BoundingBox = aabb.Child(cur.BoundingBox, j)
			child.Spacing = cur.Spacing / 2
			child.Level = cur.Level + 1

			parent := curID
			child.Parent = &parent

			cid := childID
			cur.Children[j] = &cid

			cursor++
		}
	}

	if cursor != numNodes {
		return fmt.Errorf("%w: cursor %d does not match record count %d after parsing", ErrInvalidBinaryData, cursor, numNodes)
	}
	return nil
}
