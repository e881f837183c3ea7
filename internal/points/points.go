// Package points decompresses a Potree v2 node's point payload and decodes
// its Morton-interleaved position and color columns.
//
// Decode takes plain local structs rather than the root potree package's
// Metadata/Node types, mirroring the teacher's internal/layout package
// (which takes message.* structs instead of importing the public hdf5
// package) — this avoids an import cycle between potree and internal/points.
package points

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/kestrelpc/potree/internal/morton"
)

// ErrDecompress wraps a Brotli stream failure.
var ErrDecompress = errors.New("points: brotli decompress failed")

// ErrInvalidBinaryData is returned when the decompressed payload is shorter
// than the attribute layout demands, or when a position or color attribute
// declares a per-point size other than 16 or 8 bytes respectively.
var ErrInvalidBinaryData = errors.New("points: invalid binary data")

// AttributeSpec describes one column of the per-point record layout.
type AttributeSpec struct {
	Name string
	Size uint16 // bytes occupied by this attribute, per point
}

// Vec3 is a double-precision 3-component vector.
type Vec3 struct {
	X, Y, Z float64
}

// NodeInfo carries the subset of arena.Node fields the decoder needs.
type NodeInfo struct {
	NumPoints      uint32
	BoundingBoxMin Vec3
}

// MetadataInfo carries the subset of the metadata document the decoder
// needs: the position scale/offset and the declared attribute layout.
type MetadataInfo struct {
	Scale      Vec3
	Offset     Vec3
	Attributes []AttributeSpec
}

// PointData is one decoded point: world-space position and 8-bit color.
type PointData struct {
	Position Vec3
	Color    [3]uint8
}

// Decode decompresses raw (a single Brotli frame) and decodes it into
// node.NumPoints PointData values, using meta's attribute layout to find
// the position and color columns. Unrecognized attributes are skipped.
func Decode(raw []byte, node NodeInfo, meta MetadataInfo) ([]PointData, error) {
	decompressed, err := decompress(raw)
	if err != nil {
		return nil, err
	}

	out := make([]PointData, node.NumPoints)
	numPoints := int(node.NumPoints)

	offset := 0
	for _, attr := range meta.Attributes {
		colSize := int(attr.Size) * numPoints
		if offset+colSize > len(decompressed) {
			return nil, fmt.Errorf("%w: attribute %q needs %d bytes at offset %d, have %d",
				ErrInvalidBinaryData, attr.Name, colSize, offset, len(decompressed))
		}
		column := decompressed[offset : offset+colSize]

		switch {
		case isPositionAttribute(attr.Name):
			if attr.Size != 16 {
				return nil, fmt.Errorf("%w: position attribute %q has size %d, want 16",
					ErrInvalidBinaryData, attr.Name, attr.Size)
			}
			decodePositions(column, numPoints, node, meta, out)
		case isColorAttribute(attr.Name):
			if attr.Size != 8 {
				return nil, fmt.Errorf("%w: color attribute %q has size %d, want 8",
					ErrInvalidBinaryData, attr.Name, attr.Size)
			}
			decodeColors(column, numPoints, out)
		}

		offset += colSize
	}

	return out, nil
}

func isPositionAttribute(name string) bool {
	n := strings.ToLower(name)
	return n == "position" || n == "position_cartesian"
}

func isColorAttribute(name string) bool {
	n := strings.ToLower(name)
	return n == "rgba" || n == "rgb"
}

func decompress(raw []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(raw))
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	return data, nil
}

// decodePositions reconstructs world-space coordinates for every point in
// column, a run of 16-byte Morton-encoded position records.
func decodePositions(column []byte, numPoints int, node NodeInfo, meta MetadataInfo, out []PointData) {
	for p := 0; p < numPoints; p++ {
		rec := column[p*16 : p*16+16]
		var w [4]uint32
		for i := range w {
			w[i] = binary.LittleEndian.Uint32(rec[i*4 : i*4+4])
		}
		x, y, z := morton.Decode128(w)

		out[p].Position = worldCoordinate(
			float64(x), float64(y), float64(z),
			node.BoundingBoxMin, meta.Scale, meta.Offset,
		)
	}
}

// worldCoordinate applies the spec's literal (non-reduced) formula:
// min + (decoded*scale + offset - min). Algebraically this collapses to
// decoded*scale + offset, but the extra subtract-then-add preserves the
// producer's intended floating-point rounding and must be computed exactly
// this way to match bit-for-bit.
func worldCoordinate(dx, dy, dz float64, min, scale, offset Vec3) Vec3 {
	return Vec3{
		X: min.X + (dx*scale.X + offset.X - min.X),
		Y: min.Y + (dy*scale.Y + offset.Y - min.Y),
		Z: min.Z + (dz*scale.Z + offset.Z - min.Z),
	}
}

// decodeColors reconstructs 8-bit RGB for every point in column, a run of
// 8-byte Morton-encoded color records.
func decodeColors(column []byte, numPoints int, out []PointData) {
	for p := 0; p < numPoints; p++ {
		rec := column[p*8 : p*8+8]
		w0 := binary.LittleEndian.Uint32(rec[0:4])
		w1 := binary.LittleEndian.Uint32(rec[4:8])

		r, g, b := morton.Decode64(w0, w1)
		out[p].Color = [3]uint8{compress8(r), compress8(g), compress8(b)}
	}
}

// compress8 maps a 16-bit channel to 8 bits: Potree v2 color channels are
// sometimes stored at full 16-bit depth, in which case they need dividing
// down; 8-bit-depth sources pass through unchanged.
func compress8(c uint16) uint8 {
	if c > 255 {
		return uint8(c / 256)
	}
	return uint8(c)
}
