// Package aabb provides the axis-aligned bounding box used by octree nodes
// and the child-AABB derivation rule that subdivides a parent box into its
// eight octants.
package aabb

// Vec3 is a double-precision 3-component vector, used for bounding box
// corners, node spacing math, and world-space point coordinates.
type Vec3 struct {
	X, Y, Z float64
}

// Aabb is an axis-aligned bounding box.
type Aabb struct {
	Min, Max Vec3
}

// Child returns the AABB of the given octant (0 through 7) within parent.
//
// Bit 0 of index selects the z half, bit 1 selects y, bit 2 selects x: a set
// bit takes the upper half on that axis, a clear bit takes the lower half.
// This mapping must match byte-for-byte across implementations since octant
// indices are persisted in the hierarchy chunk's child mask.
func Child(parent Aabb, index int) Aabb {
	min := parent.Min
	max := parent.Max

	halfX := (parent.Max.X - parent.Min.X) * 0.5
	halfY := (parent.Max.Y - parent.Min.Y) * 0.5
	halfZ := (parent.Max.Z - parent.Min.Z) * 0.5

	if index&0b001 != 0 {
		min.Z += halfZ
	} else {
		max.Z -= halfZ
	}
	if index&0b010 != 0 {
		min.Y += halfY
	} else {
		max.Y -= halfY
	}
	if index&0b100 != 0 {
		min.X += halfX
	} else {
		max.X -= halfX
	}

	return Aabb{Min: min, Max: max}
}
