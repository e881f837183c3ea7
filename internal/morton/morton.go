// Package morton de-interleaves the Morton-coded position and color records
// found in Potree v2 point data: every third bit of a packed word belongs to
// one axis/channel, and decoding gathers those bits back into a dense value.
package morton

// dealign64 gathers every third bit of m, starting at bit 0, into the low
// bits of the result. It is the standard "compress" half of a 3-way bit
// interleave, widened to a 64-bit word so a full 21-bit axis can be gathered
// in one pass without splitting at a 32-bit word boundary: if m's bits at
// positions 0, 3, 6, ..., 63 hold one axis's bits, dealign64(m) returns those
// 21 bits packed contiguously into bits 0-20.
func dealign64(m uint64) uint64 {
	m &= 0x1249249249249249
	m = (m | (m >> 2)) & 0x10c30c30c30c30c3
	m = (m | (m >> 4)) & 0x100f00f00f00f00f
	m = (m | (m >> 8)) & 0x001f0000ff0000ff
	m = (m | (m >> 16)) & 0x001f00000000ffff
	m = (m | (m >> 32)) & 0x00000000001fffff
	return m
}

// decodeAxis reconstructs one axis's coordinate from the four raw Morton
// words (w[0] the most-significant word, w[3] the least-significant). shift
// selects which bit-plane of each interleaved triple belongs to this axis:
// 0 for X, 1 for Y, 2 for Z. w[2]:w[3] carry the low 21 bits of the axis as a
// single 64-bit window; w[0]:w[1], when present, carry the next 21 bits
// above that.
func decodeAxis(w [4]uint32, shift uint) uint64 {
	lo := uint64(w[2])<<32 | uint64(w[3])
	v := dealign64(lo >> shift)

	if w[1] != 0 || w[0] != 0 {
		hi := uint64(w[0])<<32 | uint64(w[1])
		v |= dealign64(hi>>shift) << 21
	}
	return v
}

// Decode128 reconstructs the (X, Y, Z) grid coordinates from the four 32-bit
// words of a 128-bit Morton-interleaved POSITION_CARTESIAN record.
func Decode128(w [4]uint32) (x, y, z uint64) {
	return decodeAxis(w, 0), decodeAxis(w, 1), decodeAxis(w, 2)
}

// Decode64 reconstructs three channel values (typically R, G, B) from the
// two 32-bit words of a 64-bit Morton-interleaved color record. It reuses
// decodeAxis on a zero-padded word array: with no upper half to extend into,
// each channel comes from the single 64-bit window (up to 21 bits), and the
// conversion to uint16 keeps its low 16 bits, the width of one color channel.
func Decode64(w0, w1 uint32) (c0, c1, c2 uint16) {
	words := [4]uint32{0, 0, w0, w1}
	return uint16(decodeAxis(words, 0)), uint16(decodeAxis(words, 1)), uint16(decodeAxis(words, 2))
}
