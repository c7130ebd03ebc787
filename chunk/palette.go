package chunk

import "github.com/richgrov/chunkwire/version"

const (
	minIndirectBits = 4
	maxIndirectBits = 8

	maxIndirectBiomeBits = 3
	directBiomeBits      = 6
)

// Width of the global block state palette
func directBits(v version.Version) int {
	switch {
	case v < version.V1_13:
		return 13
	case v < version.V1_16:
		return 14
	default:
		return 15
	}
}

// Smallest storage width for a block palette that must address the given
// number of entries. Widths past the indirect maximum jump straight to the
// global palette.
func blockBitsFor(v version.Version, entries int) int {
	bits := bitsNeeded(entries)
	if bits < minIndirectBits {
		return minIndirectBits
	}
	if bits <= maxIndirectBits {
		return bits
	}
	return directBits(v)
}

// Same as blockBitsFor, for the 1.18 biome palette which may be single-valued
func biomeBitsFor(entries int) int {
	bits := bitsNeeded(entries)
	if bits <= maxIndirectBiomeBits {
		return bits
	}
	return directBiomeBits
}

// Bits needed to address indices 0..entries-1
func bitsNeeded(entries int) int {
	bits := 0
	for (1 << bits) < entries {
		bits++
	}
	return bits
}
