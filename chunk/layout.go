package chunk

import "github.com/richgrov/chunkwire/version"

type sectionFormat int

const (
	// Block bytes, metadata, block light and sky light in four passes
	sectionBytes sectionFormat = iota
	// Little-endian shorts, block light and sky light in three passes
	sectionShorts
	// Paletted storage followed by both light arrays
	sectionPalettedLight
	// Non-air count then paletted storage. Light moved to its own packet.
	sectionCounted
	// Counted storage followed by a biome storage
	sectionCountedBiomes
)

type maskFormat int

const (
	maskShort maskFormat = iota
	maskVarInt
	maskLongArray
	maskNone
)

type heightmapFormat int

const (
	heightmapNone heightmapFormat = iota
	heightmapSpanning
	heightmapAligned
)

type biomeFormat int

const (
	biomesNone biomeFormat = iota
	biomesBytes
	biomesInts
	biomesVarInts
)

// Shape of a chunk data packet within one range of protocol versions
type layout struct {
	section        sectionFormat
	passes         int
	partialChunks  bool
	ignoreOldData  bool
	mask           maskFormat
	heightmap      heightmapFormat
	headerBiomes   biomeFormat
	trailingBiomes biomeFormat
	compressed     bool
	blockEntities  bool
	placeholders   bool
	lightTrailer   bool
}

type band struct {
	since  version.Version
	layout layout
}

// Ordered by the first version each layout applies to
var bands = []band{
	{version.V1_7_2, layout{
		section: sectionBytes, passes: 4, partialChunks: true, mask: maskShort,
		trailingBiomes: biomesBytes, compressed: true,
	}},
	{version.V1_8, layout{
		section: sectionShorts, passes: 3, partialChunks: true, mask: maskShort,
		trailingBiomes: biomesBytes,
	}},
	{version.V1_9, layout{
		section: sectionPalettedLight, passes: 1, partialChunks: true, mask: maskVarInt,
		trailingBiomes: biomesBytes,
	}},
	{version.V1_9_4, layout{
		section: sectionPalettedLight, passes: 1, partialChunks: true, mask: maskVarInt,
		trailingBiomes: biomesBytes, blockEntities: true,
	}},
	{version.V1_13, layout{
		section: sectionPalettedLight, passes: 1, partialChunks: true, mask: maskVarInt,
		trailingBiomes: biomesInts, blockEntities: true,
	}},
	{version.V1_14, layout{
		section: sectionCounted, passes: 1, partialChunks: true, mask: maskVarInt,
		heightmap: heightmapSpanning, trailingBiomes: biomesInts, blockEntities: true,
	}},
	{version.V1_15, layout{
		section: sectionCounted, passes: 1, partialChunks: true, mask: maskVarInt,
		heightmap: heightmapSpanning, headerBiomes: biomesInts, blockEntities: true,
	}},
	{version.V1_16, layout{
		section: sectionCounted, passes: 1, partialChunks: true, ignoreOldData: true, mask: maskVarInt,
		heightmap: heightmapAligned, headerBiomes: biomesInts, blockEntities: true,
	}},
	{version.V1_16_2, layout{
		section: sectionCounted, passes: 1, partialChunks: true, mask: maskVarInt,
		heightmap: heightmapAligned, headerBiomes: biomesVarInts, blockEntities: true,
	}},
	{version.V1_17, layout{
		section: sectionCounted, passes: 1, mask: maskLongArray,
		heightmap: heightmapAligned, headerBiomes: biomesVarInts, blockEntities: true,
	}},
	{version.V1_18, layout{
		section: sectionCountedBiomes, passes: 1, mask: maskNone,
		heightmap: heightmapAligned, blockEntities: true, placeholders: true, lightTrailer: true,
	}},
}

// Returns the layout of the newest band that starts at or before v
func layoutFor(v version.Version) (layout, bool) {
	if v < bands[0].since {
		return layout{}, false
	}

	l := bands[0].layout
	for _, b := range bands[1:] {
		if v < b.since {
			break
		}
		l = b.layout
	}
	return l, true
}
