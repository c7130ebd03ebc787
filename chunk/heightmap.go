package chunk

import (
	"fmt"

	"github.com/richgrov/chunkwire/bitstorage"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

const (
	heightmapColumns = level.SectionWidth * level.SectionWidth
	// Entry width clients expect for both packings
	heightmapBits = 9
)

// Heightmaps sent from 1.14 on as an unnamed NBT compound
type Heightmaps struct {
	MotionBlocking []uint64 `nbt:"MOTION_BLOCKING"`
	WorldSurface   []uint64 `nbt:"WORLD_SURFACE"`
}

func heightmapIndex(x, z int) int {
	return x + z<<4
}

// Scans every column bottom to top and records one above the highest
// matching block. Columns without a match stay 0.
func computeHeightmaps(snapshot *level.ChunkSnapshot, sectionCount int, v version.Version) Heightmaps {
	motionBlocking := bitstorage.ForVersion(v, heightmapBits, heightmapColumns)
	worldSurface := bitstorage.ForVersion(v, heightmapBits, heightmapColumns)

	for i := 0; i < sectionCount; i++ {
		section := snapshot.Section(i)
		if section == nil {
			continue
		}

		for y := 0; y < level.SectionWidth; y++ {
			top := uint32(i*level.SectionWidth + y + 1)
			for x := 0; x < level.SectionWidth; x++ {
				for z := 0; z < level.SectionWidth; z++ {
					block := section.Block(x, y, z)
					if block.Air() {
						continue
					}

					index := heightmapIndex(x, z)
					worldSurface.Set(index, top)
					if block.MotionBlocking() {
						motionBlocking.Set(index, top)
					}
				}
			}
		}
	}

	return Heightmaps{
		MotionBlocking: motionBlocking.Words(),
		WorldSurface:   worldSurface.Words(),
	}
}

// Unpacks both heightmaps into per-column heights
func (h Heightmaps) Columns(v version.Version) (motionBlocking, worldSurface []uint32, err error) {
	unpack := func(name string, words []uint64) ([]uint32, error) {
		storage, err := bitstorage.FromWords(v, heightmapBits, heightmapColumns, words)
		if err != nil {
			return nil, fmt.Errorf("%s heightmap: %w", name, err)
		}

		out := make([]uint32, heightmapColumns)
		for i := range out {
			out[i] = storage.Get(i)
		}
		return out, nil
	}

	if motionBlocking, err = unpack("motion blocking", h.MotionBlocking); err != nil {
		return nil, nil, err
	}
	if worldSurface, err = unpack("world surface", h.WorldSurface); err != nil {
		return nil, nil, err
	}
	return motionBlocking, worldSurface, nil
}
