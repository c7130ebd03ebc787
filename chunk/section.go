package chunk

import (
	"bytes"
	"sync"

	"github.com/richgrov/chunkwire/internal/protocol"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

const lightArrayLength = level.SectionBlocks / 2

// One section of a snapshot prepared for the wire. Storages are built on first
// use for each protocol version and reused by every later encode, so a
// NetworkSection is safe to share between goroutines encoding for different
// versions.
type NetworkSection struct {
	index      int
	section    *level.Section
	blockLight *level.NibbleArray
	// nil in dimensions without sky light
	skyLight *level.NibbleArray
	biomes   [level.BiomesPerSection]level.Biome

	blockStorages versionCache[BlockStorage]
	biomeStorages versionCache[*BiomeStorage]

	countOnce  sync.Once
	blockCount int
}

func NewNetworkSection(index int, section *level.Section, light *level.LightSection, skyLight bool, biomes []level.Biome) *NetworkSection {
	s := &NetworkSection{
		index:      index,
		section:    section,
		blockLight: light.BlockLight(),
	}

	if skyLight {
		s.skyLight = light.SkyLight()
	}

	start := index * level.BiomesPerSection
	for i := range s.biomes {
		if start+i < len(biomes) {
			s.biomes[i] = biomes[start+i]
		} else {
			s.biomes[i] = level.Plains
		}
	}

	return s
}

func (s *NetworkSection) Index() int {
	return s.index
}

// Non-air blocks in the section
func (s *NetworkSection) BlockCount() int {
	s.countOnce.Do(func() {
		s.blockCount = s.section.NonAirCount()
	})
	return s.blockCount
}

func (s *NetworkSection) Storage(v version.Version) BlockStorage {
	return s.blockStorages.get(v, func() BlockStorage {
		storage := newBlockStorage(v)
		for y := 0; y < level.SectionWidth; y++ {
			for z := 0; z < level.SectionWidth; z++ {
				for x := 0; x < level.SectionWidth; x++ {
					if b := s.section.Block(x, y, z); !b.Air() {
						storage.Set(x, y, z, b)
					}
				}
			}
		}
		return storage
	})
}

func (s *NetworkSection) BiomeStorage(v version.Version) *BiomeStorage {
	return s.biomeStorages.get(v, func() *BiomeStorage {
		storage := NewBiomeStorage(v)
		for i, biome := range s.biomes {
			storage.Set(i, biome)
		}
		return storage
	})
}

// Writes the part of the section sent in the given pass
func (s *NetworkSection) WriteData(buf *bytes.Buffer, pass int, v version.Version) error {
	l, ok := layoutFor(v)
	if !ok {
		return ErrUnsupportedVersion
	}
	return s.writeData(buf, pass, v, l)
}

func (s *NetworkSection) writeData(buf *bytes.Buffer, pass int, v version.Version, l layout) error {
	if buf == nil {
		return ErrNilBuffer
	}

	switch l.section {
	case sectionBytes:
		switch pass {
		case 0, 1:
			return s.Storage(v).Write(buf, pass)
		case 2:
			buf.Write(s.blockLight.Bytes())
		case 3:
			s.writeSkyLight(buf)
		}

	case sectionShorts:
		switch pass {
		case 0:
			return s.Storage(v).Write(buf, 0)
		case 1:
			buf.Write(s.blockLight.Bytes())
		case 2:
			s.writeSkyLight(buf)
		}

	case sectionPalettedLight:
		if pass == 0 {
			if err := s.Storage(v).Write(buf, 0); err != nil {
				return err
			}
			buf.Write(s.blockLight.Bytes())
			s.writeSkyLight(buf)
		}

	case sectionCounted, sectionCountedBiomes:
		if pass == 0 {
			protocol.WriteShort(buf, int16(s.BlockCount()))
			if err := s.Storage(v).Write(buf, 0); err != nil {
				return err
			}
			if l.section == sectionCountedBiomes {
				return s.BiomeStorage(v).Write(buf)
			}
		}
	}

	return nil
}

func (s *NetworkSection) writeSkyLight(buf *bytes.Buffer) {
	if s.skyLight != nil {
		buf.Write(s.skyLight.Bytes())
	}
}

// Bytes the section contributes to the data array over all passes
func (s *NetworkSection) DataLength(v version.Version) int {
	l, ok := layoutFor(v)
	if !ok {
		return 0
	}
	return s.dataLength(v, l)
}

func (s *NetworkSection) dataLength(v version.Version, l layout) int {
	length := s.Storage(v).DataLength()

	switch l.section {
	case sectionBytes, sectionShorts, sectionPalettedLight:
		length += lightArrayLength
		if s.skyLight != nil {
			length += lightArrayLength
		}
	case sectionCounted:
		length += 2
	case sectionCountedBiomes:
		length += 2 + s.BiomeStorage(v).DataLength()
	}

	return length
}
