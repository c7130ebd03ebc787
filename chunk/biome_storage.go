package chunk

import (
	"bytes"
	"fmt"

	"github.com/richgrov/chunkwire/bitstorage"
	"github.com/richgrov/chunkwire/internal/protocol"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

// Per-section biome container sent from 1.18 on. A section with a single
// biome takes zero bits and carries the biome inline.
type BiomeStorage struct {
	version    version.Version
	palette    []level.Biome
	rawToBiome map[int32]level.Biome
	storage    bitstorage.CompactStorage
}

func NewBiomeStorage(v version.Version) *BiomeStorage {
	return &BiomeStorage{
		version:    v,
		rawToBiome: make(map[int32]level.Biome),
		storage:    bitstorage.ForVersion(v, 0, level.BiomesPerSection),
	}
}

func (s *BiomeStorage) direct() bool {
	return s.storage.BitsPerEntry() > maxIndirectBiomeBits
}

func (s *BiomeStorage) BitsPerEntry() int {
	return s.storage.BitsPerEntry()
}

func (s *BiomeStorage) Set(index int, biome level.Biome) {
	if index < 0 || index >= level.BiomesPerSection {
		panic(fmt.Sprintf("biome index %d out of range [0, %d)", index, level.BiomesPerSection))
	}
	s.storage.Set(index, s.indexOf(biome))
}

func (s *BiomeStorage) Get(index int) level.Biome {
	value := s.storage.Get(index)
	if s.direct() {
		return s.rawToBiome[int32(value)]
	}
	if len(s.palette) == 0 {
		return level.Plains
	}
	return s.palette[value]
}

func (s *BiomeStorage) indexOf(biome level.Biome) uint32 {
	if s.direct() {
		s.rawToBiome[biome.ID] = biome
		return uint32(biome.ID)
	}

	for i, b := range s.palette {
		if b == biome {
			return uint32(i)
		}
	}

	s.palette = append(s.palette, biome)
	if len(s.palette) > 1<<s.storage.BitsPerEntry() {
		s.grow(len(s.palette))
		if s.direct() {
			return s.indexOf(biome)
		}
	}
	return uint32(len(s.palette) - 1)
}

func (s *BiomeStorage) grow(entries int) {
	bits := biomeBitsFor(entries)
	if bits <= maxIndirectBiomeBits {
		s.storage = s.storage.Resize(bits)
		return
	}

	for _, b := range s.palette {
		s.rawToBiome[b.ID] = b
	}

	next := bitstorage.ForVersion(s.version, bits, level.BiomesPerSection)
	for i := 0; i < level.BiomesPerSection; i++ {
		next.Set(i, uint32(s.palette[s.storage.Get(i)].ID))
	}
	s.storage = next
}

func (s *BiomeStorage) Write(buf *bytes.Buffer) error {
	if buf == nil {
		return ErrNilBuffer
	}

	buf.WriteByte(byte(s.storage.BitsPerEntry()))
	switch {
	case s.storage.BitsPerEntry() == 0:
		protocol.WriteVarInt(buf, s.single().ID)
	case !s.direct():
		protocol.WriteVarInt(buf, int32(len(s.palette)))
		for _, b := range s.palette {
			protocol.WriteVarInt(buf, b.ID)
		}
	}

	protocol.WriteLongs(buf, s.storage.Words())
	return nil
}

func (s *BiomeStorage) single() level.Biome {
	if len(s.palette) == 0 {
		return level.Plains
	}
	return s.palette[0]
}

func (s *BiomeStorage) DataLength() int {
	length := 1
	switch {
	case s.storage.BitsPerEntry() == 0:
		length += protocol.VarIntSize(s.single().ID)
	case !s.direct():
		length += protocol.VarIntSize(int32(len(s.palette)))
		for _, b := range s.palette {
			length += protocol.VarIntSize(b.ID)
		}
	}
	return length + s.storage.DataLength()
}
