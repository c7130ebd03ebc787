package chunk

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/richgrov/chunkwire/bitstorage"
	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/internal/protocol"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

var ErrNilBuffer = errors.New("cannot write block storage to a nil buffer")

// Block data of one section encoded for a single protocol version. Filled
// once while a NetworkSection builds it and read-only afterwards.
type BlockStorage interface {
	Set(x, y, z int, block blocks.Block)
	Get(x, y, z int) blocks.Block
	// Writes the part of the storage sent in the given pass. Formats with a
	// single pass ignore everything but pass 0.
	Write(buf *bytes.Buffer, pass int) error
	// Total bytes written over all passes
	DataLength() int
	Copy() BlockStorage
}

func newBlockStorage(v version.Version) BlockStorage {
	if v < version.V1_9 {
		return newLegacyStorage(v)
	}
	return NewPalettedStorage(v)
}

func checkCoords(x, y, z int) {
	if x < 0 || x > 15 || y < 0 || y > 15 || z < 0 || z > 15 {
		panic(fmt.Sprintf("section coordinates (%d, %d, %d) must be between 0 and 15", x, y, z))
	}
}

// Flat block array sent by 1.7 and 1.8. 1.7 sends one byte of block type per
// voxel followed by a nibble array of metadata. 1.8 sends a little-endian
// short of type<<4 | metadata per voxel.
type legacyStorage struct {
	version version.Version
	blocks  [level.SectionBlocks]blocks.Block
}

func newLegacyStorage(v version.Version) *legacyStorage {
	return &legacyStorage{version: v}
}

func (s *legacyStorage) Set(x, y, z int, block blocks.Block) {
	checkCoords(x, y, z)
	s.blocks[level.SectionIndex(x, y, z)] = block
}

func (s *legacyStorage) Get(x, y, z int) blocks.Block {
	checkCoords(x, y, z)
	return s.at(level.SectionIndex(x, y, z))
}

func (s *legacyStorage) at(index int) blocks.Block {
	if b := s.blocks[index]; b != nil {
		return b
	}
	return blocks.Air
}

func (s *legacyStorage) Write(buf *bytes.Buffer, pass int) error {
	if buf == nil {
		return ErrNilBuffer
	}

	if s.version >= version.V1_8 {
		if pass == 0 {
			for i := range s.blocks {
				protocol.WriteShortLE(buf, s.at(i).ID(s.version))
			}
		}
		return nil
	}

	switch pass {
	case 0:
		for i := range s.blocks {
			buf.WriteByte(byte(s.at(i).ID(s.version) >> 4))
		}
	case 1:
		for i := 0; i < len(s.blocks); i += 2 {
			low := s.at(i).ID(s.version) & 0xF
			high := s.at(i+1).ID(s.version) & 0xF
			buf.WriteByte(byte(low | high<<4))
		}
	}
	return nil
}

func (s *legacyStorage) DataLength() int {
	if s.version >= version.V1_8 {
		return level.SectionBlocks * 2
	}
	return level.SectionBlocks + level.SectionBlocks/2
}

func (s *legacyStorage) Copy() BlockStorage {
	out := *s
	return &out
}

// Palette-compressed storage used from 1.9 on. Blocks are stored as indices
// into an insertion-ordered palette until the palette outgrows the indirect
// maximum, after which the storage holds global IDs directly.
type PalettedStorage struct {
	version    version.Version
	palette    []blocks.Block
	rawToBlock map[uint16]blocks.Block
	storage    bitstorage.CompactStorage
}

func NewPalettedStorage(v version.Version) *PalettedStorage {
	return &PalettedStorage{
		version:    v,
		palette:    []blocks.Block{blocks.Air},
		rawToBlock: map[uint16]blocks.Block{blocks.Air.ID(v): blocks.Air},
		storage:    bitstorage.ForVersion(v, minIndirectBits, level.SectionBlocks),
	}
}

func (s *PalettedStorage) direct() bool {
	return s.storage.BitsPerEntry() > maxIndirectBits
}

func (s *PalettedStorage) BitsPerEntry() int {
	return s.storage.BitsPerEntry()
}

// Palette in wire order. Empty once the storage holds global IDs.
func (s *PalettedStorage) Palette() []blocks.Block {
	if s.direct() {
		return nil
	}
	out := make([]blocks.Block, len(s.palette))
	copy(out, s.palette)
	return out
}

func (s *PalettedStorage) Set(x, y, z int, block blocks.Block) {
	checkCoords(x, y, z)
	if block == nil {
		block = blocks.Air
	}
	s.storage.Set(level.SectionIndex(x, y, z), s.indexOf(block))
}

func (s *PalettedStorage) Get(x, y, z int) blocks.Block {
	checkCoords(x, y, z)
	value := s.storage.Get(level.SectionIndex(x, y, z))

	if s.direct() {
		if b, ok := s.rawToBlock[uint16(value)]; ok {
			return b
		}
		return blocks.Air
	}
	return s.palette[value]
}

func (s *PalettedStorage) indexOf(block blocks.Block) uint32 {
	if s.direct() {
		raw := block.ID(s.version)
		s.rawToBlock[raw] = block
		return uint32(raw)
	}

	for i, b := range s.palette {
		if b == block {
			return uint32(i)
		}
	}

	if len(s.palette) >= 1<<s.storage.BitsPerEntry() {
		s.grow(len(s.palette) + 1)
		return s.indexOf(block)
	}

	s.palette = append(s.palette, block)
	return uint32(len(s.palette) - 1)
}

// Re-encodes every voxel so the palette can hold the given number of entries
func (s *PalettedStorage) grow(entries int) {
	bits := blockBitsFor(s.version, entries)
	if bits <= maxIndirectBits {
		s.storage = s.storage.Resize(bits)
		return
	}

	for _, b := range s.palette {
		s.rawToBlock[b.ID(s.version)] = b
	}

	next := bitstorage.ForVersion(s.version, bits, level.SectionBlocks)
	for i := 0; i < level.SectionBlocks; i++ {
		next.Set(i, uint32(s.palette[s.storage.Get(i)].ID(s.version)))
	}
	s.storage = next
}

func (s *PalettedStorage) Write(buf *bytes.Buffer, pass int) error {
	if buf == nil {
		return ErrNilBuffer
	}
	if pass != 0 {
		return nil
	}

	buf.WriteByte(byte(s.storage.BitsPerEntry()))
	if s.direct() {
		// The palette length field was dropped in 1.13
		if s.version < version.V1_13 {
			protocol.WriteVarInt(buf, 0)
		}
	} else {
		protocol.WriteVarInt(buf, int32(len(s.palette)))
		for _, b := range s.palette {
			protocol.WriteVarInt(buf, int32(b.ID(s.version)))
		}
	}

	protocol.WriteLongs(buf, s.storage.Words())
	return nil
}

func (s *PalettedStorage) DataLength() int {
	length := 1
	if s.direct() {
		if s.version < version.V1_13 {
			length++
		}
	} else {
		length += protocol.VarIntSize(int32(len(s.palette)))
		for _, b := range s.palette {
			length += protocol.VarIntSize(int32(b.ID(s.version)))
		}
	}
	return length + s.storage.DataLength()
}

func (s *PalettedStorage) Copy() BlockStorage {
	rawToBlock := make(map[uint16]blocks.Block, len(s.rawToBlock))
	for id, b := range s.rawToBlock {
		rawToBlock[id] = b
	}

	palette := make([]blocks.Block, len(s.palette))
	copy(palette, s.palette)

	return &PalettedStorage{
		version:    s.version,
		palette:    palette,
		rawToBlock: rawToBlock,
		storage:    s.storage.Copy(),
	}
}
