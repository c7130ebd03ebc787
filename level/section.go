package level

import (
	"fmt"

	"github.com/richgrov/chunkwire/blocks"
)

const (
	SectionWidth  = 16
	SectionBlocks = SectionWidth * SectionWidth * SectionWidth
)

// Linear index of a voxel inside a section. This is also the order entries
// are serialized on the wire.
func SectionIndex(x, y, z int) int {
	return y<<8 | z<<4 | x
}

func checkCoords(x, y, z int) {
	if x < 0 || x >= SectionWidth || y < 0 || y >= SectionWidth || z < 0 || z >= SectionWidth {
		panic(fmt.Sprintf("section coordinates (%d, %d, %d) must be between 0 and 15", x, y, z))
	}
}

// A 16x16x16 cube of blocks. Unset voxels are air.
type Section struct {
	blocks [SectionBlocks]blocks.Block
}

func NewSection() *Section {
	return &Section{}
}

func (s *Section) Block(x, y, z int) blocks.Block {
	checkCoords(x, y, z)
	return s.at(SectionIndex(x, y, z))
}

func (s *Section) at(index int) blocks.Block {
	if b := s.blocks[index]; b != nil {
		return b
	}
	return blocks.Air
}

func (s *Section) SetBlock(x, y, z int, block blocks.Block) {
	checkCoords(x, y, z)
	if block == nil {
		block = blocks.Air
	}
	s.blocks[SectionIndex(x, y, z)] = block
}

// Number of voxels that are not air
func (s *Section) NonAirCount() int {
	count := 0
	for i := range s.blocks {
		if !s.at(i).Air() {
			count++
		}
	}
	return count
}

func (s *Section) Copy() *Section {
	out := *s
	return &out
}

// Reports whether both sections hold the same block at every voxel
func (s *Section) Equal(other *Section) bool {
	for i := range s.blocks {
		if s.at(i) != other.at(i) {
			return false
		}
	}
	return true
}
