package level

import (
	"fmt"

	"github.com/richgrov/chunkwire/blocks"
)

// Sections in a column before 1.18, and in the 1.18 nether and end
const LegacySections = 16

type ChunkPos struct {
	X int32
	Z int32
}

// Mutable chunk column owned by the world. Sections are allocated on the
// first non-air write.
type Chunk struct {
	Pos      ChunkPos
	sections []*Section
	light    []*LightSection
	biomes   []Biome
}

func NewChunk(pos ChunkPos, sectionCount int) *Chunk {
	if sectionCount <= 0 {
		panic("section count must be positive")
	}

	ch := &Chunk{
		Pos:      pos,
		sections: make([]*Section, sectionCount),
		light:    make([]*LightSection, sectionCount),
		biomes:   make([]Biome, sectionCount*BiomesPerSection),
	}

	for i := range ch.light {
		ch.light[i] = NewLightSection()
	}
	ch.FillBiome(Plains)
	return ch
}

func (ch *Chunk) Height() int {
	return len(ch.sections) * SectionWidth
}

func (ch *Chunk) checkColumn(x, y, z int) {
	if x < 0 || x >= SectionWidth || z < 0 || z >= SectionWidth || y < 0 || y >= ch.Height() {
		panic(fmt.Sprintf("chunk coordinates (%d, %d, %d) are outside the column", x, y, z))
	}
}

func (ch *Chunk) Block(x, y, z int) blocks.Block {
	ch.checkColumn(x, y, z)
	section := ch.sections[y>>4]
	if section == nil {
		return blocks.Air
	}
	return section.Block(x, y&15, z)
}

func (ch *Chunk) SetBlock(x, y, z int, block blocks.Block) {
	ch.checkColumn(x, y, z)
	section := ch.sections[y>>4]
	if section == nil {
		if block == nil || block.Air() {
			return
		}
		section = NewSection()
		ch.sections[y>>4] = section
	}
	section.SetBlock(x, y&15, z, block)
}

func (ch *Chunk) SetBlockLight(x, y, z int, value byte) {
	ch.checkColumn(x, y, z)
	ch.light[y>>4].SetBlockLight(x, y&15, z, value)
}

func (ch *Chunk) SetSkyLight(x, y, z int, value byte) {
	ch.checkColumn(x, y, z)
	ch.light[y>>4].SetSkyLight(x, y&15, z, value)
}

func (ch *Chunk) SetBiome(x, y, z int, biome Biome) {
	ch.checkColumn(x, y, z)
	ch.biomes[BiomeIndex(x, y, z)] = biome
}

func (ch *Chunk) FillBiome(biome Biome) {
	for i := range ch.biomes {
		ch.biomes[i] = biome
	}
}

// Copies the current state into an immutable snapshot. A non-full snapshot
// only carries the sections that hold blocks and is meant for partial
// updates.
func (ch *Chunk) Snapshot(fullChunk bool) *ChunkSnapshot {
	sections := make([]*Section, len(ch.sections))
	for i, section := range ch.sections {
		if section != nil {
			sections[i] = section.Copy()
		}
	}

	light := make([]*LightSection, len(ch.light))
	for i, l := range ch.light {
		light[i] = l.Copy()
	}

	biomes := make([]Biome, len(ch.biomes))
	copy(biomes, ch.biomes)

	return &ChunkSnapshot{
		x:         ch.Pos.X,
		z:         ch.Pos.Z,
		fullChunk: fullChunk,
		sections:  sections,
		light:     light,
		biomes:    biomes,
	}
}

// Immutable view of a chunk column handed to the network encoder. None of the
// returned slices or pointers may be modified.
type ChunkSnapshot struct {
	x         int32
	z         int32
	fullChunk bool
	sections  []*Section
	light     []*LightSection
	biomes    []Biome
}

// Builds a snapshot from data owned by the caller, who must not modify it
// afterwards. light and biomes may be shorter than required; missing entries
// read as default light and plains.
func NewSnapshot(x, z int32, fullChunk bool, sections []*Section, light []*LightSection, biomes []Biome) *ChunkSnapshot {
	return &ChunkSnapshot{
		x:         x,
		z:         z,
		fullChunk: fullChunk,
		sections:  sections,
		light:     light,
		biomes:    biomes,
	}
}

func (s *ChunkSnapshot) X() int32 {
	return s.x
}

func (s *ChunkSnapshot) Z() int32 {
	return s.z
}

func (s *ChunkSnapshot) FullChunk() bool {
	return s.fullChunk
}

// Sections indexed by vertical slot. nil entries carry no data.
func (s *ChunkSnapshot) Sections() []*Section {
	return s.sections
}

func (s *ChunkSnapshot) Section(index int) *Section {
	if index < 0 || index >= len(s.sections) {
		return nil
	}
	return s.sections[index]
}

func (s *ChunkSnapshot) Light() []*LightSection {
	return s.light
}

var defaultLight = NewLightSection()

func (s *ChunkSnapshot) LightAt(index int) *LightSection {
	if index < 0 || index >= len(s.light) || s.light[index] == nil {
		return defaultLight
	}
	return s.light[index]
}

func (s *ChunkSnapshot) Biomes() []Biome {
	return s.biomes
}

func (s *ChunkSnapshot) BiomeAt(index int) Biome {
	if index < 0 || index >= len(s.biomes) {
		return Plains
	}
	return s.biomes[index]
}

// Block at column coordinates. Anything outside the stored sections is air.
func (s *ChunkSnapshot) Block(x, y, z int) blocks.Block {
	section := s.Section(y >> 4)
	if section == nil || y < 0 {
		return blocks.Air
	}
	return section.Block(x, y&15, z)
}
