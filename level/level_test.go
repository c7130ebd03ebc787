package level_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/level"
)

func TestSectionIndexOrder(t *testing.T) {
	assert.Equal(t, 0, level.SectionIndex(0, 0, 0))
	assert.Equal(t, 1, level.SectionIndex(1, 0, 0))
	assert.Equal(t, 16, level.SectionIndex(0, 0, 1))
	assert.Equal(t, 256, level.SectionIndex(0, 1, 0))
	assert.Equal(t, 4095, level.SectionIndex(15, 15, 15))
}

func TestSection(t *testing.T) {
	section := level.NewSection()
	assert.Equal(t, blocks.Block(blocks.Air), section.Block(3, 4, 5))

	section.SetBlock(3, 4, 5, blocks.Stone)
	section.SetBlock(0, 0, 0, blocks.Dirt)
	section.SetBlock(0, 0, 0, nil)

	assert.Equal(t, blocks.Block(blocks.Stone), section.Block(3, 4, 5))
	assert.Equal(t, blocks.Block(blocks.Air), section.Block(0, 0, 0))
	assert.Equal(t, 1, section.NonAirCount())

	copied := section.Copy()
	section.SetBlock(3, 4, 5, blocks.Sand)
	assert.Equal(t, blocks.Block(blocks.Stone), copied.Block(3, 4, 5))
	assert.False(t, copied.Equal(section))

	assert.Panics(t, func() { section.SetBlock(16, 0, 0, blocks.Stone) })
	assert.Panics(t, func() { section.Block(0, -1, 0) })
}

func TestNibbleArray(t *testing.T) {
	arr := level.NewNibbleArray(0)
	arr.Set(0, 0x3)
	arr.Set(1, 0xC)
	arr.Set(4095, 0xF)

	assert.Equal(t, byte(0xC3), arr.Bytes()[0])
	assert.Equal(t, byte(0xF0), arr.Bytes()[2047])
	assert.Equal(t, byte(0x3), arr.Get(0))
	assert.Equal(t, byte(0xC), arr.Get(1))
	assert.Len(t, arr.Bytes(), 2048)

	assert.Panics(t, func() { arr.Set(2, 16) })

	filled := level.NewNibbleArray(15)
	for _, b := range filled.Bytes() {
		require.Equal(t, byte(0xFF), b)
	}

	decoded, err := level.NibbleArrayFromBytes(arr.Bytes())
	require.NoError(t, err)
	assert.Equal(t, arr.Bytes(), decoded.Bytes())

	_, err = level.NibbleArrayFromBytes(make([]byte, 10))
	assert.Error(t, err)
}

func TestLightCopyOnWrite(t *testing.T) {
	light := level.NewLightSection()
	assert.Same(t, level.NoLight, light.BlockLight())
	assert.Same(t, level.AllLight, light.SkyLight())

	// writing the default value keeps the shared array
	light.SetBlockLight(1, 2, 3, 0)
	light.SetSkyLight(1, 2, 3, 15)
	assert.Same(t, level.NoLight, light.BlockLight())
	assert.Same(t, level.AllLight, light.SkyLight())

	light.SetBlockLight(1, 2, 3, 7)
	light.SetSkyLight(1, 2, 3, 4)
	assert.NotSame(t, level.NoLight, light.BlockLight())
	assert.NotSame(t, level.AllLight, light.SkyLight())
	assert.Equal(t, byte(7), light.BlockLightAt(1, 2, 3))
	assert.Equal(t, byte(4), light.SkyLightAt(1, 2, 3))

	// the singletons are untouched
	assert.Equal(t, byte(0), level.NoLight.Get(level.SectionIndex(1, 2, 3)))
	assert.Equal(t, byte(15), level.AllLight.Get(level.SectionIndex(1, 2, 3)))

	assert.Panics(t, func() { light.SetBlockLight(0, 0, 0, 16) })
	assert.Panics(t, func() { light.SetSkyLight(0, 16, 0, 1) })
}

func TestLightCopy(t *testing.T) {
	light := level.NewLightSection()
	copied := light.Copy()
	assert.Same(t, level.NoLight, copied.BlockLight())

	light.SetBlockLight(0, 0, 0, 9)
	copied = light.Copy()
	light.SetBlockLight(0, 0, 0, 2)
	assert.Equal(t, byte(9), copied.BlockLightAt(0, 0, 0))
}

func TestBiomeIndex(t *testing.T) {
	assert.Equal(t, 0, level.BiomeIndex(0, 0, 0))
	assert.Equal(t, 3, level.BiomeIndex(15, 0, 0))
	assert.Equal(t, 12, level.BiomeIndex(0, 0, 15))
	assert.Equal(t, 16, level.BiomeIndex(0, 4, 0))
	assert.Equal(t, 63, level.BiomeIndex(15, 15, 15))
	assert.Equal(t, 1023, level.BiomeIndex(15, 255, 15))

	assert.Equal(t, level.Desert, level.BiomeByID(2))
	assert.Equal(t, level.Biome{ID: 99}, level.BiomeByID(99))

	b, ok := level.BiomeByName("plains")
	require.True(t, ok)
	assert.Equal(t, level.Plains, b)
}

func TestChunkSnapshotIsIsolated(t *testing.T) {
	ch := level.NewChunk(level.ChunkPos{X: 3, Z: -2}, level.LegacySections)
	ch.SetBlock(1, 40, 2, blocks.Stone)
	ch.SetBlock(0, 0, 0, blocks.Air)
	ch.SetBlockLight(1, 40, 2, 12)
	ch.SetBiome(0, 0, 0, level.Desert)

	snapshot := ch.Snapshot(true)
	ch.SetBlock(1, 40, 2, blocks.Dirt)
	ch.SetBlockLight(1, 40, 2, 1)
	ch.SetBiome(0, 0, 0, level.Ocean)

	assert.Equal(t, int32(3), snapshot.X())
	assert.Equal(t, int32(-2), snapshot.Z())
	assert.True(t, snapshot.FullChunk())
	assert.Equal(t, blocks.Block(blocks.Stone), snapshot.Block(1, 40, 2))
	assert.Equal(t, byte(12), snapshot.LightAt(2).BlockLightAt(1, 8, 2))
	assert.Equal(t, level.Desert, snapshot.BiomeAt(0))

	// only the section holding a block exists
	for i, section := range snapshot.Sections() {
		if i == 2 {
			assert.NotNil(t, section)
		} else {
			assert.Nil(t, section, "section %d", i)
		}
	}

	assert.Equal(t, blocks.Block(blocks.Air), snapshot.Block(0, 500, 0))
	assert.Equal(t, level.Plains, snapshot.BiomeAt(5000))
	assert.Panics(t, func() { ch.SetBlock(0, 256, 0, blocks.Stone) })
}
