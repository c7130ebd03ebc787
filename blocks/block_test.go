package blocks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/version"
)

func TestIDsPerEra(t *testing.T) {
	assert.Equal(t, uint16(1<<4|3), blocks.Diorite.ID(version.V1_12_2))
	assert.Equal(t, uint16(4), blocks.Diorite.ID(version.V1_13))
	assert.Equal(t, uint16(0), blocks.Air.ID(version.V1_7_2))
	assert.Equal(t, uint16(0), blocks.Air.ID(version.V1_18_2))
	assert.Equal(t, byte(1), blocks.Diorite.LegacyType())
	assert.Equal(t, byte(3), blocks.Diorite.LegacyData())
}

func TestFlags(t *testing.T) {
	assert.True(t, blocks.Air.Air())
	assert.False(t, blocks.Air.MotionBlocking())
	assert.True(t, blocks.Stone.Solid())
	assert.True(t, blocks.Water.MotionBlocking())
	assert.False(t, blocks.Water.Solid())
}

func TestBlocksAreComparable(t *testing.T) {
	var a, b blocks.Block = blocks.Stone, blocks.New("minecraft:stone", 1, 0, 1, blocks.Properties{Solid: true, MotionBlocking: true})
	assert.True(t, a == b)
	assert.False(t, a == blocks.Block(blocks.Granite))
}

func TestInvalidLegacyData(t *testing.T) {
	assert.Panics(t, func() {
		blocks.New("bad", 1, 16, 1, blocks.Properties{})
	})
}

func TestRegistry(t *testing.T) {
	registry := blocks.Default()

	b, ok := registry.ByID(version.V1_8, 3<<4)
	require.True(t, ok)
	assert.Equal(t, blocks.Block(blocks.Dirt), b)

	b, ok = registry.ByID(version.V1_16_4, 10)
	require.True(t, ok)
	assert.Equal(t, blocks.Block(blocks.Dirt), b)

	_, ok = registry.ByID(version.V1_16_4, 9999)
	assert.False(t, ok)

	custom := blocks.New("custom:thing", 200, 0, 9999, blocks.Properties{Solid: true})
	registry.Register(custom)
	b, ok = registry.ByID(version.V1_16_4, 9999)
	require.True(t, ok)
	assert.Equal(t, blocks.Block(custom), b)
}

func TestByName(t *testing.T) {
	b, ok := blocks.ByName("grass_block")
	require.True(t, ok)
	assert.Equal(t, blocks.Block(blocks.GrassBlock), b)

	_, ok = blocks.ByName("minecraft:nothing")
	assert.False(t, ok)
}
