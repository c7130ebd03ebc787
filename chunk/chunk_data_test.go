package chunk_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/chunk"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

func captureLogs(t *testing.T) *test.Hook {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	chunk.SetLogger(logger)
	t.Cleanup(func() { chunk.SetLogger(nil) })
	return hook
}

func singleStone() *level.ChunkSnapshot {
	ch := level.NewChunk(level.ChunkPos{X: 0, Z: 0}, level.LegacySections)
	ch.SetBlock(0, 0, 0, blocks.Stone)
	return ch.Snapshot(true)
}

func terrain(sections int) *level.Chunk {
	ch := level.NewChunk(level.ChunkPos{X: -7, Z: 12}, sections)
	layers := []blocks.Block{blocks.Bedrock, blocks.Stone, blocks.Stone, blocks.Dirt, blocks.GrassBlock}
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			for y, b := range layers {
				ch.SetBlock(x, y, z, b)
			}
		}
	}

	ch.SetBlock(4, 5, 4, blocks.Dandelion)
	ch.SetBlock(8, 40, 8, blocks.Glass)
	ch.SetBlock(9, 40, 8, blocks.Water)
	ch.SetBlock(10, 70, 8, blocks.Andesite)
	ch.SetBlockLight(4, 5, 4, 13)
	ch.SetSkyLight(8, 39, 8, 3)

	for x := 0; x < 16; x += 4 {
		for z := 0; z < 8; z += 4 {
			for y := 0; y < ch.Height(); y += 4 {
				ch.SetBiome(x, y, z, level.Forest)
			}
		}
	}
	ch.SetBiome(12, 32, 12, level.Desert)
	return ch
}

func TestPartialChunkRejectedFrom117(t *testing.T) {
	data := chunk.NewChunkData(terrain(16).Snapshot(false), true, 16)

	buf := bytes.NewBufferString("prefix")
	err := data.EncodeTo(buf, version.V1_17)
	assert.ErrorIs(t, err, chunk.ErrPartialChunk)
	assert.Equal(t, "prefix", buf.String())

	_, err = data.Encode(version.V1_18_2)
	assert.ErrorIs(t, err, chunk.ErrPartialChunk)

	_, err = data.Encode(version.V1_16_4)
	assert.NoError(t, err)
}

func TestUnsupportedVersion(t *testing.T) {
	data := chunk.NewChunkData(singleStone(), true, 16)
	_, err := data.Encode(version.Version(2))
	assert.ErrorIs(t, err, chunk.ErrUnsupportedVersion)
}

func TestEncodeIsIdempotent(t *testing.T) {
	data := chunk.NewChunkData(terrain(16).Snapshot(true), true, 16)

	for _, v := range version.All() {
		first, err := data.Encode(v)
		require.NoError(t, err, v.String())
		second, err := data.Encode(v)
		require.NoError(t, err, v.String())
		assert.Equal(t, first, second, v.String())
	}
}

func TestEmptyColumnMaskPre19(t *testing.T) {
	empty := level.NewChunk(level.ChunkPos{X: 1, Z: 2}, level.LegacySections).Snapshot(true)
	data := chunk.NewChunkData(empty, true, 16)

	for _, v := range []version.Version{version.V1_7_2, version.V1_8} {
		payload, err := data.Encode(v)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 2, 1, 0, 1}, payload[:11], v.String())

		decoded, err := chunk.Decode(payload, v, chunk.DecodeOptions{SkyLight: true})
		require.NoError(t, err, v.String())
		assert.Zero(t, decoded.Mask)
		assert.Len(t, decoded.BiomeIDs, 256)
	}

	payload, err := data.Encode(version.V1_9)
	require.NoError(t, err)
	// full chunk, varint mask 0, 256 biome bytes
	assert.Equal(t, []byte{1, 0, 0x80, 0x02}, payload[8:12])
}

func TestSingleStoneLegacyLayout(t *testing.T) {
	hook := captureLogs(t)
	snapshot := singleStone()
	data := chunk.NewChunkData(snapshot, true, 16)

	payload, err := data.Encode(version.V1_8)
	require.NoError(t, err)

	// x, z, full chunk, mask, then 12544 bytes of data as a varint
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0x80, 0x62}, payload[:13])
	sectionData := payload[13:]
	require.Len(t, sectionData, 8192+2048+2048+256)

	assert.Equal(t, []byte{0x10, 0x00}, sectionData[:2])
	assert.Equal(t, make([]byte, 8190), sectionData[2:8192])
	assert.Equal(t, make([]byte, 2048), sectionData[8192:10240])
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, 2048), sectionData[10240:12288])
	assert.Equal(t, bytes.Repeat([]byte{byte(level.Plains.ID)}, 256), sectionData[12288:])

	decoded, err := chunk.Decode(payload, version.V1_8, chunk.DecodeOptions{SkyLight: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), decoded.Mask)
	require.NotNil(t, decoded.Sections[0])
	assert.True(t, decoded.Sections[0].Equal(snapshot.Section(0)))
	assert.Empty(t, hook.AllEntries())
}

func TestSingleStonePalettedLayout(t *testing.T) {
	snapshot := singleStone()
	data := chunk.NewChunkData(snapshot, true, 16)

	payload, err := data.Encode(version.V1_12_2)
	require.NoError(t, err)

	// x, z, full chunk, varint mask, 6406 bytes of data as a varint
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 0x86, 0x32}, payload[:12])
	sectionData := payload[12:]
	assert.Equal(t, []byte{4, 2, 0, 16, 0x80, 0x02}, sectionData[:6])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, sectionData[6:14])
	// block entities
	assert.Equal(t, byte(0), payload[len(payload)-1])

	decoded, err := chunk.Decode(payload, version.V1_12_2, chunk.DecodeOptions{SkyLight: true})
	require.NoError(t, err)
	assert.True(t, decoded.Sections[0].Equal(snapshot.Section(0)))
	assert.Equal(t, byte(15), decoded.Light[0].SkyLightAt(0, 0, 0))
}

func TestHeightmapsInPayload(t *testing.T) {
	ch := level.NewChunk(level.ChunkPos{}, level.LegacySections)
	ch.SetBlock(3, 5, 7, blocks.Stone)
	ch.SetBlock(3, 10, 7, blocks.Dandelion)
	data := chunk.NewChunkData(ch.Snapshot(true), true, 16)

	for _, v := range []version.Version{version.V1_14, version.V1_15_2, version.V1_16, version.V1_18_2} {
		payload, err := data.Encode(v)
		require.NoError(t, err)

		decoded, err := chunk.Decode(payload, v, chunk.DecodeOptions{SkyLight: true})
		require.NoError(t, err)
		require.NotNil(t, decoded.Heightmaps, v.String())

		motionBlocking, worldSurface, err := decoded.Heightmaps.Columns(v)
		require.NoError(t, err)
		assert.Equal(t, uint32(11), worldSurface[3+7<<4], v.String())
		assert.Equal(t, uint32(6), motionBlocking[3+7<<4], v.String())
	}
}

func TestEmptyColumn118(t *testing.T) {
	hook := captureLogs(t)
	empty := level.NewSnapshot(0, 0, true, make([]*level.Section, 24), nil, nil)
	data := chunk.NewChunkData(empty, true, 24)

	payload, err := data.Encode(version.V1_18)
	require.NoError(t, err)

	decoded, err := chunk.Decode(payload, version.V1_18, chunk.DecodeOptions{MaxSections: 24, SkyLight: true})
	require.NoError(t, err)
	assert.Len(t, decoded.Sections, 24)
	assert.Len(t, decoded.Light, 24)
	assert.Len(t, decoded.BiomeIDs, 24*64)
	for i, count := range decoded.BlockCounts {
		assert.Zero(t, count, "section %d", i)
	}
	for _, id := range decoded.BiomeIDs {
		require.Equal(t, level.Plains.ID, id)
	}
	assert.Empty(t, hook.AllEntries())
}

func TestNoSkyLight(t *testing.T) {
	snapshot := terrain(16).Snapshot(true)
	withSky := chunk.NewChunkData(snapshot, true, 16)
	withoutSky := chunk.NewChunkData(snapshot, false, 16)

	for _, v := range []version.Version{version.V1_7_2, version.V1_8, version.V1_12_2} {
		a, err := withSky.Encode(v)
		require.NoError(t, err)
		b, err := withoutSky.Encode(v)
		require.NoError(t, err)

		if v >= version.V1_8 {
			assert.Greater(t, len(a)-len(b), 3*2048-1, v.String())
		}

		decoded, err := chunk.Decode(b, v, chunk.DecodeOptions{})
		require.NoError(t, err, v.String())
		assert.Equal(t, snapshot.Block(8, 40, 8), decoded.Block(8, 40, 8))
	}

	payload, err := withoutSky.Encode(version.V1_18_2)
	require.NoError(t, err)
	decoded, err := chunk.Decode(payload, version.V1_18_2, chunk.DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, byte(13), decoded.Light[0].BlockLightAt(4, 5, 4))
}

func TestRoundTripEveryVersion(t *testing.T) {
	hook := captureLogs(t)

	for _, v := range version.All() {
		sections := level.LegacySections
		if v >= version.V1_18 {
			sections = 24
		}
		snapshot := terrain(sections).Snapshot(true)
		data := chunk.NewChunkData(snapshot, true, sections)

		payload, err := data.Encode(v)
		require.NoError(t, err, v.String())

		decoded, err := chunk.Decode(payload, v, chunk.DecodeOptions{MaxSections: sections, SkyLight: true})
		require.NoError(t, err, v.String())

		assert.Equal(t, int32(-7), decoded.X)
		assert.Equal(t, int32(12), decoded.Z)
		assert.True(t, decoded.FullChunk)

		for i := 0; i < sections; i++ {
			expected := snapshot.Section(i)
			actual := decoded.Sections[i]
			if expected == nil {
				if actual != nil {
					assert.Zero(t, actual.NonAirCount(), "%s section %d", v, i)
				}
				continue
			}
			require.NotNil(t, actual, "%s section %d", v, i)
			assert.True(t, expected.Equal(actual), "%s section %d", v, i)
		}

		switch {
		case v < version.V1_15:
			require.Len(t, decoded.BiomeIDs, 256, v.String())
			assert.Equal(t, level.Forest.ID, decoded.BiomeIDs[0])
			assert.Equal(t, level.Plains.ID, decoded.BiomeIDs[15<<4|15])
		case v < version.V1_18:
			require.Len(t, decoded.BiomeIDs, 1024, v.String())
			assert.Equal(t, level.Desert.ID, decoded.BiomeIDs[level.BiomeIndex(12, 32, 12)])
		default:
			require.Len(t, decoded.BiomeIDs, sections*64, v.String())
			assert.Equal(t, level.Desert.ID, decoded.BiomeIDs[level.BiomeIndex(12, 32, 12)])
			assert.Equal(t, level.Forest.ID, decoded.BiomeIDs[level.BiomeIndex(4, 380, 4)])
		}

		if v < version.V1_14 || v >= version.V1_18 {
			assert.Equal(t, byte(13), decoded.Light[0].BlockLightAt(4, 5, 4), v.String())
			assert.Equal(t, byte(3), decoded.Light[2].SkyLightAt(8, 7, 8), v.String())
		}
		if v >= version.V1_14 {
			assert.Equal(t, 16*16*5+1, decoded.BlockCounts[0], v.String())
		}
	}

	assert.Empty(t, hook.AllEntries())
}

func TestConcurrentEncodesMatchSerial(t *testing.T) {
	snapshot := terrain(16).Snapshot(true)
	versions := version.All()

	serial := make(map[version.Version][]byte)
	reference := chunk.NewChunkData(snapshot, true, 16)
	for _, v := range versions {
		payload, err := reference.Encode(v)
		require.NoError(t, err)
		serial[v] = payload
	}

	shared := chunk.NewChunkData(snapshot, true, 16)
	shared.Prepare(versions[:len(versions)/2])

	var wg sync.WaitGroup
	results := make([][]byte, len(versions)*4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload, err := shared.Encode(versions[i%len(versions)])
			if err == nil {
				results[i] = payload
			}
		}(i)
	}
	wg.Wait()

	for i, payload := range results {
		v := versions[i%len(versions)]
		assert.Equal(t, serial[v], payload, v.String())
	}
}

func TestMaxSectionsLimitsMask(t *testing.T) {
	ch := terrain(24)
	ch.SetBlock(0, 300, 0, blocks.Stone)
	data := chunk.NewChunkData(ch.Snapshot(true), true, 16)

	assert.Equal(t, uint64(1<<0|1<<2|1<<4), data.Mask())
	assert.Len(t, data.Sections(), 16)
}

func TestHeightmapWidthIsFixed(t *testing.T) {
	ch := level.NewChunk(level.ChunkPos{X: 2, Z: 2}, 4)
	ch.SetBlock(6, 40, 9, blocks.Stone)
	data := chunk.NewChunkData(ch.Snapshot(true), true, 4)

	for v, words := range map[version.Version]int{version.V1_14: 36, version.V1_15_2: 36, version.V1_16: 37, version.V1_17_1: 37} {
		payload, err := data.Encode(v)
		require.NoError(t, err)

		decoded, err := chunk.Decode(payload, v, chunk.DecodeOptions{MaxSections: 4, SkyLight: true})
		require.NoError(t, err, v.String())
		require.NotNil(t, decoded.Heightmaps, v.String())
		assert.Len(t, decoded.Heightmaps.MotionBlocking, words, v.String())
		assert.Len(t, decoded.Heightmaps.WorldSurface, words, v.String())

		motionBlocking, worldSurface, err := decoded.Heightmaps.Columns(v)
		require.NoError(t, err)
		assert.Equal(t, uint32(41), worldSurface[6+9<<4], v.String())
		assert.Equal(t, uint32(41), motionBlocking[6+9<<4], v.String())
	}
}

func TestMaxSectionsBounds(t *testing.T) {
	snapshot := singleStone()
	assert.Panics(t, func() { chunk.NewChunkData(snapshot, true, 0) })
	assert.Panics(t, func() { chunk.NewChunkData(snapshot, true, chunk.MaxColumnSections+1) })

	ch := level.NewChunk(level.ChunkPos{}, chunk.MaxColumnSections)
	ch.SetBlock(0, chunk.MaxColumnSections*16-1, 0, blocks.Stone)
	data := chunk.NewChunkData(ch.Snapshot(true), true, chunk.MaxColumnSections)
	assert.Equal(t, uint64(1)<<(chunk.MaxColumnSections-1), data.Mask())

	payload, err := data.Encode(version.V1_12_2)
	require.NoError(t, err)
	decoded, err := chunk.Decode(payload, version.V1_12_2, chunk.DecodeOptions{SkyLight: true})
	require.NoError(t, err)
	assert.Equal(t, data.Mask(), decoded.Mask)
	assert.Equal(t, blocks.Block(blocks.Stone), decoded.Block(0, chunk.MaxColumnSections*16-1, 0))
}

func TestNoSkyLightTrailer118(t *testing.T) {
	snapshot := terrain(16).Snapshot(true)
	withSky, err := chunk.NewChunkData(snapshot, true, 16).Encode(version.V1_18_2)
	require.NoError(t, err)
	withoutSky, err := chunk.NewChunkData(snapshot, false, 16).Encode(version.V1_18_2)
	require.NoError(t, err)

	// sky mask of one long plus 16 sky arrays, each a 2 byte varint length and 2048 bytes
	assert.Equal(t, 8+16*(2+2048), len(withSky)-len(withoutSky))

	decoded, err := chunk.Decode(withoutSky, version.V1_18_2, chunk.DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, decoded.Light, 16)
	assert.Equal(t, byte(13), decoded.Light[0].BlockLightAt(4, 5, 4))
}
