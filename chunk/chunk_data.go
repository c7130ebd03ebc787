package chunk

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/sirupsen/logrus"

	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/internal/protocol"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/nbt"
	"github.com/richgrov/chunkwire/version"
)

var (
	ErrPartialChunk       = errors.New("partial chunks cannot be sent from 1.17 on")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
)

const (
	legacyBiomeColumns = level.SectionWidth * level.SectionWidth
	// Tallest column whose heights fit heightmap entries and whose section
	// mask fits a positive varint
	MaxColumnSections = 31
)

// A chunk snapshot prepared for encoding into the chunk data packet of any
// supported protocol version. Encoding is read-only apart from the
// per-version caches of each section, so one ChunkData may be encoded for
// several versions at once.
type ChunkData struct {
	snapshot    *level.ChunkSnapshot
	skyLight    bool
	maxSections int

	sections        []*NetworkSection
	mask            uint64
	nonNullSections int

	heightmapsOnce    sync.Once
	spanningHeightmap Heightmaps
	alignedHeightmap  Heightmaps

	// Biome of each 4x4 column at the bottom of the chunk, sent before 1.15
	columnBiomes [legacyBiomeColumns]int32
	// Flattened 3D biome grid of the bottom 64 blocks, sent by 1.15 to 1.17
	biomeGrid []int32
}

// Prepares a snapshot for encoding. Sections past maxSections are ignored.
func NewChunkData(snapshot *level.ChunkSnapshot, skyLight bool, maxSections int) *ChunkData {
	if maxSections <= 0 || maxSections > MaxColumnSections {
		panic(fmt.Sprintf("max sections %d must be between 1 and %d", maxSections, MaxColumnSections))
	}

	c := &ChunkData{
		snapshot:    snapshot,
		skyLight:    skyLight,
		maxSections: maxSections,
		sections:    make([]*NetworkSection, maxSections),
	}

	for i := range c.sections {
		section := snapshot.Section(i)
		if section == nil {
			continue
		}

		c.sections[i] = NewNetworkSection(i, section, snapshot.LightAt(i), skyLight, snapshot.Biomes())
		c.mask |= 1 << i
		c.nonNullSections++
	}

	for x := 0; x < level.SectionWidth; x++ {
		for z := 0; z < level.SectionWidth; z++ {
			c.columnBiomes[z<<4|x] = snapshot.BiomeAt(level.BiomeIndex(x, 0, z)).ID
		}
	}

	c.biomeGrid = make([]int32, level.ColumnBiomes)
	for i := range c.biomeGrid {
		c.biomeGrid[i] = snapshot.BiomeAt(i).ID
	}

	return c
}

func (c *ChunkData) Snapshot() *level.ChunkSnapshot {
	return c.snapshot
}

// Bit i is set when section i carries data
func (c *ChunkData) Mask() uint64 {
	return c.mask
}

func (c *ChunkData) Sections() []*NetworkSection {
	return c.sections
}

func (c *ChunkData) heightmaps(l layout) Heightmaps {
	c.heightmapsOnce.Do(func() {
		c.spanningHeightmap = computeHeightmaps(c.snapshot, c.maxSections, version.V1_14)
		c.alignedHeightmap = computeHeightmaps(c.snapshot, c.maxSections, version.V1_16)
	})

	if l.heightmap == heightmapSpanning {
		return c.spanningHeightmap
	}
	return c.alignedHeightmap
}

// Builds the section storages of every given version in parallel so later
// encodes only serialize.
func (c *ChunkData) Prepare(versions []version.Version) {
	var wg sync.WaitGroup
	for _, v := range versions {
		l, ok := layoutFor(v)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(v version.Version) {
			defer wg.Done()
			for _, section := range c.sections {
				if section != nil {
					section.dataLength(v, l)
				}
			}
		}(v)
	}
	wg.Wait()
}

// Encodes the chunk data packet payload for a protocol version, without the
// packet ID.
func (c *ChunkData) Encode(v version.Version) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeTo(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Same as Encode but appends to buf. Nothing is appended on error.
func (c *ChunkData) EncodeTo(buf *bytes.Buffer, v version.Version) error {
	if buf == nil {
		return ErrNilBuffer
	}

	l, ok := layoutFor(v)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}

	fullChunk := c.snapshot.FullChunk()
	if !fullChunk && !l.partialChunks {
		return fmt.Errorf("%w: %s", ErrPartialChunk, v)
	}

	var out bytes.Buffer
	protocol.WriteInt(&out, c.snapshot.X())
	protocol.WriteInt(&out, c.snapshot.Z())

	if l.partialChunks {
		protocol.WriteBool(&out, fullChunk)
	}
	if l.ignoreOldData {
		protocol.WriteBool(&out, true)
	}

	switch l.mask {
	case maskShort:
		mask := uint16(c.mask)
		// An empty mask makes pre-1.9 clients skip the column entirely
		if mask == 0 {
			mask = 1
		}
		protocol.WriteShort(&out, int16(mask))
	case maskVarInt:
		protocol.WriteVarInt(&out, int32(c.mask))
	case maskLongArray:
		if c.mask == 0 {
			protocol.WriteLongs(&out, nil)
		} else {
			protocol.WriteLongs(&out, []uint64{c.mask})
		}
	}

	if l.heightmap != heightmapNone {
		if err := nbt.Marshal(c.heightmaps(l), "", &out); err != nil {
			return fmt.Errorf("failed to encode heightmaps: %w", err)
		}
	}

	if fullChunk {
		switch l.headerBiomes {
		case biomesInts:
			for _, id := range c.biomeGrid {
				protocol.WriteInt(&out, id)
			}
		case biomesVarInts:
			protocol.WriteVarInt(&out, int32(len(c.biomeGrid)))
			for _, id := range c.biomeGrid {
				protocol.WriteVarInt(&out, id)
			}
		}
	}

	data, err := c.sectionData(v, l)
	if err != nil {
		return err
	}

	if l.compressed {
		// Block add array, always empty
		protocol.WriteShort(&out, 0)

		var compressed bytes.Buffer
		w, err := zlib.NewWriterLevel(&compressed, zlib.BestCompression)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to compress chunk data: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to compress chunk data: %w", err)
		}

		protocol.WriteInt(&out, int32(compressed.Len()))
		out.Write(compressed.Bytes())
	} else {
		protocol.WriteByteArray(&out, data)
		if l.blockEntities {
			protocol.WriteVarInt(&out, 0)
		}
		if l.lightTrailer {
			c.writeLight(&out)
		}
	}

	buf.Write(out.Bytes())
	return nil
}

func (c *ChunkData) sectionData(v version.Version, l layout) ([]byte, error) {
	expected := c.dataLength(v, l)
	data := bytes.NewBuffer(make([]byte, 0, expected))

	for pass := 0; pass < l.passes; pass++ {
		for _, section := range c.sections {
			if section != nil {
				if err := section.writeData(data, pass, v, l); err != nil {
					return nil, err
				}
			} else if l.placeholders && pass == 0 {
				writePlaceholder(data, v)
			}
		}
	}

	if c.snapshot.FullChunk() {
		switch l.trailingBiomes {
		case biomesBytes:
			for _, id := range c.columnBiomes {
				data.WriteByte(byte(id))
			}
		case biomesInts:
			for _, id := range c.columnBiomes {
				protocol.WriteInt(data, id)
			}
		}
	}

	if data.Len() != expected {
		log.WithFields(logrus.Fields{
			"x":        c.snapshot.X(),
			"z":        c.snapshot.Z(),
			"version":  v.String(),
			"expected": expected,
			"actual":   data.Len(),
		}).Warn("chunk data length does not match the precomputed length")
	}

	return data.Bytes(), nil
}

// Predicted size of the section data array
func (c *ChunkData) dataLength(v version.Version, l layout) int {
	length := 0
	for _, section := range c.sections {
		if section != nil {
			length += section.dataLength(v, l)
		}
	}

	if l.placeholders {
		length += (c.maxSections - c.nonNullSections) * placeholderLength(v)
	}

	if c.snapshot.FullChunk() {
		switch l.trailingBiomes {
		case biomesBytes:
			length += legacyBiomeColumns
		case biomesInts:
			length += legacyBiomeColumns * 4
		}
	}

	return length
}

// An empty section: no blocks, single-valued air storage, single-valued
// plains biomes
func writePlaceholder(buf *bytes.Buffer, v version.Version) {
	protocol.WriteShort(buf, 0)
	buf.WriteByte(0)
	protocol.WriteVarInt(buf, int32(blocks.Air.ID(v)))
	protocol.WriteVarInt(buf, 0)
	buf.WriteByte(0)
	protocol.WriteVarInt(buf, level.Plains.ID)
	protocol.WriteVarInt(buf, 0)
}

func placeholderLength(v version.Version) int {
	return 2 + 1 + protocol.VarIntSize(int32(blocks.Air.ID(v))) + 1 +
		1 + protocol.VarIntSize(level.Plains.ID) + 1
}

// Light sections covered by the 1.18 light trailer
func (c *ChunkData) lightSections() int {
	if n := len(c.snapshot.Light()); n > 0 {
		return n
	}
	return c.maxSections
}

func lightMask(n int) []uint64 {
	mask := make([]uint64, (n+63)/64)
	for i := 0; i < n; i++ {
		mask[i/64] |= 1 << (i % 64)
	}
	return mask
}

func (c *ChunkData) writeLight(buf *bytes.Buffer) {
	n := c.lightSections()
	mask := lightMask(n)

	// Trust edges
	protocol.WriteBool(buf, true)
	if c.skyLight {
		protocol.WriteLongs(buf, mask)
	} else {
		protocol.WriteLongs(buf, nil)
	}
	protocol.WriteLongs(buf, mask)
	// Empty sky and block light masks
	protocol.WriteLongs(buf, nil)
	protocol.WriteLongs(buf, nil)

	if c.skyLight {
		protocol.WriteVarInt(buf, int32(n))
		for i := 0; i < n; i++ {
			protocol.WriteByteArray(buf, c.snapshot.LightAt(i).SkyLight().Bytes())
		}
	} else {
		protocol.WriteVarInt(buf, 0)
	}

	protocol.WriteVarInt(buf, int32(n))
	for i := 0; i < n; i++ {
		protocol.WriteByteArray(buf, c.snapshot.LightAt(i).BlockLight().Bytes())
	}
}
