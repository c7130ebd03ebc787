package chunk

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"

	"github.com/klauspost/compress/zlib"

	"github.com/richgrov/chunkwire/bitstorage"
	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/internal/protocol"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/nbt"
	"github.com/richgrov/chunkwire/version"
)

type DecodeOptions struct {
	// Resolves wire IDs back to blocks. Defaults to blocks.Default().
	Registry *blocks.Registry
	// Sections in the column. Only needed from 1.18 on, where the packet
	// carries no section mask. Defaults to 16.
	MaxSections int
	// Whether the dimension sends sky light
	SkyLight bool
}

// Contents of a chunk data packet
type Decoded struct {
	X         int32
	Z         int32
	FullChunk bool
	Mask      uint64
	// Indexed by section slot. nil where the packet carried no section.
	Sections []*level.Section
	// Block counts sent with each section from 1.14 on
	BlockCounts []int
	// Per-section light before 1.14 and from 1.18. nil for 1.14 to 1.17.
	Light []*level.LightSection
	// Biome IDs in the order they were sent. Empty for partial chunks
	// before 1.18.
	BiomeIDs   []int32
	Heightmaps *Heightmaps
}

// Block at column coordinates. Missing sections read as air.
func (d *Decoded) Block(x, y, z int) blocks.Block {
	i := y >> 4
	if y < 0 || i >= len(d.Sections) || d.Sections[i] == nil {
		return blocks.Air
	}
	return d.Sections[i].Block(x, y&15, z)
}

type decoder struct {
	version  version.Version
	layout   layout
	registry *blocks.Registry
	opts     DecodeOptions
}

// Parses a chunk data payload produced for the given protocol version
func Decode(payload []byte, v version.Version, opts DecodeOptions) (*Decoded, error) {
	l, ok := layoutFor(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}

	if opts.Registry == nil {
		opts.Registry = blocks.Default()
	}
	if opts.MaxSections <= 0 {
		opts.MaxSections = level.LegacySections
	}

	d := decoder{version: v, layout: l, registry: opts.Registry, opts: opts}
	r := protocol.NewReader(payload)
	out := &Decoded{FullChunk: true}

	out.X = r.Int()
	out.Z = r.Int()

	if l.partialChunks {
		out.FullChunk = r.Bool()
	}
	if l.ignoreOldData {
		r.Bool()
	}

	switch l.mask {
	case maskShort:
		out.Mask = uint64(uint16(r.Short()))
	case maskVarInt:
		out.Mask = uint64(uint32(r.VarInt()))
	case maskLongArray:
		if words := r.Longs(); len(words) > 0 {
			out.Mask = words[0]
		}
	}

	if l.heightmap != heightmapNone && r.Err() == nil {
		var heightmaps Heightmaps
		if err := nbt.Unmarshal(r.Inner(), &heightmaps); err != nil {
			return nil, fmt.Errorf("failed to decode heightmaps: %w", err)
		}
		out.Heightmaps = &heightmaps
	}

	if out.FullChunk {
		switch l.headerBiomes {
		case biomesInts:
			out.BiomeIDs = make([]int32, level.ColumnBiomes)
			for i := range out.BiomeIDs {
				out.BiomeIDs[i] = r.Int()
			}
		case biomesVarInts:
			count := r.VarInt()
			if count < 0 || int(count) > r.Remaining() {
				return nil, fmt.Errorf("invalid biome count %d", count)
			}
			out.BiomeIDs = make([]int32, count)
			for i := range out.BiomeIDs {
				out.BiomeIDs[i] = r.VarInt()
			}
		}
	}

	var data []byte
	if l.compressed {
		r.Short()
		size := r.Int()
		if size < 0 {
			return nil, fmt.Errorf("negative compressed size %d", size)
		}
		compressed := r.Bytes(int(size))
		if err := r.Err(); err != nil {
			return nil, err
		}

		inflated, err := inflate(compressed)
		if err != nil {
			return nil, err
		}
		data = inflated
	} else {
		data = r.ByteArray()
		if l.blockEntities {
			if count := r.VarInt(); count != 0 {
				return nil, fmt.Errorf("unexpected %d block entities", count)
			}
		}
	}

	if err := r.Err(); err != nil {
		return nil, err
	}

	if err := d.sections(data, out); err != nil {
		return nil, err
	}

	if l.lightTrailer {
		if err := d.light(r, out); err != nil {
			return nil, err
		}
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after chunk data", r.Remaining())
	}

	return out, nil
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to inflate chunk data: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate chunk data: %w", err)
	}
	return data, nil
}

// Slots present in the data array, ascending
func (d *decoder) present(data []byte, out *Decoded) []int {
	if d.layout.placeholders {
		slots := make([]int, d.opts.MaxSections)
		for i := range slots {
			slots[i] = i
		}
		return slots
	}

	// Before 1.9 an empty column is sent with a mask of 1 and no sections
	if d.layout.mask == maskShort && out.Mask == 1 {
		trailing := 0
		if out.FullChunk {
			trailing = legacyBiomeColumns
		}
		if len(data) == trailing {
			out.Mask = 0
		}
	}

	slots := make([]int, 0, bits.OnesCount64(out.Mask))
	for i := 0; i < 64; i++ {
		if out.Mask&(1<<i) != 0 {
			slots = append(slots, i)
		}
	}
	return slots
}

func (d *decoder) sections(data []byte, out *Decoded) error {
	r := protocol.NewReader(data)
	slots := d.present(data, out)

	sectionCount := d.opts.MaxSections
	if len(slots) > 0 && slots[len(slots)-1] >= sectionCount {
		sectionCount = slots[len(slots)-1] + 1
	}
	out.Sections = make([]*level.Section, sectionCount)

	switch d.layout.section {
	case sectionBytes, sectionShorts:
		if err := d.legacySections(r, slots, out); err != nil {
			return err
		}

	case sectionPalettedLight:
		out.Light = make([]*level.LightSection, sectionCount)
		for _, slot := range slots {
			section, err := d.palettedBlocks(r)
			if err != nil {
				return fmt.Errorf("section %d: %w", slot, err)
			}
			out.Sections[slot] = section
			out.Light[slot] = d.sectionLight(r)
		}

	case sectionCounted, sectionCountedBiomes:
		out.BlockCounts = make([]int, sectionCount)
		for _, slot := range slots {
			out.BlockCounts[slot] = int(r.Short())
			section, err := d.palettedBlocks(r)
			if err != nil {
				return fmt.Errorf("section %d: %w", slot, err)
			}
			out.Sections[slot] = section

			if d.layout.section == sectionCountedBiomes {
				biomes, err := d.biomes(r)
				if err != nil {
					return fmt.Errorf("section %d biomes: %w", slot, err)
				}
				out.BiomeIDs = append(out.BiomeIDs, biomes...)
			}
		}
	}

	if out.FullChunk {
		switch d.layout.trailingBiomes {
		case biomesBytes:
			out.BiomeIDs = make([]int32, legacyBiomeColumns)
			for i := range out.BiomeIDs {
				out.BiomeIDs[i] = int32(r.Byte())
			}
		case biomesInts:
			out.BiomeIDs = make([]int32, legacyBiomeColumns)
			for i := range out.BiomeIDs {
				out.BiomeIDs[i] = r.Int()
			}
		}
	}

	if err := r.Err(); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%d trailing bytes in section data", r.Remaining())
	}
	return nil
}

func (d *decoder) block(id uint16) (blocks.Block, error) {
	b, ok := d.registry.ByID(d.version, id)
	if !ok {
		return nil, fmt.Errorf("unknown block ID %d", id)
	}
	return b, nil
}

func (d *decoder) sectionLight(r *protocol.Reader) *level.LightSection {
	blockLight, _ := level.NibbleArrayFromBytes(r.Bytes(lightArrayLength))
	var skyLight *level.NibbleArray
	if d.opts.SkyLight {
		skyLight, _ = level.NibbleArrayFromBytes(r.Bytes(lightArrayLength))
	}
	return level.NewLightSectionFrom(blockLight, skyLight)
}

func (d *decoder) legacySections(r *protocol.Reader, slots []int, out *Decoded) error {
	ids := make(map[int][]uint16, len(slots))

	if d.layout.section == sectionBytes {
		for _, slot := range slots {
			types := r.Bytes(level.SectionBlocks)
			sectionIDs := make([]uint16, level.SectionBlocks)
			for i, t := range types {
				sectionIDs[i] = uint16(t) << 4
			}
			ids[slot] = sectionIDs
		}
		for _, slot := range slots {
			meta, err := level.NibbleArrayFromBytes(r.Bytes(lightArrayLength))
			if err != nil {
				return r.Err()
			}
			for i := range ids[slot] {
				ids[slot][i] |= uint16(meta.Get(i))
			}
		}
	} else {
		for _, slot := range slots {
			sectionIDs := make([]uint16, level.SectionBlocks)
			for i := range sectionIDs {
				sectionIDs[i] = r.ShortLE()
			}
			ids[slot] = sectionIDs
		}
	}

	blockLight := make(map[int]*level.NibbleArray, len(slots))
	for _, slot := range slots {
		blockLight[slot], _ = level.NibbleArrayFromBytes(r.Bytes(lightArrayLength))
	}

	out.Light = make([]*level.LightSection, len(out.Sections))
	for _, slot := range slots {
		var skyLight *level.NibbleArray
		if d.opts.SkyLight {
			skyLight, _ = level.NibbleArrayFromBytes(r.Bytes(lightArrayLength))
		}
		out.Light[slot] = level.NewLightSectionFrom(blockLight[slot], skyLight)
	}

	if err := r.Err(); err != nil {
		return err
	}

	for _, slot := range slots {
		section := level.NewSection()
		for i, id := range ids[slot] {
			b, err := d.block(id)
			if err != nil {
				return fmt.Errorf("section %d: %w", slot, err)
			}
			setIndex(section, i, b)
		}
		out.Sections[slot] = section
	}
	return nil
}

func setIndex(section *level.Section, index int, b blocks.Block) {
	section.SetBlock(index&15, index>>8, (index>>4)&15, b)
}

func (d *decoder) palettedBlocks(r *protocol.Reader) (*level.Section, error) {
	bitsPerEntry := int(r.Byte())

	var palette []blocks.Block
	direct := bitsPerEntry > maxIndirectBits

	if bitsPerEntry == 0 {
		b, err := d.block(uint16(r.VarInt()))
		if err != nil {
			return nil, err
		}
		palette = []blocks.Block{b}
	} else if !direct {
		count := r.VarInt()
		if count < 0 || int(count) > r.Remaining() {
			return nil, fmt.Errorf("invalid palette length %d", count)
		}
		palette = make([]blocks.Block, count)
		for i := range palette {
			b, err := d.block(uint16(r.VarInt()))
			if err != nil {
				return nil, err
			}
			palette[i] = b
		}
	} else if d.version < version.V1_13 {
		if count := r.VarInt(); count != 0 {
			return nil, fmt.Errorf("direct storage with palette length %d", count)
		}
	}

	words := r.Longs()
	if err := r.Err(); err != nil {
		return nil, err
	}

	storage, err := bitstorage.FromWords(d.version, bitsPerEntry, level.SectionBlocks, words)
	if err != nil {
		return nil, err
	}

	section := level.NewSection()
	for i := 0; i < level.SectionBlocks; i++ {
		value := storage.Get(i)

		var b blocks.Block
		if direct {
			if b, err = d.block(uint16(value)); err != nil {
				return nil, err
			}
		} else {
			if int(value) >= len(palette) {
				return nil, fmt.Errorf("palette index %d out of range", value)
			}
			b = palette[value]
		}
		setIndex(section, i, b)
	}
	return section, nil
}

func (d *decoder) biomes(r *protocol.Reader) ([]int32, error) {
	bitsPerEntry := int(r.Byte())

	var palette []int32
	direct := bitsPerEntry > maxIndirectBiomeBits

	if bitsPerEntry == 0 {
		palette = []int32{r.VarInt()}
	} else if !direct {
		count := r.VarInt()
		if count < 0 || int(count) > r.Remaining() {
			return nil, fmt.Errorf("invalid palette length %d", count)
		}
		palette = make([]int32, count)
		for i := range palette {
			palette[i] = r.VarInt()
		}
	}

	words := r.Longs()
	if err := r.Err(); err != nil {
		return nil, err
	}

	storage, err := bitstorage.FromWords(d.version, bitsPerEntry, level.BiomesPerSection, words)
	if err != nil {
		return nil, err
	}

	out := make([]int32, level.BiomesPerSection)
	for i := range out {
		value := storage.Get(i)
		if direct {
			out[i] = int32(value)
		} else if int(value) < len(palette) {
			out[i] = palette[value]
		} else {
			return nil, fmt.Errorf("palette index %d out of range", value)
		}
	}
	return out, nil
}

func (d *decoder) light(r *protocol.Reader, out *Decoded) error {
	r.Bool()
	skyMask := r.Longs()
	blockMask := r.Longs()
	r.Longs()
	r.Longs()

	readArrays := func() [][]byte {
		count := r.VarInt()
		if count < 0 || int(count) > r.Remaining() {
			return nil
		}
		arrays := make([][]byte, count)
		for i := range arrays {
			arrays[i] = r.ByteArray()
		}
		return arrays
	}
	skyArrays := readArrays()
	blockArrays := readArrays()

	if err := r.Err(); err != nil {
		return err
	}

	skySlots := maskSlots(skyMask)
	blockSlots := maskSlots(blockMask)
	if len(skySlots) != len(skyArrays) || len(blockSlots) != len(blockArrays) {
		return fmt.Errorf("light masks do not match the %d sky and %d block arrays", len(skyArrays), len(blockArrays))
	}

	count := 0
	if len(blockSlots) > 0 {
		count = blockSlots[len(blockSlots)-1] + 1
	}
	if len(skySlots) > 0 && skySlots[len(skySlots)-1]+1 > count {
		count = skySlots[len(skySlots)-1] + 1
	}

	blockLight := make([]*level.NibbleArray, count)
	skyLight := make([]*level.NibbleArray, count)
	for i, slot := range blockSlots {
		arr, err := level.NibbleArrayFromBytes(blockArrays[i])
		if err != nil {
			return err
		}
		blockLight[slot] = arr
	}
	for i, slot := range skySlots {
		arr, err := level.NibbleArrayFromBytes(skyArrays[i])
		if err != nil {
			return err
		}
		skyLight[slot] = arr
	}

	out.Light = make([]*level.LightSection, count)
	for i := range out.Light {
		out.Light[i] = level.NewLightSectionFrom(blockLight[i], skyLight[i])
	}
	return nil
}

func maskSlots(mask []uint64) []int {
	var slots []int
	for word, bitsSet := range mask {
		for i := 0; i < 64; i++ {
			if bitsSet&(1<<i) != 0 {
				slots = append(slots, word*64+i)
			}
		}
	}
	return slots
}
