// Package bitstorage packs fixed-width unsigned integers into 64-bit words,
// the layout Minecraft uses for palette indices, heightmaps and biomes.
package bitstorage

import (
	"fmt"

	"github.com/richgrov/chunkwire/internal/protocol"
	"github.com/richgrov/chunkwire/version"
)

const MaxBitsPerEntry = 32

// A fixed-length sequence of integers that are each BitsPerEntry() bits wide.
// A width of zero stores nothing and reads every entry as 0.
type CompactStorage interface {
	Get(index int) uint32
	// Panics if the index is out of range or the value does not fit
	Set(index int, value uint32)
	// Creates a new storage of the same packing with every value re-encoded at
	// the new width
	Resize(bitsPerEntry int) CompactStorage
	Copy() CompactStorage
	BitsPerEntry() int
	Size() int
	// The packed words. The slice is owned by the storage.
	Words() []uint64
	// Number of bytes taken by the varint-prefixed long array on the wire
	DataLength() int
}

type base struct {
	bits  int
	size  int
	mask  uint64
	words []uint64
}

func newBase(bits int, size int, wordCount int) base {
	if bits < 0 || bits > MaxBitsPerEntry {
		panic(fmt.Sprintf("bits per entry must be between 0 and %d, got %d", MaxBitsPerEntry, bits))
	}
	if size < 0 {
		panic(fmt.Sprintf("negative storage size %d", size))
	}

	return base{
		bits:  bits,
		size:  size,
		mask:  (1 << bits) - 1,
		words: make([]uint64, wordCount),
	}
}

func (b *base) checkSet(index int, value uint32) {
	if index < 0 || index >= b.size {
		panic(fmt.Sprintf("index %d out of range [0, %d)", index, b.size))
	}
	if uint64(value) > b.mask {
		panic(fmt.Sprintf("value %d does not fit in %d bits", value, b.bits))
	}
}

func (b *base) checkGet(index int) {
	if index < 0 || index >= b.size {
		panic(fmt.Sprintf("index %d out of range [0, %d)", index, b.size))
	}
}

func (b *base) BitsPerEntry() int {
	return b.bits
}

func (b *base) Size() int {
	return b.size
}

func (b *base) Words() []uint64 {
	return b.words
}

func (b *base) DataLength() int {
	return protocol.LongsSize(len(b.words))
}

func resize(from CompactStorage, to CompactStorage) CompactStorage {
	for i := 0; i < from.Size(); i++ {
		to.Set(i, from.Get(i))
	}
	return to
}

// Picks the packing a protocol version expects. Before 1.16 entries run
// across word boundaries; from 1.16 on every word holds a whole number of
// entries.
func ForVersion(v version.Version, bitsPerEntry int, size int) CompactStorage {
	if v < version.V1_16 {
		return NewSpanning(bitsPerEntry, size)
	}
	return NewAligned(bitsPerEntry, size)
}

// Wraps words received from the wire. The word count must match what the
// packing requires for the given width and size.
func FromWords(v version.Version, bitsPerEntry int, size int, words []uint64) (CompactStorage, error) {
	if bitsPerEntry < 0 || bitsPerEntry > MaxBitsPerEntry {
		return nil, fmt.Errorf("invalid bits per entry %d", bitsPerEntry)
	}

	storage := ForVersion(v, bitsPerEntry, size)
	if len(words) != len(storage.Words()) {
		return nil, fmt.Errorf("expected %d words for %d entries of %d bits, got %d", len(storage.Words()), size, bitsPerEntry, len(words))
	}

	copy(storage.Words(), words)
	return storage, nil
}
