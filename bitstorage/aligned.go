package bitstorage

// Packing used from 1.16 on: each word holds floor(64/bits) entries and any
// leftover high bits stay zero.
type Aligned struct {
	base
	perWord int
}

func NewAligned(bitsPerEntry int, size int) *Aligned {
	perWord := 0
	wordCount := 0
	if bitsPerEntry > 0 {
		perWord = 64 / bitsPerEntry
		wordCount = (size + perWord - 1) / perWord
	}

	return &Aligned{
		base:    newBase(bitsPerEntry, size, wordCount),
		perWord: perWord,
	}
}

func (a *Aligned) Get(index int) uint32 {
	a.checkGet(index)
	if a.bits == 0 {
		return 0
	}

	word := index / a.perWord
	offset := (index % a.perWord) * a.bits
	return uint32(a.words[word] >> offset & a.mask)
}

func (a *Aligned) Set(index int, value uint32) {
	a.checkSet(index, value)
	if a.bits == 0 {
		return
	}

	word := index / a.perWord
	offset := (index % a.perWord) * a.bits
	a.words[word] = a.words[word]&^(a.mask<<offset) | uint64(value)<<offset
}

func (a *Aligned) Resize(bitsPerEntry int) CompactStorage {
	return resize(a, NewAligned(bitsPerEntry, a.size))
}

func (a *Aligned) Copy() CompactStorage {
	out := &Aligned{base: a.base, perWord: a.perWord}
	out.words = make([]uint64, len(a.words))
	copy(out.words, a.words)
	return out
}
