package bitstorage

// Packing used before 1.16: the words form one continuous bit stream, so an
// entry may be split between two adjacent words.
type Spanning struct {
	base
}

func NewSpanning(bitsPerEntry int, size int) *Spanning {
	wordCount := (size*bitsPerEntry + 63) / 64
	return &Spanning{newBase(bitsPerEntry, size, wordCount)}
}

func (s *Spanning) Get(index int) uint32 {
	s.checkGet(index)
	if s.bits == 0 {
		return 0
	}

	bitIndex := index * s.bits
	start := bitIndex / 64
	end := (bitIndex + s.bits - 1) / 64
	offset := bitIndex % 64

	value := s.words[start] >> offset
	if start != end {
		value |= s.words[end] << (64 - offset)
	}
	return uint32(value & s.mask)
}

func (s *Spanning) Set(index int, value uint32) {
	s.checkSet(index, value)
	if s.bits == 0 {
		return
	}

	bitIndex := index * s.bits
	start := bitIndex / 64
	end := (bitIndex + s.bits - 1) / 64
	offset := bitIndex % 64
	v := uint64(value)

	s.words[start] = s.words[start]&^(s.mask<<offset) | v<<offset
	if start != end {
		// The high bits of the entry are the low bits of the next word
		spilled := 64 - offset
		s.words[end] = s.words[end]&^(s.mask>>spilled) | v>>spilled
	}
}

func (s *Spanning) Resize(bitsPerEntry int) CompactStorage {
	return resize(s, NewSpanning(bitsPerEntry, s.size))
}

func (s *Spanning) Copy() CompactStorage {
	out := &Spanning{s.base}
	out.words = make([]uint64, len(s.words))
	copy(out.words, s.words)
	return out
}
