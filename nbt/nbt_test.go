package nbt_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richgrov/chunkwire/nbt"
)

type heightmaps struct {
	MotionBlocking []uint64 `nbt:"MOTION_BLOCKING"`
	WorldSurface   []uint64 `nbt:"WORLD_SURFACE"`
}

type dimension struct {
	Name    string `nbt:"name"`
	Height  int32  `nbt:"height"`
	Seed    int64
	Element biomeEntry
	Colors  []int32
	Flags   []byte
	Packed  []int64
	hidden  int32
}

type biomeEntry struct {
	Name string
	ID   int32
}

func named(buf *bytes.Buffer, tag byte, name string) {
	buf.WriteByte(tag)
	binary.Write(buf, binary.BigEndian, uint16(len(name)))
	buf.WriteString(name)
}

func TestTaggedLongArrays(t *testing.T) {
	val := heightmaps{
		MotionBlocking: []uint64{0, 1, math.MaxUint64},
		WorldSurface:   []uint64{0x0123456789ABCDEF},
	}

	var buf bytes.Buffer
	require.NoError(t, nbt.Marshal(val, "", &buf))

	encoded := buf.Bytes()
	// compound tag, empty name, then a long array tag named MOTION_BLOCKING
	assert.Equal(t, []byte{10, 0, 0, 12, 0, 15}, encoded[:6])
	assert.Equal(t, "MOTION_BLOCKING", string(encoded[6:21]))
	assert.Equal(t, []byte{0, 0, 0, 3}, encoded[21:25])

	var decoded heightmaps
	require.NoError(t, nbt.Unmarshal(bytes.NewReader(encoded), &decoded))
	assert.Equal(t, val, decoded)
}

func TestEmptyLongArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, nbt.Marshal(heightmaps{}, "", &buf))

	var decoded heightmaps
	require.NoError(t, nbt.Unmarshal(bytes.NewReader(buf.Bytes()), &decoded))
	assert.Empty(t, decoded.MotionBlocking)
	assert.Empty(t, decoded.WorldSurface)
}

func TestNestedCompound(t *testing.T) {
	val := dimension{
		Name:    "minecraft:overworld",
		Height:  384,
		Seed:    math.MinInt64,
		Element: biomeEntry{Name: "minecraft:plains", ID: 1},
		Colors:  []int32{123, math.MaxInt32},
		Flags:   []byte{0xFF, 0xA7},
		Packed:  []int64{-1, 11},
		hidden:  5,
	}

	var buf bytes.Buffer
	require.NoError(t, nbt.Marshal(&val, "root", &buf))

	var decoded dimension
	require.NoError(t, nbt.Unmarshal(bytes.NewReader(buf.Bytes()), &decoded))

	val.hidden = 0
	assert.Equal(t, val, decoded)
}

func TestUnmarshalSkipsUnknownKeys(t *testing.T) {
	var buf bytes.Buffer
	named(&buf, 10, "")
	named(&buf, 1, "byte")
	buf.WriteByte(7)
	named(&buf, 2, "short")
	buf.Write([]byte{0, 1})
	named(&buf, 5, "float")
	buf.Write(make([]byte, 4))
	named(&buf, 6, "double")
	buf.Write(make([]byte, 8))
	named(&buf, 8, "string")
	buf.Write([]byte{0, 2, 'h', 'i'})
	named(&buf, 9, "list")
	buf.WriteByte(10)
	buf.Write([]byte{0, 0, 0, 2})
	buf.WriteByte(0)
	named(&buf, 3, "x")
	buf.Write([]byte{0, 0, 0, 1})
	buf.WriteByte(0)
	named(&buf, 11, "ints")
	buf.Write([]byte{0, 0, 0, 1, 0, 0, 0, 9})
	named(&buf, 3, "Kept")
	buf.Write([]byte{0, 0, 0, 7})
	buf.WriteByte(0)

	var decoded struct {
		Kept int32
	}
	reader := bytes.NewReader(buf.Bytes())
	require.NoError(t, nbt.Unmarshal(reader, &decoded))
	assert.Equal(t, int32(7), decoded.Kept)
	assert.Zero(t, reader.Len())
}

func TestUnmarshalMissingField(t *testing.T) {
	type small struct {
		A int32
	}
	type large struct {
		A int32
		B int32
	}

	var buf bytes.Buffer
	require.NoError(t, nbt.Marshal(small{A: 1}, "", &buf))

	var decoded large
	assert.Error(t, nbt.Unmarshal(bytes.NewReader(buf.Bytes()), &decoded))
}

func TestUnmarshalTagMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, nbt.Marshal(struct{ A int64 }{A: 1}, "", &buf))

	var decoded struct {
		A int32
	}
	assert.Error(t, nbt.Unmarshal(bytes.NewReader(buf.Bytes()), &decoded))
}

func TestUnmarshalRejectsNonCompoundRoot(t *testing.T) {
	var decoded heightmaps
	err := nbt.Unmarshal(bytes.NewReader([]byte{1, 0, 0, 5}), &decoded)
	assert.Error(t, err)

	assert.Error(t, nbt.Unmarshal(bytes.NewReader([]byte{10, 0, 0, 0}), decoded))
}

func TestMarshalRejectsUnsupportedTypes(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, nbt.Marshal(struct{ Scale float64 }{}, "", &buf))
	assert.Error(t, nbt.Marshal(int32(4), "", &buf))
}
