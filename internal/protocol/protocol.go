package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const maxVarIntLen = 5

var ErrVarIntTooBig = errors.New("varint is too big")

// Writes a value using the 7-bit continuation encoding used by the Minecraft
// protocol. Negative values always take five bytes.
func WriteVarInt(buf *bytes.Buffer, value int32) {
	v := uint32(value)
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}

// Number of bytes WriteVarInt would produce for the value
func VarIntSize(value int32) int {
	v := uint32(value)
	size := 1
	for v >= 0x80 {
		v >>= 7
		size++
	}
	return size
}

func ReadVarInt(reader io.ByteReader) (int32, error) {
	var result uint32
	for i := 0; i < maxVarIntLen; i++ {
		b, err := reader.ReadByte()
		if err != nil {
			return 0, err
		}

		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, ErrVarIntTooBig
}

func WriteBool(buf *bytes.Buffer, value bool) {
	if value {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func WriteShort(buf *bytes.Buffer, value int16) {
	binary.Write(buf, binary.BigEndian, value)
}

func WriteShortLE(buf *bytes.Buffer, value uint16) {
	binary.Write(buf, binary.LittleEndian, value)
}

func WriteInt(buf *bytes.Buffer, value int32) {
	binary.Write(buf, binary.BigEndian, value)
}

func WriteLong(buf *bytes.Buffer, value int64) {
	binary.Write(buf, binary.BigEndian, value)
}

// Writes the words prefixed with their count as a varint
func WriteLongs(buf *bytes.Buffer, words []uint64) {
	WriteVarInt(buf, int32(len(words)))
	for _, word := range words {
		binary.Write(buf, binary.BigEndian, word)
	}
}

// Encoded size of WriteLongs for the given number of words
func LongsSize(count int) int {
	return VarIntSize(int32(count)) + count*8
}

// Writes the data prefixed with its length as a varint
func WriteByteArray(buf *bytes.Buffer, data []byte) {
	WriteVarInt(buf, int32(len(data)))
	buf.Write(data)
}

// Reader over an in-memory packet payload. The first error is sticky: every
// later read returns zero values and Err reports the failure.
type Reader struct {
	r   *bytes.Reader
	err error
}

func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) Remaining() int {
	return r.r.Len()
}

// Underlying reader, for decoders that consume a nested structure such as NBT
func (r *Reader) Inner() *bytes.Reader {
	return r.r
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
	}
}

func (r *Reader) Byte() byte {
	if r.err != nil {
		return 0
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.fail(err)
	}
	return b
}

func (r *Reader) Bool() bool {
	return r.Byte() != 0
}

func (r *Reader) VarInt() int32 {
	if r.err != nil {
		return 0
	}
	v, err := ReadVarInt(r.r)
	if err != nil {
		r.fail(err)
	}
	return v
}

func (r *Reader) read(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.BigEndian, v); err != nil {
		r.fail(err)
	}
}

func (r *Reader) Short() int16 {
	var v int16
	r.read(&v)
	return v
}

func (r *Reader) ShortLE() uint16 {
	var v uint16
	if r.err != nil {
		return 0
	}
	if err := binary.Read(r.r, binary.LittleEndian, &v); err != nil {
		r.fail(err)
	}
	return v
}

func (r *Reader) Int() int32 {
	var v int32
	r.read(&v)
	return v
}

func (r *Reader) Long() int64 {
	var v int64
	r.read(&v)
	return v
}

// Reads exactly n bytes
func (r *Reader) Bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.r.Len() {
		r.fail(io.ErrUnexpectedEOF)
		return nil
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		r.fail(err)
		return nil
	}
	return data
}

// Reads a varint-prefixed byte array
func (r *Reader) ByteArray() []byte {
	return r.Bytes(int(r.VarInt()))
}

// Reads a varint-prefixed array of longs
func (r *Reader) Longs() []uint64 {
	count := int(r.VarInt())
	if r.err != nil {
		return nil
	}
	if count < 0 || count*8 > r.r.Len() {
		r.fail(io.ErrUnexpectedEOF)
		return nil
	}
	words := make([]uint64, count)
	r.read(words)
	return words
}
