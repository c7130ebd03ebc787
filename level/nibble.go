package level

import "fmt"

// 4096 four-bit values packed two per byte, low nibble first
type NibbleArray struct {
	data [SectionBlocks / 2]byte
}

func NewNibbleArray(fill byte) *NibbleArray {
	if fill > 15 {
		panic(fmt.Sprintf("nibble value %d is above 15", fill))
	}

	arr := &NibbleArray{}
	packed := fill | fill<<4
	for i := range arr.data {
		arr.data[i] = packed
	}
	return arr
}

// Wraps a 2048 byte array received from the wire
func NibbleArrayFromBytes(data []byte) (*NibbleArray, error) {
	arr := &NibbleArray{}
	if len(data) != len(arr.data) {
		return nil, fmt.Errorf("nibble array must be %d bytes, got %d", len(arr.data), len(data))
	}
	copy(arr.data[:], data)
	return arr, nil
}

func (n *NibbleArray) Get(index int) byte {
	b := n.data[index>>1]
	if index&1 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

func (n *NibbleArray) Set(index int, value byte) {
	if value > 15 {
		panic(fmt.Sprintf("nibble value %d is above 15", value))
	}

	i := index >> 1
	if index&1 == 0 {
		n.data[i] = n.data[i]&0xF0 | value
	} else {
		n.data[i] = n.data[i]&0x0F | value<<4
	}
}

// The packed bytes. The slice aliases the array and must not be modified.
func (n *NibbleArray) Bytes() []byte {
	return n.data[:]
}

func (n *NibbleArray) Copy() *NibbleArray {
	out := *n
	return &out
}
