package blocks

import (
	"fmt"

	"github.com/richgrov/chunkwire/version"
)

// A block state as seen by the network encoder. Implementations must be
// comparable with == because palettes are keyed by identity.
type Block interface {
	// Numeric ID of the block on the given protocol version. Before 1.13 this
	// is the legacy type shifted left by four, ORed with the metadata value.
	// From 1.13 on it is the global block state ID.
	ID(v version.Version) uint16
	Solid() bool
	Air() bool
	MotionBlocking() bool
}

// Reports whether the version uses flattened global block state IDs
func Flattened(v version.Version) bool {
	return v >= version.V1_13
}

type Properties struct {
	Air            bool
	Solid          bool
	MotionBlocking bool
}

// Block with a fixed legacy ID and a fixed flattened state ID
type Simple struct {
	name   string
	legacy uint16
	modern uint16
	props  Properties
}

// Creates a block. legacyType and legacyData are the pre-1.13 numeric ID and
// metadata, modern is the global state ID used from 1.13 on.
func New(name string, legacyType byte, legacyData byte, modern uint16, props Properties) Simple {
	if legacyData > 15 {
		panic(fmt.Sprintf("legacy data %d of %s does not fit in a nibble", legacyData, name))
	}

	return Simple{
		name:   name,
		legacy: uint16(legacyType)<<4 | uint16(legacyData),
		modern: modern,
		props:  props,
	}
}

func (b Simple) ID(v version.Version) uint16 {
	if Flattened(v) {
		return b.modern
	}
	return b.legacy
}

func (b Simple) Name() string {
	return b.name
}

// Legacy numeric type, for example 1 for stone
func (b Simple) LegacyType() byte {
	return byte(b.legacy >> 4)
}

func (b Simple) LegacyData() byte {
	return byte(b.legacy & 0xF)
}

func (b Simple) Solid() bool {
	return b.props.Solid
}

func (b Simple) Air() bool {
	return b.props.Air
}

func (b Simple) MotionBlocking() bool {
	return b.props.MotionBlocking
}

func (b Simple) String() string {
	return b.name
}
