package chunkwire

import (
	"github.com/richgrov/chunkwire/internal/util"
	"github.com/richgrov/chunkwire/level"
)

// Block position in world coordinates
type BlockPos struct {
	X int32
	Y int32
	Z int32
}

func (pos BlockPos) ChunkPos() level.ChunkPos {
	return level.ChunkPos{
		X: util.FloorDivI32(pos.X, level.SectionWidth),
		Z: util.FloorDivI32(pos.Z, level.SectionWidth),
	}
}

// Coordinates inside the owning chunk column
func (pos BlockPos) Local() (int, int, int) {
	return int(util.FloorModI32(pos.X, level.SectionWidth)),
		int(pos.Y),
		int(util.FloorModI32(pos.Z, level.SectionWidth))
}
