package chunkwire

import (
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

// Called after a chunk packet was written to every viewer of one version
type ChunkSentEvent struct {
	Pos     level.ChunkPos
	Version version.Version
	Payload []byte
	Viewers int
	// Bumped every time the chunk changes
	Revision uint64
}

type ChunkEncodeFailedEvent struct {
	Pos     level.ChunkPos
	Version version.Version
	Err     error
}

// Called when a viewer is removed because writing to it failed
type ViewerDroppedEvent struct {
	Pos    level.ChunkPos
	Viewer Viewer
	Err    error
}
