package chunkwire

import (
	"slices"

	"github.com/richgrov/chunkwire/chunk"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/version"
)

type worldChunk struct {
	data *level.Chunk
	// Viewers that already hold the current packet
	viewers map[Viewer]bool
	// Viewers waiting for the current packet
	pending map[Viewer]bool

	// Incremented on every change. The snapshot, prepared data and packets
	// below always belong to the current revision.
	revision uint64
	// Changed since the last tick
	dirty    bool
	snapshot *level.ChunkSnapshot
	// Keyed by the number of sections sent
	prepared map[int]*chunk.ChunkData
	packets  map[version.Version][]byte
}

func newWorldChunk(pos level.ChunkPos, dimension Dimension) *worldChunk {
	ch := &worldChunk{
		data:    level.NewChunk(pos, dimension.Sections()),
		viewers: make(map[Viewer]bool),
		pending: make(map[Viewer]bool),
	}
	ch.reset()
	return ch
}

func (ch *worldChunk) reset() {
	ch.snapshot = nil
	ch.prepared = make(map[int]*chunk.ChunkData)
	ch.packets = make(map[version.Version][]byte)
}

// Drops cached packets and queues every viewer for a resend
func (ch *worldChunk) invalidate() {
	ch.revision++
	ch.reset()

	for viewer := range ch.viewers {
		ch.pending[viewer] = true
	}
	ch.viewers = make(map[Viewer]bool)
}

func (ch *worldChunk) chunkData(v version.Version, dimension Dimension) *chunk.ChunkData {
	if ch.snapshot == nil {
		ch.snapshot = ch.data.Snapshot(true)
	}

	sections := dimension.MaxSections(v)
	data, ok := ch.prepared[sections]
	if !ok {
		data = chunk.NewChunkData(ch.snapshot, dimension.HasSkyLight(), sections)
		ch.prepared[sections] = data
	}
	return data
}

// Builds section storages for the given versions concurrently
func (ch *worldChunk) prepare(versions []version.Version, dimension Dimension) {
	groups := make(map[*chunk.ChunkData][]version.Version)
	for _, v := range versions {
		if _, ok := ch.packets[v]; ok {
			continue
		}
		data := ch.chunkData(v, dimension)
		groups[data] = append(groups[data], v)
	}

	for data, group := range groups {
		data.Prepare(group)
	}
}

// Encodes the chunk for a version, reusing the packet built for the current
// revision if there is one.
func (ch *worldChunk) packet(v version.Version, dimension Dimension) ([]byte, error) {
	if payload, ok := ch.packets[v]; ok {
		return payload, nil
	}

	payload, err := ch.chunkData(v, dimension).Encode(v)
	if err != nil {
		return nil, err
	}
	ch.packets[v] = payload
	return payload, nil
}

// Versions of the pending viewers, each listed once
func (ch *worldChunk) pendingVersions() []version.Version {
	seen := make(map[version.Version]bool)
	var versions []version.Version
	for viewer := range ch.pending {
		v := viewer.ProtocolVersion()
		if !seen[v] {
			seen[v] = true
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)
	return versions
}
