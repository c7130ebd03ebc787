package chunkwire

import (
	"container/list"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/richgrov/chunkwire/blocks"
	"github.com/richgrov/chunkwire/chunk"
	"github.com/richgrov/chunkwire/level"
	"github.com/richgrov/chunkwire/traits"
	"github.com/richgrov/chunkwire/version"
)

const ticksPerSecond = 20
const messageQueueBacklog = 16

// Holds chunk columns and the viewers of each, and sends every viewer the
// chunk data packet for its protocol version. A chunk is encoded at most once
// per distinct version per change, no matter how many viewers share that
// version.
//
// Like a game server, a World is owned by the goroutine calling Tick. Other
// goroutines hand work to it through Submit.
type World struct {
	ticker *time.Ticker
	// Functions added to this channel will be invoked from the goroutine
	// calling Tick.
	messageQueue chan func()
	traitData    *traits.TraitData
	log          *logrus.Logger

	dimension Dimension
	// Versions whose storages are built on the first tick after a chunk
	// changes, whether or not anyone views it
	prepareVersions []version.Version

	// The map never contains a key pointing to nil
	chunks map[level.ChunkPos]*worldChunk

	currentTick int
	schedules   list.List
}

type schedule struct {
	fn      func() int
	nextRun int
}

type Config struct {
	Dimension Dimension
	// Versions prepared ahead of the first viewer. May be empty.
	PrepareVersions []version.Version
	// Defaults to the logrus standard logger
	Logger *logrus.Logger
}

func NewWorld(config *Config) *World {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &World{
		ticker:       time.NewTicker(time.Second / ticksPerSecond),
		messageQueue: make(chan func(), messageQueueBacklog),
		traitData: traits.NewData(
			reflect.TypeOf(&ChunkSentEvent{}),
			reflect.TypeOf(&ChunkEncodeFailedEvent{}),
			reflect.TypeOf(&ViewerDroppedEvent{}),
		),
		log: logger,

		dimension:       config.Dimension,
		prepareVersions: config.PrepareVersions,

		chunks: make(map[level.ChunkPos]*worldChunk),
	}
}

func (w *World) Dimension() Dimension {
	return w.dimension
}

func (w *World) Ticker() <-chan time.Time {
	return w.ticker.C
}

func (w *World) Tick() {
	w.drainMessageQueue()
	w.tickSchedules()
	w.flushChunks()
	w.currentTick++
}

// Queues fn to run on the next tick. Safe to call from any goroutine.
func (w *World) Submit(fn func()) {
	w.messageQueue <- fn
}

func (w *World) drainMessageQueue() {
	for {
		select {
		case message := <-w.messageQueue:
			message()
		default:
			return
		}
	}
}

func (w *World) tickSchedules() {
	e := w.schedules.Front()
	for e != nil {
		sched := e.Value.(*schedule)
		if sched.nextRun == w.currentTick {
			nextRunDelay := sched.fn()

			if nextRunDelay <= 0 {
				next := e.Next()
				w.schedules.Remove(e)
				e = next
				continue
			}

			sched.nextRun += nextRunDelay
		}

		e = e.Next()
	}
}

// Sends the current packet to every pending viewer
func (w *World) flushChunks() {
	for pos, ch := range w.chunks {
		if ch.dirty {
			ch.dirty = false
			if len(w.prepareVersions) > 0 {
				ch.prepare(w.prepareVersions, w.dimension)
			}
		}

		if len(ch.pending) == 0 {
			continue
		}

		versions := ch.pendingVersions()
		ch.prepare(versions, w.dimension)

		for _, v := range versions {
			w.sendVersion(pos, ch, v)
		}
	}
}

func (w *World) sendVersion(pos level.ChunkPos, ch *worldChunk, v version.Version) {
	payload, err := ch.packet(v, w.dimension)
	if err != nil {
		w.log.WithFields(logrus.Fields{
			"x":       pos.X,
			"z":       pos.Z,
			"version": v.String(),
		}).WithError(err).Error("failed to encode chunk")

		traits.CallEvent(w.traitData, &ChunkEncodeFailedEvent{Pos: pos, Version: v, Err: err})
		for viewer := range ch.pending {
			if viewer.ProtocolVersion() == v {
				delete(ch.pending, viewer)
			}
		}
		return
	}

	sent := 0
	for viewer := range ch.pending {
		if viewer.ProtocolVersion() != v {
			continue
		}
		delete(ch.pending, viewer)

		if err := viewer.WritePacket(payload); err != nil {
			w.log.WithFields(logrus.Fields{
				"x":       pos.X,
				"z":       pos.Z,
				"version": v.String(),
			}).WithError(err).Warn("dropping chunk viewer")

			traits.CallEvent(w.traitData, &ViewerDroppedEvent{Pos: pos, Viewer: viewer, Err: err})
			continue
		}

		ch.viewers[viewer] = true
		sent++
	}

	if sent > 0 {
		traits.CallEvent(w.traitData, &ChunkSentEvent{
			Pos:      pos,
			Version:  v,
			Payload:  payload,
			Viewers:  sent,
			Revision: ch.revision,
		})
	}
}

func (w *World) chunk(pos level.ChunkPos) *worldChunk {
	ch, ok := w.chunks[pos]
	if !ok {
		ch = newWorldChunk(pos, w.dimension)
		w.chunks[pos] = ch
	}
	return ch
}

// Number of chunk columns held by the world
func (w *World) ChunkCount() int {
	return len(w.chunks)
}

// Subscribes a viewer to a chunk, which is created empty if needed. The
// viewer receives the chunk on the next tick.
func (w *World) AddViewer(pos level.ChunkPos, viewer Viewer) {
	ch := w.chunk(pos)
	if ch.viewers[viewer] {
		return
	}
	ch.pending[viewer] = true
}

func (w *World) RemoveViewer(pos level.ChunkPos, viewer Viewer) {
	ch, ok := w.chunks[pos]
	if !ok {
		return
	}
	delete(ch.viewers, viewer)
	delete(ch.pending, viewer)
}

// Returns the block at pos. Positions outside the column height read as air.
func (w *World) Block(pos BlockPos) blocks.Block {
	ch, ok := w.chunks[pos.ChunkPos()]
	if !ok {
		return blocks.Air
	}

	x, y, z := pos.Local()
	if y < 0 || y >= ch.data.Height() {
		return blocks.Air
	}
	return ch.data.Block(x, y, z)
}

// Places a block and queues the chunk for a resend. Returns false if pos is
// outside the column height.
func (w *World) SetBlock(pos BlockPos, block blocks.Block) bool {
	ch := w.chunk(pos.ChunkPos())

	x, y, z := pos.Local()
	if y < 0 || y >= ch.data.Height() {
		return false
	}

	ch.data.SetBlock(x, y, z, block)
	w.changed(ch)
	return true
}

func (w *World) SetBlockLight(pos BlockPos, value byte) bool {
	return w.editColumn(pos, func(ch *level.Chunk, x, y, z int) { ch.SetBlockLight(x, y, z, value) })
}

func (w *World) SetSkyLight(pos BlockPos, value byte) bool {
	return w.editColumn(pos, func(ch *level.Chunk, x, y, z int) { ch.SetSkyLight(x, y, z, value) })
}

func (w *World) SetBiome(pos BlockPos, biome level.Biome) bool {
	return w.editColumn(pos, func(ch *level.Chunk, x, y, z int) { ch.SetBiome(x, y, z, biome) })
}

func (w *World) editColumn(pos BlockPos, edit func(ch *level.Chunk, x, y, z int)) bool {
	ch := w.chunk(pos.ChunkPos())

	x, y, z := pos.Local()
	if y < 0 || y >= ch.data.Height() {
		return false
	}

	edit(ch.data, x, y, z)
	w.changed(ch)
	return true
}

func (w *World) changed(ch *worldChunk) {
	ch.invalidate()
	ch.dirty = true
}

// Encodes a chunk for one version outside the tick cycle, such as for a
// transport that sends chunks on its own schedule.
func (w *World) Packet(pos level.ChunkPos, v version.Version) ([]byte, error) {
	return w.chunk(pos).packet(v, w.dimension)
}

// The prepared chunk data of a column, for inspection
func (w *World) ChunkData(pos level.ChunkPos, v version.Version) *chunk.ChunkData {
	return w.chunk(pos).chunkData(v, w.dimension)
}

// Repeatedly calls the provided function on the world's goroutine. The
// function is first executed on the next tick. The function's return value is
// the number of ticks to wait until calling it again. If the return value is
// less than 1, the function will not be called again.
func (w *World) Repeat(fn func() int) {
	w.schedules.PushBack(&schedule{
		fn:      fn,
		nextRun: w.currentTick + 1,
	})
}

// Stops the ticker. Chunks and viewers are left untouched.
func (w *World) Shutdown() {
	w.ticker.Stop()
}

func (w *World) TraitData() *traits.TraitData {
	return w.traitData
}
