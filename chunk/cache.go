package chunk

import (
	"sync"
	"sync/atomic"

	"github.com/richgrov/chunkwire/version"
)

type cell[T any] struct {
	mu    sync.Mutex
	built bool
	value T
}

// Lazily built value per protocol version. Each version is built at most
// once, and building one version never waits on another. A build that panics
// leaves its version unbuilt so the next caller retries.
type versionCache[T any] struct {
	mu     sync.Mutex
	cells  map[version.Version]*cell[T]
	builds atomic.Int64
}

func (c *versionCache[T]) slot(v version.Version) *cell[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cells == nil {
		c.cells = make(map[version.Version]*cell[T])
	}

	entry, ok := c.cells[v]
	if !ok {
		entry = &cell[T]{}
		c.cells[v] = entry
	}
	return entry
}

func (c *versionCache[T]) get(v version.Version, build func() T) T {
	entry := c.slot(v)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.built {
		entry.value = build()
		entry.built = true
		c.builds.Add(1)
	}
	return entry.value
}
