package blocks

import (
	"sync"

	"github.com/richgrov/chunkwire/version"
)

// Maps numeric IDs back to blocks. Used wherever only the wire ID of a block
// is known, such as when decoding a payload.
type Registry struct {
	mu     sync.Mutex
	blocks []Block
	// Lazily built per version
	byID map[version.Version]map[uint16]Block
}

func NewRegistry(blocks ...Block) *Registry {
	return &Registry{
		blocks: blocks,
		byID:   make(map[version.Version]map[uint16]Block),
	}
}

// Registry containing every built-in block
func Default() *Registry {
	return NewRegistry(known...)
}

// Adds blocks to the registry. When two blocks share an ID on a version, the
// one registered first wins.
func (r *Registry) Register(blocks ...Block) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blocks = append(r.blocks, blocks...)
	r.byID = make(map[version.Version]map[uint16]Block)
}

func (r *Registry) ByID(v version.Version, id uint16) (Block, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, ok := r.byID[v]
	if !ok {
		index = make(map[uint16]Block, len(r.blocks))
		for _, b := range r.blocks {
			if _, exists := index[b.ID(v)]; !exists {
				index[b.ID(v)] = b
			}
		}
		r.byID[v] = index
	}

	b, ok := index[id]
	return b, ok
}
