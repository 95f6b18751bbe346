// Package memory is the default pathcache backend: an LRU-bounded,
// in-process component cache. Adapted from
// registry/storage/cache/memory/memory.go's inMemoryBlobDescriptorCacheProvider,
// swapping its ARC blob-descriptor cache for a plain LRU of
// ComponentType classifications.
package memory

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/pvandyken/gobids/grammar"
	"github.com/pvandyken/gobids/pathcache"
)

func init() {
	pathcache.Register("inmemory", New)
}

// DefaultSize mirrors distribution's default blob-descriptor cache size;
// component text has a much smaller cardinality per corpus (entity
// values and datatype names repeat heavily), so this comfortably covers
// real BIDS datasets without configuration.
const DefaultSize = 10000

type provider struct {
	lru *lru.Cache
}

// New constructs an in-memory Provider. options["size"] (int) overrides
// DefaultSize; a non-positive size falls back to DefaultSize, mirroring
// distribution's memory.Memory{Size} config shape.
func New(options map[string]interface{}) (pathcache.Provider, error) {
	size := DefaultSize
	if raw, ok := options["size"]; ok {
		if n, ok := raw.(int); ok && n > 0 {
			size = n
		}
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("pathcache/memory: %w", err)
	}
	return &provider{lru: c}, nil
}

func (p *provider) Get(component string) (grammar.ComponentType, bool) {
	v, ok := p.lru.Get(component)
	if !ok {
		return grammar.ComponentType{}, false
	}
	return v.(grammar.ComponentType), true
}

func (p *provider) Set(component string, ct grammar.ComponentType) {
	p.lru.Add(component, ct)
}
