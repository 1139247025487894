package sampler

import (
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/magfield/internal/core/field"
	"github.com/zeusync/magfield/internal/core/geometry"
)

const DefaultCacheSize = 16

// Cache memoizes region grids. Keys hash the snapshot contents together with the sampling
// parameters, so any conductor edit or camera move produces a new entry.
type Cache struct {
	sampler *Sampler
	size    int

	mu      sync.Mutex
	entries map[uint64]*Grid
	order   []uint64

	hits, misses uint64
}

func NewCache(sampler *Sampler, size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		sampler: sampler,
		size:    size,
		entries: make(map[uint64]*Grid, size),
	}
}

// SampleRegion returns a cached grid or samples snapshot and stores the result.
// Cached grids are shared between callers and must be treated as read-only.
func (c *Cache) SampleRegion(ctx context.Context, snapshot field.Snapshot, region geometry.Rectangle, width, height int, permeability float64) (*Grid, error) {
	key := regionKey(snapshot, region, width, height, permeability)

	c.mu.Lock()
	if grid, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return grid, nil
	}
	c.misses++
	c.mu.Unlock()

	grid, err := c.sampler.SampleRegion(ctx, snapshot, region, width, height, permeability)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.order) >= c.size {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = grid
	return grid, nil
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func regionKey(snapshot field.Snapshot, region geometry.Rectangle, width, height int, permeability float64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putFloat := func(f float64) { put(math.Float64bits(f)) }

	putFloat(region.TopLeft.X)
	putFloat(region.TopLeft.Y)
	putFloat(region.BottomRight.X)
	putFloat(region.BottomRight.Y)
	put(uint64(width))
	put(uint64(height))
	putFloat(permeability)

	for _, c := range snapshot.Conductors() {
		put(uint64(c.ID))
		putFloat(c.Center.X)
		putFloat(c.Center.Y)
		putFloat(c.Amperage)
	}
	return d.Sum64()
}
