package render

import "github.com/tsawler/folio/cache"

// TileCache is the persistent render cache consumed by the renderer.
// Implementations must be safe for use from multiple documents.
type TileCache interface {
	// Check returns the cached tile for a fingerprint, or nil.
	Check(fp Fingerprint) *Tile

	// Insert stores a tile under its fingerprint. Implementations may
	// decline tiles they do not want to own (for example transient
	// excerpt tiles).
	Insert(fp Fingerprint, t *Tile)
}

// MemoryTileCache is an in-memory TileCache backed by the byte-size LRU.
// It owns persistent (full-page) tiles only: excerpt tiles remain the
// caller's, matching the tile ownership rules.
type MemoryTileCache struct {
	lru *cache.LRU[Fingerprint, *Tile]
}

// NewMemoryTileCache creates a tile cache bounded to capacityBytes.
func NewMemoryTileCache(capacityBytes int64) *MemoryTileCache {
	return &MemoryTileCache{
		lru: cache.New[Fingerprint, *Tile](capacityBytes),
	}
}

// Check returns the cached tile for fp, or nil.
func (c *MemoryTileCache) Check(fp Fingerprint) *Tile {
	if t, ok := c.lru.Get(fp); ok {
		return t
	}
	return nil
}

// Insert stores a persistent tile. Non-persistent tiles are declined.
func (c *MemoryTileCache) Insert(fp Fingerprint, t *Tile) {
	if t == nil || !t.Persistent {
		return
	}
	c.lru.Set(fp, t, t.SizeBytes())
}

// Len returns the number of cached tiles.
func (c *MemoryTileCache) Len() int {
	return c.lru.Len()
}

// SizeBytes returns the cumulative pixel-buffer size of cached tiles.
func (c *MemoryTileCache) SizeBytes() int64 {
	return c.lru.SizeBytes()
}

// Clear drops every cached tile.
func (c *MemoryTileCache) Clear() {
	c.lru.Clear()
}
