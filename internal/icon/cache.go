package icon

import (
	"fmt"
	"image"
	"sync"

	"github.com/matthewsawatzky/themekit/internal/props"
	"github.com/matthewsawatzky/themekit/internal/theme"
)

// CacheKey identifies one rendered raster. Handles that share a template and
// size share an entry.
type CacheKey struct {
	Template string
	Palette  theme.PaletteKey
	Size     props.Dimension
	Mode     MergeMode
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s@%s/%s/%s", k.Template, k.Size, k.Mode, k.Palette.Digest())
}

// Cache holds rendered rasters. Entries are immutable once stored; callers
// must not modify returned images.
type Cache struct {
	mu      sync.RWMutex
	entries map[CacheKey]*image.NRGBA
	bytes   int64
}

func NewCache() *Cache {
	return &Cache{entries: map[CacheKey]*image.NRGBA{}}
}

func (c *Cache) Get(k CacheKey) (*image.NRGBA, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.entries[k]
	return img, ok
}

// Put stores img unless k is already present, and returns the stored image.
func (c *Cache) Put(k CacheKey, img *image.NRGBA) *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[k]; ok {
		return existing
	}
	c.entries[k] = img
	c.bytes += int64(len(img.Pix))
	return img
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Bytes is the total pixel memory held by the cache.
func (c *Cache) Bytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytes
}

// Keys returns a snapshot of the cached keys.
func (c *Cache) Keys() []CacheKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]CacheKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
