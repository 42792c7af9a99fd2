package texture

import (
	"fmt"
	"image"
	"io"
	"sync"

	"nu20-tools/internal/format"
	"nu20-tools/internal/model"
	"nu20-tools/internal/postprocess"
)

// Resolver resolves a texture index to decoded pixels, or nil.
type Resolver interface {
	Resolve(index int) *image.NRGBA
}

// Cache decodes the textures of one model on first use. It is safe for
// concurrent use.
type Cache struct {
	mu       sync.RWMutex
	items    map[int]*cacheEntry
	textures []model.Texture
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a cache over a model's texture table.
func NewCache(textures []model.Texture) *Cache {
	return &Cache{
		items:    make(map[int]*cacheEntry),
		textures: textures,
	}
}

// Len is the size of the texture table.
func (c *Cache) Len() int { return len(c.textures) }

// Get decodes texture i, or returns the result of an earlier attempt.
func (c *Cache) Get(i int) (*image.NRGBA, error) {
	if i < 0 || i >= len(c.textures) {
		return nil, fmt.Errorf("texture: index %d of %d: %w", i, len(c.textures), format.ErrNotFound)
	}

	c.mu.RLock()
	if e, ok := c.items[i]; ok {
		c.mu.RUnlock()
		return e.img, e.err
	}
	c.mu.RUnlock()

	img, err := Decode(c.textures[i])
	if err != nil {
		err = fmt.Errorf("texture %d: %w", i, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[i]; ok {
		return e.img, e.err
	}
	c.items[i] = &cacheEntry{img: img, err: err}
	return img, err
}

// Resolve is Get without the error.
func (c *Cache) Resolve(i int) *image.NRGBA {
	img, _ := c.Get(i)
	return img
}

// Animate writes the frames of a as an animated WebP.
func (c *Cache) Animate(w io.Writer, a model.AnimatedTexture, frameMS, maxSide int) error {
	frames := make([]image.Image, 0, len(a.Frames))
	for n, f := range a.Frames {
		img, err := c.Get(int(f))
		if err != nil {
			return fmt.Errorf("texture: frame %d: %w", n, err)
		}
		frames = append(frames, postprocess.Fit(img, maxSide))
	}
	return EncodeAnimation(w, frames, frameMS)
}
