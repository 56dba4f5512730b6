package raster

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

type rasterKey struct {
	path string
	ch   Channel
}

// Cache provides thread-safe caching of decoded images and the rasters built
// from them, so repeated window requests against the same file never touch
// the disk or re-run channel conversion.
//
// Images are keyed by path. Rasters are keyed by (path, channel), so asking
// for the red and gray planes of one file decodes it once and converts it
// twice.
//
// # Memory Management
//
// Entries stay in memory until Evict or Clear is called. A full-resolution
// float64 raster costs 8 bytes per pixel per cached channel.
//
// # Example Usage
//
//	cache := raster.NewCache()
//	r, err := cache.Raster("/tiles/satImage_001.png", raster.Gray)
//	if err != nil {
//	    return err
//	}
//	w, err := window.Extract(r, 15, raster.Coordinate{Row: 0, Col: 0})
type Cache struct {
	mu      sync.RWMutex
	images  map[string]image.Image
	rasters map[rasterKey]*Raster
}

// NewCache creates an empty cache. It is ready for concurrent use.
func NewCache() *Cache {
	return &Cache{
		images:  make(map[string]image.Image),
		rasters: make(map[rasterKey]*Raster),
	}
}

// Load returns the decoded image at path, reading it from disk on first use.
//
// Decoding is done by disintegration/imaging, which supports PNG, JPEG, GIF,
// BMP and TIFF.
func (c *Cache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Raster returns the ch plane of the image at path as a raster.
func (c *Cache) Raster(path string, ch Channel) (*Raster, error) {
	key := rasterKey{path: path, ch: ch}

	c.mu.RLock()
	if r, ok := c.rasters[key]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	r, err := FromImage(img, ch)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s raster: %w", ch, err)
	}

	c.mu.Lock()
	c.rasters[key] = r
	c.mu.Unlock()

	return r, nil
}

// Clear removes every image and raster from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.rasters = make(map[rasterKey]*Raster)
	c.mu.Unlock()
}

// Evict removes the image at path and every raster built from it.
// Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	for key := range c.rasters {
		if key.path == path {
			delete(c.rasters, key)
		}
	}
	c.mu.Unlock()
}

// Info describes an image file that rasters can be built from.
type Info struct {
	// Width is the image width in pixels, i.e. the raster column count.
	Width int `json:"width"`

	// Height is the image height in pixels, i.e. the raster row count.
	Height int `json:"height"`

	// Format is detected from the file extension: "png", "jpeg", "gif",
	// "bmp", "tiff" or "unknown".
	Format string `json:"format"`

	// Channels lists the channel names accepted by Cache.Raster.
	Channels []Channel `json:"channels"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo loads the image at path into the cache and describes it.
func LoadInfo(cache *Cache, path string) (*Info, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".tif", ".tiff":
		format = "tiff"
	}

	bounds := img.Bounds()
	return &Info{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Channels:      Channels,
		FileSizeBytes: stat.Size(),
	}, nil
}
