package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (8 and 16 bit)
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ImageInfo contains metadata about a decoded image file.
//
// Dataset tooling only needs the raster size, but the format and color depth
// are reported as well so that callers can explain why an image was odd.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format from the file extension:
	// "png", "jpeg", "gif", "tiff", "bmp", "webp" or "unknown".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ReadImageInfo fully decodes the image at path and returns its metadata.
//
// The whole raster is decoded rather than only the header so that truncated
// or corrupt files are rejected here instead of by a training pipeline later.
// Any color model and bit depth the registered decoders understand is accepted.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if no registered decoder accepts the file
//   - Returns error if the decoded raster is empty
func ReadImageInfo(path string) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("image %s has empty bounds %v", filepath.Base(path), bounds)
	}

	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        formatFromExt(path),
		ColorDepth:    colorDepth,
		FileSizeBytes: stat.Size(),
	}, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".bmp":
		return "bmp"
	case ".webp":
		return "webp"
	}
	return "unknown"
}

// DimensionCache provides thread-safe caching of decoded image metadata.
//
// Decoding is the expensive part of reading dimensions, and the same image is
// often asked about repeatedly (once for statistics, again when building the
// COCO document, and by MCP clients). Only metadata is kept, never pixels,
// so the cache stays small for large datasets.
//
// DimensionCache is safe for concurrent use by multiple goroutines.
type DimensionCache struct {
	mu    sync.RWMutex
	infos map[string]cacheEntry
}

// cacheEntry remembers the file version an ImageInfo was decoded from.
type cacheEntry struct {
	info    *ImageInfo
	modTime time.Time
	size    int64
}

// NewDimensionCache creates and initializes a new empty cache.
func NewDimensionCache() *DimensionCache {
	return &DimensionCache{
		infos: make(map[string]cacheEntry),
	}
}

// Info returns the cached metadata for path, decoding the image on first use.
//
// Entries are keyed by the exact path string and are only reused while the
// file's modification time and size are unchanged, so an image replaced on
// disk is decoded again. Failed decodes are not cached.
func (c *DimensionCache) Info(path string) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	c.mu.RLock()
	e, ok := c.infos[path]
	c.mu.RUnlock()
	if ok && e.modTime.Equal(stat.ModTime()) && e.size == stat.Size() {
		return e.info, nil
	}

	info, err := ReadImageInfo(path)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.mu.Lock()
	c.infos[path] = cacheEntry{info: info, modTime: stat.ModTime(), size: stat.Size()}
	c.mu.Unlock()

	return info, nil
}

// Dimensions returns the width and height of the image at path.
func (c *DimensionCache) Dimensions(path string) (width, height int, err error) {
	info, err := c.Info(path)
	if err != nil {
		return 0, 0, err
	}
	return info.Width, info.Height, nil
}

// Len returns the number of cached entries.
func (c *DimensionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.infos)
}

// Clear removes all entries from the cache.
func (c *DimensionCache) Clear() {
	c.mu.Lock()
	c.infos = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Evict removes a specific entry from the cache by its path.
func (c *DimensionCache) Evict(path string) {
	c.mu.Lock()
	delete(c.infos, path)
	c.mu.Unlock()
}

// GetDimensions returns the dimensions of an image through the cache.
func GetDimensions(cache *DimensionCache, path string) (*DimensionsResult, error) {
	w, h, err := cache.Dimensions(path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Width: w, Height: h}, nil
}
