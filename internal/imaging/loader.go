package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrDecode is returned when an upload is not a decodable image.
var ErrDecode = errors.New("failed to decode image")

// UnknownFormat stands in for a missing decoder label. It is reported for
// images that did not come from a decoder, or whose decoder registered no
// format name, so the Format row is never empty.
const UnknownFormat = "unknown"

// Upload is a decoded image file together with what the decoder reported about it.
type Upload struct {
	// Name is the base file name of the upload (e.g. "scan_01.png").
	Name string `json:"name"`

	// Path is where the upload was read from. Empty for in-memory uploads.
	Path string `json:"path,omitempty"`

	// Format is the decoder-reported format label, upper-cased ("PNG", "JPEG").
	Format string `json:"format"`

	// Image is the decoded pixel data.
	Image image.Image `json:"-"`
}

// Decode decodes an in-memory upload. The format label comes from whichever
// registered decoder accepted the data.
//
// # Errors
//
//   - Returns ErrDecode (wrapped) if the data is not a PNG, JPEG or GIF image
func Decode(name string, r io.Reader) (*Upload, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrDecode, name, err)
	}
	if format == "" {
		format = UnknownFormat
	}
	return &Upload{
		Name:   filepath.Base(name),
		Format: strings.ToUpper(format),
		Image:  img,
	}, nil
}

// ImageCache provides thread-safe caching of decoded uploads to avoid redundant disk reads.
//
// The cache stores decoded uploads keyed by their file path, together with
// the file's modification time and size at decode time. Load re-decodes a
// path whose file has changed since it was cached.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
type ImageCache struct {
	mu      sync.RWMutex
	uploads map[string]*cacheEntry
}

type cacheEntry struct {
	upload  *Upload
	modTime time.Time
	size    int64
}

func (e *cacheEntry) current(fi os.FileInfo) bool {
	return e.modTime.Equal(fi.ModTime()) && e.size == fi.Size()
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		uploads: make(map[string]*cacheEntry),
	}
}

// Load retrieves an upload from the cache or decodes it from disk if not
// cached or changed on disk.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG and JPEG (GIF is also accepted).
//
// Returns:
//   - *Upload: The decoded image with its name and decoder format label.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The upload is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns ErrDecode (wrapped) if the file is not a valid image
//
// A failed Load drops any entry cached for path.
func (c *ImageCache) Load(path string) (*Upload, error) {
	fi, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.uploads[path]
	c.mu.RUnlock()
	if ok && entry.current(fi) {
		return entry.upload, nil
	}

	f, err := os.Open(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	up, err := Decode(path, f)
	if err != nil {
		c.Evict(path)
		return nil, err
	}
	up.Path = path

	c.mu.Lock()
	c.uploads[path] = &cacheEntry{upload: up, modTime: fi.ModTime(), size: fi.Size()}
	c.mu.Unlock()

	return up, nil
}

// Len returns the number of cached uploads.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.uploads)
}

// Clear removes all uploads from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.uploads = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Evict removes a specific upload from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.uploads, path)
	c.mu.Unlock()
}
