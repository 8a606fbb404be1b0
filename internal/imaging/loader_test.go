package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createInMemoryImage creates a solid-colour RGBA image.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createTestImage creates a simple test image file and returns its path.
// The caller is responsible for removing the file.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := createInMemoryImage(width, height, c)

	tmpFile, err := os.CreateTemp("", "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.uploads == nil {
		t.Fatal("NewImageCache did not initialize uploads map")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 100, color.RGBA{255, 0, 0, 255})
	defer os.Remove(imgPath)

	// First load
	up1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if up1 == nil || up1.Image == nil {
		t.Fatal("Load returned nil image")
	}

	bounds := up1.Image.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x100", bounds.Dx(), bounds.Dy())
	}
	if up1.Format != "PNG" {
		t.Errorf("Format: got %s, want PNG", up1.Format)
	}
	if up1.Name != filepath.Base(imgPath) {
		t.Errorf("Name: got %s, want %s", up1.Name, filepath.Base(imgPath))
	}
	if up1.Path != imgPath {
		t.Errorf("Path: got %s, want %s", up1.Path, imgPath)
	}

	// Second load should return cached upload
	up2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if up1 != up2 {
		t.Error("second Load did not return cached upload")
	}
}

func TestImageCache_Load_ChangedFile(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "scan.png")

	writePNG := func(w, h int) {
		t.Helper()
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
		defer f.Close()
		if err := png.Encode(f, createInMemoryImage(w, h, color.RGBA{9, 9, 9, 255})); err != nil {
			t.Fatalf("failed to encode image: %v", err)
		}
	}

	writePNG(100, 50)
	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Same path, different content
	writePNG(300, 20)
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if first == second {
		t.Fatal("Load returned the stale upload after the file changed")
	}
	if b := second.Image.Bounds(); b.Dx() != 300 || b.Dy() != 20 {
		t.Errorf("second Load: got %dx%d, want 300x20", b.Dx(), b.Dy())
	}
	if cache.Len() != 1 {
		t.Errorf("cache should hold one entry per path, got %d", cache.Len())
	}
}

func TestImageCache_Load_RemovedFileEvicts(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 20, 20, color.RGBA{1, 2, 3, 255})

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	os.Remove(imgPath)

	if _, err := cache.Load(imgPath); err == nil {
		t.Error("Load should fail once the file is gone")
	}
	if cache.Len() != 0 {
		t.Errorf("failed Load should evict the entry, %d remain", cache.Len())
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	_, err := cache.Load("/nonexistent/path/to/image.png")
	if err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	cache := NewImageCache()

	// Create a file with invalid image data
	tmpFile, err := os.CreateTemp("", "invalid-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.WriteString("not an image")
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	_, err = cache.Load(tmpFile.Name())
	if err == nil {
		t.Fatal("Load should fail for invalid image data")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("error should wrap ErrDecode, got %v", err)
	}
	if cache.Len() != 0 {
		t.Error("failed decode should not be cached")
	}
}

func TestImageCache_Clear(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{0, 255, 0, 255})
	defer os.Remove(imgPath)

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d uploads remain", cache.Len())
	}
}

func TestImageCache_Evict(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{0, 0, 255, 255})
	defer os.Remove(imgPath)

	if _, err := cache.Load(imgPath); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cache.Evict(imgPath)

	cache.mu.RLock()
	_, exists := cache.uploads[imgPath]
	cache.mu.RUnlock()

	if exists {
		t.Error("Evict did not remove upload from cache")
	}
}

func TestImageCache_Evict_NonExistent(t *testing.T) {
	cache := NewImageCache()
	// Should not panic
	cache.Evict("/nonexistent/path")
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})
	defer os.Remove(imgPath)

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestDecode_FormatFromDecoder(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{10, 20, 30, 255})

	var pngData, jpegData bytes.Buffer
	if err := png.Encode(&pngData, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	if err := jpeg.Encode(&jpegData, img, nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"scan.png", pngData.Bytes(), "PNG"},
		{"scan.jpg", jpegData.Bytes(), "JPEG"},
		// The extension does not matter, only the decoder does
		{"misnamed.jpg", pngData.Bytes(), "PNG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, err := Decode(tt.name, bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if up.Format != tt.format {
				t.Errorf("Format: got %s, want %s", up.Format, tt.format)
			}
			if up.Name != tt.name {
				t.Errorf("Name: got %s, want %s", up.Name, tt.name)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("broken.png", bytes.NewReader([]byte("\x89PNG but not really")))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}
