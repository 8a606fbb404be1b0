package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
)

// ProcessedPrefix is prepended to the original file name of an exported stage.
const ProcessedPrefix = "processed_"

// Export is a processed image written to disk and read back for transfer.
type Export struct {
	// Path is where the PNG was written.
	Path string `json:"path"`

	// FileName is the suggested download name, "processed_<original name>".
	FileName string `json:"file_name"`

	// Data is the complete file content as read back from disk.
	Data []byte `json:"-"`

	// MimeType is always "image/png"; the original extension is kept in the
	// name but never changes the encoding.
	MimeType string `json:"mime_type"`
}

// ExportPNG writes img as PNG to dir under the name "processed_<originalName>"
// and reads the file back into memory.
//
// The encoding is PNG regardless of originalName's extension. A single-channel
// *image.Gray round-trips as a grayscale PNG, so decoding Data yields a
// sample-for-sample copy of img.
//
// # Errors
//
//   - Returns error if the file cannot be created or written (disk full, permissions)
//   - Returns error if the written file cannot be read back
func ExportPNG(dir, originalName string, img image.Image) (*Export, error) {
	if dir == "" {
		dir = "."
	}
	name := ProcessedPrefix + filepath.Base(originalName)
	path := filepath.Join(dir, name)

	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return nil, fmt.Errorf("failed to save processed image: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read back processed image: %w", err)
	}

	return &Export{
		Path:     path,
		FileName: name,
		Data:     data,
		MimeType: "image/png",
	}, nil
}
