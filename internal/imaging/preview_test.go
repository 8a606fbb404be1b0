package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestPreview(t *testing.T) {
	img := createInMemoryImage(400, 200, color.RGBA{100, 100, 100, 255})

	tests := []struct {
		name       string
		width      int
		wantWidth  int
		wantHeight int
	}{
		{"downscale", 200, 200, 100},
		{"no upscale", 800, 400, 200},
		{"zero keeps size", 0, 400, 200},
		{"negative keeps size", -1, 400, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Preview(img, tt.width)
			if err != nil {
				t.Fatalf("Preview failed: %v", err)
			}
			if result.Width != tt.wantWidth || result.Height != tt.wantHeight {
				t.Errorf("size: got %dx%d, want %dx%d", result.Width, result.Height, tt.wantWidth, tt.wantHeight)
			}
			if result.MimeType != "image/png" {
				t.Errorf("MimeType: got %s", result.MimeType)
			}

			data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
			if err != nil {
				t.Fatalf("invalid base64: %v", err)
			}
			decoded, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("preview is not PNG: %v", err)
			}
			if decoded.Bounds().Dx() != tt.wantWidth {
				t.Errorf("decoded width: got %d, want %d", decoded.Bounds().Dx(), tt.wantWidth)
			}
		})
	}
}

func TestPreview_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 50, 50))
	result, err := Preview(img, 25)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if result.Width != 25 || result.Height != 25 {
		t.Errorf("size: got %dx%d, want 25x25", result.Width, result.Height)
	}
}
