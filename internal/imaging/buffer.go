package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var (
	// ErrInvalidBuffer is returned when a sample slice does not match its shape.
	ErrInvalidBuffer = errors.New("invalid image buffer")

	// ErrUnsupportedLayout is returned for buffers the pipeline cannot normalize:
	// anything other than (h, w), (h, w, 3) or (h, w, 4).
	ErrUnsupportedLayout = errors.New("unsupported channel layout")
)

// Buffer is an array of unsigned 8-bit samples laid out row-major.
//
// Shape is (height, width) for single-channel data or (height, width, channels)
// for interleaved multi-channel data. Multi-channel samples are straight
// (non-premultiplied) values in R, G, B[, A] order.
type Buffer struct {
	Pix   []uint8
	Shape []int
}

// NewBuffer validates shape against the sample count and returns a Buffer
// that owns pix.
//
// Shape must have two or three positive dimensions. The channel count of a
// three-dimensional shape is not restricted here so that layouts the
// pipeline rejects can still be represented.
func NewBuffer(shape []int, pix []uint8) (*Buffer, error) {
	if len(shape) != 2 && len(shape) != 3 {
		return nil, fmt.Errorf("%w: shape %v must have 2 or 3 dimensions", ErrInvalidBuffer, shape)
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("%w: shape %v has a non-positive dimension", ErrInvalidBuffer, shape)
		}
		n *= d
	}
	if len(pix) != n {
		return nil, fmt.Errorf("%w: shape %v needs %d samples, got %d", ErrInvalidBuffer, shape, n, len(pix))
	}
	return &Buffer{Pix: pix, Shape: append([]int(nil), shape...)}, nil
}

// Height returns the number of rows.
func (b *Buffer) Height() int { return b.Shape[0] }

// Width returns the number of columns.
func (b *Buffer) Width() int { return b.Shape[1] }

// Channels returns the sample count per pixel; two-dimensional buffers have one.
func (b *Buffer) Channels() int {
	if len(b.Shape) == 3 {
		return b.Shape[2]
	}
	return 1
}

// Is2D reports whether the buffer is a plain (height, width) array.
func (b *Buffer) Is2D() bool { return len(b.Shape) == 2 }

// Gray returns a copy of a two-dimensional buffer as *image.Gray.
func (b *Buffer) Gray() (*image.Gray, error) {
	if !b.Is2D() {
		return nil, fmt.Errorf("%w: shape %v is not two-dimensional", ErrUnsupportedLayout, b.Shape)
	}
	g := image.NewGray(image.Rect(0, 0, b.Width(), b.Height()))
	copy(g.Pix, b.Pix)
	return g, nil
}

// RGB returns the colour channels of a 3- or 4-channel buffer as an opaque
// *image.RGBA. Any alpha channel is dropped, not composited.
func (b *Buffer) RGB() (*image.RGBA, error) {
	ch := b.Channels()
	if b.Is2D() || (ch != 3 && ch != 4) {
		return nil, fmt.Errorf("%w: shape %v", ErrUnsupportedLayout, b.Shape)
	}
	w, h := b.Width(), b.Height()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+ch, j+4 {
		dst.Pix[j+0] = b.Pix[i+0]
		dst.Pix[j+1] = b.Pix[i+1]
		dst.Pix[j+2] = b.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst, nil
}

// BufferFromImage converts a decoded image into a Buffer.
//
// The channel layout follows the decoded colour model:
//   - *image.Gray, *image.Gray16: two-dimensional (16-bit samples keep the high byte)
//   - *image.NRGBA, *image.NRGBA64: four channels
//   - *image.Paletted: four channels if any palette entry is translucent, otherwise three
//   - any other type: three channels when opaque, four otherwise
//
// The result always has its origin at (0, 0), whatever the source bounds.
func BufferFromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image bounds %v", ErrInvalidBuffer, bounds)
	}

	switch src := img.(type) {
	case *image.Gray:
		pix := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(pix[y*w:(y+1)*w], src.Pix[off:off+w])
		}
		return NewBuffer([]int{h, w}, pix)
	case *image.Gray16:
		pix := make([]uint8, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pix[y*w+x] = uint8(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y >> 8)
			}
		}
		return NewBuffer([]int{h, w}, pix)
	}

	channels := channelsOf(img)
	pix := make([]uint8, w*h*channels)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix[i+0] = c.R
			pix[i+1] = c.G
			pix[i+2] = c.B
			if channels == 4 {
				pix[i+3] = c.A
			}
			i += channels
		}
	}
	return NewBuffer([]int{h, w, channels}, pix)
}

func channelsOf(img image.Image) int {
	switch src := img.(type) {
	case *image.NRGBA, *image.NRGBA64:
		return 4
	case *image.Paletted:
		for _, c := range src.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}
