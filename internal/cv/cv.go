package cv

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// ITU-R BT.601 luma weights, the same ones OpenCV uses for RGB to gray.
const (
	LumaRed   = 0.299
	LumaGreen = 0.587
	LumaBlue  = 0.114
)

// AdaptiveMethod selects how the local threshold of AdaptiveThreshold is weighted.
type AdaptiveMethod int

const (
	// AdaptiveMean uses the plain mean of the block.
	AdaptiveMean AdaptiveMethod = iota
	// AdaptiveGaussian uses a Gaussian-weighted mean of the block.
	AdaptiveGaussian
)

func (m AdaptiveMethod) String() string {
	switch m {
	case AdaptiveMean:
		return "mean"
	case AdaptiveGaussian:
		return "gaussian"
	default:
		return fmt.Sprintf("AdaptiveMethod(%d)", int(m))
	}
}

// ParseAdaptiveMethod parses "mean" or "gaussian" (case-insensitive).
func ParseAdaptiveMethod(s string) (AdaptiveMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return AdaptiveMean, nil
	case "gaussian":
		return AdaptiveGaussian, nil
	default:
		return 0, fmt.Errorf("unknown adaptive method %q (want mean or gaussian)", s)
	}
}

// Backend names the implementation the package was built with: "bild" for
// the pure Go build, "opencv" when built with the opencv tag.
func Backend() string {
	return backendName
}

// gaussianKernel returns the normalized 1-D Gaussian kernel of odd size n.
//
// A non-positive sigma is derived from the size as
// 0.3*((n-1)*0.5-1)+0.8, and sizes up to 7 with derived sigma use the fixed
// binomial tables (n=5 is 1 4 6 4 1 / 16).
func gaussianKernel(n int, sigma float64) []float64 {
	if sigma <= 0 {
		switch n {
		case 1:
			return []float64{1}
		case 3:
			return []float64{0.25, 0.5, 0.25}
		case 5:
			return []float64{0.0625, 0.25, 0.375, 0.25, 0.0625}
		case 7:
			return []float64{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125}
		}
		sigma = 0.3*(float64(n-1)*0.5-1) + 0.8
	}

	k := make([]float64, n)
	center := float64(n-1) / 2
	var sum float64
	for i := range k {
		d := float64(i) - center
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// oddSize forces a kernel or block size to a positive odd number.
func oddSize(n int) int {
	if n < 1 {
		return 1
	}
	if n%2 == 0 {
		return n + 1
	}
	return n
}

// grayPix returns the samples of a gray image as a tightly packed slice,
// copying only when the image is a sub-image.
func grayPix(src *image.Gray) []uint8 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if src.Stride == w && b.Min == (image.Point{}) {
		return src.Pix[:w*h]
	}
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w:(y+1)*w], src.Pix[off:off+w])
	}
	return pix
}

// newGray wraps packed samples in an origin-anchored *image.Gray.
func newGray(w, h int, pix []uint8) *image.Gray {
	return &image.Gray{Pix: pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
}
