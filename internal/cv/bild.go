//go:build !opencv

package cv

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
)

const backendName = "bild"

// Grayscale converts an opaque colour image to single-channel luminance
// using the BT.601 weights. Alpha is ignored; drop it before calling when the
// source is translucent, since bild works on premultiplied samples.
func Grayscale(img image.Image) *image.Gray {
	return redChannel(effect.GrayscaleWithWeights(img, LumaRed, LumaGreen, LumaBlue))
}

// EqualizeHist flattens the intensity distribution of src.
//
// The lookup table is built from the cumulative histogram starting at the
// first populated bin: lut[v] = round(255 * (cdf[v] - h[first]) / (N - h[first])).
// The darkest present value therefore maps to 0 and the brightest to 255.
// An image holding a single value is returned unchanged.
func EqualizeHist(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := grayPix(src)
	out := make([]uint8, len(pix))
	total := len(pix)
	if total == 0 {
		return newGray(w, h, out)
	}

	hist := histogram.NewRGBAHistogram(newGray(w, h, pix)).R
	first := 0
	for first < len(hist.Bins) && hist.Bins[first] == 0 {
		first++
	}
	if hist.Bins[first] == total {
		copy(out, pix)
		return newGray(w, h, out)
	}

	cdf := hist.Cumulative()
	scale := 255.0 / float64(total-hist.Bins[first])
	var lut [256]uint8
	for v := first + 1; v < 256; v++ {
		lut[v] = clampUint8(math.Round(float64(cdf.Bins[v]-hist.Bins[first]) * scale))
	}
	for i, v := range pix {
		out[i] = lut[v]
	}
	return newGray(w, h, out)
}

// GaussianBlur smooths src with a ksize x ksize Gaussian kernel.
//
// ksize is forced to a positive odd number. A sigma <= 0 is derived from the
// kernel size. Pixels beyond the border replicate the nearest edge pixel.
func GaussianBlur(src *image.Gray, ksize int, sigma float64) *image.Gray {
	ksize = oddSize(ksize)
	return convolveGray(src, gaussianKernel(ksize, sigma))
}

// AdaptiveThreshold binarizes src against a threshold computed per pixel
// from its blockSize x blockSize neighbourhood.
//
// A pixel becomes maxValue when it is brighter than the local (mean or
// Gaussian-weighted) average minus c, and 0 otherwise. blockSize is forced to
// a positive odd number; the border replicates edge pixels.
func AdaptiveThreshold(src *image.Gray, maxValue uint8, method AdaptiveMethod, blockSize int, c float64) *image.Gray {
	blockSize = oddSize(blockSize)

	var weights []float64
	if method == AdaptiveGaussian {
		weights = gaussianKernel(blockSize, 0)
	} else {
		weights = make([]float64, blockSize)
		for i := range weights {
			weights[i] = 1 / float64(blockSize)
		}
	}
	mean := grayPix(convolveGray(src, weights))

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := grayPix(src)
	out := make([]uint8, len(pix))
	delta := int(math.Ceil(c))
	for i, v := range pix {
		if int(v)-int(mean[i]) > -delta {
			out[i] = maxValue
		}
	}
	return newGray(w, h, out)
}

// convolveGray applies the separable kernel k (as its outer product) through
// bild's convolution with edge-extend padding. A bias of 0.5 makes the
// final conversion round instead of truncate.
func convolveGray(src *image.Gray, k []float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	n := len(k)
	kernel := convolution.NewKernel(n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			kernel.Matrix[y*n+x] = k[y] * k[x]
		}
	}

	out := convolution.Convolve(newGray(w, h, grayPix(src)), kernel, &convolution.Options{
		Bias:      0.5,
		KeepAlpha: true,
	})
	return redChannel(out)
}

// redChannel extracts the R samples of a gray-valued RGBA image.
func redChannel(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := src.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			pix[y*w+x] = src.Pix[row+x*4]
		}
	}
	return newGray(w, h, pix)
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
