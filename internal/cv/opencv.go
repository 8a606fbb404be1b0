//go:build opencv

package cv

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"
)

const backendName = "opencv"

// Grayscale converts an opaque colour image to single-channel luminance
// with cv::cvtColor(RGB2GRAY).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	rgb := make([]byte, 0, w*h*3)
	for i := 0; i < len(rgba.Pix); i += 4 {
		rgb = append(rgb, rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2])
	}

	src := mustMat(h, w, gocv.MatTypeCV8UC3, rgb)
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.CvtColor(src, &dst, gocv.ColorRGBToGray)
	return grayFromMat(dst)
}

// EqualizeHist flattens the intensity distribution of src with cv::equalizeHist.
func EqualizeHist(src *image.Gray) *image.Gray {
	in := matFromGray(src)
	defer in.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.EqualizeHist(in, &dst)
	return grayFromMat(dst)
}

// GaussianBlur smooths src with cv::GaussianBlur and the default
// (reflect-101) border. ksize is forced to a positive odd number.
func GaussianBlur(src *image.Gray, ksize int, sigma float64) *image.Gray {
	ksize = oddSize(ksize)
	in := matFromGray(src)
	defer in.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.GaussianBlur(in, &dst, image.Point{X: ksize, Y: ksize}, sigma, sigma, gocv.BorderDefault)
	return grayFromMat(dst)
}

// Canny runs cv::Canny with a 3x3 aperture and L1 gradient magnitude.
// OpenCV swaps an inverted threshold pair itself.
func Canny(src *image.Gray, low, high float64) *image.Gray {
	in := matFromGray(src)
	defer in.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Canny(in, &dst, float32(low), float32(high))
	return grayFromMat(dst)
}

// AdaptiveThreshold runs cv::adaptiveThreshold with THRESH_BINARY.
func AdaptiveThreshold(src *image.Gray, maxValue uint8, method AdaptiveMethod, blockSize int, c float64) *image.Gray {
	blockSize = oddSize(blockSize)
	if blockSize < 3 {
		blockSize = 3
	}
	in := matFromGray(src)
	defer in.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	typ := gocv.AdaptiveThresholdMean
	if method == AdaptiveGaussian {
		typ = gocv.AdaptiveThresholdGaussian
	}
	gocv.AdaptiveThreshold(in, &dst, float32(maxValue), typ, gocv.ThresholdBinary, blockSize, float32(c))
	return grayFromMat(dst)
}

func matFromGray(src *image.Gray) gocv.Mat {
	b := src.Bounds()
	pix := grayPix(src)
	data := make([]byte, len(pix))
	copy(data, pix)
	return mustMat(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, data)
}

func grayFromMat(m gocv.Mat) *image.Gray {
	w, h := m.Cols(), m.Rows()
	pix := make([]uint8, w*h)
	copy(pix, m.ToBytes())
	return newGray(w, h, pix)
}

// mustMat wraps packed samples in a Mat. The sizes are computed by the
// callers above, so a mismatch is a programming error.
func mustMat(rows, cols int, typ gocv.MatType, data []byte) gocv.Mat {
	m, err := gocv.NewMatFromBytes(rows, cols, typ, data)
	if err != nil {
		panic(fmt.Sprintf("cv: building %dx%d mat: %v", cols, rows, err))
	}
	return m
}
