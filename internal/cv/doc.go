// Package cv provides the classical vision primitives the filter pipeline is
// built from: luminance conversion, histogram equalization, Gaussian blur,
// Canny edge detection and adaptive thresholding.
//
// Every function takes and returns single-channel 8-bit *image.Gray values
// anchored at (0, 0) (Grayscale takes any opaque image.Image). Results are
// always new images; inputs are never modified.
//
// # Backends
//
// The default build is pure Go on top of github.com/anthonynsimon/bild
// (grayscale weights, histograms, convolution). Building with the opencv tag
//
//	go build -tags opencv ./...
//
// swaps in gocv.io/x/gocv, which calls the matching OpenCV functions and
// requires OpenCV 4 to be installed. Both follow OpenCV's semantics; the only
// known difference is the blur border (edge replication here, reflect-101 in
// OpenCV), which affects the outermost two pixels.
package cv
