package pipeline

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/oct-analysis-mcp/internal/cv"
	"github.com/ironsheep/oct-analysis-mcp/internal/imaging"
)

// Fixed stage parameters.
const (
	BlurKernelSize    = 5
	BlurSigma         = 0 // derived from BlurKernelSize
	AdaptiveBlockSize = 11
	AdaptiveOffset    = 2
	BinaryMax         = 255
)

// Stage names, in pipeline order.
const (
	StageGrayscale         = "grayscale"
	StageEqualized         = "equalized"
	StageBlurred           = "blurred"
	StageEdges             = "edges"
	StageAdaptiveThreshold = "adaptive_threshold"
)

// ErrUnknownStage is returned when a stage is looked up by a name that is not
// one of the five stage names.
var ErrUnknownStage = errors.New("unknown stage")

// StageNames lists every stage in the order the pipeline produces them.
func StageNames() []string {
	return []string{StageGrayscale, StageEqualized, StageBlurred, StageEdges, StageAdaptiveThreshold}
}

// Result holds the five single-channel outputs of one pipeline run. All five
// share the width and height of the normalized input.
type Result struct {
	Gray              *image.Gray
	Equalized         *image.Gray
	Blurred           *image.Gray
	Edges             *image.Gray
	AdaptiveThreshold *image.Gray
}

// Stage is a named pipeline output.
type Stage struct {
	Name  string
	Image *image.Gray
}

// Stages returns the outputs paired with their names, in pipeline order.
func (r *Result) Stages() []Stage {
	return []Stage{
		{StageGrayscale, r.Gray},
		{StageEqualized, r.Equalized},
		{StageBlurred, r.Blurred},
		{StageEdges, r.Edges},
		{StageAdaptiveThreshold, r.AdaptiveThreshold},
	}
}

// Stage returns the output with the given name.
func (r *Result) Stage(name string) (*image.Gray, error) {
	for _, s := range r.Stages() {
		if s.Name == name {
			return s.Image, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// Options holds the tunables of the pipeline that are not per-image.
type Options struct {
	// AdaptiveMethod weights the local threshold of the last stage.
	AdaptiveMethod cv.AdaptiveMethod
}

// DefaultOptions matches the reference behaviour: Gaussian-weighted local mean.
func DefaultOptions() Options {
	return Options{AdaptiveMethod: cv.AdaptiveGaussian}
}

// Process runs the five stages on buf with DefaultOptions.
func Process(buf *imaging.Buffer, t Thresholds) (*Result, error) {
	return ProcessWithOptions(buf, t, DefaultOptions())
}

// ProcessWithOptions runs the pipeline:
//
//  1. Channel normalization: 2-D buffers pass through; 4-channel buffers lose
//     their alpha and, like 3-channel buffers, are converted to luminance
//  2. Histogram equalization
//  3. 5x5 Gaussian blur with sigma derived from the kernel size
//  4. Canny edge detection on the blurred image with t.Low and t.High
//  5. Adaptive thresholding of the blurred image (11x11 block, offset 2)
//
// Stages 4 and 5 both consume the blurred image. Thresholds are passed to the
// edge detector as given.
//
// # Errors
//
//   - Returns imaging.ErrUnsupportedLayout (wrapped) for any shape other than
//     (h, w), (h, w, 3) or (h, w, 4)
func ProcessWithOptions(buf *imaging.Buffer, t Thresholds, opts Options) (*Result, error) {
	gray, err := Normalize(buf)
	if err != nil {
		return nil, err
	}

	equalized := cv.EqualizeHist(gray)
	blurred := cv.GaussianBlur(equalized, BlurKernelSize, BlurSigma)
	edges := cv.Canny(blurred, float64(t.Low), float64(t.High))
	adaptive := cv.AdaptiveThreshold(blurred, BinaryMax, opts.AdaptiveMethod, AdaptiveBlockSize, AdaptiveOffset)

	return &Result{
		Gray:              gray,
		Equalized:         equalized,
		Blurred:           blurred,
		Edges:             edges,
		AdaptiveThreshold: adaptive,
	}, nil
}

// Normalize reduces buf to a single channel. A two-dimensional buffer is
// copied unchanged; 3- and 4-channel buffers go through luminance conversion
// after any alpha channel is dropped.
func Normalize(buf *imaging.Buffer) (*image.Gray, error) {
	if buf.Is2D() {
		return buf.Gray()
	}
	switch buf.Channels() {
	case 3, 4:
		rgb, err := buf.RGB()
		if err != nil {
			return nil, err
		}
		return cv.Grayscale(rgb), nil
	default:
		return nil, fmt.Errorf("%w: shape %v", imaging.ErrUnsupportedLayout, buf.Shape)
	}
}
