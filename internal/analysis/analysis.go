// Package analysis ties decoding, metadata, the filter pipeline and export
// together for one image or a batch of images.
//
// It is the layer a front end talks to: the MCP server calls it with file
// paths and threshold pairs and gets back reports ready to serialize.
package analysis

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/oct-analysis-mcp/internal/config"
	"github.com/ironsheep/oct-analysis-mcp/internal/imaging"
	"github.com/ironsheep/oct-analysis-mcp/internal/pipeline"
)

// NoPreviews passed as a preview width skips preview encoding.
const NoPreviews = -1

// Service runs analyses against a shared image cache.
type Service struct {
	cache *imaging.ImageCache
	cfg   config.Config
	log   zerolog.Logger
}

// New creates a Service. A nil cache gets a fresh one.
func New(cache *imaging.ImageCache, cfg config.Config, log zerolog.Logger) *Service {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &Service{cache: cache, cfg: cfg, log: log.With().Str("component", "analysis").Logger()}
}

// Config returns the configuration the service was built with.
func (s *Service) Config() config.Config { return s.cfg }

// ImageReport is the metadata table of one image.
type ImageReport struct {
	Name     string           `json:"name"`
	Path     string           `json:"path"`
	Metadata imaging.Metadata `json:"metadata"`
}

// StageReport describes one pipeline output.
type StageReport struct {
	Name    string                 `json:"name"`
	Stats   pipeline.StageStats    `json:"stats"`
	Preview *imaging.PreviewResult `json:"preview,omitempty"`
}

// ProcessReport is the outcome of running the pipeline on one image.
type ProcessReport struct {
	ImageReport
	Thresholds pipeline.Thresholds `json:"thresholds"`

	// InRange reports whether the requested pair was within [0, 255] before
	// the threshold policy was applied.
	InRange bool `json:"in_range"`

	Stages []StageReport `json:"stages"`
}

// Thresholds applies the configured threshold policy: clamped to [0, 255]
// when clamping is on, untouched otherwise.
func (s *Service) Thresholds(t pipeline.Thresholds) pipeline.Thresholds {
	if s.cfg.ClampThresholds {
		return t.Clamp()
	}
	return t
}

// load decodes path (through the cache) and builds its sample buffer.
func (s *Service) load(path string) (*imaging.Upload, *imaging.Buffer, error) {
	up, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	buf, err := imaging.BufferFromImage(up.Image)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", up.Name, err)
	}
	return up, buf, nil
}

// Inspect returns the metadata table of the image at path.
func (s *Service) Inspect(path string) (*ImageReport, error) {
	up, buf, err := s.load(path)
	if err != nil {
		return nil, err
	}
	return &ImageReport{
		Name:     up.Name,
		Path:     path,
		Metadata: imaging.ExtractMetadata(up, buf),
	}, nil
}

// Process runs the pipeline on the image at path.
//
// previewWidth controls the stage previews: NoPreviews (or any negative
// value) skips them, 0 keeps the original size, anything else scales down to
// that width.
func (s *Service) Process(path string, t pipeline.Thresholds, previewWidth int) (*ProcessReport, error) {
	start := time.Now()
	up, buf, err := s.load(path)
	if err != nil {
		return nil, err
	}

	inRange := t.InRange()
	t = s.Thresholds(t)
	res, err := pipeline.ProcessWithOptions(buf, t, s.options())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", up.Name, err)
	}

	stages, err := stageReports(res, previewWidth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", up.Name, err)
	}

	md := imaging.ExtractMetadata(up, buf)
	s.log.Debug().
		Str("image", up.Name).
		Str("size", md.Get(imaging.PropertyWidth)+"x"+md.Get(imaging.PropertyHeight)).
		Stringer("thresholds", t).
		Bool("in_range", inRange).
		Dur("elapsed", time.Since(start)).
		Msg("processed image")

	return &ProcessReport{
		ImageReport: ImageReport{
			Name:     up.Name,
			Path:     path,
			Metadata: md,
		},
		Thresholds: t,
		InRange:    inRange,
		Stages:     stages,
	}, nil
}

// Export runs the pipeline on the image at path and saves one stage as
// "processed_<name>" PNG in outputDir, then returns the file as read back.
//
// An empty stage means the edges stage; an empty outputDir means the
// configured output directory.
func (s *Service) Export(path string, t pipeline.Thresholds, stage, outputDir string) (*imaging.Export, error) {
	if stage == "" {
		stage = pipeline.StageEdges
	}
	if outputDir == "" {
		outputDir = s.cfg.OutputDir
	}

	up, buf, err := s.load(path)
	if err != nil {
		return nil, err
	}

	res, err := pipeline.ProcessWithOptions(buf, s.Thresholds(t), s.options())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", up.Name, err)
	}
	img, err := res.Stage(stage)
	if err != nil {
		return nil, err
	}

	exp, err := imaging.ExportPNG(outputDir, up.Name, img)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("image", up.Name).
		Str("stage", stage).
		Str("path", exp.Path).
		Int("bytes", len(exp.Data)).
		Msg("exported stage")

	return exp, nil
}

func (s *Service) options() pipeline.Options {
	return pipeline.Options{AdaptiveMethod: s.cfg.AdaptiveMethod}
}

func stageReports(res *pipeline.Result, previewWidth int) ([]StageReport, error) {
	stages := res.Stages()
	out := make([]StageReport, 0, len(stages))
	for _, st := range stages {
		r := StageReport{Name: st.Name, Stats: pipeline.Stats(st.Image)}
		if previewWidth >= 0 {
			p, err := imaging.Preview(st.Image, previewWidth)
			if err != nil {
				return nil, fmt.Errorf("stage %s: %w", st.Name, err)
			}
			r.Preview = p
		}
		out = append(out, r)
	}
	return out, nil
}

// itemName is the key used for per-item settings: the file's base name.
func itemName(path string) string {
	return filepath.Base(path)
}
