package analysis

import (
	"fmt"

	"github.com/ironsheep/oct-analysis-mcp/internal/imaging"
	"github.com/ironsheep/oct-analysis-mcp/internal/pipeline"
)

// BatchEntry is the outcome for one image of a batch. Error is set when any
// step failed; fields filled before the failure are kept.
type BatchEntry struct {
	Name       string              `json:"name"`
	Path       string              `json:"path"`
	Metadata   imaging.Metadata    `json:"metadata,omitempty"`
	Thresholds pipeline.Thresholds `json:"thresholds"`
	InRange    bool                `json:"in_range"`
	Stages     []StageReport       `json:"stages,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// BatchReport is the outcome of a whole batch.
type BatchReport struct {
	// Summary aggregates every image whose metadata could be read, including
	// images that later failed in the pipeline.
	Summary imaging.BatchSummary `json:"summary"`

	// Failed counts entries with an error.
	Failed int `json:"failed"`

	Images []BatchEntry `json:"images"`
}

// Batch processes paths one after another. Each image gets the threshold pair
// settings holds for its file name.
//
// A failing image does not stop the batch: its entry records the error and
// the loop moves on to the next path.
func (s *Service) Batch(paths []string, settings pipeline.Settings, previewWidth int) *BatchReport {
	var agg imaging.BatchAggregate
	report := &BatchReport{Images: make([]BatchEntry, 0, len(paths))}

	for _, path := range paths {
		requested := settings.For(itemName(path))
		entry := BatchEntry{
			Name:       itemName(path),
			Path:       path,
			Thresholds: s.Thresholds(requested),
			InRange:    requested.InRange(),
		}

		if err := s.batchItem(&entry, &agg, previewWidth); err != nil {
			entry.Error = err.Error()
			report.Failed++
			s.log.Warn().Err(err).Str("image", entry.Name).Msg("batch item failed")
		}
		report.Images = append(report.Images, entry)
	}

	report.Summary = agg.Summary()
	s.log.Debug().
		Int("images", len(paths)).
		Int("summarized", agg.Count()).
		Int("failed", report.Failed).
		Msg("batch complete")
	return report
}

func (s *Service) batchItem(entry *BatchEntry, agg *imaging.BatchAggregate, previewWidth int) error {
	up, buf, err := s.load(entry.Path)
	if err != nil {
		return err
	}
	entry.Metadata = imaging.ExtractMetadata(up, buf)
	agg.Add(up, buf)

	res, err := pipeline.ProcessWithOptions(buf, entry.Thresholds, s.options())
	if err != nil {
		return fmt.Errorf("%s: %w", up.Name, err)
	}

	stages, err := stageReports(res, previewWidth)
	if err != nil {
		return fmt.Errorf("%s: %w", up.Name, err)
	}
	entry.Stages = stages
	return nil
}
