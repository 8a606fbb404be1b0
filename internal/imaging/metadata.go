package imaging

import (
	"sort"
	"strconv"
	"strings"
)

// Property names of a Metadata record, in display order.
const (
	PropertyWidth    = "Width"
	PropertyHeight   = "Height"
	PropertyFormat   = "Format"
	PropertyChannels = "Channels"
)

// Property is one row of a metadata table. Values are always strings so a
// tabular display never has to guess a column type.
type Property struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Metadata is the fixed four-row description of one image:
// Width, Height, Format, Channels.
type Metadata []Property

// Get returns the value of the named property, or "" if absent.
func (m Metadata) Get(name string) string {
	for _, p := range m {
		if p.Property == name {
			return p.Value
		}
	}
	return ""
}

// ExtractMetadata describes an upload and its sample buffer.
//
// Width and Height come from the decoded image bounds, Format from the decoder
// label (UnknownFormat when empty) and Channels from the buffer shape, which is
// 1 for two-dimensional buffers.
func ExtractMetadata(up *Upload, buf *Buffer) Metadata {
	bounds := up.Image.Bounds()
	format := up.Format
	if format == "" {
		format = UnknownFormat
	}
	return Metadata{
		{Property: PropertyWidth, Value: strconv.Itoa(bounds.Dx())},
		{Property: PropertyHeight, Value: strconv.Itoa(bounds.Dy())},
		{Property: PropertyFormat, Value: format},
		{Property: PropertyChannels, Value: strconv.Itoa(buf.Channels())},
	}
}

// BatchSummary is the batch-level view shown above the per-image tables.
type BatchSummary struct {
	TotalImages    int      `json:"total_images"`
	AvgWidth       int      `json:"avg_width"`
	AvgHeight      int      `json:"avg_height"`
	AvgChannels    int      `json:"avg_channels"`
	Formats        []string `json:"formats"`
	FormatsDisplay string   `json:"formats_display"`
}

// BatchAggregate accumulates dimensions, channel counts and formats across a
// batch of images. The zero value is ready to use.
//
// BatchAggregate is not safe for concurrent use.
type BatchAggregate struct {
	count         int
	totalWidth    int
	totalHeight   int
	totalChannels int
	formats       map[string]struct{}
}

// Add counts one image. Identical images added twice count twice.
func (a *BatchAggregate) Add(up *Upload, buf *Buffer) {
	bounds := up.Image.Bounds()
	a.add(bounds.Dx(), bounds.Dy(), buf.Channels(), up.Format)
}

func (a *BatchAggregate) add(width, height, channels int, format string) {
	if a.formats == nil {
		a.formats = make(map[string]struct{})
	}
	if format == "" {
		format = UnknownFormat
	}
	a.count++
	a.totalWidth += width
	a.totalHeight += height
	a.totalChannels += channels
	a.formats[format] = struct{}{}
}

// Count returns the number of images added so far.
func (a *BatchAggregate) Count() int { return a.count }

// Summary reports integer-truncated averages and the distinct formats, sorted
// and joined with ", ". An empty aggregate yields zero averages.
func (a *BatchAggregate) Summary() BatchSummary {
	formats := make([]string, 0, len(a.formats))
	for f := range a.formats {
		formats = append(formats, f)
	}
	sort.Strings(formats)

	s := BatchSummary{
		TotalImages:    a.count,
		Formats:        formats,
		FormatsDisplay: strings.Join(formats, ", "),
	}
	if a.count > 0 {
		s.AvgWidth = a.totalWidth / a.count
		s.AvgHeight = a.totalHeight / a.count
		s.AvgChannels = a.totalChannels / a.count
	}
	return s
}
