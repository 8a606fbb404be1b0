// Package imaging turns uploaded image files into sample buffers and back.
//
// It covers everything around the filter pipeline that touches pixels or files:
//   - Decoding uploads (PNG, JPEG) and caching them by path
//   - The Buffer type: 8-bit samples shaped (height, width) or (height, width, channels)
//   - The four-row metadata table and the batch aggregate built from it
//   - Display previews and the save-then-read-back PNG export
//
// # Buffers
//
// A Buffer mirrors the array a decoder hands to a vision library: row-major,
// interleaved channels, straight (non-premultiplied) alpha. Its origin is always
// (0, 0). Only (h, w), (h, w, 3) and (h, w, 4) are accepted by the pipeline;
// other shapes can be built with NewBuffer so they can be rejected explicitly.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. BatchAggregate is not;
// batches are accumulated on a single goroutine.
//
// # Error Handling
//
// Decode failures wrap ErrDecode. Shape problems wrap ErrInvalidBuffer or
// ErrUnsupportedLayout. File errors during export are returned as-is, wrapped
// with the step that failed.
package imaging
