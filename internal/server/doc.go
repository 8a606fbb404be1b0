// Package server implements the MCP (Model Context Protocol) server for the
// image filter pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes image loading,
// filtering and export through the MCP protocol, so an MCP client can upload
// scans, tune edge thresholds per image and fetch the processed output.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Metadata table (Width, Height, Format, Channels)
//   - image_process: Five-stage pipeline with per-stage previews and statistics
//   - image_batch: Sequential batch with totals and per-image results
//   - image_export: Save a stage as processed_<name> PNG and return its bytes
//   - image_stages: Stage names in pipeline order
//
// Threshold arguments (threshold1, threshold2) default to 50 and 150. With
// the default configuration they are clamped to [0, 255]; an inverted pair is
// accepted and handled by the edge detector.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Inside image_batch, per-image failures are not errors of the call; they are
// reported in the failing image's entry.
package server
