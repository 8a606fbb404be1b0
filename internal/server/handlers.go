package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/oct-analysis-mcp/internal/analysis"
	"github.com/ironsheep/oct-analysis-mcp/internal/cv"
	"github.com/ironsheep/oct-analysis-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "image_process").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Uploads decoded during the call are dropped from the cache when it returns.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	defer s.cache.Clear()

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Calls the analysis service
//  4. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_process":
		return s.handleImageProcess(args)
	case "image_batch":
		return s.handleImageBatch(args)
	case "image_export":
		return s.handleImageExport(args)
	case "image_stages":
		return s.handleImageStages(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating absent arguments as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// thresholdArgs are the optional Canny bounds shared by several tools.
// Pointers distinguish "not given" from an explicit 0.
type thresholdArgs struct {
	Threshold1 *int `json:"threshold1"`
	Threshold2 *int `json:"threshold2"`
}

func (a thresholdArgs) resolve(def pipeline.Thresholds) pipeline.Thresholds {
	t := def
	if a.Threshold1 != nil {
		t.Low = *a.Threshold1
	}
	if a.Threshold2 != nil {
		t.High = *a.Threshold2
	}
	return t
}

func (s *Server) previewWidth(w *int) int {
	if w == nil {
		return s.analysis.Config().PreviewWidth
	}
	if *w < 0 {
		return analysis.NoPreviews
	}
	return *w
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.analysis.Inspect(a.Path)
}

// === Pipeline ===

type imageProcessArgs struct {
	Path string `json:"path"`
	thresholdArgs
	PreviewWidth *int `json:"preview_width"`
}

func (s *Server) handleImageProcess(args json.RawMessage) (interface{}, error) {
	var a imageProcessArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	t := a.resolve(pipeline.DefaultThresholds())
	return s.analysis.Process(a.Path, t, s.previewWidth(a.PreviewWidth))
}

type imageBatchArgs struct {
	Paths             []string                 `json:"paths"`
	Thresholds        map[string]thresholdArgs `json:"thresholds"`
	DefaultThreshold1 *int                     `json:"default_threshold1"`
	DefaultThreshold2 *int                     `json:"default_threshold2"`
	PreviewWidth      *int                     `json:"preview_width"`
}

func (s *Server) handleImageBatch(args json.RawMessage) (interface{}, error) {
	var a imageBatchArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must contain at least one image")
	}

	settings := pipeline.NewSettings()
	settings.Default = thresholdArgs{
		Threshold1: a.DefaultThreshold1,
		Threshold2: a.DefaultThreshold2,
	}.resolve(pipeline.DefaultThresholds())
	for name, t := range a.Thresholds {
		settings.Set(name, t.resolve(settings.Default))
	}

	return s.analysis.Batch(a.Paths, settings, s.previewWidth(a.PreviewWidth)), nil
}

// === Export ===

type imageExportArgs struct {
	Path string `json:"path"`
	thresholdArgs
	Stage     string `json:"stage"`
	OutputDir string `json:"output_dir"`
}

// ExportResult is the tool result of image_export.
type ExportResult struct {
	Path        string `json:"path"`
	FileName    string `json:"file_name"`
	SizeBytes   int    `json:"size_bytes"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleImageExport(args json.RawMessage) (interface{}, error) {
	var a imageExportArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	exp, err := s.analysis.Export(a.Path, a.resolve(pipeline.DefaultThresholds()), a.Stage, a.OutputDir)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Path:        exp.Path,
		FileName:    exp.FileName,
		SizeBytes:   len(exp.Data),
		ImageBase64: base64.StdEncoding.EncodeToString(exp.Data),
		MimeType:    exp.MimeType,
	}, nil
}

// === Pipeline description ===

type imageStagesResult struct {
	Stages  []string `json:"stages"`
	Backend string   `json:"backend"`
}

func (s *Server) handleImageStages(args json.RawMessage) (interface{}, error) {
	return &imageStagesResult{
		Stages:  pipeline.StageNames(),
		Backend: cv.Backend(),
	}, nil
}
