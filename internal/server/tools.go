package server

import "github.com/ironsheep/oct-analysis-mcp/internal/pipeline"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file (PNG or JPEG)",
	}
}

func thresholdProperty(which string, def int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": which + " hysteresis threshold for Canny edge detection (0-255)",
		"default":     def,
		"minimum":     0,
		"maximum":     255,
	}
}

func previewWidthProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Width in pixels of the returned stage previews (aspect ratio kept, never upscaled). 0 returns full size, -1 omits previews. Default 200",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its metadata table: Width, Height, Format and Channels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_process",
			Description: "Run the filter pipeline (grayscale, histogram equalization, 5x5 Gaussian blur, Canny edges, adaptive threshold) on an image. Returns the metadata, the thresholds used and a PNG preview plus statistics for each stage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"threshold1":    thresholdProperty("Lower", pipeline.DefaultLow),
					"threshold2":    thresholdProperty("Upper", pipeline.DefaultHigh),
					"preview_width": previewWidthProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_batch",
			Description: "Process several images one after another. Returns batch totals (image count, average width/height/channels, formats) and a per-image entry. A failing image is reported in its entry and does not stop the batch.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the images, processed in order",
					},
					"thresholds": map[string]interface{}{
						"type":        "object",
						"description": "Per-image thresholds keyed by file name, e.g. {\"scan1.png\": {\"threshold1\": 30, \"threshold2\": 100}}",
						"additionalProperties": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"threshold1": map[string]interface{}{"type": "integer"},
								"threshold2": map[string]interface{}{"type": "integer"},
							},
						},
					},
					"default_threshold1": thresholdProperty("Default lower", pipeline.DefaultLow),
					"default_threshold2": thresholdProperty("Default upper", pipeline.DefaultHigh),
					"preview_width":      previewWidthProperty(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "image_export",
			Description: "Run the pipeline and save one stage (the edges by default) as PNG named processed_<original file name>. Returns the saved path and the file bytes as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"threshold1": thresholdProperty("Lower", pipeline.DefaultLow),
					"threshold2": thresholdProperty("Upper", pipeline.DefaultHigh),
					"stage": map[string]interface{}{
						"type":        "string",
						"enum":        pipeline.StageNames(),
						"description": "Stage to save. Default edges",
						"default":     pipeline.StageEdges,
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to write into. Defaults to the server's configured output directory",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_stages",
			Description: "List the pipeline stages in the order they are produced.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
