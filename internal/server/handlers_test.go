package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/oct-analysis-mcp/internal/analysis"
	"github.com/ironsheep/oct-analysis-mcp/internal/config"
	"github.com/ironsheep/oct-analysis-mcp/internal/logger"
	"github.com/ironsheep/oct-analysis-mcp/internal/pipeline"
)

// createTestImageFile creates a test image file with a bright horizontal band
// and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{240, 240, 240, 255})
			} else {
				img.Set(x, y, c)
			}
		}
	}

	tmpFile, err := os.CreateTemp("", "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// callTool sends a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unpacks the text content of a successful tool response
// into v.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v (%v)", resp.Error.Message, resp.Error.Data)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content should hold one entry, got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("tool result is not JSON: %v\n%s", err, text)
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})
	defer os.Remove(imgPath)

	resp := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath})

	var report analysis.ImageReport
	decodeToolResult(t, resp, &report)

	if report.Name != filepath.Base(imgPath) {
		t.Errorf("Name: got %s", report.Name)
	}

	want := []struct{ property, value string }{
		{"Width", "100"},
		{"Height", "80"},
		{"Format", "PNG"},
		{"Channels", "3"},
	}
	if len(report.Metadata) != len(want) {
		t.Fatalf("expected %d metadata rows, got %d", len(want), len(report.Metadata))
	}
	for i, w := range want {
		if report.Metadata[i].Property != w.property || report.Metadata[i].Value != w.value {
			t.Errorf("row %d: got %+v, want %s=%s", i, report.Metadata[i], w.property, w.value)
		}
	}
}

func TestHandleToolsCall_ReloadsReplacedFile(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 100, 50, color.RGBA{0, 0, 0, 255})
	defer os.Remove(imgPath)

	var first analysis.ImageReport
	decodeToolResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &first)

	if s.cache.Len() != 0 {
		t.Errorf("cache should be empty after the call, holds %d", s.cache.Len())
	}

	replacement := createTestImageFile(t, 300, 20, color.RGBA{0, 0, 0, 255})
	defer os.Remove(replacement)
	data, err := os.ReadFile(replacement)
	if err != nil {
		t.Fatalf("failed to read replacement: %v", err)
	}
	if err := os.WriteFile(imgPath, data, 0o644); err != nil {
		t.Fatalf("failed to overwrite image: %v", err)
	}

	var second analysis.ImageReport
	decodeToolResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &second)

	if first.Metadata.Get("Width") != "100" {
		t.Errorf("first width: got %s, want 100", first.Metadata.Get("Width"))
	}
	if second.Metadata.Get("Width") != "300" || second.Metadata.Get("Height") != "20" {
		t.Errorf("second size: got %sx%s, want 300x20", second.Metadata.Get("Width"), second.Metadata.Get("Height"))
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New()

	resp := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})

	if resp.Error == nil {
		t.Fatal("Expected error for non-existent file")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidImage(t *testing.T) {
	s := New()
	tmp := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(tmp, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	for _, tool := range []string{"image_load", "image_process", "image_export"} {
		t.Run(tool, func(t *testing.T) {
			resp := callTool(t, s, tool, map[string]interface{}{"path": tmp})
			if resp.Error == nil {
				t.Error("Expected error for undecodable image")
			}
		})
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New()

	resp := callTool(t, s, "nonexistent_tool", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_MissingArguments(t *testing.T) {
	s := New()

	tests := []struct {
		tool string
		args interface{}
	}{
		{"image_load", map[string]interface{}{}},
		{"image_process", nil},
		{"image_export", map[string]interface{}{"stage": "edges"}},
		{"image_batch", map[string]interface{}{"paths": []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args)
			if resp.Error == nil {
				t.Error("Expected error for missing required argument")
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid json}`),
	}

	resp := s.handleToolsCall(req)

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_ImageProcess(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 120, 90, color.RGBA{30, 30, 30, 255})
	defer os.Remove(imgPath)

	resp := callTool(t, s, "image_process", map[string]interface{}{
		"path":          imgPath,
		"threshold1":    30,
		"threshold2":    100,
		"preview_width": 60,
	})

	var report analysis.ProcessReport
	decodeToolResult(t, resp, &report)

	if report.Thresholds != (pipeline.Thresholds{Low: 30, High: 100}) {
		t.Errorf("Thresholds: got %v", report.Thresholds)
	}
	if report.Metadata.Get("Width") != "120" {
		t.Errorf("metadata width: got %s", report.Metadata.Get("Width"))
	}
	if len(report.Stages) != 5 {
		t.Fatalf("expected 5 stages, got %d", len(report.Stages))
	}
	for _, st := range report.Stages {
		if st.Preview == nil {
			t.Fatalf("%s: missing preview", st.Name)
		}
		if st.Preview.Width != 60 {
			t.Errorf("%s: preview width %d, want 60", st.Name, st.Preview.Width)
		}
		if _, err := base64.StdEncoding.DecodeString(st.Preview.ImageBase64); err != nil {
			t.Errorf("%s: preview is not base64: %v", st.Name, err)
		}
	}
	if report.Stages[3].Stats.NonZero == 0 {
		t.Error("expected edge pixels around the band")
	}
}

func TestHandleToolsCall_ImageProcess_Defaults(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 300, 100, color.RGBA{0, 0, 0, 255})
	defer os.Remove(imgPath)

	resp := callTool(t, s, "image_process", map[string]interface{}{"path": imgPath})

	var report analysis.ProcessReport
	decodeToolResult(t, resp, &report)

	if report.Thresholds != pipeline.DefaultThresholds() {
		t.Errorf("Thresholds: got %v, want defaults", report.Thresholds)
	}
	// Previews default to the configured width
	if report.Stages[0].Preview == nil || report.Stages[0].Preview.Width != config.DefaultPreviewWidth {
		t.Errorf("default preview: got %+v", report.Stages[0].Preview)
	}
}

func TestHandleToolsCall_ImageProcess_Clamped(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 20, 20, color.RGBA{0, 0, 0, 255})
	defer os.Remove(imgPath)

	resp := callTool(t, s, "image_process", map[string]interface{}{
		"path":          imgPath,
		"threshold1":    -40,
		"threshold2":    999,
		"preview_width": -1,
	})

	var report analysis.ProcessReport
	decodeToolResult(t, resp, &report)

	if report.Thresholds != (pipeline.Thresholds{Low: 0, High: 255}) {
		t.Errorf("Thresholds: got %v, want (0,255)", report.Thresholds)
	}
	if report.InRange {
		t.Error("in_range should be false for (-40,999)")
	}
	if report.Stages[0].Preview != nil {
		t.Error("preview_width -1 should omit previews")
	}
}

func TestHandleToolsCall_ImageBatch(t *testing.T) {
	s := New()
	good := createTestImageFile(t, 100, 200, color.RGBA{20, 20, 20, 255})
	defer os.Remove(good)
	other := createTestImageFile(t, 300, 134, color.RGBA{20, 20, 20, 255})
	defer os.Remove(other)

	resp := callTool(t, s, "image_batch", map[string]interface{}{
		"paths": []string{good, "/nonexistent/scan.png", other},
		"thresholds": map[string]interface{}{
			filepath.Base(good): map[string]interface{}{"threshold1": 10},
		},
		"default_threshold2": 120,
		"preview_width":      -1,
	})

	var report analysis.BatchReport
	decodeToolResult(t, resp, &report)

	if len(report.Images) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(report.Images))
	}
	if report.Failed != 1 || report.Images[1].Error == "" {
		t.Errorf("missing file should fail alone: failed=%d entry=%+v", report.Failed, report.Images[1])
	}
	if report.Summary.TotalImages != 2 || report.Summary.AvgWidth != 200 || report.Summary.AvgHeight != 167 {
		t.Errorf("summary: got %+v", report.Summary)
	}

	// Per-image entries fill in from the batch defaults
	if got := report.Images[0].Thresholds; got != (pipeline.Thresholds{Low: 10, High: 120}) {
		t.Errorf("per-image thresholds: got %v, want (10,120)", got)
	}
	if got := report.Images[2].Thresholds; got != (pipeline.Thresholds{Low: 50, High: 120}) {
		t.Errorf("default thresholds: got %v, want (50,120)", got)
	}
}

func TestHandleToolsCall_ImageExport(t *testing.T) {
	outDir := t.TempDir()
	cfg := config.Default()
	cfg.OutputDir = outDir
	s := NewWithConfig(cfg, logger.Nop())

	imgPath := createTestImageFile(t, 64, 48, color.RGBA{10, 10, 10, 255})
	defer os.Remove(imgPath)

	resp := callTool(t, s, "image_export", map[string]interface{}{"path": imgPath})

	var result ExportResult
	decodeToolResult(t, resp, &result)

	wantName := "processed_" + filepath.Base(imgPath)
	if result.FileName != wantName {
		t.Errorf("FileName: got %s, want %s", result.FileName, wantName)
	}
	if result.Path != filepath.Join(outDir, wantName) {
		t.Errorf("Path: got %s", result.Path)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s", result.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	if len(data) != result.SizeBytes {
		t.Errorf("SizeBytes: got %d, decoded %d", result.SizeBytes, len(data))
	}
	onDisk, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if !bytes.Equal(onDisk, data) {
		t.Error("returned bytes differ from the saved file")
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("export is not PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 48 {
		t.Errorf("export size: got %v", decoded.Bounds())
	}
}

func TestHandleToolsCall_ImageExport_UnknownStage(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 16, 16, color.RGBA{0, 0, 0, 255})
	defer os.Remove(imgPath)

	resp := callTool(t, s, "image_export", map[string]interface{}{
		"path":       imgPath,
		"stage":      "sharpened",
		"output_dir": t.TempDir(),
	})

	if resp.Error == nil {
		t.Fatal("Expected error for unknown stage")
	}
}

func TestHandleToolsCall_ImageStages(t *testing.T) {
	s := New()

	resp := callTool(t, s, "image_stages", nil)

	var result imageStagesResult
	decodeToolResult(t, resp, &result)

	want := pipeline.StageNames()
	if len(result.Stages) != len(want) {
		t.Fatalf("stages: got %v, want %v", result.Stages, want)
	}
	for i := range want {
		if result.Stages[i] != want[i] {
			t.Errorf("stage %d: got %s, want %s", i, result.Stages[i], want[i])
		}
	}
	if result.Backend == "" {
		t.Error("backend should be reported")
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 40, 40, color.RGBA{50, 50, 50, 255})
	defer os.Remove(imgPath)

	tests := []struct {
		tool string
		args string
	}{
		{"image_load", `{"path":"` + imgPath + `"}`},
		{"image_process", `{"path":"` + imgPath + `","preview_width":-1}`},
		{"image_batch", `{"paths":["` + imgPath + `"],"preview_width":-1}`},
		{"image_export", `{"path":"` + imgPath + `","output_dir":"` + t.TempDir() + `"}`},
		{"image_stages", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			result, err := s.executeTool(tt.tool, json.RawMessage(tt.args))
			if err != nil {
				t.Fatalf("executeTool failed: %v", err)
			}
			if result == nil {
				t.Error("executeTool returned nil result")
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New()
	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New()
	_, err := s.executeTool("image_load", json.RawMessage(`{invalid}`))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
