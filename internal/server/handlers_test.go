package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/patch-tools-mcp/internal/window"
)

// createTestImageFile writes a width x height PNG filled with c and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, img)
}

// createRampImageFile writes a 4x4 PNG whose red value at (row, col) is
// (row*4+col)*10, so red samples are the raster 0..15 scaled by 10/255.
func createRampImageFile(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{uint8((y*4 + x) * 10), 0, 200, 255})
		}
	}
	return writePNG(t, img)
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tile.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request and returns the raw response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// callToolInto calls a tool that must succeed and decodes its text result into out.
func callToolInto(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %+v", name, resp.Error)
	}
	if err := json.Unmarshal([]byte(toolText(t, resp.Result)), out); err != nil {
		t.Fatalf("%s: failed to parse result: %v", name, err)
	}
}

// expectToolError calls a tool that must fail with -32000 and returns the error data.
func expectToolError(t *testing.T, s *Server, name string, args map[string]interface{}) string {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s: expected error, got result %+v", name, resp.Result)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("%s: error code: got %d, want -32000", name, resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	return data
}

func TestHandleToolsCall_RasterLoad(t *testing.T) {
	s := newTestServer(Config{})
	path := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width         int      `json:"width"`
		Height        int      `json:"height"`
		Format        string   `json:"format"`
		Channels      []string `json:"channels"`
		FileSizeBytes int64    `json:"file_size_bytes"`
	}
	callToolInto(t, s, "raster_load", map[string]interface{}{"path": path}, &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s, want png", info.Format)
	}
	if len(info.Channels) == 0 {
		t.Error("channels should not be empty")
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("file_size_bytes: got %d", info.FileSizeBytes)
	}
}

func TestHandleToolsCall_RasterLoad_NonExistent(t *testing.T) {
	s := newTestServer(Config{})
	data := expectToolError(t, s, "raster_load", map[string]interface{}{"path": "/nonexistent/tile.png"})
	if !strings.Contains(data, "failed to open image") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_MirrorMap(t *testing.T) {
	s := newTestServer(Config{})

	tests := []struct {
		coord, dim, want int
	}{
		{2, 5, 2},
		{-1, 5, 1},
		{5, 5, 3},
		{8, 5, 0},
		{-7, 1, 0},
	}

	for _, tt := range tests {
		var got mirrorMapResult
		callToolInto(t, s, "mirror_map", map[string]interface{}{
			"coord":     tt.coord,
			"dimension": tt.dim,
		}, &got)
		if got.Mapped != tt.want {
			t.Errorf("mirror_map(%d, %d): got %d, want %d", tt.coord, tt.dim, got.Mapped, tt.want)
		}
		if got.Coord != tt.coord || got.Dimension != tt.dim {
			t.Errorf("mirror_map echoed %+v", got)
		}
	}
}

func TestHandleToolsCall_MirrorMap_InvalidDimension(t *testing.T) {
	s := newTestServer(Config{})
	data := expectToolError(t, s, "mirror_map", map[string]interface{}{"coord": 1, "dimension": 0})
	if !strings.Contains(data, "invalid dimension") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_WindowExtract_Corner(t *testing.T) {
	s := newTestServer(Config{})
	path := createRampImageFile(t)

	var got windowResult
	callToolInto(t, s, "window_extract", map[string]interface{}{
		"path":        path,
		"channel":     "red",
		"window_size": 3,
		"row":         0,
		"col":         0,
	}, &got)

	if got.Size != 3 || len(got.Samples) != 3 {
		t.Fatalf("size: got %d with %d rows, want 3", got.Size, len(got.Samples))
	}
	if got.Channel != "red" {
		t.Errorf("channel: got %s, want red", got.Channel)
	}

	// Raster values 0..15 row-major; the corner window mirrors row 1 and col 1.
	want := [][]float64{
		{5, 4, 5},
		{1, 0, 1},
		{5, 4, 5},
	}
	for i := range want {
		if len(got.Samples[i]) != 3 {
			t.Fatalf("row %d has %d samples", i, len(got.Samples[i]))
		}
		for j := range want[i] {
			if w := want[i][j] * 10 / 255; got.Samples[i][j] != w {
				t.Errorf("samples[%d][%d]: got %v, want %v", i, j, got.Samples[i][j], w)
			}
		}
	}
}

func TestHandleToolsCall_WindowExtract_DefaultChannel(t *testing.T) {
	s := newTestServer(Config{})
	path := createTestImageFile(t, 5, 5, color.White)

	var got windowResult
	callToolInto(t, s, "window_extract", map[string]interface{}{
		"path":        path,
		"window_size": 1,
		"row":         2,
		"col":         2,
	}, &got)

	if got.Channel != "gray" {
		t.Errorf("channel: got %s, want gray", got.Channel)
	}
	if got.Samples[0][0] != 1 {
		t.Errorf("white sample: got %v, want 1", got.Samples[0][0])
	}
}

func TestHandleToolsCall_WindowExtract_Errors(t *testing.T) {
	s := newTestServer(Config{})
	path := createTestImageFile(t, 6, 4, color.Black)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"even size", map[string]interface{}{"path": path, "window_size": 4, "row": 1, "col": 1}, "window size"},
		{"negative size", map[string]interface{}{"path": path, "window_size": -1, "row": 1, "col": 1}, "window size"},
		{"row past end", map[string]interface{}{"path": path, "window_size": 3, "row": 4, "col": 1}, "outside raster"},
		{"col past end", map[string]interface{}{"path": path, "window_size": 3, "row": 1, "col": 6}, "outside raster"},
		{"unknown channel", map[string]interface{}{"path": path, "channel": "nir", "window_size": 3, "row": 1, "col": 1}, "unknown channel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := expectToolError(t, s, "window_extract", tt.args)
			if !strings.Contains(data, tt.want) {
				t.Errorf("error data: got %q, want it to contain %q", data, tt.want)
			}
		})
	}
}

func TestHandleToolsCall_WindowExtractChannels(t *testing.T) {
	s := newTestServer(Config{})
	path := createTestImageFile(t, 8, 8, color.RGBA{255, 0, 255, 255})

	var got windowChannelsResult
	callToolInto(t, s, "window_extract_channels", map[string]interface{}{
		"path":        path,
		"window_size": 3,
		"row":         7,
		"col":         7,
	}, &got)

	if len(got.Windows) != 3 {
		t.Fatalf("got %d windows, want 3 (red, green, blue)", len(got.Windows))
	}
	wantValue := map[string]float64{"red": 1, "green": 0, "blue": 1}
	for i, name := range []string{"red", "green", "blue"} {
		w := got.Windows[i]
		if string(w.Channel) != name {
			t.Errorf("window %d: channel %s, want %s", i, w.Channel, name)
		}
		if w.Samples[0][0] != wantValue[name] {
			t.Errorf("%s sample: got %v, want %v", name, w.Samples[0][0], wantValue[name])
		}
	}
}

func TestHandleToolsCall_WindowExtractChannels_Explicit(t *testing.T) {
	s := newTestServer(Config{})
	path := createTestImageFile(t, 4, 4, color.RGBA{0, 0, 0, 255})

	var got windowChannelsResult
	callToolInto(t, s, "window_extract_channels", map[string]interface{}{
		"path":        path,
		"channels":    []string{"alpha", "gray"},
		"window_size": 1,
		"row":         0,
		"col":         0,
	}, &got)

	if len(got.Windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(got.Windows))
	}
	if got.Windows[0].Samples[0][0] != 1 || got.Windows[1].Samples[0][0] != 0 {
		t.Errorf("alpha/gray samples: got %v, %v", got.Windows[0].Samples, got.Windows[1].Samples)
	}

	expectToolError(t, s, "window_extract_channels", map[string]interface{}{
		"path":        path,
		"channels":    []string{"red", "sepia"},
		"window_size": 1,
		"row":         0,
		"col":         0,
	})
}

func TestHandleToolsCall_WindowFeatures(t *testing.T) {
	s := newTestServer(Config{})
	path := createRampImageFile(t)

	var got windowFeaturesResult
	callToolInto(t, s, "window_features", map[string]interface{}{
		"path":        path,
		"channel":     "blue",
		"window_size": 5,
		"row":         1,
		"col":         2,
	}, &got)

	want := 200.0 / 255.0
	if got.Features.Mean != want || got.Features.Min != want || got.Features.Max != want {
		t.Errorf("uniform blue features: got %+v, want all %v", got.Features, want)
	}
	if got.Features.Variance != 0 {
		t.Errorf("variance: got %v, want 0", got.Features.Variance)
	}
	if got.Center.Row != 1 || got.Center.Col != 2 {
		t.Errorf("center: got %+v", got.Center)
	}
}

func TestHandleToolsCall_WindowPreview(t *testing.T) {
	s := newTestServer(Config{})
	path := createRampImageFile(t)

	var got window.PreviewResult
	callToolInto(t, s, "window_preview", map[string]interface{}{
		"path":        path,
		"channel":     "red",
		"window_size": 3,
		"row":         2,
		"col":         2,
		"scale":       4,
	}, &got)

	if got.Width != 12 || got.Height != 12 || got.Scale != 4 {
		t.Errorf("preview: got %dx%d scale %d, want 12x12 scale 4", got.Width, got.Height, got.Scale)
	}
	if got.MimeType != "image/png" {
		t.Errorf("mime type: got %s", got.MimeType)
	}

	raw, err := base64.StdEncoding.DecodeString(got.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
		t.Errorf("decoded bounds: got %v", b)
	}
}

func TestHandleToolsCall_WindowPreview_BadScale(t *testing.T) {
	s := newTestServer(Config{})
	path := createRampImageFile(t)

	data := expectToolError(t, s, "window_preview", map[string]interface{}{
		"path":        path,
		"window_size": 3,
		"row":         0,
		"col":         0,
		"scale":       window.MaxPreviewScale + 1,
	})
	if !strings.Contains(data, "scale") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_WindowFeaturesRegion(t *testing.T) {
	s := newTestServer(Config{Workers: 2})
	path := createRampImageFile(t)

	var got windowRegionResult
	callToolInto(t, s, "window_features_region", map[string]interface{}{
		"path":        path,
		"channel":     "red",
		"window_size": 3,
		"row1":        0,
		"col1":        1,
		"row2":        3,
		"col2":        4,
	}, &got)

	if got.Count != 9 || len(got.Centres) != 9 {
		t.Fatalf("count: got %d (%d centres), want 9", got.Count, len(got.Centres))
	}

	i := 0
	for row := 0; row < 3; row++ {
		for col := 1; col < 4; col++ {
			c := got.Centres[i]
			if c.Row != row || c.Col != col {
				t.Errorf("centre %d: got (%d,%d), want (%d,%d)", i, c.Row, c.Col, row, col)
			}
			i++
		}
	}

	// (0,1) mirrors rows to 1,0,1 over cols 0..2, so raster value 0 is inside.
	if got := got.Centres[0].Features.Min; got != 0 {
		t.Errorf("(0,1) min: got %v, want 0", got)
	}

	// (1,1) covers raster values 0,1,2,4,5,6,8,9,10.
	inner := got.Centres[3].Features
	if want := 50.0 / 255.0; math.Abs(inner.Mean-want) > 1e-9 {
		t.Errorf("(1,1) mean: got %v, want %v", inner.Mean, want)
	}
	if want := 100.0 / 255.0; inner.Max != want {
		t.Errorf("(1,1) max: got %v, want %v", inner.Max, want)
	}
}

func TestHandleToolsCall_WindowFeaturesRegion_Errors(t *testing.T) {
	s := newTestServer(Config{MaxRegion: 4})
	path := createRampImageFile(t)

	data := expectToolError(t, s, "window_features_region", map[string]interface{}{
		"path": path, "window_size": 3, "row1": 0, "col1": 0, "row2": 3, "col2": 3,
	})
	if !strings.Contains(data, "limit is 4") {
		t.Errorf("limit error data: got %q", data)
	}

	data = expectToolError(t, s, "window_features_region", map[string]interface{}{
		"path": path, "window_size": 3, "row1": 2, "col1": 2, "row2": 5, "col2": 3,
	})
	if !strings.Contains(data, "outside raster") {
		t.Errorf("bounds error data: got %q", data)
	}

	data = expectToolError(t, s, "window_features_region", map[string]interface{}{
		"path": path, "window_size": 2, "row1": 0, "col1": 0, "row2": 1, "col2": 1,
	})
	if !strings.Contains(data, "window size") {
		t.Errorf("size error data: got %q", data)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(Config{})
	data := expectToolError(t, s, "image_load", map[string]interface{}{})
	if !strings.Contains(data, "unknown tool") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(Config{})

	for _, params := range []string{`"not an object"`, `[1,2]`} {
		resp := s.handleRequest(&MCPRequest{
			JSONRPC: "2.0",
			ID:      7,
			Method:  "tools/call",
			Params:  json.RawMessage(params),
		})
		if resp == nil || resp.Error == nil {
			t.Fatalf("params %s: expected error", params)
		}
		if resp.Error.Code != -32602 {
			t.Errorf("params %s: code %d, want -32602", params, resp.Error.Code)
		}
	}
}

func TestHandleToolsCall_InvalidArguments(t *testing.T) {
	s := newTestServer(Config{})
	params := json.RawMessage(`{"name":"mirror_map","arguments":{"coord":"left","dimension":3}}`)

	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 8, Method: "tools/call", Params: params})
	if resp == nil || resp.Error == nil {
		t.Fatal("expected error for mistyped arguments")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_RasterIsCached(t *testing.T) {
	s := newTestServer(Config{})
	path := createRampImageFile(t)

	args := map[string]interface{}{"path": path, "channel": "red", "window_size": 1, "row": 3, "col": 3}
	var first windowResult
	callToolInto(t, s, "window_extract", args, &first)

	// The decoded image is served from the cache once the file is gone.
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	var second windowResult
	callToolInto(t, s, "window_extract", args, &second)
	if second.Samples[0][0] != first.Samples[0][0] {
		t.Errorf("cached sample: got %v, want %v", second.Samples[0][0], first.Samples[0][0])
	}
}

func TestHandleToolsCall_WindowSizeLimit(t *testing.T) {
	s := newTestServer(Config{MaxWindowSize: 7})
	path := createRampImageFile(t)

	centre := map[string]interface{}{"path": path, "window_size": 9, "row": 0, "col": 0}
	region := map[string]interface{}{"path": path, "window_size": 9, "row1": 0, "col1": 0, "row2": 1, "col2": 1}

	for _, tc := range []struct {
		tool string
		args map[string]interface{}
	}{
		{"window_extract", centre},
		{"window_extract_channels", centre},
		{"window_features", centre},
		{"window_preview", centre},
		{"window_features_region", region},
	} {
		t.Run(tc.tool, func(t *testing.T) {
			data := expectToolError(t, s, tc.tool, tc.args)
			if !strings.Contains(data, "exceeds limit 7") {
				t.Errorf("error data: got %q", data)
			}
		})
	}

	// The limit itself is accepted.
	var got windowResult
	callToolInto(t, s, "window_extract", map[string]interface{}{
		"path": path, "window_size": 7, "row": 0, "col": 0,
	}, &got)
	if got.Size != 7 || len(got.Samples) != 7 {
		t.Errorf("size: got %d with %d rows, want 7", got.Size, len(got.Samples))
	}
}

func TestServe_OverflowingWindowSize(t *testing.T) {
	// With no server-side cap, a size whose square overflows int must still
	// produce an error response instead of panicking.
	s := newTestServer(Config{MaxWindowSize: math.MaxInt})
	path := createRampImageFile(t)

	pathJSON, _ := json.Marshal(path)
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"window_extract","arguments":{"path":` +
			string(pathJSON) + `,"window_size":3037000501,"row":0,"col":0}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"window_features_region","arguments":{"path":` +
			string(pathJSON) + `,"window_size":3037000501,"row1":0,"col1":0,"row2":1,"col2":1}}}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.serve(strings.NewReader(in), &out); err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	dec := json.NewDecoder(&out)
	for id := 1; id <= 2; id++ {
		var resp MCPResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("response %d: %v", id, err)
		}
		if resp.Error == nil || resp.Error.Code != -32000 {
			t.Fatalf("response %d: want -32000 error, got %+v", id, resp)
		}
		if data, _ := resp.Error.Data.(string); !strings.Contains(data, "window size") {
			t.Errorf("response %d: error data %q", id, data)
		}
	}

	// Same guard with the default cap in place.
	data := expectToolError(t, newTestServer(Config{}), "window_extract", map[string]interface{}{
		"path": path, "window_size": 3037000501, "row": 0, "col": 0,
	})
	if !strings.Contains(data, "exceeds limit") {
		t.Errorf("default cap error data: got %q", data)
	}
}
