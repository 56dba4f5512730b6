package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/patch-tools-mcp/internal/mirror"
	"github.com/ironsheep/patch-tools-mcp/internal/raster"
	"github.com/ironsheep/patch-tools-mcp/internal/window"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "window_extract").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	entry := s.log.WithFields(logrus.Fields{
		"tool":     params.Name,
		"duration": time.Since(start),
	})
	if err != nil {
		entry.WithError(err).Debug("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	entry.Debug("tool completed")

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
//  3. Loads rasters from the cache as needed
//  4. Calls the appropriate mirror/window function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "raster_load":
		return s.handleRasterLoad(args)
	case "mirror_map":
		return s.handleMirrorMap(args)
	case "window_extract":
		return s.handleWindowExtract(args)
	case "window_extract_channels":
		return s.handleWindowExtractChannels(args)
	case "window_features":
		return s.handleWindowFeatures(args)
	case "window_preview":
		return s.handleWindowPreview(args)
	case "window_features_region":
		return s.handleWindowFeaturesRegion(args)
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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Raster Information Handlers ===

type rasterLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleRasterLoad(args json.RawMessage) (interface{}, error) {
	var a rasterLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return raster.LoadInfo(s.cache, a.Path)
}

// === Boundary Mapping Handlers ===

type mirrorMapArgs struct {
	Coord     int `json:"coord"`
	Dimension int `json:"dimension"`
}

type mirrorMapResult struct {
	Coord     int `json:"coord"`
	Dimension int `json:"dimension"`
	Mapped    int `json:"mapped"`
}

func (s *Server) handleMirrorMap(args json.RawMessage) (interface{}, error) {
	var a mirrorMapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mapped, err := mirror.Map(a.Coord, a.Dimension)
	if err != nil {
		return nil, err
	}
	return &mirrorMapResult{Coord: a.Coord, Dimension: a.Dimension, Mapped: mapped}, nil
}

// === Window Handlers ===

type windowArgs struct {
	Path       string `json:"path"`
	Channel    string `json:"channel"`
	WindowSize int    `json:"window_size"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
}

type windowResult struct {
	Channel raster.Channel    `json:"channel"`
	Size    int               `json:"size"`
	Center  raster.Coordinate `json:"center"`
	Samples [][]float64       `json:"samples"`
}

func newWindowResult(ch raster.Channel, w *window.Window) windowResult {
	return windowResult{
		Channel: ch,
		Size:    w.Size(),
		Center:  w.Center(),
		Samples: w.Rows(),
	}
}

// checkWindowSize rejects window sizes above the configured limit. Other
// invalid sizes are left to the window package.
func (s *Server) checkWindowSize(size int) error {
	if size > s.cfg.MaxWindowSize {
		return fmt.Errorf("%w: %d exceeds limit %d", window.ErrInvalidWindowSize, size, s.cfg.MaxWindowSize)
	}
	return nil
}

// loadRaster resolves the channel name and fetches the raster from the cache.
func (s *Server) loadRaster(path, channel string) (raster.Channel, *raster.Raster, error) {
	ch, err := raster.ParseChannel(channel)
	if err != nil {
		return "", nil, err
	}
	r, err := s.cache.Raster(path, ch)
	if err != nil {
		return "", nil, err
	}
	return ch, r, nil
}

// extractWindow decodes windowArgs and extracts the requested window.
func (s *Server) extractWindow(args json.RawMessage, extra interface{}) (raster.Channel, *window.Window, error) {
	var a windowArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", nil, err
	}
	if extra != nil {
		if err := json.Unmarshal(args, extra); err != nil {
			return "", nil, err
		}
	}
	if err := s.checkWindowSize(a.WindowSize); err != nil {
		return "", nil, err
	}
	ch, r, err := s.loadRaster(a.Path, a.Channel)
	if err != nil {
		return "", nil, err
	}
	w, err := window.Extract(r, a.WindowSize, raster.Coordinate{Row: a.Row, Col: a.Col})
	if err != nil {
		return "", nil, err
	}
	return ch, w, nil
}

func (s *Server) handleWindowExtract(args json.RawMessage) (interface{}, error) {
	ch, w, err := s.extractWindow(args, nil)
	if err != nil {
		return nil, err
	}
	return newWindowResult(ch, w), nil
}

type windowChannelsArgs struct {
	Path       string   `json:"path"`
	Channels   []string `json:"channels"`
	WindowSize int      `json:"window_size"`
	Row        int      `json:"row"`
	Col        int      `json:"col"`
}

type windowChannelsResult struct {
	Size    int               `json:"size"`
	Center  raster.Coordinate `json:"center"`
	Windows []windowResult    `json:"windows"`
}

func (s *Server) handleWindowExtractChannels(args json.RawMessage) (interface{}, error) {
	var a windowChannelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := s.checkWindowSize(a.WindowSize); err != nil {
		return nil, err
	}
	if len(a.Channels) == 0 {
		a.Channels = []string{string(raster.Red), string(raster.Green), string(raster.Blue)}
	}

	channels := make([]raster.Channel, len(a.Channels))
	planes := make([]*raster.Raster, len(a.Channels))
	for i, name := range a.Channels {
		ch, r, err := s.loadRaster(a.Path, name)
		if err != nil {
			return nil, err
		}
		channels[i] = ch
		planes[i] = r
	}

	center := raster.Coordinate{Row: a.Row, Col: a.Col}
	windows, err := window.ExtractChannels(planes, a.WindowSize, center)
	if err != nil {
		return nil, err
	}

	result := &windowChannelsResult{
		Size:    a.WindowSize,
		Center:  center,
		Windows: make([]windowResult, len(windows)),
	}
	for i, w := range windows {
		result.Windows[i] = newWindowResult(channels[i], w)
	}
	return result, nil
}

type windowFeaturesResult struct {
	Channel  raster.Channel       `json:"channel"`
	Size     int                  `json:"size"`
	Center   raster.Coordinate    `json:"center"`
	Features window.FeatureResult `json:"features"`
}

func (s *Server) handleWindowFeatures(args json.RawMessage) (interface{}, error) {
	ch, w, err := s.extractWindow(args, nil)
	if err != nil {
		return nil, err
	}
	return &windowFeaturesResult{
		Channel:  ch,
		Size:     w.Size(),
		Center:   w.Center(),
		Features: window.Features(w),
	}, nil
}

type windowPreviewArgs struct {
	Scale int `json:"scale"`
}

func (s *Server) handleWindowPreview(args json.RawMessage) (interface{}, error) {
	var p windowPreviewArgs
	_, w, err := s.extractWindow(args, &p)
	if err != nil {
		return nil, err
	}
	return window.Preview(w, p.Scale)
}

type windowRegionArgs struct {
	Path       string `json:"path"`
	Channel    string `json:"channel"`
	WindowSize int    `json:"window_size"`
	Row1       int    `json:"row1"`
	Col1       int    `json:"col1"`
	Row2       int    `json:"row2"`
	Col2       int    `json:"col2"`
}

type centreFeatures struct {
	Row      int                  `json:"row"`
	Col      int                  `json:"col"`
	Features window.FeatureResult `json:"features"`
}

type windowRegionResult struct {
	Channel raster.Channel   `json:"channel"`
	Size    int              `json:"size"`
	Region  raster.Region    `json:"region"`
	Count   int              `json:"count"`
	Centres []centreFeatures `json:"centres"`
}

func (s *Server) handleWindowFeaturesRegion(args json.RawMessage) (interface{}, error) {
	var a windowRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	region := raster.Region{Row1: a.Row1, Col1: a.Col1, Row2: a.Row2, Col2: a.Col2}
	if n := region.Len(); n > s.cfg.MaxRegion {
		return nil, fmt.Errorf("region covers %d centres, limit is %d", n, s.cfg.MaxRegion)
	}
	if err := s.checkWindowSize(a.WindowSize); err != nil {
		return nil, err
	}

	ch, r, err := s.loadRaster(a.Path, a.Channel)
	if err != nil {
		return nil, err
	}

	centres, err := window.MapRegion(context.Background(), r, a.WindowSize, region, s.cfg.Workers,
		func(w *window.Window) centreFeatures {
			c := w.Center()
			return centreFeatures{Row: c.Row, Col: c.Col, Features: window.Features(w)}
		})
	if err != nil {
		return nil, err
	}

	return &windowRegionResult{
		Channel: ch,
		Size:    a.WindowSize,
		Region:  region,
		Count:   len(centres),
		Centres: centres,
	}, nil
}
