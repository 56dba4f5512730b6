// Package server implements the MCP (Model Context Protocol) server for
// mirror-boundary patch extraction.
//
// This package provides a JSON-RPC 2.0 server that exposes raster loading,
// boundary mapping and window extraction through the MCP protocol, so an MCP
// client can inspect exactly the patches a patch-based classifier would be
// fed.
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
// Raster Information:
//   - raster_load: Load image and list dimensions and channels
//
// Boundary Mapping:
//   - mirror_map: Reflect a coordinate into [0, dimension)
//
// Window Extraction:
//   - window_extract: Samples of one window
//   - window_extract_channels: One window across several planes
//   - window_features: Mean, variance, std dev, min, max of one window
//   - window_preview: One window rendered as PNG
//   - window_features_region: Features for every centre in a region
//
// # Raster Caching
//
// Decoded images and the per-channel rasters built from them are cached by
// path for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.Config{Workers: 4})
//	if err := srv.Run(); err != nil {
//	    logrus.Fatal(err)
//	}
package server
