package server

import "github.com/ironsheep/patch-tools-mcp/internal/raster"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func channelProperty() map[string]interface{} {
	names := make([]string, len(raster.Channels))
	for i, c := range raster.Channels {
		names[i] = string(c)
	}
	return map[string]interface{}{
		"type":        "string",
		"enum":        names,
		"description": "Image plane to sample. Default gray",
		"default":     string(raster.Gray),
	}
}

func windowSizeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Side length of the square window. Must be a positive odd number",
	}
}

func intProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// centreProperties returns the schema shared by all single-window tools.
func centreProperties() map[string]interface{} {
	return map[string]interface{}{
		"path":        pathProperty(),
		"channel":     channelProperty(),
		"window_size": windowSizeProperty(),
		"row":         intProperty("Centre row (0-based, from top). Must lie inside the image"),
		"col":         intProperty("Centre column (0-based, from left). Must lie inside the image"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	centreRequired := []string{"path", "window_size", "row", "col"}

	preview := centreProperties()
	preview["scale"] = map[string]interface{}{
		"type":        "integer",
		"description": "Integer upscale factor for the rendered window (1-64). Default 1",
		"default":     1,
	}

	channels := centreProperties()
	delete(channels, "channel")
	channels["channels"] = map[string]interface{}{
		"type":        "array",
		"items":       channelProperty(),
		"description": "Planes to sample, in output order. Default red, green, blue",
	}

	region := map[string]interface{}{
		"path":        pathProperty(),
		"channel":     channelProperty(),
		"window_size": windowSizeProperty(),
		"row1":        intProperty("Top row of the centre region (inclusive)"),
		"col1":        intProperty("Left column of the centre region (inclusive)"),
		"row2":        intProperty("Bottom row of the centre region (exclusive)"),
		"col2":        intProperty("Right column of the centre region (exclusive)"),
	}

	return []Tool{
		// Raster Information
		{
			Name:        "raster_load",
			Description: "Load an image file and return its dimensions, format and the channels that can be sampled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Boundary Mapping
		{
			Name:        "mirror_map",
			Description: "Map a possibly out-of-range coordinate onto an axis of the given length using mirror boundary conditions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"coord":     intProperty("Coordinate to map. May be negative or past the end"),
					"dimension": intProperty("Axis length. Must be at least 1"),
				},
				"required": []string{"coord", "dimension"},
			},
		},

		// Window Extraction
		{
			Name:        "window_extract",
			Description: "Extract the square window of samples centred on a pixel. Samples beyond the image edge are mirrored back inside.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": centreProperties(),
				"required":   centreRequired,
			},
		},
		{
			Name:        "window_extract_channels",
			Description: "Extract the same window from several image planes at once.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": channels,
				"required":   centreRequired,
			},
		},
		{
			Name:        "window_features",
			Description: "Compute mean, variance, standard deviation, min and max of the window centred on a pixel.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": centreProperties(),
				"required":   centreRequired,
			},
		},
		{
			Name:        "window_preview",
			Description: "Render the window centred on a pixel as a grayscale PNG (base64). Use this to see what a patch classifier sees.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": preview,
				"required":   centreRequired,
			},
		},
		{
			Name:        "window_features_region",
			Description: "Slide a window over every centre in a rectangular region and return per-centre features, row-major.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": region,
				"required":   []string{"path", "window_size", "row1", "col1", "row2", "col2"},
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
