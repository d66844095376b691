package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Placement
		{
			Name:        "bodymap_pointer_down",
			Description: "Place the pending mark at a pointer position. Coordinates are viewport units; bounds is the on-screen box of the 300x600 body map. Points outside the box are clamped to its edge. Returns the session state including the type options to offer.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Pointer X in viewport units",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Pointer Y in viewport units",
					},
					"bounds": map[string]interface{}{
						"type":        "object",
						"description": "On-screen bounding box of the surface. Defaults to the surface itself (0,0,300,600).",
						"properties": map[string]interface{}{
							"left":   map[string]interface{}{"type": "number"},
							"top":    map[string]interface{}{"type": "number"},
							"width":  map[string]interface{}{"type": "number"},
							"height": map[string]interface{}{"type": "number"},
						},
						"required": []string{"width", "height"},
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "bodymap_select_type",
			Description: "Commit the pending mark with a kind and subtype. The anatomical location is classified once and stored with the mark. The kind must belong to the current display mode.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"Injury", "Pain", "IV", "Other"},
						"description": "Mark kind",
					},
					"subtype": map[string]interface{}{
						"type":        "string",
						"description": "Short label such as Laceration or Cannula; its first two letters are drawn on the marker",
					},
				},
				"required": []string{"kind"},
			},
		},
		{
			Name:        "bodymap_cancel",
			Description: "Discard the pending mark without committing it.",
			InputSchema: noArgs(),
		},

		// View and mode
		{
			Name:        "bodymap_toggle_view",
			Description: "Switch between the anterior and posterior body views. Discards any pending mark.",
			InputSchema: noArgs(),
		},
		{
			Name:        "bodymap_set_view",
			Description: "Show a specific body view. Discards any pending mark.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"view": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"anterior", "posterior"},
						"description": "Body view",
					},
				},
				"required": []string{"view"},
			},
		},
		{
			Name:        "bodymap_set_mode",
			Description: "Switch the display mode. injury shows Injury and Pain marks; intervention shows IV and Other marks. Discards any pending mark.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"injury", "intervention"},
						"description": "Display mode",
					},
				},
				"required": []string{"mode"},
			},
		},

		// Queries
		{
			Name:        "bodymap_state",
			Description: "Get the controller state, current view and mode, the pending mark, and the type options for the current mode.",
			InputSchema: noArgs(),
		},
		{
			Name:        "bodymap_marks",
			Description: "List committed marks in commit order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"visible_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only return marks shown for the current view and mode. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "bodymap_classify",
			Description: "Return the anatomical region label for a point without placing a mark.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X position",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y position",
					},
					"view": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"anterior", "posterior"},
						"description": "Body view. Defaults to the current view",
					},
					"coordinate_space": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"normalized", "absolute"},
						"description": "normalized for fractions in [0,1], absolute for surface pixels. Default normalized",
						"default":     "normalized",
					},
				},
				"required": []string{"x", "y"},
			},
		},

		// Output
		{
			Name:        "bodymap_render",
			Description: "Redraw the body map and return it as a base64-encoded PNG. Optionally overlay the classifier region boundaries.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"guides": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw region boundary lines. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "bodymap_snapshot",
			Description: "Export the rendered body map as PNG and upload it. By default the upload runs in the background and the URL arrives in a notifications/bodymap/snapshot_ready notification. Only one export can run at a time.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Block until the upload finishes and return the URL. Default false",
						"default":     false,
					},
				},
			},
		},

		// Data
		{
			Name:        "bodymap_load_marks",
			Description: "Append previously recorded marks to the session. Records without coordinateSpace use the legacy rule: x and y both at most 1 are fractions, otherwise surface pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"marks": map[string]interface{}{
						"type":        "array",
						"description": "Mark records as returned by bodymap_marks",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"id":              map[string]interface{}{"type": "string"},
								"x":               map[string]interface{}{"type": "number"},
								"y":               map[string]interface{}{"type": "number"},
								"coordinateSpace": map[string]interface{}{"type": "string"},
								"view":            map[string]interface{}{"type": "string"},
								"kind":            map[string]interface{}{"type": "string"},
								"subtype":         map[string]interface{}{"type": "string"},
								"location":        map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y", "view", "kind"},
						},
					},
				},
				"required": []string{"marks"},
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
