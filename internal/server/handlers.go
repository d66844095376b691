package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthonynsimon/bild/clone"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
	"github.com/ironsheep/bodymap-mcp/internal/imaging"
	"github.com/ironsheep/bodymap-mcp/internal/marks"
	"github.com/ironsheep/bodymap-mcp/internal/session"
)

// errInvalidParams marks argument errors so they map to JSON-RPC -32602.
var errInvalidParams = errors.New("invalid params")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "bodymap_pointer_down").
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
// Argument errors return code -32602; every other tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Msg("tool call failed")
		if isParamError(err) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
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

func isParamError(err error) bool {
	return errors.Is(err, errInvalidParams) ||
		errors.Is(err, marks.ErrInvalidKind) ||
		errors.Is(err, marks.ErrInvalidView) ||
		errors.Is(err, marks.ErrInvalidMode) ||
		errors.Is(err, session.ErrInvalidBounds)
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Placement
	case "bodymap_pointer_down":
		return s.handlePointerDown(args)
	case "bodymap_select_type":
		return s.handleSelectType(args)
	case "bodymap_cancel":
		return s.handleCancel()

	// View and mode
	case "bodymap_toggle_view":
		return s.handleToggleView()
	case "bodymap_set_view":
		return s.handleSetView(args)
	case "bodymap_set_mode":
		return s.handleSetMode(args)

	// Queries
	case "bodymap_state":
		return s.stateResult(), nil
	case "bodymap_marks":
		return s.handleMarks(args)
	case "bodymap_classify":
		return s.handleClassify(args)

	// Output
	case "bodymap_render":
		return s.handleRender(args)
	case "bodymap_snapshot":
		return s.handleSnapshot(args)

	// Data
	case "bodymap_load_marks":
		return s.handleLoadMarks(args)

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

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

// === Result Types ===

type pendingResult struct {
	X    float64      `json:"x"`
	Y    float64      `json:"y"`
	View anatomy.View `json:"view"`
}

type stateResult struct {
	SessionID       string             `json:"session_id"`
	State           string             `json:"state"`
	View            anatomy.View       `json:"view"`
	Mode            marks.DisplayMode  `json:"mode"`
	Pending         *pendingResult     `json:"pending,omitempty"`
	Options         []marks.TypeOption `json:"options"`
	MarkCount       int                `json:"mark_count"`
	VisibleCount    int                `json:"visible_count"`
	ReferenceLoaded bool               `json:"reference_loaded"`
	ExportInFlight  bool               `json:"export_in_flight"`
}

type marksResult struct {
	Marks []marks.Mark `json:"marks"`
	Count int          `json:"count"`
}

func (s *Server) pending() *pendingResult {
	p, ok := s.session.Pending()
	if !ok {
		return nil
	}
	return &pendingResult{X: p.Position.X, Y: p.Position.Y, View: p.View}
}

func (s *Server) stateResult() *stateResult {
	return &stateResult{
		SessionID:       s.session.ID(),
		State:           s.session.State().String(),
		View:            s.session.View(),
		Mode:            s.session.Mode(),
		Pending:         s.pending(),
		Options:         s.session.Options(),
		MarkCount:       len(s.session.Marks()),
		VisibleCount:    len(s.session.Visible()),
		ReferenceLoaded: s.session.ReferenceLoaded(),
		ExportInFlight:  s.session.ExportInFlight(),
	}
}

// === Placement Handlers ===

type pointerDownArgs struct {
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Bounds session.Bounds `json:"bounds"`
}

func (s *Server) handlePointerDown(args json.RawMessage) (interface{}, error) {
	var a pointerDownArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Bounds == (session.Bounds{}) {
		a.Bounds = session.Bounds{Width: imaging.SurfaceWidth, Height: imaging.SurfaceHeight}
	}

	if _, err := s.session.PointerDown(a.X, a.Y, a.Bounds); err != nil {
		return nil, err
	}
	return s.stateResult(), nil
}

type selectTypeArgs struct {
	Kind    string `json:"kind"`
	Subtype string `json:"subtype"`
}

func (s *Server) handleSelectType(args json.RawMessage) (interface{}, error) {
	var a selectTypeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	kind, err := marks.ParseKind(a.Kind)
	if err != nil {
		return nil, err
	}

	m, err := s.session.Select(kind, a.Subtype)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"mark":       m,
		"mark_count": len(s.session.Marks()),
	}, nil
}

func (s *Server) handleCancel() (interface{}, error) {
	cancelled := s.session.Cancel()
	return map[string]interface{}{
		"cancelled": cancelled,
		"state":     s.session.State().String(),
	}, nil
}

// === View and Mode Handlers ===

func (s *Server) handleToggleView() (interface{}, error) {
	s.session.ToggleView()
	return s.stateResult(), nil
}

type setViewArgs struct {
	View string `json:"view"`
}

func (s *Server) handleSetView(args json.RawMessage) (interface{}, error) {
	var a setViewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	view, err := anatomy.ParseView(a.View)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marks.ErrInvalidView, err)
	}
	if err := s.session.SetView(view); err != nil {
		return nil, err
	}
	return s.stateResult(), nil
}

type setModeArgs struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(args json.RawMessage) (interface{}, error) {
	var a setModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := marks.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}
	if err := s.session.SetMode(mode); err != nil {
		return nil, err
	}
	return s.stateResult(), nil
}

// === Query Handlers ===

type marksArgs struct {
	VisibleOnly bool `json:"visible_only"`
}

func (s *Server) handleMarks(args json.RawMessage) (interface{}, error) {
	var a marksArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	list := s.session.Marks()
	if a.VisibleOnly {
		list = s.session.Visible()
	}
	return marksResult{Marks: list, Count: len(list)}, nil
}

type classifyArgs struct {
	X               float64     `json:"x"`
	Y               float64     `json:"y"`
	View            string      `json:"view"`
	CoordinateSpace marks.Space `json:"coordinate_space"`
}

type classifyResult struct {
	Location string              `json:"location"`
	View     anatomy.View        `json:"view"`
	Side     anatomy.PatientSide `json:"side,omitempty"`
	X        float64             `json:"x"`
	Y        float64             `json:"y"`
}

func (s *Server) handleClassify(args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	view := s.session.View()
	if a.View != "" {
		v, err := anatomy.ParseView(a.View)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", marks.ErrInvalidView, err)
		}
		view = v
	}

	var pos marks.Coordinate
	switch a.CoordinateSpace {
	case "", marks.Normalized:
		pos = marks.NormalizedAt(a.X, a.Y)
	case marks.Absolute:
		pos = marks.AbsoluteAt(a.X, a.Y)
	default:
		return nil, fmt.Errorf("%w: unknown coordinate_space %q", errInvalidParams, a.CoordinateSpace)
	}

	surface := s.session.Surface()
	x, y := pos.Normalize(surface.Width(), surface.Height())
	res := classifyResult{
		Location: anatomy.Classify(x, y, view),
		View:     view,
		X:        x,
		Y:        y,
	}
	if anatomy.BandAt(x, y).Sided() {
		res.Side = anatomy.SideAt(x, view)
	}
	return res, nil
}

// === Output Handlers ===

type renderArgs struct {
	Guides bool `json:"guides"`
}

type renderResult struct {
	*imaging.EncodedImage
	View            anatomy.View        `json:"view"`
	Mode            marks.DisplayMode   `json:"mode"`
	ReferenceLoaded bool                `json:"reference_loaded"`
	Warning         string              `json:"warning,omitempty"`
	Guides          []imaging.GuideLine `json:"guides,omitempty"`
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	res := &renderResult{
		View:            s.session.View(),
		Mode:            s.session.Mode(),
		ReferenceLoaded: true,
	}
	if err := s.session.Redraw(); err != nil {
		if !errors.Is(err, imaging.ErrImageLoad) {
			return nil, err
		}
		res.ReferenceLoaded = false
		res.Warning = err.Error()
	}

	out := s.session.Surface().Image()
	if a.Guides {
		// Guides go on a copy so snapshots stay clean.
		overlay := clone.AsRGBA(out)
		res.Guides = imaging.DrawRegionGuides(overlay, imaging.DefaultGuideColor)
		out = overlay
	}

	enc, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	res.EncodedImage = enc
	return res, nil
}

type snapshotArgs struct {
	Wait bool `json:"wait"`
}

func (s *Server) handleSnapshot(args json.RawMessage) (interface{}, error) {
	var a snapshotArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	if a.Wait {
		url, err := s.session.ExportSnapshot(context.Background())
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"status": "uploaded", "url": url}, nil
	}

	// The outcome is delivered by the snapshot notifications.
	if _, err := s.session.StartSnapshot(context.Background()); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "started"}, nil
}

// === Data Handlers ===

type loadMarksArgs struct {
	Marks []marks.Mark `json:"marks"`
}

func (s *Server) handleLoadMarks(args json.RawMessage) (interface{}, error) {
	var a loadMarksArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := s.session.Seed(a.Marks); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return map[string]interface{}{
		"loaded":     len(a.Marks),
		"mark_count": len(s.session.Marks()),
	}, nil
}
