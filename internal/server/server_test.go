package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
	"github.com/ironsheep/bodymap-mcp/internal/imaging"
	"github.com/ironsheep/bodymap-mcp/internal/session"
	"github.com/ironsheep/bodymap-mcp/internal/snapshot"
)

// syncBuffer is a bytes.Buffer safe for the upload goroutine to write to.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// messages returns each JSON message written so far, decoded into a map.
func (b *syncBuffer) messages(t *testing.T) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("output line is not JSON: %q", line)
		}
		out = append(out, m)
	}
	return out
}

func referencePNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, imaging.SurfaceWidth, imaging.SurfaceHeight))
	for y := 0; y < imaging.SurfaceHeight; y++ {
		for x := 0; x < imaging.SurfaceWidth; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func newTestSession(t *testing.T, src imaging.ReferenceSource, up snapshot.Uploader) *session.Session {
	t.Helper()
	return session.New(session.Options{
		References: imaging.NewReferenceCache(src, imaging.SurfaceWidth, imaging.SurfaceHeight, zerolog.Nop()),
		Renderer:   imaging.NewRenderer(imaging.DefaultPalette()),
		Exporter:   snapshot.NewExporter(up, zerolog.Nop()),
		Logger:     zerolog.Nop(),
	})
}

// newTestServer returns a server over a session with gray reference art
// for both views and the given uploader, plus its output buffer.
func newTestServer(t *testing.T, up snapshot.Uploader) (*Server, *syncBuffer) {
	t.Helper()
	data := referencePNG(t, color.RGBA{200, 200, 200, 255})
	src := imaging.BytesSource{anatomy.Anterior: data, anatomy.Posterior: data}
	out := &syncBuffer{}
	s := NewWithIO(newTestSession(t, src, up), "test", zerolog.Nop(), strings.NewReader(""), out)
	return s, out
}

func TestNewWithIO(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if s == nil {
		t.Fatal("NewWithIO returned nil")
	}
	if s.session == nil {
		t.Fatal("NewWithIO did not keep the session")
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != "bodymap-mcp" {
		t.Errorf("serverInfo.name: got %v", serverInfo["name"])
	}
	if serverInfo["version"] != "test" {
		t.Errorf("serverInfo.version: got %v", serverInfo["version"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	result := resp.Result.(map[string]interface{})
	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Expected %d tools, got %d", len(GetToolDefinitions()), len(toolsList))
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}); resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"})

	if resp == nil || resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestRun(t *testing.T) {
	data := referencePNG(t, color.RGBA{200, 200, 200, 255})
	src := imaging.BytesSource{anatomy.Anterior: data, anatomy.Posterior: data}
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"bodymap_pointer_down","arguments":{"x":150,"y":300}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"bodymap_select_type","arguments":{"kind":"Injury","subtype":"Burn"}}}`,
	}, "\n"))
	out := &syncBuffer{}

	s := NewWithIO(newTestSession(t, src, nil), "test", zerolog.Nop(), in, out)
	if err := s.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	msgs := out.messages(t)
	var ids []interface{}
	var methods []string
	for _, m := range msgs {
		if id, ok := m["id"]; ok {
			ids = append(ids, id)
		} else {
			methods = append(methods, m["method"].(string))
		}
	}

	if len(ids) != 3 || ids[0] != float64(1) || ids[1] != float64(2) || ids[2] != float64(3) {
		t.Errorf("response ids: got %v, want [1 2 3]", ids)
	}
	if strings.Join(methods, ",") != NotifyMarksChanged+","+NotifyMarkCommitted {
		t.Errorf("notifications: got %v", methods)
	}

	// Notifications for a commit precede its response.
	last := msgs[len(msgs)-1]
	if last["id"] != float64(3) {
		t.Errorf("last message should be the select response, got %v", last)
	}
}

func TestMCPNotification_Marshal(t *testing.T) {
	notification := MCPNotification{
		JSONRPC: "2.0",
		Method:  NotifySnapshotReady,
		Params:  map[string]string{"url": "https://files.example/x.png"},
	}

	data, err := json.Marshal(notification)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Error("notifications must not carry an id")
	}

	var decoded MCPNotification
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Method != NotifySnapshotReady {
		t.Errorf("Method: got %s", decoded.Method)
	}
}
