package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/bodymap-mcp/internal/marks"
	"github.com/ironsheep/bodymap-mcp/internal/session"
)

// Notification methods sent to the client.
const (
	NotifyMarksChanged   = "notifications/bodymap/marks_changed"
	NotifyMarkCommitted  = "notifications/bodymap/mark_committed"
	NotifySnapshotReady  = "notifications/bodymap/snapshot_ready"
	NotifySnapshotFailed = "notifications/bodymap/snapshot_failed"
)

// Server handles MCP protocol communication for one marking session.
type Server struct {
	session *session.Session
	version string
	log     zerolog.Logger

	in io.Reader

	// mu serializes writes; snapshot notifications arrive from the upload
	// goroutine.
	mu  sync.Mutex
	enc *json.Encoder
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server for sess that talks over stdin and stdout.
func New(sess *session.Session, version string, log zerolog.Logger) *Server {
	return NewWithIO(sess, version, log, os.Stdin, os.Stdout)
}

// NewWithIO creates a server reading requests from in and writing responses
// and notifications to out. It registers itself as an observer of sess.
func NewWithIO(sess *session.Session, version string, log zerolog.Logger, in io.Reader, out io.Writer) *Server {
	s := &Server{
		session: sess,
		version: version,
		log:     log.With().Str("component", "server").Logger(),
		in:      in,
		enc:     json.NewEncoder(out),
	}
	sess.Observe(session.Observer{
		OnMarksChanged: func(all []marks.Mark) {
			s.notify(NotifyMarksChanged, marksResult{Marks: all, Count: len(all)})
		},
		OnMarkCommitted: func(m marks.Mark) {
			s.notify(NotifyMarkCommitted, map[string]interface{}{"mark": m})
		},
		OnSnapshotReady: func(url string) {
			s.notify(NotifySnapshotReady, map[string]interface{}{"url": url})
		},
		OnSnapshotFailed: func(err error) {
			s.notify(NotifySnapshotFailed, map[string]interface{}{"error": err.Error()})
		},
	})
	return s
}

// Run reads one JSON-RPC request per line until the input closes.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.write(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

func (s *Server) write(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode message")
	}
}

func (s *Server) notify(method string, params interface{}) {
	s.log.Debug().Str("method", method).Msg("sending notification")
	s.write(&MCPNotification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "bodymap-mcp",
				"version": s.version,
			},
		},
	}
}
