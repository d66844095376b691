// Package server implements the MCP (Model Context Protocol) server for the
// body map marking engine.
//
// The server exposes one marking session to an MCP client. The client
// reports pointer presses and type choices; the server keeps the marks,
// classifies their anatomical location, renders the map and uploads
// snapshots.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Placement:
//   - bodymap_pointer_down: Place the pending mark
//   - bodymap_select_type: Commit the pending mark with a kind and subtype
//   - bodymap_cancel: Discard the pending mark
//
// View and mode:
//   - bodymap_toggle_view, bodymap_set_view: Switch anterior/posterior
//   - bodymap_set_mode: Switch between injury and intervention marks
//
// Queries:
//   - bodymap_state: Controller state and type options
//   - bodymap_marks: Committed marks
//   - bodymap_classify: Region label for a point
//
// Output:
//   - bodymap_render: Current surface as base64 PNG
//   - bodymap_snapshot: Upload the surface
//
// Data:
//   - bodymap_load_marks: Seed previously recorded marks
//
// # Notifications
//
// Session events are pushed as JSON-RPC notifications:
//   - notifications/bodymap/marks_changed: full mark list after a commit or load
//   - notifications/bodymap/mark_committed: the newly committed mark
//   - notifications/bodymap/snapshot_ready: upload URL
//   - notifications/bodymap/snapshot_failed: upload error
//
// Snapshot notifications may arrive between responses because uploads run
// in the background. Writes to stdout are serialized.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments, -32000 for tool execution failure
//   - message: Human-readable error description
//   - data: The Go error string
//
// A failed tool call never changes the session.
package server
