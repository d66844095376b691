package session

import (
	"errors"
	"fmt"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
	"github.com/ironsheep/bodymap-mcp/internal/marks"
)

var (
	// ErrNoPendingMark is returned when a type is selected with no point
	// placed. The state machine prevents this in normal use.
	ErrNoPendingMark = errors.New("no pending mark to confirm")
	// ErrKindNotInMode is returned when the selected kind is not offered by
	// the current display mode.
	ErrKindNotInMode = errors.New("mark kind not available in current display mode")
	// ErrInvalidBounds is returned when the on-screen surface box has no area.
	ErrInvalidBounds = errors.New("surface bounds must have positive width and height")
)

// State is the interaction controller state.
type State int

const (
	// Idle waits for a pointer press.
	Idle State = iota
	// AwaitingType holds a pending point until a type is chosen or the
	// placement is cancelled.
	AwaitingType
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingType:
		return "awaiting_type"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Bounds is the on-screen bounding box of the rendered surface, in the same
// viewport units as pointer events.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Normalize maps a viewport point into [0,1]×[0,1] relative to b. Points
// outside the box are clamped to its edge.
func (b Bounds) Normalize(px, py float64) (marks.Coordinate, error) {
	if !(b.Width > 0) || !(b.Height > 0) {
		return marks.Coordinate{}, ErrInvalidBounds
	}
	return marks.NormalizedAt((px-b.Left)/b.Width, (py-b.Top)/b.Height), nil
}

// Pending is the single unconfirmed point awaiting a type.
type Pending struct {
	Position marks.Coordinate `json:"-"`
	View     anatomy.View     `json:"view"`
}

// controller is the two-state placement machine. It owns the pending point
// and nothing else; the Session applies its results.
type controller struct {
	state   State
	pending *Pending
}

// press records a new pending point, replacing any existing one.
func (c *controller) press(pos marks.Coordinate, view anatomy.View) {
	c.pending = &Pending{Position: pos, View: view}
	c.state = AwaitingType
}

// take returns the pending point and returns the machine to Idle.
func (c *controller) take() (Pending, error) {
	if c.state != AwaitingType || c.pending == nil {
		return Pending{}, ErrNoPendingMark
	}
	p := *c.pending
	c.reset()
	return p, nil
}

// peek returns the pending point without consuming it.
func (c *controller) peek() (Pending, bool) {
	if c.pending == nil {
		return Pending{}, false
	}
	return *c.pending, true
}

// reset discards any pending point. It reports whether one existed.
func (c *controller) reset() bool {
	had := c.pending != nil
	c.pending = nil
	c.state = Idle
	return had
}
