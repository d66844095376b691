package marks

import "fmt"

// Space tags how a Coordinate's values are interpreted.
type Space string

const (
	// Normalized values are fractions of the surface in [0,1].
	Normalized Space = "normalized"
	// Absolute values are pixels on the fixed-size surface. Only legacy
	// data carries absolute coordinates.
	Absolute Space = "absolute"
)

// Coordinate is a position on the marking surface in one of two spaces.
type Coordinate struct {
	Space Space
	X     float64
	Y     float64
}

// NormalizedAt constructs a normalized coordinate. Values are clamped to [0,1].
func NormalizedAt(x, y float64) Coordinate {
	return Coordinate{Space: Normalized, X: clamp01(x), Y: clamp01(y)}
}

// AbsoluteAt constructs a pixel coordinate.
func AbsoluteAt(px, py float64) Coordinate {
	return Coordinate{Space: Absolute, X: px, Y: py}
}

// FromLegacy infers the space of an untagged stored pair. If both values
// are at most 1 the pair is taken as fractions, otherwise as pixels.
// Pixel values in (0,1] are indistinguishable from fractions; this is a
// known property of the old format and is preserved as-is.
func FromLegacy(x, y float64) Coordinate {
	if x <= 1 && y <= 1 {
		return Coordinate{Space: Normalized, X: x, Y: y}
	}
	return AbsoluteAt(x, y)
}

// Resolve returns the pixel position of c on a surface of the given size.
func (c Coordinate) Resolve(width, height int) (float64, float64) {
	if c.Space == Absolute {
		return c.X, c.Y
	}
	return c.X * float64(width), c.Y * float64(height)
}

// Normalize returns c as fractions of a surface of the given size.
func (c Coordinate) Normalize(width, height int) (float64, float64) {
	if c.Space != Absolute {
		return c.X, c.Y
	}
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	return clamp01(c.X / float64(width)), clamp01(c.Y / float64(height))
}

// Validate checks that the space is known and normalized values are in range.
func (c Coordinate) Validate() error {
	switch c.Space {
	case Normalized:
		if c.X < 0 || c.X > 1 || c.Y < 0 || c.Y > 1 {
			return fmt.Errorf("normalized coordinate (%v,%v) outside [0,1]", c.X, c.Y)
		}
	case Absolute:
		if c.X < 0 || c.Y < 0 {
			return fmt.Errorf("absolute coordinate (%v,%v) is negative", c.X, c.Y)
		}
	default:
		return fmt.Errorf("unknown coordinate space: %q", c.Space)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s(%.4f,%.4f)", c.Space, c.X, c.Y)
}

func clamp01(v float64) float64 {
	if v != v {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
