package marks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
)

var (
	ErrInvalidKind = errors.New("invalid mark kind")
	ErrInvalidView = errors.New("invalid view")
	ErrInvalidMode = errors.New("invalid display mode")
)

// Kind is the category of a mark. It selects the marker color and the
// display mode that shows the mark.
type Kind string

const (
	Injury Kind = "Injury"
	Pain   Kind = "Pain"
	IV     Kind = "IV"
	Other  Kind = "Other"
)

// Kinds lists every kind in catalogue order.
var Kinds = []Kind{Injury, Pain, IV, Other}

// ParseKind converts a case-insensitive kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Mode returns the display mode that shows marks of this kind.
func (k Kind) Mode() DisplayMode {
	if k == Injury || k == Pain {
		return InjuryMode
	}
	return InterventionMode
}

// DisplayMode selects which kinds of marks are relevant.
type DisplayMode string

const (
	InjuryMode       DisplayMode = "injury"
	InterventionMode DisplayMode = "intervention"
)

// ParseMode converts a case-insensitive mode name to a DisplayMode.
func ParseMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "injury":
		return InjuryMode, nil
	case "intervention":
		return InterventionMode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Shows reports whether marks of kind k are visible in mode m.
func (m DisplayMode) Shows(k Kind) bool {
	switch m {
	case InjuryMode:
		return k == Injury || k == Pain
	case InterventionMode:
		return k == IV || k == Other
	default:
		return false
	}
}

// Mark is a committed, classified point on a body view. Marks are values;
// nothing in this module mutates one after NewMark returns it.
type Mark struct {
	ID        string
	Position  Coordinate
	View      anatomy.View
	Kind      Kind
	Subtype   string
	Location  string
	Confirmed bool
	CreatedAt time.Time
}

// NewMark creates a confirmed mark at a normalized position and classifies
// its location once, here.
func NewMark(pos Coordinate, view anatomy.View, kind Kind, subtype string, now time.Time) (Mark, error) {
	if !view.Valid() {
		return Mark{}, fmt.Errorf("%w: %q", ErrInvalidView, view)
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return Mark{}, err
	}
	if pos.Space != Normalized {
		return Mark{}, fmt.Errorf("new marks require a normalized position, got %s", pos)
	}
	if err := pos.Validate(); err != nil {
		return Mark{}, err
	}

	return Mark{
		ID:        NewID(),
		Position:  pos,
		View:      view,
		Kind:      kind,
		Subtype:   strings.TrimSpace(subtype),
		Location:  anatomy.Classify(pos.X, pos.Y, view),
		Confirmed: true,
		CreatedAt: now.UTC(),
	}, nil
}

// NewID returns a time-ordered unique identifier. It falls back to a
// random UUID if the clock-based generator fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Glyph returns the marker label: the first two characters of the subtype,
// upper-cased. An empty subtype yields an empty glyph.
func (m Mark) Glyph() string {
	r := []rune(strings.TrimSpace(m.Subtype))
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// markJSON is the wire form of a Mark.
type markJSON struct {
	ID              string       `json:"id"`
	X               float64      `json:"x"`
	Y               float64      `json:"y"`
	CoordinateSpace Space        `json:"coordinateSpace,omitempty"`
	View            anatomy.View `json:"view"`
	Kind            Kind         `json:"kind"`
	Subtype         string       `json:"subtype,omitempty"`
	Location        string       `json:"location"`
	Confirmed       bool         `json:"confirmed"`
	CreatedAt       *time.Time   `json:"createdAt,omitempty"`
}

// MarshalJSON writes the mark with an explicit coordinate space tag.
func (m Mark) MarshalJSON() ([]byte, error) {
	j := markJSON{
		ID:              m.ID,
		X:               m.Position.X,
		Y:               m.Position.Y,
		CoordinateSpace: m.Position.Space,
		View:            m.View,
		Kind:            m.Kind,
		Subtype:         m.Subtype,
		Location:        m.Location,
		Confirmed:       m.Confirmed,
	}
	if !m.CreatedAt.IsZero() {
		t := m.CreatedAt
		j.CreatedAt = &t
	}
	return json.Marshal(j)
}

// UnmarshalJSON reads a mark. Records without a coordinateSpace tag are
// legacy data and go through FromLegacy.
func (m *Mark) UnmarshalJSON(data []byte) error {
	var j markJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}

	var pos Coordinate
	switch j.CoordinateSpace {
	case "":
		pos = FromLegacy(j.X, j.Y)
	case Normalized, Absolute:
		pos = Coordinate{Space: j.CoordinateSpace, X: j.X, Y: j.Y}
	default:
		return fmt.Errorf("unknown coordinate space: %q", j.CoordinateSpace)
	}

	view, err := anatomy.ParseView(string(j.View))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidView, err)
	}
	kind, err := ParseKind(string(j.Kind))
	if err != nil {
		return err
	}

	*m = Mark{
		ID:        j.ID,
		Position:  pos,
		View:      view,
		Kind:      kind,
		Subtype:   j.Subtype,
		Location:  j.Location,
		Confirmed: j.Confirmed,
	}
	if j.CreatedAt != nil {
		m.CreatedAt = *j.CreatedAt
	}
	return nil
}
