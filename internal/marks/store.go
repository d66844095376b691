package marks

import (
	"fmt"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
)

// Store is the ordered, append-only sequence of committed marks for one map.
//
// Store is not safe for concurrent use. The marking session is driven by
// discrete events on a single goroutine.
type Store struct {
	marks []Mark
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a committed mark to the end of the sequence.
func (s *Store) Append(m Mark) error {
	if m.ID == "" {
		return fmt.Errorf("mark has no id")
	}
	if !m.Confirmed {
		return fmt.Errorf("mark %s is not confirmed", m.ID)
	}
	if !m.View.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidView, m.View)
	}
	if err := m.Position.Validate(); err != nil {
		return fmt.Errorf("mark %s: %w", m.ID, err)
	}
	s.marks = append(s.marks, m)
	return nil
}

// Seed appends a caller-owned sequence, typically loaded at session start.
// Every mark is validated before any is appended; on error the store is
// unchanged.
func (s *Store) Seed(ms []Mark) error {
	probe := &Store{}
	for i, m := range ms {
		if err := probe.Append(m); err != nil {
			return fmt.Errorf("mark %d: %w", i, err)
		}
	}
	s.marks = append(s.marks, probe.marks...)
	return nil
}

// Len returns the number of committed marks.
func (s *Store) Len() int {
	return len(s.marks)
}

// All returns a copy of the committed sequence in insertion order.
func (s *Store) All() []Mark {
	out := make([]Mark, len(s.marks))
	copy(out, s.marks)
	return out
}

// Visible returns the marks shown for a view and display mode.
func (s *Store) Visible(view anatomy.View, mode DisplayMode) []Mark {
	return VisibleMarks(s.marks, view, mode)
}

// VisibleMarks returns the marks on view whose kind belongs to mode, in
// their original order. The input slice is not modified.
func VisibleMarks(all []Mark, view anatomy.View, mode DisplayMode) []Mark {
	out := make([]Mark, 0, len(all))
	for _, m := range all {
		if m.View == view && mode.Shows(m.Kind) {
			out = append(out, m)
		}
	}
	return out
}
