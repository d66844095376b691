// Package session drives one body map: it owns the placement state machine,
// the committed marks, the current view and display mode, and the rendered
// surface.
//
// A Session is driven by discrete events on a single goroutine and is not
// safe for concurrent use. The only work that leaves that goroutine is a
// snapshot upload started with StartSnapshot, which touches no session state.
package session

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
	"github.com/ironsheep/bodymap-mcp/internal/imaging"
	"github.com/ironsheep/bodymap-mcp/internal/marks"
	"github.com/ironsheep/bodymap-mcp/internal/snapshot"
)

// Options configures a Session. References, Renderer and Exporter are
// required; the rest have defaults.
type Options struct {
	References *imaging.ReferenceCache
	Renderer   *imaging.Renderer
	Exporter   *snapshot.Exporter

	// DestinationPrefix is prepended to snapshot destination hints.
	DestinationPrefix string
	// View and Mode are the initial view and display mode. Defaults are
	// Anterior and injury.
	View anatomy.View
	Mode marks.DisplayMode

	Logger zerolog.Logger
	Now    func() time.Time
}

// Session is one marking session.
type Session struct {
	id     string
	ctl    controller
	view   anatomy.View
	mode   marks.DisplayMode
	store  *marks.Store
	obs    observers
	prefix string

	surface  *imaging.Surface
	refs     *imaging.ReferenceCache
	renderer *imaging.Renderer
	exporter *snapshot.Exporter

	log zerolog.Logger
	now func() time.Time
}

// New creates an idle session with no marks. It does not render; call
// Redraw once the caller is ready to show the surface.
func New(opts Options) *Session {
	view := opts.View
	if !view.Valid() {
		view = anatomy.Anterior
	}
	mode := opts.Mode
	if mode != marks.InjuryMode && mode != marks.InterventionMode {
		mode = marks.InjuryMode
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	id := marks.NewID()
	return &Session{
		id:       id,
		view:     view,
		mode:     mode,
		store:    marks.NewStore(),
		prefix:   opts.DestinationPrefix,
		surface:  imaging.NewSurface(),
		refs:     opts.References,
		renderer: opts.Renderer,
		exporter: opts.Exporter,
		log:      opts.Logger.With().Str("component", "session").Str("session", id).Logger(),
		now:      now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the controller state.
func (s *Session) State() State { return s.ctl.state }

// View returns the current body view.
func (s *Session) View() anatomy.View { return s.view }

// Mode returns the current display mode.
func (s *Session) Mode() marks.DisplayMode { return s.mode }

// Pending returns the unconfirmed point, if any.
func (s *Session) Pending() (Pending, bool) { return s.ctl.peek() }

// Surface returns the rendered surface.
func (s *Session) Surface() *imaging.Surface { return s.surface }

// ReferenceLoaded reports whether the current view's reference image is
// cached.
func (s *Session) ReferenceLoaded() bool { return s.refs.Loaded(s.view) }

// Marks returns a copy of every committed mark in commit order.
func (s *Session) Marks() []marks.Mark { return s.store.All() }

// Visible returns the committed marks shown for the current view and mode.
func (s *Session) Visible() []marks.Mark { return s.store.Visible(s.view, s.mode) }

// Options returns the type options offered by the current display mode.
func (s *Session) Options() []marks.TypeOption { return marks.OptionsFor(s.mode) }

// Observe registers o for session events.
func (s *Session) Observe(o Observer) {
	s.obs = append(s.obs, o)
}

// PointerDown places the pending point at viewport position (px, py) on a
// surface displayed inside bounds. A press outside bounds is clamped to the
// nearest edge. An existing pending point is replaced. It returns the type
// options the caller should offer.
func (s *Session) PointerDown(px, py float64, bounds Bounds) ([]marks.TypeOption, error) {
	pos, err := bounds.Normalize(px, py)
	if err != nil {
		return nil, err
	}
	s.ctl.press(pos, s.view)
	s.log.Debug().Float64("x", pos.X).Float64("y", pos.Y).Msg("pending mark placed")
	s.refresh()
	return s.Options(), nil
}

// Select commits the pending point as a mark of the given kind and subtype.
// The location is classified once, here. Observers see the full sequence
// and then the new mark.
func (s *Session) Select(kind marks.Kind, subtype string) (marks.Mark, error) {
	if s.ctl.state != AwaitingType {
		return marks.Mark{}, ErrNoPendingMark
	}
	if !s.mode.Shows(kind) {
		return marks.Mark{}, fmt.Errorf("%w: %s in %s mode", ErrKindNotInMode, kind, s.mode)
	}

	p, _ := s.ctl.peek()
	m, err := marks.NewMark(p.Position, p.View, kind, subtype, s.now())
	if err != nil {
		return marks.Mark{}, err
	}
	if err := s.store.Append(m); err != nil {
		return marks.Mark{}, err
	}
	_, _ = s.ctl.take()

	s.log.Info().
		Str("mark", m.ID).
		Str("view", m.View.String()).
		Str("kind", string(m.Kind)).
		Str("subtype", m.Subtype).
		Str("location", m.Location).
		Msg("mark committed")

	s.refresh()
	s.obs.marksChanged(s.store.All())
	s.obs.markCommitted(m)
	return m, nil
}

// Cancel discards the pending point. It reports whether there was one.
func (s *Session) Cancel() bool {
	if !s.ctl.reset() {
		return false
	}
	s.log.Debug().Msg("pending mark cancelled")
	s.refresh()
	return true
}

// ToggleView switches to the opposite view and returns it. Any pending
// point is discarded.
func (s *Session) ToggleView() anatomy.View {
	s.switchView(s.view.Opposite())
	return s.view
}

// SetView switches to view. Any pending point is discarded, even when view
// is already current.
func (s *Session) SetView(view anatomy.View) error {
	if !view.Valid() {
		return fmt.Errorf("%w: %q", marks.ErrInvalidView, view)
	}
	s.switchView(view)
	return nil
}

func (s *Session) switchView(view anatomy.View) {
	s.ctl.reset()
	s.view = view
	s.log.Debug().Str("view", view.String()).Msg("view changed")
	s.refresh()
}

// SetMode switches the display mode. Any pending point is discarded because
// its offered options belonged to the old mode.
func (s *Session) SetMode(mode marks.DisplayMode) error {
	if mode != marks.InjuryMode && mode != marks.InterventionMode {
		return fmt.Errorf("%w: %q", marks.ErrInvalidMode, mode)
	}
	s.ctl.reset()
	s.mode = mode
	s.log.Debug().Str("mode", string(mode)).Msg("display mode changed")
	s.refresh()
	return nil
}

// Seed appends a caller-owned sequence of previously committed marks.
// Records without a location are classified from their position, and
// records without an id get one. Seeded marks are confirmed by definition.
// Either every mark is appended or none is.
func (s *Session) Seed(ms []marks.Mark) error {
	w, h := s.surface.Width(), s.surface.Height()
	prepared := make([]marks.Mark, len(ms))
	for i, m := range ms {
		if m.ID == "" {
			m.ID = marks.NewID()
		}
		if m.Location == "" && m.View.Valid() {
			x, y := m.Position.Normalize(w, h)
			m.Location = anatomy.Classify(x, y, m.View)
		}
		m.Confirmed = true
		prepared[i] = m
	}
	if err := s.store.Seed(prepared); err != nil {
		return err
	}

	s.log.Info().Int("count", len(prepared)).Int("total", s.store.Len()).Msg("marks loaded")
	s.refresh()
	s.obs.marksChanged(s.store.All())
	return nil
}

// Redraw renders the current view onto the surface. When the reference
// image cannot be loaded the surface is cleared and the error, which wraps
// imaging.ErrImageLoad, is returned; the next Redraw retries the load.
func (s *Session) Redraw() error {
	ref, err := s.refs.Load(s.view)
	if err != nil {
		s.renderer.Render(s.surface, nil, nil, nil, s.mode)
		return err
	}

	var pending *marks.Coordinate
	if p, ok := s.ctl.peek(); ok && p.View == s.view {
		pending = &p.Position
	}
	s.renderer.Render(s.surface, ref, s.Visible(), pending, s.mode)
	return nil
}

func (s *Session) refresh() {
	if err := s.Redraw(); err != nil {
		s.log.Warn().Err(err).Str("view", s.view.String()).Msg("redraw without reference image")
	}
}

// DestinationHint returns the upload destination for a snapshot taken at t.
func (s *Session) DestinationHint(t time.Time) string {
	name := fmt.Sprintf("%s-%s.png", s.id, t.UTC().Format("20060102T150405Z"))
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// ExportSnapshot encodes the surface as it stands and uploads it, blocking
// until the upload finishes. Observers see OnSnapshotReady only on success.
func (s *Session) ExportSnapshot(ctx context.Context) (string, error) {
	job, err := s.exporter.Begin(s.surface.Image())
	if err != nil {
		return "", err
	}
	return s.finishSnapshot(ctx, job, s.DestinationHint(s.now()), s.obs)
}

// ExportInFlight reports whether a snapshot upload is running.
func (s *Session) ExportInFlight() bool { return s.exporter.Busy() }

// SnapshotResult is the outcome of an asynchronous export.
type SnapshotResult struct {
	URL string
	Err error
}

// StartSnapshot encodes the surface now and uploads it in the background.
// The returned channel receives exactly one result. Only one export can be in
// flight; a second call fails with snapshot.ErrExportInFlight.
func (s *Session) StartSnapshot(ctx context.Context) (<-chan SnapshotResult, error) {
	job, err := s.exporter.Begin(s.surface.Image())
	if err != nil {
		return nil, err
	}

	hint := s.DestinationHint(s.now())
	obs := append(observers(nil), s.obs...)
	done := make(chan SnapshotResult, 1)
	go func() {
		url, err := s.finishSnapshot(ctx, job, hint, obs)
		done <- SnapshotResult{URL: url, Err: err}
	}()
	return done, nil
}

func (s *Session) finishSnapshot(ctx context.Context, job *snapshot.Job, hint string, obs observers) (string, error) {
	url, err := job.Upload(ctx, hint)
	if err != nil {
		obs.snapshotFailed(err)
		return "", err
	}
	obs.snapshotReady(url)
	return url, nil
}
