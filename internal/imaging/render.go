package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/bodymap-mcp/internal/marks"
)

// Marker geometry in pixels.
const (
	MarkerRadius  = 8
	PendingRadius = 10
	StrokeWidth   = 2
)

// Renderer draws reference images and markers onto a Surface.
type Renderer struct {
	palette Palette
	face    font.Face
}

// NewRenderer creates a renderer using the given palette.
func NewRenderer(p Palette) *Renderer {
	return &Renderer{palette: p, face: basicfont.Face7x13}
}

// Palette returns the renderer's colors.
func (r *Renderer) Palette() Palette {
	return r.palette
}

// Render redraws the whole surface.
//
// Draw order, back to front:
//  1. ref, scaled to fill the surface, overwriting every pixel
//  2. each visible mark: filled disc colored by kind with a white stroke,
//     then its two-letter glyph
//  3. the pending point, if any, as a larger translucent disc outlined in
//     the display mode's color
//
// When ref is nil (the reference image did not load) the surface is
// cleared and no markers are drawn.
func (r *Renderer) Render(s *Surface, ref image.Image, visible []marks.Mark, pending *marks.Coordinate, mode marks.DisplayMode) {
	dst := s.Image()
	if ref == nil {
		s.Clear()
		return
	}

	ref = fitSurface(ref, s.Width(), s.Height())
	draw.Draw(dst, dst.Bounds(), ref, ref.Bounds().Min, draw.Src)

	for _, m := range visible {
		x, y := m.Position.Resolve(s.Width(), s.Height())
		r.drawMarker(dst, x, y, r.palette.Fill(m.Kind))
		if g := m.Glyph(); g != "" {
			r.drawGlyph(dst, x, y, g)
		}
	}

	if pending != nil {
		x, y := pending.Resolve(s.Width(), s.Height())
		r.drawPending(dst, x, y, mode)
	}
}

func (r *Renderer) drawMarker(dst *image.RGBA, x, y float64, fill color.Color) {
	half := float64(StrokeWidth) / 2
	fillDisc(dst, x, y, 0, MarkerRadius, fill)
	fillDisc(dst, x, y, MarkerRadius-half, MarkerRadius+half, r.palette.Stroke)
}

func (r *Renderer) drawPending(dst *image.RGBA, x, y float64, mode marks.DisplayMode) {
	half := float64(StrokeWidth) / 2
	fillDisc(dst, x, y, 0, PendingRadius, r.palette.PendingFill)
	fillDisc(dst, x, y, PendingRadius-half, PendingRadius+half, r.palette.Outline(mode))
}

// drawGlyph draws text centered on (x, y).
func (r *Renderer) drawGlyph(dst *image.RGBA, x, y float64, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.palette.Glyph),
		Face: r.face,
	}
	width := d.MeasureString(text)
	m := r.face.Metrics()
	d.Dot = fixed.Point26_6{
		X: toFixed(x) - width/2,
		Y: toFixed(y) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(text)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

// fillDisc composites c over dst inside the annulus inner <= d <= outer
// around (cx, cy). inner == 0 gives a solid disc.
func fillDisc(dst draw.Image, cx, cy, inner, outer float64, c color.Color) {
	mask := &annulus{cx: cx, cy: cy, inner: inner, outer: outer}
	r := mask.Bounds().Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, r.Min, draw.Over)
}

// annulus is an alpha mask covering a ring, with one pixel of linear
// coverage falloff on each edge.
type annulus struct {
	cx, cy       float64
	inner, outer float64
}

func (a *annulus) ColorModel() color.Model { return color.AlphaModel }

func (a *annulus) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(a.cx-a.outer))-1,
		int(math.Floor(a.cy-a.outer))-1,
		int(math.Ceil(a.cx+a.outer))+1,
		int(math.Ceil(a.cy+a.outer))+1,
	)
}

func (a *annulus) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - a.cx
	dy := float64(y) + 0.5 - a.cy
	d := math.Hypot(dx, dy)

	cover := clampUnit(a.outer + 0.5 - d)
	if a.inner > 0 {
		cover *= clampUnit(d - a.inner + 0.5)
	}
	return color.Alpha{A: uint8(cover*255 + 0.5)}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
