package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
	"time"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
	"github.com/ironsheep/bodymap-mcp/internal/marks"
)

var gray = color.RGBA{128, 128, 128, 255}

func solidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8, uint8) {
	r, g, b, a := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)
}

func testMark(t *testing.T, pos marks.Coordinate, kind marks.Kind, subtype string) marks.Mark {
	t.Helper()
	if pos.Space == marks.Absolute {
		return marks.Mark{ID: "legacy", Position: pos, View: anatomy.Anterior, Kind: kind, Subtype: subtype, Confirmed: true}
	}
	m, err := marks.NewMark(pos, anatomy.Anterior, kind, subtype, time.Now())
	if err != nil {
		t.Fatalf("NewMark failed: %v", err)
	}
	return m
}

func assertColor(t *testing.T, img image.Image, x, y int, want color.NRGBA) {
	t.Helper()
	r, g, b, _ := rgbAt(img, x, y)
	if r != want.R || g != want.G || b != want.B {
		t.Errorf("pixel (%d,%d): got (%d,%d,%d), want (%d,%d,%d)", x, y, r, g, b, want.R, want.G, want.B)
	}
}

func TestRender_ReferenceFillsSurface(t *testing.T) {
	s := NewSurface()
	r := NewRenderer(DefaultPalette())

	// Reference smaller than the surface is scaled up to fill it.
	r.Render(s, solidImage(30, 60, color.RGBA{0, 0, 255, 255}), nil, nil, marks.InjuryMode)

	for _, p := range []image.Point{{0, 0}, {150, 300}, {299, 599}} {
		rr, g, b, a := rgbAt(s.Image(), p.X, p.Y)
		if rr > 10 || g > 10 || b < 245 || a != 255 {
			t.Errorf("pixel %v: got (%d,%d,%d,%d), want opaque blue", p, rr, g, b, a)
		}
	}
}

func TestRender_MarkerColorsByKind(t *testing.T) {
	p := DefaultPalette()
	tests := []struct {
		kind marks.Kind
		want color.NRGBA
	}{
		{marks.Injury, p.Injury},
		{marks.Pain, p.Pain},
		{marks.IV, p.Intervention},
		{marks.Other, p.Intervention},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := NewSurface()
			r := NewRenderer(p)
			m := testMark(t, marks.NormalizedAt(0.5, 0.5), tt.kind, "")
			r.Render(s, solidImage(SurfaceWidth, SurfaceHeight, gray), []marks.Mark{m}, nil, tt.kind.Mode())

			assertColor(t, s.Image(), 150, 300, tt.want)
			// Stroke ring around the fill.
			assertColor(t, s.Image(), 157, 300, p.Stroke)
			assertColor(t, s.Image(), 150, 307, p.Stroke)
			// Well outside the marker the reference shows through.
			assertColor(t, s.Image(), 150, 320, color.NRGBA{128, 128, 128, 255})
		})
	}
}

func TestRender_AbsoluteCoordinates(t *testing.T) {
	s := NewSurface()
	r := NewRenderer(DefaultPalette())
	m := testMark(t, marks.AbsoluteAt(60, 120), marks.Injury, "")

	r.Render(s, solidImage(SurfaceWidth, SurfaceHeight, gray), []marks.Mark{m}, nil, marks.InjuryMode)

	assertColor(t, s.Image(), 60, 120, r.Palette().Injury)
	assertColor(t, s.Image(), 150, 300, color.NRGBA{128, 128, 128, 255})
}

// whiteInside counts near-white pixels strictly inside radius around (cx, cy).
func whiteInside(img image.Image, cx, cy int, radius float64) int {
	n := 0
	for y := cy - int(radius); y <= cy+int(radius); y++ {
		for x := cx - int(radius); x <= cx+int(radius); x++ {
			if math.Hypot(float64(x)+0.5-float64(cx), float64(y)+0.5-float64(cy)) >= radius {
				continue
			}
			r, g, b, _ := rgbAt(img, x, y)
			if r > 240 && g > 240 && b > 240 {
				n++
			}
		}
	}
	return n
}

func TestRender_GlyphDrawnForSubtype(t *testing.T) {
	ref := solidImage(SurfaceWidth, SurfaceHeight, gray)
	r := NewRenderer(DefaultPalette())

	plain := NewSurface()
	r.Render(plain, ref, []marks.Mark{testMark(t, marks.NormalizedAt(0.5, 0.5), marks.Injury, "")}, nil, marks.InjuryMode)
	if n := whiteInside(plain.Image(), 150, 300, 6); n != 0 {
		t.Errorf("marker without subtype has %d white pixels inside the fill", n)
	}

	labeled := NewSurface()
	r.Render(labeled, ref, []marks.Mark{testMark(t, marks.NormalizedAt(0.5, 0.5), marks.Injury, "Laceration")}, nil, marks.InjuryMode)
	if n := whiteInside(labeled.Image(), 150, 300, 6); n == 0 {
		t.Error("marker with subtype has no glyph pixels")
	}
}

func TestRender_PendingMark(t *testing.T) {
	p := DefaultPalette()
	tests := []struct {
		mode    marks.DisplayMode
		outline color.NRGBA
	}{
		{marks.InjuryMode, p.Injury},
		{marks.InterventionMode, p.Intervention},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			s := NewSurface()
			r := NewRenderer(p)
			pending := marks.NormalizedAt(0.5, 0.25)
			r.Render(s, solidImage(SurfaceWidth, SurfaceHeight, gray), nil, &pending, tt.mode)

			assertColor(t, s.Image(), 159, 150, tt.outline)

			cr, cg, cb, ca := rgbAt(s.Image(), 150, 150)
			if ca != 255 {
				t.Errorf("pending center alpha: got %d, want 255", ca)
			}
			if cr >= 110 || cg >= 110 || cb >= 110 {
				t.Errorf("pending center (%d,%d,%d) not darkened", cr, cg, cb)
			}
			if cr < 40 {
				t.Errorf("pending center red=%d; fill should be translucent over the reference", cr)
			}
		})
	}
}

func TestRender_PendingDrawnOverMarks(t *testing.T) {
	s := NewSurface()
	r := NewRenderer(DefaultPalette())
	m := testMark(t, marks.NormalizedAt(0.5, 0.5), marks.IV, "")
	pending := marks.NormalizedAt(0.5, 0.5)

	r.Render(s, solidImage(SurfaceWidth, SurfaceHeight, gray), []marks.Mark{m}, &pending, marks.InjuryMode)

	// The pending ring at radius 10 is outside the marker stroke.
	assertColor(t, s.Image(), 159, 300, r.Palette().Injury)
	// The marker fill is dimmed by the translucent pending disc.
	_, _, b, _ := rgbAt(s.Image(), 150, 300)
	if b >= r.Palette().Intervention.B {
		t.Errorf("marker under pending disc not dimmed: blue=%d", b)
	}
}

func TestRender_NoReferenceSkipsMarks(t *testing.T) {
	s := NewSurface()
	draw.Draw(s.Image(), s.Image().Bounds(), image.NewUniform(gray), image.Point{}, draw.Src)
	r := NewRenderer(DefaultPalette())
	pending := marks.NormalizedAt(0.2, 0.2)

	r.Render(s, nil, []marks.Mark{testMark(t, marks.NormalizedAt(0.5, 0.5), marks.Injury, "Burn")}, &pending, marks.InjuryMode)

	for _, pt := range []image.Point{{150, 300}, {60, 120}, {0, 0}} {
		if _, _, _, a := rgbAt(s.Image(), pt.X, pt.Y); a != 0 {
			t.Errorf("pixel %v: alpha %d, want cleared surface", pt, a)
		}
	}
}

func TestRender_MarkNearEdgeIsClipped(t *testing.T) {
	s := NewSurface()
	r := NewRenderer(DefaultPalette())
	m := testMark(t, marks.NormalizedAt(0, 0), marks.Pain, "")

	// Must not panic when the marker extends past the surface.
	r.Render(s, solidImage(SurfaceWidth, SurfaceHeight, gray), []marks.Mark{m}, nil, marks.InjuryMode)
	assertColor(t, s.Image(), 0, 0, r.Palette().Pain)
}

func TestSurface(t *testing.T) {
	s := NewSurface()
	if s.Width() != SurfaceWidth || s.Height() != SurfaceHeight {
		t.Errorf("surface: got %dx%d", s.Width(), s.Height())
	}
	draw.Draw(s.Image(), s.Image().Bounds(), image.NewUniform(gray), image.Point{}, draw.Src)
	s.Clear()
	if _, _, _, a := rgbAt(s.Image(), 10, 10); a != 0 {
		t.Errorf("Clear left alpha %d", a)
	}
}
