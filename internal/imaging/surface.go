package imaging

import (
	"image"
	"image/draw"
)

// Fixed surface dimensions. The reference image is scaled to fill exactly
// this area regardless of its native resolution.
const (
	SurfaceWidth  = 300
	SurfaceHeight = 600
)

// Surface is the raster the renderer draws on.
type Surface struct {
	img *image.RGBA
}

// NewSurface allocates a transparent SurfaceWidth×SurfaceHeight surface.
func NewSurface() *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, SurfaceWidth, SurfaceHeight))}
}

// Image returns the backing raster. Callers must not retain it across
// redraws if they need a stable copy.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.img.Bounds().Dx()
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.img.Bounds().Dy()
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}
