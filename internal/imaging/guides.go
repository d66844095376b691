package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/bodymap-mcp/internal/anatomy"
)

// DefaultGuideColor is semi-transparent cyan.
var DefaultGuideColor = color.NRGBA{R: 0, G: 200, B: 255, A: 160}

// GuideLine is one classifier boundary drawn by DrawRegionGuides.
type GuideLine struct {
	// Horizontal is true for band thresholds (constant Y), false for the
	// torso column edges and midline (constant X).
	Horizontal bool `json:"horizontal"`
	// Fraction is the normalized position of the line.
	Fraction float64 `json:"fraction"`
	// Pixel is the line's row or column on the surface.
	Pixel int `json:"pixel"`
}

// RegionGuides returns the classifier boundaries for a surface of the
// given size, horizontal lines first, top to bottom.
func RegionGuides(width, height int) []GuideLine {
	var lines []GuideLine
	for _, th := range anatomy.Thresholds() {
		lines = append(lines, GuideLine{Horizontal: true, Fraction: th, Pixel: int(th * float64(height))})
	}
	for _, fx := range []float64{anatomy.TorsoLeft, anatomy.Midline, anatomy.TorsoRight} {
		lines = append(lines, GuideLine{Horizontal: false, Fraction: fx, Pixel: int(fx * float64(width))})
	}
	return lines
}

// DrawRegionGuides overlays the classifier boundaries on img. Horizontal
// lines are labeled with their pixel row.
//
// The torso column lines only span the rows where the torso/arm split
// applies (from the neck threshold to the hip threshold).
func DrawRegionGuides(img *image.RGBA, c color.Color) []GuideLine {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	lines := RegionGuides(width, height)

	top := int(anatomy.NeckMax * float64(height))
	bottom := int(anatomy.HipMax * float64(height))

	for _, l := range lines {
		if l.Horizontal {
			for x := 0; x < width; x++ {
				img.Set(bounds.Min.X+x, bounds.Min.Y+l.Pixel, c)
			}
			continue
		}
		y0, y1 := top, bottom
		if l.Fraction == anatomy.Midline {
			y0, y1 = 0, height
		}
		for y := y0; y < y1; y++ {
			img.Set(bounds.Min.X+l.Pixel, bounds.Min.Y+y, c)
		}
	}

	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}
	for _, l := range lines {
		if l.Horizontal {
			drawLabel(img, bounds.Min.X+2, bounds.Min.Y+l.Pixel+2, fmt.Sprintf("%d", l.Pixel), labelColor, bgColor)
		}
	}
	return lines
}

// digitGlyphs is a 3x5 pixel font for guide labels.
var digitGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws digits on a filled background box with its top-left at (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	const charWidth = 4
	const labelHeight = 7

	set := func(px, py int, c color.Color) {
		if (image.Point{px, py}).In(img.Bounds()) {
			img.Set(px, py, c)
		}
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range digitGlyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					set(cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
