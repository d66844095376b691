package imaging

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/bodymap-mcp/internal/marks"
)

// Default marker colors as hex strings.
const (
	DefaultInjuryHex       = "#ef4444"
	DefaultPainHex         = "#f59e0b"
	DefaultInterventionHex = "#3b82f6"
	DefaultPendingFillHex  = "#111827"
)

// pendingFillAlpha is the opacity of the pending-mark disc.
const pendingFillAlpha = 0.45

// Palette holds the colors used to draw markers.
type Palette struct {
	Injury       color.NRGBA
	Pain         color.NRGBA
	Intervention color.NRGBA
	PendingFill  color.NRGBA
	Stroke       color.NRGBA
	Glyph        color.NRGBA
}

// PaletteSpec is the hex form of a Palette, as read from configuration.
// Empty fields select the defaults.
type PaletteSpec struct {
	Injury       string
	Pain         string
	Intervention string
	PendingFill  string
}

// DefaultPalette returns the built-in marker colors.
func DefaultPalette() Palette {
	p, _ := NewPalette(PaletteSpec{})
	return p
}

// NewPalette builds a palette from hex strings. Every invalid entry is
// replaced by its default, and the returned error lists what was replaced.
func NewPalette(spec PaletteSpec) (Palette, error) {
	var bad []string

	pick := func(name, hex, def string, alpha float64) color.NRGBA {
		if hex == "" {
			hex = def
		}
		c, err := colorful.Hex(hex)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s=%q", name, hex))
			c, _ = colorful.Hex(def)
		}
		return toNRGBA(c, alpha)
	}

	p := Palette{
		Injury:       pick("injury", spec.Injury, DefaultInjuryHex, 1),
		Pain:         pick("pain", spec.Pain, DefaultPainHex, 1),
		Intervention: pick("intervention", spec.Intervention, DefaultInterventionHex, 1),
		PendingFill:  pick("pendingFill", spec.PendingFill, DefaultPendingFillHex, pendingFillAlpha),
		Stroke:       color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Glyph:        color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
	if len(bad) > 0 {
		return p, fmt.Errorf("invalid palette colors replaced by defaults: %v", bad)
	}
	return p, nil
}

// Fill returns the marker fill color for a kind.
func (p Palette) Fill(k marks.Kind) color.NRGBA {
	switch k {
	case marks.Injury:
		return p.Injury
	case marks.Pain:
		return p.Pain
	default:
		return p.Intervention
	}
}

// Outline returns the pending-mark outline color for a display mode.
func (p Palette) Outline(mode marks.DisplayMode) color.NRGBA {
	if mode == marks.InjuryMode {
		return p.Injury
	}
	return p.Intervention
}

func toNRGBA(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(alpha*255 + 0.5)}
}
