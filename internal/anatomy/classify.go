package anatomy

import (
	"fmt"
	"strings"
)

// View identifies which reference silhouette a point belongs to.
type View string

const (
	// Anterior is the front view. The viewer faces the subject.
	Anterior View = "anterior"
	// Posterior is the back view. The viewer stands behind the subject.
	Posterior View = "posterior"
)

// Views lists both views in display order.
var Views = []View{Anterior, Posterior}

// ParseView converts a case-insensitive name ("anterior", "front",
// "posterior", "back") to a View.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anterior", "front":
		return Anterior, nil
	case "posterior", "back":
		return Posterior, nil
	default:
		return "", fmt.Errorf("unknown view: %q", s)
	}
}

// Valid reports whether v is one of the two known views.
func (v View) Valid() bool {
	return v == Anterior || v == Posterior
}

// Opposite returns the other view.
func (v View) Opposite() View {
	if v == Posterior {
		return Anterior
	}
	return Posterior
}

// String returns the lower-case view name.
func (v View) String() string {
	return string(v)
}

// Title returns the capitalized view name used in labels.
func (v View) Title() string {
	switch v {
	case Anterior:
		return "Anterior"
	case Posterior:
		return "Posterior"
	default:
		return "Unknown"
	}
}

// PatientSide is the patient's own left or right.
type PatientSide string

const (
	Right PatientSide = "Right"
	Left  PatientSide = "Left"
)

// Threshold values for the vertical bands and the torso column.
const (
	HeadMax      = 0.125
	NeckMax      = 0.17
	ShoulderMax  = 0.22
	ChestMax     = 0.35
	UpperArmMax  = 0.38
	UpperBodyMax = 0.45
	PelvisMax    = 0.52
	HipMax       = 0.62
	ThighMax     = 0.72
	KneeMax      = 0.77
	LowerLegMax  = 0.92

	TorsoLeft  = 0.25
	TorsoRight = 0.75
	Midline    = 0.5
)

// Thresholds returns every vertical band boundary, top to bottom.
func Thresholds() []float64 {
	return []float64{
		HeadMax, NeckMax, ShoulderMax, ChestMax, UpperArmMax, UpperBodyMax,
		PelvisMax, HipMax, ThighMax, KneeMax, LowerLegMax,
	}
}

// Band is one cell of the classification table.
type Band int

const (
	BandHead Band = iota
	BandNeck
	BandChest
	BandAbdomen
	BandShoulder
	BandUpperArm
	BandElbow
	BandPelvis
	BandForearm
	BandHip
	BandHand
	BandThigh
	BandKnee
	BandLowerLeg
	BandFoot
)

// bandLabel holds the anterior and posterior label for a band. Sided bands
// are prefixed with the patient side at classification time.
type bandLabel struct {
	anterior  string
	posterior string
	sided     bool
}

var bandLabels = map[Band]bandLabel{
	BandHead:     {"Head/Face (Anterior)", "Head (Posterior)", false},
	BandNeck:     {"Neck (Anterior)", "Neck (Posterior)", false},
	BandChest:    {"Chest", "Upper Back", false},
	BandAbdomen:  {"Abdomen", "Mid Back", false},
	BandShoulder: {"Shoulder", "Shoulder", true},
	BandUpperArm: {"Upper Arm", "Upper Arm", true},
	BandElbow:    {"Elbow", "Elbow", true},
	BandPelvis:   {"Pelvis/Groin", "Lower Back/Buttocks", false},
	BandForearm:  {"Forearm", "Forearm", true},
	BandHip:      {"Hip/Groin", "Buttock", true},
	BandHand:     {"Hand/Wrist", "Hand/Wrist", true},
	BandThigh:    {"Thigh", "Thigh", true},
	BandKnee:     {"Knee", "Knee", true},
	BandLowerLeg: {"Shin", "Calf", true},
	BandFoot:     {"Foot/Ankle", "Foot/Ankle", true},
}

// Sided reports whether labels in band b carry a patient side.
func (b Band) Sided() bool {
	return bandLabels[b].sided
}

// Classify maps a normalized point on the given view to a region label.
//
// Sided regions are prefixed with the patient side ("Right Upper Arm");
// midline regions are not ("Chest", "Upper Back"). An unknown view is
// treated as Anterior.
func Classify(x, y float64, view View) string {
	x, y = clamp01(x), clamp01(y)
	band := BandAt(x, y)
	lbl := bandLabels[band]

	name := lbl.anterior
	if view == Posterior {
		name = lbl.posterior
	}
	if lbl.sided {
		return string(SideAt(x, view)) + " " + name
	}
	return name
}

// SideAt returns the patient side for a horizontal position on a view.
func SideAt(x float64, view View) PatientSide {
	leftHalf := x < Midline
	if view == Posterior {
		if leftHalf {
			return Left
		}
		return Right
	}
	if leftHalf {
		return Right
	}
	return Left
}

// BandAt returns the classification band for a normalized point.
func BandAt(x, y float64) Band {
	torso := inTorso(x)

	switch {
	case y < HeadMax:
		return BandHead
	case y < NeckMax:
		return BandNeck
	case y < UpperBodyMax:
		if torso {
			if y < ChestMax {
				return BandChest
			}
			return BandAbdomen
		}
		switch {
		case y < ShoulderMax:
			return BandShoulder
		case y < UpperArmMax:
			return BandUpperArm
		default:
			return BandElbow
		}
	case y < PelvisMax:
		if torso {
			return BandPelvis
		}
		return BandForearm
	case y < HipMax:
		if torso {
			return BandHip
		}
		return BandHand
	case y < ThighMax:
		return BandThigh
	case y < KneeMax:
		return BandKnee
	case y < LowerLegMax:
		return BandLowerLeg
	default:
		return BandFoot
	}
}

func inTorso(x float64) bool {
	return x > TorsoLeft && x < TorsoRight
}

func clamp01(v float64) float64 {
	if v != v { // NaN
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
