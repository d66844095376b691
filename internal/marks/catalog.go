package marks

// TypeOption is one kind offered when a pending mark awaits a type,
// with the subtypes that may accompany it.
type TypeOption struct {
	Kind     Kind     `json:"kind"`
	Subtypes []string `json:"subtypes"`
}

var catalog = map[DisplayMode][]TypeOption{
	InjuryMode: {
		{Kind: Injury, Subtypes: []string{"Laceration", "Abrasion", "Contusion", "Burn", "Fracture", "Swelling", "Puncture"}},
		{Kind: Pain, Subtypes: []string{"Sharp", "Dull", "Burning", "Tenderness"}},
	},
	InterventionMode: {
		{Kind: IV, Subtypes: []string{"Cannula", "Intraosseous", "Central Line"}},
		{Kind: Other, Subtypes: []string{"Splint", "Tourniquet", "Dressing", "Chest Seal"}},
	},
}

// OptionsFor returns the type options valid in a display mode. The returned
// slice is a copy.
func OptionsFor(mode DisplayMode) []TypeOption {
	src := catalog[mode]
	out := make([]TypeOption, len(src))
	for i, opt := range src {
		out[i] = TypeOption{Kind: opt.Kind, Subtypes: append([]string(nil), opt.Subtypes...)}
	}
	return out
}
