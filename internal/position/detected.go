package position

import "strings"

// Kind classifies what a position-slot detection actually contains.
// Template matching over the position markers can return the marker
// itself, action text that covered the marker, or noise.
type Kind int

const (
	// KindPosition means the detection is direct position evidence.
	KindPosition Kind = iota
	// KindAction means action text was matched in a position slot. The
	// seat still has a position, it just was not visible; recovery kicks
	// in for these.
	KindAction
	// KindNone means the detection carries no seat information.
	KindNone
)

// Detected is a classified raw detection from a position slot.
type Detected struct {
	Raw      string
	Kind     Kind
	Position Position // valid only when Kind == KindPosition
}

// actionLabels are the action-text template names that can replace a
// position marker on screen.
var actionLabels = map[string]struct{}{
	"folds":       {},
	"fold":        {},
	"calls":       {},
	"call":        {},
	"calls_1":     {},
	"checks":      {},
	"check":       {},
	"bets":        {},
	"bet":         {},
	"open_raises": {},
	"raise":       {},
	"c_bets":      {},
	"cbet":        {},
	"c-bet":       {},
}

// Classify sorts a raw position-slot label into exactly one of three
// kinds: direct position evidence, misdetected action text, or neither.
func Classify(raw string) Detected {
	label := strings.TrimSpace(raw)
	if strings.EqualFold(label, "NO") || label == "" {
		return Detected{Raw: raw, Kind: KindNone}
	}
	if pos, err := Parse(label); err == nil {
		return Detected{Raw: raw, Kind: KindPosition, Position: pos}
	}
	if _, ok := actionLabels[strings.ToLower(label)]; ok {
		return Detected{Raw: raw, Kind: KindAction}
	}
	return Detected{Raw: raw, Kind: KindNone}
}
