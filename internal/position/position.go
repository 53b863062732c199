// Package position defines canonical seat positions and the recovery
// heuristics used to rebuild a table layout from partial detections.
package position

import (
	"fmt"
	"strings"
)

// Position represents a seat's structural role in the betting order.
type Position int

const (
	NoPosition Position = iota
	EarlyPosition
	MiddlePosition
	Cutoff
	Button
	SmallBlind
	BigBlind
)

func (p Position) String() string {
	switch p {
	case EarlyPosition:
		return "EP"
	case MiddlePosition:
		return "MP"
	case Cutoff:
		return "CO"
	case Button:
		return "BTN"
	case SmallBlind:
		return "SB"
	case BigBlind:
		return "BB"
	default:
		return "NO"
	}
}

// ActionOrder returns positions in voluntary action order. Blinds are
// posted automatically and act last before the flop.
func ActionOrder() []Position {
	return []Position{EarlyPosition, MiddlePosition, Cutoff, Button, SmallBlind, BigBlind}
}

// PostflopActionOrder returns positions in postflop action order, blinds
// first.
func PostflopActionOrder() []Position {
	return []Position{SmallBlind, BigBlind, EarlyPosition, MiddlePosition, Cutoff, Button}
}

// InvalidPositionError reports a raw label that could not be normalized
// to a canonical position.
type InvalidPositionError struct {
	Raw string
}

func (e *InvalidPositionError) Error() string {
	return fmt.Sprintf("cannot normalize position label %q", e.Raw)
}

// aliases maps upper-cased raw labels to canonical positions. Built once,
// never mutated.
var aliases = map[string]Position{
	"EP":              EarlyPosition,
	"UTG":             EarlyPosition,
	"EARLY":           EarlyPosition,
	"EARLY_POSITION":  EarlyPosition,
	"MP":              MiddlePosition,
	"MIDDLE":          MiddlePosition,
	"MIDDLE_POSITION": MiddlePosition,
	"CO":              Cutoff,
	"CUT":             Cutoff,
	"CUTOFF":          Cutoff,
	"BTN":             Button,
	"BU":              Button,
	"BUTTON":          Button,
	"DEALER":          Button,
	"SB":              SmallBlind,
	"SMALL":           SmallBlind,
	"SMALL_BLIND":     SmallBlind,
	"BB":              BigBlind,
	"BIG":             BigBlind,
	"BIG_BLIND":       BigBlind,
}

// decorationSuffixes are template-name decorations that leave the
// underlying seat position unchanged (a folded BTN is still the BTN).
var decorationSuffixes = []string{"_fold", "_low", "_now"}

// Parse normalizes a raw detection label to a canonical Position. The
// lookup is case-insensitive and strips decoration suffixes.
func Parse(raw string) (Position, error) {
	label := strings.ToUpper(strings.TrimSpace(raw))
	for _, suffix := range decorationSuffixes {
		upper := strings.ToUpper(suffix)
		if strings.HasSuffix(label, upper) {
			label = strings.TrimSuffix(label, upper)
			break
		}
	}
	if pos, ok := aliases[label]; ok {
		return pos, nil
	}
	return NoPosition, &InvalidPositionError{Raw: raw}
}

// Set is a set of canonical positions.
type Set map[Position]struct{}

// NewSet builds a Set from the given positions.
func NewSet(positions ...Position) Set {
	s := make(Set, len(positions))
	for _, p := range positions {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports whether p is in the set.
func (s Set) Contains(p Position) bool {
	_, ok := s[p]
	return ok
}

// IsSubset reports whether every element of s is in other.
func (s Set) IsSubset(other Set) bool {
	for p := range s {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// tableSizes lists the table sizes checked during recovery, smallest
// first so the tightest matching bucket wins.
var tableSizes = []int{2, 3, 4, 5, 6}

// TableBuckets maps table size to the positions present at that size.
func TableBuckets() map[int]Set {
	return map[int]Set{
		2: NewSet(SmallBlind, BigBlind),
		3: NewSet(Button, SmallBlind, BigBlind),
		4: NewSet(Cutoff, Button, SmallBlind, BigBlind),
		5: NewSet(EarlyPosition, Cutoff, Button, SmallBlind, BigBlind),
		6: NewSet(EarlyPosition, MiddlePosition, Cutoff, Button, SmallBlind, BigBlind),
	}
}

// recoveryPriority orders candidates when more than one position is
// missing from the matched bucket. The button and blinds anchor the
// table layout, so they are guessed first.
var recoveryPriority = []Position{Button, SmallBlind, BigBlind, Cutoff, EarlyPosition, MiddlePosition}

// RecoverMissing infers one absent position from the positions already
// known. It picks the smallest table-size bucket that covers the known
// set, and returns the single missing position if exactly one is absent,
// or the highest-priority missing position otherwise. It reports false
// when the known set already fills a bucket. This is a deliberately
// lossy heuristic: beyond the priority tie-break it never invents a
// position.
func RecoverMissing(known Set) (Position, bool) {
	if len(known) == 0 {
		return NoPosition, false
	}

	buckets := TableBuckets()
	expected := buckets[6]
	for _, size := range tableSizes {
		if known.IsSubset(buckets[size]) {
			expected = buckets[size]
			break
		}
	}

	missing := make(Set)
	for p := range expected {
		if !known.Contains(p) {
			missing[p] = struct{}{}
		}
	}

	if len(missing) == 0 {
		return NoPosition, false
	}
	if len(missing) == 1 {
		for p := range missing {
			return p, true
		}
	}
	for _, p := range recoveryPriority {
		if missing.Contains(p) {
			return p, true
		}
	}
	return NoPosition, false
}

// FitsTableSize reports whether the detected set of positions is
// possible at some table size. Partial detections are fine; an
// impossible combination (say MP without EP at a short table) is not.
func FitsTableSize(detected Set) bool {
	if len(detected) == 0 {
		return true
	}
	buckets := TableBuckets()
	for _, size := range tableSizes {
		if detected.IsSubset(buckets[size]) {
			return true
		}
	}
	return false
}
