// Package action defines canonical move types, the strict normalization
// boundary for raw action labels, and chronological sequencing of
// per-seat action lists.
package action

import (
	"fmt"
	"sort"
	"strings"

	"github.com/feltvision/tabletracker/internal/position"
)

// Move is a canonical player action.
type Move int

const (
	Fold Move = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

func (m Move) String() string {
	switch m {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Bet:
		return "bet"
	case Raise:
		return "raise"
	case AllIn:
		return "all_in"
	default:
		return fmt.Sprintf("move(%d)", int(m))
	}
}

// IsAggressive reports whether the move reopens the betting.
func (m Move) IsAggressive() bool {
	return m == Bet || m == Raise
}

// InvalidMoveError reports a raw label that could not be normalized to a
// canonical move.
type InvalidMoveError struct {
	Raw string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("cannot normalize action label %q", e.Raw)
}

// aliases maps lower-cased raw labels to canonical moves. Built once,
// never mutated. The odd entries (call_35, or_35) are template names
// that carry a bet size in the label.
var aliases = map[string]Move{
	"fold":    Fold,
	"f":       Fold,
	"check":   Check,
	"k":       Check,
	"x":       Check,
	"call":    Call,
	"call_35": Call,
	"c":       Call,
	"bet":     Bet,
	"b":       Bet,
	"raise":   Raise,
	"or_35":   Raise,
	"r":       Raise,
	"all_in":  AllIn,
	"allin":   AllIn,
	"all-in":  AllIn,
}

// Parse normalizes a raw action label to a canonical Move. Parsing a
// label that is already canonical returns the same move.
func Parse(raw string) (Move, error) {
	if m, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return m, nil
	}
	return Fold, &InvalidMoveError{Raw: raw}
}

// NormalizeAll converts a raw per-position action map into canonical
// enums. Unlike the per-seat evidence merge upstream, this boundary is
// strict: an unrecognized position key or action label fails the whole
// call, naming the offending key or index. A wrong seat or action here
// would corrupt the reconstructed history downstream.
func NormalizeAll(raw map[string][]string) (map[position.Position][]Move, error) {
	result := make(map[position.Position][]Move, len(raw))

	// Deterministic error selection regardless of map iteration order.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		pos, err := position.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("position key %q: %w", key, err)
		}
		labels := raw[key]
		moves := make([]Move, 0, len(labels))
		for i, label := range labels {
			m, err := Parse(label)
			if err != nil {
				return nil, fmt.Errorf("position %s move %d: %w", pos, i, err)
			}
			moves = append(moves, m)
		}
		result[pos] = moves
	}
	return result, nil
}
