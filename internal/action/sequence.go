package action

import "github.com/feltvision/tabletracker/internal/position"

// Step is one entry in a reconstructed action sequence.
type Step struct {
	Position position.Position
	Move     Move
}

// BuildSequence interleaves per-position action lists into one global
// sequence, round-robin by canonical action-order rank: pass i emits
// each present position's i-th action, positions in [EP MP CO BTN SB
// BB] order.
//
// This is an approximation of turn order, not a faithful per-event
// timeline: a seat's second action lands in the second pass even if it
// really happened earlier. Detections arrive as unordered per-frame
// snapshots, so a true timeline is not recoverable here; do not
// "correct" this.
func BuildSequence(moves map[position.Position][]Move) []Step {
	order := make([]position.Position, 0, len(moves))
	for _, pos := range position.ActionOrder() {
		if _, ok := moves[pos]; ok {
			order = append(order, pos)
		}
	}

	maxLen := 0
	for _, list := range moves {
		if len(list) > maxLen {
			maxLen = len(list)
		}
	}

	var sequence []Step
	for i := 0; i < maxLen; i++ {
		for _, pos := range order {
			if i < len(moves[pos]) {
				sequence = append(sequence, Step{Position: pos, Move: moves[pos][i]})
			}
		}
	}
	return sequence
}
