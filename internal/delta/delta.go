// Package delta reconstructs moves from bid-amount changes between two
// table snapshots. It is an independent evidence path from the betting
// state machine: when action-text detection is unreliable but the chip
// amounts are not, the deltas still tell most of the story. It trades
// turn precision for robustness and is never merged with the label path.
package delta

import (
	"fmt"
	"sort"

	"github.com/feltvision/tabletracker/internal/game"
	"github.com/feltvision/tabletracker/internal/position"
)

// Action is the move vocabulary of the delta path. It is wider than the
// label path's: forced blind postings are visible as bid changes, so
// they appear here.
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
	SmallBlind
	BigBlind
)

func (a Action) String() string {
	switch a {
	case Fold:
		return "fold"
	case Check:
		return "check"
	case Call:
		return "call"
	case Raise:
		return "raise"
	case SmallBlind:
		return "sb"
	case BigBlind:
		return "bb"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Move is a reconstructed move, a derived read-only value.
type Move struct {
	PlayerNumber      int
	Action            Action
	Amount            float64
	Street            game.Street
	TotalContribution float64
}

// smallBlindPost is the table's small-blind size in big-blind units. A
// seat sitting at exactly this amount posted the small blind.
const smallBlindPost = 0.5

// slotRank orders seats by postflop action order, blinds first. Unknown
// seats sort after every known one, in seat order; the order is best
// effort, not turn-accurate.
var slotRank = func() map[position.Position]int {
	ranks := make(map[position.Position]int)
	for i, pos := range position.PostflopActionOrder() {
		ranks[pos] = i
	}
	return ranks
}()

// Reconstruct infers the moves between two bid snapshots. Per seat with
// a change: a cleared bid is a fold, a bid at the small-blind size is
// the forced posting (always preflop), a new table-high bid is a raise
// for the added amount, any other added chips are a call. Seats with no
// bid in either snapshot produce nothing.
func Reconstruct(current, previous map[int]float64, street game.Street, positions map[int]string) []Move {
	if len(current) == 0 {
		return nil
	}

	var prevMax, curMax float64
	for _, bid := range previous {
		if bid > prevMax {
			prevMax = bid
		}
	}
	for _, bid := range current {
		if bid > curMax {
			curMax = bid
		}
	}

	var moves []Move
	for _, seat := range bettingOrder(current, positions) {
		cur := current[seat]
		prev := previous[seat]
		delta := cur - prev

		switch {
		case cur == 0 && prev == 0:
			// Seat was never in the pot this street; nothing to report.
		case cur == 0:
			moves = append(moves, Move{
				PlayerNumber: seat,
				Action:       Fold,
				Street:       street,
			})
		case cur == smallBlindPost:
			// Forced posting; only ever happens before the flop, so the
			// street argument is overridden.
			moves = append(moves, Move{
				PlayerNumber:      seat,
				Action:            SmallBlind,
				Amount:            cur,
				Street:            game.Preflop,
				TotalContribution: cur,
			})
		case street == game.Preflop && prev == smallBlindPost && cur <= prevMax:
			// The small blind completing to the full bet is part of the
			// forced posting already reported, not a voluntary move. A
			// bid above the table's previous maximum is a real raise and
			// falls through to the branches below.
		case delta > 0 && cur > prevMax:
			moves = append(moves, Move{
				PlayerNumber:      seat,
				Action:            Raise,
				Amount:            delta,
				Street:            street,
				TotalContribution: cur,
			})
		case delta > 0:
			moves = append(moves, Move{
				PlayerNumber:      seat,
				Action:            Call,
				Amount:            delta,
				Street:            street,
				TotalContribution: cur,
			})
		case delta == 0 && cur == curMax && curMax == 0:
			moves = append(moves, Move{
				PlayerNumber: seat,
				Action:       Check,
				Street:       street,
			})
		}
		// Any other zero-delta seat already acted earlier in the street;
		// no move is emitted for it.
	}
	return moves
}

// bettingOrder sorts the seats that appear in the snapshot into fixed
// betting slots by their known position label, with unknown seats
// appended afterward in seat order.
func bettingOrder(current map[int]float64, positions map[int]string) []int {
	type rankedSeat struct {
		seat int
		rank int
	}

	known := make([]rankedSeat, 0, len(current))
	var unknown []int
	for seat := range current {
		pos, err := position.Parse(positions[seat])
		if err != nil {
			unknown = append(unknown, seat)
			continue
		}
		known = append(known, rankedSeat{seat: seat, rank: slotRank[pos]})
	}

	sort.Slice(known, func(i, j int) bool {
		if known[i].rank != known[j].rank {
			return known[i].rank < known[j].rank
		}
		return known[i].seat < known[j].seat
	})
	sort.Ints(unknown)

	order := make([]int, 0, len(current))
	for _, rs := range known {
		order = append(order, rs.seat)
	}
	return append(order, unknown...)
}
