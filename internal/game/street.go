package game

import "fmt"

// Street represents a betting phase, keyed to the number of revealed
// community cards.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
)

// Streets lists the four streets in play order.
func Streets() []Street {
	return []Street{Preflop, Flop, Turn, River}
}

func (s Street) String() string {
	switch s {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	default:
		return fmt.Sprintf("street(%d)", int(s))
	}
}

// StreetFromBoard maps a community-card count to its street. Counts
// other than 0/3/4/5 have no street; mid-deal frames land here and must
// be rejected, not guessed.
func StreetFromBoard(cards int) (Street, error) {
	switch cards {
	case 0:
		return Preflop, nil
	case 3:
		return Flop, nil
	case 4:
		return Turn, nil
	case 5:
		return River, nil
	default:
		return Preflop, fmt.Errorf("no street for %d community cards", cards)
	}
}
