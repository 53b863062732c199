package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltvision/tabletracker/internal/game"
)

func TestReconstruct_ButtonCallsBlinds(t *testing.T) {
	moves := Reconstruct(
		map[int]float64{1: 1.0, 2: 1.0, 3: 1.0},
		map[int]float64{1: 0, 2: 0.5, 3: 1.0},
		game.Preflop,
		map[int]string{1: "BTN", 2: "SB", 3: "BB"},
	)

	require.Len(t, moves, 1, "only the button made a voluntary move")
	assert.Equal(t, Move{
		PlayerNumber:      1,
		Action:            Call,
		Amount:            1.0,
		Street:            game.Preflop,
		TotalContribution: 1.0,
	}, moves[0])
}

func TestReconstruct_UntouchedSeatProducesNothing(t *testing.T) {
	moves := Reconstruct(
		map[int]float64{1: 0, 2: 2.0},
		map[int]float64{1: 0, 2: 1.0},
		game.Flop,
		map[int]string{1: "BTN", 2: "BB"},
	)

	require.Len(t, moves, 1)
	assert.Equal(t, 2, moves[0].PlayerNumber)
}

func TestReconstruct_ClearedBidIsFold(t *testing.T) {
	moves := Reconstruct(
		map[int]float64{1: 0, 2: 3.0},
		map[int]float64{1: 1.0, 2: 3.0},
		game.Flop,
		map[int]string{1: "CO", 2: "BTN"},
	)

	require.Len(t, moves, 1)
	assert.Equal(t, Move{
		PlayerNumber: 1,
		Action:       Fold,
		Street:       game.Flop,
	}, moves[0])
}

func TestReconstruct_SmallBlindPostForcedPreflop(t *testing.T) {
	// The SB posting is recognized by its amount and pinned to preflop
	// even when the caller passes a later street.
	moves := Reconstruct(
		map[int]float64{2: 0.5},
		map[int]float64{2: 0},
		game.Turn,
		map[int]string{2: "SB"},
	)

	require.Len(t, moves, 1)
	assert.Equal(t, Move{
		PlayerNumber:      2,
		Action:            SmallBlind,
		Amount:            0.5,
		Street:            game.Preflop,
		TotalContribution: 0.5,
	}, moves[0])
}

func TestReconstruct_SmallBlindCompletionSuppressed(t *testing.T) {
	// The SB going from the posted 0.5 to the full bet preflop is the
	// tail end of the forced posting, not a voluntary move.
	moves := Reconstruct(
		map[int]float64{2: 1.0, 3: 1.0},
		map[int]float64{2: 0.5, 3: 1.0},
		game.Preflop,
		map[int]string{2: "SB", 3: "BB"},
	)
	assert.Empty(t, moves)
}

func TestReconstruct_SmallBlindPreflopRaise(t *testing.T) {
	// A new table-high bid from the SB seat is a real raise even though
	// its previous bid was the forced posting amount.
	moves := Reconstruct(
		map[int]float64{2: 5.0, 3: 1.0},
		map[int]float64{2: 0.5, 3: 1.0},
		game.Preflop,
		map[int]string{2: "SB", 3: "BB"},
	)

	require.Len(t, moves, 1)
	assert.Equal(t, Move{
		PlayerNumber:      2,
		Action:            Raise,
		Amount:            4.5,
		Street:            game.Preflop,
		TotalContribution: 5.0,
	}, moves[0])
}

func TestReconstruct_RaiseBeatsPreviousMaximum(t *testing.T) {
	moves := Reconstruct(
		map[int]float64{1: 6.0, 2: 2.0},
		map[int]float64{1: 0, 2: 2.0},
		game.Flop,
		map[int]string{1: "BTN", 2: "SB"},
	)

	require.Len(t, moves, 1)
	assert.Equal(t, Move{
		PlayerNumber:      1,
		Action:            Raise,
		Amount:            6.0,
		Street:            game.Flop,
		TotalContribution: 6.0,
	}, moves[0])
}

func TestReconstruct_CallUpToPreviousMaximum(t *testing.T) {
	moves := Reconstruct(
		map[int]float64{1: 4.0, 2: 4.0},
		map[int]float64{1: 1.0, 2: 4.0},
		game.Turn,
		map[int]string{1: "BB", 2: "CO"},
	)

	require.Len(t, moves, 1)
	assert.Equal(t, Move{
		PlayerNumber:      1,
		Action:            Call,
		Amount:            3.0,
		Street:            game.Turn,
		TotalContribution: 4.0,
	}, moves[0])
}

func TestReconstruct_BettingOrder(t *testing.T) {
	// Everyone folds; output order follows the fixed slots SB, BB, EP,
	// MP, CO, BTN with the unknown seat appended last.
	moves := Reconstruct(
		map[int]float64{1: 0, 2: 0, 3: 0, 4: 0},
		map[int]float64{1: 1.0, 2: 1.0, 3: 1.0, 4: 1.0},
		game.Preflop,
		map[int]string{1: "BTN", 2: "SB", 3: "BB", 4: "??"},
	)

	require.Len(t, moves, 4)
	var players []int
	for _, m := range moves {
		assert.Equal(t, Fold, m.Action)
		players = append(players, m.PlayerNumber)
	}
	assert.Equal(t, []int{2, 3, 1, 4}, players)
}

func TestReconstruct_EmptySnapshots(t *testing.T) {
	assert.Empty(t, Reconstruct(nil, nil, game.Preflop, nil))
	assert.Empty(t, Reconstruct(map[int]float64{}, map[int]float64{1: 1.0}, game.Flop, nil))
}

func TestReconstruct_AllZeroBidsProduceNothing(t *testing.T) {
	moves := Reconstruct(
		map[int]float64{1: 0, 2: 0, 3: 0},
		map[int]float64{1: 0, 2: 0, 3: 0},
		game.Flop,
		map[int]string{1: "BTN", 2: "SB", 3: "BB"},
	)
	assert.Empty(t, moves)
}
