package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltvision/tabletracker/internal/action"
	"github.com/feltvision/tabletracker/internal/position"
)

func newStartedGame(t *testing.T, positions ...position.Position) *Game {
	t.Helper()
	g := New()
	for _, p := range positions {
		require.NoError(t, g.AddPlayer(p))
	}
	require.NoError(t, g.Start())
	return g
}

func TestAddPlayer_DuplicateFails(t *testing.T) {
	g := New()
	require.NoError(t, g.AddPlayer(position.Button))
	assert.Error(t, g.AddPlayer(position.Button))
}

func TestAddPlayer_AfterStartFails(t *testing.T) {
	g := newStartedGame(t, position.Button, position.BigBlind)
	assert.ErrorIs(t, g.AddPlayer(position.SmallBlind), ErrAlreadyStarted)
}

func TestStart_NeedsTwoPlayers(t *testing.T) {
	g := New()
	require.NoError(t, g.AddPlayer(position.Button))
	assert.Error(t, g.Start())
}

func TestCurrentStreet_BeforeStartFails(t *testing.T) {
	g := New()
	_, err := g.CurrentStreet()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestProcess_UnregisteredPositionFails(t *testing.T) {
	g := newStartedGame(t, position.Button, position.BigBlind)

	err := g.Process(position.Cutoff, action.Fold)
	require.Error(t, err)

	var invalid *InvalidActionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, position.Cutoff, invalid.Position)
	assert.Equal(t, action.Fold, invalid.Move)
	assert.Equal(t, Preflop, invalid.Street)
}

func TestCanAccept_PreflopBettingLevel(t *testing.T) {
	g := newStartedGame(t, position.Button, position.SmallBlind, position.BigBlind)

	// Blinds are outstanding: BTN faces a bet.
	assert.True(t, g.CanAccept(position.Button, action.Call))
	assert.True(t, g.CanAccept(position.Button, action.Raise))
	assert.True(t, g.CanAccept(position.Button, action.Fold))
	assert.False(t, g.CanAccept(position.Button, action.Check), "check with something to call")
	assert.False(t, g.CanAccept(position.Button, action.Bet), "bet while a bet is outstanding")

	// The big blind has already matched the level and may check.
	assert.True(t, g.CanAccept(position.BigBlind, action.Check))
	assert.False(t, g.CanAccept(position.BigBlind, action.Call), "nothing for the BB to call")
}

func TestCanAccept_HasNoSideEffects(t *testing.T) {
	g := newStartedGame(t, position.Button, position.BigBlind)

	before, err := g.CurrentStreet()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		g.CanAccept(position.Button, action.Call)
		g.CanAccept(position.Button, action.Check)
	}
	after, err := g.CurrentStreet()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, g.History()[Preflop])
}

func TestProcess_StreetAdvancesOnClosure(t *testing.T) {
	g := newStartedGame(t, position.Button, position.SmallBlind, position.BigBlind)

	require.NoError(t, g.Process(position.Button, action.Call))
	require.NoError(t, g.Process(position.SmallBlind, action.Call))
	street, err := g.CurrentStreet()
	require.NoError(t, err)
	assert.Equal(t, Preflop, street, "BB still has the option")

	require.NoError(t, g.Process(position.BigBlind, action.Check))
	street, err = g.CurrentStreet()
	require.NoError(t, err)
	assert.Equal(t, Flop, street)
}

func TestProcess_RaiseReopensAction(t *testing.T) {
	g := newStartedGame(t, position.Button, position.SmallBlind, position.BigBlind)

	require.NoError(t, g.Process(position.Button, action.Call))
	require.NoError(t, g.Process(position.SmallBlind, action.Call))
	require.NoError(t, g.Process(position.BigBlind, action.Raise))

	// Everyone who had matched the old level owes a response.
	street, err := g.CurrentStreet()
	require.NoError(t, err)
	assert.Equal(t, Preflop, street)
	assert.True(t, g.CanAccept(position.Button, action.Call))

	require.NoError(t, g.Process(position.Button, action.Call))
	require.NoError(t, g.Process(position.SmallBlind, action.Call))

	street, err = g.CurrentStreet()
	require.NoError(t, err)
	assert.Equal(t, Flop, street)
}

func TestProcess_FoldToOneCompletes(t *testing.T) {
	g := newStartedGame(t, position.Button, position.SmallBlind, position.BigBlind)

	require.NoError(t, g.Process(position.Button, action.Fold))
	require.NoError(t, g.Process(position.SmallBlind, action.Fold))
	assert.True(t, g.Complete())

	// Terminal: nothing further is accepted.
	assert.False(t, g.CanAccept(position.BigBlind, action.Check))
}

func TestProcess_FullHandToCompletion(t *testing.T) {
	g := newStartedGame(t, position.Cutoff, position.Button, position.SmallBlind, position.BigBlind)

	// Preflop: CO raises, everyone calls, BB comes along.
	require.NoError(t, g.Process(position.Cutoff, action.Raise))
	require.NoError(t, g.Process(position.Button, action.Call))
	require.NoError(t, g.Process(position.SmallBlind, action.Fold))
	require.NoError(t, g.Process(position.BigBlind, action.Call))

	street, err := g.CurrentStreet()
	require.NoError(t, err)
	require.Equal(t, Flop, street)

	// Flop: check, bet, calls.
	require.NoError(t, g.Process(position.BigBlind, action.Check))
	require.NoError(t, g.Process(position.Cutoff, action.Bet))
	require.NoError(t, g.Process(position.Button, action.Call))
	require.NoError(t, g.Process(position.BigBlind, action.Call))

	street, err = g.CurrentStreet()
	require.NoError(t, err)
	require.Equal(t, Turn, street)

	// Turn: checks all around.
	require.NoError(t, g.Process(position.BigBlind, action.Check))
	require.NoError(t, g.Process(position.Cutoff, action.Check))
	require.NoError(t, g.Process(position.Button, action.Check))

	street, err = g.CurrentStreet()
	require.NoError(t, err)
	require.Equal(t, River, street)

	// River: bet and calls close the hand.
	require.NoError(t, g.Process(position.BigBlind, action.Bet))
	require.NoError(t, g.Process(position.Cutoff, action.Call))
	require.NoError(t, g.Process(position.Button, action.Fold))
	assert.True(t, g.Complete())

	history := g.History()
	assert.Len(t, history[Preflop], 4)
	assert.Len(t, history[Flop], 4)
	assert.Len(t, history[Turn], 3)
	assert.Len(t, history[River], 3)
}

func TestHistory_AlwaysFourStreets(t *testing.T) {
	g := New()
	assert.Len(t, g.History(), 4)
	for _, s := range Streets() {
		_, ok := g.History()[s]
		assert.True(t, ok, "history missing street %s", s)
	}

	g = newStartedGame(t, position.Button, position.BigBlind)
	require.NoError(t, g.Process(position.Button, action.Call))
	history := g.History()
	assert.Len(t, history, 4)
	assert.Len(t, history[Preflop], 1)
	assert.Empty(t, history[River])
}

func TestHistory_SnapshotIsDetached(t *testing.T) {
	g := newStartedGame(t, position.Button, position.BigBlind)
	require.NoError(t, g.Process(position.Button, action.Call))

	snap := g.History()
	snap[Preflop] = append(snap[Preflop], action.Step{Position: position.Button, Move: action.Fold})
	assert.Len(t, g.History()[Preflop], 1, "mutating a snapshot must not touch the game")
}

func TestStreetNeverRegresses(t *testing.T) {
	g := newStartedGame(t, position.Button, position.SmallBlind, position.BigBlind)

	last, err := g.CurrentStreet()
	require.NoError(t, err)

	steps := []struct {
		pos position.Position
		mv  action.Move
	}{
		{position.Button, action.Call},
		{position.SmallBlind, action.Call},
		{position.BigBlind, action.Check},
		{position.SmallBlind, action.Check},
		{position.BigBlind, action.Bet},
		{position.Button, action.Call},
		{position.SmallBlind, action.Fold},
		{position.BigBlind, action.Check},
		{position.Button, action.Check},
	}
	for _, step := range steps {
		if g.Complete() {
			break
		}
		require.NoError(t, g.Process(step.pos, step.mv))
		street, err := g.CurrentStreet()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(street), int(last))
		last = street
	}
}

func TestBuildHistory_Empty(t *testing.T) {
	history, err := BuildHistory(nil)
	require.NoError(t, err)
	assert.Len(t, history, 4)
	for _, s := range Streets() {
		assert.Empty(t, history[s])
	}
}

func TestBuildHistory_PreflopOnly(t *testing.T) {
	history, err := BuildHistory(map[position.Position][]action.Move{
		position.Button:     {action.Raise},
		position.SmallBlind: {action.Fold},
		position.BigBlind:   {action.Call},
	})
	require.NoError(t, err)

	want := []action.Step{
		{Position: position.Button, Move: action.Raise},
		{Position: position.SmallBlind, Move: action.Fold},
		{Position: position.BigBlind, Move: action.Call},
	}
	assert.Equal(t, want, history[Preflop])
	assert.Empty(t, history[Flop])
}

func TestBuildHistory_MultiStreet(t *testing.T) {
	history, err := BuildHistory(map[position.Position][]action.Move{
		position.Button:   {action.Call, action.Bet},
		position.BigBlind: {action.Check, action.Call},
	})
	require.NoError(t, err)

	assert.Equal(t, []action.Step{
		{Position: position.Button, Move: action.Call},
		{Position: position.BigBlind, Move: action.Check},
	}, history[Preflop])
	assert.Equal(t, []action.Step{
		{Position: position.Button, Move: action.Bet},
		{Position: position.BigBlind, Move: action.Call},
	}, history[Flop])
}
