// Package game owns the betting-round state machine that turns a
// chronological action sequence into a street-segmented move history.
package game

import (
	"errors"
	"fmt"

	"github.com/feltvision/tabletracker/internal/action"
	"github.com/feltvision/tabletracker/internal/position"
)

// InvalidActionError reports a structurally illegal action. It carries
// enough context for the caller to decide between dropping the frame and
// rebuilding the tracked state.
type InvalidActionError struct {
	Position position.Position
	Move     action.Move
	Street   Street
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action: %s by %s on %s", e.Move, e.Position, e.Street)
}

var (
	// ErrNotStarted is returned for operations that need a started game.
	ErrNotStarted = errors.New("game has not been started")
	// ErrAlreadyStarted is returned when registration happens too late.
	ErrAlreadyStarted = errors.New("game has already been started")
)

// Game tracks one table's betting rounds. The position↔seat-index
// mapping is fixed once players are registered; the street pointer only
// ever moves forward. A Game is owned exclusively by its caller for the
// duration of each call.
type Game struct {
	street   Street
	started  bool
	complete bool

	seatIndex map[position.Position]int
	seatOrder []position.Position

	folded map[position.Position]bool
	allIn  map[position.Position]bool

	// Betting state for the current street. The label path carries no
	// chip amounts, so the machine tracks betting levels instead: each
	// Bet/Raise bumps level, Check/Call match it. Preflop opens at level
	// 1 when a big blind is seated, which is what makes the BB check
	// legal and everyone else's check illegal.
	level   int
	matched map[position.Position]int
	acted   map[position.Position]bool

	history map[Street][]action.Step
}

// New creates an empty game awaiting player registration.
func New() *Game {
	g := &Game{
		seatIndex: make(map[position.Position]int),
		folded:    make(map[position.Position]bool),
		allIn:     make(map[position.Position]bool),
		matched:   make(map[position.Position]int),
		acted:     make(map[position.Position]bool),
		history:   make(map[Street][]action.Step, 4),
	}
	for _, s := range Streets() {
		g.history[s] = nil
	}
	return g
}

// AddPlayer registers a position. Registration is closed once the game
// starts, and a position can only sit in one seat.
func (g *Game) AddPlayer(pos position.Position) error {
	if g.started {
		return ErrAlreadyStarted
	}
	if _, ok := g.seatIndex[pos]; ok {
		return fmt.Errorf("position %s is already registered", pos)
	}
	g.seatIndex[pos] = len(g.seatOrder)
	g.seatOrder = append(g.seatOrder, pos)
	return nil
}

// Start locks registration and opens the preflop betting round.
func (g *Game) Start() error {
	if g.started {
		return ErrAlreadyStarted
	}
	if len(g.seatOrder) < 2 {
		return fmt.Errorf("need at least 2 players to start, have %d", len(g.seatOrder))
	}
	g.started = true

	// Blinds are posted automatically and never appear in the evidence.
	// Model them as the opening betting level when the seats exist.
	if _, ok := g.seatIndex[position.BigBlind]; ok {
		g.level = 1
		g.matched[position.BigBlind] = 1
	}
	return nil
}

// CanAccept reports whether the position may legally make the move right
// now. It never mutates state.
func (g *Game) CanAccept(pos position.Position, mv action.Move) bool {
	if !g.started || g.complete {
		return false
	}
	if _, ok := g.seatIndex[pos]; !ok {
		return false
	}
	if g.folded[pos] || g.allIn[pos] {
		return false
	}

	switch mv {
	case action.Fold, action.AllIn:
		return true
	case action.Check:
		return g.matched[pos] == g.level
	case action.Call:
		return g.matched[pos] < g.level
	case action.Bet:
		return g.level == 0
	case action.Raise:
		return g.level > 0
	default:
		return false
	}
}

// Process validates and applies one action, appending it to the current
// street's history and advancing the street when the round closes.
func (g *Game) Process(pos position.Position, mv action.Move) error {
	if !g.CanAccept(pos, mv) {
		return &InvalidActionError{Position: pos, Move: mv, Street: g.street}
	}

	g.history[g.street] = append(g.history[g.street], action.Step{Position: pos, Move: mv})

	switch {
	case mv == action.Fold:
		g.folded[pos] = true
		if g.activeCount() <= 1 {
			g.complete = true
			return nil
		}
	case mv.IsAggressive():
		g.level++
		g.matched[pos] = g.level
		for p := range g.acted {
			delete(g.acted, p)
		}
		g.acted[pos] = true
	case mv == action.Check || mv == action.Call:
		g.matched[pos] = g.level
		g.acted[pos] = true
	case mv == action.AllIn:
		// Without amounts an all-in cannot be told apart from a call or
		// a raise; it only removes the seat from future must-act checks.
		g.allIn[pos] = true
	}

	if g.roundClosed() {
		g.advanceStreet()
	}
	return nil
}

func (g *Game) activeCount() int {
	n := 0
	for _, pos := range g.seatOrder {
		if !g.folded[pos] && !g.allIn[pos] {
			n++
		}
	}
	return n
}

// roundClosed implements the street closure rule: every non-folded,
// non-all-in seat has acted since the last aggressive action and is
// matched to the street's betting level.
func (g *Game) roundClosed() bool {
	for _, pos := range g.seatOrder {
		if g.folded[pos] || g.allIn[pos] {
			continue
		}
		if !g.acted[pos] || g.matched[pos] != g.level {
			return false
		}
	}
	return true
}

func (g *Game) advanceStreet() {
	if g.street == River {
		g.complete = true
		return
	}
	g.street++
	g.level = 0
	for p := range g.matched {
		delete(g.matched, p)
	}
	for p := range g.acted {
		delete(g.acted, p)
	}
}

// CurrentStreet returns the street the game is on. It fails rather than
// guessing when the game has not started or the internal pointer is out
// of range.
func (g *Game) CurrentStreet() (Street, error) {
	if !g.started {
		return Preflop, ErrNotStarted
	}
	if g.street < Preflop || g.street > River {
		return Preflop, fmt.Errorf("street index %d is not mapped", int(g.street))
	}
	return g.street, nil
}

// Complete reports whether the game reached its terminal state.
func (g *Game) Complete() bool {
	return g.complete
}

// History returns a snapshot of the street-keyed move history. The
// result always has exactly the four street keys and is detached from
// the game's internal state.
func (g *Game) History() map[Street][]action.Step {
	out := make(map[Street][]action.Step, 4)
	for _, s := range Streets() {
		moves := make([]action.Step, len(g.history[s]))
		copy(moves, g.history[s])
		out[s] = moves
	}
	return out
}

// BuildHistory runs the full label-evidence path: sequence the per-seat
// move lists, register the seats, and replay the sequence through a
// fresh state machine. An empty input yields a history with four empty
// streets.
func BuildHistory(moves map[position.Position][]action.Move) (map[Street][]action.Step, error) {
	g := New()
	if len(moves) == 0 {
		return g.History(), nil
	}

	for _, pos := range position.ActionOrder() {
		if _, ok := moves[pos]; ok {
			if err := g.AddPlayer(pos); err != nil {
				return nil, err
			}
		}
	}
	if err := g.Start(); err != nil {
		return nil, err
	}

	for _, step := range action.BuildSequence(moves) {
		if g.Complete() {
			break
		}
		if err := g.Process(step.Position, step.Move); err != nil {
			return nil, err
		}
	}
	return g.History(), nil
}
