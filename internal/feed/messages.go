package feed

import (
	"time"

	"github.com/feltvision/tabletracker/internal/game"
	"github.com/feltvision/tabletracker/internal/tracker"
)

// Message types exchanged over the feed socket.
const (
	// TypeFrame carries one detector observation, detector to server.
	TypeFrame = "frame"
	// TypeState carries a table snapshot, server to subscribers.
	TypeState = "table_state"
	// TypeError reports a rejected frame back to its sender.
	TypeError = "error"
)

// Message is the envelope for everything on the wire.
type Message struct {
	Type  string         `json:"type"`
	Frame *tracker.Frame `json:"frame,omitempty"`
	State *TableState    `json:"state,omitempty"`
	Error string         `json:"error,omitempty"`
}

// TableState is the wire form of a tracker snapshot.
type TableState struct {
	Window    string         `json:"window"`
	Street    string         `json:"street"`
	Positions map[int]string `json:"positions,omitempty"`
	Streets   []StreetSteps  `json:"streets"`
	BidMoves  []BidMove      `json:"bid_moves,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StreetSteps is one street's move list, in chronological order.
type StreetSteps struct {
	Street string `json:"street"`
	Steps  []Step `json:"steps"`
}

// Step is one move by one position.
type Step struct {
	Position string `json:"position"`
	Move     string `json:"move"`
}

// BidMove is the wire form of a bid-delta reconstruction.
type BidMove struct {
	PlayerNumber      int     `json:"player_number"`
	Action            string  `json:"action"`
	Amount            float64 `json:"amount,omitempty"`
	Street            string  `json:"street"`
	TotalContribution float64 `json:"total_contribution,omitempty"`
}

// NewTableState converts a tracker snapshot to its wire form. Streets
// are emitted in order, empty ones included, so subscribers never have
// to guess which streets exist.
func NewTableState(state *tracker.TableState) *TableState {
	out := &TableState{
		Window:    state.Window,
		Street:    state.Street.String(),
		Positions: make(map[int]string, len(state.Positions)),
		Streets:   make([]StreetSteps, 0, len(game.Streets())),
		UpdatedAt: state.UpdatedAt,
	}
	for seat, pos := range state.Positions {
		out.Positions[seat] = pos.String()
	}
	for _, street := range game.Streets() {
		steps := make([]Step, 0, len(state.History[street]))
		for _, step := range state.History[street] {
			steps = append(steps, Step{
				Position: step.Position.String(),
				Move:     step.Move.String(),
			})
		}
		out.Streets = append(out.Streets, StreetSteps{
			Street: street.String(),
			Steps:  steps,
		})
	}
	for _, mv := range state.BidMoves {
		out.BidMoves = append(out.BidMoves, BidMove{
			PlayerNumber:      mv.PlayerNumber,
			Action:            mv.Action.String(),
			Amount:            mv.Amount,
			Street:            mv.Street.String(),
			TotalContribution: mv.TotalContribution,
		})
	}
	return out
}
