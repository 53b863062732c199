// Package tracker maintains per-window table sessions and merges noisy
// frame evidence into betting histories.
package tracker

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/feltvision/tabletracker/internal/action"
	"github.com/feltvision/tabletracker/internal/delta"
	"github.com/feltvision/tabletracker/internal/game"
	"github.com/feltvision/tabletracker/internal/position"
)

// Frame is one observation of a single table window: everything the
// upstream detector could read off the screen in one capture.
type Frame struct {
	// Window identifies the table the frame was captured from.
	Window string `json:"window"`

	// HoleCards are the hero's cards as detected. A change in hole
	// cards marks the start of a new hand.
	HoleCards []string `json:"hole_cards"`

	// BoardCards is the number of community cards visible.
	BoardCards int `json:"board_cards"`

	// Positions maps seat number to the raw position label read for
	// that seat. Labels may be decorated, aliased, or action words
	// that the detector mistook for positions.
	Positions map[int]string `json:"positions"`

	// Actions maps seat number to the raw action labels read for that
	// seat this hand, oldest first.
	Actions map[int][]string `json:"actions"`

	// Bids maps seat number to the chips the seat currently has in
	// front of it, in big blinds. Optional.
	Bids map[int]float64 `json:"bids"`
}

// TableState is a snapshot of everything the tracker knows about one
// window after merging a frame.
type TableState struct {
	Window    string
	Street    game.Street
	Positions map[int]position.Position
	History   map[game.Street][]action.Step
	BidMoves  []delta.Move
	UpdatedAt time.Time
}

// session holds the accumulated state for one window across frames of
// the same hand.
type session struct {
	window    string
	handKey   string
	positions map[int]position.Position
	bids      map[int]float64
	bidMoves  []delta.Move
	history   map[game.Street][]action.Step
	street    game.Street
	updatedAt time.Time
}

// Tracker consumes frames and keeps one session per table window.
// Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session
	clock    quartz.Clock
	logger   *log.Logger
}

func New(logger *log.Logger, clock quartz.Clock) *Tracker {
	return &Tracker{
		sessions: make(map[string]*session),
		clock:    clock,
		logger:   logger.WithPrefix("tracker"),
	}
}

// Observe merges one frame into the session for its window and returns
// the resulting snapshot. Malformed per-seat evidence is skipped with a
// log line; errors are returned only when the frame as a whole cannot
// be interpreted (no window, unreadable board, contradictory history).
func (t *Tracker) Observe(frame Frame) (*TableState, error) {
	if frame.Window == "" {
		return nil, fmt.Errorf("frame has no window name")
	}

	street, err := game.StreetFromBoard(frame.BoardCards)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", frame.Window, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	sess := t.sessionFor(frame)
	sess.street = street

	positions := t.resolvePositions(sess, frame)
	if !position.FitsTableSize(position.NewSet(positionValues(positions)...)) {
		return nil, fmt.Errorf("window %s: positions do not fit any table size", frame.Window)
	}
	sess.positions = positions

	history, err := t.buildHistory(sess, frame, positions)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", frame.Window, err)
	}
	sess.history = history

	t.mergeBids(sess, frame, street)
	sess.updatedAt = t.clock.Now()

	return sess.snapshot(), nil
}

// State returns the current snapshot for a window, or nil if the
// tracker has never seen it.
func (t *Tracker) State(window string) *TableState {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[window]
	if !ok {
		return nil
	}
	return sess.snapshot()
}

// Windows lists the windows the tracker currently has sessions for.
func (t *Tracker) Windows() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	names := make([]string, 0, len(t.sessions))
	for name := range t.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sessionFor returns the live session for the frame's window, starting
// a fresh one when the hole cards changed since the last frame.
func (t *Tracker) sessionFor(frame Frame) *session {
	key := handKey(frame.HoleCards)

	sess, ok := t.sessions[frame.Window]
	if ok && sess.handKey == key {
		return sess
	}
	if ok {
		t.logger.Info("new hand detected", "window", frame.Window)
	}

	sess = &session{
		window:    frame.Window,
		handKey:   key,
		positions: make(map[int]position.Position),
		bids:      make(map[int]float64),
		history:   emptyHistory(),
	}
	t.sessions[frame.Window] = sess
	return sess
}

// resolvePositions turns the frame's raw seat labels into canonical
// positions. Labels the detector misread as action words are recovered
// from the seats that did resolve; anything else unreadable is dropped
// with a log line.
func (t *Tracker) resolvePositions(sess *session, frame Frame) map[int]position.Position {
	resolved := make(map[int]position.Position)
	var recoverable []int

	for _, seat := range sortedSeats(frame.Positions) {
		raw := frame.Positions[seat]
		detected := position.Classify(raw)
		switch detected.Kind {
		case position.KindPosition:
			resolved[seat] = detected.Position
		case position.KindAction:
			recoverable = append(recoverable, seat)
		default:
			// Keep the seat's last known position if we had one.
			if prev, ok := sess.positions[seat]; ok {
				resolved[seat] = prev
			} else {
				t.logger.Debug("unreadable position label",
					"window", sess.window, "seat", seat, "raw", raw)
			}
		}
	}

	known := position.NewSet(positionValues(resolved)...)
	for _, seat := range recoverable {
		if prev, ok := sess.positions[seat]; ok {
			resolved[seat] = prev
			continue
		}
		recovered, ok := position.RecoverMissing(known)
		if !ok {
			t.logger.Debug("could not recover position",
				"window", sess.window, "seat", seat, "raw", frame.Positions[seat])
			continue
		}
		resolved[seat] = recovered
		known = position.NewSet(positionValues(resolved)...)
		t.logger.Debug("recovered position from table shape",
			"window", sess.window, "seat", seat, "position", recovered)
	}

	return resolved
}

// buildHistory validates the frame's per-seat action labels, sequences
// them, and replays them through the betting state machine. Labels that
// do not parse are skipped with a log line before the strict pass.
func (t *Tracker) buildHistory(sess *session, frame Frame, positions map[int]position.Position) (map[game.Street][]action.Step, error) {
	evidence := make(map[string][]string)
	for _, seat := range sortedSeats(frame.Actions) {
		pos, ok := positions[seat]
		if !ok {
			t.logger.Debug("actions for seat without a position",
				"window", sess.window, "seat", seat)
			continue
		}
		var kept []string
		for _, raw := range frame.Actions[seat] {
			if _, err := action.Parse(raw); err != nil {
				t.logger.Debug("skipping unreadable action label",
					"window", sess.window, "seat", seat, "raw", raw)
				continue
			}
			kept = append(kept, raw)
		}
		evidence[pos.String()] = kept
	}

	moves, err := action.NormalizeAll(evidence)
	if err != nil {
		return nil, err
	}

	// Register every resolved seat, not just the ones with evidence.
	// Seats that have not acted yet still shape the closure rule.
	g := game.New()
	seated := position.NewSet(positionValues(positions)...)
	registered := 0
	for _, pos := range position.ActionOrder() {
		if !seated.Contains(pos) {
			continue
		}
		if err := g.AddPlayer(pos); err != nil {
			return nil, err
		}
		registered++
	}

	if countMoves(moves) == 0 {
		return g.History(), nil
	}
	if registered < 2 {
		return nil, fmt.Errorf("have actions but only %d seated position(s)", registered)
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

func countMoves(moves map[position.Position][]action.Move) int {
	n := 0
	for _, list := range moves {
		n += len(list)
	}
	return n
}

// mergeBids runs the bid snapshots through the delta reconstructor
// when they changed since the previous frame.
func (t *Tracker) mergeBids(sess *session, frame Frame, street game.Street) {
	if frame.Bids == nil || bidsEqual(sess.bids, frame.Bids) {
		return
	}

	labels := make(map[int]string, len(frame.Positions))
	for seat, raw := range frame.Positions {
		labels[seat] = raw
	}
	moves := delta.Reconstruct(frame.Bids, sess.bids, street, labels)
	sess.bidMoves = append(sess.bidMoves, moves...)

	sess.bids = make(map[int]float64, len(frame.Bids))
	for seat, amount := range frame.Bids {
		sess.bids[seat] = amount
	}
}

func (s *session) snapshot() *TableState {
	state := &TableState{
		Window:    s.window,
		Street:    s.street,
		Positions: make(map[int]position.Position, len(s.positions)),
		History:   make(map[game.Street][]action.Step, len(s.history)),
		BidMoves:  append([]delta.Move(nil), s.bidMoves...),
		UpdatedAt: s.updatedAt,
	}
	for seat, pos := range s.positions {
		state.Positions[seat] = pos
	}
	for street, steps := range s.history {
		state.History[street] = append([]action.Step(nil), steps...)
	}
	return state
}

func emptyHistory() map[game.Street][]action.Step {
	history := make(map[game.Street][]action.Step, len(game.Streets()))
	for _, s := range game.Streets() {
		history[s] = nil
	}
	return history
}

func handKey(holeCards []string) string {
	return strings.Join(holeCards, ",")
}

func sortedSeats[V any](m map[int]V) []int {
	seats := make([]int, 0, len(m))
	for seat := range m {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	return seats
}

func positionValues(m map[int]position.Position) []position.Position {
	values := make([]position.Position, 0, len(m))
	for _, pos := range m {
		values = append(values, pos)
	}
	return values
}

func bidsEqual(a, b map[int]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for seat, amount := range a {
		if b[seat] != amount {
			return false
		}
	}
	return true
}
