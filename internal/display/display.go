// Package display renders tracked table state for the terminal.
package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/feltvision/tabletracker/internal/game"
	"github.com/feltvision/tabletracker/internal/position"
	"github.com/feltvision/tabletracker/internal/tracker"
)

// Renderer formats table snapshots. Styling follows the output's color
// profile, so piping to a file yields plain text.
type Renderer struct {
	writer io.Writer

	headerStyle lipgloss.Style
	streetStyle lipgloss.Style
	seatStyle   lipgloss.Style
	moveStyle   lipgloss.Style
	dimStyle    lipgloss.Style
}

// New creates a renderer writing to w. Pass termenv output options to
// override profile detection, e.g. termenv.WithProfile(termenv.Ascii)
// for plain output.
func New(w io.Writer, opts ...termenv.OutputOption) *Renderer {
	r := lipgloss.NewRenderer(w, opts...)

	return &Renderer{
		writer: w,
		headerStyle: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true),
		streetStyle: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		seatStyle: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")),
		moveStyle: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		dimStyle: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

// RenderTable writes one table snapshot: header, seats, per-street
// moves, and any bid-reconstructed moves.
func (r *Renderer) RenderTable(state *tracker.TableState) {
	fmt.Fprintln(r.writer, r.headerStyle.Render(fmt.Sprintf(" %s ", state.Window)))
	fmt.Fprintf(r.writer, "%s %s\n",
		r.dimStyle.Render("street:"),
		r.streetStyle.Render(state.Street.String()))

	if len(state.Positions) > 0 {
		fmt.Fprintf(r.writer, "%s %s\n",
			r.dimStyle.Render("seats:"),
			r.seatStyle.Render(formatSeats(state.Positions)))
	}

	for _, street := range game.Streets() {
		steps := state.History[street]
		if len(steps) == 0 {
			continue
		}
		parts := make([]string, 0, len(steps))
		for _, step := range steps {
			parts = append(parts, fmt.Sprintf("%s %s", step.Position, step.Move))
		}
		fmt.Fprintf(r.writer, "  %s %s\n",
			r.streetStyle.Render(street.String()+":"),
			r.moveStyle.Render(strings.Join(parts, ", ")))
	}

	for _, mv := range state.BidMoves {
		line := fmt.Sprintf("seat %d %s", mv.PlayerNumber, mv.Action)
		if mv.Amount > 0 {
			line += fmt.Sprintf(" %.1f", mv.Amount)
		}
		fmt.Fprintf(r.writer, "  %s %s\n",
			r.dimStyle.Render("bids:"),
			r.moveStyle.Render(fmt.Sprintf("%s (%s)", line, mv.Street)))
	}
}

func formatSeats(positions map[int]position.Position) string {
	seats := make([]int, 0, len(positions))
	for seat := range positions {
		seats = append(seats, seat)
	}
	sort.Ints(seats)

	parts := make([]string, 0, len(seats))
	for _, seat := range seats {
		parts = append(parts, fmt.Sprintf("%d=%s", seat, positions[seat]))
	}
	return strings.Join(parts, " ")
}
