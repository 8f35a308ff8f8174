// Package ui renders apiary's two-pane layout: a context panel (35%
// width) on the left and a session grid (65% width) on the right
// (spec.md §4.8).
package ui

import (
	"apiary/pod"

	"github.com/charmbracelet/lipgloss"
)

const panelWidthFraction = 0.35

// PanelWidth and GridWidth split a terminal width the same way Render
// does, exported so the Input Dispatcher can compute grid navigation
// geometry without duplicating the layout formula.
func PanelWidth(width int) int {
	panelWidth := int(float64(width) * panelWidthFraction)
	if panelWidth < 20 {
		panelWidth = 20
	}
	return panelWidth
}

func GridWidth(width int) int {
	gridWidth := width - PanelWidth(width)
	if gridWidth < 0 {
		gridWidth = 0
	}
	return gridWidth
}

// Render composes the full-screen view for the given terminal size.
// spinnerFrame animates Working-status glyphs in the grid; pass "" for
// a static render.
func Render(state *pod.AppState, width, height int, spinnerFrame string) string {
	panel := RenderPanel(state, PanelWidth(width))
	grid := RenderGrid(state.OrderedSessions(), state.FocusedSession, GridWidth(width), spinnerFrame)

	return lipgloss.JoinHorizontal(lipgloss.Top, panel, grid)
}
