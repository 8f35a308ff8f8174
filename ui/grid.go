package ui

import (
	"apiary/pod"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	cardWidth       = 28
	cardGap         = 1
	maxMembersShown = 5
)

// ColumnCount returns floor((gridWidth - gap) / (cardWidth + gap)),
// clamped to at least 1 (spec.md §4.8).
func ColumnCount(gridWidth int) int {
	cols := (gridWidth - cardGap) / (cardWidth + cardGap)
	if cols < 1 {
		cols = 1
	}
	return cols
}

// RenderGrid lays out Sessions as fixed-width cards in a grid, focused
// is the name of the currently-focused Session, if any (spec.md §4.8).
// spinnerFrame, if non-empty, replaces the static Working glyph so the
// grid shows live motion for in-progress Members (empty string falls
// back to the static glyph, e.g. in tests and non-animated renders).
func RenderGrid(sessions []*pod.Session, focused string, gridWidth int, spinnerFrame string) string {
	if len(sessions) == 0 {
		return MutedStyle.Render("No sessions. Press / to create one.")
	}

	cols := ColumnCount(gridWidth)
	var rows []string
	var row []string
	for i, s := range sessions {
		row = append(row, renderCard(s, s.Name == focused, spinnerFrame))
		if len(row)%cols == 0 || i == len(sessions)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func glyphFor(s pod.MemberStatus, spinnerFrame string) string {
	if s == pod.StatusWorking && spinnerFrame != "" {
		return spinnerFrame
	}
	return StatusGlyph(s)
}

func renderCard(s *pod.Session, focused bool, spinnerFrame string) string {
	style := CardStyle
	if focused {
		style = FocusedCardStyle
	}
	style = style.Width(cardWidth)

	var b strings.Builder
	header := glyphFor(s.Status, spinnerFrame) + " " + s.Name
	if s.Stale {
		header += MutedStyle.Render(" (stale)")
	}
	b.WriteString(TextStyle.Bold(true).Render(header))
	b.WriteString("\n")

	shown := s.Members
	overflow := 0
	if len(shown) > maxMembersShown {
		overflow = len(shown) - maxMembersShown
		shown = shown[:maxMembersShown]
	}
	for _, m := range shown {
		b.WriteString(fmt.Sprintf("%s %s\n", glyphFor(m.Status, spinnerFrame), m.Role))
	}
	if overflow > 0 {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("+%d more\n", overflow)))
	}

	return style.Render(strings.TrimRight(b.String(), "\n"))
}
