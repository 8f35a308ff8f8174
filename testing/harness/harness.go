// Package harness drives apiary's bubbletea Model the way a real
// terminal would: window-size events first, then keystrokes, with the
// rendered View() available after each step. It knows nothing about
// apiary's own types so app tests can wrap *app.Model directly.
package harness

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// Harness wraps a tea.Model under test.
type Harness struct {
	t      *testing.T
	model  tea.Model
	width  int
	height int
}

// New wraps model and immediately delivers a WindowSizeMsg for width x
// height, matching what bubbletea sends on program start.
func New(t *testing.T, model tea.Model, width, height int) *Harness {
	h := &Harness{t: t, model: model, width: width, height: height}
	h.SendMsg(tea.WindowSizeMsg{Width: width, Height: height})
	return h
}

// SendMsg delivers msg to the model's Update and keeps the result.
func (h *Harness) SendMsg(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(msg)
	return cmd
}

// SendKey delivers a single rune keystroke, as the Input Dispatcher
// would receive it from bubbletea.
func (h *Harness) SendKey(key string) tea.Cmd {
	return h.SendMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

// View returns the model's current rendered output.
func (h *Harness) View() string {
	return h.model.View()
}

// Model returns the wrapped model, for type-asserting back to the
// concrete Model to inspect its state.
func (h *Harness) Model() tea.Model {
	return h.model
}

// DashboardSize names one terminal geometry worth testing the grid
// layout against.
type DashboardSize struct {
	Name   string
	Width  int
	Height int
}

// DashboardSizes spans the grid's column-count breakpoints (28-wide
// cards, 1-wide gaps, panel taking 35% of the width down to a 20-column
// floor — see ui.ColumnCount/ui.GridWidth): 80 columns renders a single
// card column, 120 two, 150 three, 200 four.
var DashboardSizes = []DashboardSize{
	{Name: "single-column", Width: 80, Height: 24},
	{Name: "two-column", Width: 120, Height: 40},
	{Name: "three-column", Width: 150, Height: 40},
	{Name: "four-column", Width: 200, Height: 50},
	{Name: "tall-narrow", Width: 80, Height: 60},
}

// RunWithDashboardSizes runs fn as a subtest for each DashboardSize.
func RunWithDashboardSizes(t *testing.T, fn func(t *testing.T, size DashboardSize)) {
	for _, size := range DashboardSizes {
		t.Run(size.Name, func(t *testing.T) {
			fn(t, size)
		})
	}
}

// KeySequence is a scripted run of keystrokes, e.g. typing out a slash
// command one rune at a time.
type KeySequence []tea.Msg

// NewKeySequence builds a KeySequence from a list of single-rune (or
// short) key strings.
func NewKeySequence(keys ...string) KeySequence {
	var seq KeySequence
	for _, key := range keys {
		seq = append(seq, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	}
	return seq
}

// Play delivers every message in the sequence to h, in order.
func (seq KeySequence) Play(h *Harness) {
	for _, msg := range seq {
		h.SendMsg(msg)
	}
}
