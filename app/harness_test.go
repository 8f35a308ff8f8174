package app

import (
	"apiary/pod"
	"apiary/testing/harness"
	"apiary/testing/snapshot"
	"testing"
)

// TestViewFitsEveryCommonSize exercises the Model through harness at a
// spread of real terminal sizes and checks the rendered View never
// exceeds the window it was given (spec.md §4.8: panel/grid split is
// width-bounded at every size, not just one developer's terminal).
func TestViewFitsEveryCommonSize(t *testing.T) {
	harness.RunWithDashboardSizes(t, func(t *testing.T, size harness.DashboardSize) {
		m := newTestModel(newFakeAdapter())
		addSession(m.state, "a", pod.StatusIdle)
		addSession(m.state, "b", pod.StatusWorking)

		h := harness.New(t, m, size.Width, size.Height)
		view := h.View()

		if got := snapshot.Width(view); got > size.Width {
			t.Fatalf("%s: rendered width %d exceeds terminal width %d", size.Name, got, size.Width)
		}
	})
}

// TestHarnessPlaysSlashListSequence drives the command line the same
// way an operator's keystrokes would, through the harness key-sequence
// helper, and checks the command buffer holds the typed text and the
// View still renders.
func TestHarnessPlaysSlashListSequence(t *testing.T) {
	m := newTestModel(newFakeAdapter())
	h := harness.New(t, m, 120, 40)

	h.SendKey("/")
	harness.NewKeySequence("l", "i", "s", "t").Play(h)

	mm := h.Model().(*Model)
	if mm.state.CommandBuffer != "list" {
		t.Fatalf("expected command buffer 'list', got %q", mm.state.CommandBuffer)
	}

	view := snapshot.StripANSI(h.View())
	if view == "" {
		t.Fatal("expected non-empty rendered view")
	}
}
