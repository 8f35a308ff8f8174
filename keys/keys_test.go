package keys

import (
	"apiary/pod"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestDispatchHomeSlashOpensCommandLine(t *testing.T) {
	got := Dispatch(pod.ModeHome, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if got != ActionSlash {
		t.Fatalf("got %v, want ActionSlash", got)
	}
}

func TestDispatchPermissionApproveDeny(t *testing.T) {
	if got := Dispatch(pod.ModePermission, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}); got != ActionApprove {
		t.Fatalf("got %v, want ActionApprove", got)
	}
	if got := Dispatch(pod.ModePermission, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}); got != ActionDeny {
		t.Fatalf("got %v, want ActionDeny", got)
	}
	if got := Dispatch(pod.ModePermission, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}); got != ActionSkip {
		t.Fatalf("got %v, want ActionSkip", got)
	}
}

func TestDispatchQuitOnlyFromHome(t *testing.T) {
	if got := Dispatch(pod.ModeHome, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); got != ActionQuit {
		t.Fatalf("got %v, want ActionQuit", got)
	}
	if got := Dispatch(pod.ModeChat, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); got == ActionQuit {
		t.Fatal("'q' in Chat mode should not quit (it's chat input)")
	}
}

func TestDispatchEscUnwinds(t *testing.T) {
	if got := Dispatch(pod.ModeDetail, tea.KeyMsg{Type: tea.KeyEsc}); got != ActionEsc {
		t.Fatalf("got %v, want ActionEsc", got)
	}
}

func TestDispatchNextAttentionFromHomeAndDetail(t *testing.T) {
	for _, m := range []pod.Mode{pod.ModeHome, pod.ModeDetail} {
		if got := Dispatch(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}); got != ActionNextAttention {
			t.Fatalf("mode %v: got %v, want ActionNextAttention", m, got)
		}
	}
}

func TestDispatchChatPrintableRune(t *testing.T) {
	got := Dispatch(pod.ModeChat, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	if got != ActionPrintable {
		t.Fatalf("got %v, want ActionPrintable (chat buffer input)", got)
	}
}
