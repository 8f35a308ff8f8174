package tmux

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// fakeBinary writes an executable shell script standing in for tmux,
// so these tests exercise the real exec/timeout plumbing without
// requiring tmux to be installed.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake shell script binary requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tmux")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListPanesParsesTabDelimitedFormat(t *testing.T) {
	a := &Adapter{binary: fakeBinary(t, `echo "%1\t123\tclaude\t80\t24"`)}
	panes, err := a.ListPanes("demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(panes) != 1 {
		t.Fatalf("got %d panes, want 1", len(panes))
	}
	p := panes[0]
	if p.ID != "%1" || p.PID != 123 || p.CurrentCommand != "claude" || p.Width != 80 || p.Height != 24 {
		t.Fatalf("parsed pane = %+v", p)
	}
}

func TestListPanesIgnoresMalformedLines(t *testing.T) {
	a := &Adapter{binary: fakeBinary(t, `printf "%%1\t1\tclaude\t80\t24\nbroken-line\n"`)}
	panes, err := a.ListPanes("demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(panes) != 1 {
		t.Fatalf("got %d panes, want 1 (malformed line should be skipped)", len(panes))
	}
}

func TestHasSessionFalseOnNonZeroExit(t *testing.T) {
	a := &Adapter{binary: fakeBinary(t, `exit 1`)}
	if a.HasSession("nope") {
		t.Fatal("HasSession() = true, want false")
	}
}

func TestCapturePaneDefaultsTailLines(t *testing.T) {
	captured := filepath.Join(t.TempDir(), "captured-args")
	a := &Adapter{binary: fakeBinary(t, `echo "$@" > `+captured+`; echo hello`)}

	out, err := a.CapturePane("%1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Fatalf("CapturePane() = %q", out)
	}

	data, err := os.ReadFile(captured)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "-S -15") {
		t.Fatalf("expected default tail of 15 lines, got args %q", data)
	}
}

func TestSendKeysAppendsEnterOnlyWhenRequested(t *testing.T) {
	captured := filepath.Join(t.TempDir(), "captured-args")
	a := &Adapter{binary: fakeBinary(t, `echo "$@" >> `+captured)}

	if err := a.SendKeys("%1", "hello", true); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(captured)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Enter") {
		t.Fatalf("expected Enter in send-keys args, got %q", data)
	}
}

func TestAdapterErrorWrapsTimeout(t *testing.T) {
	a := &Adapter{binary: fakeBinary(t, `sleep 1`), Timeout: 1}
	_, err := a.ListSessions()
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

