// Package tmux is apiary's Multiplexer Adapter (spec.md §4.1): a
// stateless wrapper over the tmux CLI. Every operation is exactly one
// process invocation bounded by a timeout; none of them panic the
// caller. Swapping multiplexers means writing a new package behind
// the same Adapter shape — nothing else in apiary shells out to tmux
// directly.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

// ansiEscapeRegex strips terminal escape sequences from captured pane
// text before classification sees it; the Detector works on extracted
// text only (spec.md §1 Non-goals: "we render extracted text only").
var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string { return ansiEscapeRegex.ReplaceAllString(s, "") }

// ErrorKind classifies an AdapterError (spec.md §7).
type ErrorKind int

const (
	ErrSpawn ErrorKind = iota
	ErrTimeout
	ErrExit
	ErrParse
)

// AdapterError is the structured error every Adapter method returns on
// failure, never a panic (spec.md §4.1).
type AdapterError struct {
	Kind ErrorKind
	Op   string
	Args []string
	Err  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("tmux %s %s: %v", e.Op, strings.Join(e.Args, " "), e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

const defaultTimeout = 2 * time.Second

// Pane describes one tmux pane as reported by list-panes (spec.md §4.1).
type Pane struct {
	ID             string
	PID            int
	CurrentCommand string
	Width          int
	Height         int
}

// Adapter is the Multiplexer Adapter. The zero value is ready to use;
// Timeout defaults to 2s when zero (spec.md §4.1).
type Adapter struct {
	Timeout time.Duration
	binary  string // overridable in tests
}

// New returns an Adapter that shells out to the "tmux" binary on PATH.
func New() *Adapter {
	return &Adapter{Timeout: defaultTimeout, binary: "tmux"}
}

func (a *Adapter) timeout() time.Duration {
	if a.Timeout <= 0 {
		return defaultTimeout
	}
	return a.Timeout
}

func (a *Adapter) bin() string {
	if a.binary == "" {
		return "tmux"
	}
	return a.binary
}

// run executes tmux with args, bounded by the Adapter's timeout.
func (a *Adapter) run(op string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, a.bin(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &AdapterError{Kind: ErrTimeout, Op: op, Args: args, Err: ctx.Err()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &AdapterError{Kind: ErrExit, Op: op, Args: args, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
		}
		return "", &AdapterError{Kind: ErrSpawn, Op: op, Args: args, Err: err}
	}
	return stdout.String(), nil
}

// HasSession reports whether a tmux session with the given name exists.
func (a *Adapter) HasSession(name string) bool {
	_, err := a.run("has-session", "has-session", "-t", name)
	return err == nil
}

// NewSession creates a detached tmux session named name, optionally
// rooted at startDir, and returns its session identifier (its name,
// since tmux sessions are addressed by name throughout this adapter).
func (a *Adapter) NewSession(name, startDir string) (string, error) {
	args := []string{"new-session", "-d", "-s", name}
	if startDir != "" {
		args = append(args, "-c", startDir)
	}
	if w, h, ok := hostTerminalSize(); ok {
		args = append(args, "-x", strconv.Itoa(w), "-y", strconv.Itoa(h))
	}
	if _, err := a.run("new-session", args...); err != nil {
		return "", err
	}
	return name, nil
}

// hostTerminalSize reports the dashboard's own terminal dimensions, so
// a newly created pane starts sized to match rather than tmux's
// 80x24 default. It returns ok=false when stdout isn't a terminal
// (headless runs, tests).
func hostTerminalSize() (width, height int, ok bool) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// KillSession destroys a tmux session. It is a no-op error-wise if the
// session is already gone.
func (a *Adapter) KillSession(name string) error {
	_, err := a.run("kill-session", "kill-session", "-t", name)
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) && adapterErr.Kind == ErrExit {
		return nil
	}
	return err
}

// ListSessions returns the names of all tmux sessions.
func (a *Adapter) ListSessions() ([]string, error) {
	out, err := a.run("list-sessions", "list-sessions", "-F", "#{session_name}")
	if err != nil {
		var adapterErr *AdapterError
		if errors.As(err, &adapterErr) && adapterErr.Kind == ErrExit {
			// tmux exits nonzero with "no server running" when there are
			// no sessions at all; that's an empty list, not a failure.
			return nil, nil
		}
		return nil, err
	}
	return splitNonEmpty(out, "\n"), nil
}

const paneFormat = "#{pane_id}\t#{pane_pid}\t#{pane_current_command}\t#{pane_width}\t#{pane_height}"

// ListPanes returns every pane of the named tmux session (spec.md §4.1,
// §6 `list-panes -s -t <name> -F <fmt>`).
func (a *Adapter) ListPanes(session string) ([]Pane, error) {
	out, err := a.run("list-panes", "list-panes", "-s", "-t", session, "-F", paneFormat)
	if err != nil {
		return nil, err
	}

	var panes []Pane
	for _, line := range splitNonEmpty(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			continue
		}
		pid, _ := strconv.Atoi(fields[1])
		width, _ := strconv.Atoi(fields[3])
		height, _ := strconv.Atoi(fields[4])
		panes = append(panes, Pane{
			ID:             fields[0],
			PID:            pid,
			CurrentCommand: fields[2],
			Width:          width,
			Height:         height,
		})
	}
	return panes, nil
}

// defaultTailLines bounds capture_pane cost when the caller asks for
// the whole scrollback (spec.md §4.1).
const defaultTailLines = 15

// CapturePane returns the last tailLines of pane's content. tailLines
// <= 0 uses the default of 15 (spec.md §4.1).
func (a *Adapter) CapturePane(pane string, tailLines int) (string, error) {
	if tailLines <= 0 {
		tailLines = defaultTailLines
	}
	out, err := a.run("capture-pane", "capture-pane", "-p", "-t", pane, "-S", "-"+strconv.Itoa(tailLines))
	if err != nil {
		return "", err
	}
	return stripANSI(out), nil
}

// SendKeys sends text to pane, fire-and-forget, appending Enter if
// withEnter is set (spec.md §4.1 — keystroke ops never confirm delivery).
func (a *Adapter) SendKeys(pane, text string, withEnter bool) error {
	args := []string{"send-keys", "-t", pane, text}
	if withEnter {
		args = append(args, "Enter")
	}
	_, err := a.run("send-keys", args...)
	return err
}

// SendRaw sends literal bytes to pane via tmux's -l (literal) flag, used
// for control characters that send-keys would otherwise interpret as
// key names.
func (a *Adapter) SendRaw(pane string, data []byte) error {
	_, err := a.run("send-keys", "send-keys", "-l", "-t", pane, string(data))
	return err
}

// SplitWindow splits session's active window, used by test harnesses to
// simulate a teammate pane appearing (spec.md §4.1).
func (a *Adapter) SplitWindow(session string) (string, error) {
	out, err := a.run("split-window", "split-window", "-t", session, "-d", "-P", "-F", "#{pane_id}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimRight(part, "\r")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
