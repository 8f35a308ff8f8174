package app

import (
	"apiary/discovery"
	"apiary/pod"
	"apiary/store"
	"apiary/wordgen"
	"apiary/worktree"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

// executeCommand parses and runs one Home command-line entry (spec.md
// §4.7): create, adopt, drop, forget, list.
func (m *Model) executeCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "create":
		m.cmdCreate(fields[1:])
	case "adopt":
		m.cmdAdopt(fields[1:])
	case "drop":
		m.cmdDrop(fields[1:])
	case "forget":
		m.cmdForget(fields[1:])
	case "list":
		m.cmdList()
	default:
		m.state.LogEvent("unknown command: " + fields[0])
	}
}

// takeFlag extracts "--flag value" from args, returning the value and
// the remaining positional args in order.
func takeFlag(args []string, flag string) (string, []string) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			rest := make([]string, 0, len(args)-2)
			rest = append(rest, args[:i]...)
			rest = append(rest, args[i+2:]...)
			return args[i+1], rest
		}
	}
	return "", args
}

// cmdCreate follows spec.md §4.7's create sequence: new_session ->
// (worktree setup, only with --worktree) -> list_panes (first pane) ->
// Store.save -> send_keys(pane, program, Enter). Any failure after the
// multiplexer session is created triggers a best-effort kill_session
// rollback.
func (m *Model) cmdCreate(args []string) {
	repoPath, rest := takeFlag(args, "--worktree")
	if len(rest) == 0 {
		m.state.LogEvent("usage: create <name> [--worktree <path>]")
		return
	}
	name := rest[0]
	if _, exists := m.state.Sessions[name]; exists {
		m.state.LogEvent("create: name collision: " + name)
		return
	}

	sessionID, err := m.adapter.NewSession(name, "")
	if err != nil {
		m.state.LogEvent("create failed: " + err.Error())
		return
	}

	var wtInfo *pod.WorktreeInfo
	if repoPath != "" {
		wt, _, err := worktree.New(repoPath, name)
		if err == nil {
			err = wt.Setup()
		}
		if err != nil {
			m.adapter.KillSession(sessionID)
			m.state.LogEvent("create failed (worktree): " + err.Error())
			return
		}
		m.worktrees[name] = wt
		wtInfo = &pod.WorktreeInfo{Path: wt.Path(), Branch: wt.Branch(), BaseCommitSHA: wt.BaseCommitSHA()}
	}

	panes, err := m.adapter.ListPanes(sessionID)
	if err != nil || len(panes) == 0 {
		m.adapter.KillSession(sessionID)
		delete(m.worktrees, name)
		m.state.LogEvent("create failed: no panes in new session")
		return
	}
	pane := panes[0].ID

	sess := &pod.Session{
		Name:            name,
		Kind:            pod.KindSolo,
		MultiplexerName: sessionID,
		CreatedAt:       time.Now(),
		Worktree:        wtInfo,
		Members: []*pod.Member{
			{Role: "member-0", Pane: pane, Status: pod.StatusUnknown},
		},
	}
	m.state.AddSession(sess)

	if err := m.str.Save(store.ToDocument(m.state)); err != nil {
		m.state.RemoveSession(name)
		m.adapter.KillSession(sessionID)
		delete(m.worktrees, name)
		m.state.LogEvent("create failed (store): " + err.Error())
		return
	}

	if err := m.adapter.SendKeys(pane, m.cfg.Assistant.Program, true); err != nil {
		m.state.RemoveSession(name)
		m.adapter.KillSession(sessionID)
		delete(m.worktrees, name)
		m.state.LogEvent("create failed (launch): " + err.Error())
		return
	}

	m.state.LogEvent("created " + name)
}

// cmdAdopt binds an existing multiplexer session under a new or
// generated Session name (spec.md §4.7, DESIGN.md `session/wordgen`
// entry: wordgen supplies a name when --name is omitted).
func (m *Model) cmdAdopt(args []string) {
	name, rest := takeFlag(args, "--name")
	if len(rest) == 0 {
		m.state.LogEvent("usage: adopt <multiplexer-session> [--name <name>]")
		return
	}
	multiplexerSession := rest[0]
	if !m.adapter.HasSession(multiplexerSession) {
		m.state.LogEvent("adopt: not found: " + multiplexerSession)
		return
	}

	if name == "" {
		name = wordgen.Generate()
	}
	if _, exists := m.state.Sessions[name]; exists {
		m.state.LogEvent("adopt: name collision: " + name)
		return
	}

	sess := &pod.Session{
		Name:            name,
		MultiplexerName: multiplexerSession,
		CreatedAt:       time.Now(),
	}
	if err := discovery.Run(m.adapter, sess); err != nil {
		m.state.LogEvent("adopt: discovery failed: " + err.Error())
		return
	}

	m.state.AddSession(sess)
	if err := m.str.Save(store.ToDocument(m.state)); err != nil {
		m.state.RemoveSession(name)
		m.state.LogEvent("adopt failed (store): " + err.Error())
		return
	}
	m.state.LogEvent(fmt.Sprintf("adopted %s as %s", multiplexerSession, name))
}

// cmdDrop kills the backing multiplexer session and removes the Session
// (spec.md §6 CLI table's `drop`, exposed identically from Home). If the
// Session has a worktree, its branch name is copied to the clipboard
// first so the operator can still find it after removal (SPEC_FULL.md
// §5, grounded on the teacher's Instance.Pause()).
func (m *Model) cmdDrop(args []string) {
	if len(args) == 0 {
		m.state.LogEvent("usage: drop <name>")
		return
	}
	name := args[0]
	sess, ok := m.state.Sessions[name]
	if !ok {
		m.state.LogEvent("drop: unknown: " + name)
		return
	}

	if sess.Worktree != nil {
		_ = clipboard.WriteAll(sess.Worktree.Branch)
	}

	if err := m.adapter.KillSession(sess.MultiplexerName); err != nil {
		m.state.LogEvent("drop: kill_session failed: " + err.Error())
	}
	if wt, ok := m.worktrees[name]; ok {
		if err := wt.Cleanup(); err != nil {
			m.state.LogEvent("drop: worktree cleanup failed: " + err.Error())
		}
		delete(m.worktrees, name)
	}
	m.state.RemoveSession(name)
	if err := m.str.Save(store.ToDocument(m.state)); err != nil {
		m.state.LogEvent("drop failed (store): " + err.Error())
	}
	m.state.LogEvent("dropped " + name)
}

// cmdForget removes a Session from apiary's bookkeeping without
// touching its multiplexer session, unlike drop (spec.md §4.7 names
// both commands; `forget` is the non-destructive counterpart). Its
// worktree's branch name is copied to the clipboard first, same as drop.
func (m *Model) cmdForget(args []string) {
	if len(args) == 0 {
		m.state.LogEvent("usage: forget <name>")
		return
	}
	name := args[0]
	sess, ok := m.state.Sessions[name]
	if !ok {
		m.state.LogEvent("forget: unknown: " + name)
		return
	}
	if sess.Worktree != nil {
		_ = clipboard.WriteAll(sess.Worktree.Branch)
	}
	delete(m.worktrees, name)
	m.state.RemoveSession(name)
	if err := m.str.Save(store.ToDocument(m.state)); err != nil {
		m.state.LogEvent("forget failed (store): " + err.Error())
	}
	m.state.LogEvent("forgot " + name + " (multiplexer session left running)")
}

func (m *Model) cmdList() {
	if len(m.state.Sessions) == 0 {
		m.state.LogEvent("list: no sessions")
		return
	}
	for _, s := range m.state.OrderedSessions() {
		m.state.LogEvent(fmt.Sprintf("%s [%s] %s", s.Name, s.Kind, s.Status))
	}
}
