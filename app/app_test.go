package app

import (
	"apiary/config"
	"apiary/detect"
	"apiary/keys"
	"apiary/pod"
	"apiary/store"
	"apiary/tmux"
	"apiary/worktree"
	"testing"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	st, err := store.New()
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return st
}

type sentKey struct {
	pane  string
	text  string
	enter bool
}

type fakeAdapter struct {
	sessions map[string]bool
	panesFor map[string][]tmux.Pane
	captures map[string]string
	sent     []sentKey
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		sessions: make(map[string]bool),
		panesFor: make(map[string][]tmux.Pane),
		captures: make(map[string]string),
	}
}

func (f *fakeAdapter) HasSession(name string) bool { return f.sessions[name] }

func (f *fakeAdapter) NewSession(name, startDir string) (string, error) {
	f.sessions[name] = true
	return name, nil
}

func (f *fakeAdapter) KillSession(name string) error {
	delete(f.sessions, name)
	return nil
}

func (f *fakeAdapter) ListPanes(session string) ([]tmux.Pane, error) {
	return f.panesFor[session], nil
}

func (f *fakeAdapter) CapturePane(pane string, tailLines int) (string, error) {
	return f.captures[pane], nil
}

func (f *fakeAdapter) SendKeys(pane, text string, withEnter bool) error {
	f.sent = append(f.sent, sentKey{pane, text, withEnter})
	return nil
}

func newTestModel(adapter Adapter) *Model {
	return &Model{
		adapter:        adapter,
		cfg:            config.Default(),
		rules:          detect.NewRules(nil, nil, nil),
		state:          pod.NewAppState(),
		chatSnapshot:   make(map[string]string),
		chatAppended:   make(map[string]int),
		chatIdleStreak: make(map[string]int),
		worktrees:      make(map[string]*worktree.Worktree),
	}
}

func addSession(state *pod.AppState, name string, status pod.MemberStatus) *pod.Session {
	s := &pod.Session{
		Name:   name,
		Status: status,
		Members: []*pod.Member{
			{Role: "member-0", Pane: name + ":0.0", Status: status},
		},
	}
	state.AddSession(s)
	return s
}

func TestMoveFocusNavigatesOrderedSessions(t *testing.T) {
	m := newTestModel(newFakeAdapter())
	addSession(m.state, "a", pod.StatusIdle)
	addSession(m.state, "b", pod.StatusIdle)
	m.state.FocusedSession = "a"
	m.width = 200 // wide enough for multiple grid columns

	m.moveFocus(keys.ActionRight)
	if m.state.FocusedSession != "b" {
		t.Fatalf("expected focus on b, got %s", m.state.FocusedSession)
	}

	m.moveFocus(keys.ActionLeft)
	if m.state.FocusedSession != "a" {
		t.Fatalf("expected focus back on a, got %s", m.state.FocusedSession)
	}
}

func TestUnwindStepsBackOneLevel(t *testing.T) {
	m := newTestModel(newFakeAdapter())
	addSession(m.state, "a", pod.StatusIdle)
	m.state.FocusedSession = "a"
	m.state.Mode = pod.ModeChat

	m.unwind()
	if m.state.Mode != pod.ModeDetail {
		t.Fatalf("expected Detail after one unwind, got %s", m.state.Mode)
	}
	m.unwind()
	if m.state.Mode != pod.ModeHome {
		t.Fatalf("expected Home after second unwind, got %s", m.state.Mode)
	}
}

func TestDecidePermissionSendsReplyToEveryPendingMember(t *testing.T) {
	fa := newFakeAdapter()
	m := newTestModel(fa)
	s := addSession(m.state, "a", pod.StatusPermission)
	s.Members[0].Status = pod.StatusPermission
	s.Members[0].PendingPermission = &pod.PermissionRequest{Tool: "npm", Command: "npm test"}
	m.state.FocusedSession = "a"
	m.state.Mode = pod.ModePermission

	m.decidePermission(true)

	if len(fa.sent) != 1 || fa.sent[0].text != "y" || !fa.sent[0].enter {
		t.Fatalf("expected a single 'y'+Enter send, got %+v", fa.sent)
	}
	if s.Members[0].PendingPermission != nil {
		t.Fatal("expected PendingPermission cleared after decision")
	}
	if m.state.Mode != pod.ModeDetail {
		t.Fatalf("expected return to Detail, got %s", m.state.Mode)
	}
	if !m.state.PermissionDismissed["a"] {
		t.Fatal("expected session marked dismissed")
	}
}

func TestFocusNextAttentionCyclesToPermissionSession(t *testing.T) {
	m := newTestModel(newFakeAdapter())
	addSession(m.state, "a", pod.StatusPermission)
	addSession(m.state, "b", pod.StatusIdle)
	m.state.FocusedSession = "b"

	m.focusNextAttention()
	if m.state.FocusedSession != "a" {
		t.Fatalf("expected focus to move to a, got %s", m.state.FocusedSession)
	}
}

func TestCopyBranchSetsStatusLine(t *testing.T) {
	m := newTestModel(newFakeAdapter())
	s := addSession(m.state, "a", pod.StatusIdle)
	s.Worktree = &pod.WorktreeInfo{Branch: "apiary/a"}
	m.state.FocusedSession = "a"

	m.copyBranch()

	if m.statusLine == "" {
		t.Fatal("expected copyBranch to set a status line")
	}
}

func TestCopyBranchWithoutWorktreeRefuses(t *testing.T) {
	m := newTestModel(newFakeAdapter())
	addSession(m.state, "a", pod.StatusIdle)
	m.state.FocusedSession = "a"

	m.copyBranch()

	if m.statusLine != "no worktree to copy" {
		t.Fatalf("expected refusal status line, got %q", m.statusLine)
	}
}

func TestSendChatBlockedWhileWorking(t *testing.T) {
	fa := newFakeAdapter()
	m := newTestModel(fa)
	s := addSession(m.state, "a", pod.StatusWorking)
	s.Members[0].Status = pod.StatusWorking
	m.state.FocusedSession = "a"
	m.state.FocusedMember = "member-0"
	m.state.ChatBuffer = "hello"

	m.sendChat()

	if len(fa.sent) != 0 {
		t.Fatal("expected send to be blocked while Working")
	}
	if m.statusLine == "" {
		t.Fatal("expected a refusal status line")
	}
}

func TestSendAndPollChatCapturesDiffUntilIdleTwice(t *testing.T) {
	fa := newFakeAdapter()
	m := newTestModel(fa)
	s := addSession(m.state, "a", pod.StatusIdle)
	s.Members[0].Status = pod.StatusIdle
	m.state.FocusedSession = "a"
	m.state.FocusedMember = "member-0"
	m.state.ChatBuffer = "hello"
	pane := s.Members[0].Pane
	fa.captures[pane] = "❯ "

	m.sendChat()
	if len(fa.sent) != 1 || fa.sent[0].text != "hello" {
		t.Fatalf("expected send of 'hello', got %+v", fa.sent)
	}

	fa.captures[pane] = "❯ \nhello\nresponse line one\n❯ "
	m.pollChat()
	key := pod.ChatKey("a", "member-0")
	if got := len(m.state.ChatHistory[key]); got < 2 {
		t.Fatalf("expected at least send+response turns, got %d: %+v", got, m.state.ChatHistory[key])
	}

	m.pollChat()
	if m.chatIdleStreak[key] != 2 {
		t.Fatalf("expected idle streak of 2 after two idle polls, got %d", m.chatIdleStreak[key])
	}
}

func TestCreateCommandEndToEnd(t *testing.T) {
	fa := newFakeAdapter()
	fa.panesFor["demo"] = []tmux.Pane{{ID: "demo:0.0"}}
	fa.captures["demo:0.0"] = "claude\n❯ "

	m := newTestModel(fa)
	m.str = newTestStore(t)

	m.cmdCreate([]string{"demo"})

	if !fa.sessions["demo"] {
		t.Fatal("expected multiplexer session 'demo' to exist")
	}
	s, ok := m.state.Sessions["demo"]
	if !ok {
		t.Fatal("expected Session 'demo' registered in AppState")
	}
	if len(s.Members) != 1 || s.Members[0].Pane != "demo:0.0" {
		t.Fatalf("unexpected members: %+v", s.Members)
	}
	if len(fa.sent) != 1 || fa.sent[0].pane != "demo:0.0" {
		t.Fatalf("expected assistant launch send_keys, got %+v", fa.sent)
	}
}

func TestCreateCommandRejectsNameCollision(t *testing.T) {
	fa := newFakeAdapter()
	m := newTestModel(fa)
	m.str = newTestStore(t)
	addSession(m.state, "demo", pod.StatusIdle)

	m.cmdCreate([]string{"demo"})

	if fa.sessions["demo"] {
		t.Fatal("expected no multiplexer session created on name collision")
	}
}

func TestDropKillsSessionAndForgetDoesNot(t *testing.T) {
	fa := newFakeAdapter()
	fa.sessions["tmux-a"] = true
	fa.sessions["tmux-b"] = true
	m := newTestModel(fa)
	m.str = newTestStore(t)

	sa := addSession(m.state, "a", pod.StatusIdle)
	sa.MultiplexerName = "tmux-a"
	sb := addSession(m.state, "b", pod.StatusIdle)
	sb.MultiplexerName = "tmux-b"

	m.cmdDrop([]string{"a"})
	if fa.sessions["tmux-a"] {
		t.Fatal("expected drop to kill the multiplexer session")
	}
	if _, ok := m.state.Sessions["a"]; ok {
		t.Fatal("expected Session 'a' removed after drop")
	}

	m.cmdForget([]string{"b"})
	if !fa.sessions["tmux-b"] {
		t.Fatal("expected forget to leave the multiplexer session running")
	}
	if _, ok := m.state.Sessions["b"]; ok {
		t.Fatal("expected Session 'b' removed after forget")
	}
}
